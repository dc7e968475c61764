package services

import (
	"context"

	"paysync-server/internal/models"
	"paysync-server/internal/paypal"
	"paysync-server/internal/repo"
)

// ReportClient is the provider side of a sync cycle.
//
//go:generate mockgen -destination=mocks/mock_services.go -package=mocks -source=interfaces.go
type ReportClient interface {
	AccessToken(ctx context.Context) (string, error)
	FetchTransactions(ctx context.Context, accessToken string, query paypal.ReportQuery) (*paypal.ReportResponse, error)
}

// NotificationGate stores notifications whose transaction id is new.
type NotificationGate interface {
	SaveNew(ctx context.Context, candidates []models.PaymentNotification) (*repo.SaveResult, error)
}

type PaymentReader interface {
	List(ctx context.Context, q repo.PaymentQuery) ([]models.PaymentNotification, int64, error)
	GetByID(ctx context.Context, id uint) (*models.PaymentNotification, error)
	Dashboard(ctx context.Context) (*repo.DashboardStats, error)
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, username, email, role, passwordHash string) (*models.User, error)
}
