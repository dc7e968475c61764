package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"paysync-server/internal/audit"
	"paysync-server/internal/ingest"
	"paysync-server/internal/models"
	"paysync-server/internal/repo"
	"paysync-server/internal/utils"
)

type PaymentService struct {
	payments PaymentReader
	audit    audit.Recorder
}

func NewPaymentService(payments PaymentReader, recorder audit.Recorder) *PaymentService {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &PaymentService{payments: payments, audit: recorder}
}

// List returns one page of stored notifications. The status filter may be a
// code or a label; an empty page is reported as not found together with the
// filters that produced it.
func (s *PaymentService) List(ctx context.Context, filter repo.PaymentFilter) ([]models.PaymentNotification, repo.PaymentQuery, int64, error) {
	if strings.TrimSpace(filter.Status) != "" {
		status, ok := ingest.StatusFromFilter(filter.Status)
		if !ok {
			return nil, repo.PaymentQuery{}, 0, utils.NewAppError(http.StatusBadRequest, "VALIDATION_ERROR", "invalid status", map[string]string{
				"status": "must be one of S, P, V, F or Success, Pending, Reversed, Failed",
			})
		}
		filter.Status = status
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return nil, repo.PaymentQuery{}, 0, utils.NewAppError(http.StatusBadRequest, "VALIDATION_ERROR", "start_date must not be after end_date", nil)
	}

	q := repo.NewPaymentQuery(filter)
	filters := strings.TrimPrefix(describeFilters(q), " for ")
	items, total, err := s.payments.List(ctx, q)
	if err != nil {
		s.audit.Failure(ctx, "list payments failed", "filters", filters, "error", err.Error())
		return nil, q, 0, utils.NewAppError(http.StatusInternalServerError, "INTERNAL_ERROR", "could not list payments", nil).WithCause(err)
	}
	if len(items) == 0 {
		msg := "no payments found" + describeFilters(q)
		s.audit.Failure(ctx, msg, "filters", filters, "page", q.Page())
		return nil, q, total, utils.NewAppError(http.StatusNotFound, "NOT_FOUND", msg, nil)
	}
	s.audit.Success(ctx, "payments listed",
		"count", len(items), "total", total, "page", q.Page(), "page_size", q.PageSize(), "filters", filters)
	return items, q, total, nil
}

func (s *PaymentService) GetByID(ctx context.Context, id uint) (*models.PaymentNotification, error) {
	n, err := s.payments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			msg := fmt.Sprintf("payment %d not found", id)
			s.audit.Failure(ctx, msg, "id", id)
			return nil, utils.NewAppError(http.StatusNotFound, "NOT_FOUND", msg, nil)
		}
		s.audit.Failure(ctx, "get payment failed", "id", id, "error", err.Error())
		return nil, utils.NewAppError(http.StatusInternalServerError, "INTERNAL_ERROR", "could not load payment", nil).WithCause(err)
	}
	s.audit.Success(ctx, "payment retrieved", "id", id, "transaction_id", n.TransactionID)
	return n, nil
}

func (s *PaymentService) Dashboard(ctx context.Context) (*repo.DashboardStats, error) {
	stats, err := s.payments.Dashboard(ctx)
	if err != nil {
		return nil, utils.NewAppError(http.StatusInternalServerError, "INTERNAL_ERROR", "could not load dashboard", nil).WithCause(err)
	}
	return stats, nil
}

func describeFilters(q repo.PaymentQuery) string {
	var parts []string
	if q.Status() != "" {
		parts = append(parts, "status="+q.Status())
	}
	if q.StartDate() != nil {
		parts = append(parts, "start_date="+q.StartDate().Format(dateLayout))
	}
	if q.EndDate() != nil {
		parts = append(parts, "end_date="+q.EndDate().Format(dateLayout))
	}
	if q.Page() > 1 {
		parts = append(parts, fmt.Sprintf("page=%d", q.Page()))
	}
	if len(parts) == 0 {
		return ""
	}
	return " for " + strings.Join(parts, ", ")
}
