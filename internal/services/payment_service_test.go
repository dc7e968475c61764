package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paysync-server/internal/models"
	"paysync-server/internal/repo"
	"paysync-server/internal/services/mocks"
)

func TestPaymentList_NormalizesStatusAndClampsPaging(t *testing.T) {
	reader := mocks.NewMockPaymentReader(gomock.NewController(t))
	rec := &memoryRecorder{}
	svc := NewPaymentService(reader, rec)

	reader.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q repo.PaymentQuery) ([]models.PaymentNotification, int64, error) {
			assert.Equal(t, models.StatusSuccess, q.Status())
			assert.Equal(t, repo.MaxPaymentPageSize, q.PageSize())
			assert.Equal(t, 1, q.Page())
			return []models.PaymentNotification{{ID: 1, TransactionID: "A", Amount: decimal.NewFromInt(3)}}, 1, nil
		})

	items, q, total, err := svc.List(context.Background(), repo.PaymentFilter{Status: "s", Page: -2, PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, repo.MaxPaymentPageSize, q.PageSize())
	require.Len(t, rec.entries, 1)
	assert.Equal(t, recordedEntry{ok: true, msg: "payments listed"}, rec.entries[0])
}

func TestPaymentList_InvalidStatus(t *testing.T) {
	svc := NewPaymentService(mocks.NewMockPaymentReader(gomock.NewController(t)), nil)

	_, _, _, err := svc.List(context.Background(), repo.PaymentFilter{Status: "done"})
	requireAppError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestPaymentList_InvertedDates(t *testing.T) {
	svc := NewPaymentService(mocks.NewMockPaymentReader(gomock.NewController(t)), nil)
	start := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	_, _, _, err := svc.List(context.Background(), repo.PaymentFilter{StartDate: &start, EndDate: &end})
	requireAppError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestPaymentList_EmptyNamesFilters(t *testing.T) {
	reader := mocks.NewMockPaymentReader(gomock.NewController(t))
	rec := &memoryRecorder{}
	svc := NewPaymentService(reader, rec)
	reader.EXPECT().List(gomock.Any(), gomock.Any()).Return([]models.PaymentNotification{}, int64(0), nil)

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	_, _, _, err := svc.List(context.Background(), repo.PaymentFilter{Status: "Pending", StartDate: &start})
	appErr := requireAppError(t, err, http.StatusNotFound, "NOT_FOUND")
	assert.Equal(t, "no payments found for status=Pending, start_date=2024-05-01", appErr.Message)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, recordedEntry{ok: false, msg: appErr.Message}, rec.entries[0])
}

func TestPaymentGetByID(t *testing.T) {
	reader := mocks.NewMockPaymentReader(gomock.NewController(t))
	rec := &memoryRecorder{}
	svc := NewPaymentService(reader, rec)

	reader.EXPECT().GetByID(gomock.Any(), uint(7)).Return(&models.PaymentNotification{ID: 7}, nil)
	reader.EXPECT().GetByID(gomock.Any(), uint(8)).Return(nil, repo.ErrNotFound)
	reader.EXPECT().GetByID(gomock.Any(), uint(9)).Return(nil, errors.New("conn refused"))

	n, err := svc.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint(7), n.ID)

	_, err = svc.GetByID(context.Background(), 8)
	requireAppError(t, err, http.StatusNotFound, "NOT_FOUND")

	_, err = svc.GetByID(context.Background(), 9)
	requireAppError(t, err, http.StatusInternalServerError, "INTERNAL_ERROR")

	assert.Equal(t, []recordedEntry{
		{ok: true, msg: "payment retrieved"},
		{ok: false, msg: "payment 8 not found"},
		{ok: false, msg: "get payment failed"},
	}, rec.entries)
}

func TestPaymentList_StoreFailureIsAudited(t *testing.T) {
	reader := mocks.NewMockPaymentReader(gomock.NewController(t))
	rec := &memoryRecorder{}
	svc := NewPaymentService(reader, rec)
	reader.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, int64(0), errors.New("conn refused"))

	_, _, _, err := svc.List(context.Background(), repo.PaymentFilter{})
	requireAppError(t, err, http.StatusInternalServerError, "INTERNAL_ERROR")
	assert.Equal(t, []recordedEntry{{ok: false, msg: "list payments failed"}}, rec.entries)
}
