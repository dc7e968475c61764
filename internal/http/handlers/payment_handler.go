package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"paysync-server/internal/models"
	"paysync-server/internal/repo"
	"paysync-server/internal/utils"
)

type PaymentQueries interface {
	List(ctx context.Context, filter repo.PaymentFilter) ([]models.PaymentNotification, repo.PaymentQuery, int64, error)
	GetByID(ctx context.Context, id uint) (*models.PaymentNotification, error)
	Dashboard(ctx context.Context) (*repo.DashboardStats, error)
}

type PaymentHandler struct {
	payments PaymentQueries
}

type NotificationResponse struct {
	ID            uint      `json:"id"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	Amount        string    `json:"amount"`
	CurrencyCode  string    `json:"currency_code,omitempty"`
	PaymentMethod string    `json:"payment_method"`
	Bank          string    `json:"bank"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewPaymentHandler(payments PaymentQueries) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

func (h *PaymentHandler) List(c *gin.Context) {
	filter, err := parsePaymentFilter(c)
	if err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	items, q, total, err := h.payments.List(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": notificationsToResponse(items),
		"meta": utils.NewPagination(q.Page(), q.PageSize(), total),
	})
}

func (h *PaymentHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.RespondValidationError(c, "id must be a positive integer")
		return
	}

	item, err := h.payments.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notificationToResponse(*item))
}

func (h *PaymentHandler) Dashboard(c *gin.Context) {
	stats, err := h.payments.Dashboard(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	methods := make([]gin.H, 0, len(stats.TopPaymentMethods))
	for _, m := range stats.TopPaymentMethods {
		methods = append(methods, gin.H{
			"method":       m.Method,
			"count":        m.Count,
			"total_amount": m.TotalAmount.StringFixed(2),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"successful_transactions": stats.SuccessfulTransactions,
		"total_amount":            stats.TotalAmount.StringFixed(2),
		"top_payment_methods":     methods,
	})
}

func parsePaymentFilter(c *gin.Context) (repo.PaymentFilter, error) {
	filter := repo.PaymentFilter{
		Status:   c.Query("status"),
		Page:     parseIntDefault(c.Query("page"), 1),
		PageSize: parseIntDefault(c.Query("page_size"), repo.DefaultPaymentPageSize),
	}

	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filter, fmt.Errorf("start_date must be YYYY-MM-DD")
		}
		filter.StartDate = &parsed
	}

	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filter, fmt.Errorf("end_date must be YYYY-MM-DD")
		}
		filter.EndDate = &parsed
	}

	return filter, nil
}

func parseIntDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func notificationToResponse(n models.PaymentNotification) NotificationResponse {
	return NotificationResponse{
		ID:            n.ID,
		Date:          n.Date.UTC().Format(dateLayout),
		Time:          n.Time,
		TransactionID: n.TransactionID,
		Status:        n.Status,
		Amount:        n.Amount.StringFixed(2),
		CurrencyCode:  n.CurrencyCode,
		PaymentMethod: n.PaymentMethod,
		Bank:          n.Bank,
		CreatedAt:     n.CreatedAt,
	}
}

func notificationsToResponse(items []models.PaymentNotification) []NotificationResponse {
	data := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		data = append(data, notificationToResponse(item))
	}
	return data
}
