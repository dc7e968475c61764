package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"paysync-server/internal/models"
)

const (
	DefaultPaymentPageSize = 10
	MaxPaymentPageSize     = 50
	topPaymentMethods      = 5
)

var ErrNotFound = errors.New("not found")

// PaymentFilter carries the raw listing parameters from a caller.
type PaymentFilter struct {
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

// PaymentQuery is a PaymentFilter with paging already clamped. Build it with
// NewPaymentQuery.
type PaymentQuery struct {
	status    string
	startDate *time.Time
	endDate   *time.Time
	page      int
	pageSize  int
}

func NewPaymentQuery(f PaymentFilter) PaymentQuery {
	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	switch {
	case pageSize <= 0:
		pageSize = DefaultPaymentPageSize
	case pageSize > MaxPaymentPageSize:
		pageSize = MaxPaymentPageSize
	}
	return PaymentQuery{
		status:    f.Status,
		startDate: f.StartDate,
		endDate:   f.EndDate,
		page:      page,
		pageSize:  pageSize,
	}
}

func (q PaymentQuery) Status() string        { return q.status }
func (q PaymentQuery) StartDate() *time.Time { return q.startDate }
func (q PaymentQuery) EndDate() *time.Time   { return q.endDate }
func (q PaymentQuery) Page() int             { return q.page }
func (q PaymentQuery) PageSize() int         { return q.pageSize }

type PaymentMethodStats struct {
	Method      string          `json:"method"`
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type DashboardStats struct {
	SuccessfulTransactions int64                `json:"successful_transactions"`
	TotalAmount            decimal.Decimal      `json:"total_amount"`
	TopPaymentMethods      []PaymentMethodStats `json:"top_payment_methods"`
}

// PaymentRepo serves read-only queries over stored notifications.
type PaymentRepo struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPaymentRepo(pool *pgxpool.Pool, timeout time.Duration) *PaymentRepo {
	return &PaymentRepo{pool: pool, timeout: timeout}
}

const paymentColumns = `id, date, to_char(time_of_day, 'HH24:MI:SS'), transaction_id, status,
	amount, COALESCE(currency_code, ''), payment_method, bank, created_at`

func (r *PaymentRepo) List(ctx context.Context, q PaymentQuery) ([]models.PaymentNotification, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	whereSQL, args := buildPaymentFilters(q)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM payment_notifications %s`, whereSQL)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	if total == 0 {
		return []models.PaymentNotification{}, 0, nil
	}

	offset := (q.Page() - 1) * q.PageSize()
	query := fmt.Sprintf(`
		SELECT %s
		FROM payment_notifications
		%s
		ORDER BY date DESC, time_of_day DESC, id DESC
		LIMIT %d OFFSET %d
	`, paymentColumns, whereSQL, q.PageSize(), offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	results := []models.PaymentNotification{}
	for rows.Next() {
		n, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate payments: %w", err)
	}

	return results, total, nil
}

func (r *PaymentRepo) GetByID(ctx context.Context, id uint) (*models.PaymentNotification, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM payment_notifications WHERE id = $1`, paymentColumns), id)
	n, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *PaymentRepo) Dashboard(ctx context.Context) (*DashboardStats, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	stats := DashboardStats{TopPaymentMethods: []PaymentMethodStats{}}
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount), 0)
		FROM payment_notifications
		WHERE status = $1
	`, models.StatusSuccess)
	if err := row.Scan(&stats.SuccessfulTransactions, &stats.TotalAmount); err != nil {
		return nil, fmt.Errorf("dashboard totals: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT payment_method, COUNT(*), COALESCE(SUM(amount), 0)
		FROM payment_notifications
		WHERE status = $1
		GROUP BY payment_method
		ORDER BY COUNT(*) DESC, payment_method
		LIMIT $2
	`, models.StatusSuccess, topPaymentMethods)
	if err != nil {
		return nil, fmt.Errorf("dashboard methods: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m PaymentMethodStats
		if err := rows.Scan(&m.Method, &m.Count, &m.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan method stats: %w", err)
		}
		stats.TopPaymentMethods = append(stats.TopPaymentMethods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate method stats: %w", err)
	}

	return &stats, nil
}

func scanPayment(row pgx.Row) (models.PaymentNotification, error) {
	var n models.PaymentNotification
	if err := row.Scan(
		&n.ID,
		&n.Date,
		&n.Time,
		&n.TransactionID,
		&n.Status,
		&n.Amount,
		&n.CurrencyCode,
		&n.PaymentMethod,
		&n.Bank,
		&n.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return n, err
		}
		return n, fmt.Errorf("scan payment: %w", err)
	}
	return n, nil
}

func buildPaymentFilters(q PaymentQuery) (string, []any) {
	clauses := []string{"WHERE 1=1"}
	args := []any{}
	index := 1

	if q.Status() != "" {
		clauses = append(clauses, fmt.Sprintf("AND status = $%d", index))
		args = append(args, q.Status())
		index++
	}

	if q.StartDate() != nil {
		clauses = append(clauses, fmt.Sprintf("AND date >= $%d", index))
		args = append(args, truncateToDate(*q.StartDate()))
		index++
	}

	if q.EndDate() != nil {
		clauses = append(clauses, fmt.Sprintf("AND date <= $%d", index))
		args = append(args, truncateToDate(*q.EndDate()))
		index++
	}

	return strings.Join(clauses, "\n"), args
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
