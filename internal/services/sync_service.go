package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"paysync-server/internal/audit"
	"paysync-server/internal/ingest"
	"paysync-server/internal/models"
	"paysync-server/internal/paypal"
	"paysync-server/internal/utils"
)

const dateLayout = "2006-01-02"

var (
	ErrSyncInProgress  = utils.NewAppError(http.StatusConflict, "SYNC_IN_PROGRESS", "a sync is already running", nil)
	errUpstreamAuth    = utils.NewAppError(http.StatusBadRequest, "UPSTREAM_AUTH_FAILED", "could not obtain a PayPal access token", nil)
	errUpstreamTimeout = utils.NewAppError(http.StatusBadRequest, "UPSTREAM_TIMEOUT", "PayPal did not answer in time", map[string]bool{"retryable": true})
	errPersistence     = utils.NewAppError(http.StatusInternalServerError, "PERSISTENCE_ERROR", "could not store payment notifications", nil)
	errStoreTimeout    = utils.NewAppError(http.StatusServiceUnavailable, "PERSISTENCE_TIMEOUT", "storing payment notifications timed out", map[string]bool{"retryable": true})
)

const (
	codeUpstreamData  = "UPSTREAM_DATA_INVALID"
	codeUpstreamFetch = "UPSTREAM_FETCH_FAILED"
)

type SyncOptions struct {
	Lookback time.Duration
	Timeout  time.Duration
	PageSize int
	MaxPages int
}

// SyncRequest holds the caller's window bounds as received. Each may be a
// date (YYYY-MM-DD) or an RFC3339 timestamp; empty means default.
type SyncRequest struct {
	StartDate string
	EndDate   string
}

type SyncResult struct {
	WindowStart   time.Time
	WindowEnd     time.Time
	Fetched       int
	Inserted      int
	Skipped       int
	Notifications []models.PaymentNotification
}

// SyncService runs one ingestion cycle at a time: token, fetch, normalize,
// dedup and persist.
type SyncService struct {
	client     ReportClient
	normalizer *ingest.Normalizer
	gate       NotificationGate
	audit      audit.Recorder
	logger     *slog.Logger
	opts       SyncOptions
	now        func() time.Time

	running sync.Mutex
}

func NewSyncService(client ReportClient, normalizer *ingest.Normalizer, gate NotificationGate, recorder audit.Recorder, logger *slog.Logger, opts SyncOptions) *SyncService {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Lookback <= 0 {
		opts.Lookback = 7 * time.Hour
	}
	if opts.MaxPages < 1 {
		opts.MaxPages = 1
	}
	return &SyncService{
		client:     client,
		normalizer: normalizer,
		gate:       gate,
		audit:      recorder,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// Run executes a full cycle. A second call while one is in flight fails
// fast with ErrSyncInProgress.
func (s *SyncService) Run(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	query, err := s.ResolveWindow(req)
	if err != nil {
		return nil, err
	}

	if !s.running.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.running.Unlock()

	ctx, cancel := s.withCycleTimeout(ctx)
	defer cancel()

	started := s.now()
	result, err := s.run(ctx, query)
	if err != nil {
		s.logger.Error("sync failed",
			"start", query.Start(), "end", query.End(), "error", err)
		s.audit.Failure(ctx, "sync failed",
			"start", query.Start(), "end", query.End(), "error", err.Error())
		return nil, err
	}

	s.logger.Info("sync completed",
		"start", query.Start(),
		"end", query.End(),
		"fetched", result.Fetched,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"duration", s.now().Sub(started),
	)
	s.audit.Success(ctx, "sync completed",
		"start", query.Start(), "end", query.End(),
		"fetched", result.Fetched, "inserted", result.Inserted, "skipped", result.Skipped)
	return result, nil
}

func (s *SyncService) run(ctx context.Context, query paypal.ReportQuery) (*SyncResult, error) {
	token, err := s.client.AccessToken(ctx)
	if err != nil {
		if isTimeout(err) {
			return nil, errUpstreamTimeout.WithCause(err)
		}
		return nil, errUpstreamAuth.WithCause(err)
	}

	details, err := s.fetchAll(ctx, token, query)
	if err != nil {
		return nil, err
	}

	result, err := s.persist(ctx, details)
	if err != nil {
		return nil, err
	}
	result.WindowStart = query.Start()
	result.WindowEnd = query.End()
	return result, nil
}

// Import runs the normalize and persist half of a cycle on a saved
// reporting API body.
func (s *SyncService) Import(ctx context.Context, payload []byte) (*SyncResult, error) {
	if !s.running.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.running.Unlock()

	ctx, cancel := s.withCycleTimeout(ctx)
	defer cancel()

	report, err := paypal.DecodeReport(payload)
	if err != nil {
		s.audit.Failure(ctx, "import failed", "error", err.Error())
		return nil, utils.NewAppError(http.StatusBadRequest, codeUpstreamData, err.Error(), nil).WithCause(err)
	}

	result, err := s.persist(ctx, report.TransactionDetails)
	if err != nil {
		s.audit.Failure(ctx, "import failed", "error", err.Error())
		return nil, err
	}
	s.audit.Success(ctx, "import completed",
		"fetched", result.Fetched, "inserted", result.Inserted, "skipped", result.Skipped)
	return result, nil
}

func (s *SyncService) withCycleTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout > 0 {
		return context.WithTimeout(ctx, s.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

func (s *SyncService) fetchAll(ctx context.Context, token string, query paypal.ReportQuery) ([]paypal.TransactionDetail, error) {
	var details []paypal.TransactionDetail
	for page := 1; page <= s.opts.MaxPages; page++ {
		report, err := s.client.FetchTransactions(ctx, token, query.WithPage(page))
		if err != nil {
			if isTimeout(err) {
				return nil, errUpstreamTimeout.WithCause(err)
			}
			return nil, utils.NewAppError(http.StatusBadRequest, codeUpstreamFetch, err.Error(), nil).WithCause(err)
		}
		if report == nil {
			break
		}
		details = append(details, report.TransactionDetails...)

		if report.TotalPages <= page {
			break
		}
		if page == s.opts.MaxPages {
			s.logger.Warn("report has more pages than allowed, remaining pages skipped",
				"total_pages", report.TotalPages, "max_pages", s.opts.MaxPages)
		}
	}
	return details, nil
}

func (s *SyncService) persist(ctx context.Context, details []paypal.TransactionDetail) (*SyncResult, error) {
	notifications, err := s.normalizer.Normalize(details)
	if err != nil {
		return nil, utils.NewAppError(http.StatusBadRequest, codeUpstreamData, err.Error(), nil).WithCause(err)
	}

	saved, err := s.gate.SaveNew(ctx, notifications)
	if err != nil {
		if isTimeout(err) {
			return nil, errStoreTimeout.WithCause(err)
		}
		return nil, errPersistence.WithCause(err)
	}

	return &SyncResult{
		Fetched:       len(details),
		Inserted:      saved.Inserted,
		Skipped:       saved.Skipped,
		Notifications: saved.Notifications,
	}, nil
}

// ResolveWindow turns the request bounds into a report query. A date-only
// end covers that whole day. A missing end is now; a missing start is the
// end minus the configured lookback.
func (s *SyncService) ResolveWindow(req SyncRequest) (paypal.ReportQuery, error) {
	end := s.now().UTC()
	if strings.TrimSpace(req.EndDate) != "" {
		parsed, err := parseWindowBound(req.EndDate, true)
		if err != nil {
			return paypal.ReportQuery{}, validationError("end_date", err)
		}
		end = parsed
	}

	start := end.Add(-s.opts.Lookback)
	if strings.TrimSpace(req.StartDate) != "" {
		parsed, err := parseWindowBound(req.StartDate, false)
		if err != nil {
			return paypal.ReportQuery{}, validationError("start_date", err)
		}
		start = parsed
	}

	query, err := paypal.NewReportQuery(start, end, s.opts.PageSize)
	if err != nil {
		return paypal.ReportQuery{}, utils.NewAppError(http.StatusBadRequest, "VALIDATION_ERROR", "invalid date range", err.Error())
	}
	return query, nil
}

func parseWindowBound(value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("must be YYYY-MM-DD or RFC3339, got %q", value)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Second)
	}
	return t, nil
}

func validationError(field string, err error) *utils.AppError {
	return utils.NewAppError(http.StatusBadRequest, "VALIDATION_ERROR", "invalid "+field, err.Error())
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
