package paypal

import (
	"errors"
	"net/url"
	"strconv"
	"time"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 500
	// MaxWindow is the widest date range the reporting API accepts per request.
	MaxWindow = 31 * 24 * time.Hour

	queryTimeLayout = "2006-01-02T15:04:05Z"
)

var (
	ErrInvalidWindow  = errors.New("start date must not be after end date")
	ErrWindowTooLarge = errors.New("date range must not exceed 31 days")
)

// ReportQuery is a validated, immutable request for one page of the
// transaction report.
type ReportQuery struct {
	start    time.Time
	end      time.Time
	pageSize int
	page     int
}

// NewReportQuery validates the window and clamps pageSize into
// [1, MaxPageSize]; a non-positive size falls back to DefaultPageSize.
func NewReportQuery(start, end time.Time, pageSize int) (ReportQuery, error) {
	if start.After(end) {
		return ReportQuery{}, ErrInvalidWindow
	}
	if end.Sub(start) > MaxWindow {
		return ReportQuery{}, ErrWindowTooLarge
	}

	switch {
	case pageSize <= 0:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}

	return ReportQuery{
		start:    start.UTC(),
		end:      end.UTC(),
		pageSize: pageSize,
		page:     1,
	}, nil
}

func (q ReportQuery) Start() time.Time { return q.start }
func (q ReportQuery) End() time.Time   { return q.end }
func (q ReportQuery) PageSize() int    { return q.pageSize }
func (q ReportQuery) Page() int        { return q.page }

// WithPage returns a copy of q pointing at page.
func (q ReportQuery) WithPage(page int) ReportQuery {
	if page < 1 {
		page = 1
	}
	q.page = page
	return q
}

func (q ReportQuery) Values() url.Values {
	v := url.Values{}
	v.Set("start_date", q.start.Format(queryTimeLayout))
	v.Set("end_date", q.end.Format(queryTimeLayout))
	v.Set("fields", "all")
	v.Set("page_size", strconv.Itoa(q.pageSize))
	v.Set("page", strconv.Itoa(q.page))
	return v
}
