package repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPaymentQuery_ClampsPaging(t *testing.T) {
	tests := []struct {
		name         string
		filter       PaymentFilter
		wantPage     int
		wantPageSize int
	}{
		{name: "defaults", filter: PaymentFilter{}, wantPage: 1, wantPageSize: 10},
		{name: "in range", filter: PaymentFilter{Page: 3, PageSize: 25}, wantPage: 3, wantPageSize: 25},
		{name: "page size capped", filter: PaymentFilter{Page: 1, PageSize: 500}, wantPage: 1, wantPageSize: 50},
		{name: "negative page", filter: PaymentFilter{Page: -4, PageSize: -1}, wantPage: 1, wantPageSize: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewPaymentQuery(tt.filter)
			assert.Equal(t, tt.wantPage, q.Page())
			assert.Equal(t, tt.wantPageSize, q.PageSize())
		})
	}
}

func TestBuildPaymentFilters(t *testing.T) {
	start := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	where, args := buildPaymentFilters(NewPaymentQuery(PaymentFilter{
		Status:    "Success",
		StartDate: &start,
		EndDate:   &end,
	}))

	assert.Equal(t, "WHERE 1=1\nAND status = $1\nAND date >= $2\nAND date <= $3", where)
	assert.Equal(t, []any{"Success", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), end}, args)

	where, args = buildPaymentFilters(NewPaymentQuery(PaymentFilter{}))
	assert.Equal(t, "WHERE 1=1", where)
	assert.Empty(t, args)
}
