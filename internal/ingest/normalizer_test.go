package ingest

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paysync-server/internal/paypal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawTx(id, status, eventCode, initiated, amount string) paypal.TransactionDetail {
	return paypal.TransactionDetail{
		TransactionInfo: paypal.TransactionInfo{
			TransactionID:  id,
			Status:         status,
			EventCode:      eventCode,
			InitiationDate: initiated,
			Amount:         &paypal.Money{CurrencyCode: "USD", Value: paypal.AmountValue(amount)},
		},
	}
}

func TestNormalize_MapsFields(t *testing.T) {
	td := rawTx("TX-1", "S", "T0006", "2024-03-15T22:45:10-0500", "$1,234.56")
	td.CartInfo = withCart(`{"item_name":"hat"}`)

	got, err := NewNormalizer(discardLogger()).Normalize([]paypal.TransactionDetail{td})
	require.NoError(t, err)
	require.Len(t, got, 1)

	n := got[0]
	assert.Equal(t, "TX-1", n.TransactionID)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), n.Date)
	assert.Equal(t, "22:45:10", n.Time, "time of day stays in the timestamp's own offset")
	assert.Equal(t, "Success", n.Status)
	assert.Equal(t, "1234.56", n.Amount.StringFixed(2))
	assert.Equal(t, "USD", n.CurrencyCode)
	assert.Equal(t, "Credit Card", n.PaymentMethod)
	assert.Equal(t, "Card Payment", n.Bank)
	assert.Zero(t, n.ID)
}

func TestNormalize_PreservesCountAndOrder(t *testing.T) {
	normalizer := NewNormalizer(discardLogger())

	for _, size := range []int{0, 1, 5, 50} {
		t.Run(fmt.Sprintf("n=%d", size), func(t *testing.T) {
			batch := make([]paypal.TransactionDetail, 0, size)
			for i := 0; i < size; i++ {
				batch = append(batch, rawTx(fmt.Sprintf("TX-%03d", i), "P", "T0000", "2024-01-01T10:00:00+0000", "1.00"))
			}

			got, err := normalizer.Normalize(batch)
			require.NoError(t, err)
			require.Len(t, got, size)
			for i, n := range got {
				assert.Equal(t, fmt.Sprintf("TX-%03d", i), n.TransactionID)
			}
		})
	}
}

func TestNormalize_BadAmountIsNotFatal(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	got, err := NewNormalizer(logger).Normalize([]paypal.TransactionDetail{
		rawTx("TX-1", "S", "T0000", "2024-01-01T10:00:00Z", "garbage"),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "0.00", got[0].Amount.StringFixed(2))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "transaction_id=TX-1")
}

func TestNormalize_OversizedAmountKeepsRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	got, err := NewNormalizer(logger).Normalize([]paypal.TransactionDetail{
		rawTx("TX-BIG", "S", "T0006", "2024-01-01T10:00:00Z", "1e20"),
		rawTx("TX-OK", "S", "T0006", "2024-01-01T11:00:00Z", "5.00"),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "TX-BIG", got[0].TransactionID)
	assert.Equal(t, "0.00", got[0].Amount.StringFixed(2))
	assert.Equal(t, "5.00", got[1].Amount.StringFixed(2))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "transaction_id=TX-BIG")
}

func TestNormalize_MissingAmountIsZero(t *testing.T) {
	td := rawTx("TX-1", "S", "T0000", "2024-01-01T10:00:00Z", "")
	td.TransactionInfo.Amount = nil

	got, err := NewNormalizer(discardLogger()).Normalize([]paypal.TransactionDetail{td})
	require.NoError(t, err)
	assert.True(t, got[0].Amount.IsZero())
}

func TestNormalize_MissingIDFailsBatch(t *testing.T) {
	batch := []paypal.TransactionDetail{
		rawTx("TX-1", "S", "T0000", "2024-01-01T10:00:00Z", "1.00"),
		rawTx("  ", "S", "T0000", "2024-01-01T10:00:00Z", "1.00"),
	}

	got, err := NewNormalizer(discardLogger()).Normalize(batch)
	assert.ErrorIs(t, err, ErrMissingTransactionID)
	assert.Nil(t, got)
}

func TestNormalize_BadTimestampFailsBatch(t *testing.T) {
	for _, ts := range []string{"", "yesterday", "2024-13-01T00:00:00Z"} {
		t.Run(ts, func(t *testing.T) {
			got, err := NewNormalizer(discardLogger()).Normalize([]paypal.TransactionDetail{
				rawTx("TX-1", "S", "T0000", ts, "1.00"),
			})
			assert.ErrorIs(t, err, ErrInvalidTimestamp)
			assert.Nil(t, got)
		})
	}
}

func TestParseTimestamp_Layouts(t *testing.T) {
	for _, value := range []string{
		"2024-01-15T10:30:00+0000",
		"2024-01-15T10:30:00Z",
		"2024-01-15T10:30:00.123Z",
		"2024-01-15T10:30:00",
		"2024-01-15 10:30:00",
	} {
		parsed, err := ParseTimestamp(value)
		require.NoError(t, err, value)
		assert.Equal(t, "10:30:00", parsed.Format(timeOfDayLayout), value)
	}
}

func TestDescribe(t *testing.T) {
	td := rawTx("TX-1", "S", "T0000", "2024-01-01T10:00:00Z", "1.00")
	td.TransactionInfo.Subject = strPtr("Order 12")
	td.PayerInfo = &paypal.PayerInfo{EmailAddress: strPtr("buyer@example.com")}

	assert.Equal(t, "Subject: Order 12 | Payer: buyer@example.com", Describe(td))
	assert.Equal(t, "", Describe(paypal.TransactionDetail{}))
}
