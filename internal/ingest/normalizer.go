package ingest

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"paysync-server/internal/models"
	"paysync-server/internal/paypal"
)

var (
	ErrMissingTransactionID = errors.New("missing transaction id")
	ErrInvalidTimestamp     = errors.New("invalid initiation timestamp")
)

const timeOfDayLayout = "15:04:05"

var timestampLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

type Normalizer struct {
	logger *slog.Logger
}

func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize converts a batch of raw transactions one-to-one and in order.
// A record without an id or a readable initiation timestamp fails the whole
// batch; an unreadable amount only degrades to zero.
func (n *Normalizer) Normalize(details []paypal.TransactionDetail) ([]models.PaymentNotification, error) {
	notifications := make([]models.PaymentNotification, 0, len(details))
	for i, td := range details {
		notification, err := n.normalizeOne(td)
		if err != nil {
			return nil, fmt.Errorf("normalize transaction %d: %w", i, err)
		}
		notifications = append(notifications, notification)
	}
	return notifications, nil
}

func (n *Normalizer) normalizeOne(td paypal.TransactionDetail) (models.PaymentNotification, error) {
	info := td.TransactionInfo

	transactionID := strings.TrimSpace(info.TransactionID)
	if transactionID == "" {
		return models.PaymentNotification{}, ErrMissingTransactionID
	}

	rawAmount, currency := "", ""
	if info.Amount != nil {
		rawAmount = string(info.Amount.Value)
		currency = info.Amount.CurrencyCode
	}

	n.logger.Info("transaction received",
		"event_code", info.EventCode,
		"transaction_id", transactionID,
		"amount", rawAmount,
		"status", info.Status,
		"description", Describe(td),
	)

	initiatedAt, err := ParseTimestamp(info.InitiationDate)
	if err != nil {
		return models.PaymentNotification{}, fmt.Errorf("transaction %s: %w", transactionID, err)
	}

	amount, err := ParseAmount(rawAmount)
	if err != nil {
		n.logger.Warn("amount could not be parsed, using zero",
			"transaction_id", transactionID,
			"amount", rawAmount,
			"error", err,
		)
	}

	method := Classify(td, info.EventCode)

	return models.PaymentNotification{
		Date:          time.Date(initiatedAt.Year(), initiatedAt.Month(), initiatedAt.Day(), 0, 0, 0, 0, time.UTC),
		Time:          initiatedAt.Format(timeOfDayLayout),
		TransactionID: transactionID,
		Status:        MapStatus(info.Status),
		Amount:        amount,
		CurrencyCode:  currency,
		PaymentMethod: method.PaymentMethod,
		Bank:          method.Bank,
	}, nil
}

// ParseTimestamp reads an initiation date, keeping the offset it was written in.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}

// Describe joins subject, note and payer email for audit log lines.
func Describe(td paypal.TransactionDetail) string {
	var parts []string
	if s := td.TransactionInfo.Subject; s != nil {
		parts = append(parts, "Subject: "+*s)
	}
	if s := td.TransactionInfo.Note; s != nil {
		parts = append(parts, "Note: "+*s)
	}
	if td.PayerInfo != nil && td.PayerInfo.EmailAddress != nil {
		parts = append(parts, "Payer: "+*td.PayerInfo.EmailAddress)
	}
	return strings.Join(parts, " | ")
}
