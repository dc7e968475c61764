package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusSuccess  = "Success"
	StatusPending  = "Pending"
	StatusReversed = "Reversed"
	StatusFailed   = "Failed"
	StatusUnknown  = "Unknown"
)

// PaymentNotification is the canonical, persisted form of one provider
// transaction. TransactionID is unique across the table.
type PaymentNotification struct {
	ID            uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Date          time.Time       `gorm:"column:date;type:date;not null;index" json:"date"`
	Time          string          `gorm:"column:time_of_day;type:time;not null" json:"time"`
	TransactionID string          `gorm:"column:transaction_id;type:varchar(64);not null;uniqueIndex:idx_payment_notifications_transaction_id" json:"transaction_id"`
	Status        string          `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(18,2);not null" json:"amount"`
	CurrencyCode  string          `gorm:"column:currency_code;type:varchar(3)" json:"currency_code"`
	PaymentMethod string          `gorm:"column:payment_method;type:varchar(32);not null" json:"payment_method"`
	Bank          string          `gorm:"column:bank;type:varchar(32);not null" json:"bank"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (PaymentNotification) TableName() string { return "payment_notifications" }
