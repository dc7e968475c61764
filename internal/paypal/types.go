package paypal

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ReportResponse is one page of /v1/reporting/transactions.
type ReportResponse struct {
	TransactionDetails []TransactionDetail `json:"transaction_details"`
	AccountNumber      string              `json:"account_number,omitempty"`
	StartDate          string              `json:"start_date,omitempty"`
	EndDate            string              `json:"end_date,omitempty"`
	Page               int                 `json:"page"`
	TotalItems         int                 `json:"total_items"`
	TotalPages         int                 `json:"total_pages"`
}

// TransactionDetail is a raw transaction as returned by the reporting API.
type TransactionDetail struct {
	TransactionInfo TransactionInfo `json:"transaction_info"`
	PayerInfo       *PayerInfo      `json:"payer_info,omitempty"`
	CartInfo        *CartInfo       `json:"cart_info,omitempty"`
}

type TransactionInfo struct {
	TransactionID  string  `json:"transaction_id"`
	EventCode      string  `json:"transaction_event_code"`
	InitiationDate string  `json:"transaction_initiation_date"`
	Status         string  `json:"transaction_status"`
	Amount         *Money  `json:"transaction_amount,omitempty"`
	Subject        *string `json:"transaction_subject,omitempty"`
	Note           *string `json:"transaction_note,omitempty"`
}

type Money struct {
	CurrencyCode string      `json:"currency_code"`
	Value        AmountValue `json:"value"`
}

// AmountValue keeps the provider's amount text untouched. The API sends a
// string, but bare JSON numbers are accepted too.
type AmountValue string

func (v *AmountValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = AmountValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount value: %w", err)
	}
	*v = AmountValue(n.String())
	return nil
}

type PayerInfo struct {
	AccountID    string  `json:"account_id,omitempty"`
	EmailAddress *string `json:"email_address,omitempty"`
}

type CartInfo struct {
	ItemDetails []json.RawMessage `json:"item_details"`
}

// DecodeReport parses a reporting API body.
func DecodeReport(payload []byte) (*ReportResponse, error) {
	var report ReportResponse
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &report, nil
}
