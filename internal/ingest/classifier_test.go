package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"paysync-server/internal/paypal"
)

func strPtr(s string) *string { return &s }

func withCart(items ...string) *paypal.CartInfo {
	cart := &paypal.CartInfo{}
	for _, item := range items {
		cart.ItemDetails = append(cart.ItemDetails, json.RawMessage(item))
	}
	return cart
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		detail    paypal.TransactionDetail
		eventCode string
		want      Method
	}{
		{
			name:      "initial balance code alone",
			eventCode: "T1900",
			want:      MethodInitialBalance,
		},
		{
			name: "initial balance code wins over cart and payer",
			detail: paypal.TransactionDetail{
				CartInfo:  withCart(`{"item_name":"hat"}`),
				PayerInfo: &paypal.PayerInfo{EmailAddress: strPtr("buyer@example.com")},
			},
			eventCode: "T1900",
			want:      MethodInitialBalance,
		},
		{
			name:      "cart items",
			detail:    paypal.TransactionDetail{CartInfo: withCart(`{"item_name":"hat"}`)},
			eventCode: "T0006",
			want:      MethodCreditCard,
		},
		{
			name: "cart wins over payer email",
			detail: paypal.TransactionDetail{
				CartInfo:  withCart(`{"item_name":"hat"}`),
				PayerInfo: &paypal.PayerInfo{EmailAddress: strPtr("buyer@example.com")},
			},
			eventCode: "T0006",
			want:      MethodCreditCard,
		},
		{
			name: "empty cart falls through to payer email",
			detail: paypal.TransactionDetail{
				CartInfo:  withCart(),
				PayerInfo: &paypal.PayerInfo{EmailAddress: strPtr("buyer@example.com")},
			},
			eventCode: "T0006",
			want:      MethodPayPalBalance,
		},
		{
			name:      "payer email alone",
			detail:    paypal.TransactionDetail{PayerInfo: &paypal.PayerInfo{EmailAddress: strPtr("buyer@example.com")}},
			eventCode: "T0000",
			want:      MethodPayPalBalance,
		},
		{
			name:      "payer without email",
			detail:    paypal.TransactionDetail{PayerInfo: &paypal.PayerInfo{AccountID: "ABC"}},
			eventCode: "T0000",
			want:      MethodUnknown,
		},
		{
			name: "nothing to go on",
			want: MethodUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.detail, tt.eventCode))
		})
	}
}

func TestClassificationRuleOrder(t *testing.T) {
	names := make([]string, 0, len(classificationRules))
	for _, rule := range classificationRules {
		names = append(names, rule.name)
	}
	assert.Equal(t, []string{"initial_balance", "cart_items", "payer_email"}, names)
}
