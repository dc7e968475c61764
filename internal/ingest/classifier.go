package ingest

import "paysync-server/internal/paypal"

// InitialBalanceEventCode marks the opening balance entry of an account.
const InitialBalanceEventCode = "T1900"

// Method is a payment method together with the channel that carried it.
type Method struct {
	PaymentMethod string
	Bank          string
}

var (
	MethodInitialBalance = Method{PaymentMethod: "Initial Balance", Bank: "PayPal"}
	MethodCreditCard     = Method{PaymentMethod: "Credit Card", Bank: "Card Payment"}
	MethodPayPalBalance  = Method{PaymentMethod: "PayPal Balance", Bank: "PayPal"}
	MethodUnknown        = Method{PaymentMethod: "Unknown", Bank: "Unknown"}
)

type classificationRule struct {
	name   string
	match  func(td paypal.TransactionDetail, eventCode string) bool
	method Method
}

// Rules are evaluated in order and the first match wins. Append new rules
// where their precedence belongs; never reorder the existing ones.
var classificationRules = []classificationRule{
	{
		name:   "initial_balance",
		match:  func(_ paypal.TransactionDetail, eventCode string) bool { return eventCode == InitialBalanceEventCode },
		method: MethodInitialBalance,
	},
	{
		name:   "cart_items",
		match:  func(td paypal.TransactionDetail, _ string) bool { return hasCartItems(td) },
		method: MethodCreditCard,
	},
	{
		name:   "payer_email",
		match:  func(td paypal.TransactionDetail, _ string) bool { return hasPayerEmail(td) },
		method: MethodPayPalBalance,
	},
}

// Classify infers the payment method of a raw transaction.
func Classify(td paypal.TransactionDetail, eventCode string) Method {
	for _, rule := range classificationRules {
		if rule.match(td, eventCode) {
			return rule.method
		}
	}
	return MethodUnknown
}

func hasCartItems(td paypal.TransactionDetail) bool {
	return td.CartInfo != nil && len(td.CartInfo.ItemDetails) > 0
}

func hasPayerEmail(td paypal.TransactionDetail) bool {
	return td.PayerInfo != nil && td.PayerInfo.EmailAddress != nil
}
