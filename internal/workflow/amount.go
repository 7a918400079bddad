package workflow

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/model"
)

var oneHundred = decimal.NewFromInt(100)

// AmountDue is the single authoritative computation of what the client owes
// right now. Preview rendering, checkout session creation and payment
// reconciliation must all go through here so the three sites cannot drift.
//
// Quotes: deposit percentage of the total when a deposit is set, otherwise
// the full total. Billing invoices: total with tax when tax is shown,
// otherwise the bare total.
func AmountDue(doc *model.Document) decimal.Decimal {
	if doc.IsQuote() {
		if doc.DepositPercent.IsPositive() {
			return doc.TotalAmount.Mul(doc.DepositPercent).Div(oneHundred).Round(2)
		}
		return doc.TotalAmount
	}
	if doc.ShowTax {
		return doc.TotalWithTax
	}
	return doc.TotalAmount
}

// MinorUnits converts a decimal amount to the minor currency units (cents)
// expected by the payment processor.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(oneHundred).Round(0).IntPart()
}

// IsExpired reports whether the document's validity boundary (ValidUntil for
// quotes, DueDate for billing) is strictly before today. The comparison is
// date-only: a document expiring today is still valid all day. Documents
// without a boundary never expire.
func IsExpired(doc *model.Document, now time.Time) bool {
	boundary := doc.ExpiryDate()
	if boundary == nil {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	by, bm, bd := boundary.Date()
	boundaryDay := time.Date(by, bm, bd, 0, 0, 0, 0, now.Location())
	return boundaryDay.Before(today)
}
