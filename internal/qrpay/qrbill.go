package qrpay

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// QRBill builds the Swiss QR-bill payload (Swiss Payment Standards, SPC
// version 0200, combined "K" address form, NON reference).
type QRBill struct {
	IBAN         string // CH/LI IBAN of the creditor
	Creditor     string // account holder name
	AddressLine1 string
	AddressLine2 string
	Country      string // ISO 3166-1 alpha-2, typically CH
	Amount       decimal.Decimal
	Currency     string // CHF or EUR only
	Message      string // unstructured message, e.g. the document number
}

// Validate checks the fields the Swiss spec is strict about.
func (b QRBill) Validate() error {
	iban := strings.ReplaceAll(b.IBAN, " ", "")
	if len(iban) != 21 || (!strings.HasPrefix(iban, "CH") && !strings.HasPrefix(iban, "LI")) {
		return fmt.Errorf("qrbill: IBAN %q is not a valid CH/LI IBAN", b.IBAN)
	}
	if b.Currency != "CHF" && b.Currency != "EUR" {
		return fmt.Errorf("qrbill: currency %q not allowed (CHF or EUR)", b.Currency)
	}
	if b.Creditor == "" {
		return fmt.Errorf("qrbill: creditor name is required")
	}
	return nil
}

// Payload renders the SPC text block to encode into the Swiss QR code.
func (b QRBill) Payload() (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}

	lines := []string{
		"SPC",  // QRType
		"0200", // Version
		"1",    // Coding: UTF-8
		strings.ReplaceAll(b.IBAN, " ", ""),
		// Creditor, combined address form
		"K",
		b.Creditor,
		b.AddressLine1,
		b.AddressLine2,
		"", // postal code (unused with K)
		"", // town (unused with K)
		b.Country,
		// Ultimate creditor: reserved, always empty
		"", "", "", "", "", "", "",
		b.Amount.StringFixed(2),
		b.Currency,
		// Ultimate debtor: not pre-filled
		"", "", "", "", "", "", "",
		"NON", // reference type
		"",    // reference
		b.Message,
		"EPD", // end of payment data
	}
	return strings.Join(lines, "\n"), nil
}
