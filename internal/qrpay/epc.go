package qrpay

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// EPC builds a SEPA credit transfer QR payload (EPC069-12 version 002), the
// "French" QR used on EUR documents.
type EPC struct {
	BIC        string
	Name       string // beneficiary name
	IBAN       string
	Amount     decimal.Decimal // EUR only
	Remittance string          // unstructured remittance, e.g. the document number
}

func (e EPC) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("epc: beneficiary name is required")
	}
	iban := strings.ReplaceAll(e.IBAN, " ", "")
	if len(iban) < 15 || len(iban) > 34 {
		return fmt.Errorf("epc: IBAN %q has invalid length", e.IBAN)
	}
	if !e.Amount.IsPositive() {
		return fmt.Errorf("epc: amount must be positive")
	}
	return nil
}

// Payload renders the EPC text block. SEPA QR amounts always carry the EUR
// prefix; the standard supports no other currency.
func (e EPC) Payload() (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	lines := []string{
		"BCD", // service tag
		"002", // version
		"1",   // charset: UTF-8
		"SCT", // SEPA credit transfer
		e.BIC,
		e.Name,
		strings.ReplaceAll(e.IBAN, " ", ""),
		"EUR" + e.Amount.StringFixed(2),
		"", // purpose
		"", // structured remittance
		e.Remittance,
	}
	return strings.Join(lines, "\n"), nil
}
