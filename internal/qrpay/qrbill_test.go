package qrpay

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestQRBillPayloadLayout(t *testing.T) {
	bill := QRBill{
		IBAN:         "CH44 3199 9123 0008 8901 2",
		Creditor:     "ACME Sarl",
		AddressLine1: "Rue du Marche 12",
		AddressLine2: "1204 Geneve",
		Country:      "CH",
		Amount:       decimal.RequireFromString("1234.50"),
		Currency:     "CHF",
		Message:      "QUO-20250601-00001",
	}

	payload, err := bill.Payload()
	if err != nil {
		t.Fatalf("payload failed: %v", err)
	}

	lines := strings.Split(payload, "\n")
	if len(lines) != 31 {
		t.Fatalf("expected 31 lines, got %d", len(lines))
	}

	if lines[0] != "SPC" || lines[1] != "0200" || lines[2] != "1" {
		t.Errorf("bad header: %v", lines[:3])
	}
	if lines[3] != "CH4431999123000889012" {
		t.Errorf("IBAN must be rendered without spaces, got %q", lines[3])
	}
	if lines[4] != "K" || lines[5] != "ACME Sarl" {
		t.Errorf("bad creditor block: %v", lines[4:6])
	}
	if lines[18] != "1234.50" || lines[19] != "CHF" {
		t.Errorf("bad amount block: %v", lines[18:20])
	}
	if lines[27] != "NON" || lines[28] != "" {
		t.Errorf("bad reference block: %v", lines[27:29])
	}
	if lines[29] != "QUO-20250601-00001" {
		t.Errorf("expected message line, got %q", lines[29])
	}
	if lines[30] != "EPD" {
		t.Errorf("expected EPD trailer, got %q", lines[30])
	}
}

func TestQRBillValidate(t *testing.T) {
	valid := QRBill{
		IBAN:     "CH4431999123000889012",
		Creditor: "ACME Sarl",
		Amount:   decimal.NewFromInt(100),
		Currency: "CHF",
	}

	cases := []struct {
		name   string
		mutate func(b *QRBill)
	}{
		{"french IBAN", func(b *QRBill) { b.IBAN = "FR7630006000011234567890189" }},
		{"short IBAN", func(b *QRBill) { b.IBAN = "CH44" }},
		{"USD currency", func(b *QRBill) { b.Currency = "USD" }},
		{"missing creditor", func(b *QRBill) { b.Creditor = "" }},
	}
	for _, tc := range cases {
		b := valid
		tc.mutate(&b)
		if err := b.Validate(); err == nil {
			t.Errorf("%s: expected an error", tc.name)
		}
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("valid bill rejected: %v", err)
	}
}
