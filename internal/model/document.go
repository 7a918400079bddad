package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentType enum constants
const (
	TypeQuote   = "quote"
	TypeBilling = "billing"
)

// Quote status enum constants
const (
	StatusDraft    = "draft"
	StatusSent     = "sent"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusPaid     = "paid"
)

// Billing payment status enum constants
const (
	PaymentPending = "pending"
	PaymentPartial = "partial"
	PaymentPaid    = "paid"
)

// Currency enum constants
const (
	CurrencyEUR = "EUR"
	CurrencyCHF = "CHF"
)

// Signature records the client acceptance of a quote. Present once accepted.
type Signature struct {
	Name     string     `gorm:"type:varchar(255)" json:"name,omitempty"`
	Email    string     `gorm:"type:varchar(255)" json:"email,omitempty"`
	SignedAt *time.Time `json:"signed_at,omitempty"`
}

// PaymentRecord references a completed hosted-checkout payment.
// A non-empty SessionID is the source of truth for "payment complete".
type PaymentRecord struct {
	SessionID string          `gorm:"type:varchar(255);not null;default:'';index" json:"session_id,omitempty"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount"`
	Currency  string          `gorm:"type:varchar(3)" json:"currency,omitempty"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
}

// BankAccount is the bank-transfer target shown to clients choosing the
// out-of-band payment path.
type BankAccount struct {
	IBAN    string `gorm:"column:iban;type:varchar(34)" json:"iban,omitempty"`
	BIC     string `gorm:"column:bic;type:varchar(11)" json:"bic,omitempty"`
	Holder  string `gorm:"type:varchar(255)" json:"holder,omitempty"`
	Country string `gorm:"type:varchar(2)" json:"country,omitempty"`
}

// Document is a quote or a billing invoice, discriminated by DocumentType.
// Quotes use Status/ValidUntil/DepositPercent, billing invoices use
// PaymentStatus/DueDate/TaxRate.
type Document struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID      uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner        *User     `gorm:"foreignKey:OwnerID" json:"-"`
	Number       string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"number"`
	DocumentType string    `gorm:"type:varchar(10);not null;index" json:"document_type"` // quote, billing

	ClientName  string `gorm:"type:varchar(255);not null" json:"client_name"`
	ClientEmail string `gorm:"type:varchar(255);not null" json:"client_email"`

	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	TotalWithTax   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_with_tax"`
	DepositPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"deposit_percent"` // quotes; 0 means pay in full
	TaxRate        decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`        // billing
	ShowTax        bool            `gorm:"not null;default:false" json:"show_tax"`
	Currency       string          `gorm:"type:varchar(3);not null" json:"currency"` // EUR, CHF

	ValidUntil *time.Time `json:"valid_until,omitempty"` // quotes
	DueDate    *time.Time `json:"due_date,omitempty"`    // billing

	Status        string `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`          // quotes
	PaymentStatus string `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"` // billing

	Signature   Signature     `gorm:"embedded;embeddedPrefix:signature_" json:"signature"`
	Payment     PaymentRecord `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	BankAccount BankAccount   `gorm:"embedded;embeddedPrefix:bank_" json:"bank_account"`

	// Set on quotes once converted into a billing invoice.
	ConvertedToID *uuid.UUID `gorm:"type:uuid" json:"converted_to_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsQuote reports whether the document is a quote (vs a billing invoice).
func (d *Document) IsQuote() bool {
	return d.DocumentType == TypeQuote
}

// Accepted reports whether a quote has been signed (accepted or already paid).
func (d *Document) Accepted() bool {
	return d.Status == StatusAccepted || d.Status == StatusPaid
}

// PaymentComplete reports whether a payment has been recorded, either via a
// stored checkout session reference or a paid payment status.
func (d *Document) PaymentComplete() bool {
	return d.Payment.SessionID != "" || d.PaymentStatus == PaymentPaid
}

// HasBankAccount reports whether the bank-transfer path can be offered.
func (d *Document) HasBankAccount() bool {
	return d.BankAccount.IBAN != ""
}

// ExpiryDate returns the validity boundary: ValidUntil for quotes, DueDate
// for billing invoices. Nil when the document carries no boundary.
func (d *Document) ExpiryDate() *time.Time {
	if d.IsQuote() {
		return d.ValidUntil
	}
	return d.DueDate
}
