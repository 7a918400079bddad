package payment

import "context"

// SessionRequest describes a hosted checkout session to create. Amount is in
// minor currency units (cents).
type SessionRequest struct {
	DocumentID   string
	DocumentType string
	Amount       int64
	Currency     string
	PayerEmail   string
	ProductLabel string
	SuccessURL   string
	CancelURL    string
}

// CheckoutSessions creates hosted payment sessions. The caller performs a
// full browser redirect to the returned URL; the processor sends the user
// back via the success/cancel URLs encoded in the request.
type CheckoutSessions interface {
	Create(ctx context.Context, req SessionRequest) (redirectURL string, err error)
}
