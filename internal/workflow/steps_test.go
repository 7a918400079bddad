package workflow

import (
	"testing"

	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/model"
)

func TestParseDocumentTypeDefaultsToQuote(t *testing.T) {
	cases := map[string]string{
		"billing": model.TypeBilling,
		"quote":   model.TypeQuote,
		"":        model.TypeQuote,
		"BILLING": model.TypeQuote,
		"invoice": model.TypeQuote,
	}
	for raw, want := range cases {
		if got := ParseDocumentType(raw); got != want {
			t.Errorf("ParseDocumentType(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParsePaymentIgnoresUnknownValues(t *testing.T) {
	if got := ParsePayment("success"); got != PaymentSuccess {
		t.Errorf("expected success, got %q", got)
	}
	if got := ParsePayment("cancelled"); got != PaymentCancelled {
		t.Errorf("expected cancelled, got %q", got)
	}
	if got := ParsePayment("weird"); got != "" {
		t.Errorf("expected empty for unknown value, got %q", got)
	}
}

func TestStepsFor(t *testing.T) {
	quoteWithPayment := StepsFor(model.TypeQuote, true)
	if len(quoteWithPayment) != 4 || quoteWithPayment[2] != StepPayment {
		t.Errorf("quote with payment: unexpected steps %v", quoteWithPayment)
	}

	quoteNoPayment := StepsFor(model.TypeQuote, false)
	if len(quoteNoPayment) != 3 || HasStep(quoteNoPayment, StepPayment) {
		t.Errorf("quote without payment: unexpected steps %v", quoteNoPayment)
	}

	// Billing always has a payment step, withPayment is ignored.
	billing := StepsFor(model.TypeBilling, false)
	if len(billing) != 3 || billing[1] != StepPayment || HasStep(billing, StepSignature) {
		t.Errorf("billing: unexpected steps %v", billing)
	}
}

func TestResolveFreshQuoteShowsPreview(t *testing.T) {
	doc := &model.Document{DocumentType: model.TypeQuote, Status: model.StatusSent}
	res := Resolve(doc, Query{DocumentType: model.TypeQuote, WithPayment: true})
	if res.Current != StepPreview {
		t.Errorf("expected preview, got %s", res.Current)
	}
	if res.RunCompletion {
		t.Error("fresh document must not trigger payment completion")
	}
	if pos := Position(res.Steps, res.Current); pos != 1 {
		t.Errorf("expected position 1, got %d", pos)
	}
}

func TestResolveAcceptedQuoteShowsPayment(t *testing.T) {
	doc := &model.Document{DocumentType: model.TypeQuote, Status: model.StatusAccepted}
	res := Resolve(doc, Query{DocumentType: model.TypeQuote, WithPayment: true})
	if res.Current != StepPayment {
		t.Errorf("expected payment, got %s", res.Current)
	}
}

func TestResolveAcceptedQuoteWithoutPaymentShowsConfirmation(t *testing.T) {
	doc := &model.Document{DocumentType: model.TypeQuote, Status: model.StatusAccepted}
	res := Resolve(doc, Query{DocumentType: model.TypeQuote, WithPayment: false})
	if res.Current != StepConfirmation {
		t.Errorf("expected confirmation, got %s", res.Current)
	}
}

func TestResolveCompletedPaymentAlwaysConfirmation(t *testing.T) {
	doc := &model.Document{
		DocumentType: model.TypeQuote,
		Status:       model.StatusPaid,
		Payment:      model.PaymentRecord{SessionID: "cs_123"},
	}
	// Even a success redirect must not re-run completion once recorded.
	res := Resolve(doc, Query{DocumentType: model.TypeQuote, WithPayment: true, Payment: PaymentSuccess, SessionID: "cs_123"})
	if res.Current != StepConfirmation {
		t.Errorf("expected confirmation, got %s", res.Current)
	}
	if res.RunCompletion {
		t.Error("completion must not run again for a recorded payment")
	}
}

func TestResolvePaidStatusWithoutSessionIsConfirmation(t *testing.T) {
	doc := &model.Document{DocumentType: model.TypeBilling, PaymentStatus: model.PaymentPaid}
	res := Resolve(doc, Query{DocumentType: model.TypeBilling})
	if res.Current != StepConfirmation {
		t.Errorf("expected confirmation, got %s", res.Current)
	}
}

func TestResolveSuccessRedirectRunsCompletion(t *testing.T) {
	doc := &model.Document{DocumentType: model.TypeBilling, PaymentStatus: model.PaymentPending}
	res := Resolve(doc, Query{DocumentType: model.TypeBilling, Payment: PaymentSuccess, SessionID: "cs_456"})
	if !res.RunCompletion {
		t.Error("expected completion to run")
	}
	if res.Current != StepConfirmation {
		t.Errorf("expected confirmation, got %s", res.Current)
	}
}

func TestResolveSuccessWithoutSessionFallsThrough(t *testing.T) {
	doc := &model.Document{DocumentType: model.TypeBilling, PaymentStatus: model.PaymentPending}
	res := Resolve(doc, Query{DocumentType: model.TypeBilling, Payment: PaymentSuccess})
	if res.RunCompletion {
		t.Error("completion must not run without a session id")
	}
	if res.Current != StepPreview {
		t.Errorf("expected preview, got %s", res.Current)
	}
}

func TestResolveCancelledOnAcceptedQuoteShowsPayment(t *testing.T) {
	doc := &model.Document{DocumentType: model.TypeQuote, Status: model.StatusAccepted}
	res := Resolve(doc, Query{DocumentType: model.TypeQuote, WithPayment: true, Payment: PaymentCancelled})
	if res.Current != StepPayment {
		t.Errorf("expected payment after cancelled redirect on accepted quote, got %s", res.Current)
	}
}

func TestResolveCancelledOnUnsignedQuoteShowsPreview(t *testing.T) {
	doc := &model.Document{DocumentType: model.TypeQuote, Status: model.StatusSent}
	res := Resolve(doc, Query{DocumentType: model.TypeQuote, WithPayment: true, Payment: PaymentCancelled})
	if res.Current != StepPreview {
		t.Errorf("expected preview, got %s", res.Current)
	}
}

func TestResolveCancelledOnBillingShowsPayment(t *testing.T) {
	doc := &model.Document{DocumentType: model.TypeBilling, PaymentStatus: model.PaymentPending}
	res := Resolve(doc, Query{DocumentType: model.TypeBilling, Payment: PaymentCancelled})
	if res.Current != StepPayment {
		t.Errorf("expected payment, got %s", res.Current)
	}
}

func TestCanNavigateBack(t *testing.T) {
	steps := StepsFor(model.TypeQuote, true)

	if !CanNavigateBack(steps, StepPayment, StepPreview) {
		t.Error("backward navigation to a completed step should be allowed")
	}
	if CanNavigateBack(steps, StepSignature, StepPayment) {
		t.Error("forward navigation must never be allowed")
	}
	if CanNavigateBack(steps, StepConfirmation, StepPayment) {
		t.Error("navigation away from confirmation must be rejected")
	}
	if CanNavigateBack(steps, StepPreview, StepPreview) {
		t.Error("navigating to the current step is not backward")
	}
	billingSteps := StepsFor(model.TypeBilling, false)
	if CanNavigateBack(billingSteps, StepPayment, StepSignature) {
		t.Error("navigation to a step outside the sequence must be rejected")
	}
}
