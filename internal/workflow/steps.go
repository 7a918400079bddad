package workflow

import (
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/model"
)

// Step identifies one screen of the client-facing validation workflow.
type Step string

const (
	StepPreview      Step = "preview"
	StepSignature    Step = "signature"
	StepPayment      Step = "payment"
	StepConfirmation Step = "confirmation"
)

// Redirect return markers echoed in the `payment` query parameter.
const (
	PaymentSuccess   = "success"
	PaymentCancelled = "cancelled"
)

// Query is the typed form of the validation URL query parameters. Malformed
// or missing parameters are normalized to their zero value before resolution.
type Query struct {
	DocumentType string // normalized via ParseDocumentType
	WithPayment  bool   // enables the payment step for quotes
	Payment      string // "", "success" or "cancelled"
	SessionID    string // opaque checkout session id echoed by the processor
}

// ParseDocumentType normalizes the `type` query parameter. Anything other
// than the exact string "billing" is a quote; the default is deliberate and
// tested, not incidental.
func ParseDocumentType(raw string) string {
	if raw == model.TypeBilling {
		return model.TypeBilling
	}
	return model.TypeQuote
}

// ParsePayment normalizes the `payment` query parameter; unknown values are
// treated as absent so resolution falls through to the next rule.
func ParsePayment(raw string) string {
	switch raw {
	case PaymentSuccess, PaymentCancelled:
		return raw
	}
	return ""
}

// StepsFor returns the ordered step list for a document:
//
//	quote + payment enabled:  preview, signature, payment, confirmation
//	quote + payment disabled: preview, signature, confirmation
//	billing invoice:          preview, payment, confirmation
func StepsFor(docType string, withPayment bool) []Step {
	if docType == model.TypeBilling {
		return []Step{StepPreview, StepPayment, StepConfirmation}
	}
	if withPayment {
		return []Step{StepPreview, StepSignature, StepPayment, StepConfirmation}
	}
	return []Step{StepPreview, StepSignature, StepConfirmation}
}

// Position returns the 1-indexed position of step in steps, or 0 when the
// step is not part of the sequence.
func Position(steps []Step, step Step) int {
	for i, s := range steps {
		if s == step {
			return i + 1
		}
	}
	return 0
}

// HasStep reports whether step is part of the sequence.
func HasStep(steps []Step, step Step) bool {
	return Position(steps, step) > 0
}

// Resolution is the outcome of resolving the current step for a document and
// an incoming URL. When RunCompletion is set the caller must invoke the
// payment completion handler before rendering Current.
type Resolution struct {
	Steps         []Step
	Current       Step
	RunCompletion bool
}

// Resolve derives the step to display from document state and query
// parameters. Rules are evaluated in priority order, first match wins:
//
//  1. payment already recorded            -> confirmation
//  2. payment=success with a session id   -> run completion, then confirmation
//  3. payment=cancelled                   -> payment step if reachable, else preview
//  4. quote already accepted              -> payment step if present, else confirmation
//  5. otherwise                           -> preview
//
// Resolve never fails: malformed input has been normalized away in Query.
func Resolve(doc *model.Document, q Query) Resolution {
	steps := StepsFor(doc.DocumentType, q.WithPayment)
	hasPayment := HasStep(steps, StepPayment)

	res := Resolution{Steps: steps}

	switch {
	case doc.PaymentComplete():
		res.Current = StepConfirmation

	case q.Payment == PaymentSuccess && q.SessionID != "":
		res.Current = StepConfirmation
		res.RunCompletion = true

	case q.Payment == PaymentCancelled:
		if hasPayment && (!doc.IsQuote() || doc.Accepted()) {
			res.Current = StepPayment
		} else {
			res.Current = StepPreview
		}

	case doc.IsQuote() && doc.Accepted():
		if hasPayment {
			res.Current = StepPayment
		} else {
			res.Current = StepConfirmation
		}

	default:
		res.Current = StepPreview
	}

	return res
}

// CanNavigateBack reports whether a user currently on `current` may jump back
// to `target`. Backward navigation is limited to already-completed steps and
// is never permitted from the confirmation step: a confirmed payment is
// irreversible.
func CanNavigateBack(steps []Step, current, target Step) bool {
	if current == StepConfirmation {
		return false
	}
	cur := Position(steps, current)
	tgt := Position(steps, target)
	return cur > 0 && tgt > 0 && tgt < cur
}
