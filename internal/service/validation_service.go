package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/model"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/notify"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/payment"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/repository"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/workflow"
)

// --- DTOs ---

// ValidationQuery is the typed form of the validation URL parameters.
type ValidationQuery struct {
	Type        string `form:"type"`
	WithPayment bool   `form:"withPayment"`
	Payment     string `form:"payment"`
	SessionID   string `form:"session_id"`
}

type SignatureRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required"`
}

type StepInfo struct {
	Key      string `json:"key"`
	Position int    `json:"position"`
}

type SignatureView struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	SignedAt string `json:"signed_at,omitempty"`
}

type PaymentView struct {
	SessionID string `json:"session_id,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Currency  string `json:"currency,omitempty"`
	PaidAt    string `json:"paid_at,omitempty"`
}

type BankAccountView struct {
	IBAN    string `json:"iban,omitempty"`
	BIC     string `json:"bic,omitempty"`
	Holder  string `json:"holder,omitempty"`
	Country string `json:"country,omitempty"`
}

type DocumentView struct {
	ID             string           `json:"id"`
	Number         string           `json:"number"`
	DocumentType   string           `json:"document_type"`
	ClientName     string           `json:"client_name"`
	TotalAmount    string           `json:"total_amount"`
	TotalWithTax   string           `json:"total_with_tax,omitempty"`
	DepositPercent string           `json:"deposit_percent,omitempty"`
	TaxRate        string           `json:"tax_rate,omitempty"`
	ShowTax        bool             `json:"show_tax"`
	Currency       string           `json:"currency"`
	ValidUntil     string           `json:"valid_until,omitempty"`
	DueDate        string           `json:"due_date,omitempty"`
	Status         string           `json:"status,omitempty"`
	PaymentStatus  string           `json:"payment_status,omitempty"`
	AmountDue      string           `json:"amount_due"`
	Signature      *SignatureView   `json:"signature,omitempty"`
	Payment        *PaymentView     `json:"payment,omitempty"`
	BankAccount    *BankAccountView `json:"bank_account,omitempty"`
}

// ValidationView is the state the client-facing stepper renders.
type ValidationView struct {
	Document              DocumentView `json:"document"`
	Steps                 []StepInfo   `json:"steps"`
	CurrentStep           string       `json:"current_step"`
	Position              int          `json:"position"`
	StepCount             int          `json:"step_count"`
	Expired               bool         `json:"expired"`
	Celebrate             bool         `json:"celebrate"`
	BankTransferAvailable bool         `json:"bank_transfer_available"`
}

type CheckoutResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// EventPublisher broadcasts document lifecycle events to the owner
// dashboard. Implemented by the websocket hub.
type EventPublisher interface {
	PublishDocumentEvent(event, documentID, number string)
}

// --- Interface ---

// ValidationService drives the client-facing validation workflow: resolving
// the current step, recording signatures, creating checkout sessions,
// reconciling redirect returns and acknowledging bank transfers.
type ValidationService interface {
	Resolve(ctx context.Context, id string, q ValidationQuery) (*ValidationView, error)
	Navigate(ctx context.Context, id string, q ValidationQuery, target string) (*ValidationView, error)
	Sign(ctx context.Context, id string, q ValidationQuery, req SignatureRequest) (*ValidationView, error)
	CreateCheckout(ctx context.Context, id string, q ValidationQuery) (*CheckoutResponse, error)
	AcknowledgeBankTransfer(ctx context.Context, id string, q ValidationQuery) (*ValidationView, error)
}

type validationService struct {
	docRepo  repository.DocumentRepository
	checkout payment.CheckoutSessions
	outbox   notify.Enqueuer
	events   EventPublisher
	baseURL  string
}

func NewValidationService(
	docRepo repository.DocumentRepository,
	checkout payment.CheckoutSessions,
	outbox notify.Enqueuer,
	events EventPublisher,
	baseURL string,
) ValidationService {
	return &validationService{
		docRepo:  docRepo,
		checkout: checkout,
		outbox:   outbox,
		events:   events,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// --- Implementation ---

func (s *validationService) Resolve(ctx context.Context, id string, q ValidationQuery) (*ValidationView, error) {
	doc, err := s.load(ctx, id, q)
	if err != nil {
		return nil, err
	}

	// Expiry is checked before any step resolution and bypasses the stepper.
	if workflow.IsExpired(doc, time.Now()) {
		view := s.buildView(doc, workflow.Resolution{}, false)
		view.Expired = true
		return view, nil
	}

	res := workflow.Resolve(doc, s.toWorkflowQuery(doc, q))

	celebrate := false
	if res.RunCompletion {
		applied, err := s.completePayment(ctx, doc, q.SessionID)
		if err != nil {
			return nil, err
		}
		celebrate = applied
	}

	return s.buildView(doc, res, celebrate), nil
}

// Navigate handles a backward click in the stepper. Only already-completed
// steps are reachable, and never from confirmation: a confirmed payment is
// irreversible.
func (s *validationService) Navigate(ctx context.Context, id string, q ValidationQuery, target string) (*ValidationView, error) {
	doc, err := s.load(ctx, id, q)
	if err != nil {
		return nil, err
	}
	if workflow.IsExpired(doc, time.Now()) {
		return nil, workflow.ErrExpired
	}

	res := workflow.Resolve(doc, s.toWorkflowQuery(doc, q))
	if res.RunCompletion {
		// A pending redirect return takes priority over navigation.
		if _, err := s.completePayment(ctx, doc, q.SessionID); err != nil {
			return nil, err
		}
	}

	targetStep := workflow.Step(target)
	if !workflow.CanNavigateBack(res.Steps, res.Current, targetStep) {
		return nil, &workflow.ValidationError{Field: "step", Reason: "cannot navigate to this step"}
	}

	res.Current = targetStep
	return s.buildView(doc, res, false), nil
}

func (s *validationService) Sign(ctx context.Context, id string, q ValidationQuery, req SignatureRequest) (*ValidationView, error) {
	doc, err := s.load(ctx, id, q)
	if err != nil {
		return nil, err
	}
	if !doc.IsQuote() {
		return nil, &workflow.ValidationError{Field: "document_type", Reason: "only quotes can be signed"}
	}
	if workflow.IsExpired(doc, time.Now()) {
		return nil, workflow.ErrExpired
	}
	if err := workflow.ValidateSigner(req.FirstName, req.LastName, req.Email); err != nil {
		return nil, err
	}

	steps := workflow.StepsFor(doc.DocumentType, q.WithPayment)
	hasPayment := workflow.HasStep(steps, workflow.StepPayment)

	next := workflow.StepConfirmation
	if hasPayment {
		next = workflow.StepPayment
	}

	// Replay (browser back then forward): the quote is already accepted, so
	// no store write and no duplicate emails. Navigation only.
	if doc.Accepted() {
		res := workflow.Resolution{Steps: steps, Current: next}
		return s.buildView(doc, res, next == workflow.StepConfirmation), nil
	}

	name := strings.TrimSpace(req.FirstName) + " " + strings.TrimSpace(req.LastName)
	email := strings.TrimSpace(req.Email)
	signedAt := time.Now()

	ok, err := s.docRepo.AcceptQuote(ctx, doc.ID, name, email, signedAt)
	if err != nil {
		return nil, &workflow.ServiceError{Op: "record signature", Err: err}
	}
	if !ok {
		// Another tab signed first.
		return nil, workflow.ErrConflict
	}

	// Optimistic local state, mirroring what the store now holds.
	doc.Status = model.StatusAccepted
	doc.Signature = model.Signature{Name: name, Email: email, SignedAt: &signedAt}

	s.notifySigned(ctx, doc, hasPayment)
	s.publish("document.signed", doc)

	res := workflow.Resolution{Steps: steps, Current: next}
	return s.buildView(doc, res, next == workflow.StepConfirmation), nil
}

func (s *validationService) CreateCheckout(ctx context.Context, id string, q ValidationQuery) (*CheckoutResponse, error) {
	doc, err := s.load(ctx, id, q)
	if err != nil {
		return nil, err
	}
	if workflow.IsExpired(doc, time.Now()) {
		return nil, workflow.ErrExpired
	}
	if doc.PaymentComplete() {
		return nil, &workflow.ValidationError{Field: "payment", Reason: "document is already paid"}
	}
	if doc.IsQuote() && !doc.Accepted() {
		return nil, &workflow.ValidationError{Field: "status", Reason: "quote must be signed before payment"}
	}

	amountDue := workflow.AmountDue(doc)
	payerEmail := doc.Signature.Email
	if payerEmail == "" {
		payerEmail = doc.ClientEmail
	}

	redirectURL, err := s.checkout.Create(ctx, payment.SessionRequest{
		DocumentID:   doc.ID.String(),
		DocumentType: doc.DocumentType,
		Amount:       workflow.MinorUnits(amountDue),
		Currency:     doc.Currency,
		PayerEmail:   payerEmail,
		ProductLabel: s.productLabel(doc),
		SuccessURL:   s.returnURL(doc, q, "payment=success&session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:    s.returnURL(doc, q, "payment=cancelled"),
	})
	if err != nil {
		return nil, &workflow.ServiceError{Op: "create checkout session", Err: err}
	}

	return &CheckoutResponse{RedirectURL: redirectURL}, nil
}

func (s *validationService) AcknowledgeBankTransfer(ctx context.Context, id string, q ValidationQuery) (*ValidationView, error) {
	doc, err := s.load(ctx, id, q)
	if err != nil {
		return nil, err
	}
	if workflow.IsExpired(doc, time.Now()) {
		return nil, workflow.ErrExpired
	}
	if doc.IsQuote() && !doc.Accepted() {
		return nil, &workflow.ValidationError{Field: "status", Reason: "quote must be signed before payment"}
	}
	if !doc.HasBankAccount() {
		return nil, &workflow.ValidationError{Field: "bank_account", Reason: "no bank transfer details on this document"}
	}

	// Bank transfers settle out-of-band: the document is NOT marked paid
	// here, only the parties are notified (quotes only) and the stepper
	// advances to confirmation.
	if doc.IsQuote() {
		s.notifyBankTransfer(ctx, doc)
	}

	steps := workflow.StepsFor(doc.DocumentType, q.WithPayment)
	res := workflow.Resolution{Steps: steps, Current: workflow.StepConfirmation}
	return s.buildView(doc, res, false), nil
}

// --- Internals ---

func (s *validationService) load(ctx context.Context, id string, q ValidationQuery) (*model.Document, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, workflow.ErrNotFound
	}
	docType := workflow.ParseDocumentType(q.Type)

	doc, err := s.docRepo.FindByID(ctx, docID, docType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrNotFound
		}
		return nil, &workflow.ServiceError{Op: "load document", Err: err}
	}
	return doc, nil
}

// completePayment is the single authoritative place a payment is marked
// complete. Returns whether this call applied the transition; a duplicate
// callback applies nothing and notifies nobody.
func (s *validationService) completePayment(ctx context.Context, doc *model.Document, sessionID string) (bool, error) {
	if doc.PaymentComplete() {
		return false, nil
	}

	// Recompute from the loaded document, never from the redirect.
	amountDue := workflow.AmountDue(doc)
	paidAt := time.Now()

	ok, err := s.docRepo.MarkPaid(ctx, doc.ID, doc.DocumentType, sessionID, amountDue, doc.Currency, paidAt)
	if err != nil {
		// The processor confirmed payment but the store write failed. This
		// must never look like an ordinary error: money has moved.
		log.Printf("reconciliation gap: document %s session %s not marked paid: %v", doc.ID, sessionID, err)
		return false, &workflow.ReconciliationError{SessionID: sessionID, Err: err}
	}
	if !ok {
		// A concurrent callback already recorded this payment.
		return false, nil
	}

	doc.Payment = model.PaymentRecord{SessionID: sessionID, Amount: amountDue, Currency: doc.Currency, PaidAt: &paidAt}
	doc.PaymentStatus = model.PaymentPaid
	if doc.IsQuote() {
		doc.Status = model.StatusPaid
	}

	s.notifyPaid(ctx, doc)
	s.publish("document.paid", doc)
	return true, nil
}

func (s *validationService) notifySigned(ctx context.Context, doc *model.Document, paymentFollows bool) {
	data := s.emailData(doc)

	if owner := s.ownerEmail(doc); owner != "" {
		if msg, err := notify.SignatureOwnerEmail(owner, data); err == nil {
			s.enqueue(ctx, msg)
		}
	}
	// The signer is only emailed now when no payment step follows; otherwise
	// the payment confirmation email covers it.
	if !paymentFollows && doc.Signature.Email != "" {
		if msg, err := notify.SignatureClientEmail(data); err == nil {
			s.enqueue(ctx, msg)
		}
	}
}

func (s *validationService) notifyPaid(ctx context.Context, doc *model.Document) {
	data := s.emailData(doc)

	to := doc.Signature.Email
	if to == "" {
		to = doc.ClientEmail
	}
	if to != "" {
		if msg, err := notify.PaymentClientEmail(to, data); err == nil {
			s.enqueue(ctx, msg)
		}
	}
	if owner := s.ownerEmail(doc); owner != "" {
		if msg, err := notify.PaymentOwnerEmail(owner, data); err == nil {
			s.enqueue(ctx, msg)
		}
	}
}

func (s *validationService) notifyBankTransfer(ctx context.Context, doc *model.Document) {
	data := s.emailData(doc)

	to := doc.Signature.Email
	if to == "" {
		to = doc.ClientEmail
	}
	if to != "" {
		if msg, err := notify.BankTransferClientEmail(to, data); err == nil {
			s.enqueue(ctx, msg)
		}
	}
	if owner := s.ownerEmail(doc); owner != "" {
		if msg, err := notify.BankTransferOwnerEmail(owner, data); err == nil {
			s.enqueue(ctx, msg)
		}
	}
}

// enqueue is fire-and-forget: the transition already committed, a mail
// failure only gets logged.
func (s *validationService) enqueue(ctx context.Context, msg notify.Message) {
	if err := s.outbox.Enqueue(ctx, msg); err != nil {
		log.Printf("failed to enqueue email to %s: %v", msg.To, err)
	}
}

func (s *validationService) publish(event string, doc *model.Document) {
	if s.events != nil {
		s.events.PublishDocumentEvent(event, doc.ID.String(), doc.Number)
	}
}

func (s *validationService) toWorkflowQuery(doc *model.Document, q ValidationQuery) workflow.Query {
	return workflow.Query{
		DocumentType: doc.DocumentType,
		WithPayment:  q.WithPayment,
		Payment:      workflow.ParsePayment(q.Payment),
		SessionID:    q.SessionID,
	}
}

func (s *validationService) returnURL(doc *model.Document, q ValidationQuery, suffix string) string {
	return fmt.Sprintf("%s/validation/%s?type=%s&withPayment=%t&%s",
		s.baseURL, doc.ID, doc.DocumentType, q.WithPayment, suffix)
}

func (s *validationService) productLabel(doc *model.Document) string {
	label := fmt.Sprintf("%s %s", docLabel(doc), doc.Number)
	if doc.IsQuote() && doc.DepositPercent.IsPositive() {
		label = fmt.Sprintf("Deposit (%s%%) on %s", doc.DepositPercent.String(), label)
	}
	return label
}

func (s *validationService) ownerEmail(doc *model.Document) string {
	if doc.Owner != nil {
		return doc.Owner.Email
	}
	return ""
}

func (s *validationService) emailData(doc *model.Document) notify.EmailData {
	data := notify.EmailData{
		DocumentLabel: docLabel(doc),
		Number:        doc.Number,
		ClientName:    doc.ClientName,
		SignerName:    doc.Signature.Name,
		SignerEmail:   doc.Signature.Email,
		AmountDue:     workflow.AmountDue(doc).StringFixed(2),
		Currency:      doc.Currency,
		IBAN:          doc.BankAccount.IBAN,
		BIC:           doc.BankAccount.BIC,
		Holder:        doc.BankAccount.Holder,
	}
	if doc.Owner != nil {
		data.OwnerName = doc.Owner.Name
		data.CompanyName = doc.Owner.CompanyName
	}
	return data
}

func (s *validationService) buildView(doc *model.Document, res workflow.Resolution, celebrate bool) *ValidationView {
	view := &ValidationView{
		Document:              toDocumentView(doc),
		Steps:                 make([]StepInfo, 0, len(res.Steps)),
		CurrentStep:           string(res.Current),
		Position:              workflow.Position(res.Steps, res.Current),
		StepCount:             len(res.Steps),
		Celebrate:             celebrate,
		BankTransferAvailable: doc.HasBankAccount() && !doc.PaymentComplete(),
	}
	for i, step := range res.Steps {
		view.Steps = append(view.Steps, StepInfo{Key: string(step), Position: i + 1})
	}
	return view
}

func docLabel(doc *model.Document) string {
	if doc.IsQuote() {
		return "quote"
	}
	return "invoice"
}

func toDocumentView(doc *model.Document) DocumentView {
	view := DocumentView{
		ID:           doc.ID.String(),
		Number:       doc.Number,
		DocumentType: doc.DocumentType,
		ClientName:   doc.ClientName,
		TotalAmount:  doc.TotalAmount.StringFixed(2),
		ShowTax:      doc.ShowTax,
		Currency:     doc.Currency,
		AmountDue:    workflow.AmountDue(doc).StringFixed(2),
	}

	if doc.IsQuote() {
		view.Status = doc.Status
		if doc.DepositPercent.IsPositive() {
			view.DepositPercent = doc.DepositPercent.StringFixed(2)
		}
		if doc.ValidUntil != nil {
			view.ValidUntil = doc.ValidUntil.Format("2006-01-02")
		}
	} else {
		view.PaymentStatus = doc.PaymentStatus
		view.TotalWithTax = doc.TotalWithTax.StringFixed(2)
		view.TaxRate = doc.TaxRate.StringFixed(2)
		if doc.DueDate != nil {
			view.DueDate = doc.DueDate.Format("2006-01-02")
		}
	}

	if doc.Signature.SignedAt != nil {
		view.Signature = &SignatureView{
			Name:     doc.Signature.Name,
			Email:    doc.Signature.Email,
			SignedAt: doc.Signature.SignedAt.Format(time.RFC3339),
		}
	}
	if doc.Payment.SessionID != "" {
		p := &PaymentView{
			SessionID: doc.Payment.SessionID,
			Amount:    doc.Payment.Amount.StringFixed(2),
			Currency:  doc.Payment.Currency,
		}
		if doc.Payment.PaidAt != nil {
			p.PaidAt = doc.Payment.PaidAt.Format(time.RFC3339)
		}
		view.Payment = p
	}
	if doc.HasBankAccount() {
		view.BankAccount = &BankAccountView{
			IBAN:    doc.BankAccount.IBAN,
			BIC:     doc.BankAccount.BIC,
			Holder:  doc.BankAccount.Holder,
			Country: doc.BankAccount.Country,
		}
	}

	return view
}
