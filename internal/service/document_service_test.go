package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/model"
)

type fakeUserRepo struct {
	user *model.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if f.user == nil {
		return nil, fmt.Errorf("user not found")
	}
	return f.user, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.user == nil || f.user.Email != email {
		return nil, fmt.Errorf("user not found")
	}
	return f.user, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error { return nil }

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type docEnv struct {
	repo   *fakeDocRepo
	outbox *fakeEnqueuer
	svc    DocumentService
}

func newDocEnv(doc *model.Document) *docEnv {
	repo := &fakeDocRepo{doc: doc}
	outbox := &fakeEnqueuer{}
	users := &fakeUserRepo{user: &model.User{Name: "Alice", CompanyName: "ACME"}}
	svc := NewDocumentService(repo, users, outbox, &fakeTxManager{}, "https://app.example")
	return &docEnv{repo: repo, outbox: outbox, svc: svc}
}

func ownedQuote(ownerID uuid.UUID, status string) *model.Document {
	doc := newQuote(status)
	doc.OwnerID = ownerID
	return doc
}

// --- Create ---

func TestCreateQuoteGeneratesSequentialNumber(t *testing.T) {
	e := newDocEnv(nil)
	e.repo.countByPrefix = 2
	owner := uuid.New()

	view, err := e.svc.Create(context.Background(), owner.String(), CreateDocumentRequest{
		DocumentType:   model.TypeQuote,
		ClientName:     "Jean Dupont",
		ClientEmail:    "jean@x.com",
		TotalAmount:    "1000",
		DepositPercent: "30",
		Currency:       model.CurrencyEUR,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	wantPrefix := "QUO-" + time.Now().Format("20060102") + "-"
	if !strings.HasPrefix(view.Number, wantPrefix) || !strings.HasSuffix(view.Number, "00003") {
		t.Errorf("expected %s00003, got %s", wantPrefix, view.Number)
	}
	if view.Status != model.StatusDraft {
		t.Errorf("new quotes start as draft, got %s", view.Status)
	}
	if len(e.repo.created) != 1 {
		t.Fatalf("expected 1 store write, got %d", len(e.repo.created))
	}
}

func TestCreateQuoteRejectsDepositOutOfRange(t *testing.T) {
	e := newDocEnv(nil)

	_, err := e.svc.Create(context.Background(), uuid.NewString(), CreateDocumentRequest{
		DocumentType:   model.TypeQuote,
		ClientName:     "Jean Dupont",
		ClientEmail:    "jean@x.com",
		TotalAmount:    "1000",
		DepositPercent: "150",
		Currency:       model.CurrencyEUR,
	})
	if err == nil {
		t.Fatal("expected an error for a deposit above 100%")
	}
	if len(e.repo.created) != 0 {
		t.Error("invalid input must not reach the store")
	}
}

func TestCreateBillingComputesTotalWithTax(t *testing.T) {
	e := newDocEnv(nil)

	view, err := e.svc.Create(context.Background(), uuid.NewString(), CreateDocumentRequest{
		DocumentType: model.TypeBilling,
		ClientName:   "Jean Dupont",
		ClientEmail:  "jean@x.com",
		TotalAmount:  "1000",
		TaxRate:      "20",
		ShowTax:      true,
		Currency:     model.CurrencyEUR,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if view.TotalWithTax != "1200.00" {
		t.Errorf("expected 1200.00 with 20%% tax, got %s", view.TotalWithTax)
	}
	if view.PaymentStatus != model.PaymentPending {
		t.Errorf("new invoices start pending, got %s", view.PaymentStatus)
	}
	if !strings.HasPrefix(view.Number, "INV-") {
		t.Errorf("expected INV- prefix, got %s", view.Number)
	}
}

// --- Update / delete freeze rules ---

func TestUpdateRejectsAcceptedQuote(t *testing.T) {
	owner := uuid.New()
	e := newDocEnv(ownedQuote(owner, model.StatusAccepted))

	name := "Changed"
	_, err := e.svc.Update(context.Background(), owner.String(), e.repo.doc.ID.String(), "quote",
		UpdateDocumentRequest{ClientName: &name})
	if err == nil {
		t.Fatal("accepted quotes are frozen, expected an error")
	}
}

func TestDeleteRejectsPaidDocument(t *testing.T) {
	owner := uuid.New()
	doc := newBilling()
	doc.OwnerID = owner
	doc.PaymentStatus = model.PaymentPaid
	e := newDocEnv(doc)

	if err := e.svc.Delete(context.Background(), owner.String(), doc.ID.String(), "billing"); err == nil {
		t.Fatal("paid documents cannot be deleted, expected an error")
	}
}

func TestGetRejectsForeignOwner(t *testing.T) {
	e := newDocEnv(ownedQuote(uuid.New(), model.StatusSent))

	if _, err := e.svc.Get(context.Background(), uuid.NewString(), e.repo.doc.ID.String(), "quote"); err == nil {
		t.Fatal("another owner's document must not be readable")
	}
}

// --- Send ---

func TestSendMovesDraftQuoteToSentAndEmailsLink(t *testing.T) {
	owner := uuid.New()
	e := newDocEnv(ownedQuote(owner, model.StatusDraft))

	view, err := e.svc.Send(context.Background(), owner.String(), e.repo.doc.ID.String(), "quote", true)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if view.Status != model.StatusSent {
		t.Errorf("expected sent, got %s", view.Status)
	}
	if e.repo.patched["status"] != model.StatusSent {
		t.Errorf("expected a status patch, got %v", e.repo.patched)
	}
	if len(e.outbox.msgs) != 1 {
		t.Fatalf("expected 1 email, got %d", len(e.outbox.msgs))
	}
	// html/template escapes & inside the href attribute.
	wantLink := fmt.Sprintf("https://app.example/validation/%s?type=quote", e.repo.doc.ID)
	body := e.outbox.msgs[0].HTML
	if !strings.Contains(body, wantLink) || !strings.Contains(body, "withPayment=true") {
		t.Errorf("expected validation link %s with withPayment=true in body: %s", wantLink, body)
	}
}

// --- Convert ---

func TestConvertQuoteRejectsNonAccepted(t *testing.T) {
	owner := uuid.New()
	e := newDocEnv(ownedQuote(owner, model.StatusSent))

	_, err := e.svc.ConvertQuote(context.Background(), owner.String(), e.repo.doc.ID.String())
	if err == nil {
		t.Fatal("only accepted quotes can be converted, expected an error")
	}
	if len(e.repo.created) != 0 {
		t.Error("no invoice may be created for an unaccepted quote")
	}
}

func TestConvertQuoteRejectsAlreadyConverted(t *testing.T) {
	owner := uuid.New()
	doc := ownedQuote(owner, model.StatusAccepted)
	existing := uuid.New()
	doc.ConvertedToID = &existing
	e := newDocEnv(doc)

	_, err := e.svc.ConvertQuote(context.Background(), owner.String(), doc.ID.String())
	if err == nil {
		t.Fatal("a quote can only be converted once, expected an error")
	}
	if len(e.repo.created) != 0 {
		t.Error("no second invoice may be created")
	}
}

func TestConvertQuoteCreatesInvoiceAndLinksQuote(t *testing.T) {
	owner := uuid.New()
	doc := ownedQuote(owner, model.StatusAccepted)
	doc.BankAccount = model.BankAccount{IBAN: "FR7630006000011234567890189", BIC: "AGRIFRPP", Holder: "ACME"}
	e := newDocEnv(doc)

	view, err := e.svc.ConvertQuote(context.Background(), owner.String(), doc.ID.String())
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if len(e.repo.created) != 1 {
		t.Fatalf("expected 1 invoice created, got %d", len(e.repo.created))
	}
	invoice := e.repo.created[0]
	if invoice.DocumentType != model.TypeBilling || invoice.PaymentStatus != model.PaymentPending {
		t.Errorf("unexpected invoice: type=%s paymentStatus=%s", invoice.DocumentType, invoice.PaymentStatus)
	}
	if !invoice.TotalAmount.Equal(doc.TotalAmount) || invoice.ClientEmail != doc.ClientEmail {
		t.Error("invoice must carry over the quote's client and amount")
	}
	if invoice.BankAccount.IBAN != doc.BankAccount.IBAN {
		t.Error("invoice must carry over the bank details")
	}
	if !strings.HasPrefix(view.Number, "INV-") {
		t.Errorf("expected INV- number, got %s", view.Number)
	}
	if linked, ok := e.repo.patched["converted_to_id"].(uuid.UUID); !ok || linked != invoice.ID {
		t.Errorf("quote must be linked to the new invoice, got %v", e.repo.patched)
	}
}

// --- Payment QR ---

func TestPaymentQRSelectsSchemeByCurrency(t *testing.T) {
	owner := uuid.New()

	chf := ownedQuote(owner, model.StatusSent)
	chf.Currency = model.CurrencyCHF
	chf.BankAccount = model.BankAccount{IBAN: "CH4431999123000889012", Holder: "ACME Sarl", Country: "CH"}
	e := newDocEnv(chf)

	png, err := e.svc.PaymentQR(context.Background(), owner.String(), chf.ID.String(), "quote")
	if err != nil {
		t.Fatalf("CHF QR failed: %v", err)
	}
	if len(png) == 0 {
		t.Error("expected PNG bytes for the Swiss QR-bill")
	}

	eur := newBilling()
	eur.OwnerID = owner
	eur.BankAccount = model.BankAccount{IBAN: "FR7630006000011234567890189", BIC: "AGRIFRPP", Holder: "ACME"}
	e = newDocEnv(eur)

	png, err = e.svc.PaymentQR(context.Background(), owner.String(), eur.ID.String(), "billing")
	if err != nil {
		t.Fatalf("EUR QR failed: %v", err)
	}
	if len(png) == 0 {
		t.Error("expected PNG bytes for the SEPA EPC QR")
	}
}

func TestPaymentQRRejectsNonSwissIBANForCHF(t *testing.T) {
	owner := uuid.New()
	doc := ownedQuote(owner, model.StatusSent)
	doc.Currency = model.CurrencyCHF
	doc.BankAccount = model.BankAccount{IBAN: "FR7630006000011234567890189", Holder: "ACME"}
	e := newDocEnv(doc)

	if _, err := e.svc.PaymentQR(context.Background(), owner.String(), doc.ID.String(), "quote"); err == nil {
		t.Fatal("a CHF document with a non CH/LI IBAN cannot produce a QR-bill")
	}
}

func TestPaymentQRRequiresBankAccount(t *testing.T) {
	owner := uuid.New()
	e := newDocEnv(ownedQuote(owner, model.StatusSent))

	if _, err := e.svc.PaymentQR(context.Background(), owner.String(), e.repo.doc.ID.String(), "quote"); err == nil {
		t.Fatal("expected an error without bank details")
	}
}
