package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/model"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/notify"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/qrpay"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/repository"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/workflow"
)

// --- DTOs ---

type BankAccountRequest struct {
	IBAN    string `json:"iban"`
	BIC     string `json:"bic"`
	Holder  string `json:"holder"`
	Country string `json:"country"`
}

type CreateDocumentRequest struct {
	DocumentType   string              `json:"document_type" binding:"required,oneof=quote billing"`
	ClientName     string              `json:"client_name" binding:"required"`
	ClientEmail    string              `json:"client_email" binding:"required,email"`
	TotalAmount    string              `json:"total_amount" binding:"required"`
	DepositPercent string              `json:"deposit_percent"`
	TaxRate        string              `json:"tax_rate"`
	ShowTax        bool                `json:"show_tax"`
	Currency       string              `json:"currency" binding:"required,oneof=EUR CHF"`
	ValidUntil     string              `json:"valid_until"` // quotes, YYYY-MM-DD
	DueDate        string              `json:"due_date"`    // billing, YYYY-MM-DD
	BankAccount    *BankAccountRequest `json:"bank_account"`
}

type UpdateDocumentRequest struct {
	ClientName  *string             `json:"client_name"`
	ClientEmail *string             `json:"client_email"`
	TotalAmount *string             `json:"total_amount"`
	ValidUntil  *string             `json:"valid_until"`
	DueDate     *string             `json:"due_date"`
	BankAccount *BankAccountRequest `json:"bank_account"`
}

type DocumentFilter struct {
	DocumentType string
	Status       string
	Page         int
	Limit        int
}

// --- Interface ---

// DocumentService is the owner-side back office: document CRUD, sending a
// validation link to the client, converting accepted quotes into invoices
// and rendering the country-specific payment QR.
type DocumentService interface {
	Create(ctx context.Context, ownerID string, req CreateDocumentRequest) (*DocumentView, error)
	Get(ctx context.Context, ownerID, id, docType string) (*DocumentView, error)
	List(ctx context.Context, ownerID string, filter DocumentFilter) ([]DocumentView, int64, error)
	Update(ctx context.Context, ownerID, id, docType string, req UpdateDocumentRequest) (*DocumentView, error)
	Delete(ctx context.Context, ownerID, id, docType string) error
	Send(ctx context.Context, ownerID, id, docType string, withPayment bool) (*DocumentView, error)
	ConvertQuote(ctx context.Context, ownerID, id string) (*DocumentView, error)
	PaymentQR(ctx context.Context, ownerID, id, docType string) ([]byte, error)
}

type documentService struct {
	docRepo   repository.DocumentRepository
	userRepo  repository.UserRepository
	outbox    notify.Enqueuer
	txManager repository.TransactionManager
	baseURL   string
}

func NewDocumentService(
	docRepo repository.DocumentRepository,
	userRepo repository.UserRepository,
	outbox notify.Enqueuer,
	txManager repository.TransactionManager,
	baseURL string,
) DocumentService {
	return &documentService{
		docRepo:   docRepo,
		userRepo:  userRepo,
		outbox:    outbox,
		txManager: txManager,
		baseURL:   baseURL,
	}
}

// --- Implementation ---

func (s *documentService) Create(ctx context.Context, ownerID string, req CreateDocumentRequest) (*DocumentView, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}

	total, err := decimal.NewFromString(req.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid total_amount: %w", err)
	}

	doc := model.Document{
		OwnerID:      owner,
		DocumentType: req.DocumentType,
		ClientName:   req.ClientName,
		ClientEmail:  req.ClientEmail,
		TotalAmount:  total,
		ShowTax:      req.ShowTax,
		Currency:     req.Currency,
	}

	if req.DocumentType == model.TypeQuote {
		doc.Status = model.StatusDraft
		if req.DepositPercent != "" {
			deposit, err := decimal.NewFromString(req.DepositPercent)
			if err != nil {
				return nil, fmt.Errorf("invalid deposit_percent: %w", err)
			}
			if deposit.IsNegative() || deposit.GreaterThan(decimal.NewFromInt(100)) {
				return nil, fmt.Errorf("deposit_percent must be between 0 and 100")
			}
			doc.DepositPercent = deposit
		}
		if req.ValidUntil != "" {
			validUntil, err := parseDate(req.ValidUntil)
			if err != nil {
				return nil, fmt.Errorf("invalid valid_until: %w", err)
			}
			doc.ValidUntil = validUntil
		}
	} else {
		doc.PaymentStatus = model.PaymentPending
		if req.TaxRate != "" {
			rate, err := decimal.NewFromString(req.TaxRate)
			if err != nil {
				return nil, fmt.Errorf("invalid tax_rate: %w", err)
			}
			doc.TaxRate = rate
			doc.TotalWithTax = total.Add(total.Mul(rate).Div(decimal.NewFromInt(100))).Round(2)
		} else {
			doc.TotalWithTax = total
		}
		if req.DueDate != "" {
			dueDate, err := parseDate(req.DueDate)
			if err != nil {
				return nil, fmt.Errorf("invalid due_date: %w", err)
			}
			doc.DueDate = dueDate
		}
	}

	if req.BankAccount != nil {
		doc.BankAccount = model.BankAccount{
			IBAN:    req.BankAccount.IBAN,
			BIC:     req.BankAccount.BIC,
			Holder:  req.BankAccount.Holder,
			Country: req.BankAccount.Country,
		}
	}

	doc.Number, err = s.generateNumber(ctx, req.DocumentType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate document number: %w", err)
	}

	if err := s.docRepo.Create(ctx, &doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	view := toDocumentView(&doc)
	return &view, nil
}

func (s *documentService) Get(ctx context.Context, ownerID, id, docType string) (*DocumentView, error) {
	doc, err := s.findOwned(ctx, ownerID, id, docType)
	if err != nil {
		return nil, err
	}
	view := toDocumentView(doc)
	return &view, nil
}

func (s *documentService) List(ctx context.Context, ownerID string, filter DocumentFilter) ([]DocumentView, int64, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid owner id: %w", err)
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	docs, total, err := s.docRepo.List(ctx, owner, repository.DocumentListFilter{
		DocumentType: filter.DocumentType,
		Status:       filter.Status,
		Page:         filter.Page,
		Limit:        filter.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch documents: %w", err)
	}

	result := make([]DocumentView, 0, len(docs))
	for i := range docs {
		result = append(result, toDocumentView(&docs[i]))
	}
	return result, total, nil
}

func (s *documentService) Update(ctx context.Context, ownerID, id, docType string, req UpdateDocumentRequest) (*DocumentView, error) {
	doc, err := s.findOwned(ctx, ownerID, id, docType)
	if err != nil {
		return nil, err
	}

	// Signed or paid documents are frozen.
	if doc.IsQuote() && doc.Accepted() {
		return nil, fmt.Errorf("cannot edit a quote with status %s", doc.Status)
	}
	if doc.PaymentComplete() {
		return nil, fmt.Errorf("cannot edit a paid document")
	}

	if req.ClientName != nil {
		doc.ClientName = *req.ClientName
	}
	if req.ClientEmail != nil {
		doc.ClientEmail = *req.ClientEmail
	}
	if req.TotalAmount != nil {
		total, err := decimal.NewFromString(*req.TotalAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid total_amount: %w", err)
		}
		doc.TotalAmount = total
		if !doc.IsQuote() {
			doc.TotalWithTax = total.Add(total.Mul(doc.TaxRate).Div(decimal.NewFromInt(100))).Round(2)
		}
	}
	if req.ValidUntil != nil {
		validUntil, err := parseDate(*req.ValidUntil)
		if err != nil {
			return nil, fmt.Errorf("invalid valid_until: %w", err)
		}
		doc.ValidUntil = validUntil
	}
	if req.DueDate != nil {
		dueDate, err := parseDate(*req.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid due_date: %w", err)
		}
		doc.DueDate = dueDate
	}
	if req.BankAccount != nil {
		doc.BankAccount = model.BankAccount{
			IBAN:    req.BankAccount.IBAN,
			BIC:     req.BankAccount.BIC,
			Holder:  req.BankAccount.Holder,
			Country: req.BankAccount.Country,
		}
	}

	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}

	view := toDocumentView(doc)
	return &view, nil
}

func (s *documentService) Delete(ctx context.Context, ownerID, id, docType string) error {
	doc, err := s.findOwned(ctx, ownerID, id, docType)
	if err != nil {
		return err
	}
	if doc.PaymentComplete() {
		return fmt.Errorf("cannot delete a paid document")
	}

	owner, _ := uuid.Parse(ownerID)
	if err := s.docRepo.Delete(ctx, doc.ID, owner); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// Send emails the client a validation link and moves a draft quote to sent.
func (s *documentService) Send(ctx context.Context, ownerID, id, docType string, withPayment bool) (*DocumentView, error) {
	doc, err := s.findOwned(ctx, ownerID, id, docType)
	if err != nil {
		return nil, err
	}
	if doc.ClientEmail == "" {
		return nil, fmt.Errorf("document has no client email")
	}

	if doc.IsQuote() && doc.Status == model.StatusDraft {
		if err := s.docRepo.Patch(ctx, doc.ID, map[string]interface{}{"status": model.StatusSent}); err != nil {
			return nil, fmt.Errorf("failed to mark quote as sent: %w", err)
		}
		doc.Status = model.StatusSent
	}

	data := notify.EmailData{
		DocumentLabel: docLabel(doc),
		Number:        doc.Number,
		ClientName:    doc.ClientName,
		Link: fmt.Sprintf("%s/validation/%s?type=%s&withPayment=%t",
			s.baseURL, doc.ID, doc.DocumentType, withPayment),
	}
	if owner, err := s.userRepo.GetByID(ctx, ownerID); err == nil {
		data.OwnerName = owner.Name
		data.CompanyName = owner.CompanyName
	}

	if msg, err := notify.SendDocumentEmail(doc.ClientEmail, data); err == nil {
		if err := s.outbox.Enqueue(ctx, msg); err != nil {
			log.Printf("failed to enqueue document email to %s: %v", doc.ClientEmail, err)
		}
	}

	view := toDocumentView(doc)
	return &view, nil
}

// ConvertQuote turns an accepted quote into a billing invoice, carrying over
// the client, amounts and bank details. The quote keeps a reference to the
// invoice it became.
func (s *documentService) ConvertQuote(ctx context.Context, ownerID, id string) (*DocumentView, error) {
	doc, err := s.findOwned(ctx, ownerID, id, model.TypeQuote)
	if err != nil {
		return nil, err
	}
	if !doc.Accepted() {
		return nil, fmt.Errorf("only accepted quotes can be converted, status is %s", doc.Status)
	}
	if doc.ConvertedToID != nil {
		return nil, fmt.Errorf("quote %s is already converted", doc.Number)
	}

	number, err := s.generateNumber(ctx, model.TypeBilling)
	if err != nil {
		return nil, fmt.Errorf("failed to generate invoice number: %w", err)
	}

	dueDate := time.Now().AddDate(0, 1, 0)
	invoice := model.Document{
		OwnerID:       doc.OwnerID,
		Number:        number,
		DocumentType:  model.TypeBilling,
		ClientName:    doc.ClientName,
		ClientEmail:   doc.ClientEmail,
		TotalAmount:   doc.TotalAmount,
		TotalWithTax:  doc.TotalAmount,
		Currency:      doc.Currency,
		DueDate:       &dueDate,
		PaymentStatus: model.PaymentPending,
		BankAccount:   doc.BankAccount,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.Create(txCtx, &invoice); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		if err := s.docRepo.Patch(txCtx, doc.ID, map[string]interface{}{"converted_to_id": invoice.ID}); err != nil {
			return fmt.Errorf("failed to link quote to invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := toDocumentView(&invoice)
	return &view, nil
}

// PaymentQR renders the payment QR PNG: Swiss QR-bill for CHF documents,
// SEPA EPC for EUR.
func (s *documentService) PaymentQR(ctx context.Context, ownerID, id, docType string) ([]byte, error) {
	doc, err := s.findOwned(ctx, ownerID, id, docType)
	if err != nil {
		return nil, err
	}
	if !doc.HasBankAccount() {
		return nil, fmt.Errorf("document has no bank account")
	}

	amountDue := workflow.AmountDue(doc)

	var payload string
	switch doc.Currency {
	case model.CurrencyCHF:
		payload, err = qrpay.QRBill{
			IBAN:     doc.BankAccount.IBAN,
			Creditor: doc.BankAccount.Holder,
			Country:  doc.BankAccount.Country,
			Amount:   amountDue,
			Currency: doc.Currency,
			Message:  doc.Number,
		}.Payload()
	case model.CurrencyEUR:
		payload, err = qrpay.EPC{
			BIC:        doc.BankAccount.BIC,
			Name:       doc.BankAccount.Holder,
			IBAN:       doc.BankAccount.IBAN,
			Amount:     amountDue,
			Remittance: doc.Number,
		}.Payload()
	default:
		return nil, fmt.Errorf("no payment QR for currency %s", doc.Currency)
	}
	if err != nil {
		return nil, err
	}

	return qrpay.PNG(payload, qrpay.DefaultSize)
}

// --- Helpers ---

func (s *documentService) findOwned(ctx context.Context, ownerID, id, docType string) (*model.Document, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid document id: %w", err)
	}
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}

	doc, err := s.docRepo.FindByID(ctx, docID, workflow.ParseDocumentType(docType))
	if err != nil {
		return nil, fmt.Errorf("document not found: %w", err)
	}
	if doc.OwnerID != owner {
		return nil, fmt.Errorf("document not found")
	}
	return doc, nil
}

func (s *documentService) generateNumber(ctx context.Context, docType string) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "INV-" + today + "-"
	if docType == model.TypeQuote {
		prefix = "QUO-" + today + "-"
	}

	count, err := s.docRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

func parseDate(raw string) (*time.Time, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
