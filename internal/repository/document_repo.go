package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/model"
)

// DocumentListFilter narrows owner-side document listings.
type DocumentListFilter struct {
	DocumentType string // quote, billing or empty for all
	Status       string // quote status or billing payment status
	Page         int
	Limit        int
}

// DocumentRepository is the document store: reads plus partial patches, with
// conditional writes for the two workflow transitions so concurrent requests
// surface as conflicts instead of silent last-write-wins.
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	FindByID(ctx context.Context, id uuid.UUID, docType string) (*model.Document, error)
	List(ctx context.Context, ownerID uuid.UUID, filter DocumentListFilter) ([]model.Document, int64, error)
	Update(ctx context.Context, doc *model.Document) error
	Patch(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
	CountByPrefix(ctx context.Context, prefix string) (int64, error)

	// AcceptQuote transitions a quote to accepted and records the signature,
	// only if it is not already accepted or paid. Returns false when the
	// guard matched zero rows.
	AcceptQuote(ctx context.Context, id uuid.UUID, name, email string, signedAt time.Time) (bool, error)

	// MarkPaid records the checkout payment, only if no payment is recorded
	// yet. Quotes additionally move to status paid. Returns false when the
	// document was already paid (idempotent duplicate).
	MarkPaid(ctx context.Context, id uuid.UUID, docType, sessionID string, amount decimal.Decimal, currency string, paidAt time.Time) (bool, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *documentRepository) FindByID(ctx context.Context, id uuid.UUID, docType string) (*model.Document, error) {
	var doc model.Document
	if err := GetDB(ctx, r.db).Preload("Owner").
		First(&doc, "id = ? AND document_type = ?", id, docType).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) List(ctx context.Context, ownerID uuid.UUID, filter DocumentListFilter) ([]model.Document, int64, error) {
	var docs []model.Document
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Document{}).Where("owner_id = ?", ownerID)
	if filter.DocumentType != "" {
		query = query.Where("document_type = ?", filter.DocumentType)
	}
	if filter.Status != "" {
		query = query.Where("status = ? OR payment_status = ?", filter.Status, filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at desc").Offset(offset).Limit(filter.Limit).Find(&docs).Error; err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

func (r *documentRepository) Update(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *documentRepository) Patch(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return GetDB(ctx, r.db).Model(&model.Document{}).Where("id = ?", id).Updates(fields).Error
}

func (r *documentRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&model.Document{}).Error
}

func (r *documentRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Document{}).Where("number LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *documentRepository) AcceptQuote(ctx context.Context, id uuid.UUID, name, email string, signedAt time.Time) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Document{}).
		Where("id = ? AND document_type = ? AND status NOT IN ?",
			id, model.TypeQuote, []string{model.StatusAccepted, model.StatusPaid}).
		Updates(map[string]interface{}{
			"status":              model.StatusAccepted,
			"signature_name":      name,
			"signature_email":     email,
			"signature_signed_at": signedAt,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *documentRepository) MarkPaid(ctx context.Context, id uuid.UUID, docType, sessionID string, amount decimal.Decimal, currency string, paidAt time.Time) (bool, error) {
	updates := map[string]interface{}{
		"payment_session_id": sessionID,
		"payment_amount":     amount,
		"payment_currency":   currency,
		"payment_paid_at":    paidAt,
		"payment_status":     model.PaymentPaid,
	}
	if docType == model.TypeQuote {
		updates["status"] = model.StatusPaid
	}

	res := GetDB(ctx, r.db).Model(&model.Document{}).
		Where("id = ? AND document_type = ? AND payment_session_id = '' AND payment_status <> ?",
			id, docType, model.PaymentPaid).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}
