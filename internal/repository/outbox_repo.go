package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/model"
)

// OutboxRepository persists transactional emails awaiting delivery.
type OutboxRepository interface {
	Create(ctx context.Context, msg *model.EmailOutbox) error
	ListPending(ctx context.Context, maxAttempts, limit int) ([]model.EmailOutbox, error)
	Update(ctx context.Context, msg *model.EmailOutbox) error
}

type outboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Create(ctx context.Context, msg *model.EmailOutbox) error {
	return GetDB(ctx, r.db).Create(msg).Error
}

func (r *outboxRepository) ListPending(ctx context.Context, maxAttempts, limit int) ([]model.EmailOutbox, error) {
	var msgs []model.EmailOutbox
	if err := GetDB(ctx, r.db).
		Where("status = ? AND attempts < ?", model.OutboxPending, maxAttempts).
		Order("created_at asc").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *outboxRepository) Update(ctx context.Context, msg *model.EmailOutbox) error {
	return GetDB(ctx, r.db).Save(msg).Error
}
