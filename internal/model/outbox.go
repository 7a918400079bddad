package model

import (
	"time"

	"github.com/google/uuid"
)

// Outbox status enum constants
const (
	OutboxPending = "PENDING"
	OutboxSent    = "SENT"
	OutboxFailed  = "FAILED"
)

// EmailOutbox is a persisted transactional email awaiting delivery. Rows are
// written after the document state transition commits and drained by the
// outbox worker, so a mail failure never rolls back or blocks a transition.
type EmailOutbox struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ToAddr    string     `gorm:"type:varchar(255);not null" json:"to_addr"`
	Subject   string     `gorm:"type:varchar(255);not null" json:"subject"`
	Body      string     `gorm:"type:text;not null" json:"-"`
	Status    string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Attempts  int        `gorm:"not null;default:0" json:"attempts"`
	LastError string     `gorm:"type:text" json:"last_error,omitempty"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
