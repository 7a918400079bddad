package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a document owner: the small-business account that issues quotes
// and invoices through the back office.
type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email       string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password    string         `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	CompanyName string         `gorm:"type:varchar(255)" json:"company_name"`
	Country     string         `gorm:"type:varchar(2);not null;default:'FR'" json:"country"` // FR, CH
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}
