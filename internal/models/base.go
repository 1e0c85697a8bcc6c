package models

import (
	"time"

	"smsledger/internal/uuid"

	"gorm.io/gorm"
)

// Base contains the identity columns shared by stored records.
// Records are hard-deleted, so there is no soft-delete column.
type Base struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
