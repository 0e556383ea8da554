package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Policy struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null;uniqueIndex" json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `gorm:"size:100;index" json:"category,omitempty"`
	DocumentURL string     `json:"document_url,omitempty"`
	Version     string     `gorm:"size:32" json:"version,omitempty"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (p *Policy) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
