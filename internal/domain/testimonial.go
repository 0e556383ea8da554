package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Testimonial struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	Content       string       `gorm:"not null" json:"content"`
	Status        ReviewStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	AdminComments string       `json:"admin_comments,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (t *Testimonial) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	return nil
}
