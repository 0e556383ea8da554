package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Announcement struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string       `gorm:"size:255;not null" json:"title"`
	Content   string       `gorm:"not null" json:"content"`
	AuthorID  *uuid.UUID   `gorm:"type:uuid;index" json:"author_id,omitempty"`
	IsPinned  bool         `gorm:"not null" json:"is_pinned"`
	StartDate *time.Time   `json:"start_date,omitempty"`
	EndDate   *time.Time   `json:"end_date,omitempty"`
	Status    ReviewStatus `gorm:"type:varchar(16);not null;index" json:"approval_status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (a *Announcement) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	return nil
}

// OwnedBy reports whether userID authored the announcement.
func (a *Announcement) OwnedBy(userID uuid.UUID) bool {
	return a.AuthorID != nil && *a.AuthorID == userID
}

type AnnouncementRecipient struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AnnouncementID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_recipient" json:"announcement_id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_recipient;index" json:"user_id"`
	IsRead         bool       `gorm:"not null" json:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

func (r *AnnouncementRecipient) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
