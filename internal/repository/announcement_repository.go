package repository

import (
	"context"
	"time"

	"hr_project/internal/apperrors"
	"hr_project/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	announcementNotFound = "Announcement not found"
	recipientNotFound    = "Announcement recipient not found"
)

// Visibility limits moderated collections for non-admin viewers to approved items and
// the viewer's own.
type Visibility struct {
	All      bool
	ViewerID uuid.UUID
}

type AnnouncementFilter struct {
	Title     string
	Content   string
	AuthorID  *uuid.UUID
	IsPinned  *bool
	Status    *domain.ReviewStatus
	StartFrom *time.Time
	EndBefore *time.Time
}

type AnnouncementRepository struct {
	db *gorm.DB
}

func NewAnnouncementRepository(db *gorm.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Create stores the announcement with one unread recipient row per user. When
// recipientIDs is empty every active user becomes a recipient.
func (r *AnnouncementRepository) Create(ctx context.Context, a *domain.Announcement, recipientIDs []uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := resolveRecipients(tx, recipientIDs)
		if err != nil {
			return err
		}
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		recipients := make([]domain.AnnouncementRecipient, 0, len(ids))
		for _, id := range ids {
			recipients = append(recipients, domain.AnnouncementRecipient{AnnouncementID: a.ID, UserID: id})
		}
		return tx.CreateInBatches(recipients, 200).Error
	})
	return translateError(err, announcementNotFound)
}

func resolveRecipients(tx *gorm.DB, requested []uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(requested) == 0 {
		err := tx.Model(&domain.User{}).Where("is_active = ?", true).Order("created_at, id").Pluck("id", &ids).Error
		return ids, err
	}

	unique := make([]uuid.UUID, 0, len(requested))
	seen := make(map[uuid.UUID]struct{}, len(requested))
	for _, id := range requested {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	var count int64
	if err := tx.Model(&domain.User{}).Where("id IN ? AND is_active = ?", unique, true).Count(&count).Error; err != nil {
		return nil, err
	}
	if int(count) != len(unique) {
		return nil, apperrors.Validation("Recipients must be active employees")
	}
	return unique, nil
}

func (r *AnnouncementRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Announcement, error) {
	var a domain.Announcement
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translateError(err, announcementNotFound)
	}
	return &a, nil
}

// FindVisible returns the announcement only if vis allows the viewer to see it.
func (r *AnnouncementRepository) FindVisible(ctx context.Context, id uuid.UUID, vis Visibility) (*domain.Announcement, error) {
	var a domain.Announcement
	q := r.visible(r.db.WithContext(ctx).Model(&domain.Announcement{}), vis)
	if err := q.Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translateError(err, announcementNotFound)
	}
	return &a, nil
}

func (r *AnnouncementRepository) List(ctx context.Context, vis Visibility, page Page) ([]domain.Announcement, error) {
	return r.Filter(ctx, vis, AnnouncementFilter{}, page)
}

func (r *AnnouncementRepository) Filter(ctx context.Context, vis Visibility, f AnnouncementFilter, page Page) ([]domain.Announcement, error) {
	q := r.visible(r.db.WithContext(ctx).Model(&domain.Announcement{}), vis)
	q = whereContains(q, "title", f.Title)
	q = whereContains(q, "content", f.Content)
	if f.AuthorID != nil {
		q = q.Where("author_id = ?", *f.AuthorID)
	}
	if f.IsPinned != nil {
		q = q.Where("is_pinned = ?", *f.IsPinned)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.StartFrom != nil {
		q = q.Where("start_date >= ?", *f.StartFrom)
	}
	if f.EndBefore != nil {
		q = q.Where("end_date <= ?", *f.EndBefore)
	}

	items := []domain.Announcement{}
	if err := page.apply(q.Order("is_pinned DESC, created_at DESC, id")).Find(&items).Error; err != nil {
		return nil, translateError(err, announcementNotFound)
	}
	return items, nil
}

func (r *AnnouncementRepository) visible(q *gorm.DB, vis Visibility) *gorm.DB {
	if vis.All {
		return q
	}
	return q.Where("(status = ? OR author_id = ?)", domain.StatusApproved, vis.ViewerID)
}

func (r *AnnouncementRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*domain.Announcement, error) {
	var a domain.Announcement
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&a).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&domain.Announcement{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&a).Error
	})
	if err != nil {
		return nil, translateError(err, announcementNotFound)
	}
	return &a, nil
}

// UpdateOwned applies fields for the author while the announcement is still Pending.
func (r *AnnouncementRepository) UpdateOwned(ctx context.Context, id, authorID uuid.UUID, fields map[string]any) (*domain.Announcement, error) {
	var a domain.Announcement
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwned(tx, &a, id, "author_id", authorID); err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&domain.Announcement{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&a).Error
	})
	if err != nil {
		return nil, translateError(err, announcementNotFound)
	}
	return &a, nil
}

func (r *AnnouncementRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.ReviewStatus) (*domain.Announcement, error) {
	return r.Update(ctx, id, map[string]any{"status": status})
}

// Delete removes the announcement together with its recipient rows.
func (r *AnnouncementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteAnnouncement(tx, id)
	})
	return translateError(err, announcementNotFound)
}

// DeleteOwned is Delete for the author while the announcement is still Pending.
func (r *AnnouncementRepository) DeleteOwned(ctx context.Context, id, authorID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwned(tx, &domain.Announcement{}, id, "author_id", authorID); err != nil {
			return err
		}
		return deleteAnnouncement(tx, id)
	})
	return translateError(err, announcementNotFound)
}

func deleteAnnouncement(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("announcement_id = ?", id).Delete(&domain.AnnouncementRecipient{}).Error; err != nil {
		return err
	}
	res := tx.Where("id = ?", id).Delete(&domain.Announcement{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(announcementNotFound)
	}
	return nil
}

func (r *AnnouncementRepository) FindRecipient(ctx context.Context, announcementID, userID uuid.UUID) (*domain.AnnouncementRecipient, error) {
	var rec domain.AnnouncementRecipient
	err := r.db.WithContext(ctx).
		Where("announcement_id = ? AND user_id = ?", announcementID, userID).
		First(&rec).Error
	if err != nil {
		return nil, translateError(err, recipientNotFound)
	}
	return &rec, nil
}

// MarkRead flags the recipient row as read. Marking an already read row keeps the
// original read_at.
func (r *AnnouncementRepository) MarkRead(ctx context.Context, announcementID, userID uuid.UUID, at time.Time) (*domain.AnnouncementRecipient, error) {
	var rec domain.AnnouncementRecipient
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("announcement_id = ? AND user_id = ?", announcementID, userID).First(&rec).Error; err != nil {
			return err
		}
		if rec.IsRead {
			return nil
		}
		rec.IsRead = true
		rec.ReadAt = &at
		return tx.Model(&domain.AnnouncementRecipient{}).Where("id = ?", rec.ID).
			Updates(map[string]any{"is_read": true, "read_at": at}).Error
	})
	if err != nil {
		return nil, translateError(err, recipientNotFound)
	}
	return &rec, nil
}

func (r *AnnouncementRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Announcement{}).Count(&count).Error
	return count, translateError(err, announcementNotFound)
}
