package repository

import (
	"context"

	"hr_project/internal/apperrors"
	"hr_project/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const testimonialNotFound = "Testimonial not found"

type TestimonialFilter struct {
	EmployeeName string
	Department   string
	Content      string
	UserID       *uuid.UUID
	Status       *domain.ReviewStatus
}

type TestimonialRepository struct {
	db *gorm.DB
}

func NewTestimonialRepository(db *gorm.DB) *TestimonialRepository {
	return &TestimonialRepository{db: db}
}

func (r *TestimonialRepository) Create(ctx context.Context, t *domain.Testimonial) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(t).Error; err != nil {
		return translateError(err, testimonialNotFound)
	}
	return nil
}

func (r *TestimonialRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Testimonial, error) {
	var t domain.Testimonial
	if err := r.db.WithContext(ctx).Preload("User", selectAuthor).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, translateError(err, testimonialNotFound)
	}
	return &t, nil
}

func (r *TestimonialRepository) FindVisible(ctx context.Context, id uuid.UUID, vis Visibility) (*domain.Testimonial, error) {
	var t domain.Testimonial
	q := r.visible(r.db.WithContext(ctx).Model(&domain.Testimonial{}), vis)
	if err := q.Preload("User", selectAuthor).Where("testimonials.id = ?", id).First(&t).Error; err != nil {
		return nil, translateError(err, testimonialNotFound)
	}
	return &t, nil
}

func (r *TestimonialRepository) List(ctx context.Context, vis Visibility, page Page) ([]domain.Testimonial, error) {
	return r.Filter(ctx, vis, TestimonialFilter{}, page)
}

// Filter matches employee name and department against the author's user record.
func (r *TestimonialRepository) Filter(ctx context.Context, vis Visibility, f TestimonialFilter, page Page) ([]domain.Testimonial, error) {
	q := r.visible(r.db.WithContext(ctx).Model(&domain.Testimonial{}), vis)
	if f.EmployeeName != "" || f.Department != "" {
		q = q.Joins("JOIN users ON users.id = testimonials.user_id")
		q = whereContains(q, "users.first_name || ' ' || users.last_name", f.EmployeeName)
		q = whereContains(q, "users.department", f.Department)
	}
	q = whereContains(q, "testimonials.content", f.Content)
	if f.UserID != nil {
		q = q.Where("testimonials.user_id = ?", *f.UserID)
	}
	if f.Status != nil {
		q = q.Where("testimonials.status = ?", *f.Status)
	}

	items := []domain.Testimonial{}
	q = q.Select("testimonials.*").Preload("User", selectAuthor).Order("testimonials.created_at DESC, testimonials.id")
	if err := page.apply(q).Find(&items).Error; err != nil {
		return nil, translateError(err, testimonialNotFound)
	}
	return items, nil
}

func (r *TestimonialRepository) visible(q *gorm.DB, vis Visibility) *gorm.DB {
	if vis.All {
		return q
	}
	return q.Where("(testimonials.status = ? OR testimonials.user_id = ?)", domain.StatusApproved, vis.ViewerID)
}

func (r *TestimonialRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*domain.Testimonial, error) {
	var t domain.Testimonial
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&t).Error; err != nil {
			return err
		}
		if len(fields) > 0 {
			if err := tx.Model(&domain.Testimonial{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return err
			}
		}
		return tx.Preload("User", selectAuthor).Where("id = ?", id).First(&t).Error
	})
	if err != nil {
		return nil, translateError(err, testimonialNotFound)
	}
	return &t, nil
}

// UpdateOwned applies fields for the author while the testimonial is still Pending.
func (r *TestimonialRepository) UpdateOwned(ctx context.Context, id, userID uuid.UUID, fields map[string]any) (*domain.Testimonial, error) {
	var t domain.Testimonial
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwned(tx, &t, id, "user_id", userID); err != nil {
			return err
		}
		if len(fields) > 0 {
			if err := tx.Model(&domain.Testimonial{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return err
			}
		}
		return tx.Preload("User", selectAuthor).Where("id = ?", id).First(&t).Error
	})
	if err != nil {
		return nil, translateError(err, testimonialNotFound)
	}
	return &t, nil
}

// Review records the admin decision and comments.
func (r *TestimonialRepository) Review(ctx context.Context, id uuid.UUID, status domain.ReviewStatus, comments string) (*domain.Testimonial, error) {
	return r.Update(ctx, id, map[string]any{"status": status, "admin_comments": comments})
}

func (r *TestimonialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Testimonial{})
	if res.Error != nil {
		return translateError(res.Error, testimonialNotFound)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(testimonialNotFound)
	}
	return nil
}

// DeleteOwned is Delete for the author while the testimonial is still Pending.
func (r *TestimonialRepository) DeleteOwned(ctx context.Context, id, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwned(tx, &domain.Testimonial{}, id, "user_id", userID); err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Testimonial{}).Error
	})
	return translateError(err, testimonialNotFound)
}

// selectAuthor limits the preloaded author to the columns shown next to a testimonial.
func selectAuthor(db *gorm.DB) *gorm.DB {
	return db.Select("id", "first_name", "last_name", "department")
}

func (r *TestimonialRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Testimonial{}).Count(&count).Error
	return count, translateError(err, testimonialNotFound)
}
