package repository

import (
	"context"
	"strings"

	"hr_project/internal/apperrors"
	"hr_project/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	policyNotFound  = "Policy not found"
	policyDuplicate = "A policy with this title already exists"
)

type PolicyFilter struct {
	Title       string
	Category    string
	Version     string
	Description string
	IsActive    *bool
}

type PolicyRepository struct {
	db *gorm.DB
}

func NewPolicyRepository(db *gorm.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

func (r *PolicyRepository) Create(ctx context.Context, p *domain.Policy) error {
	p.Title = strings.TrimSpace(p.Title)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := titleTaken(tx, p.Title, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.Conflict(policyDuplicate)
		}
		return tx.Create(p).Error
	})
	return conflictAs(translateError(err, policyNotFound), policyDuplicate)
}

// ExistsByTitle compares titles case-insensitively, ignoring the policy excludeID.
func (r *PolicyRepository) ExistsByTitle(ctx context.Context, title string, excludeID uuid.UUID) (bool, error) {
	taken, err := titleTaken(r.db.WithContext(ctx), title, excludeID)
	return taken, translateError(err, policyNotFound)
}

func titleTaken(db *gorm.DB, title string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := db.Model(&domain.Policy{}).Where("LOWER(title) = ?", strings.ToLower(strings.TrimSpace(title)))
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PolicyRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Policy, error) {
	var p domain.Policy
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translateError(err, policyNotFound)
	}
	return &p, nil
}

func (r *PolicyRepository) List(ctx context.Context, page Page) ([]domain.Policy, error) {
	return r.Filter(ctx, PolicyFilter{}, page)
}

func (r *PolicyRepository) Filter(ctx context.Context, f PolicyFilter, page Page) ([]domain.Policy, error) {
	q := r.db.WithContext(ctx).Model(&domain.Policy{})
	q = whereContains(q, "title", f.Title)
	q = whereContains(q, "category", f.Category)
	q = whereContains(q, "version", f.Version)
	q = whereContains(q, "description", f.Description)
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}

	policies := []domain.Policy{}
	if err := page.apply(q.Order("created_at DESC, id")).Find(&policies).Error; err != nil {
		return nil, translateError(err, policyNotFound)
	}
	return policies, nil
}

// Update applies column changes. A new title is checked against every other policy.
func (r *PolicyRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*domain.Policy, error) {
	var p domain.Policy
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&p).Error; err != nil {
			return err
		}
		if title, ok := fields["title"].(string); ok {
			title = strings.TrimSpace(title)
			fields["title"] = title
			taken, err := titleTaken(tx, title, id)
			if err != nil {
				return err
			}
			if taken {
				return apperrors.Conflict(policyDuplicate)
			}
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&domain.Policy{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&p).Error
	})
	if err != nil {
		return nil, conflictAs(translateError(err, policyNotFound), policyDuplicate)
	}
	return &p, nil
}

func (r *PolicyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Policy{})
	if res.Error != nil {
		return translateError(res.Error, policyNotFound)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(policyNotFound)
	}
	return nil
}

func (r *PolicyRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Policy{}).Count(&count).Error
	return count, translateError(err, policyNotFound)
}
