package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"hr_project/internal/apperrors"
	"hr_project/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const userNotFound = "Employee not found"

var ErrLastAdmin = apperrors.Conflict("Cannot remove the last active admin")

type UserFilter struct {
	ID            *uuid.UUID
	FirstName     string
	LastName      string
	Email         string
	Department    string
	ContactNumber string
	Role          *domain.Role
	IsActive      *bool
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	user.Normalize()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := existsByEmail(tx, user.Email, uuid.Nil)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.Conflict("Email already registered")
		}
		if err := tx.Create(user).Error; err != nil {
			return conflictAs(translateError(err, userNotFound), "Email already registered")
		}
		return nil
	})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateError(err, userNotFound)
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translateError(err, userNotFound)
	}
	return &user, nil
}

// ExistsByEmail reports whether another user, other than excludeID, holds email.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	return existsByEmail(r.db.WithContext(ctx), email, excludeID)
}

func existsByEmail(db *gorm.DB, email string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := db.Model(&domain.User{}).Where("email = ?", strings.ToLower(strings.TrimSpace(email)))
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, translateError(err, userNotFound)
	}
	return count > 0, nil
}

func (r *UserRepository) List(ctx context.Context, page Page) ([]domain.User, error) {
	return r.Filter(ctx, UserFilter{}, page)
}

func (r *UserRepository) Filter(ctx context.Context, f UserFilter, page Page) ([]domain.User, error) {
	q := r.db.WithContext(ctx).Model(&domain.User{})
	if f.ID != nil {
		q = q.Where("id = ?", *f.ID)
	}
	q = whereContains(q, "first_name", f.FirstName)
	q = whereContains(q, "last_name", f.LastName)
	q = whereContains(q, "email", f.Email)
	q = whereContains(q, "department", f.Department)
	q = whereContains(q, "contact_number", f.ContactNumber)
	if f.Role != nil {
		q = q.Where("role = ?", *f.Role)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}

	users := []domain.User{}
	if err := page.apply(q.Order("created_at, id")).Find(&users).Error; err != nil {
		return nil, translateError(err, userNotFound)
	}
	return users, nil
}

// Update applies column changes to the user and returns the stored result. Changes that
// would leave no active admin are rejected with ErrLastAdmin.
func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return translateError(err, userNotFound)
		}
		if email, ok := fields["email"].(string); ok {
			email = strings.ToLower(strings.TrimSpace(email))
			fields["email"] = email
			taken, err := existsByEmail(tx, email, id)
			if err != nil {
				return err
			}
			if taken {
				return apperrors.Conflict("Email already registered")
			}
		}
		role := user.Role
		if v, ok := fields["role"].(domain.Role); ok {
			role = v
		}
		_, touchesRole := fields["role"]
		_, touchesFlag := fields["is_admin"]
		if role == domain.ADMIN && (touchesRole || touchesFlag) {
			fields["is_admin"] = true
		}
		if isActiveAdmin(&user) && !staysActiveAdmin(&user, fields) {
			if err := ensureAnotherAdmin(tx, id); err != nil {
				return err
			}
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&domain.User{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return conflictAs(translateError(err, userNotFound), "Email already registered")
		}
		return tx.Where("id = ?", id).First(&user).Error
	})
	if err != nil {
		return nil, translateError(err, userNotFound)
	}
	return &user, nil
}

// Deactivate soft-deletes the user by clearing is_active.
func (r *UserRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return err
		}
		if !user.IsActive {
			return nil
		}
		if isActiveAdmin(&user) {
			if err := ensureAnotherAdmin(tx, id); err != nil {
				return err
			}
		}
		return tx.Model(&domain.User{}).Where("id = ?", id).Update("is_active", false).Error
	})
	return translateError(err, userNotFound)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return translateError(res.Error, userNotFound)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(userNotFound)
	}
	return nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		UpdateColumn("last_login", at).Error
	return translateError(err, userNotFound)
}

func (r *UserRepository) CountActiveAdmins(ctx context.Context) (int64, error) {
	return countActiveAdmins(r.db.WithContext(ctx), uuid.Nil)
}

// Count returns the number of active users.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("is_active = ?", true).Count(&count).Error
	return count, translateError(err, userNotFound)
}

// EnsureAdmin creates admin unless a user with the same email already exists.
func (r *UserRepository) EnsureAdmin(ctx context.Context, admin *domain.User) (bool, error) {
	admin.Role = domain.ADMIN
	admin.IsActive = true
	err := r.Create(ctx, admin)
	if apperrors.Is(err, apperrors.KindConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func isActiveAdmin(u *domain.User) bool {
	return u.IsActive && (u.IsAdmin || u.Role == domain.ADMIN)
}

func staysActiveAdmin(u *domain.User, fields map[string]any) bool {
	next := *u
	if v, ok := fields["role"].(domain.Role); ok {
		next.Role = v
	}
	if v, ok := fields["is_admin"].(bool); ok {
		next.IsAdmin = v
	}
	if v, ok := fields["is_active"].(bool); ok {
		next.IsActive = v
	}
	return isActiveAdmin(&next)
}

// ensureAnotherAdmin locks every active admin row in id order, so concurrent demotions
// queue behind each other and see the committed result, then requires one besides excludeID.
func ensureAnotherAdmin(tx *gorm.DB, excludeID uuid.UUID) error {
	var ids []uuid.UUID
	err := activeAdmins(tx.Model(&domain.User{})).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return translateError(err, userNotFound)
	}
	for _, id := range ids {
		if id != excludeID {
			return nil
		}
	}
	return ErrLastAdmin
}

func activeAdmins(q *gorm.DB) *gorm.DB {
	return q.Where("is_active = ?", true).
		Where("(is_admin = ? OR role = ?)", true, domain.ADMIN)
}

func countActiveAdmins(db *gorm.DB, excludeID uuid.UUID) (int64, error) {
	var count int64
	q := activeAdmins(db.Model(&domain.User{}))
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, translateError(err, userNotFound)
	}
	return count, nil
}

// conflictAs rewrites the message of a conflict error.
func conflictAs(err error, message string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Kind == apperrors.KindConflict {
		return apperrors.Wrap(apperrors.KindConflict, message, appErr.Cause)
	}
	return err
}
