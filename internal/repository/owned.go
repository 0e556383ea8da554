package repository

import (
	"errors"

	"hr_project/internal/apperrors"
	"hr_project/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotMutable rejects an owner's write to a row they do not own, that does not exist,
// or that has already been reviewed.
var ErrNotMutable = apperrors.Forbidden("Not enough permissions")

// lockOwned loads row id into dst under a row lock, provided ownerColumn equals ownerID
// and the row is still Pending. A concurrent review either commits first and fails the
// check, or waits for the owner's transaction.
func lockOwned(tx *gorm.DB, dst any, id uuid.UUID, ownerColumn string, ownerID uuid.UUID) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Where(clause.Eq{Column: clause.Column{Name: ownerColumn}, Value: ownerID}).
		Where("status = ?", domain.StatusPending).
		First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotMutable
	}
	return err
}
