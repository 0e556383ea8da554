package repository

import (
	"errors"

	"hr_project/internal/apperrors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// translateError maps storage failures onto application error kinds. Errors that are
// already AppErrors pass through unchanged.
func translateError(err error, notFound string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Wrap(apperrors.KindNotFound, notFound, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Wrap(apperrors.KindConflict, "Resource already exists", err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return apperrors.Wrap(apperrors.KindValidation, "Referenced resource does not exist", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return apperrors.Wrap(apperrors.KindConflict, "Resource already exists", err)
		case pgerrcode.ForeignKeyViolation:
			return apperrors.Wrap(apperrors.KindValidation, "Referenced resource does not exist", err)
		case pgerrcode.NotNullViolation, pgerrcode.CheckViolation, pgerrcode.StringDataRightTruncationDataException:
			return apperrors.Wrap(apperrors.KindValidation, "Invalid field value", err)
		}
	}
	return apperrors.Internal(err)
}
