package auth

import (
	"hr_project/internal/apperrors"
	"hr_project/internal/domain"

	"github.com/google/uuid"
)

const forbiddenMessage = "Not enough permissions"

var ErrForbidden = apperrors.Forbidden(forbiddenMessage)

func RequireAdmin(p *Principal) error {
	if p == nil || !p.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// RequireUser rejects the system principal, which may only read.
func RequireUser(p *Principal) error {
	if p == nil || p.System {
		return ErrForbidden
	}
	return nil
}

// RequireAdminUser is RequireAdmin for mutations.
func RequireAdminUser(p *Principal) error {
	if err := RequireUser(p); err != nil {
		return err
	}
	return RequireAdmin(p)
}

func RequireSelfOrAdmin(p *Principal, target uuid.UUID) error {
	if p == nil {
		return ErrForbidden
	}
	if p.IsAdmin || (!p.System && p.ID == target) {
		return nil
	}
	return ErrForbidden
}

func RequireAnyRole(p *Principal, roles ...domain.Role) error {
	if p == nil {
		return ErrForbidden
	}
	if p.IsAdmin {
		return nil
	}
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

// CanMutateOwned allows admins any change and owners only while status is still mutable.
func CanMutateOwned(p *Principal, owner *uuid.UUID, status domain.ReviewStatus) error {
	if err := RequireUser(p); err != nil {
		return err
	}
	if p.IsAdmin {
		return nil
	}
	if owner == nil || *owner != p.ID || !status.Mutable() {
		return ErrForbidden
	}
	return nil
}
