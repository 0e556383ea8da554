package auth

import (
	"context"
	"time"

	"hr_project/internal/domain"

	"github.com/google/uuid"
)

// Principal is the caller of a request, resolved from the live user record or from
// the system API key.
type Principal struct {
	ID      uuid.UUID
	Email   string
	Role    domain.Role
	IsAdmin bool
	System  bool

	// TokenID and TokenExpiry identify the bearer token for revocation.
	TokenID     string
	TokenExpiry time.Time
}

func FromUser(u *domain.User) *Principal {
	return &Principal{
		ID:      u.ID,
		Email:   u.Email,
		Role:    u.Role,
		IsAdmin: u.IsAdmin || u.Role == domain.ADMIN,
	}
}

// SystemPrincipal has read access everywhere and cannot mutate anything.
func SystemPrincipal() *Principal {
	return &Principal{Role: domain.ADMIN, IsAdmin: true, System: true}
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
