package auth

import (
	"context"
	"testing"

	"hr_project/internal/apperrors"
	"hr_project/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func employee() *Principal {
	return &Principal{ID: uuid.New(), Role: domain.EMPLOYEE}
}

func admin() *Principal {
	return &Principal{ID: uuid.New(), Role: domain.ADMIN, IsAdmin: true}
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(admin()))
	assert.NoError(t, RequireAdmin(SystemPrincipal()))
	assertForbidden(t, RequireAdmin(employee()))
	assertForbidden(t, RequireAdmin(nil))

	assert.NoError(t, RequireAdminUser(admin()))
	assertForbidden(t, RequireAdminUser(SystemPrincipal()))
}

func TestRequireSelfOrAdmin(t *testing.T) {
	me := employee()
	assert.NoError(t, RequireSelfOrAdmin(me, me.ID))
	assertForbidden(t, RequireSelfOrAdmin(me, uuid.New()))
	assert.NoError(t, RequireSelfOrAdmin(admin(), me.ID))
}

func TestRequireAnyRole(t *testing.T) {
	manager := &Principal{ID: uuid.New(), Role: domain.MANAGER}
	assert.NoError(t, RequireAnyRole(manager, domain.MANAGER))
	assert.NoError(t, RequireAnyRole(admin(), domain.MANAGER))
	assertForbidden(t, RequireAnyRole(employee(), domain.MANAGER))
}

func TestCanMutateOwned(t *testing.T) {
	owner := employee()
	stranger := employee()

	assert.NoError(t, CanMutateOwned(owner, &owner.ID, domain.StatusPending))
	assertForbidden(t, CanMutateOwned(owner, &owner.ID, domain.StatusApproved))
	assertForbidden(t, CanMutateOwned(owner, &owner.ID, domain.StatusRejected))
	assertForbidden(t, CanMutateOwned(stranger, &owner.ID, domain.StatusPending))
	assertForbidden(t, CanMutateOwned(owner, nil, domain.StatusPending))
	assert.NoError(t, CanMutateOwned(admin(), &owner.ID, domain.StatusApproved))
	assertForbidden(t, CanMutateOwned(SystemPrincipal(), &owner.ID, domain.StatusPending))
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	p := FromUser(&domain.User{ID: uuid.New(), Email: "a@example.com", Role: domain.ADMIN})
	assert.True(t, p.IsAdmin)

	got, ok := PrincipalFromContext(WithPrincipal(context.Background(), p))
	require.True(t, ok)
	assert.Same(t, p, got)
}
