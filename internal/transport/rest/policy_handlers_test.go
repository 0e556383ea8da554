package rest

import (
	"net/http"
	"testing"

	"hr_project/internal/domain"
	"hr_project/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyLifecycle(t *testing.T) {
	f := newFixture(t)
	admin := f.user(testutil.UserOpts{Role: domain.ADMIN})
	emp := f.user(testutil.UserOpts{})
	token := f.tokenFor(admin)

	rec := f.do(request{method: http.MethodPost, path: testPrefix + "/policy/create_new_policy", token: token,
		body: map[string]any{"title": "Code of Conduct", "category": "HR", "version": "1.0"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[domain.Policy](t, rec)
	assert.True(t, p.IsActive)
	require.NotNil(t, p.CreatedBy)
	assert.Equal(t, admin.ID, *p.CreatedBy)

	rec = f.do(request{method: http.MethodGet, path: testPrefix + "/policy/" + p.ID.String(), token: f.tokenFor(emp)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Code of Conduct", decode[domain.Policy](t, rec).Title)

	rec = f.do(request{method: http.MethodPut, path: testPrefix + "/policy/edit_policy/" + p.ID.String(), token: f.tokenFor(emp),
		body: map[string]any{"version": "2.0"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(request{method: http.MethodPut, path: testPrefix + "/policy/edit_policy/" + p.ID.String(), token: token,
		body: map[string]any{"version": "2.0", "is_active": false}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[domain.Policy](t, rec)
	assert.Equal(t, "2.0", updated.Version)
	assert.False(t, updated.IsActive)

	rec = f.do(request{method: http.MethodGet, path: testPrefix + "/policy/filter?is_active=false", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Policy](t, rec), 1)

	rec = f.do(request{method: http.MethodDelete, path: testPrefix + "/policy/delete_policy/" + p.ID.String(), token: f.tokenFor(emp)})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(request{method: http.MethodDelete, path: testPrefix + "/policy/delete_policy/" + p.ID.String(), token: token})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(request{method: http.MethodDelete, path: testPrefix + "/policy/delete_policy/" + p.ID.String(), token: token})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPolicyDuplicateTitle(t *testing.T) {
	f := newFixture(t)
	admin := f.user(testutil.UserOpts{Role: domain.ADMIN})
	token := f.tokenFor(admin)
	create := func(title string) *domain.Policy {
		rec := f.do(request{method: http.MethodPost, path: testPrefix + "/policy/create_new_policy", token: token,
			body: map[string]any{"title": title}})
		if rec.Code != http.StatusCreated {
			assert.Equal(t, http.StatusConflict, rec.Code)
			assert.Equal(t, "A policy with this title already exists", detail(t, rec))
			return nil
		}
		p := decode[domain.Policy](t, rec)
		return &p
	}

	require.NotNil(t, create("Leave Policy"))
	second := create("Travel Policy")
	require.NotNil(t, second)
	assert.Nil(t, create("leave policy"))

	rec := f.do(request{method: http.MethodPut, path: testPrefix + "/policy/edit_policy/" + second.ID.String(), token: token,
		body: map[string]any{"title": "LEAVE POLICY"}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	var n int64
	require.NoError(t, f.db.Model(&domain.Policy{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)
}

func TestPolicyFilterWithoutParamsMatchesList(t *testing.T) {
	f := newFixture(t)
	admin := f.user(testutil.UserOpts{Role: domain.ADMIN})
	token := f.tokenFor(admin)
	for _, title := range []string{"A", "B", "C"} {
		rec := f.do(request{method: http.MethodPost, path: testPrefix + "/policy/create_new_policy", token: token,
			body: map[string]any{"title": title}})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	all := f.do(request{method: http.MethodGet, path: testPrefix + "/policy/getall", token: token})
	filtered := f.do(request{method: http.MethodGet, path: testPrefix + "/policy/filter", token: token})
	require.Equal(t, http.StatusOK, all.Code)
	assert.JSONEq(t, all.Body.String(), filtered.Body.String())

	rec := f.do(request{method: http.MethodGet, path: testPrefix + "/policy/getall?limit=2", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Policy](t, rec), 2)

	rec = f.do(request{method: http.MethodGet, path: testPrefix + "/policy/getall?skip=-1", token: token})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPolicyMissing(t *testing.T) {
	f := newFixture(t)
	admin := f.user(testutil.UserOpts{Role: domain.ADMIN})
	rec := f.do(request{method: http.MethodGet, path: testPrefix + "/policy/" + uuid.NewString(), token: f.tokenFor(admin)})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
