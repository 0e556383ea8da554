package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleText(t *testing.T) {
	for _, role := range []Role{EMPLOYEE, MANAGER, ADMIN} {
		text, err := role.MarshalText()
		require.NoError(t, err)

		var back Role
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, role, back)
	}

	r, err := ParseRole(" Manager ")
	require.NoError(t, err)
	assert.Equal(t, MANAGER, r)

	_, err = ParseRole("superuser")
	assert.Error(t, err)

	_, err = Role(7).MarshalText()
	assert.Error(t, err)
}

func TestRoleJSON(t *testing.T) {
	var payload struct {
		Role Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"admin"}`), &payload))
	assert.Equal(t, ADMIN, payload.Role)

	assert.Error(t, json.Unmarshal([]byte(`{"role":"owner"}`), &payload))

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"admin"}`, string(out))
}

func TestRoleScan(t *testing.T) {
	var r Role
	require.NoError(t, r.Scan([]byte("manager")))
	assert.Equal(t, MANAGER, r)
	assert.Error(t, r.Scan(int64(3)))

	v, err := ADMIN.Value()
	require.NoError(t, err)
	assert.Equal(t, "admin", v)
}

func TestReviewStatus(t *testing.T) {
	s, err := ParseReviewStatus("approved")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, s)
	assert.False(t, s.Mutable())
	assert.True(t, StatusPending.Mutable())

	_, err = ParseReviewStatus("archived")
	assert.Error(t, err)
}

func TestUserNormalize(t *testing.T) {
	u := &User{Email: " Boss@Example.COM ", Role: ADMIN}
	u.Normalize()
	assert.Equal(t, "boss@example.com", u.Email)
	assert.True(t, u.IsAdmin)

	out, err := json.Marshal(&User{Email: "x@example.com", PasswordHash: "secret-hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret-hash")
}
