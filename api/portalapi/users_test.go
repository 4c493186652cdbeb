package portalapi

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danesh-portal/danesh/storage/model"
)

func TestUsersAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	user := env.userCookie(t, "farmer1")

	assert.Equal(t, fiber.StatusUnauthorized, env.do(t, fiber.MethodGet, "/api/users", nil, "").StatusCode)
	assert.Equal(t, fiber.StatusForbidden, env.do(t, fiber.MethodGet, "/api/users", nil, user).StatusCode)

	resp := env.do(t, fiber.MethodGet, "/api/users", nil, env.adminCookie(t))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list []map[string]any
	decode(t, resp, &list)
	assert.Len(t, list, 2)
	for _, u := range list {
		assert.NotContains(t, u, "password_hash")
		assert.NotContains(t, u, "PasswordHash")
	}
}

func TestUsersCreateAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminCookie(t)

	resp := env.do(
		t, fiber.MethodPost, "/api/users", map[string]any{
			"username": "editor",
			"password": "editor-pass",
			"role":     "admin",
		}, admin,
	)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var editor model.User
	decode(t, resp, &editor)
	assert.Equal(t, model.RoleAdmin, editor.Role)

	resp = env.do(t, fiber.MethodPost, "/api/users", map[string]any{"username": "x", "password": "y", "role": "root"}, admin)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp = env.do(t, fiber.MethodPost, "/api/users", map[string]any{"username": "editor", "password": "y"}, admin)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	path := fmt.Sprintf("/api/users/%d", editor.ID)
	resp = env.do(
		t, fiber.MethodPut, path, map[string]any{
			"role":              "user",
			"subscription_tier": "premium",
			"name":              "ویراستار",
		}, admin,
	)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var updated model.User
	decode(t, resp, &updated)
	assert.Equal(t, model.RoleUser, updated.Role)
	assert.Equal(t, model.TierPremium, updated.SubscriptionTier)
	assert.Equal(t, "ویراستار", updated.Name)

	resp = env.do(t, fiber.MethodPut, path, map[string]any{"subscription_tier": "gold"}, admin)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp = env.do(t, fiber.MethodPut, "/api/users/9999", map[string]any{"name": "x"}, admin)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp = env.do(t, fiber.MethodGet, "/api/users/9999", nil, admin)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.do(t, fiber.MethodGet, path, nil, admin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLastAdminCannotBeRemoved(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminCookie(t)
	u, err := env.backends.Users.GetByUsername(adminUsername)
	require.NoError(t, err)
	path := fmt.Sprintf("/api/users/%d", u.ID)

	resp := env.do(t, fiber.MethodPut, path, map[string]any{"role": "user"}, admin)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	resp = env.do(t, fiber.MethodPut, path, map[string]any{"disabled": true}, admin)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	u, err = env.backends.Users.Get(u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.False(t, u.Disabled)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.userCookie(t, "farmer1")

	assert.Equal(t, fiber.StatusUnauthorized, env.do(t, fiber.MethodGet, "/api/profile", nil, "").StatusCode)

	resp := env.do(
		t, fiber.MethodPut, "/api/profile", map[string]any{
			"name":  "علی رضایی",
			"email": "ali@example.ir",
			"role":  "admin",
		}, cookie,
	)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	newCookie := sessionCookie(resp)
	require.NotEmpty(t, newCookie)
	var u model.User
	decode(t, resp, &u)
	assert.Equal(t, "علی رضایی", u.Name)
	assert.Equal(t, model.RoleUser, u.Role, "the profile must never change the role")

	resp = env.do(t, fiber.MethodGet, "/api/auth/user", nil, newCookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var me model.Identity
	decode(t, resp, &me)
	assert.Equal(t, "علی رضایی", me.Name)
	assert.Equal(t, "ali@example.ir", me.Email)

	resp = env.do(t, fiber.MethodPut, "/api/profile", map[string]any{"password": "new-secret"}, newCookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	newCookie = sessionCookie(resp)
	env.login(t, "farmer1", "new-secret")

	resp = env.do(t, fiber.MethodPut, "/api/profile", map[string]any{"email": "bad"}, newCookie)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
