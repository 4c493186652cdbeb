package main

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danesh-portal/danesh"
	"github.com/danesh-portal/danesh/api/portalapi"
	"github.com/danesh-portal/danesh/internal/auth"
	"github.com/danesh-portal/danesh/internal/session"
	"github.com/danesh-portal/danesh/pkg/client"
	"github.com/danesh-portal/danesh/storage"
	"github.com/danesh-portal/danesh/storage/model"
)

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.NewStorage(
		storage.Config{
			Driver: storage.DriverSQLite,
			DSN:    filepath.Join(t.TempDir(), "danesh.db"),
			UsersHash: storage.Argon2idParams{
				Time:        1,
				MemoryKiB:   8 * 1024,
				Parallelism: 1,
				KeyLen:      32,
				SaltLen:     16,
			},
		},
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUserCommands(t *testing.T) {
	users := newTestStorage(t).Backends().Users

	_, err := createUser(users, model.NewUser{Username: "x", Password: "y", Role: "root"})
	assert.Error(t, err)

	admin, err := createUser(
		users, model.NewUser{Username: "admin", Password: "admin-password", Role: model.RoleAdmin},
	)
	require.NoError(t, err)
	u, err := createUser(users, model.NewUser{Username: "farmer1", Password: "secret123", Name: "کشاورز"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)

	_, err = setRole(users, admin.Username, model.RoleUser)
	assert.ErrorContains(t, err, "last admin")
	_, err = setDisabled(users, admin.Username, true)
	assert.ErrorContains(t, err, "last admin")

	u, err = setRole(users, "farmer1", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
	u, err = setRole(users, admin.Username, model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)

	u, err = setDisabled(users, admin.Username, true)
	require.NoError(t, err)
	assert.True(t, u.Disabled)

	var out bytes.Buffer
	require.NoError(t, listUsers(&out, users))
	assert.Contains(t, out.String(), "farmer1")
	assert.Contains(t, out.String(), "کشاورز")
	assert.Equal(t, 3, strings.Count(out.String(), "\n"))
}

func TestImportUsers(t *testing.T) {
	warehouse := newTestStorage(t)
	// legacy exports carry bcrypt hashes
	export := `[
		{"username": "farmer1", "password": "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy", "name": "کشاورز", "role": "user"},
		{"username": "farmer1", "password": "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"},
		{"username": "nohash"},
		{"username": "moallem", "password": "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy", "subscription_tier": "vip"}
	]`
	res, err := importUsers(strings.NewReader(export), warehouse.UsersStorage())
	require.NoError(t, err)
	assert.Equal(t, importResult{Imported: 2, Skipped: 2}, res)

	u, err := warehouse.UsersStorage().GetByUsername("moallem")
	require.NoError(t, err)
	assert.Equal(t, model.TierVIP, u.SubscriptionTier)

	_, err = importUsers(strings.NewReader("{"), warehouse.UsersStorage())
	assert.Error(t, err)
}

func TestImportContent(t *testing.T) {
	backends := newTestStorage(t).Backends()
	export := []byte(`[
		{"title": "آشنایی با آبیاری قطره‌ای", "slug": "drip", "status": "published"},
		{"title": "duplicate", "slug": "drip"},
		{"title": "", "slug": "no-title"}
	]`)
	res, err := importContent(backends, "courses", export)
	require.NoError(t, err)
	assert.Equal(t, importResult{Imported: 1, Skipped: 2}, res)

	items, total, err := backends.Courses.List(model.ContentQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, model.StatusPublished, items[0].Status)

	_, err = importContent(backends, "podcasts", export)
	assert.ErrorContains(t, err, "unknown resource")
	assert.Len(t, contentResources(), 10)
}

func TestRemoteWhoami(t *testing.T) {
	warehouse := newTestStorage(t)
	backs := warehouse.Backends()
	_, err := backs.Users.Create(model.NewUser{Username: "farmer1", Password: "secret123", Name: "کشاورز"})
	require.NoError(t, err)

	sessions := session.NewManager(session.Config{Storage: warehouse.SessionStorage()})
	portal, err := danesh.NewPortal(
		danesh.ServerConf{}, backs, portalapi.Options{
			Sessions:      sessions,
			Guard:         auth.NewGuard(sessions),
			Authenticator: auth.NewAuthenticator(backs.Users),
		}, danesh.Options{AccessLog: &bytes.Buffer{}},
	)
	require.NoError(t, err)
	srv := httptest.NewServer(adaptor.FiberApp(portal.App()))
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	require.NoError(t, whoami(t.Context(), &out, client.New(srv.URL+"/api"), "farmer1", "secret123"))
	assert.Contains(t, out.String(), "username: farmer1")
	assert.Contains(t, out.String(), "role:     user")

	err = whoami(t.Context(), &out, client.New(srv.URL+"/api"), "farmer1", "wrong")
	assert.True(t, client.IsUnauthorized(err))
}
