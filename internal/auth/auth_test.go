package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danesh-portal/danesh/storage/model"
)

type fakeUsers struct {
	model.UsersStore
	byID     map[uint]*model.User
	password map[string]string
	fail     bool
}

func (f *fakeUsers) Authenticate(username, password string) (*model.User, error) {
	if f.fail {
		return nil, errors.New("db down")
	}
	for _, u := range f.byID {
		if u.Username == username && f.password[username] == password && !u.Disabled {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) Get(id uint) (*model.User, error) {
	if f.fail {
		return nil, errors.New("db down")
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, model.NotFoundErrorFmt("user not found: %d", id)
	}
	cp := *u
	return &cp, nil
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byID: map[uint]*model.User{
			1: {ID: 1, Username: "admin", Role: model.RoleAdmin},
			2: {ID: 2, Username: "farmer1", Role: model.RoleUser, Name: "Ali"},
		},
		password: map[string]string{
			"admin":   "admin-pw",
			"farmer1": "secret123",
		},
	}
}

func TestAuthenticate(t *testing.T) {
	a := NewAuthenticator(newFakeUsers())
	ctx := context.Background()

	id, err := a.Authenticate(ctx, " farmer1 ", "secret123")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, model.Identity{ID: 2, Username: "farmer1", Role: model.RoleUser, Name: "Ali"}, *id)

	for _, creds := range [][2]string{{"farmer1", "wrong"}, {"nobody", "secret123"}, {"", "x"}, {"farmer1", ""}} {
		id, err = a.Authenticate(ctx, creds[0], creds[1])
		assert.NoError(t, err)
		assert.Nil(t, id)
	}
}

func TestAuthenticateStoreFailure(t *testing.T) {
	users := newFakeUsers()
	users.fail = true
	id, err := NewAuthenticator(users).Authenticate(context.Background(), "farmer1", "secret123")
	assert.Error(t, err)
	assert.Nil(t, id)
}

// headerResolver reads the identity from a test header
type headerResolver struct {
	users *fakeUsers
	fail  bool
}

func (r headerResolver) Resolve(c *fiber.Ctx) (*model.Identity, error) {
	if r.fail {
		return nil, errors.New("session store down")
	}
	switch c.Get("X-Test-User") {
	case "admin":
		id := r.users.byID[1].Identity()
		return &id, nil
	case "user":
		id := r.users.byID[2].Identity()
		return &id, nil
	}
	return nil, nil
}

func newGuardApp(g *Guard) *fiber.App {
	app := fiber.New()
	ok := func(c *fiber.Ctx) error {
		if id := Identity(c); id != nil {
			return c.SendString(id.Username)
		}
		return c.SendString("anonymous")
	}
	app.Get("/public", g.OptionalSession(), ok)
	app.Get("/session", g.RequireSession(), ok)
	app.Get("/admin", g.RequireRole(model.RoleAdmin), ok)
	app.Get("/any-role", g.RequireRole(model.RoleAdmin, model.RoleUser), ok)
	return app
}

func status(t *testing.T, app *fiber.App, path, user string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestGuardRoleGating(t *testing.T) {
	users := newFakeUsers()
	app := newGuardApp(NewGuard(headerResolver{users: users}))

	cases := []struct {
		path, user string
		want       int
	}{
		{"/public", "", fiber.StatusOK},
		{"/public", "user", fiber.StatusOK},
		{"/session", "", fiber.StatusUnauthorized},
		{"/session", "user", fiber.StatusOK},
		{"/admin", "", fiber.StatusUnauthorized},
		{"/admin", "user", fiber.StatusForbidden},
		{"/admin", "admin", fiber.StatusOK},
		{"/any-role", "user", fiber.StatusOK},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, status(t, app, c.path, c.user), "%s as %q", c.path, c.user)
	}
}

func TestGuardResolverFailure(t *testing.T) {
	app := newGuardApp(NewGuard(headerResolver{users: newFakeUsers(), fail: true}))
	assert.Equal(t, fiber.StatusInternalServerError, status(t, app, "/session", "user"))
	assert.Equal(t, fiber.StatusInternalServerError, status(t, app, "/public", ""))
}

type snapshotResolver struct {
	identity model.Identity
}

func (r snapshotResolver) Resolve(*fiber.Ctx) (*model.Identity, error) {
	id := r.identity
	return &id, nil
}

func TestGuardSnapshotIsNotRefreshedByDefault(t *testing.T) {
	users := newFakeUsers()
	app := newGuardApp(NewGuard(snapshotResolver{identity: users.byID[1].Identity()}))
	users.byID[1].Role = model.RoleUser
	users.byID[1].Disabled = true
	assert.Equal(t, fiber.StatusOK, status(t, app, "/admin", ""))
}

func TestGuardIdentityRefresh(t *testing.T) {
	users := newFakeUsers()
	snapshot := users.byID[1].Identity()
	g := NewGuard(snapshotResolver{identity: snapshot}, WithIdentityRefresh(users))
	app := newGuardApp(g)
	assert.Equal(t, fiber.StatusOK, status(t, app, "/admin", ""))

	users.byID[1].Role = model.RoleUser
	assert.Equal(t, fiber.StatusForbidden, status(t, app, "/admin", ""))

	users.byID[1].Disabled = true
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "/session", ""))

	delete(users.byID, 1)
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "/session", ""))
}

func TestGuardCustomDenyHandler(t *testing.T) {
	g := NewGuard(
		headerResolver{users: newFakeUsers()}, WithDenyHandler(
			func(c *fiber.Ctx, status int) error {
				return c.Status(status).SendString("nope")
			},
		),
	)
	assert.Equal(t, fiber.StatusForbidden, status(t, newGuardApp(g), "/admin", "user"))
}
