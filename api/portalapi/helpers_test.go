package portalapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/danesh-portal/danesh/internal/auth"
	"github.com/danesh-portal/danesh/internal/cache"
	"github.com/danesh-portal/danesh/internal/i18n"
	"github.com/danesh-portal/danesh/internal/session"
	"github.com/danesh-portal/danesh/internal/upload"
	"github.com/danesh-portal/danesh/storage"
	"github.com/danesh-portal/danesh/storage/model"
)

const (
	adminUsername = "admin"
	adminPassword = "admin-password"
)

type testEnv struct {
	app       *fiber.App
	backends  model.Backends
	warehouse *storage.Storage
	uploadDir string
}

func newTestEnv(t *testing.T, modify ...func(*Options)) *testEnv {
	t.Helper()
	warehouse, err := storage.NewStorage(
		storage.Config{
			Driver: storage.DriverSQLite,
			DSN:    filepath.Join(t.TempDir(), "portal.db"),
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
	t.Cleanup(func() { _ = warehouse.Close() })
	backends := warehouse.Backends()

	uploadDir := t.TempDir()
	fs, err := upload.NewFileSystem(uploadDir, "/uploads")
	require.NoError(t, err)

	sessions := session.NewManager(session.Config{Storage: warehouse.SessionStorage()})
	opts := Options{
		ServerURL:     "https://portal.example.ir/api",
		Sessions:      sessions,
		Guard:         auth.NewGuard(sessions, auth.WithDenyHandler(DenyHandler)),
		Authenticator: auth.NewAuthenticator(backends.Users),
		Uploader:      upload.NewUploader(fs, 0, nil),
		Cache:         cache.NewMemory(0),
	}
	for _, m := range modify {
		m(&opts)
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(i18n.NewLocalizer(nil).Middleware())
	require.NoError(t, Register(app.Group("/api"), backends, opts))

	_, err = backends.Users.Create(
		model.NewUser{
			Username: adminUsername,
			Password: adminPassword,
			Name:     "مدیر",
			Role:     model.RoleAdmin,
		},
	)
	require.NoError(t, err)

	return &testEnv{
		app:       app,
		backends:  backends,
		warehouse: warehouse,
		uploadDir: uploadDir,
	}
}

// do sends a request with an optional JSON body and session cookie
func (e *testEnv) do(t *testing.T, method, path string, body any, cookie string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if cookie != "" {
		req.Header.Set(fiber.HeaderCookie, session.DefaultCookieName+"="+cookie)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// login logs in and returns the session cookie value
func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	resp := e.do(t, fiber.MethodPost, "/api/login", loginReq{Username: username, Password: password}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	c := sessionCookie(resp)
	require.NotEmpty(t, c)
	return c
}

func (e *testEnv) adminCookie(t *testing.T) string {
	return e.login(t, adminUsername, adminPassword)
}

// userCookie registers a regular user and returns its session cookie
func (e *testEnv) userCookie(t *testing.T, username string) string {
	t.Helper()
	resp := e.do(
		t, fiber.MethodPost, "/api/register", registerReq{Username: username, Password: "secret123"}, "",
	)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return sessionCookie(resp)
}

func sessionCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == session.DefaultCookieName {
			return c.Value
		}
	}
	return ""
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func decodeError(t *testing.T, resp *http.Response) Error {
	t.Helper()
	var e Error
	decode(t, resp, &e)
	return e
}
