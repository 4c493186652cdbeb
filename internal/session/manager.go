// Package session issues, resolves and destroys server-side login sessions.
//
// A session holds a snapshot of the user's identity taken at login. The
// snapshot is not refreshed when the user changes; see auth.Guard for the
// optional per-request refresh.
package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/pkg/errors"

	"github.com/danesh-portal/danesh/internal/metrics"
	"github.com/danesh-portal/danesh/storage/model"
)

const (
	// DefaultTTL is the lifetime of a session and its cookie
	DefaultTTL = 7 * 24 * time.Hour
	// DefaultCookieName is the name of the session cookie
	DefaultCookieName = "session_id"

	identityKey = "identity"
)

// Config configures a Manager
type Config struct {
	TTL        time.Duration
	CookieName string
	// Secure marks the cookie as https-only; it should be set in production
	Secure   bool
	SameSite string
	Domain   string
	// Storage persists sessions; nil keeps them in memory
	Storage fiber.Storage
}

// Manager issues and resolves sessions on top of the fiber session store
type Manager struct {
	store      *session.Store
	ttl        time.Duration
	cookieName string
}

// NewManager creates a new Manager
func NewManager(conf Config) *Manager {
	if conf.TTL <= 0 {
		conf.TTL = DefaultTTL
	}
	if conf.CookieName == "" {
		conf.CookieName = DefaultCookieName
	}
	if conf.SameSite == "" {
		conf.SameSite = fiber.CookieSameSiteLaxMode
	}
	store := session.New(
		session.Config{
			Expiration:     conf.TTL,
			Storage:        conf.Storage,
			KeyLookup:      "cookie:" + conf.CookieName,
			CookieDomain:   conf.Domain,
			CookiePath:     "/",
			CookieSecure:   conf.Secure,
			CookieHTTPOnly: true,
			CookieSameSite: conf.SameSite,
			KeyGenerator:   utils.UUIDv4,
		},
	)
	store.RegisterType(model.Identity{})
	return &Manager{
		store:      store,
		ttl:        conf.TTL,
		cookieName: conf.CookieName,
	}
}

// CookieName returns the name of the session cookie
func (m *Manager) CookieName() string {
	return m.cookieName
}

// TTL returns the session lifetime
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create starts a new session for the identity and sets the session cookie.
// Any session id presented by the client is discarded.
func (m *Manager) Create(c *fiber.Ctx, identity model.Identity) (string, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return "", errors.Wrap(err, "could not load session")
	}
	if err = sess.Regenerate(); err != nil {
		return "", errors.Wrap(err, "could not regenerate session")
	}
	sess.Set(identityKey, identity)
	sess.SetExpiry(m.ttl)
	id := sess.ID()
	if err = sess.Save(); err != nil {
		return "", errors.Wrap(err, "could not save session")
	}
	metrics.SessionsTotal.WithLabelValues("created").Inc()
	return id, nil
}

// Resolve returns the identity of the request's session, or nil if there is
// no valid session. An error is only returned if the storage fails.
func (m *Manager) Resolve(c *fiber.Ctx) (*model.Identity, error) {
	if c.Cookies(m.cookieName) == "" {
		return nil, nil
	}
	sess, err := m.store.Get(c)
	if err != nil {
		return nil, errors.Wrap(err, "could not load session")
	}
	if sess.Fresh() {
		return nil, nil
	}
	identity, ok := sess.Get(identityKey).(model.Identity)
	if !ok {
		return nil, nil
	}
	return &identity, nil
}

// Destroy deletes the request's session and expires the cookie. Destroying
// a missing or expired session is not an error.
func (m *Manager) Destroy(c *fiber.Ctx) error {
	if c.Cookies(m.cookieName) == "" {
		return nil
	}
	sess, err := m.store.Get(c)
	if err != nil {
		return errors.Wrap(err, "could not load session")
	}
	if err = sess.Destroy(); err != nil {
		return errors.Wrap(err, "could not destroy session")
	}
	metrics.SessionsTotal.WithLabelValues("destroyed").Inc()
	return nil
}
