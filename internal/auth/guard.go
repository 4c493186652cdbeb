package auth

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"tideland.dev/go/slices"

	"github.com/danesh-portal/danesh/internal/metrics"
	"github.com/danesh-portal/danesh/storage/model"
)

const localsIdentity = "danesh.identity"

// SessionResolver resolves the identity of a request's session
type SessionResolver interface {
	Resolve(c *fiber.Ctx) (*model.Identity, error)
}

// DenyHandler writes the response for a rejected request; status is
// fiber.StatusUnauthorized or fiber.StatusForbidden
type DenyHandler func(c *fiber.Ctx, status int) error

// Guard gates routes on a valid session and, optionally, on a role. It never
// modifies state.
type Guard struct {
	sessions SessionResolver
	users    model.UsersStore
	refresh  bool
	deny     DenyHandler
}

// GuardOption configures a Guard
type GuardOption func(*Guard)

// WithIdentityRefresh makes the guard re-read the user on every request, so
// role changes and disabled accounts take effect before the session expires.
func WithIdentityRefresh(users model.UsersStore) GuardOption {
	return func(g *Guard) {
		g.users = users
		g.refresh = users != nil
	}
}

// WithDenyHandler replaces the default response for rejected requests
func WithDenyHandler(h DenyHandler) GuardOption {
	return func(g *Guard) {
		if h != nil {
			g.deny = h
		}
	}
}

// NewGuard creates a new Guard
func NewGuard(sessions SessionResolver, opts ...GuardOption) *Guard {
	g := &Guard{
		sessions: sessions,
		deny:     defaultDeny,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func defaultDeny(c *fiber.Ctx, status int) error {
	code := "unauthorized"
	if status == fiber.StatusForbidden {
		code = "forbidden"
	}
	return c.Status(status).JSON(fiber.Map{"error": code})
}

// Identity returns the identity the guard attached to the request, or nil
func Identity(c *fiber.Ctx) *model.Identity {
	identity, _ := c.Locals(localsIdentity).(*model.Identity)
	return identity
}

func (g *Guard) resolve(c *fiber.Ctx) (*model.Identity, error) {
	if identity := Identity(c); identity != nil {
		return identity, nil
	}
	identity, err := g.sessions.Resolve(c)
	if err != nil || identity == nil {
		return nil, err
	}
	if g.refresh {
		u, err := g.users.Get(identity.ID)
		if err != nil {
			var notFound model.NotFoundError
			if errors.As(err, &notFound) {
				return nil, nil
			}
			return nil, err
		}
		if u.Disabled {
			return nil, nil
		}
		fresh := u.Identity()
		identity = &fresh
	}
	c.Locals(localsIdentity, identity)
	return identity, nil
}

func (g *Guard) reject(c *fiber.Ctx, status int) error {
	metrics.AccessDeniedTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	return g.deny(c, status)
}

// OptionalSession attaches the identity if there is a valid session but lets
// anonymous requests through
func (g *Guard) OptionalSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := g.resolve(c); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireSession rejects requests without a valid session with 401
func (g *Guard) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := g.resolve(c)
		if err != nil {
			return err
		}
		if identity == nil {
			return g.reject(c, fiber.StatusUnauthorized)
		}
		return c.Next()
	}
}

// RequireRole rejects requests without a valid session with 401 and requests
// whose identity has none of the passed roles with 403
func (g *Guard) RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := g.resolve(c)
		if err != nil {
			return err
		}
		if identity == nil {
			return g.reject(c, fiber.StatusUnauthorized)
		}
		if !slices.IsMember(identity.Role, roles) {
			return g.reject(c, fiber.StatusForbidden)
		}
		return c.Next()
	}
}
