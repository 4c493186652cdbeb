package portalapi

import (
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/danesh-portal/danesh/internal/auth"
	"github.com/danesh-portal/danesh/internal/i18n"
	"github.com/danesh-portal/danesh/internal/metrics"
	"github.com/danesh-portal/danesh/internal/session"
	"github.com/danesh-portal/danesh/storage/model"
)

// AuthResponse is returned by login and registration
type AuthResponse struct {
	Message string         `json:"message"`
	User    model.Identity `json:"user"`
}

type loginReq struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type registerReq struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
}

func registerAuth(r fiber.Router, users model.UsersStore, opts Options) {
	limit := authRateLimiter(opts.AuthRateLimit)

	r.Post("/login", limit, loginHandler(opts.Authenticator, opts.Sessions))
	r.Post("/register", limit, registerHandler(users, opts.Sessions))
	r.Post(
		"/logout", func(c *fiber.Ctx) error {
			if err := opts.Sessions.Destroy(c); err != nil {
				return serverError(c, err)
			}
			return c.JSON(Message{Message: i18n.Tc(c, i18n.MsgLogoutSuccess)})
		},
	)
	r.Get(
		"/auth/user", opts.Guard.RequireSession(), func(c *fiber.Ctx) error {
			return c.JSON(auth.Identity(c))
		},
	)
}

func loginHandler(authenticator *auth.Authenticator, sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginReq
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, i18n.MsgInvalidBody)
		}
		if strings.TrimSpace(req.Username) == "" || req.Password == "" {
			return badRequest(c, i18n.MsgMissingCredentials)
		}
		identity, err := authenticator.Authenticate(c.UserContext(), req.Username, req.Password)
		if err != nil {
			return serverError(c, err)
		}
		if identity == nil {
			return writeError(c, fiber.StatusUnauthorized, ErrorCodeUnauthorized, i18n.MsgInvalidCredentials)
		}
		if _, err = sessions.Create(c, *identity); err != nil {
			return serverError(c, err)
		}
		return c.JSON(
			AuthResponse{
				Message: i18n.Tc(c, i18n.MsgLoginSuccess),
				User:    *identity,
			},
		)
	}
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func registerHandler(users model.UsersStore, sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerReq
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, i18n.MsgInvalidBody)
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(req.Email)
		if req.Username == "" || req.Password == "" {
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
			return badRequest(c, i18n.MsgMissingFields)
		}
		if req.Email != "" && !validEmail(req.Email) {
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
			return badRequest(c, i18n.MsgInvalidEmail)
		}
		u, err := users.Create(
			model.NewUser{
				Username: req.Username,
				Password: req.Password,
				Name:     strings.TrimSpace(req.Name),
				Email:    req.Email,
				Role:     model.RoleUser,
			},
		)
		if err != nil {
			var existsErr model.AlreadyExistsError
			if errors.As(err, &existsErr) {
				metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
				return conflict(c, i18n.MsgUsernameTaken)
			}
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
			return serverError(c, err)
		}
		metrics.RegistrationsTotal.WithLabelValues("success").Inc()
		identity := u.Identity()
		if _, err = sessions.Create(c, identity); err != nil {
			return serverError(c, err)
		}
		return c.JSON(
			AuthResponse{
				Message: i18n.Tc(c, i18n.MsgRegisterSuccess),
				User:    identity,
			},
		)
	}
}
