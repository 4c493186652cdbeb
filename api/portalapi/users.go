package portalapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/danesh-portal/danesh/internal/auth"
	"github.com/danesh-portal/danesh/internal/i18n"
	"github.com/danesh-portal/danesh/internal/session"
	"github.com/danesh-portal/danesh/storage/model"
)

type createUserReq struct {
	Username string     `json:"username"`
	Password string     `json:"password"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
}

// registerUsers mounts the admin user management.
func registerUsers(r fiber.Router, users model.UsersStore, guard *auth.Guard) {
	g := r.Group("/users", guard.RequireRole(model.RoleAdmin))

	g.Get(
		"/", func(c *fiber.Ctx) error {
			list, err := users.List()
			if err != nil {
				return serverError(c, err)
			}
			return c.JSON(list)
		},
	)

	g.Post(
		"/", func(c *fiber.Ctx) error {
			var req createUserReq
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, i18n.MsgInvalidBody)
			}
			if strings.TrimSpace(req.Username) == "" || req.Password == "" {
				return badRequest(c, i18n.MsgMissingFields)
			}
			if req.Role == "" {
				req.Role = model.RoleUser
			}
			if !req.Role.Valid() {
				return badRequest(c, i18n.MsgInvalidBody)
			}
			if req.Email != "" && !validEmail(strings.TrimSpace(req.Email)) {
				return badRequest(c, i18n.MsgInvalidEmail)
			}
			u, err := users.Create(
				model.NewUser{
					Username: req.Username,
					Password: req.Password,
					Name:     req.Name,
					Email:    req.Email,
					Role:     req.Role,
				},
			)
			if err != nil {
				return storeError(c, err, i18n.MsgUsernameTaken)
			}
			return c.Status(fiber.StatusCreated).JSON(u)
		},
	)

	g.Get(
		"/:id<int>", func(c *fiber.Ctx) error {
			id, err := c.ParamsInt("id")
			if err != nil {
				return notFound(c)
			}
			u, err := users.Get(uint(id))
			if err != nil {
				return storeError(c, err, i18n.MsgConflict)
			}
			return c.JSON(u)
		},
	)

	g.Put(
		"/:id<int>", func(c *fiber.Ctx) error {
			id, err := c.ParamsInt("id")
			if err != nil {
				return notFound(c)
			}
			var req model.UserUpdate
			if err = c.BodyParser(&req); err != nil {
				return badRequest(c, i18n.MsgInvalidBody)
			}
			if req.Role != nil && !req.Role.Valid() {
				return badRequest(c, i18n.MsgInvalidBody)
			}
			if req.SubscriptionTier != nil && !req.SubscriptionTier.Valid() {
				return badRequest(c, i18n.MsgInvalidBody)
			}
			if req.Password != nil && *req.Password == "" {
				return badRequest(c, i18n.MsgMissingFields)
			}
			if req.Email != nil && *req.Email != "" && !validEmail(strings.TrimSpace(*req.Email)) {
				return badRequest(c, i18n.MsgInvalidEmail)
			}
			target, err := users.Get(uint(id))
			if err != nil {
				return storeError(c, err, i18n.MsgConflict)
			}
			if removesAdmin(target, req) {
				admins, err := users.CountByRole(model.RoleAdmin)
				if err != nil {
					return serverError(c, err)
				}
				if admins <= 1 {
					return conflict(c, i18n.MsgLastAdmin)
				}
			}
			u, err := users.Update(uint(id), req)
			if err != nil {
				return storeError(c, err, i18n.MsgUsernameTaken)
			}
			return c.JSON(u)
		},
	)
}

// removesAdmin reports whether applying up takes admin rights away from an
// active admin
func removesAdmin(target *model.User, up model.UserUpdate) bool {
	if target.Role != model.RoleAdmin || target.Disabled {
		return false
	}
	demoted := up.Role != nil && *up.Role != model.RoleAdmin
	disabled := up.Disabled != nil && *up.Disabled
	return demoted || disabled
}

type profileUpdateReq struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// registerProfile mounts the self-service profile; it never touches role,
// tier or the disabled flag
func registerProfile(r fiber.Router, users model.UsersStore, sessions *session.Manager, guard *auth.Guard) {
	g := r.Group("/profile", guard.RequireSession())

	g.Get(
		"/", func(c *fiber.Ctx) error {
			u, err := users.Get(auth.Identity(c).ID)
			if err != nil {
				return storeError(c, err, i18n.MsgConflict)
			}
			return c.JSON(u)
		},
	)

	g.Put(
		"/", func(c *fiber.Ctx) error {
			var req profileUpdateReq
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, i18n.MsgInvalidBody)
			}
			if req.Password != nil && *req.Password == "" {
				return badRequest(c, i18n.MsgMissingFields)
			}
			if req.Email != nil && *req.Email != "" && !validEmail(strings.TrimSpace(*req.Email)) {
				return badRequest(c, i18n.MsgInvalidEmail)
			}
			u, err := users.Update(
				auth.Identity(c).ID, model.UserUpdate{
					Name:     req.Name,
					Email:    req.Email,
					Password: req.Password,
				},
			)
			if err != nil {
				return storeError(c, err, i18n.MsgUsernameTaken)
			}
			// re-issue the session so the identity snapshot carries the new data
			if _, err = sessions.Create(c, u.Identity()); err != nil {
				return serverError(c, err)
			}
			return c.JSON(u)
		},
	)
}
