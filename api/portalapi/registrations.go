package portalapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/danesh-portal/danesh/internal/auth"
	"github.com/danesh-portal/danesh/internal/i18n"
	"github.com/danesh-portal/danesh/storage/model"
)

type registrationStatusReq struct {
	Status model.RegistrationStatus `json:"status"`
}

// registerWorkshopRegistrations mounts workshop sign-ups. The user is always
// taken from the session, never from the body.
func registerWorkshopRegistrations(r fiber.Router, store model.RegistrationsStore, guard *auth.Guard) {
	g := r.Group("/workshop-registrations")
	admin := guard.RequireRole(model.RoleAdmin)

	g.Post(
		"/", guard.RequireSession(), func(c *fiber.Ctx) error {
			var req model.NewRegistration
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, i18n.MsgInvalidBody)
			}
			if err := req.Validate(); err != nil {
				return badRequest(c, i18n.MsgMissingFields)
			}
			reg, err := store.Register(auth.Identity(c).ID, req)
			if err != nil {
				if errors.Is(err, model.ErrWorkshopFull) {
					return conflict(c, i18n.MsgWorkshopFull)
				}
				return storeError(c, err, i18n.MsgAlreadyRegistered)
			}
			return c.Status(fiber.StatusCreated).JSON(reg)
		},
	)

	g.Get(
		"/mine", guard.RequireSession(), func(c *fiber.Ctx) error {
			list, err := store.ListByUser(auth.Identity(c).ID)
			if err != nil {
				return serverError(c, err)
			}
			return c.JSON(list)
		},
	)

	g.Get(
		"/", admin, func(c *fiber.Ctx) error {
			workshopID := c.QueryInt("workshop_id", 0)
			if workshopID < 0 {
				return badRequest(c, i18n.MsgInvalidQuery)
			}
			list, err := store.List(uint(workshopID))
			if err != nil {
				return serverError(c, err)
			}
			return c.JSON(list)
		},
	)

	g.Put(
		"/:id<int>", admin, func(c *fiber.Ctx) error {
			id, err := c.ParamsInt("id")
			if err != nil {
				return notFound(c)
			}
			var req registrationStatusReq
			if err = c.BodyParser(&req); err != nil || !req.Status.Valid() {
				return badRequest(c, i18n.MsgInvalidBody)
			}
			reg, err := store.SetStatus(uint(id), req.Status)
			if err != nil {
				return storeError(c, err, i18n.MsgConflict)
			}
			return c.JSON(reg)
		},
	)

	g.Delete(
		"/:id<int>", admin, func(c *fiber.Ctx) error {
			id, err := c.ParamsInt("id")
			if err != nil {
				return notFound(c)
			}
			if err = store.Delete(uint(id)); err != nil {
				return storeError(c, err, i18n.MsgConflict)
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	)
}
