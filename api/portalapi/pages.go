package portalapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/danesh-portal/danesh/internal/auth"
	"github.com/danesh-portal/danesh/internal/cache"
	"github.com/danesh-portal/danesh/internal/i18n"
	"github.com/danesh-portal/danesh/storage"
	"github.com/danesh-portal/danesh/storage/model"
)

// registerStaticPages mounts the "about us" and "contact us" pages
func registerStaticPages(
	r fiber.Router, kv model.KeyValueStore, guard *auth.Guard, c cache.Cache, ttl time.Duration,
) {
	for _, key := range storage.StaticPageKeys {
		cacheKey := cache.Key("pages", key)
		r.Get(
			"/"+key, func(ctx *fiber.Ctx) error {
				var page model.StaticPage
				found, err := c.Get(ctx.UserContext(), cacheKey, &page)
				if err != nil {
					log.WithError(err).Warn("failed to read cached page")
				} else if found {
					return ctx.JSON(page)
				}
				p, err := storage.GetStaticPage(kv, key)
				if err != nil {
					return storeError(ctx, err, i18n.MsgConflict)
				}
				if err = c.Set(ctx.UserContext(), cacheKey, p, ttl); err != nil {
					log.WithError(err).Warn("failed to cache page")
				}
				return ctx.JSON(p)
			},
		)
		r.Put(
			"/"+key, guard.RequireRole(model.RoleAdmin), cacheInvalidationMiddleware(c, cacheKey),
			func(ctx *fiber.Ctx) error {
				var page model.StaticPage
				if err := ctx.BodyParser(&page); err != nil {
					return badRequest(ctx, i18n.MsgInvalidBody)
				}
				if err := storage.SetStaticPage(kv, key, page); err != nil {
					return storeError(ctx, err, i18n.MsgConflict)
				}
				return ctx.JSON(page)
			},
		)
	}
}
