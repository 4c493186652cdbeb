package portalapi

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/danesh-portal/danesh/internal/cache"
)

// cacheInvalidationMiddleware clears the cached responses under prefix for
// requests that successfully modify state.
// It should be attached only to non-GET routes.
func cacheInvalidationMiddleware(c cache.Cache, prefix string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if err := ctx.Next(); err != nil {
			return err
		}
		status := ctx.Response().StatusCode()
		if status >= 200 && status < 400 {
			if err := c.Clear(ctx.UserContext(), prefix); err != nil {
				log.WithError(err).WithField("prefix", prefix).Warn("failed to invalidate cache")
			}
		}
		return nil
	}
}
