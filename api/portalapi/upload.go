package portalapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/danesh-portal/danesh/internal/auth"
	"github.com/danesh-portal/danesh/internal/cache"
	"github.com/danesh-portal/danesh/internal/i18n"
	"github.com/danesh-portal/danesh/internal/metrics"
	"github.com/danesh-portal/danesh/internal/upload"
	"github.com/danesh-portal/danesh/storage/model"
)

// registerUpload mounts the media upload; the stored file becomes a media
// library entry
func registerUpload(
	r fiber.Router, media model.ContentStore[model.MediaItem], uploader *upload.Uploader, guard *auth.Guard,
	c cache.Cache,
) {
	r.Post(
		"/upload", guard.RequireRole(model.RoleAdmin),
		cacheInvalidationMiddleware(c, contentCachePrefix("media-library")),
		func(ctx *fiber.Ctx) error {
			fh, err := ctx.FormFile("file")
			if err != nil {
				return badRequest(ctx, i18n.MsgFileRequired)
			}
			item, err := uploader.Store(ctx.UserContext(), fh)
			if err != nil {
				switch {
				case errors.Is(err, upload.ErrTooLarge):
					return badRequest(ctx, i18n.MsgFileTooLarge)
				case errors.Is(err, upload.ErrTypeNotAllowed):
					return badRequest(ctx, i18n.MsgFileTypeNotAllowed)
				}
				return serverError(ctx, err)
			}
			if alt := ctx.FormValue("alt"); alt != "" {
				item.Alt = alt
			}
			if title := ctx.FormValue("title"); title != "" {
				item.Title = title
			}
			if err = media.Create(item); err != nil {
				if rmErr := uploader.Remove(ctx.UserContext(), item.StorageKey); rmErr != nil {
					log.WithError(rmErr).WithField("key", item.StorageKey).Warn("failed to remove orphaned upload")
				}
				return storeError(ctx, err, i18n.MsgConflict)
			}
			metrics.ContentMutationsTotal.WithLabelValues("media-library", "upload").Inc()
			return ctx.Status(fiber.StatusCreated).JSON(item)
		},
	)
}
