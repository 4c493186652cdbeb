package portalapi

import (
	"strconv"
	"strings"
	"time"

	arrays "github.com/adam-hanna/arrayOperations"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"tideland.dev/go/slices"

	"github.com/danesh-portal/danesh/internal/auth"
	"github.com/danesh-portal/danesh/internal/cache"
	"github.com/danesh-portal/danesh/internal/i18n"
	"github.com/danesh-portal/danesh/internal/metrics"
	"github.com/danesh-portal/danesh/storage/model"
)

// Listing limits
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var listParams = []string{
	"status",
	"tier",
	"q",
	"limit",
	"offset",
	"lang",
}

// ListResponse is the body of content listings
type ListResponse[T any] struct {
	Items  []T   `json:"items" msgpack:"items"`
	Total  int64 `json:"total" msgpack:"total"`
	Limit  int   `json:"limit" msgpack:"limit"`
	Offset int   `json:"offset" msgpack:"offset"`
}

type contentRegistrar struct {
	guard *auth.Guard
	cache cache.Cache
	ttl   time.Duration
}

func queryValues(c *fiber.Ctx, key string) []string {
	var values []string
	for _, raw := range c.Context().QueryArgs().PeekMulti(key) {
		for _, v := range strings.Split(string(raw), ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}

func queryInt(c *fiber.Ctx, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// allMembers reports whether every value, repeated or not, is one of allowed
func allMembers(values, allowed []string) bool {
	for _, v := range values {
		if !slices.IsMember(v, allowed) {
			return false
		}
	}
	return true
}

// parseContentQuery builds the listing filter from the query string.
// Non-admins only ever see published items.
func parseContentQuery(c *fiber.Ctx, admin bool) (model.ContentQuery, bool) {
	var q model.ContentQuery
	var keys []string
	c.Context().QueryArgs().VisitAll(
		func(k, _ []byte) {
			keys = append(keys, string(k))
		},
	)
	if !allMembers(keys, listParams) {
		return q, false
	}

	if admin {
		for _, s := range queryValues(c, "status") {
			status, err := model.ParseStatus(s)
			if err != nil {
				return q, false
			}
			q.Statuses = append(q.Statuses, status)
		}
	} else {
		q.Statuses = []model.Status{model.StatusPublished}
	}

	tiers := queryValues(c, "tier")
	if !allMembers(tiers, model.AllTiers) {
		return q, false
	}
	for _, t := range arrays.Intersect(tiers, model.AllTiers) {
		q.Tiers = append(q.Tiers, model.SubscriptionTier(t))
	}

	q.Search = strings.TrimSpace(c.Query("q"))

	var ok bool
	if q.Limit, ok = queryInt(c, "limit", DefaultPageSize); !ok {
		return q, false
	}
	if q.Limit == 0 || q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if q.Offset, ok = queryInt(c, "offset", 0); !ok {
		return q, false
	}
	return q, true
}

func isAdmin(c *fiber.Ctx) bool {
	identity := auth.Identity(c)
	return identity != nil && identity.IsAdmin()
}

func contentCachePrefix(name string) string {
	return cache.Key("content", name)
}

// registerContent mounts the CRUD routes of one content resource. Reads are
// public, mutations require the admin role.
func registerContent[T any, PT interface {
	*T
	model.Content
}](r fiber.Router, name string, store model.ContentStore[T], reg contentRegistrar) {
	g := r.Group("/" + name)
	prefix := contentCachePrefix(name)
	invalidate := cacheInvalidationMiddleware(reg.cache, prefix)
	admin := reg.guard.RequireRole(model.RoleAdmin)

	g.Get(
		"/", reg.guard.OptionalSession(), func(c *fiber.Ctx) error {
			adminView := isAdmin(c)
			q, ok := parseContentQuery(c, adminView)
			if !ok {
				return badRequest(c, i18n.MsgInvalidQuery)
			}
			key := cache.Key(prefix, "list", string(c.Context().QueryArgs().QueryString()))
			if !adminView {
				var cached ListResponse[T]
				found, err := reg.cache.Get(c.UserContext(), key, &cached)
				if err != nil {
					log.WithError(err).Warn("failed to read cached listing")
				} else if found {
					return c.JSON(cached)
				}
			}
			items, total, err := store.List(q)
			if err != nil {
				return serverError(c, err)
			}
			res := ListResponse[T]{
				Items:  items,
				Total:  total,
				Limit:  q.Limit,
				Offset: q.Offset,
			}
			if !adminView {
				if err = reg.cache.Set(c.UserContext(), key, res, reg.ttl); err != nil {
					log.WithError(err).Warn("failed to cache listing")
				}
			}
			return c.JSON(res)
		},
	)

	g.Get(
		"/:id<int>", reg.guard.OptionalSession(), func(c *fiber.Ctx) error {
			id, err := c.ParamsInt("id")
			if err != nil {
				return notFound(c)
			}
			item, err := store.Get(uint(id))
			if err != nil {
				return storeError(c, err, i18n.MsgConflict)
			}
			if !isAdmin(c) && PT(item).Base().Status != model.StatusPublished {
				return notFound(c)
			}
			return c.JSON(item)
		},
	)

	g.Post(
		"/", admin, invalidate, func(c *fiber.Ctx) error {
			item := PT(new(T))
			if err := c.BodyParser(item); err != nil {
				return badRequest(c, i18n.MsgInvalidBody)
			}
			if err := store.Create((*T)(item)); err != nil {
				return storeError(c, err, i18n.MsgConflict)
			}
			metrics.ContentMutationsTotal.WithLabelValues(name, "create").Inc()
			return c.Status(fiber.StatusCreated).JSON(item)
		},
	)

	g.Put(
		"/:id<int>", admin, invalidate, func(c *fiber.Ctx) error {
			id, err := c.ParamsInt("id")
			if err != nil {
				return notFound(c)
			}
			item := PT(new(T))
			if err = c.BodyParser(item); err != nil {
				return badRequest(c, i18n.MsgInvalidBody)
			}
			updated, err := store.Update(uint(id), (*T)(item))
			if err != nil {
				return storeError(c, err, i18n.MsgConflict)
			}
			metrics.ContentMutationsTotal.WithLabelValues(name, "update").Inc()
			return c.JSON(updated)
		},
	)

	g.Delete(
		"/:id<int>", admin, invalidate, func(c *fiber.Ctx) error {
			id, err := c.ParamsInt("id")
			if err != nil {
				return notFound(c)
			}
			if err = store.Delete(uint(id)); err != nil {
				return storeError(c, err, i18n.MsgConflict)
			}
			metrics.ContentMutationsTotal.WithLabelValues(name, "delete").Inc()
			return c.SendStatus(fiber.StatusNoContent)
		},
	)
}
