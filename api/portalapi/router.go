package portalapi

import (
	"embed"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/danesh-portal/danesh/internal/auth"
	"github.com/danesh-portal/danesh/internal/cache"
	"github.com/danesh-portal/danesh/internal/session"
	"github.com/danesh-portal/danesh/internal/upload"
	"github.com/danesh-portal/danesh/internal/version"
	"github.com/danesh-portal/danesh/storage/model"
)

//go:embed docs.html openapi.yaml
var assets embed.FS

// RateLimit configures the limiter in front of login and registration
type RateLimit struct {
	// Max is the number of attempts per client IP within Window; 0 disables
	// the limiter
	Max    int
	Window time.Duration
	// Storage shares the counters between instances; nil keeps them in memory
	Storage fiber.Storage
}

// Options holds the collaborators of the portal API
type Options struct {
	// ServerURL is advertised in the served OpenAPI document
	ServerURL string

	Sessions      *session.Manager
	Guard         *auth.Guard
	Authenticator *auth.Authenticator
	// Uploader is optional; without it the upload endpoint is not mounted
	Uploader *upload.Uploader

	// Cache holds public listings; nil disables caching
	Cache    cache.Cache
	CacheTTL time.Duration

	AuthRateLimit RateLimit

	// HealthCheck is called by the health endpoint, e.g. to ping the database
	HealthCheck func() error
}

// Register mounts all portal API routes under the provided group.
func Register(r fiber.Router, backends model.Backends, opts Options) error {
	if opts.Sessions == nil || opts.Guard == nil || opts.Authenticator == nil {
		return errors.New("portalapi: sessions, guard and authenticator are required")
	}
	if opts.Cache == nil {
		opts.Cache = cache.Noop{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}

	openapiRaw, err := assets.ReadFile("openapi.yaml")
	if err != nil {
		return errors.Wrap(err, "portalapi: failed to read openapi.yaml")
	}
	openapiData := updateOpenAPIServers(openapiRaw, opts.ServerURL)
	openapiData = ensureCookieAuthSecurity(openapiData, opts.Sessions.CookieName())
	docsHTML, err := assets.ReadFile("docs.html")
	if err != nil {
		return errors.Wrap(err, "portalapi: failed to read docs.html")
	}
	r.Get(
		"/openapi.yaml", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, "application/yaml")
			return c.Send(openapiData)
		},
	)
	r.Get(
		"/docs", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
			return c.Send(docsHTML)
		},
	)
	r.Get("/health", healthHandler(opts.HealthCheck))

	registerAuth(r, backends.Users, opts)
	registerUsers(r, backends.Users, opts.Guard)
	registerProfile(r, backends.Users, opts.Sessions, opts.Guard)
	registerStaticPages(r, backends.KV, opts.Guard, opts.Cache, opts.CacheTTL)

	reg := contentRegistrar{
		guard: opts.Guard,
		cache: opts.Cache,
		ttl:   opts.CacheTTL,
	}
	registerContent(r, "courses", backends.Courses, reg)
	registerContent(r, "workshops", backends.Workshops, reg)
	registerContent(r, "webinars", backends.Webinars, reg)
	registerContent(r, "magazines", backends.Magazines, reg)
	registerContent(r, "articles", backends.Articles, reg)
	registerContent(r, "documents", backends.Documents, reg)
	registerContent(r, "media-library", backends.Media, reg)
	registerContent(r, "slides", backends.Slides, reg)
	registerContent(r, "quick-access", backends.QuickAccess, reg)
	registerContent(r, "educational-videos", backends.EducationalVideos, reg)

	registerWorkshopRegistrations(r, backends.Registrations, opts.Guard)
	if opts.Uploader != nil {
		registerUpload(r, backends.Media, opts.Uploader, opts.Guard, opts.Cache)
	}
	return nil
}

func authRateLimiter(conf RateLimit) fiber.Handler {
	if conf.Max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if conf.Window <= 0 {
		conf.Window = time.Minute
	}
	return limiter.New(
		limiter.Config{
			Max:        conf.Max,
			Expiration: conf.Window,
			KeyGenerator: func(c *fiber.Ctx) string {
				return "auth:" + c.IP()
			},
			LimitReached: TooManyRequests,
			Storage:      conf.Storage,
		},
	)
}

func healthHandler(check func() error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := fiber.Map{
			"status":  "ok",
			"version": version.VERSION,
		}
		if check != nil {
			if err := check(); err != nil {
				status["status"] = "unavailable"
				return c.Status(fiber.StatusServiceUnavailable).JSON(status)
			}
		}
		return c.JSON(status)
	}
}

func updateOpenAPIServers(doc []byte, serverURL string) []byte {
	if len(serverURL) == 0 {
		return doc
	}
	var full map[string]any
	if err := yaml.Unmarshal(doc, &full); err != nil {
		return doc
	}
	full["servers"] = []map[string]any{
		{
			"url":         serverURL,
			"description": "This instance",
		},
	}
	res, err := yaml.Marshal(full)
	if err != nil {
		return doc
	}
	return res
}

// ensureCookieAuthSecurity injects the session cookie security scheme into the
// OpenAPI document, if not already present. Operations declare their own
// security requirements since most reads are public.
func ensureCookieAuthSecurity(doc []byte, cookieName string) []byte {
	var full map[string]any
	if err := yaml.Unmarshal(doc, &full); err != nil {
		return doc
	}
	components, _ := full["components"].(map[string]any)
	if components == nil {
		components = map[string]any{}
		full["components"] = components
	}
	securitySchemes, _ := components["securitySchemes"].(map[string]any)
	if securitySchemes == nil {
		securitySchemes = map[string]any{}
		components["securitySchemes"] = securitySchemes
	}
	if _, exists := securitySchemes["cookieAuth"]; !exists {
		securitySchemes["cookieAuth"] = map[string]any{
			"type": "apiKey",
			"in":   "cookie",
			"name": cookieName,
		}
	}
	res, err := yaml.Marshal(full)
	if err != nil {
		return doc
	}
	return res
}
