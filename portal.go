package danesh

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/danesh-portal/danesh/api/portalapi"
	"github.com/danesh-portal/danesh/internal/i18n"
	"github.com/danesh-portal/danesh/internal/metrics"
	"github.com/danesh-portal/danesh/storage/model"
)

// DefaultBodyLimit allows uploads of the default upload size plus form overhead
const DefaultBodyLimit = 21 << 20

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:    30 * time.Second,
	WriteTimeout:   30 * time.Second,
	IdleTimeout:    150 * time.Second,
	ReadBufferSize: 8192,
	BodyLimit:      DefaultBodyLimit,
	ErrorHandler:   portalapi.ErrorHandler,
	Network:        "tcp",
	AppName:        "danesh",
}

// Options holds the optional parts of a Portal
type Options struct {
	// AccessLog receives the access log; nil writes to stderr
	AccessLog io.Writer
	// Localizer picks the response language; nil uses Accept-Language only
	Localizer *i18n.Localizer
	// UploadsDir is served under /uploads when uploads are kept on the
	// local filesystem
	UploadsDir string
	// MetricsEnabled mounts the prometheus endpoint under /metrics
	MetricsEnabled bool
}

// Portal is the http server of the educational portal
type Portal struct {
	server     *fiber.App
	serverConf ServerConf
}

// NewPortal creates a new Portal and mounts all routes
func NewPortal(
	serverConf ServerConf, backends model.Backends, apiOpts portalapi.Options, opts Options,
) (*Portal, error) {
	fiberConf := FiberServerConfig
	if tps := serverConf.TrustedProxies; len(tps) > 0 {
		fiberConf.TrustedProxies = serverConf.TrustedProxies
		fiberConf.EnableTrustedProxyCheck = true
	}
	fiberConf.ProxyHeader = serverConf.ForwardedIPHeader
	if serverConf.BodyLimit > 0 {
		fiberConf.BodyLimit = serverConf.BodyLimit
	}
	server := fiber.New(fiberConf)
	server.Use(recover.New())
	server.Use(requestid.New())
	loggerConf := logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${ip} ${method} ${path}\n",
	}
	if opts.AccessLog != nil {
		loggerConf.Output = opts.AccessLog
	}
	server.Use(logger.New(loggerConf))
	server.Use(compress.New())
	if len(serverConf.AllowedOrigins) > 0 {
		server.Use(
			cors.New(
				cors.Config{
					AllowOrigins:     strings.Join(serverConf.AllowedOrigins, ","),
					AllowCredentials: true,
					AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
				},
			),
		)
	}
	localizer := opts.Localizer
	if localizer == nil {
		localizer = i18n.NewLocalizer(nil)
	}
	server.Use(localizer.Middleware())

	if opts.MetricsEnabled {
		server.Get(
			"/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})),
		)
	}
	if opts.UploadsDir != "" {
		server.Static(
			"/uploads", opts.UploadsDir, fiber.Static{
				ByteRange: true,
				MaxAge:    int((24 * time.Hour).Seconds()),
			},
		)
	}
	if apiOpts.ServerURL == "" && serverConf.ExternalURL != "" {
		apiOpts.ServerURL = strings.TrimSuffix(serverConf.ExternalURL, "/") + "/api"
	}
	if err := portalapi.Register(server.Group("/api"), backends, apiOpts); err != nil {
		return nil, err
	}
	if serverConf.WebRoot != "" {
		mountWebRoot(server, serverConf.WebRoot)
	}
	return &Portal{
		server:     server,
		serverConf: serverConf,
	}, nil
}

// mountWebRoot serves the built single page client; unknown paths outside
// /api get index.html so client side routes work on reload
func mountWebRoot(server *fiber.App, root string) {
	server.Static("/", root, fiber.Static{Compress: true})
	index := filepath.Join(root, "index.html")
	server.Get(
		"/*", func(c *fiber.Ctx) error {
			if strings.HasPrefix(c.Path(), "/api/") {
				return fiber.ErrNotFound
			}
			return c.SendFile(index)
		},
	)
}

// App returns the underlying fiber.App
func (p Portal) App() *fiber.App {
	return p.server
}

// HttpHandlerFunc returns an http.HandlerFunc for serving all the necessary endpoints
func (p Portal) HttpHandlerFunc() http.HandlerFunc {
	return adaptor.FiberApp(p.server)
}

// Listen starts an http server at the specific address for serving all the
// necessary endpoints
func (p Portal) Listen(addr string) error {
	return p.server.Listen(addr)
}

// Shutdown gracefully stops the server
func (p Portal) Shutdown() error {
	return p.server.Shutdown()
}

// Start starts the server as configured and blocks until it fails
func (p Portal) Start() {
	conf := p.serverConf
	if !conf.TLS.Enabled {
		log.WithField("port", conf.Port).Info("TLS is disabled starting http server")
		log.WithError(p.server.Listen(fmt.Sprintf("%s:%d", conf.IPListen, conf.Port))).Fatal()
	}
	// TLS enabled
	if conf.TLS.RedirectHTTP {
		httpServer := fiber.New(FiberServerConfig)
		httpServer.All(
			"*", func(ctx *fiber.Ctx) error {
				//goland:noinspection HttpUrlsUsage
				return ctx.Redirect(
					strings.Replace(ctx.Request().URI().String(), "http://", "https://", 1),
					fiber.StatusPermanentRedirect,
				)
			},
		)
		log.Info("TLS and http redirect enabled, starting redirect server on port 80")
		go func() {
			log.WithError(httpServer.Listen(fmt.Sprintf("%s:80", conf.IPListen))).Fatal()
		}()
	}
	time.Sleep(time.Millisecond) // This is just for a more pretty output with the tls header printed after the http one
	log.Info("TLS enabled, starting https server on port 443")
	log.WithError(p.server.ListenTLS(fmt.Sprintf("%s:443", conf.IPListen), conf.TLS.Cert, conf.TLS.Key)).Fatal()
}
