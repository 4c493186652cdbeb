package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/danesh-portal/danesh"
	"github.com/danesh-portal/danesh/api/portalapi"
	"github.com/danesh-portal/danesh/cmd/danesh/config"
	"github.com/danesh-portal/danesh/internal/auth"
	"github.com/danesh-portal/danesh/internal/cache"
	"github.com/danesh-portal/danesh/internal/i18n"
	"github.com/danesh-portal/danesh/internal/jobs"
	"github.com/danesh-portal/danesh/internal/logger"
	"github.com/danesh-portal/danesh/internal/session"
	"github.com/danesh-portal/danesh/internal/upload"
	"github.com/danesh-portal/danesh/internal/version"
	"github.com/danesh-portal/danesh/storage"
	"github.com/danesh-portal/danesh/storage/model"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("could not load .env file")
	}
	var configFile string
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}
	if err := config.Load(configFile); err != nil {
		log.WithError(err).Fatal("could not load config")
	}
	c := config.Get()
	if err := logger.Init(c.Logging.Options()); err != nil {
		log.WithError(err).Fatal("could not init logging")
	}
	if c.Logging.Banner.Version {
		fmt.Fprint(os.Stderr, version.Banner(0))
	}
	log.WithField("version", version.VERSION).Info("Loaded Config")

	backs, warehouse, err := config.LoadStorageBackends(c)
	if err != nil {
		log.WithError(err).Fatal("could not load storage")
	}
	admin, generated, err := storage.EnsureBootstrapAdmin(backs.Users, backs.KV, c.API.BootstrapAdmin)
	if err != nil {
		log.WithError(err).Fatal("could not seed admin account")
	}
	if admin != nil {
		announceAdmin(os.Stderr, admin, generated)
	}

	redisClient := c.Caching.RedisClient()
	if redisClient != nil {
		if err = redisClient.Ping(context.Background()).Err(); err != nil {
			log.WithError(err).Fatal("could not connect to redis")
		}
		log.Info("Connected to redis")
	}

	scheduler := jobs.NewScheduler()
	sessionStorage, err := loadSessionStorage(c, warehouse, redisClient, scheduler)
	if err != nil {
		log.WithError(err).Fatal("could not init session storage")
	}
	sessionConf := c.Session.ManagerConfig()
	sessionConf.Storage = sessionStorage
	sessions := session.NewManager(sessionConf)

	guardOpts := []auth.GuardOption{auth.WithDenyHandler(portalapi.DenyHandler)}
	if c.Session.RefreshIdentity {
		guardOpts = append(guardOpts, auth.WithIdentityRefresh(backs.Users))
	}

	apiOpts := portalapi.Options{
		Sessions:      sessions,
		Guard:         auth.NewGuard(sessions, guardOpts...),
		Authenticator: auth.NewAuthenticator(backs.Users),
		Cache:         loadCache(c, redisClient),
		CacheTTL:      c.Caching.MaxLifetime.Duration(),
		HealthCheck:   warehouse.Ping,
	}
	if !c.API.RateLimit.Disabled {
		apiOpts.AuthRateLimit = portalapi.RateLimit{
			Max:    c.API.RateLimit.Max,
			Window: c.API.RateLimit.Window.Duration(),
		}
		if redisClient != nil {
			apiOpts.AuthRateLimit.Storage = session.NewRedisStorage(redisClient, "danesh:limiter:")
		}
	}

	portalOpts := danesh.Options{
		AccessLog:      logger.AccessWriter(),
		MetricsEnabled: c.API.MetricsEnabled,
	}
	if !c.Upload.Disabled {
		var backend upload.Backend
		switch c.Upload.Backend {
		case config.UploadBackendS3:
			backend, err = upload.NewS3(context.Background(), c.Upload.S3.Options())
		default:
			var fs *upload.FileSystem
			fs, err = upload.NewFileSystem(c.Upload.Dir, "/uploads")
			if err == nil {
				portalOpts.UploadsDir = fs.Dir()
			}
			backend = fs
		}
		if err != nil {
			log.WithError(err).Fatal("could not init upload backend")
		}
		apiOpts.Uploader = upload.NewUploader(backend, c.Upload.MaxSize, c.Upload.AllowedTypes)
		log.WithField("backend", c.Upload.Backend).Info("Loaded upload backend")
	}

	geo, err := i18n.OpenGeoIP(c.I18n.GeoIPDB)
	if err != nil {
		log.WithError(err).Fatal("could not open geoip database")
	}
	if geo != nil {
		portalOpts.Localizer = i18n.NewLocalizer(geo)
		log.Info("Loaded GeoIP database")
	}

	serverConf := c.Server
	if limit := int(c.Upload.MaxSize) + 1<<20; !c.Upload.Disabled && limit > serverConf.BodyLimit {
		serverConf.BodyLimit = limit
	}
	portal, err := danesh.NewPortal(serverConf, backs, apiOpts, portalOpts)
	if err != nil {
		log.WithError(err).Fatal("could not init portal")
	}
	log.Info("Added Endpoints")

	scheduler.Start()
	portal.Start()
}

// announceAdmin reports a freshly seeded admin account. A generated password
// goes to out only, never to the log.
func announceAdmin(out io.Writer, admin *model.User, generated string) {
	log.WithField("username", admin.Username).Warn("Created admin account")
	if generated != "" {
		fmt.Fprintf(
			out, "Generated password for admin account %q: %s\nIt is shown only once; change it after logging in.\n",
			admin.Username, generated,
		)
	}
}

func loadSessionStorage(
	c *config.Config, warehouse *storage.Storage, redisClient redis.UniversalClient, scheduler *jobs.Scheduler,
) (fiber.Storage, error) {
	conf := c.Session.Storage
	store, err := session.NewStorage(
		session.StorageOptions{
			Type:      conf.Type,
			Warehouse: warehouse,
			Redis:     redisClient,
			BadgerDir: conf.BadgerDir,
		},
	)
	if err != nil {
		return nil, err
	}
	switch conf.Type {
	case session.StorageMemory:
		log.Warn("Sessions are kept in memory and are lost on restart")
	case session.StorageDatabase:
		if err = scheduler.Add(jobs.SessionCleanup(warehouse.SessionStorage(), conf.CleanupSchedule)); err != nil {
			return nil, err
		}
	}
	log.WithField("type", conf.Type).Info("Loaded session storage")
	return store, nil
}

func loadCache(c *config.Config, redisClient redis.UniversalClient) cache.Cache {
	if c.Caching.Disabled {
		return cache.Noop{}
	}
	if redisClient != nil {
		log.Info("Using redis cache")
		return cache.NewRedis(redisClient, "")
	}
	m := cache.NewMemory(c.Caching.MaxEntries)
	if err := m.StartJanitor(); err != nil {
		log.WithError(err).Warn("could not start cache janitor")
	}
	return m
}
