package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hotelbooking/internal/config"
	"hotelbooking/internal/database"
	"hotelbooking/internal/domain/auth"
	"hotelbooking/internal/domain/catalog"
	"hotelbooking/internal/domain/chat"
	"hotelbooking/internal/domain/events"
	"hotelbooking/internal/domain/jobs"
	"hotelbooking/internal/domain/media"
	"hotelbooking/internal/domain/reservation"
	"hotelbooking/internal/middleware"
	"hotelbooking/internal/pkg/jwt"
	"hotelbooking/internal/pkg/lock"
)

// App holds every wired component. Both the HTTP server and the CLI build one.
type App struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *gorm.DB
	Redis  *redis.Client

	JWT    *jwt.Service
	Hub    *events.Hub
	Queue  *jobs.Queue
	Worker *jobs.Worker

	Catalog      *catalog.Service
	Reservations *reservation.Service
	Auth         *auth.Service
	Chat         *chat.Service
	Media        *media.Service

	catalogRepo *catalog.Repository
}

// Models lists every table in dependency order.
func Models() []any {
	var models []any
	models = append(models, auth.Models()...)
	models = append(models, catalog.Models()...)
	models = append(models, reservation.Models()...)
	models = append(models, chat.Models()...)
	models = append(models, jobs.Models()...)
	return models
}

// OpenDB connects using the pool settings from cfg.
func OpenDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if cfg.AppEnv == "test" {
		level = logger.Silent
	}
	return database.Connect(database.Options{
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        level,
	}, log)
}

// New opens the database, migrates it and wires all services.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := OpenDB(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, Models()...); err != nil {
		closeDB(db)
		return nil, err
	}

	a := &App{Config: cfg, Log: log, DB: db}

	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.RedisURL != "" {
		client, err := lock.NewRedisClient(cfg.RedisURL)
		if err != nil {
			closeDB(db)
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			closeDB(db)
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		a.Redis = client
		locker = lock.NewRedisLocker(client, "hotelbooking:lock:", 10*time.Second, log.Named("lock"))
		log.Info("using redis room locks")
	}

	a.JWT = jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL)
	a.Hub = events.NewHub(log.Named("events"))

	jobRepo := jobs.NewRepository(db)
	a.Queue = jobs.NewQueue(jobRepo)
	a.Worker = jobs.NewWorker(jobRepo, jobs.WorkerConfig{MaxAttempts: cfg.JobsMaxAttempts}, log.Named("jobs"))

	a.catalogRepo = catalog.NewRepository(db)
	a.Catalog = catalog.NewService(a.catalogRepo, log.Named("catalog"))
	a.Reservations = reservation.NewService(reservation.NewRepository(db), a.catalogRepo, locker, log.Named("reservation"))
	a.Auth = auth.NewService(auth.NewRepository(db), a.JWT, a.Queue, cfg.AnonPurgeAfter, log.Named("auth"))
	a.Chat = chat.NewService(chat.NewRepository(db), log.Named("chat"))
	a.Media = media.NewService(a.catalogRepo, media.NewDiskStorage(cfg.UploadDir, cfg.StaticURLBase), log.Named("media"))

	a.Worker.Register(auth.PurgeAnonymousKind, a.Auth.PurgeAnonymousUser)
	return a, nil
}

// Router builds the gin engine with every route registered.
func (a *App) Router() *gin.Engine {
	if a.Config.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	origins := middleware.AllowedOrigins(a.Config.CORSOrigins)

	r := gin.New()
	r.Use(middleware.RequestLogger(a.Log), middleware.Recovery(a.Log), middleware.CORS(origins))
	r.Static(a.Config.StaticURLBase, a.Config.UploadDir)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authH := auth.NewHandler(a.Auth, a.Log)
	catalogH := catalog.NewHandler(a.Catalog, a.Log)
	reservationH := reservation.NewHandler(a.Reservations, a.Hub, a.Log)
	chatH := chat.NewHandler(a.Chat, a.Log)
	mediaH := media.NewHandler(a.Media, a.Log)

	events.NewHandler(a.Hub, a.JWT, origins, a.Log).RegisterRoutes(r)

	api := r.Group("/api")
	authH.RegisterPublicRoutes(api)
	catalogH.RegisterRoutes(api)
	reservationH.RegisterPublicRoutes(api)

	protected := api.Group("")
	protected.Use(middleware.JWTAuth(a.JWT))
	authH.RegisterProtectedRoutes(protected)
	reservationH.RegisterRoutes(protected)
	chat.RegisterRoutes(protected, chatH)

	admin := api.Group("/admin")
	admin.Use(middleware.JWTAuth(a.JWT), middleware.AdminOnly())
	catalogH.RegisterAdminRoutes(admin)
	media.RegisterAdminRoutes(admin, mediaH)

	return r
}

func (a *App) Close() {
	a.Hub.Close()
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warn("close redis", zap.Error(err))
		}
	}
	closeDB(a.DB)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
