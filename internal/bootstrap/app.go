package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-reviewer/internal/authn"
	"resume-reviewer/internal/queue"
	"resume-reviewer/internal/reviews"
	"resume-reviewer/internal/services/health"
	"resume-reviewer/internal/sessions"
	"resume-reviewer/internal/shared/config"
	"resume-reviewer/internal/shared/server"
	"resume-reviewer/internal/shared/storage/db"
	"resume-reviewer/internal/shared/storage/object"
	localstore "resume-reviewer/internal/shared/storage/object/local"
	s3store "resume-reviewer/internal/shared/storage/object/s3"
	"resume-reviewer/internal/shared/telemetry"
	"resume-reviewer/internal/upstream"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.Store
	Queue           queue.Client
	Upstream        *upstream.Client
	SessionsService *sessions.Service
	ReviewsService  *reviews.Service
	AuthHandler     *authn.Handler
	ReviewsHandler  *reviews.Handler
	Health          *health.Service

	closers []func() error
}

// Options overrides external dependencies, mainly for tests.
type Options struct {
	HTTPClient *http.Client
	Queue      queue.Client
	// DBRole picks the connection pool profile; empty means db.RoleAPI.
	DBRole db.Role
}

// Build prepares dependencies and wires routes.
func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg, opts.DBRole)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB
	if sqlDB != nil {
		app.closers = append(app.closers, sqlDB.Close)
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	queueClient := opts.Queue
	if queueClient == nil {
		queueClient, err = buildQueue(cfg)
		if err != nil {
			app.Close()
			return nil, err
		}
	}
	app.Queue = queueClient

	app.Upstream = upstream.New(upstream.Config{
		BaseURL:    cfg.UpstreamBaseURL,
		Timeout:    cfg.UpstreamTimeout,
		HTTPClient: opts.HTTPClient,
	})

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         app.Config,
		AuthHandler:    app.AuthHandler,
		ReviewsHandler: app.ReviewsHandler,
		Health:         app.Health,
		Sessions:       app.SessionsService,
	})

	return app, nil
}

// Close releases the database and broker connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config, role db.Role) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if role == "" {
		role = db.RoleAPI
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFor(role))
	if err == nil {
		if err = db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			err = fmt.Errorf("run migrations: %w", err)
		}
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:    cfg.AWSRegion,
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			KMSKeyID:  cfg.SSEKMSKeyID,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.AMQPURL) == "" {
		return queue.NopClient{}, nil
	}
	client, err := queue.NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.queue.disabled", map[string]any{"error": err.Error()})
			return queue.NopClient{}, nil
		}
		return nil, err
	}
	return client, nil
}

func buildServices(app *App) {
	var sessionRepo sessions.Repo
	var reviewRepo reviews.Repo
	if app.DB != nil {
		sessionRepo = &sessions.PGRepo{DB: app.DB}
		reviewRepo = &reviews.PGRepo{DB: app.DB}
	} else {
		sessionRepo = sessions.NewMemoryRepo()
		reviewRepo = reviews.NewMemoryRepo()
	}

	if closer, ok := app.Queue.(interface{ Close() error }); ok {
		app.closers = append(app.closers, closer.Close)
	}

	app.SessionsService = &sessions.Service{
		Repo:     sessionRepo,
		Upstream: app.Upstream,
		TTL:      app.Config.SessionTTL,
	}
	app.ReviewsService = &reviews.Service{
		Repo:     reviewRepo,
		Store:    app.Store,
		Sessions: app.SessionsService,
		Upstream: app.Upstream,
		Events:   app.Queue,
		MaxBytes: reviews.DefaultMaxBytes,
	}
	app.AuthHandler = authn.NewHandler(app.SessionsService, app.Upstream)
	app.ReviewsHandler = reviews.NewHandler(app.ReviewsService)
	app.Health = health.NewService(pinger(app.DB), app.Config.ObjectStoreType)
}

// pinger keeps a nil *sql.DB from becoming a non-nil interface.
func pinger(sqlDB *sql.DB) health.Pinger {
	if sqlDB == nil {
		return nil
	}
	return sqlDB
}
