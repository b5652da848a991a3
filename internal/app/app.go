package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-recommender/internal/data/db"
	httpx "github.com/yungbote/neurobridge-recommender/internal/http"
	httpH "github.com/yungbote/neurobridge-recommender/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-recommender/internal/http/middleware"
	"github.com/yungbote/neurobridge-recommender/internal/modules/recommendation"
	"github.com/yungbote/neurobridge-recommender/internal/observability"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
	"github.com/yungbote/neurobridge-recommender/internal/realtime"
	"github.com/yungbote/neurobridge-recommender/internal/realtime/bus"
	"github.com/yungbote/neurobridge-recommender/internal/services"
)

const serviceName = "neurobridge-recommender"

type Services struct {
	Auth           services.AuthService
	Recommendation services.RecommendationService
}

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Services Services
	Server   *httpx.Server
	Metrics  *observability.Metrics
	Events   bus.Bus

	pg           *db.PostgresService
	clients      Clients
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics := observability.Init(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := db.AutoMigrateAll(pg.DB()); err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	a := &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Metrics:      metrics,
		pg:           pg,
		otelShutdown: otelShutdown,
	}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	log, cfg := a.Log, a.Cfg
	a.Repos = wireRepos(a.DB, log)

	vectors, err := wireVectorSearcher(ctx, log, cfg, a.pg.DSN(), a.Repos, &a.clients)
	if err != nil {
		return err
	}
	graphStore, err := wireGraphStore(log, cfg, a.Repos, &a.clients)
	if err != nil {
		return err
	}

	var observer recommendation.Observer
	if a.Metrics != nil {
		observer = a.Metrics
	}
	engine, err := recommendation.NewEngine(recommendation.EngineDeps{
		Vectors:  withVectorBreaker(vectors, cfg.Breaker, a.Metrics, log),
		Recent:   services.NewRecentRecommendations(a.Repos.Recommendation),
		Graph:    withGraphBreaker(graphStore, cfg.Breaker, a.Metrics, log),
		Feedback: services.NewFeedbackStore(a.Repos.Feedback),
		Writer:   services.NewRecommendationWriter(a.Repos.Recommendation),
		Observer: observer,
		Log:      log,
	})
	if err != nil {
		return fmt.Errorf("init recommendation engine: %w", err)
	}

	events, err := bus.New(log, cfg.Redis)
	if err != nil {
		return fmt.Errorf("init event bus: %w", err)
	}
	a.Events = events

	log.Info("Wiring services...")
	a.Services = Services{
		Auth: services.NewAuthService(log, cfg.JWTSecretKey),
		Recommendation: services.NewRecommendationService(services.RecommendationServiceDeps{
			DB:              a.DB,
			Log:             log,
			Engine:          engine,
			Recommendations: a.Repos.Recommendation,
			Feedback:        a.Repos.Feedback,
			Events:          events,
			Metrics:         a.Metrics,
		}),
	}

	log.Info("Wiring router...")
	a.Server = httpx.NewServer(httpx.RouterConfig{
		AuthMiddleware:        httpMW.NewAuthMiddleware(log, a.Services.Auth),
		HealthHandler:         httpH.NewHealthHandler(a.readinessChecks()...),
		RecommendationHandler: httpH.NewRecommendationHandler(log, a.Services.Recommendation),
		Log:                   log,
		Metrics:               a.Metrics,
		ServiceName:           serviceName,
		CORSOrigins:           cfg.CORSOrigins,
		RequestTimeout:        cfg.RequestTimeout,
	})
	return nil
}

func (a *App) readinessChecks() []httpH.ReadinessCheck {
	checks := []httpH.ReadinessCheck{{
		Name: "postgres",
		Check: func(ctx context.Context) error {
			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if a.clients.Neo4j != nil {
		checks = append(checks, httpH.ReadinessCheck{
			Name: "neo4j",
			Check: func(ctx context.Context) error {
				return a.clients.Neo4j.Driver.VerifyConnectivity(ctx)
			},
		})
	}
	return checks
}

// Start launches background collectors and the event tap. It is idempotent.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
	a.Metrics.StartRedisCollector(ctx, a.Log, a.Cfg.Redis.Addr)

	if a.Events != nil {
		tapLog := a.Log.With("component", "EventTap")
		err := a.Events.StartForwarder(ctx, func(m realtime.Message) {
			tapLog.Debug("recommendation event received", "event", m.Event, "channel", m.Channel)
		})
		if err != nil {
			a.Log.Warn("event tap not started", "error", err)
		}
	}
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Listening", "addr", a.Cfg.HTTPAddr)
	return a.Server.Run(a.Cfg.HTTPAddr)
}

func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return nil
	}
	return a.Server.Shutdown(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.Events != nil {
		_ = a.Events.Close()
	}
	a.clients.Close(ctx)
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
