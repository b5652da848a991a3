package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/neurobridge-recommender/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-recommender/internal/http/middleware"
	"github.com/yungbote/neurobridge-recommender/internal/observability"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
)

type RouterConfig struct {
	AuthMiddleware        *httpMW.AuthMiddleware
	HealthHandler         *httpH.HealthHandler
	RecommendationHandler *httpH.RecommendationHandler

	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	CORSOrigins    []string
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	if cfg.Metrics != nil {
		r.Use(httpMW.Metrics(cfg.Metrics, "/metrics", "/healthcheck", "/readyz"))
	}
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	if cfg.RequestTimeout > 0 {
		api.Use(httpMW.Deadline(cfg.RequestTimeout))
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Recommendations
		if cfg.RecommendationHandler != nil {
			protected.POST("/recommendations", cfg.RecommendationHandler.Generate)
			protected.GET("/recommendations", cfg.RecommendationHandler.List)
			protected.POST("/recommendations/:id/view", cfg.RecommendationHandler.View)
			protected.POST("/recommendations/:id/dismiss", cfg.RecommendationHandler.Dismiss)
			protected.POST("/recommendations/:id/rate", cfg.RecommendationHandler.Rate)
		}
	}

	return r
}
