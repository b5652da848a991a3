package http

import (
	"context"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	httpH "github.com/yungbote/neurobridge-recommender/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-recommender/internal/http/middleware"
	"github.com/yungbote/neurobridge-recommender/internal/modules/recommendation"
	"github.com/yungbote/neurobridge-recommender/internal/observability"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
	"github.com/yungbote/neurobridge-recommender/internal/services"
)

type stubRecommendations struct{}

func (stubRecommendations) Generate(context.Context, uuid.UUID, recommendation.Context) (services.GenerateOutput, error) {
	return services.GenerateOutput{Recommendations: []recommendation.Response{}}, nil
}

func (stubRecommendations) ListForContext(context.Context, uuid.UUID, string, uuid.UUID) ([]recommendation.Response, error) {
	return []recommendation.Response{}, nil
}

func (stubRecommendations) MarkViewed(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (stubRecommendations) Dismiss(context.Context, uuid.UUID, uuid.UUID) error    { return nil }
func (stubRecommendations) Rate(context.Context, uuid.UUID, uuid.UUID, int, string) error {
	return nil
}

func TestRouterWiring(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	auth := services.NewAuthService(log, "secret")
	metrics := observability.New()
	r := NewRouter(RouterConfig{
		AuthMiddleware:        httpMW.NewAuthMiddleware(log, auth),
		HealthHandler:         httpH.NewHealthHandler(),
		RecommendationHandler: httpH.NewRecommendationHandler(log, stubRecommendations{}),
		Log:                   log,
		Metrics:               metrics,
		RequestTimeout:        5 * time.Second,
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/healthcheck", nil))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("healthcheck: want=%d got=%d", stdhttp.StatusOK, rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/api/recommendations?contextType=session&contextId="+uuid.NewString(), nil))
	if rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("unauthenticated: want=%d got=%d", stdhttp.StatusUnauthorized, rec.Code)
	}

	token, err := auth.IssueAccessToken(uuid.New(), uuid.Nil, time.Minute)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	req := httptest.NewRequest(stdhttp.MethodPost, "/api/recommendations", strings.NewReader(`{"contextType":"session","contextId":"`+uuid.NewString()+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("generate: want=%d got=%d body=%s", stdhttp.StatusOK, rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/metrics", nil))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("metrics: want=%d got=%d", stdhttp.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Fatalf("metrics body missing http_requests_total")
	}
}
