package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-recommender/internal/data/repos"
	"github.com/yungbote/neurobridge-recommender/internal/domain"
	"github.com/yungbote/neurobridge-recommender/internal/modules/recommendation"
	"github.com/yungbote/neurobridge-recommender/internal/observability"
	apperrors "github.com/yungbote/neurobridge-recommender/internal/pkg/errors"
	"github.com/yungbote/neurobridge-recommender/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-recommender/internal/platform/apierr"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
	"github.com/yungbote/neurobridge-recommender/internal/realtime"
	"github.com/yungbote/neurobridge-recommender/internal/realtime/bus"
)

const (
	MinRating = 1
	MaxRating = 5

	eventPublishTimeout = 2 * time.Second
)

type GenerateOutput struct {
	Recommendations []recommendation.Response
	// FailedSources names candidate sources that errored; the result is partial.
	FailedSources []string
}

type RecommendationService interface {
	Generate(ctx context.Context, userID uuid.UUID, in recommendation.Context) (GenerateOutput, error)
	ListForContext(ctx context.Context, userID uuid.UUID, contextType string, contextID uuid.UUID) ([]recommendation.Response, error)
	MarkViewed(ctx context.Context, userID, id uuid.UUID) error
	Dismiss(ctx context.Context, userID, id uuid.UUID) error
	Rate(ctx context.Context, userID, id uuid.UUID, rating int, comment string) error
}

type RecommendationGenerator interface {
	GenerateDetailed(ctx context.Context, c recommendation.Context) (recommendation.GenerateResult, error)
}

type RecommendationServiceDeps struct {
	DB              *gorm.DB
	Log             *logger.Logger
	Engine          RecommendationGenerator
	Recommendations repos.RecommendationRepo
	Feedback        repos.FeedbackRepo
	Events          bus.Bus
	Metrics         *observability.Metrics
	Now             func() time.Time
}

type recommendationService struct {
	deps RecommendationServiceDeps
	log  *logger.Logger
}

func NewRecommendationService(deps RecommendationServiceDeps) RecommendationService {
	if deps.Events == nil {
		deps.Events = bus.Nop{}
	}
	return &recommendationService{
		deps: deps,
		log:  deps.Log.With("service", "RecommendationService"),
	}
}

func (s *recommendationService) now() time.Time {
	if s.deps.Now != nil {
		return s.deps.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *recommendationService) Generate(ctx context.Context, userID uuid.UUID, in recommendation.Context) (GenerateOutput, error) {
	out := GenerateOutput{Recommendations: []recommendation.Response{}}
	if userID == uuid.Nil {
		return out, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	if s.deps.Engine == nil {
		return out, apierr.New(http.StatusInternalServerError, "engine_missing", fmt.Errorf("missing deps"))
	}
	in.UserID = userID

	res, err := s.deps.Engine.GenerateDetailed(ctx, in)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidArgument) {
			return out, apierr.New(http.StatusBadRequest, "invalid_request", err)
		}
		var pe *recommendation.PersistError
		if errors.As(err, &pe) {
			return out, apierr.New(http.StatusInternalServerError, "generation_failed", err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, apierr.New(http.StatusGatewayTimeout, "generation_timeout", err)
		}
		return out, apierr.New(http.StatusInternalServerError, "generation_failed", err)
	}

	out.FailedSources = res.FailedSources()
	out.Recommendations = recommendation.FormatResponses(res.Recommendations)
	if len(res.Recommendations) > 0 {
		s.publishGenerated(ctx, userID, in, len(res.Recommendations))
	}
	return out, nil
}

// publishGenerated never fails the request; the event only feeds dashboards.
func (s *recommendationService) publishGenerated(ctx context.Context, userID uuid.UUID, in recommendation.Context, count int) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()

	msg := realtime.NewRecommendationsGenerated(realtime.RecommendationsGenerated{
		UserID:      userID,
		ContextType: in.ContextType,
		ContextID:   in.ContextID,
		Count:       count,
		GeneratedAt: s.now(),
	})
	if err := s.deps.Events.Publish(pubCtx, msg); err != nil {
		s.deps.Metrics.IncEventPublished("error")
		s.log.Warn("publish generation event failed", "user_id", userID, "error", err)
		return
	}
	s.deps.Metrics.IncEventPublished("ok")
}

func validContextType(t string) bool {
	switch t {
	case recommendation.ContextSession, recommendation.ContextObjective, recommendation.ContextMission:
		return true
	}
	return false
}

func (s *recommendationService) ListForContext(ctx context.Context, userID uuid.UUID, contextType string, contextID uuid.UUID) ([]recommendation.Response, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	contextType = strings.TrimSpace(contextType)
	if !validContextType(contextType) {
		return nil, apierr.New(http.StatusBadRequest, "invalid_context_type", fmt.Errorf("contextType must be session, objective or mission"))
	}
	if contextID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "invalid_context_id", fmt.Errorf("missing contextId"))
	}
	rows, err := s.deps.Recommendations.ListByContext(dbctx.From(ctx), userID, contextType, contextID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "list_recommendations_failed", err)
	}
	return recommendation.FormatResponses(rows), nil
}

// load returns the caller's recommendation. Rows owned by someone else are
// reported as missing.
func (s *recommendationService) load(dbc dbctx.Context, userID, id uuid.UUID) (*domain.Recommendation, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	if id == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "invalid_recommendation_id", fmt.Errorf("missing id"))
	}
	row, err := s.deps.Recommendations.GetByID(dbc, userID, id)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "load_recommendation_failed", err)
	}
	if row == nil {
		return nil, apierr.New(http.StatusNotFound, "recommendation_not_found", apperrors.ErrNotFound)
	}
	return row, nil
}

func (s *recommendationService) MarkViewed(ctx context.Context, userID, id uuid.UUID) error {
	dbc := dbctx.From(ctx)
	row, err := s.load(dbc, userID, id)
	if err != nil {
		return err
	}
	if row.Status != domain.RecommendationPending {
		return nil
	}
	_, err = s.deps.Recommendations.UpdateStatus(dbc, userID, id,
		[]domain.RecommendationStatus{domain.RecommendationPending},
		domain.RecommendationViewed, s.now())
	if err != nil {
		return apierr.New(http.StatusInternalServerError, "update_recommendation_failed", err)
	}
	return nil
}

func (s *recommendationService) Dismiss(ctx context.Context, userID, id uuid.UUID) error {
	dbc := dbctx.From(ctx)
	row, err := s.load(dbc, userID, id)
	if err != nil {
		return err
	}
	switch row.Status {
	case domain.RecommendationDismissed:
		return nil
	case domain.RecommendationRated:
		return apierr.New(http.StatusConflict, "recommendation_rated", fmt.Errorf("%w: rated recommendations cannot be dismissed", apperrors.ErrConflict))
	}
	changed, err := s.deps.Recommendations.UpdateStatus(dbc, userID, id,
		[]domain.RecommendationStatus{domain.RecommendationPending, domain.RecommendationViewed},
		domain.RecommendationDismissed, s.now())
	if err != nil {
		return apierr.New(http.StatusInternalServerError, "update_recommendation_failed", err)
	}
	if !changed {
		return apierr.New(http.StatusConflict, "recommendation_changed", apperrors.ErrConflict)
	}
	return nil
}

// Rate appends a feedback row and marks the recommendation RATED atomically.
// Rating again appends another row.
func (s *recommendationService) Rate(ctx context.Context, userID, id uuid.UUID, rating int, comment string) error {
	if rating < MinRating || rating > MaxRating {
		return apierr.New(http.StatusBadRequest, "invalid_rating", fmt.Errorf("%w: rating must be between %d and %d", apperrors.ErrInvalidArgument, MinRating, MaxRating))
	}
	if s.deps.DB == nil || s.deps.Feedback == nil {
		return apierr.New(http.StatusInternalServerError, "feedback_repo_missing", fmt.Errorf("missing deps"))
	}
	if _, err := s.load(dbctx.From(ctx), userID, id); err != nil {
		return err
	}

	now := s.now()
	err := s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		changed, err := s.deps.Recommendations.UpdateStatus(dbc, userID, id, []domain.RecommendationStatus{
			domain.RecommendationPending,
			domain.RecommendationViewed,
			domain.RecommendationDismissed,
			domain.RecommendationRated,
		}, domain.RecommendationRated, now)
		if err != nil {
			return err
		}
		if !changed {
			return apperrors.ErrNotFound
		}
		_, err = s.deps.Feedback.Create(dbc, &domain.RecommendationFeedback{
			UserID:           userID,
			RecommendationID: id,
			Rating:           rating,
			Comment:          strings.TrimSpace(comment),
			CreatedAt:        now,
		})
		return err
	})
	if errors.Is(err, apperrors.ErrNotFound) {
		return apierr.New(http.StatusNotFound, "recommendation_not_found", err)
	}
	if err != nil {
		return apierr.New(http.StatusInternalServerError, "rate_recommendation_failed", err)
	}
	return nil
}
