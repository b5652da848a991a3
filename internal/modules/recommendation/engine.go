package recommendation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
	apperrors "github.com/yungbote/neurobridge-recommender/internal/pkg/errors"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
)

const tracerName = "github.com/yungbote/neurobridge-recommender/internal/modules/recommendation"

type EngineDeps struct {
	Vectors  VectorSearcher
	Recent   RecentRecommendations
	Graph    GraphStore
	Feedback FeedbackStore
	Writer   RecommendationWriter

	Observer Observer
	Log      *logger.Logger
	Now      func() time.Time
}

// Engine turns a learning context into a ranked, persisted recommendation set.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	deps     EngineDeps
	log      *logger.Logger
	validate *validator.Validate
	tracer   trace.Tracer
	observer Observer
}

func NewEngine(deps EngineDeps) (*Engine, error) {
	if deps.Log == nil {
		return nil, fmt.Errorf("recommendation: logger required")
	}
	if deps.Writer == nil {
		return nil, fmt.Errorf("recommendation: writer required")
	}
	obs := deps.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	return &Engine{
		deps:     deps,
		log:      deps.Log.With("service", "RecommendationEngine"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tracer:   otel.Tracer(tracerName),
		observer: obs,
	}, nil
}

func (e *Engine) now() time.Time {
	if e.deps.Now != nil {
		return e.deps.Now().UTC()
	}
	return time.Now().UTC()
}

// GenerateResult exposes per-source outcomes next to the stored rows so callers
// can tell "nothing matched" from "a store was down".
type GenerateResult struct {
	Recommendations []*domain.Recommendation
	Sources         []SourceResult
}

func (r GenerateResult) FailedSources() []string {
	var out []string
	for _, s := range r.Sources {
		if s.Failed() {
			out = append(out, s.Source)
		}
	}
	return out
}

func (e *Engine) Validate(c Context) error {
	if c.UserID == uuid.Nil {
		return fmt.Errorf("%w: user id required", apperrors.ErrInvalidArgument)
	}
	if c.ContextID == uuid.Nil {
		return fmt.Errorf("%w: contextId required", apperrors.ErrInvalidArgument)
	}
	if err := e.validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", apperrors.ErrInvalidArgument, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
	}
	return nil
}

func (e *Engine) Generate(ctx context.Context, c Context) ([]*domain.Recommendation, error) {
	res, err := e.GenerateDetailed(ctx, c)
	return res.Recommendations, err
}

func (e *Engine) GenerateDetailed(ctx context.Context, c Context) (res GenerateResult, err error) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		if err != nil {
			outcome = "error"
		}
		e.observer.ObserveGenerate(outcome, time.Since(start))
	}()

	if err := e.Validate(c); err != nil {
		return GenerateResult{Recommendations: []*domain.Recommendation{}}, err
	}
	s := c.normalize()

	ctx, span := e.tracer.Start(ctx, "recommendation.generate", trace.WithAttributes(
		attribute.String("context.type", s.contextType),
		attribute.Int("limit", s.limit),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	res.Recommendations = []*domain.Recommendation{}
	if len(s.embedding) == 0 && s.objectiveID == nil {
		outcome = "empty"
		return res, nil
	}

	res.Sources = e.collectCandidates(ctx, s)
	lists := make([][]Candidate, 0, len(res.Sources))
	for _, sr := range res.Sources {
		switch {
		case sr.Failed():
			e.observer.ObserveSourceFailure(sr.Source)
			e.log.Warn("candidate source failed", "source", sr.Source, "error", sr.Err)
		case !sr.Skipped:
			e.observer.ObserveCandidates(sr.Source, len(sr.Candidates))
		}
		lists = append(lists, sr.Candidates)
	}

	candidates := dedupe(lists...)
	if len(candidates) == 0 {
		outcome = "empty"
		return res, nil
	}

	ids := make([]uuid.UUID, 0, len(candidates))
	for _, cand := range candidates {
		ids = append(ids, cand.ContentID)
	}

	scored := ScoreCandidates(candidates, s.mastery, e.ratings(ctx, s.userID, ids, nil))
	kept, below, over := selectTop(scored, s.limit)
	e.observer.ObserveFiltered("below_threshold", below)
	e.observer.ObserveFiltered("over_limit", over)
	if len(kept) == 0 {
		outcome = "empty"
		return res, nil
	}

	keptIDs := make([]uuid.UUID, 0, len(kept))
	for _, sc := range kept {
		keptIDs = append(keptIDs, sc.ContentID)
	}
	since := e.now().Add(-FeedbackWindow)
	kept = rerank(kept, e.ratings(ctx, s.userID, keptIDs, &since))

	for i := range kept {
		kept[i].Reasoning = buildReasoning(kept[i])
	}

	rows, err := buildRecommendations(s, kept, e.now())
	if err != nil {
		return res, err
	}
	stored, err := e.persist(ctx, rows)
	if err != nil {
		return res, err
	}
	res.Recommendations = stored
	return res, nil
}

// ratings degrades to nil (defaults everywhere) when the feedback store fails.
func (e *Engine) ratings(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, since *time.Time) map[uuid.UUID]domain.RatingAggregate {
	if e.deps.Feedback == nil || len(ids) == 0 {
		return nil
	}
	out, err := e.deps.Feedback.AverageRatings(ctx, userID, ids, since)
	if err != nil {
		e.log.Warn("feedback lookup failed; using defaults", "user_id", userID, "windowed", since != nil, "error", err)
		return nil
	}
	return out
}

func (e *Engine) persist(ctx context.Context, rows []*domain.Recommendation) ([]*domain.Recommendation, error) {
	ctx, span := e.tracer.Start(ctx, "recommendation.persist", trace.WithAttributes(attribute.Int("rows", len(rows))))
	defer span.End()

	stored, err := e.deps.Writer.CreateBatch(ctx, rows)
	if err != nil {
		e.log.Error("persist recommendations failed", "rows", len(rows), "error", err)
		span.RecordError(err)
		return nil, &PersistError{Attempted: len(rows), Cause: err}
	}
	e.observer.ObservePersisted(len(stored))
	return stored, nil
}
