package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
	"github.com/yungbote/neurobridge-recommender/internal/modules/recommendation"
	"github.com/yungbote/neurobridge-recommender/internal/observability"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
)

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 0.5
	default:
		return 0
	}
}

// retryable is implemented by store errors that know whether the store itself
// is at fault (pgvector.QueryError, qdrant.OperationError).
type retryable interface {
	Retryable() bool
}

// countsAgainstSource reports whether err should trip the breaker. Caller
// cancellation and errors a store classifies as request faults do not.
func countsAgainstSource(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// newSourceBreaker opens after cfg.Failures consecutive failures and lets a
// trial call through after cfg.Timeout.
func newSourceBreaker[T any](name string, cfg BreakerConfig, metrics *observability.Metrics, log *logger.Logger) *gobreaker.CircuitBreaker[T] {
	failures := cfg.Failures
	if failures <= 0 {
		failures = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	metrics.SetBreakerState(name, 0)
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		IsSuccessful: func(err error) bool {
			return !countsAgainstSource(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.Warn("source breaker state change", "source", name, "from", from.String(), "to", to.String())
			}
			metrics.SetBreakerState(name, stateToFloat(to))
		},
	})
}

type breakerVectorSearcher struct {
	inner recommendation.VectorSearcher
	cb    *gobreaker.CircuitBreaker[[]domain.ContentMatch]
}

func withVectorBreaker(inner recommendation.VectorSearcher, cfg BreakerConfig, metrics *observability.Metrics, log *logger.Logger) recommendation.VectorSearcher {
	if inner == nil {
		return nil
	}
	return &breakerVectorSearcher{
		inner: inner,
		cb:    newSourceBreaker[[]domain.ContentMatch](recommendation.SourceSemantic, cfg, metrics, log),
	}
}

func (b *breakerVectorSearcher) SearchSimilar(ctx context.Context, q domain.SimilarityQuery) ([]domain.ContentMatch, error) {
	return b.cb.Execute(func() ([]domain.ContentMatch, error) {
		return b.inner.SearchSimilar(ctx, q)
	})
}

type breakerGraphStore struct {
	inner recommendation.GraphStore
	cb    *gobreaker.CircuitBreaker[[]domain.LinkedContent]
}

func withGraphBreaker(inner recommendation.GraphStore, cfg BreakerConfig, metrics *observability.Metrics, log *logger.Logger) recommendation.GraphStore {
	if inner == nil {
		return nil
	}
	return &breakerGraphStore{
		inner: inner,
		cb:    newSourceBreaker[[]domain.LinkedContent](recommendation.SourceGraph, cfg, metrics, log),
	}
}

func (b *breakerGraphStore) LinkedContent(ctx context.Context, objectiveID uuid.UUID, relType string) ([]domain.LinkedContent, error) {
	return b.cb.Execute(func() ([]domain.LinkedContent, error) {
		return b.inner.LinkedContent(ctx, objectiveID, relType)
	})
}
