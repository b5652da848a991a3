package recommendation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
)

type VectorSearcher interface {
	SearchSimilar(ctx context.Context, q domain.SimilarityQuery) ([]domain.ContentMatch, error)
}

type RecentRecommendations interface {
	RecentContentIDs(ctx context.Context, userID uuid.UUID, since time.Time) ([]uuid.UUID, error)
}

type GraphStore interface {
	LinkedContent(ctx context.Context, objectiveID uuid.UUID, relType string) ([]domain.LinkedContent, error)
}

// FeedbackStore returns per-content rating aggregates in one call. A nil since
// covers all history.
type FeedbackStore interface {
	AverageRatings(ctx context.Context, userID uuid.UUID, contentIDs []uuid.UUID, since *time.Time) (map[uuid.UUID]domain.RatingAggregate, error)
}

// RecommendationWriter stores a generation batch all-or-nothing.
type RecommendationWriter interface {
	CreateBatch(ctx context.Context, rows []*domain.Recommendation) ([]*domain.Recommendation, error)
}

type Observer interface {
	ObserveCandidates(source string, n int)
	ObserveSourceFailure(source string)
	ObserveFiltered(reason string, n int)
	ObservePersisted(n int)
	ObserveGenerate(outcome string, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveCandidates(string, int)         {}
func (nopObserver) ObserveSourceFailure(string)           {}
func (nopObserver) ObserveFiltered(string, int)           {}
func (nopObserver) ObservePersisted(int)                  {}
func (nopObserver) ObserveGenerate(string, time.Duration) {}
