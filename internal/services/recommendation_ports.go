package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-recommender/internal/data/repos"
	"github.com/yungbote/neurobridge-recommender/internal/domain"
	"github.com/yungbote/neurobridge-recommender/internal/modules/recommendation"
	"github.com/yungbote/neurobridge-recommender/internal/pkg/dbctx"
)

// Adapters from the gorm repos to the engine's context-only ports. A
// transaction carried by the caller is not propagated; the engine opens its own.

type recentRecommendations struct{ repo repos.RecommendationRepo }

func NewRecentRecommendations(repo repos.RecommendationRepo) recommendation.RecentRecommendations {
	return recentRecommendations{repo: repo}
}

func (r recentRecommendations) RecentContentIDs(ctx context.Context, userID uuid.UUID, since time.Time) ([]uuid.UUID, error) {
	return r.repo.RecentContentIDs(dbctx.From(ctx), userID, since)
}

type feedbackStore struct{ repo repos.FeedbackRepo }

func NewFeedbackStore(repo repos.FeedbackRepo) recommendation.FeedbackStore {
	return feedbackStore{repo: repo}
}

func (f feedbackStore) AverageRatings(ctx context.Context, userID uuid.UUID, contentIDs []uuid.UUID, since *time.Time) (map[uuid.UUID]domain.RatingAggregate, error) {
	return f.repo.AverageRatingsByContent(dbctx.From(ctx), userID, contentIDs, since)
}

type recommendationWriter struct{ repo repos.RecommendationRepo }

func NewRecommendationWriter(repo repos.RecommendationRepo) recommendation.RecommendationWriter {
	return recommendationWriter{repo: repo}
}

func (w recommendationWriter) CreateBatch(ctx context.Context, rows []*domain.Recommendation) ([]*domain.Recommendation, error) {
	return w.repo.CreateBatch(dbctx.From(ctx), rows)
}
