package recommendation

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
)

const (
	FeedbackWindow = 30 * 24 * time.Hour

	BoostMinMeanRating   = 4.0
	PenaltyMaxMeanRating = 2.0
	BoostMultiplier      = 1.15
	PenaltyMultiplier    = 0.7
)

func feedbackMultiplier(agg domain.RatingAggregate, ok bool) float64 {
	if !ok || agg.Count == 0 {
		return 1
	}
	switch {
	case agg.Mean >= BoostMinMeanRating:
		return BoostMultiplier
	case agg.Mean <= PenaltyMaxMeanRating:
		return PenaltyMultiplier
	default:
		return 1
	}
}

// rerank applies recent feedback to each score, caps at 1 and re-sorts. A nil
// map leaves scores unchanged.
func rerank(scored []ScoredCandidate, recent map[uuid.UUID]domain.RatingAggregate) []ScoredCandidate {
	out := make([]ScoredCandidate, len(scored))
	copy(out, scored)
	for i := range out {
		agg, ok := recent[out[i].ContentID]
		m := feedbackMultiplier(agg, ok)
		out[i].FeedbackMultiplier = m
		score := out[i].Score * m
		if score > 1 {
			score = 1
		}
		out[i].Score = score
	}
	sortByScore(out)
	return out
}
