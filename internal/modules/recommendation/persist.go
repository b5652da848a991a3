package recommendation

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
)

// PersistError means the batch was not stored. Nothing from the batch is visible.
type PersistError struct {
	Attempted int
	Cause     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("recommendation: persist %d rows: %v", e.Attempted, e.Cause)
}

func (e *PersistError) Unwrap() error { return e.Cause }

type factorsRecord struct {
	Factors
	BaseScore          float64 `json:"baseScore"`
	FeedbackMultiplier float64 `json:"feedbackMultiplier"`
	RerankedScore      float64 `json:"rerankedScore"`
}

// persistedScore keeps stored scores inside [MinScoreThreshold, 1]. Order is
// carried by Rank, so a penalised score floored here still sorts correctly.
func persistedScore(score float64) float64 {
	if score < MinScoreThreshold {
		return MinScoreThreshold
	}
	if score > 1 {
		return 1
	}
	return score
}

func buildRecommendations(s settings, kept []ScoredCandidate, now time.Time) ([]*domain.Recommendation, error) {
	rows := make([]*domain.Recommendation, 0, len(kept))
	for i, sc := range kept {
		raw, err := json.Marshal(factorsRecord{
			Factors:            sc.Factors,
			BaseScore:          sc.BaseScore,
			FeedbackMultiplier: sc.FeedbackMultiplier,
			RerankedScore:      sc.Score,
		})
		if err != nil {
			return nil, fmt.Errorf("recommendation: encode factors: %w", err)
		}
		rows = append(rows, &domain.Recommendation{
			UserID:               s.userID,
			RecommendedContentID: sc.ContentID,
			Score:                persistedScore(sc.Score),
			Rank:                 i + 1,
			Reasoning:            sc.Reasoning,
			Status:               domain.RecommendationPending,
			ContextType:          s.contextType,
			ContextID:            s.contextID,
			SourceType:           sc.SourceType,
			Factors:              datatypes.JSON(raw),
			RecommendedContent: &domain.ContentItem{
				ID:         sc.ContentID,
				LectureID:  sc.LectureID,
				Content:    sc.Content,
				PageNumber: sc.PageNumber,
				Complexity: sc.Complexity,
				Lecture:    &domain.Lecture{ID: sc.LectureID, Title: sc.LectureTitle},
			},
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return rows, nil
}
