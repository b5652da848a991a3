package recommendation

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
)

const (
	WeightSemanticSimilarity   = 0.4
	WeightPrerequisiteRelation = 0.2
	WeightMasteryAlignment     = 0.2
	WeightRecency              = 0.1
	WeightUserFeedback         = 0.1

	DefaultSimilarity = 0.7
	DefaultComplexity = 0.5
	DefaultFeedback   = 0.5
	// RecencyPlaceholder stands in until view history feeds a recency signal.
	RecencyPlaceholder = 1.0

	RelatedRelationScore    = 0.7
	IntegratedRelationScore = 0.5

	MinScoreThreshold = 0.6
	maxRating         = 5.0

	// Scores are compared at this precision so float noise in the weighted
	// sum does not push an exact 0.6 below the threshold.
	scorePrecision = 1e12
)

func relationFactor(c Candidate) float64 {
	switch c.RelationshipType {
	case domain.RelationshipPrerequisite:
		if c.RelationshipStrength == nil {
			return 0
		}
		return domain.ClampUnit(*c.RelationshipStrength)
	case domain.RelationshipRelated:
		return RelatedRelationScore
	case domain.RelationshipIntegrated:
		return IntegratedRelationScore
	default:
		return 0
	}
}

func computeFactors(c Candidate, mastery float64, ratings map[uuid.UUID]domain.RatingAggregate) Factors {
	f := Factors{
		SemanticSimilarity:   DefaultSimilarity,
		PrerequisiteRelation: relationFactor(c),
		Recency:              RecencyPlaceholder,
		UserFeedback:         DefaultFeedback,
	}
	if c.Similarity != nil {
		f.SemanticSimilarity = domain.ClampUnit(*c.Similarity)
	}
	complexity := DefaultComplexity
	if c.Complexity != nil {
		complexity = domain.ClampUnit(*c.Complexity)
	}
	f.MasteryAlignment = domain.ClampUnit(1 - math.Abs(domain.ClampUnit(mastery)-complexity))
	if agg, ok := ratings[c.ContentID]; ok && agg.Count > 0 {
		f.UserFeedback = domain.ClampUnit(agg.Mean / maxRating)
	}
	return f
}

func (f Factors) Weighted() float64 {
	return domain.ClampUnit(WeightSemanticSimilarity*f.SemanticSimilarity +
		WeightPrerequisiteRelation*f.PrerequisiteRelation +
		WeightMasteryAlignment*f.MasteryAlignment +
		WeightRecency*f.Recency +
		WeightUserFeedback*f.UserFeedback)
}

// ScoreCandidates is pure: identical inputs give identical scores.
func ScoreCandidates(cands []Candidate, mastery float64, ratings map[uuid.UUID]domain.RatingAggregate) []ScoredCandidate {
	out := make([]ScoredCandidate, 0, len(cands))
	for _, c := range cands {
		f := computeFactors(c, mastery, ratings)
		base := f.Weighted()
		out = append(out, ScoredCandidate{
			Candidate:          c,
			Factors:            f,
			BaseScore:          base,
			FeedbackMultiplier: 1,
			Score:              base,
		})
	}
	return out
}

func passesThreshold(score float64) bool {
	return math.Round(score*scorePrecision)/scorePrecision >= MinScoreThreshold
}

// selectTop drops sub-threshold candidates, sorts by score descending (stable
// on input order) and truncates to limit. It returns the number dropped by the
// threshold and by the limit.
func selectTop(scored []ScoredCandidate, limit int) (kept []ScoredCandidate, belowThreshold, overLimit int) {
	kept = make([]ScoredCandidate, 0, len(scored))
	for _, sc := range scored {
		if !passesThreshold(sc.Score) {
			belowThreshold++
			continue
		}
		kept = append(kept, sc)
	}
	sortByScore(kept)
	if limit > 0 && len(kept) > limit {
		overLimit = len(kept) - limit
		kept = kept[:limit]
	}
	return kept, belowThreshold, overLimit
}

func sortByScore(scored []ScoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
}
