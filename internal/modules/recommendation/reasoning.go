package recommendation

import (
	"fmt"
	"math"
	"strings"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
)

const (
	ReasonSeparator = " • "
	ReasonFallback  = "Recommended based on learning patterns"
)

func buildReasoning(sc ScoredCandidate) string {
	clauses := make([]string, 0, 3)

	sim := sc.Factors.SemanticSimilarity
	pct := int(math.Round(sim * 100))
	switch {
	case sim > 0.8:
		clauses = append(clauses, fmt.Sprintf("Highly similar content (%d%% match)", pct))
	case sim > 0.7:
		clauses = append(clauses, fmt.Sprintf("Related content (%d%% match)", pct))
	}

	switch sc.RelationshipType {
	case domain.RelationshipPrerequisite:
		clauses = append(clauses, "Prerequisite for understanding this topic")
	case domain.RelationshipRelated:
		clauses = append(clauses, "Related via knowledge graph")
	case domain.RelationshipIntegrated:
		clauses = append(clauses, "Integrated cross-course concept")
	}

	if sc.Factors.MasteryAlignment > 0.8 {
		clauses = append(clauses, "Matches your current mastery level")
	}

	if len(clauses) == 0 {
		return ReasonFallback
	}
	return strings.Join(clauses, ReasonSeparator)
}
