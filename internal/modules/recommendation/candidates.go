package recommendation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
)

const (
	SourceSemantic = "semantic"
	SourceGraph    = "graph"

	SemanticMinSimilarity = 0.7
	SemanticMaxResults    = 20
	RecentExclusionWindow = 24 * time.Hour
)

// SourceError reports that a candidate source could not be queried.
type SourceError struct {
	Source string
	Cause  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("recommendation: %s source: %v", e.Source, e.Cause)
}

func (e *SourceError) Unwrap() error { return e.Cause }

// SourceResult is one source's contribution. Exactly one of Candidates or Err
// is meaningful; Skipped marks a source whose input was absent.
type SourceResult struct {
	Source     string
	Candidates []Candidate
	Err        error
	Skipped    bool
}

func (r SourceResult) Failed() bool { return r.Err != nil }

// collectCandidates queries both sources concurrently. A failing source never
// cancels the other; results come back in semantic, graph order.
func (e *Engine) collectCandidates(ctx context.Context, s settings) []SourceResult {
	results := make([]SourceResult, 2)
	var g errgroup.Group
	g.Go(func() error {
		results[0] = e.semanticSearch(ctx, s)
		return nil
	})
	g.Go(func() error {
		results[1] = e.graphTraversal(ctx, s)
		return nil
	})
	_ = g.Wait()
	return results
}

func (e *Engine) semanticSearch(ctx context.Context, s settings) SourceResult {
	res := SourceResult{Source: SourceSemantic}
	if len(s.embedding) == 0 || e.deps.Vectors == nil {
		res.Skipped = true
		return res
	}
	if !s.wantsSourceType(domain.SourceTypeLecture) {
		res.Skipped = true
		return res
	}

	ctx, span := e.tracer.Start(ctx, "recommendation.semantic_search")
	defer span.End()

	var exclude []uuid.UUID
	if s.excludeRecent && e.deps.Recent != nil {
		ids, err := e.deps.Recent.RecentContentIDs(ctx, s.userID, e.now().Add(-RecentExclusionWindow))
		if err != nil {
			res.Err = &SourceError{Source: SourceSemantic, Cause: fmt.Errorf("recent recommendations: %w", err)}
			span.RecordError(res.Err)
			return res
		}
		exclude = ids
	}

	matches, err := e.deps.Vectors.SearchSimilar(ctx, domain.SimilarityQuery{
		Embedding:         s.embedding,
		MinSimilarity:     SemanticMinSimilarity,
		Limit:             SemanticMaxResults,
		ExcludeContentIDs: exclude,
	})
	if err != nil {
		res.Err = &SourceError{Source: SourceSemantic, Cause: err}
		span.RecordError(res.Err)
		return res
	}

	res.Candidates = make([]Candidate, 0, len(matches))
	for _, m := range matches {
		if len(res.Candidates) == SemanticMaxResults {
			break
		}
		sim := domain.ClampUnit(m.Similarity)
		res.Candidates = append(res.Candidates, Candidate{
			ContentID:    m.ContentID,
			Content:      m.Content,
			LectureID:    m.LectureID,
			LectureTitle: m.LectureTitle,
			PageNumber:   m.PageNumber,
			Complexity:   m.Complexity,
			SourceType:   domain.SourceTypeLecture,
			Similarity:   &sim,
		})
	}
	return res
}

func (e *Engine) graphTraversal(ctx context.Context, s settings) SourceResult {
	res := SourceResult{Source: SourceGraph}
	if s.objectiveID == nil || e.deps.Graph == nil {
		res.Skipped = true
		return res
	}

	ctx, span := e.tracer.Start(ctx, "recommendation.graph_traversal")
	defer span.End()

	// One hop regardless of s.maxDepth.
	linked, err := e.deps.Graph.LinkedContent(ctx, *s.objectiveID, domain.RelationshipPrerequisite)
	if err != nil {
		res.Err = &SourceError{Source: SourceGraph, Cause: err}
		span.RecordError(res.Err)
		return res
	}

	res.Candidates = make([]Candidate, 0, len(linked))
	for _, l := range linked {
		objectiveID := l.ObjectiveID
		strength := domain.ClampUnit(l.Strength)
		res.Candidates = append(res.Candidates, Candidate{
			ContentID:            l.ContentID,
			Content:              l.Content,
			LectureID:            l.LectureID,
			LectureTitle:         l.LectureTitle,
			PageNumber:           l.PageNumber,
			Complexity:           l.Complexity,
			SourceType:           domain.SourceTypeLecture,
			ObjectiveID:          &objectiveID,
			RelationshipType:     domain.RelationshipPrerequisite,
			RelationshipStrength: &strength,
		})
	}
	return res
}

// dedupe keeps the first occurrence of each content id across lists in order.
func dedupe(lists ...[]Candidate) []Candidate {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	seen := make(map[uuid.UUID]struct{}, total)
	out := make([]Candidate, 0, total)
	for _, l := range lists {
		for _, c := range l {
			if _, ok := seen[c.ContentID]; ok {
				continue
			}
			seen[c.ContentID] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
