package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
	apperrors "github.com/yungbote/neurobridge-recommender/internal/pkg/errors"
)

func TestGenerate_SimilarityOnlyCandidate(t *testing.T) {
	h := newHarness(t)
	m := match(0.9)
	m.Complexity = ptr(0.5)
	h.vectors.matches = []domain.ContentMatch{m}

	c := baseContext()
	c.CurrentEmbedding = []float32{0.1, 0.2, 0.3}
	recs, err := h.engine.Generate(context.Background(), c)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len: want=1 got=%d", len(recs))
	}
	r := recs[0]
	if !approx(r.Score, 0.71) {
		t.Fatalf("score: want=0.71 got=%v", r.Score)
	}
	if !strings.Contains(r.Reasoning, "Highly similar content (90% match)") {
		t.Fatalf("reasoning: got=%q", r.Reasoning)
	}
	if r.Status != domain.RecommendationPending || r.Rank != 1 || r.SourceType != domain.SourceTypeLecture {
		t.Fatalf("row fields: got status=%s rank=%d source=%s", r.Status, r.Rank, r.SourceType)
	}
	if r.UserID != c.UserID || r.ContextID != c.ContextID || r.ContextType != ContextSession {
		t.Fatalf("row context not carried: %+v", r)
	}
	if !r.CreatedAt.Equal(fixedNow) {
		t.Fatalf("createdAt: want=%v got=%v", fixedNow, r.CreatedAt)
	}

	var stored factorsRecord
	if err := json.Unmarshal(r.Factors, &stored); err != nil {
		t.Fatalf("factors json: %v", err)
	}
	if stored.SemanticSimilarity != 0.9 || stored.FeedbackMultiplier != 1 {
		t.Fatalf("factors: got=%+v", stored)
	}

	if h.vectors.got.MinSimilarity != SemanticMinSimilarity || h.vectors.got.Limit != SemanticMaxResults {
		t.Fatalf("vector query: got=%+v", h.vectors.got)
	}
}

func TestGenerate_PrerequisiteCandidate(t *testing.T) {
	h := newHarness(t)
	contentID := uuid.New()
	h.graph.linked = []domain.LinkedContent{{
		ObjectiveID:      uuid.New(),
		RelationshipType: domain.RelationshipPrerequisite,
		Strength:         0.9,
		ContentID:        contentID,
		LectureID:        uuid.New(),
		LectureTitle:     "Foundations",
		PageNumber:       ptr(3),
	}}

	c := baseContext()
	c.ContextType = ContextObjective
	c.CurrentObjectiveID = ptr(uuid.New())
	recs, err := h.engine.Generate(context.Background(), c)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(recs) != 1 || recs[0].RecommendedContentID != contentID {
		t.Fatalf("want the linked content got=%+v", recs)
	}
	if !approx(recs[0].Score, 0.81) {
		t.Fatalf("score: want=0.81 got=%v", recs[0].Score)
	}
	if !strings.Contains(recs[0].Reasoning, "Prerequisite for understanding this topic") {
		t.Fatalf("reasoning: got=%q", recs[0].Reasoning)
	}
	if h.graph.gotRel != domain.RelationshipPrerequisite {
		t.Fatalf("graph rel: want=%s got=%s", domain.RelationshipPrerequisite, h.graph.gotRel)
	}
	if h.vectors.calls != 0 {
		t.Fatalf("semantic search should be skipped without an embedding")
	}
}

func TestGenerate_LowScoreExcluded(t *testing.T) {
	h := newHarness(t)
	m := match(0.5)
	m.Complexity = ptr(0.5)
	h.vectors.matches = []domain.ContentMatch{m}

	c := baseContext()
	c.CurrentEmbedding = []float32{1}
	recs, err := h.engine.Generate(context.Background(), c)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("want none got=%d", len(recs))
	}
	if len(h.writer.batches) != 0 {
		t.Fatalf("writer should not be called for an empty result")
	}
}

func TestGenerate_EmptyInputs(t *testing.T) {
	h := newHarness(t)
	recs, err := h.engine.Generate(context.Background(), baseContext())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Fatalf("want empty non-nil slice got=%v", recs)
	}
	if h.vectors.calls != 0 || h.recent.calls != 0 || h.writer.rows() != 0 {
		t.Fatalf("no store should be touched")
	}
	if got := h.observer.outcomes; len(got) != 1 || got[0] != "empty" {
		t.Fatalf("outcome: want=[empty] got=%v", got)
	}
}

func TestGenerate_DedupePrefersSemantic(t *testing.T) {
	h := newHarness(t)
	m := match(0.9)
	h.vectors.matches = []domain.ContentMatch{m}
	h.graph.linked = []domain.LinkedContent{{
		ObjectiveID:      uuid.New(),
		RelationshipType: domain.RelationshipPrerequisite,
		Strength:         0.9,
		ContentID:        m.ContentID,
		LectureID:        m.LectureID,
	}}

	c := baseContext()
	c.CurrentEmbedding = []float32{1, 0}
	c.CurrentObjectiveID = ptr(uuid.New())
	recs, err := h.engine.Generate(context.Background(), c)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len: want=1 got=%d", len(recs))
	}
	if !approx(recs[0].Score, 0.71) {
		t.Fatalf("semantic copy should win: want=0.71 got=%v", recs[0].Score)
	}
	if strings.Contains(recs[0].Reasoning, "Prerequisite") {
		t.Fatalf("graph metadata leaked into reasoning: %q", recs[0].Reasoning)
	}
}

func TestGenerate_SourceFailureIsolated(t *testing.T) {
	h := newHarness(t)
	h.vectors.err = errors.New("vector store down")
	contentID := uuid.New()
	h.graph.linked = []domain.LinkedContent{{
		ObjectiveID: uuid.New(),
		Strength:    0.9,
		ContentID:   contentID,
		LectureID:   uuid.New(),
	}}

	c := baseContext()
	c.CurrentEmbedding = []float32{1}
	c.CurrentObjectiveID = ptr(uuid.New())
	res, err := h.engine.GenerateDetailed(context.Background(), c)
	if err != nil {
		t.Fatalf("GenerateDetailed: %v", err)
	}
	if len(res.Recommendations) != 1 || res.Recommendations[0].RecommendedContentID != contentID {
		t.Fatalf("graph results should survive: got=%+v", res.Recommendations)
	}
	failed := res.FailedSources()
	if len(failed) != 1 || failed[0] != SourceSemantic {
		t.Fatalf("failed sources: want=[semantic] got=%v", failed)
	}
	var se *SourceError
	if !errors.As(res.Sources[0].Err, &se) || se.Source != SourceSemantic {
		t.Fatalf("want SourceError for semantic got=%v", res.Sources[0].Err)
	}
	if h.observer.failures[SourceSemantic] != 1 {
		t.Fatalf("failure not observed: %v", h.observer.failures)
	}
}

func TestGenerate_BothSourcesFailYieldsEmpty(t *testing.T) {
	h := newHarness(t)
	h.vectors.err = errors.New("down")
	h.graph.err = errors.New("down")

	c := baseContext()
	c.CurrentEmbedding = []float32{1}
	c.CurrentObjectiveID = ptr(uuid.New())
	res, err := h.engine.GenerateDetailed(context.Background(), c)
	if err != nil {
		t.Fatalf("GenerateDetailed: %v", err)
	}
	if len(res.Recommendations) != 0 || len(res.FailedSources()) != 2 {
		t.Fatalf("want empty with two failures got recs=%d failed=%v", len(res.Recommendations), res.FailedSources())
	}
}

func TestGenerate_RecentLookupFailureFailsSemanticOnly(t *testing.T) {
	h := newHarness(t)
	h.recent.err = errors.New("db gone")
	h.vectors.matches = []domain.ContentMatch{match(0.95)}

	c := baseContext()
	c.CurrentEmbedding = []float32{1}
	res, err := h.engine.GenerateDetailed(context.Background(), c)
	if err != nil {
		t.Fatalf("GenerateDetailed: %v", err)
	}
	if h.vectors.calls != 0 {
		t.Fatalf("vector search should not run after recent lookup failed")
	}
	if got := res.FailedSources(); len(got) != 1 || got[0] != SourceSemantic {
		t.Fatalf("failed: want=[semantic] got=%v", got)
	}
}

func TestGenerate_ExcludeRecent(t *testing.T) {
	h := newHarness(t)
	recent := uuid.New()
	h.recent.ids = []uuid.UUID{recent}
	h.vectors.matches = []domain.ContentMatch{match(0.9)}

	c := baseContext()
	c.CurrentEmbedding = []float32{1}
	if _, err := h.engine.Generate(context.Background(), c); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := h.vectors.got.ExcludeContentIDs; len(got) != 1 || got[0] != recent {
		t.Fatalf("exclude ids: want=[%s] got=%v", recent, got)
	}
	if want := fixedNow.Add(-RecentExclusionWindow); !h.recent.since.Equal(want) {
		t.Fatalf("since: want=%v got=%v", want, h.recent.since)
	}

	h2 := newHarness(t)
	h2.vectors.matches = []domain.ContentMatch{match(0.9)}
	c.ExcludeRecent = ptr(false)
	if _, err := h2.engine.Generate(context.Background(), c); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if h2.recent.calls != 0 || len(h2.vectors.got.ExcludeContentIDs) != 0 {
		t.Fatalf("excludeRecent=false should skip the recent lookup")
	}
}

func TestGenerate_SourceTypesFilter(t *testing.T) {
	h := newHarness(t)
	h.vectors.matches = []domain.ContentMatch{match(0.9)}

	c := baseContext()
	c.CurrentEmbedding = []float32{1}
	c.SourceTypes = []string{"VIDEO"}
	res, err := h.engine.GenerateDetailed(context.Background(), c)
	if err != nil {
		t.Fatalf("GenerateDetailed: %v", err)
	}
	if h.vectors.calls != 0 || !res.Sources[0].Skipped {
		t.Fatalf("semantic search should be skipped when LECTURE is filtered out")
	}

	c.SourceTypes = []string{"lecture"}
	if _, err := h.engine.Generate(context.Background(), c); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if h.vectors.calls != 1 {
		t.Fatalf("case-insensitive LECTURE should admit semantic search")
	}
}

func TestGenerate_LimitAndOrdering(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 15; i++ {
		h.vectors.matches = append(h.vectors.matches, match(0.75+0.01*float64(i)))
	}

	c := baseContext()
	c.CurrentEmbedding = []float32{1}
	recs, err := h.engine.Generate(context.Background(), c)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(recs) != DefaultLimit {
		t.Fatalf("len: want=%d got=%d", DefaultLimit, len(recs))
	}
	for i, r := range recs {
		if r.Rank != i+1 {
			t.Fatalf("rank[%d]: want=%d got=%d", i, i+1, r.Rank)
		}
		if i > 0 && recs[i-1].Score < r.Score {
			t.Fatalf("not descending at %d", i)
		}
	}

	c.Limit = ptr(3)
	recs, err = h.engine.Generate(context.Background(), c)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("limit 3: got=%d", len(recs))
	}
}

func TestGenerate_FeedbackRerank(t *testing.T) {
	h := newHarness(t)
	liked, disliked := match(0.8), match(0.9)
	h.vectors.matches = []domain.ContentMatch{disliked, liked}
	h.feedback.recent = map[uuid.UUID]domain.RatingAggregate{
		liked.ContentID:    {ContentID: liked.ContentID, Mean: 5, Count: 1},
		disliked.ContentID: {ContentID: disliked.ContentID, Mean: 1, Count: 1},
	}

	c := baseContext()
	c.CurrentEmbedding = []float32{1}
	recs, err := h.engine.Generate(context.Background(), c)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len: want=2 got=%d", len(recs))
	}
	if recs[0].RecommendedContentID != liked.ContentID {
		t.Fatalf("liked content should rank first")
	}
	// 0.67 * 1.15
	if !approx(recs[0].Score, 0.7705) {
		t.Fatalf("boosted: want=0.7705 got=%v", recs[0].Score)
	}
	// 0.71 * 0.7 falls under the floor; stored score is clamped, rank keeps order.
	if recs[1].Score != MinScoreThreshold || recs[1].Rank != 2 {
		t.Fatalf("penalised: want score=%v rank=2 got score=%v rank=%d", MinScoreThreshold, recs[1].Score, recs[1].Rank)
	}
	var stored factorsRecord
	if err := json.Unmarshal(recs[1].Factors, &stored); err != nil {
		t.Fatalf("factors json: %v", err)
	}
	if !approx(stored.RerankedScore, 0.497) || stored.FeedbackMultiplier != PenaltyMultiplier {
		t.Fatalf("factors: got=%+v", stored)
	}

	out := FormatResponses(recs)
	if out[0].Rank != 1 || out[1].Rank != 2 {
		t.Fatalf("response ranks: want=1,2 got=%d,%d", out[0].Rank, out[1].Rank)
	}
	if out[1].Score != MinScoreThreshold {
		t.Fatalf("response score: want=%v got=%v", MinScoreThreshold, out[1].Score)
	}
}

func TestGenerate_AllTimeFeedbackFeedsScore(t *testing.T) {
	h := newHarness(t)
	m := match(0.9)
	h.vectors.matches = []domain.ContentMatch{m}
	h.feedback.all = map[uuid.UUID]domain.RatingAggregate{m.ContentID: {Mean: 5, Count: 2}}

	c := baseContext()
	c.CurrentEmbedding = []float32{1}
	recs, err := h.engine.Generate(context.Background(), c)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !approx(recs[0].Score, 0.76) {
		t.Fatalf("score: want=0.76 got=%v", recs[0].Score)
	}
	if h.feedback.calls != 2 {
		t.Fatalf("feedback lookups: want=2 got=%d", h.feedback.calls)
	}
}

func TestGenerate_FeedbackFailureUsesDefaults(t *testing.T) {
	h := newHarness(t)
	h.feedback.err = errors.New("timeout")
	h.vectors.matches = []domain.ContentMatch{match(0.9)}

	c := baseContext()
	c.CurrentEmbedding = []float32{1}
	recs, err := h.engine.Generate(context.Background(), c)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(recs) != 1 || !approx(recs[0].Score, 0.71) {
		t.Fatalf("want default feedback score 0.71 got=%+v", recs)
	}
}

func TestGenerate_RepeatCreatesNewRows(t *testing.T) {
	h := newHarness(t)
	h.vectors.matches = []domain.ContentMatch{match(0.9)}

	c := baseContext()
	c.CurrentEmbedding = []float32{1}
	first, err := h.engine.Generate(context.Background(), c)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := h.engine.Generate(context.Background(), c)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(h.writer.batches) != 2 || h.writer.rows() != 2 {
		t.Fatalf("want two separate batches got=%d rows=%d", len(h.writer.batches), h.writer.rows())
	}
	if first[0].ID == second[0].ID {
		t.Fatalf("repeat generation must store new rows")
	}
	if first[0].Score != second[0].Score {
		t.Fatalf("scores differ: %v vs %v", first[0].Score, second[0].Score)
	}
}

func TestGenerate_PersistErrorPropagates(t *testing.T) {
	h := newHarness(t)
	h.writer.err = errors.New("constraint violation")
	h.vectors.matches = []domain.ContentMatch{match(0.9), match(0.85)}

	c := baseContext()
	c.CurrentEmbedding = []float32{1}
	_, err := h.engine.Generate(context.Background(), c)
	var pe *PersistError
	if !errors.As(err, &pe) {
		t.Fatalf("want PersistError got=%v", err)
	}
	if pe.Attempted != 2 {
		t.Fatalf("attempted: want=2 got=%d", pe.Attempted)
	}
	if got := h.observer.outcomes; len(got) != 1 || got[0] != "error" {
		t.Fatalf("outcome: want=[error] got=%v", got)
	}
}

func TestValidate(t *testing.T) {
	h := newHarness(t)
	cases := []struct {
		name   string
		mutate func(c *Context)
		ok     bool
	}{
		{"valid", func(c *Context) {}, true},
		{"mission", func(c *Context) { c.ContextType = ContextMission }, true},
		{"unknown type", func(c *Context) { c.ContextType = "course" }, false},
		{"missing type", func(c *Context) { c.ContextType = "" }, false},
		{"nil context id", func(c *Context) { c.ContextID = uuid.Nil }, false},
		{"nil user", func(c *Context) { c.UserID = uuid.Nil }, false},
		{"mastery above one", func(c *Context) { c.UserMasteryLevel = ptr(1.2) }, false},
		{"limit zero", func(c *Context) { c.Limit = ptr(0) }, false},
		{"limit too large", func(c *Context) { c.Limit = ptr(51) }, false},
	}
	for _, tc := range cases {
		c := baseContext()
		tc.mutate(&c)
		err := h.engine.Validate(c)
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Fatalf("%s: want ErrInvalidArgument got=%v", tc.name, err)
		}
	}
}

func TestNewEngine_RequiresWriterAndLogger(t *testing.T) {
	if _, err := NewEngine(EngineDeps{}); err == nil {
		t.Fatalf("want error without logger")
	}
}
