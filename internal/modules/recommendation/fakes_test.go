package recommendation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
)

type fakeVectors struct {
	matches []domain.ContentMatch
	err     error
	calls   int
	got     domain.SimilarityQuery
}

func (f *fakeVectors) SearchSimilar(ctx context.Context, q domain.SimilarityQuery) ([]domain.ContentMatch, error) {
	f.calls++
	f.got = q
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

type fakeRecent struct {
	ids   []uuid.UUID
	err   error
	calls int
	since time.Time
}

func (f *fakeRecent) RecentContentIDs(ctx context.Context, userID uuid.UUID, since time.Time) ([]uuid.UUID, error) {
	f.calls++
	f.since = since
	return f.ids, f.err
}

type fakeGraph struct {
	linked []domain.LinkedContent
	err    error
	gotRel string
}

func (f *fakeGraph) LinkedContent(ctx context.Context, objectiveID uuid.UUID, relType string) ([]domain.LinkedContent, error) {
	f.gotRel = relType
	if f.err != nil {
		return nil, f.err
	}
	return f.linked, nil
}

// fakeFeedback answers all-history lookups from all and windowed lookups from recent.
type fakeFeedback struct {
	mu     sync.Mutex
	all    map[uuid.UUID]domain.RatingAggregate
	recent map[uuid.UUID]domain.RatingAggregate
	err    error
	calls  int
}

func (f *fakeFeedback) AverageRatings(ctx context.Context, userID uuid.UUID, contentIDs []uuid.UUID, since *time.Time) (map[uuid.UUID]domain.RatingAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if since == nil {
		return f.all, nil
	}
	return f.recent, nil
}

type fakeWriter struct {
	batches [][]*domain.Recommendation
	err     error
}

func (f *fakeWriter) CreateBatch(ctx context.Context, rows []*domain.Recommendation) ([]*domain.Recommendation, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range rows {
		r.ID = uuid.New()
	}
	f.batches = append(f.batches, rows)
	return rows, nil
}

func (f *fakeWriter) rows() int {
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

type countingObserver struct {
	mu         sync.Mutex
	failures   map[string]int
	candidates map[string]int
	persisted  int
	outcomes   []string
}

func newCountingObserver() *countingObserver {
	return &countingObserver{failures: map[string]int{}, candidates: map[string]int{}}
}

func (o *countingObserver) ObserveCandidates(source string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.candidates[source] += n
}

func (o *countingObserver) ObserveSourceFailure(source string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures[source]++
}

func (o *countingObserver) ObserveFiltered(string, int) {}

func (o *countingObserver) ObservePersisted(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.persisted += n
}

func (o *countingObserver) ObserveGenerate(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	vectors  *fakeVectors
	recent   *fakeRecent
	graph    *fakeGraph
	feedback *fakeFeedback
	writer   *fakeWriter
	observer *countingObserver
	engine   *Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	h := &harness{
		vectors:  &fakeVectors{},
		recent:   &fakeRecent{},
		graph:    &fakeGraph{},
		feedback: &fakeFeedback{},
		writer:   &fakeWriter{},
		observer: newCountingObserver(),
	}
	h.engine, err = NewEngine(EngineDeps{
		Vectors:  h.vectors,
		Recent:   h.recent,
		Graph:    h.graph,
		Feedback: h.feedback,
		Writer:   h.writer,
		Observer: h.observer,
		Log:      log,
		Now:      func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return h
}

func baseContext() Context {
	return Context{
		UserID:      uuid.New(),
		ContextType: ContextSession,
		ContextID:   uuid.New(),
	}
}

func match(sim float64) domain.ContentMatch {
	return domain.ContentMatch{
		ContentID:    uuid.New(),
		Content:      "chunk",
		LectureID:    uuid.New(),
		LectureTitle: "Lecture",
		Similarity:   sim,
	}
}

func ptr[T any](v T) *T { return &v }

func approx(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
