package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
)

func TestSearchContentRequestShape(t *testing.T) {
	excluded := uuid.New()
	hitA, hitB := uuid.New(), uuid.New()

	var captured map[string]any
	s := newTestContentIndex(t, func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPost {
			t.Fatalf("method: want=%s got=%s", http.MethodPost, r.Method)
		}
		if r.URL.Path != "/collections/content/points/search" {
			t.Fatalf("path: want=%q got=%q", "/collections/content/points/search", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(t, []map[string]any{
			{"id": "p1", "score": 0.75, "payload": map[string]any{payloadVectorIDKey: hitA.String()}},
			{"id": "p2", "score": 0.93, "payload": map[string]any{payloadVectorIDKey: hitB.String()}},
		}), nil
	})

	hits, err := s.SearchContent(context.Background(), domain.SimilarityQuery{
		Embedding:         []float32{1, 2, 3},
		MinSimilarity:     0.7,
		Limit:             20,
		ExcludeContentIDs: []uuid.UUID{excluded, excluded},
	})
	if err != nil {
		t.Fatalf("SearchContent: %v", err)
	}
	if len(hits) != 2 || hits[0].ContentID != hitB || hits[1].ContentID != hitA {
		t.Fatalf("hits: want [b,a] by score got=%+v", hits)
	}

	if captured["score_threshold"] != 0.7 {
		t.Fatalf("score_threshold: want=0.7 got=%v", captured["score_threshold"])
	}
	if captured["limit"] != float64(20) {
		t.Fatalf("limit: want=20 got=%v", captured["limit"])
	}
	filter, ok := captured["filter"].(map[string]any)
	if !ok {
		t.Fatalf("filter type: got=%T", captured["filter"])
	}
	nsCond := findConditionByKey(asSlice(filter["must"]), payloadNamespaceKey)
	if nsCond == nil {
		t.Fatalf("missing namespace condition")
	}
	if m, _ := nsCond["match"].(map[string]any); m["value"] != "nb:content" {
		t.Fatalf("namespace: want=%q got=%v", "nb:content", nsCond["match"])
	}
	exCond := findConditionByKey(asSlice(filter["must_not"]), payloadVectorIDKey)
	if exCond == nil {
		t.Fatalf("missing exclusion condition")
	}
	m, _ := exCond["match"].(map[string]any)
	anyVals, _ := m["any"].([]any)
	if len(anyVals) != 1 || anyVals[0] != excluded.String() {
		t.Fatalf("excluded ids: want=[%s] got=%v", excluded, anyVals)
	}
}

func TestSearchContentStrictThresholdAndNoExclusions(t *testing.T) {
	keep, edge := uuid.New(), uuid.New()
	var captured map[string]any
	s := newTestContentIndex(t, func(r *http.Request) (*http.Response, error) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		return okResponse(t, []map[string]any{
			{"id": keep.String(), "score": 0.71},
			{"id": edge.String(), "score": 0.70},
		}), nil
	})

	hits, err := s.SearchContent(context.Background(), domain.SimilarityQuery{
		Embedding:     []float32{1, 0, 0},
		MinSimilarity: 0.7,
	})
	if err != nil {
		t.Fatalf("SearchContent: %v", err)
	}
	if len(hits) != 1 || hits[0].ContentID != keep {
		t.Fatalf("hits: want only %s got=%+v", keep, hits)
	}
	filter, _ := captured["filter"].(map[string]any)
	if _, ok := filter["must_not"]; ok {
		t.Fatalf("must_not should be absent without exclusions")
	}
}

func TestSearchContentEuclidNormalizesBeforeThreshold(t *testing.T) {
	near := uuid.New()
	var captured map[string]any
	s := newTestContentIndex(t, func(r *http.Request) (*http.Response, error) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		return okResponse(t, []map[string]any{
			{"id": near.String(), "score": 0.2},
			{"id": uuid.NewString(), "score": 3.0},
		}), nil
	})
	s.distance = "Euclid"

	hits, err := s.SearchContent(context.Background(), domain.SimilarityQuery{Embedding: []float32{1, 2, 3}, MinSimilarity: 0.7})
	if err != nil {
		t.Fatalf("SearchContent: %v", err)
	}
	if _, ok := captured["score_threshold"]; ok {
		t.Fatalf("score_threshold must not be sent for euclid distance")
	}
	if len(hits) != 1 || hits[0].ContentID != near {
		t.Fatalf("hits: want only near point got=%+v", hits)
	}
}

func TestSearchContentValidation(t *testing.T) {
	s := newTestContentIndex(t, func(r *http.Request) (*http.Response, error) {
		t.Fatalf("no request expected")
		return nil, nil
	})
	_, err := s.SearchContent(context.Background(), domain.SimilarityQuery{Embedding: []float32{1, 2}})
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Code != OperationErrorValidation {
		t.Fatalf("want validation error got=%v", err)
	}
}

func TestSearchContentHTTPError(t *testing.T) {
	s := newTestContentIndex(t, func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusServiceUnavailable,
			Header:     make(http.Header),
			Body:       io.NopCloser(bytes.NewReader([]byte(`{"status":{"error":"overloaded"}}`))),
		}, nil
	})
	_, err := s.SearchContent(context.Background(), domain.SimilarityQuery{Embedding: []float32{1, 2, 3}, MinSimilarity: 0.7})
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("want 503 OperationError got=%v", err)
	}
}

func TestClassifyHTTPCallErrorTimeout(t *testing.T) {
	err := classifyHTTPCallError("search_content", "timeout", context.DeadlineExceeded)
	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OperationError, got=%T", err)
	}
	if opErr.Code != OperationErrorTimeout {
		t.Fatalf("error code: want=%q got=%q", OperationErrorTimeout, opErr.Code)
	}
}

func TestClassifyHTTPCallErrorTransport(t *testing.T) {
	err := classifyHTTPCallError("search_content", "transport", fmt.Errorf("boom"))
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Code != OperationErrorTransportFailed {
		t.Fatalf("want transport_failed got=%v", err)
	}
}

func newTestContentIndex(t *testing.T, roundTrip func(*http.Request) (*http.Response, error)) *contentIndex {
	t.Helper()
	return &contentIndex{
		log:      newTestLogger(t),
		cfg:      Config{Collection: "content", VectorDim: 3},
		baseURL:  "http://qdrant.local",
		nsPrefix: "nb",
		http:     &http.Client{Transport: roundTripFunc(roundTrip)},
		distance: "Cosine",
	}
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func okResponse(t *testing.T, result any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"result": result,
		"status": "ok",
		"time":   0.001,
	})
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(raw)),
	}
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func findConditionByKey(conds []any, key string) map[string]any {
	for _, c := range conds {
		m, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if m["key"] == key {
			return m
		}
	}
	return nil
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestOperationErrorRetryable(t *testing.T) {
	cases := []struct {
		err  *OperationError
		want bool
	}{
		{&OperationError{Code: OperationErrorTransportFailed}, true},
		{&OperationError{Code: OperationErrorTimeout}, true},
		{&OperationError{Code: OperationErrorQueryFailed, StatusCode: http.StatusServiceUnavailable}, true},
		{&OperationError{Code: OperationErrorQueryFailed, StatusCode: http.StatusTooManyRequests}, true},
		{&OperationError{Code: OperationErrorQueryFailed, StatusCode: http.StatusBadRequest}, false},
		{&OperationError{Code: OperationErrorValidation}, false},
		{&OperationError{Code: OperationErrorDecodeFailed}, false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := tc.err.Retryable(); got != tc.want {
			t.Fatalf("Retryable(%+v): want=%v got=%v", tc.err, tc.want, got)
		}
	}

	msg := (&OperationError{Code: OperationErrorQueryFailed, Operation: "search", StatusCode: 503, Message: "down"}).Error()
	if msg != "qdrant search failed (query_failed status=503): down" {
		t.Fatalf("Error(): got=%q", msg)
	}
}
