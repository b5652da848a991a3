package pgvector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
)

const (
	defaultLimit   = 20
	maxPoolConns   = 10
	connectTimeout = 10 * time.Second
	contentTable   = "content_chunks"
	lectureTable   = "lectures"
)

// Store runs cosine similarity search over content_chunks.embedding.
type Store struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewStore(ctx context.Context, dsn string, log *logger.Logger) (*Store, error) {
	if log == nil {
		return nil, fmt.Errorf("pgvector: logger required")
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("pgvector: dsn required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgvector: parse dsn: %w", err)
	}
	cfg.MaxConns = maxPoolConns

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgvector: connect: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgvector: ping: %w", err)
	}
	return &Store{pool: pool, log: log.With("client", "PgvectorStore")}, nil
}

func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) SearchSimilar(ctx context.Context, q domain.SimilarityQuery) ([]domain.ContentMatch, error) {
	if len(q.Embedding) == 0 {
		return nil, &QueryError{Code: QueryErrorInvalidRequest, Operation: "search", Message: "embedding is required"}
	}
	sql, args := buildSimilarityQuery(q)

	start := time.Now()
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify("search", err)
	}
	matches, err := pgx.CollectRows(rows, scanMatch)
	if err != nil {
		return nil, classify("search", err)
	}
	s.log.Debug("pgvector search complete",
		"matches", len(matches),
		"excluded", len(q.ExcludeContentIDs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return matches, nil
}

// buildSimilarityQuery returns the SQL and positional args for q. Similarity is
// 1 - cosine distance and must be strictly above q.MinSimilarity.
func buildSimilarityQuery(q domain.SimilarityQuery) (string, []any) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	args := []any{domain.FormatVector(q.Embedding), q.MinSimilarity}

	var b strings.Builder
	b.WriteString("SELECT c.id::text, c.content, c.lecture_id::text, COALESCE(l.title, ''), c.page_number, c.complexity, ")
	b.WriteString("1 - (c.embedding <=> $1::vector) AS similarity ")
	fmt.Fprintf(&b, "FROM %s c LEFT JOIN %s l ON l.id = c.lecture_id AND l.deleted_at IS NULL ", contentTable, lectureTable)
	b.WriteString("WHERE c.deleted_at IS NULL AND c.embedding IS NOT NULL ")
	b.WriteString("AND 1 - (c.embedding <=> $1::vector) > $2 ")
	if len(q.ExcludeContentIDs) > 0 {
		ids := make([]string, 0, len(q.ExcludeContentIDs))
		for _, id := range q.ExcludeContentIDs {
			ids = append(ids, id.String())
		}
		args = append(args, ids)
		fmt.Fprintf(&b, "AND NOT (c.id = ANY($%d::uuid[])) ", len(args))
	}
	args = append(args, limit)
	fmt.Fprintf(&b, "ORDER BY c.embedding <=> $1::vector ASC LIMIT $%d", len(args))
	return b.String(), args
}

func scanMatch(row pgx.CollectableRow) (domain.ContentMatch, error) {
	var (
		rawID, rawLecture string
		m                 domain.ContentMatch
		page              *int64
	)
	if err := row.Scan(&rawID, &m.Content, &rawLecture, &m.LectureTitle, &page, &m.Complexity, &m.Similarity); err != nil {
		return m, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return m, fmt.Errorf("content id %q: %w", rawID, err)
	}
	lectureID, err := uuid.Parse(rawLecture)
	if err != nil {
		return m, fmt.Errorf("lecture id %q: %w", rawLecture, err)
	}
	m.ContentID = id
	m.LectureID = lectureID
	if page != nil {
		p := int(*page)
		m.PageNumber = &p
	}
	m.Similarity = domain.ClampUnit(m.Similarity)
	return m, nil
}
