package search

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-recommender/internal/data/repos"
	"github.com/yungbote/neurobridge-recommender/internal/domain"
	"github.com/yungbote/neurobridge-recommender/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
	"github.com/yungbote/neurobridge-recommender/internal/platform/qdrant"
)

// QdrantContentSearch resolves Qdrant hits back to stored content chunks.
type QdrantContentSearch struct {
	index    qdrant.ContentIndex
	contents repos.ContentRepo
	log      *logger.Logger
}

func NewQdrantContentSearch(index qdrant.ContentIndex, contents repos.ContentRepo, log *logger.Logger) *QdrantContentSearch {
	return &QdrantContentSearch{index: index, contents: contents, log: log.With("search", "QdrantContentSearch")}
}

func (s *QdrantContentSearch) SearchSimilar(ctx context.Context, q domain.SimilarityQuery) ([]domain.ContentMatch, error) {
	hits, err := s.index.SearchContent(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return []domain.ContentMatch{}, nil
	}

	ids := make([]uuid.UUID, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ContentID)
	}
	rows, err := s.contents.GetByIDs(dbctx.From(ctx), ids)
	if err != nil {
		return nil, fmt.Errorf("search: hydrate content: %w", err)
	}
	byID := make(map[uuid.UUID]*domain.ContentItem, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	out := make([]domain.ContentMatch, 0, len(hits))
	missing := 0
	for _, h := range hits {
		c, ok := byID[h.ContentID]
		if !ok {
			missing++
			continue
		}
		out = append(out, domain.ContentMatch{
			ContentID:    c.ID,
			Content:      c.Content,
			LectureID:    c.LectureID,
			LectureTitle: c.LectureTitle(),
			PageNumber:   c.PageNumber,
			Complexity:   c.Complexity,
			Similarity:   h.Score,
		})
	}
	if missing > 0 {
		s.log.Debug("qdrant hits without stored content", "missing", missing)
	}
	return out, nil
}
