package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
	"github.com/yungbote/neurobridge-recommender/internal/pkg/dbctx"
)

// ObjectiveGraph resolves content reachable from a learning objective through
// one edge of the given relationship type, in either direction.
type ObjectiveGraph interface {
	LinkedContent(ctx context.Context, objectiveID uuid.UUID, relType string) ([]domain.LinkedContent, error)
}

type ContentLookup interface {
	GetByLectureIDs(dbc dbctx.Context, lectureIDs []uuid.UUID) ([]*domain.ContentItem, error)
}

type objectiveLink struct {
	ObjectiveID      uuid.UUID
	LectureID        uuid.UUID
	RelationshipType string
	Strength         float64
}

func validRelationship(relType string) error {
	switch relType {
	case domain.RelationshipPrerequisite, domain.RelationshipRelated, domain.RelationshipIntegrated:
		return nil
	default:
		return fmt.Errorf("graph: unknown relationship type %q", relType)
	}
}

func lectureIDs(links []objectiveLink) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(links))
	out := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		if l.LectureID == uuid.Nil {
			continue
		}
		if _, ok := seen[l.LectureID]; ok {
			continue
		}
		seen[l.LectureID] = struct{}{}
		out = append(out, l.LectureID)
	}
	return out
}

// expandLinks emits one LinkedContent per content chunk of each link's lecture,
// keeping link order and then chunk order.
func expandLinks(links []objectiveLink, contents []*domain.ContentItem) []domain.LinkedContent {
	byLecture := make(map[uuid.UUID][]*domain.ContentItem)
	for _, c := range contents {
		if c == nil {
			continue
		}
		byLecture[c.LectureID] = append(byLecture[c.LectureID], c)
	}
	out := make([]domain.LinkedContent, 0, len(contents))
	for _, l := range links {
		for _, c := range byLecture[l.LectureID] {
			out = append(out, domain.LinkedContent{
				ObjectiveID:      l.ObjectiveID,
				RelationshipType: l.RelationshipType,
				Strength:         domain.ClampUnit(l.Strength),
				ContentID:        c.ID,
				Content:          c.Content,
				LectureID:        c.LectureID,
				LectureTitle:     c.LectureTitle(),
				PageNumber:       c.PageNumber,
				Complexity:       c.Complexity,
			})
		}
	}
	return out
}
