package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-recommender/internal/data/repos"
	"github.com/yungbote/neurobridge-recommender/internal/domain"
	"github.com/yungbote/neurobridge-recommender/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
)

type PostgresObjectiveGraph struct {
	edges      repos.ObjectiveRelationshipRepo
	objectives repos.LearningObjectiveRepo
	contents   ContentLookup
	log        *logger.Logger
}

func NewPostgresObjectiveGraph(edges repos.ObjectiveRelationshipRepo, objectives repos.LearningObjectiveRepo, contents ContentLookup, log *logger.Logger) *PostgresObjectiveGraph {
	return &PostgresObjectiveGraph{
		edges:      edges,
		objectives: objectives,
		contents:   contents,
		log:        log.With("graph", "PostgresObjectiveGraph"),
	}
}

func (g *PostgresObjectiveGraph) LinkedContent(ctx context.Context, objectiveID uuid.UUID, relType string) ([]domain.LinkedContent, error) {
	if err := validRelationship(relType); err != nil {
		return nil, err
	}
	dbc := dbctx.From(ctx)

	edges, err := g.edges.GetIncident(dbc, objectiveID, relType)
	if err != nil {
		return nil, fmt.Errorf("graph: load edges: %w", err)
	}
	if len(edges) == 0 {
		return []domain.LinkedContent{}, nil
	}

	otherIDs := make([]uuid.UUID, 0, len(edges))
	for _, e := range edges {
		otherIDs = append(otherIDs, e.Other(objectiveID))
	}
	objs, err := g.objectives.GetByIDs(dbc, otherIDs)
	if err != nil {
		return nil, fmt.Errorf("graph: load objectives: %w", err)
	}
	lectureOf := make(map[uuid.UUID]uuid.UUID, len(objs))
	for _, o := range objs {
		lectureOf[o.ID] = o.LectureID
	}

	links := make([]objectiveLink, 0, len(edges))
	for _, e := range edges {
		other := e.Other(objectiveID)
		lid, ok := lectureOf[other]
		if !ok {
			continue
		}
		links = append(links, objectiveLink{
			ObjectiveID:      other,
			LectureID:        lid,
			RelationshipType: e.RelationshipType,
			Strength:         e.Strength,
		})
	}

	contents, err := g.contents.GetByLectureIDs(dbc, lectureIDs(links))
	if err != nil {
		return nil, fmt.Errorf("graph: load content: %w", err)
	}
	return expandLinks(links, contents), nil
}
