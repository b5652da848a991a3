package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
	"github.com/yungbote/neurobridge-recommender/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
	"github.com/yungbote/neurobridge-recommender/internal/platform/neo4jdb"
)

type Neo4jObjectiveGraph struct {
	client   *neo4jdb.Client
	contents ContentLookup
	log      *logger.Logger
}

func NewNeo4jObjectiveGraph(client *neo4jdb.Client, contents ContentLookup, log *logger.Logger) *Neo4jObjectiveGraph {
	return &Neo4jObjectiveGraph{
		client:   client,
		contents: contents,
		log:      log.With("graph", "Neo4jObjectiveGraph"),
	}
}

// Relationship types are labels and cannot be parameters; relType is validated first.
func incidentQuery(relType string) string {
	return fmt.Sprintf(`
MATCH (o:LearningObjective {id: $id})-[e:%s]-(r:LearningObjective)
RETURN r.id AS id, r.lecture_id AS lecture_id, e.strength AS strength
ORDER BY e.strength DESC
`, relType)
}

func (g *Neo4jObjectiveGraph) LinkedContent(ctx context.Context, objectiveID uuid.UUID, relType string) ([]domain.LinkedContent, error) {
	if g.client == nil || g.client.Driver == nil {
		return nil, fmt.Errorf("graph: neo4j client not configured")
	}
	if err := validRelationship(relType); err != nil {
		return nil, err
	}

	session := g.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, incidentQuery(relType), map[string]any{"id": objectiveID.String()})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		links := make([]objectiveLink, 0, len(records))
		for _, rec := range records {
			link, ok := linkFromRecord(rec.AsMap(), relType)
			if !ok {
				continue
			}
			links = append(links, link)
		}
		return links, nil
	})
	if err != nil {
		return nil, fmt.Errorf("graph: neo4j incident %s: %w", relType, err)
	}
	links, _ := out.([]objectiveLink)
	if len(links) == 0 {
		return []domain.LinkedContent{}, nil
	}

	contents, err := g.contents.GetByLectureIDs(dbctx.From(ctx), lectureIDs(links))
	if err != nil {
		return nil, fmt.Errorf("graph: load content: %w", err)
	}
	return expandLinks(links, contents), nil
}

func linkFromRecord(m map[string]any, relType string) (objectiveLink, bool) {
	rawID, _ := m["id"].(string)
	rawLecture, _ := m["lecture_id"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return objectiveLink{}, false
	}
	lectureID, err := uuid.Parse(rawLecture)
	if err != nil {
		return objectiveLink{}, false
	}
	var strength float64
	switch v := m["strength"].(type) {
	case float64:
		strength = v
	case int64:
		strength = float64(v)
	}
	return objectiveLink{
		ObjectiveID:      id,
		LectureID:        lectureID,
		RelationshipType: relType,
		Strength:         strength,
	}, true
}

// UpsertObjectiveGraph MERGEs objectives and their typed edges into Neo4j.
func UpsertObjectiveGraph(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, objectives []*domain.LearningObjective, edges []*domain.ObjectiveRelationship) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	nodes := make([]map[string]any, 0, len(objectives))
	for _, o := range objectives {
		if o == nil || o.ID == uuid.Nil {
			continue
		}
		nodes = append(nodes, map[string]any{
			"id":         o.ID.String(),
			"lecture_id": o.LectureID.String(),
			"objective":  o.Objective,
			"synced_at":  now,
		})
	}

	byType := map[string][]map[string]any{}
	for _, e := range edges {
		if e == nil || e.FromObjectiveID == uuid.Nil || e.ToObjectiveID == uuid.Nil {
			continue
		}
		if validRelationship(e.RelationshipType) != nil {
			continue
		}
		byType[e.RelationshipType] = append(byType[e.RelationshipType], map[string]any{
			"id":        e.ID.String(),
			"from_id":   e.FromObjectiveID.String(),
			"to_id":     e.ToObjectiveID.String(),
			"strength":  domain.ClampUnit(e.Strength),
			"synced_at": now,
		})
	}

	session := client.WriteSession(ctx)
	defer session.Close(ctx)

	// Schema helpers are best-effort; restricted users may not create them.
	if res, err := session.Run(ctx, `CREATE CONSTRAINT learning_objective_id_unique IF NOT EXISTS FOR (o:LearningObjective) REQUIRE o.id IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if len(nodes) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $nodes AS n
MERGE (o:LearningObjective {id: n.id})
SET o += n
`, map[string]any{"nodes": nodes})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		for _, relType := range []string{domain.RelationshipPrerequisite, domain.RelationshipRelated, domain.RelationshipIntegrated} {
			rels := byType[relType]
			if len(rels) == 0 {
				continue
			}
			res, err := tx.Run(ctx, fmt.Sprintf(`
UNWIND $rels AS r
MATCH (a:LearningObjective {id: r.from_id})
MATCH (b:LearningObjective {id: r.to_id})
MERGE (a)-[e:%s]->(b)
SET e.id = r.id,
    e.strength = r.strength,
    e.synced_at = r.synced_at
`, relType), map[string]any{"rels": rels})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}
