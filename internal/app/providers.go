package app

import (
	"context"
	"fmt"

	"github.com/yungbote/neurobridge-recommender/internal/data/graph"
		"github.com/yungbote/neurobridge-recommender/internal/data/search"
	"github.com/yungbote/neurobridge-recommender/internal/modules/recommendation"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
	"github.com/yungbote/neurobridge-recommender/internal/platform/neo4jdb"
	"github.com/yungbote/neurobridge-recommender/internal/platform/pgvector"
	"github.com/yungbote/neurobridge-recommender/internal/platform/qdrant"
)

// Clients holds connections opened for the selected providers. Fields are
// nil when the provider is not in use.
type Clients struct {
	Pgvector *pgvector.Store
	Neo4j    *neo4jdb.Client
}

func (c *Clients) Close(ctx context.Context) {
	if c == nil {
		return
	}
	if c.Pgvector != nil {
		c.Pgvector.Close()
	}
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(ctx)
	}
}

func wireVectorSearcher(ctx context.Context, log *logger.Logger, cfg Config, dsn string, r Repos, clients *Clients) (recommendation.VectorSearcher, error) {
	log.Info("Wiring vector search...", "provider", cfg.VectorProvider)
	switch cfg.VectorProvider {
	case VectorProviderQdrant:
		index, err := qdrant.NewContentIndex(ctx, log, cfg.Qdrant)
		if err != nil {
			return nil, fmt.Errorf("init qdrant content index: %w", err)
		}
		return search.NewQdrantContentSearch(index, r.Content, log), nil
	case VectorProviderPgvector:
		store, err := pgvector.NewStore(ctx, dsn, log)
		if err != nil {
			return nil, fmt.Errorf("init pgvector store: %w", err)
		}
		clients.Pgvector = store
		return store, nil
	default:
		return nil, &ConfigError{Code: ConfigErrorInvalidVectorProvider, Value: string(cfg.VectorProvider)}
	}
}

func wireGraphStore(log *logger.Logger, cfg Config, r Repos, clients *Clients) (recommendation.GraphStore, error) {
	log.Info("Wiring objective graph...", "provider", cfg.GraphProvider)
	switch cfg.GraphProvider {
	case GraphProviderNeo4j:
		client, err := neo4jdb.New(cfg.Neo4j, log)
		if err != nil {
			return nil, fmt.Errorf("init neo4j: %w", err)
		}
		if client == nil {
			return nil, &ConfigError{Code: ConfigErrorMissingNeo4jURI, Value: string(cfg.GraphProvider)}
		}
		clients.Neo4j = client
		return graph.NewNeo4jObjectiveGraph(client, r.Content, log), nil
	case GraphProviderPostgres:
		return graph.NewPostgresObjectiveGraph(r.ObjectiveRelationship, r.LearningObjective, r.Content, log), nil
	default:
		return nil, &ConfigError{Code: ConfigErrorInvalidGraphProvider, Value: string(cfg.GraphProvider)}
	}
}
