package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-recommender/internal/data/db"
	"github.com/yungbote/neurobridge-recommender/internal/data/graph"
	"github.com/yungbote/neurobridge-recommender/internal/data/repos"
	"github.com/yungbote/neurobridge-recommender/internal/domain"
	"github.com/yungbote/neurobridge-recommender/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-recommender/internal/platform/envutil"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
	"github.com/yungbote/neurobridge-recommender/internal/platform/neo4jdb"
)

const pageSize = 500

func main() {
	var dryRun bool
	var limit int
	flag.BoolVar(&dryRun, "dry-run", false, "print what would be synced without writing to neo4j")
	flag.IntVar(&limit, "limit", 0, "limit number of relationships synced")
	flag.Parse()

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(context.Background(), log, dryRun, limit); err != nil {
		log.Error("objective graph sync failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger, dryRun bool, limit int) error {
	pg, err := db.NewPostgresService(log)
	if err != nil {
		return fmt.Errorf("init postgres: %w", err)
	}
	defer pg.Close()

	var client *neo4jdb.Client
	if !dryRun {
		client, err = neo4jdb.NewFromEnv(log)
		if err != nil {
			return fmt.Errorf("init neo4j: %w", err)
		}
		if client == nil {
			return fmt.Errorf("NEO4J_URI is required unless -dry-run is set")
		}
		defer client.Close(ctx)
	}

	edgesRepo := repos.NewObjectiveRelationshipRepo(pg.DB(), log)
	objectivesRepo := repos.NewLearningObjectiveRepo(pg.DB(), log)
	dbc := dbctx.Context{Ctx: ctx}

	synced := 0
	for offset := 0; ; offset += pageSize {
		n := pageSize
		if limit > 0 && limit-synced < n {
			n = limit - synced
		}
		if n <= 0 {
			break
		}
		edges, err := edgesRepo.ListPage(dbc, offset, n)
		if err != nil {
			return fmt.Errorf("list relationships (offset=%d): %w", offset, err)
		}
		if len(edges) == 0 {
			break
		}

		objectives, err := objectivesRepo.GetByIDs(dbc, endpointIDs(edges))
		if err != nil {
			return fmt.Errorf("load objectives: %w", err)
		}
		if dryRun {
			log.Info("dry run page", "offset", offset, "relationships", len(edges), "objectives", len(objectives))
		} else if err := graph.UpsertObjectiveGraph(ctx, client, log, objectives, edges); err != nil {
			return fmt.Errorf("upsert page (offset=%d): %w", offset, err)
		}
		synced += len(edges)
		if len(edges) < n {
			break
		}
	}

	log.Info("objective graph sync complete", "relationships", synced, "dry_run", dryRun)
	return nil
}

func endpointIDs(edges []*domain.ObjectiveRelationship) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(edges)*2)
	out := make([]uuid.UUID, 0, len(edges)*2)
	for _, e := range edges {
		if e == nil {
			continue
		}
		for _, id := range []uuid.UUID{e.FromObjectiveID, e.ToObjectiveID} {
			if id != uuid.Nil && !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
