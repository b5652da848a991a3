package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
)

// Models lists every table owned or read by the recommender.
func Models() []any {
	return []any{
		// Read-only inputs written by ingestion and the graph builder.
		&domain.Lecture{},
		&domain.ContentItem{},
		&domain.LearningObjective{},
		&domain.ObjectiveRelationship{},

		// Recommender output.
		&domain.Recommendation{},
		&domain.RecommendationFeedback{},
	}
}

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
