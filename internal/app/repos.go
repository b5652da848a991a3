package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-recommender/internal/data/repos"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
)

type Repos struct {
	Lecture               repos.LectureRepo
	Content               repos.ContentRepo
	LearningObjective     repos.LearningObjectiveRepo
	ObjectiveRelationship repos.ObjectiveRelationshipRepo
	Recommendation        repos.RecommendationRepo
	Feedback              repos.FeedbackRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Lecture:               repos.NewLectureRepo(db, log),
		Content:               repos.NewContentRepo(db, log),
		LearningObjective:     repos.NewLearningObjectiveRepo(db, log),
		ObjectiveRelationship: repos.NewObjectiveRelationshipRepo(db, log),
		Recommendation:        repos.NewRecommendationRepo(db, log),
		Feedback:              repos.NewFeedbackRepo(db, log),
	}
}
