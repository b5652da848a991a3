package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-recommender/internal/data/repos/recommendation"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
)

type LectureRepo = recommendation.LectureRepo
type ContentRepo = recommendation.ContentRepo

type LearningObjectiveRepo = recommendation.LearningObjectiveRepo
type ObjectiveRelationshipRepo = recommendation.ObjectiveRelationshipRepo

type RecommendationRepo = recommendation.RecommendationRepo
type FeedbackRepo = recommendation.FeedbackRepo

func NewLectureRepo(db *gorm.DB, baseLog *logger.Logger) LectureRepo {
	return recommendation.NewLectureRepo(db, baseLog)
}
func NewContentRepo(db *gorm.DB, baseLog *logger.Logger) ContentRepo {
	return recommendation.NewContentRepo(db, baseLog)
}

func NewLearningObjectiveRepo(db *gorm.DB, baseLog *logger.Logger) LearningObjectiveRepo {
	return recommendation.NewLearningObjectiveRepo(db, baseLog)
}
func NewObjectiveRelationshipRepo(db *gorm.DB, baseLog *logger.Logger) ObjectiveRelationshipRepo {
	return recommendation.NewObjectiveRelationshipRepo(db, baseLog)
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return recommendation.NewRecommendationRepo(db, baseLog)
}
func NewFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) FeedbackRepo {
	return recommendation.NewFeedbackRepo(db, baseLog)
}
