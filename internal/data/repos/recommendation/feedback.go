package recommendation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
	"github.com/yungbote/neurobridge-recommender/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
)

type FeedbackRepo interface {
	Create(dbc dbctx.Context, row *domain.RecommendationFeedback) (*domain.RecommendationFeedback, error)
	// AverageRatingsByContent averages userID's ratings per recommended content
	// id. A nil since means all history. Content with no ratings is absent.
	AverageRatingsByContent(dbc dbctx.Context, userID uuid.UUID, contentIDs []uuid.UUID, since *time.Time) (map[uuid.UUID]domain.RatingAggregate, error)
}

type feedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) FeedbackRepo {
	return &feedbackRepo{db: db, log: baseLog.With("repo", "FeedbackRepo")}
}

func (r *feedbackRepo) Create(dbc dbctx.Context, row *domain.RecommendationFeedback) (*domain.RecommendationFeedback, error) {
	if row == nil {
		return nil, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := dbc.Conn(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

type ratingRow struct {
	ContentID   uuid.UUID `gorm:"column:content_id"`
	Mean        float64   `gorm:"column:mean"`
	RatingCount int64     `gorm:"column:rating_count"`
}

func (r *feedbackRepo) AverageRatingsByContent(dbc dbctx.Context, userID uuid.UUID, contentIDs []uuid.UUID, since *time.Time) (map[uuid.UUID]domain.RatingAggregate, error) {
	out := make(map[uuid.UUID]domain.RatingAggregate)
	if len(contentIDs) == 0 {
		return out, nil
	}
	q := dbc.Conn(r.db).
		Table("recommendation_feedback AS f").
		Select("r.recommended_content_id AS content_id, AVG(f.rating) AS mean, COUNT(*) AS rating_count").
		Joins("JOIN recommendations AS r ON r.id = f.recommendation_id").
		Where("f.user_id = ? AND r.recommended_content_id IN ?", userID, contentIDs)
	if since != nil {
		q = q.Where("f.created_at >= ?", *since)
	}
	var rows []ratingRow
	if err := q.Group("r.recommended_content_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ContentID] = domain.RatingAggregate{
			ContentID: row.ContentID,
			Mean:      row.Mean,
			Count:     row.RatingCount,
		}
	}
	return out, nil
}
