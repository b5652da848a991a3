package recommendation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
	"github.com/yungbote/neurobridge-recommender/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
)

type RecommendationRepo interface {
	// CreateBatch inserts all rows or none. When dbc carries a transaction the
	// rows join it, otherwise a new one is opened.
	CreateBatch(dbc dbctx.Context, rows []*domain.Recommendation) ([]*domain.Recommendation, error)
	GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*domain.Recommendation, error)
	ListByContext(dbc dbctx.Context, userID uuid.UUID, contextType string, contextID uuid.UUID) ([]*domain.Recommendation, error)
	// RecentContentIDs lists content recommended to userID at or after since,
	// ignoring dismissed recommendations.
	RecentContentIDs(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]uuid.UUID, error)
	// UpdateStatus moves a recommendation owned by userID to status `to` when its
	// current status is one of allowedFrom. It reports whether a row changed.
	UpdateStatus(dbc dbctx.Context, userID, id uuid.UUID, allowedFrom []domain.RecommendationStatus, to domain.RecommendationStatus, at time.Time) (bool, error)
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return &recommendationRepo{db: db, log: baseLog.With("repo", "RecommendationRepo")}
}

func (r *recommendationRepo) CreateBatch(dbc dbctx.Context, rows []*domain.Recommendation) ([]*domain.Recommendation, error) {
	if len(rows) == 0 {
		return []*domain.Recommendation{}, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.Status == "" {
			row.Status = domain.RecommendationPending
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		if row.UpdatedAt.IsZero() {
			row.UpdatedAt = row.CreatedAt
		}
	}

	insert := func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).CreateInBatches(rows, 200).Error
	}
	var err error
	if dbc.Tx != nil {
		err = insert(dbc.Conn(r.db))
	} else {
		err = dbc.Conn(r.db).Transaction(insert)
	}
	if err != nil {
		return nil, fmt.Errorf("insert recommendations: %w", err)
	}
	return rows, nil
}

func (r *recommendationRepo) GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*domain.Recommendation, error) {
	var out domain.Recommendation
	err := dbc.Conn(r.db).
		Where("id = ? AND user_id = ?", id, userID).
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *recommendationRepo) ListByContext(dbc dbctx.Context, userID uuid.UUID, contextType string, contextID uuid.UUID) ([]*domain.Recommendation, error) {
	var out []*domain.Recommendation
	if err := dbc.Conn(r.db).
		Preload("RecommendedContent.Lecture").
		Where("user_id = ? AND context_type = ? AND context_id = ? AND status <> ?",
			userID, contextType, contextID, domain.RecommendationDismissed).
		Order("created_at DESC, rank ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recommendationRepo) RecentContentIDs(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := dbc.Conn(r.db).
		Model(&domain.Recommendation{}).
		Where("user_id = ? AND created_at >= ? AND status <> ?", userID, since, domain.RecommendationDismissed).
		Pluck("recommended_content_id", &ids).Error; err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func (r *recommendationRepo) UpdateStatus(dbc dbctx.Context, userID, id uuid.UUID, allowedFrom []domain.RecommendationStatus, to domain.RecommendationStatus, at time.Time) (bool, error) {
	if len(allowedFrom) == 0 {
		return false, nil
	}
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": at,
	}
	switch to {
	case domain.RecommendationViewed:
		updates["viewed_at"] = at
	case domain.RecommendationDismissed:
		updates["dismissed_at"] = at
	case domain.RecommendationRated:
		updates["rated_at"] = at
	}
	res := dbc.Conn(r.db).
		Model(&domain.Recommendation{}).
		Where("id = ? AND user_id = ? AND status IN ?", id, userID, allowedFrom).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
