package recommendation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
	"github.com/yungbote/neurobridge-recommender/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
)

type LearningObjectiveRepo interface {
	Create(dbc dbctx.Context, rows []*domain.LearningObjective) ([]*domain.LearningObjective, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.LearningObjective, error)
}

type learningObjectiveRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningObjectiveRepo(db *gorm.DB, baseLog *logger.Logger) LearningObjectiveRepo {
	return &learningObjectiveRepo{db: db, log: baseLog.With("repo", "LearningObjectiveRepo")}
}

func (r *learningObjectiveRepo) Create(dbc dbctx.Context, rows []*domain.LearningObjective) ([]*domain.LearningObjective, error) {
	if len(rows) == 0 {
		return []*domain.LearningObjective{}, nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	if err := dbc.Conn(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *learningObjectiveRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.LearningObjective, error) {
	var out []*domain.LearningObjective
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Conn(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type ObjectiveRelationshipRepo interface {
	CreateIgnoreDuplicates(dbc dbctx.Context, rows []*domain.ObjectiveRelationship) (int, error)
	// GetIncident returns edges of relType that start or end at objectiveID,
	// strongest first.
	GetIncident(dbc dbctx.Context, objectiveID uuid.UUID, relType string) ([]*domain.ObjectiveRelationship, error)
	ListPage(dbc dbctx.Context, offset, limit int) ([]*domain.ObjectiveRelationship, error)
}

type objectiveRelationshipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewObjectiveRelationshipRepo(db *gorm.DB, baseLog *logger.Logger) ObjectiveRelationshipRepo {
	return &objectiveRelationshipRepo{db: db, log: baseLog.With("repo", "ObjectiveRelationshipRepo")}
}

func (r *objectiveRelationshipRepo) CreateIgnoreDuplicates(dbc dbctx.Context, rows []*domain.ObjectiveRelationship) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.Strength = domain.ClampUnit(row.Strength)
	}
	res := dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "from_objective_id"}, {Name: "to_objective_id"}, {Name: "relationship_type"}},
			DoNothing: true,
		}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r *objectiveRelationshipRepo) GetIncident(dbc dbctx.Context, objectiveID uuid.UUID, relType string) ([]*domain.ObjectiveRelationship, error) {
	var out []*domain.ObjectiveRelationship
	if objectiveID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Where("(from_objective_id = ? OR to_objective_id = ?) AND relationship_type = ?", objectiveID, objectiveID, relType).
		Order("strength DESC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *objectiveRelationshipRepo) ListPage(dbc dbctx.Context, offset, limit int) ([]*domain.ObjectiveRelationship, error) {
	var out []*domain.ObjectiveRelationship
	if limit <= 0 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	if err := dbc.Conn(r.db).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
