package recommendation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
	"github.com/yungbote/neurobridge-recommender/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
)

type ContentRepo interface {
	Create(dbc dbctx.Context, rows []*domain.ContentItem) ([]*domain.ContentItem, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.ContentItem, error)
	GetByLectureIDs(dbc dbctx.Context, lectureIDs []uuid.UUID) ([]*domain.ContentItem, error)
}

type contentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentRepo(db *gorm.DB, baseLog *logger.Logger) ContentRepo {
	return &contentRepo{db: db, log: baseLog.With("repo", "ContentRepo")}
}

func (r *contentRepo) Create(dbc dbctx.Context, rows []*domain.ContentItem) ([]*domain.ContentItem, error) {
	if len(rows) == 0 {
		return []*domain.ContentItem{}, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
	}
	// Chunk text is large; keep batches small.
	if err := dbc.Conn(r.db).Omit("Lecture").CreateInBatches(rows, 100).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *contentRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.ContentItem, error) {
	var out []*domain.ContentItem
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Preload("Lecture").
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentRepo) GetByLectureIDs(dbc dbctx.Context, lectureIDs []uuid.UUID) ([]*domain.ContentItem, error) {
	var out []*domain.ContentItem
	if len(lectureIDs) == 0 {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Preload("Lecture").
		Where("lecture_id IN ?", lectureIDs).
		Order("lecture_id ASC, chunk_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type LectureRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Lecture) ([]*domain.Lecture, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Lecture, error)
}

type lectureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLectureRepo(db *gorm.DB, baseLog *logger.Logger) LectureRepo {
	return &lectureRepo{db: db, log: baseLog.With("repo", "LectureRepo")}
}

func (r *lectureRepo) Create(dbc dbctx.Context, rows []*domain.Lecture) ([]*domain.Lecture, error) {
	if len(rows) == 0 {
		return []*domain.Lecture{}, nil
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

func (r *lectureRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Lecture, error) {
	var out []*domain.Lecture
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Conn(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
