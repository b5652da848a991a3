package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const SourceTypeLecture = "LECTURE"

// Lecture owns a sequence of content chunks. Written by ingestion.
type Lecture struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Title    string     `gorm:"column:title;not null" json:"title"`
	CourseID *uuid.UUID `gorm:"type:uuid;index" json:"course_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lecture) TableName() string { return "lectures" }

// ContentItem is one embedded chunk of lecture content. Immutable once ingested.
type ContentItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LectureID  uuid.UUID `gorm:"type:uuid;not null;index:idx_content_chunk_lecture,priority:1" json:"lecture_id"`
	ChunkIndex int       `gorm:"column:chunk_index;not null;index:idx_content_chunk_lecture,priority:2" json:"chunk_index"`
	Content    string    `gorm:"column:content;type:text;not null" json:"content"`
	PageNumber *int      `gorm:"column:page_number" json:"page_number,omitempty"`
	Embedding  Vector    `gorm:"column:embedding;type:vector" json:"-"`
	// Complexity is 0..1; nil means unknown.
	Complexity *float64 `gorm:"column:complexity" json:"complexity,omitempty"`

	Lecture *Lecture `gorm:"foreignKey:LectureID" json:"lecture,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ContentItem) TableName() string { return "content_chunks" }

// LectureTitle returns the owning lecture's title when it has been loaded.
func (c *ContentItem) LectureTitle() string {
	if c == nil || c.Lecture == nil {
		return ""
	}
	return c.Lecture.Title
}

// ContentMatch is a content chunk returned by a similarity search.
type ContentMatch struct {
	ContentID    uuid.UUID
	Content      string
	LectureID    uuid.UUID
	LectureTitle string
	PageNumber   *int
	Complexity   *float64
	// Similarity is cosine similarity clamped to 0..1.
	Similarity float64
}

// SimilarityQuery asks a vector store for up to Limit chunks whose cosine
// similarity to Embedding is strictly above MinSimilarity.
type SimilarityQuery struct {
	Embedding         []float32
	MinSimilarity     float64
	Limit             int
	ExcludeContentIDs []uuid.UUID
}

// ClampUnit limits v to 0..1.
func ClampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
