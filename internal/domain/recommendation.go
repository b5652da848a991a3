package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type RecommendationStatus string

const (
	RecommendationPending   RecommendationStatus = "PENDING"
	RecommendationViewed    RecommendationStatus = "VIEWED"
	RecommendationDismissed RecommendationStatus = "DISMISSED"
	RecommendationRated     RecommendationStatus = "RATED"
)

type Recommendation struct {
	ID                   uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               uuid.UUID            `gorm:"type:uuid;not null;index:idx_recommendation_user_created,priority:1" json:"user_id"`
	RecommendedContentID uuid.UUID            `gorm:"type:uuid;not null;index" json:"recommended_content_id"`
	SourceContentID      *uuid.UUID           `gorm:"type:uuid" json:"source_content_id,omitempty"`
	Score                float64              `gorm:"column:score;not null" json:"score"`
	Rank                 int                  `gorm:"column:rank;not null" json:"rank"`
	Reasoning            string               `gorm:"column:reasoning;type:text;not null" json:"reasoning"`
	Status               RecommendationStatus `gorm:"column:status;not null;index" json:"status"`
	ContextType          string               `gorm:"column:context_type;not null;index:idx_recommendation_context,priority:1" json:"context_type"`
	ContextID            uuid.UUID            `gorm:"type:uuid;not null;index:idx_recommendation_context,priority:2" json:"context_id"`
	SourceType           string               `gorm:"column:source_type;not null" json:"source_type"`
	// Factors holds the per-factor breakdown that produced Score.
	Factors datatypes.JSON `gorm:"column:factors;type:jsonb" json:"factors,omitempty"`

	ViewedAt    *time.Time `gorm:"column:viewed_at" json:"viewed_at,omitempty"`
	DismissedAt *time.Time `gorm:"column:dismissed_at" json:"dismissed_at,omitempty"`
	RatedAt     *time.Time `gorm:"column:rated_at" json:"rated_at,omitempty"`

	RecommendedContent *ContentItem `gorm:"foreignKey:RecommendedContentID" json:"recommended_content,omitempty"`

	CreatedAt time.Time `gorm:"not null;index:idx_recommendation_user_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Recommendation) TableName() string { return "recommendations" }

// RecommendationFeedback is append-only.
type RecommendationFeedback struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index:idx_feedback_user_created,priority:1" json:"user_id"`
	RecommendationID uuid.UUID `gorm:"type:uuid;not null;index" json:"recommendation_id"`
	Rating           int       `gorm:"column:rating;not null" json:"rating"`
	Comment          string    `gorm:"column:comment;type:text" json:"comment,omitempty"`

	CreatedAt time.Time `gorm:"not null;index:idx_feedback_user_created,priority:2" json:"created_at"`
}

func (RecommendationFeedback) TableName() string { return "recommendation_feedback" }

// RatingAggregate is the mean of a user's ratings on one content id.
type RatingAggregate struct {
	ContentID uuid.UUID
	Mean      float64
	Count     int64
}
