package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RelationshipPrerequisite = "PREREQUISITE"
	RelationshipRelated      = "RELATED"
	RelationshipIntegrated   = "INTEGRATED"
)

// LearningObjective belongs to exactly one lecture.
type LearningObjective struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LectureID  uuid.UUID `gorm:"type:uuid;not null;index" json:"lecture_id"`
	Objective  string    `gorm:"column:objective;type:text;not null" json:"objective"`
	Complexity *float64  `gorm:"column:complexity" json:"complexity,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LearningObjective) TableName() string { return "learning_objectives" }

// ObjectiveRelationship is a directed edge written by the knowledge-graph builder.
type ObjectiveRelationship struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FromObjectiveID  uuid.UUID `gorm:"type:uuid;not null;index:idx_objective_rel,unique,priority:1" json:"from_objective_id"`
	ToObjectiveID    uuid.UUID `gorm:"type:uuid;not null;index:idx_objective_rel,unique,priority:2;index" json:"to_objective_id"`
	RelationshipType string    `gorm:"column:relationship_type;not null;index:idx_objective_rel,unique,priority:3" json:"relationship_type"`
	// Strength is 0..1.
	Strength float64 `gorm:"column:strength;not null" json:"strength"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (ObjectiveRelationship) TableName() string { return "objective_relationships" }

// Other returns the endpoint of the edge that is not objectiveID.
func (r *ObjectiveRelationship) Other(objectiveID uuid.UUID) uuid.UUID {
	if r.FromObjectiveID == objectiveID {
		return r.ToObjectiveID
	}
	return r.FromObjectiveID
}

// LinkedContent is a content chunk reached from an objective through one graph edge.
type LinkedContent struct {
	ObjectiveID      uuid.UUID
	RelationshipType string
	Strength         float64

	ContentID    uuid.UUID
	Content      string
	LectureID    uuid.UUID
	LectureTitle string
	PageNumber   *int
	Complexity   *float64
}
