package recommendation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
)

const (
	ContextSession   = "session"
	ContextObjective = "objective"
	ContextMission   = "mission"

	DefaultMasteryLevel = 0.5
	DefaultLimit        = 10
	DefaultMaxDepth     = 2
)

// Context is the caller's learning situation. UserID is set by the caller from
// the authenticated session, never from the request body.
type Context struct {
	UserID             uuid.UUID  `json:"-"`
	ContextType        string     `json:"contextType" validate:"required,oneof=session objective mission"`
	ContextID          uuid.UUID  `json:"contextId"`
	CurrentEmbedding   []float32  `json:"currentEmbedding,omitempty" validate:"omitempty,min=1"`
	CurrentObjectiveID *uuid.UUID `json:"currentObjectiveId,omitempty"`
	UserMasteryLevel   *float64   `json:"userMasteryLevel,omitempty" validate:"omitempty,gte=0,lte=1"`
	Limit              *int       `json:"limit,omitempty" validate:"omitempty,gte=1,lte=50"`
	SourceTypes        []string   `json:"sourceTypes,omitempty" validate:"omitempty,dive,required"`
	ExcludeRecent      *bool      `json:"excludeRecent,omitempty"`
	// MaxDepth is accepted for compatibility; traversal is one hop.
	MaxDepth *int `json:"maxDepth,omitempty" validate:"omitempty,gte=1,lte=5"`
}

// InvalidIDError reports a request id that is not a UUID string.
type InvalidIDError struct {
	Field string
	Value string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("%s must be a UUID string, got %q", e.Field, e.Value)
}

// UnmarshalJSON decodes the id fields as strings so a malformed id surfaces as
// an *InvalidIDError naming the field. Empty ids decode to the zero value.
func (c *Context) UnmarshalJSON(b []byte) error {
	type plain Context
	var wire struct {
		plain
		ContextID          string  `json:"contextId"`
		CurrentObjectiveID *string `json:"currentObjectiveId,omitempty"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	out := Context(wire.plain)
	if wire.ContextID != "" {
		id, err := uuid.Parse(wire.ContextID)
		if err != nil {
			return &InvalidIDError{Field: "contextId", Value: wire.ContextID}
		}
		out.ContextID = id
	}
	if wire.CurrentObjectiveID != nil && *wire.CurrentObjectiveID != "" {
		id, err := uuid.Parse(*wire.CurrentObjectiveID)
		if err != nil {
			return &InvalidIDError{Field: "currentObjectiveId", Value: *wire.CurrentObjectiveID}
		}
		out.CurrentObjectiveID = &id
	}
	*c = out
	return nil
}

type settings struct {
	userID        uuid.UUID
	contextType   string
	contextID     uuid.UUID
	embedding     []float32
	objectiveID   *uuid.UUID
	mastery       float64
	limit         int
	sourceTypes   []string
	excludeRecent bool
	maxDepth      int
}

func (c Context) normalize() settings {
	s := settings{
		userID:        c.UserID,
		contextType:   c.ContextType,
		contextID:     c.ContextID,
		embedding:     c.CurrentEmbedding,
		mastery:       DefaultMasteryLevel,
		limit:         DefaultLimit,
		sourceTypes:   c.SourceTypes,
		excludeRecent: true,
		maxDepth:      DefaultMaxDepth,
	}
	if c.CurrentObjectiveID != nil && *c.CurrentObjectiveID != uuid.Nil {
		id := *c.CurrentObjectiveID
		s.objectiveID = &id
	}
	if c.UserMasteryLevel != nil {
		s.mastery = domain.ClampUnit(*c.UserMasteryLevel)
	}
	if c.Limit != nil && *c.Limit > 0 {
		s.limit = *c.Limit
	}
	if c.ExcludeRecent != nil {
		s.excludeRecent = *c.ExcludeRecent
	}
	if c.MaxDepth != nil && *c.MaxDepth > 0 {
		s.maxDepth = *c.MaxDepth
	}
	return s
}

// wantsSourceType reports whether the optional filter admits sourceType.
func (s settings) wantsSourceType(sourceType string) bool {
	if len(s.sourceTypes) == 0 {
		return true
	}
	for _, t := range s.sourceTypes {
		if strings.EqualFold(strings.TrimSpace(t), sourceType) {
			return true
		}
	}
	return false
}

// Candidate is an unscored content item gathered from one source.
type Candidate struct {
	ContentID    uuid.UUID
	Content      string
	LectureID    uuid.UUID
	LectureTitle string
	PageNumber   *int
	Complexity   *float64
	SourceType   string

	Similarity *float64

	ObjectiveID          *uuid.UUID
	RelationshipType     string
	RelationshipStrength *float64
}

type Factors struct {
	SemanticSimilarity   float64 `json:"semanticSimilarity"`
	PrerequisiteRelation float64 `json:"prerequisiteRelation"`
	MasteryAlignment     float64 `json:"masteryAlignment"`
	Recency              float64 `json:"recency"`
	UserFeedback         float64 `json:"userFeedback"`
}

// ScoredCandidate carries the factor breakdown. Score starts as BaseScore and
// changes only through feedback re-ranking.
type ScoredCandidate struct {
	Candidate
	Factors            Factors
	BaseScore          float64
	FeedbackMultiplier float64
	Score              float64
	Reasoning          string
}
