package realtime

import (
	"time"

	"github.com/google/uuid"
)

const EventRecommendationsGenerated = "recommendations_generated"

// Message is the envelope carried on the bus. Channel is the recipient's user id.
type Message struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Data    any    `json:"data"`
}

type RecommendationsGenerated struct {
	UserID      uuid.UUID `json:"userId"`
	ContextType string    `json:"contextType"`
	ContextID   uuid.UUID `json:"contextId"`
	Count       int       `json:"count"`
	GeneratedAt time.Time `json:"generatedAt"`
}

func NewRecommendationsGenerated(ev RecommendationsGenerated) Message {
	return Message{
		Channel: ev.UserID.String(),
		Event:   EventRecommendationsGenerated,
		Data:    ev,
	}
}
