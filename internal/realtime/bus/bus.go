package bus

import (
	"context"

	"github.com/yungbote/neurobridge-recommender/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error
	Close() error
}

// Nop drops every message. Used when no redis address is configured.
type Nop struct{}

func (Nop) Publish(context.Context, realtime.Message) error                { return nil }
func (Nop) StartForwarder(context.Context, func(m realtime.Message)) error { return nil }
func (Nop) Close() error                                                   { return nil }
