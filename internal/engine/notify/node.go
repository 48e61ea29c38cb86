package notify

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the event dispatcher Graft node.
const NodeID graft.ID = "engine.notify"

func init() {
	graft.Register(graft.Node[*Dispatcher]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Dispatcher, error) {
			return NewDispatcher(), nil
		},
	})
}
