package ports

import "go.trai.ch/forge/internal/core/domain"

// EventSink receives the events emitted by the orchestration core.
// Publish must not block on slow consumers.
//
//go:generate go run go.uber.org/mock/mockgen -source=events.go -destination=mocks/mock_events.go -package=mocks
type EventSink interface {
	Publish(ev domain.Event)
}
