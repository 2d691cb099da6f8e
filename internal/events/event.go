// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"hemodilab_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// ChangeKind describes what happened to a definition.
type ChangeKind string

const (
	DefinitionCreated ChangeKind = "created"
	DefinitionUpdated ChangeKind = "updated"
	DefinitionDeleted ChangeKind = "deleted"
)

// DefinitionsChangedName is the event name of DefinitionsChanged.
const DefinitionsChangedName = "definitions.changed"

// DefinitionsChanged is published after every successful definition write.
// Route tables built before it are stale.
type DefinitionsChanged struct {
	BaseEvent
	DefinitionID uuid.UUID  `json:"definitionId"`
	Kind         ChangeKind `json:"kind"`
}

func (e DefinitionsChanged) EventName() string { return DefinitionsChangedName }
