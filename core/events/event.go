package events

// Event represents a structured state change emitted by the treasury gate.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (indexers, metrics,
// operator tooling).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is the default for components that expose events optionally.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
