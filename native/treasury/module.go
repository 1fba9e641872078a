package treasury

import (
	"hatsgate/core/events"
	nativecommon "hatsgate/native/common"
	"hatsgate/native/hats"
)

// Module bundles one lifecycle engine and one withdrawal gateway over a
// shared state backend and a shared call guard. The shared guard is what
// rejects a withdrawal re-entered from an execution callback and vice versa.
type Module struct {
	engine  *Engine
	gateway *Gateway
}

// NewModule wires an engine and gateway together.
func NewModule(state State, directory hats.Directory, allowance AllowanceModule, policy Policy) *Module {
	guard := &nativecommon.CallGuard{}

	engine := NewEngine()
	engine.SetState(state)
	engine.SetDirectory(directory)
	engine.SetGuard(guard)
	engine.SetPolicy(policy)

	gateway := NewGateway()
	gateway.SetState(state)
	gateway.SetDirectory(directory)
	gateway.SetAllowanceModule(allowance)
	gateway.SetGuard(guard)

	return &Module{engine: engine, gateway: gateway}
}

// Engine returns the lifecycle engine.
func (m *Module) Engine() *Engine { return m.engine }

// Gateway returns the withdrawal gateway.
func (m *Module) Gateway() *Gateway { return m.gateway }

// SetEmitter configures both components with the same event emitter.
func (m *Module) SetEmitter(emitter events.Emitter) {
	m.engine.SetEmitter(emitter)
	m.gateway.SetEmitter(emitter)
}
