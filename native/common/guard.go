package common

import (
	"errors"
	"sync/atomic"
)

// ErrReentrantCall is returned when a guarded operation is entered while
// another guarded operation is still in progress.
var ErrReentrantCall = errors.New("guarded operation in progress")

// CallGuard provides a non-reentrant section shared between operations that
// perform external calls. Any nested entry while the guard is held fails
// instead of risking double credits or debits through callbacks.
type CallGuard struct {
	busy atomic.Bool
}

// Enter acquires the guard. It never blocks: a held guard yields
// ErrReentrantCall.
func (g *CallGuard) Enter() error {
	if g == nil {
		return nil
	}
	if !g.busy.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

// Exit releases the guard.
func (g *CallGuard) Exit() {
	if g == nil {
		return
	}
	g.busy.Store(false)
}
