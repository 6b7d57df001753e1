package service

import "sync"

// ResetGate is the reset-in-progress flag shared by the components of one
// wizard session. While it is set no draft write reaches the store.
type ResetGate struct {
	mu        sync.Mutex
	resetting bool
}

// NewResetGate returns an idle gate.
func NewResetGate() *ResetGate {
	return &ResetGate{}
}

// Set marks the gate resetting or idle. Setting it waits for any write
// admitted by Do to finish, so no write starts or lands after Set(true)
// returns.
func (g *ResetGate) Set(resetting bool) {
	g.mu.Lock()
	g.resetting = resetting
	g.mu.Unlock()
}

// Resetting reports whether a reset is in progress.
func (g *ResetGate) Resetting() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resetting
}

// Do runs fn only if the gate is idle, holding the gate for the duration
// of fn. It reports whether fn ran.
func (g *ResetGate) Do(fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.resetting {
		return false
	}
	fn()
	return true
}
