package automator

import (
	"sync"

	"github.com/rustyeddy/treasury/chain"
)

// auth holds the single owner identity and answers authorize-or-fail
// checks. It is a plain field of the automator rather than anything
// inherited, so every privileged operation invokes it explicitly as its
// first statement.
type auth struct {
	mu    sync.RWMutex
	owner chain.Address
}

func (a *auth) authorize(caller chain.Address) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if caller != a.owner {
		return ErrNotAuthorized
	}
	return nil
}

func (a *auth) current() chain.Address {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.owner
}

func (a *auth) transfer(newOwner chain.Address) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.owner = newOwner
}

// latch is the reentrancy guard. Acquisition fails if the latch is
// already held, so any external call that re-enters a mutating
// operation is rejected while the outer call is in flight.
type latch struct {
	mu sync.Mutex
}

func (l *latch) acquire() error {
	if !l.mu.TryLock() {
		return ErrReentrantCall
	}
	return nil
}

func (l *latch) release() { l.mu.Unlock() }
