// Package lobby hands out the single turn lease for a kiosk process.
//
// Only one session may control a block at a time. The lease lives in memory
// and expires on its own, so an abandoned session frees the board without
// any persisted record ever being locked.
package lobby

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vovakirdan/tui-kiosk/internal/stacker"
)

// ErrBusy is returned by Acquire while another session holds the lease.
var ErrBusy = errors.New("lobby: board is in use")

// Holder describes who holds the lease.
type Holder struct {
	Account stacker.AccountID
	Name    string
	Since   time.Time
}

// BusyError reports the current holder. It matches ErrBusy with errors.Is.
type BusyError struct {
	Holder Holder
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("lobby: board is in use by %s", e.Holder.Name)
}

func (e *BusyError) Unwrap() error {
	return ErrBusy
}

// Option configures a Lobby.
type Option func(*Lobby)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(lb *Lobby) { lb.now = now }
}

// Lobby tracks the lease. Thread-safe for concurrent access.
type Lobby struct {
	mu      sync.Mutex
	timeout time.Duration
	now     func() time.Time
	current *Lease
	freed   chan struct{}
}

// New creates a lobby whose leases expire after timeout without renewal.
func New(timeout time.Duration, opts ...Option) *Lobby {
	lb := &Lobby{
		timeout: timeout,
		now:     time.Now,
		freed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(lb)
	}
	close(lb.freed) // nobody holds the board yet
	return lb
}

// Acquire grants the lease to account, or returns a *BusyError if a live
// lease exists. An expired lease is taken over.
func (lb *Lobby) Acquire(account stacker.AccountID, name string) (*Lease, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	now := lb.now()
	if cur := lb.current; cur != nil {
		if now.Before(cur.expires) {
			return nil, &BusyError{Holder: cur.holder}
		}
		lb.dropLocked()
	}

	lease := &Lease{
		lobby:   lb,
		holder:  Holder{Account: account, Name: name, Since: now},
		expires: now.Add(lb.timeout),
	}
	lb.current = lease
	lb.freed = make(chan struct{})
	return lease, nil
}

// Current returns the live holder, if any.
func (lb *Lobby) Current() (Holder, bool) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if lb.current == nil || !lb.now().Before(lb.current.expires) {
		return Holder{}, false
	}
	return lb.current.holder, true
}

// Freed returns a channel that closes when the current lease is released.
// Expiry does not close it; waiters should also retry on a timer.
func (lb *Lobby) Freed() <-chan struct{} {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.freed
}

// dropLocked clears the current lease. Caller holds mu.
func (lb *Lobby) dropLocked() {
	lb.current = nil
	select {
	case <-lb.freed:
	default:
		close(lb.freed)
	}
}

// Lease is one session's right to play a turn.
type Lease struct {
	lobby   *Lobby
	holder  Holder
	expires time.Time
}

// Holder returns who holds this lease.
func (l *Lease) Holder() Holder {
	return l.holder
}

// Valid reports whether this lease is still the live one.
func (l *Lease) Valid() bool {
	lb := l.lobby
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.current == l && lb.now().Before(l.expires)
}

// Renew pushes the expiry forward. It returns false if the lease was lost.
func (l *Lease) Renew() bool {
	lb := l.lobby
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if lb.current != l || !lb.now().Before(l.expires) {
		return false
	}
	l.expires = lb.now().Add(lb.timeout)
	return true
}

// Release gives the lease back. Safe to call multiple times and after
// the lease was taken over.
func (l *Lease) Release() {
	lb := l.lobby
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if lb.current == l {
		lb.dropLocked()
	}
}
