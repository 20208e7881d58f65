// Package lock provides per-user locking for balance operations.
package lock

import (
	"context"
	"sync"
)

type entry struct {
	ch   chan struct{} // holds one token while locked
	refs int
}

// UserLock serializes work per user ID. Entries are dropped once no
// goroutine holds or waits on them, so idle users cost nothing.
type UserLock struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{entries: make(map[int64]*entry)}
}

func (ul *UserLock) acquire(userID int64) *entry {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	e, ok := ul.entries[userID]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		ul.entries[userID] = e
	}
	e.refs++
	return e
}

func (ul *UserLock) release(userID int64, e *entry) {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(ul.entries, userID)
	}
}

// Lock acquires the lock for a user.
func (ul *UserLock) Lock(userID int64) {
	e := ul.acquire(userID)
	e.ch <- struct{}{}
}

// LockContext acquires the lock for a user or gives up when ctx is done.
func (ul *UserLock) LockContext(ctx context.Context, userID int64) error {
	e := ul.acquire(userID)
	select {
	case e.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		ul.release(userID, e)
		return ctx.Err()
	}
}

// TryLock acquires the lock without blocking and reports whether it did.
func (ul *UserLock) TryLock(userID int64) bool {
	e := ul.acquire(userID)
	select {
	case e.ch <- struct{}{}:
		return true
	default:
		ul.release(userID, e)
		return false
	}
}

// Unlock releases the lock for a user. Unlocking a user that is not locked
// is a no-op.
func (ul *UserLock) Unlock(userID int64) {
	ul.mu.Lock()
	e, ok := ul.entries[userID]
	ul.mu.Unlock()
	if !ok {
		return
	}
	select {
	case <-e.ch:
		ul.release(userID, e)
	default:
	}
}

// WithLock executes fn while holding the user's lock.
func (ul *UserLock) WithLock(ctx context.Context, userID int64, fn func() error) error {
	if err := ul.LockContext(ctx, userID); err != nil {
		return err
	}
	defer ul.Unlock(userID)
	return fn()
}

// Held reports how many users currently hold or wait on a lock.
func (ul *UserLock) Held() int {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	return len(ul.entries)
}
