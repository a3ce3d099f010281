// ABOUTME: Keyed lock that serializes conversational turns of the same session
// ABOUTME: Entries are reference counted and dropped once no turn holds or waits on them

package turn

import (
	"context"
	"sync"
)

// SessionLocker hands out one lock per session id.
type SessionLocker struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sem  chan struct{}
	refs int
}

// NewSessionLocker creates an empty locker.
func NewSessionLocker() *SessionLocker {
	return &SessionLocker{locks: make(map[string]*sessionLock)}
}

// Lock blocks until the session's lock is free or ctx ends. The returned
// function releases the lock and may be called more than once.
func (l *SessionLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	s, ok := l.locks[sessionID]
	if !ok {
		s = &sessionLock{sem: make(chan struct{}, 1)}
		l.locks[sessionID] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(sessionID, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.sem
			l.release(sessionID, s)
		})
	}, nil
}

func (l *SessionLocker) release(sessionID string, s *sessionLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.locks, sessionID)
	}
}

// Len returns the number of sessions with a holder or waiter.
func (l *SessionLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
