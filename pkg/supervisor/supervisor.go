// Package supervisor runs background analysis units with at most one unit in
// flight per key. A unit requested while its key is busy is dropped, not
// queued.
package supervisor

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/papercomputeco/huddle/pkg/logger"
)

// Supervisor tracks in-flight units by key.
type Supervisor struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// New creates a Supervisor. A nil logger discards panic reports.
func New(l *slog.Logger) *Supervisor {
	if l == nil {
		l = logger.Nop()
	}
	return &Supervisor{
		running: make(map[string]struct{}),
		logger:  l,
	}
}

// Key builds the slot key for one engine of one meeting.
func Key(meetingID, engine string) string {
	return engine + "/" + meetingID
}

// TrySpawn runs fn in a new goroutine if no unit holds key, and reports
// whether it did. The slot is released when fn returns or panics.
func (s *Supervisor) TrySpawn(key string, fn func()) bool {
	s.mu.Lock()
	if _, busy := s.running[key]; busy {
		s.mu.Unlock()
		return false
	}
	s.running[key] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.release(key)
		defer s.recover(key)
		fn()
	}()
	return true
}

// Go runs fn in a new goroutine without a slot. It is still panic-safe and
// waited on by Wait.
func (s *Supervisor) Go(name string, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.recover(name)
		fn()
	}()
}

// Running reports whether a unit currently holds key.
func (s *Supervisor) Running(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.running[key]
	return busy
}

// Wait blocks until every spawned unit has returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

func (s *Supervisor) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, key)
}

func (s *Supervisor) recover(key string) {
	if r := recover(); r != nil {
		s.logger.Error("background unit panicked",
			"key", key,
			"panic", fmt.Sprint(r),
			"stack", string(debug.Stack()),
		)
	}
}
