package service

import (
	"sync"
	"time"

	"github.com/pindrop/pindrop/common/assets"
	"github.com/pindrop/pindrop/common/logger"
)

// Tracker remembers asset paths whose deletion failed so the sweeper can
// retry them later. Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		pending: make(map[string]struct{}),
	}
}

// Add records a path for later cleanup
func (t *Tracker) Add(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[path] = struct{}{}
}

// Remove drops a path from the pending set
func (t *Tracker) Remove(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, path)
}

// Pending returns a snapshot of paths awaiting cleanup
func (t *Tracker) Pending() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	paths := make([]string, 0, len(t.pending))
	for path := range t.pending {
		paths = append(paths, path)
	}
	return paths
}

// Len reports how many paths are awaiting cleanup
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Sweeper periodically retries deletions the tracker has accumulated.
// Start and Stop bound its goroutine explicitly so tests and shutdown
// control its lifetime.
type Sweeper struct {
	tracker  *Tracker
	store    *assets.Store
	interval time.Duration
	log      *logger.Logger

	stop chan struct{}
	done chan struct{}
}

// NewSweeper creates a sweeper over the given tracker
func NewSweeper(tracker *Tracker, store *assets.Store, interval time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		tracker:  tracker,
		store:    store,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop ends the sweep loop and waits for it to exit
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

// Sweep attempts every pending deletion once. Paths that vanish on their
// own count as cleaned up.
func (s *Sweeper) Sweep() {
	paths := s.tracker.Pending()
	if len(paths) == 0 {
		return
	}

	s.log.Info("sweeping orphaned assets", "count", len(paths))

	for _, path := range paths {
		if err := s.store.Remove(path); err != nil {
			s.log.Warn("sweep failed for asset", "path", path, "error", err)
			continue
		}
		s.tracker.Remove(path)
	}
}
