package storage

import (
	"sync"

	"github.com/qepting91/campsite-watcher/internal/domain"
)

// SnapshotStore keeps the most recent poll cycle in memory. A single
// goroutine (Start) writes; readers take copies under the read lock.
type SnapshotStore struct {
	mu     sync.RWMutex
	latest *domain.CycleResult
	cycles int
	failed int
}

// Snapshot is a read-only view of the store.
type Snapshot struct {
	Latest *domain.CycleResult
	Cycles int
	Failed int
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

func (s *SnapshotStore) Start(wg *sync.WaitGroup, input <-chan domain.CycleResult) {
	defer wg.Done()

	for result := range input {
		s.Record(result)
	}
}

// Record replaces the latest cycle.
func (s *SnapshotStore) Record(result domain.CycleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &result
	s.cycles++
	if result.Outcome == domain.OutcomeFailed {
		s.failed++
	}
}

func (s *SnapshotStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{Cycles: s.cycles, Failed: s.failed}
	if s.latest != nil {
		latest := *s.latest
		snap.Latest = &latest
	}
	return snap
}
