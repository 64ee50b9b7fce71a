// Package metrics tracks counters describing engine and storage activity:
// commits, snapshots, replayed records, and torn-tail recoveries. Shaped
// after the host application's SnapshotMetrics (an RWMutex-guarded counter
// map copied out on read so exporters never race with writers).
package metrics

import "sync"

// Storage accumulates counters for a single storage.Storage instance.
type Storage struct {
	mu sync.RWMutex

	commits       int64
	commitBytes   int64
	snapshots     int64
	replayed      int64
	tornTails     int64
	lastCommitErr string
}

// NewStorage constructs an empty counter set.
func NewStorage() *Storage {
	return &Storage{}
}

// ObserveCommit records a successful journal append of payloadBytes.
func (s *Storage) ObserveCommit(payloadBytes int) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.commits++
	s.commitBytes += int64(payloadBytes)
	s.mu.Unlock()
}

// ObserveSnapshot records a completed snapshot + truncation cycle.
func (s *Storage) ObserveSnapshot() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.snapshots++
	s.mu.Unlock()
}

// ObserveReplayed records how many journal records a restore() replayed.
func (s *Storage) ObserveReplayed(count int64) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.replayed += count
	s.mu.Unlock()
}

// ObserveTornTail records a recovered partial trailing record.
func (s *Storage) ObserveTornTail() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.tornTails++
	s.mu.Unlock()
}

// Snapshot is a point-in-time, race-free copy of the counters.
type Snapshot struct {
	Commits     int64
	CommitBytes int64
	Snapshots   int64
	Replayed    int64
	TornTails   int64
}

// Snapshot copies out the current counter values.
func (s *Storage) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Commits:     s.commits,
		CommitBytes: s.commitBytes,
		Snapshots:   s.snapshots,
		Replayed:    s.replayed,
		TornTails:   s.tornTails,
	}
}
