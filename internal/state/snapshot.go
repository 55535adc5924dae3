package state

import (
	"fmt"
	"sync"
)

// Snapshots retains the immutable post state of recent blocks so runtime API
// queries can run against any historical block concurrently with block
// authoring. A snapshot is taken once per sealed block and never mutated.
type Snapshots struct {
	mu        sync.RWMutex
	byNumber  map[uint32]*TrieState
	latest    uint32
	retention uint32 // 0 keeps everything
}

func NewSnapshots(retention uint32) *Snapshots {
	return &Snapshots{
		byNumber:  make(map[uint32]*TrieState),
		retention: retention,
	}
}

// Keep records the post state of a sealed block and prunes snapshots older
// than the retention window.
func (s *Snapshots) Keep(number uint32, post *TrieState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byNumber[number] = post
	if number > s.latest {
		s.latest = number
	}
	if s.retention > 0 && s.latest >= s.retention {
		for n := range s.byNumber {
			if n < s.latest-s.retention {
				delete(s.byNumber, n)
			}
		}
	}
}

// At returns the read only state of the given block.
func (s *Snapshots) At(number uint32) (Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.byNumber[number]
	if !ok {
		return nil, fmt.Errorf("no state snapshot for block %d", number)
	}
	return snap, nil
}

// Latest returns the most recent committed state and its block number.
func (s *Snapshots) Latest() (Reader, uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.byNumber[s.latest]
	if !ok {
		return nil, 0, fmt.Errorf("no state snapshots recorded")
	}
	return snap, s.latest, nil
}
