package state

import (
	"sort"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/lib/trie"
)

type (
	// Reader is the read only view of the state store handed to runtime API
	// queries and to module query helpers.
	Reader interface {
		Get(key []byte) []byte
		KeysWithPrefix(prefix []byte) [][]byte
	}

	// Writer is the mutable view of the state store. All mutation goes
	// through the dispatch engine, which hands modules a Writer scoped to
	// the extrinsic being applied.
	Writer interface {
		Reader
		Set(key, value []byte)
		Delete(key []byte)
	}
)

// TrieState is the canonical backing store: a patricia trie versioned by
// block through copy on write snapshots.
type TrieState struct {
	t *trie.Trie
}

func NewTrieState() *TrieState {
	return &TrieState{t: trie.NewEmptyTrie()}
}

// NewTrieStateFromEntries rebuilds a state from a persisted key/value dump.
func NewTrieStateFromEntries(entries map[string][]byte) *TrieState {
	s := NewTrieState()
	for key, value := range entries {
		s.Set([]byte(key), value)
	}
	return s
}

// Get returns the value under key, nil if absent.
func (s *TrieState) Get(key []byte) []byte {
	return s.t.Get(key)
}

func (s *TrieState) Set(key, value []byte) {
	s.t.Put(key, value)
}

func (s *TrieState) Delete(key []byte) {
	s.t.Delete(key)
}

// KeysWithPrefix returns all keys under a storage prefix in ascending byte
// order. Callers iterate state only through this, never through unordered
// maps, so replay stays deterministic.
func (s *TrieState) KeysWithPrefix(prefix []byte) [][]byte {
	keys := s.t.GetKeysWithPrefix(prefix)
	sort.Slice(keys, func(i, j int) bool {
		return string(keys[i]) < string(keys[j])
	})
	return keys
}

// Root returns the trie root committing to the full state.
func (s *TrieState) Root() common.Hash {
	return s.t.MustHash()
}

// Snapshot returns a copy on write child of this state. Writes to the child
// never reach the parent.
func (s *TrieState) Snapshot() *TrieState {
	return &TrieState{t: s.t.Snapshot()}
}

// Entries dumps the full key/value set, used when persisting state to the
// chain database.
func (s *TrieState) Entries() map[string][]byte {
	return s.t.Entries()
}
