// Package store implements the server's authoritative mapping from slot to
// envelope bytes, co-located with the Merkle tree whose leaves mirror it.
package store

import (
	"fmt"
	"sync"

	"github.com/inda18plusplus/cnol-file-storage/internal/digest"
	"github.com/inda18plusplus/cnol-file-storage/internal/merkle"
	"github.com/inda18plusplus/cnol-file-storage/internal/slotid"
)

// Store holds the authoritative slot -> envelope-bytes mapping and the
// authoritative Merkle tree. Get, Root, and Dependencies may proceed
// concurrently; Put requires exclusive access and is atomic with respect
// to both other Puts and any concurrent read: no reader observes a blob
// whose tree leaf has not yet been updated, nor a tree state whose root
// reflects a blob not yet visible to Get.
type Store struct {
	mu    sync.RWMutex
	blobs map[slotid.ID][]byte
	tree  *merkle.Tree

	// onRootChanged, if set, is invoked with the new root after every
	// successful Put, still under the write lock. It exists purely to
	// wire root-change notifications (internal/notify); it is a plain
	// callback, not a queue, and adds no durability guarantee.
	onRootChanged func(digest.Digest)
}

// New constructs a Store whose Merkle tree has the given depth. The
// caller must pass a depth equal to the slot identifier's bit width;
// New asserts this explicitly rather than leaving it as an implicit
// assumption, so a dependency-count mismatch surfaces at construction
// time instead of at the first Dependencies call.
func New(treeDepth int) (*Store, error) {
	if treeDepth != slotid.Bits {
		return nil, fmt.Errorf("store: tree depth %d must equal slot width %d", treeDepth, slotid.Bits)
	}

	tree, err := merkle.New(treeDepth)
	if err != nil {
		return nil, fmt.Errorf("store: failed to build merkle tree: %w", err)
	}

	return &Store{
		blobs: make(map[slotid.ID][]byte),
		tree:  tree,
	}, nil
}

// OnRootChanged registers a callback invoked after every successful Put,
// under the store's write lock, with the new root digest. Passing nil
// disables the hook.
func (s *Store) OnRootChanged(fn func(digest.Digest)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRootChanged = fn
}

// Put stores data at slot, returning true if the slot was previously
// absent (a pure semantic distinction for the HTTP layer's 200-vs-201
// response; the tree update happens identically either way).
func (s *Store) Put(slot slotid.ID, data []byte) (created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.blobs[slot]
	s.blobs[slot] = data

	if _, err := s.tree.Insert(int(slot), digest.Hash(data)); err != nil {
		return false, fmt.Errorf("store: failed to update tree for slot %d: %w", slot, err)
	}

	if s.onRootChanged != nil {
		s.onRootChanged(s.tree.Root())
	}

	return !existed, nil
}

// Get returns the bytes stored at slot, and whether the slot has ever
// been written.
func (s *Store) Get(slot slotid.ID) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[slot]
	return data, ok
}

// Root returns the current root digest of the authoritative tree.
func (s *Store) Root() digest.Digest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tree.Root()
}

// Dependencies returns the bottom-up sibling path for slot.
func (s *Store) Dependencies(slot slotid.ID) ([]digest.Digest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tree.Dependencies(int(slot))
}
