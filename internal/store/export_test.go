package store

import "github.com/inda18plusplus/cnol-file-storage/internal/slotid"

// TamperForTest mutates the blob stored at slot in place, without
// touching the Merkle tree, so that the store's leaf digest goes stale.
// Because it is declared in a _test.go file, it is compiled only into this
// package's own tests; tests in other packages cannot call it.
func TamperForTest(s *Store, slot slotid.ID, mutate func([]byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(s.blobs[slot])
}
