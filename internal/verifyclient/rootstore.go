package verifyclient

import (
	"errors"
	"fmt"
	"os"

	"github.com/inda18plusplus/cnol-file-storage/internal/digest"
)

// RootStore persists the client's single expected-root digest as exactly
// 32 raw bytes on disk. A missing file is not an error here — it signals
// first-use bootstrap to the caller (see Verifier.expectedRoot).
type RootStore struct {
	path string
}

// NewRootStore builds a RootStore backed by the file at path.
func NewRootStore(path string) *RootStore {
	return &RootStore{path: path}
}

// Load reads the persisted root. found is false, with a nil error, when
// the file does not exist yet.
func (r *RootStore) Load() (d digest.Digest, found bool, err error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return digest.Zero, false, nil
	}
	if err != nil {
		return digest.Zero, false, fmt.Errorf("%w: %v", ErrClientHashNotFound, err)
	}

	d, err = digest.FromBytes(data)
	if err != nil {
		return digest.Zero, false, fmt.Errorf("%w: %v", ErrClientHashInvalid, err)
	}

	return d, true, nil
}

// Save persists d as the client's new expected root.
func (r *RootStore) Save(d digest.Digest) error {
	if err := os.WriteFile(r.path, d.Bytes(), 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrClientHashNoWrite, err)
	}
	return nil
}
