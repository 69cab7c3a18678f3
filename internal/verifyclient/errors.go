package verifyclient

import (
	"errors"
	"fmt"

	"github.com/inda18plusplus/cnol-file-storage/internal/digest"
)

// ErrNotFound is returned by Download when the server has no blob stored
// at the requested slot.
var ErrNotFound = errors.New("verifyclient: slot not found")

// ErrTamperedFiles is returned when a reconstructed root, computed from a
// downloaded envelope and its sibling path, disagrees with the client's
// trusted root. This is fatal: the core must not retry or downgrade the
// check.
var ErrTamperedFiles = errors.New("verifyclient: reconstructed root does not match trusted root")

// ErrClientHashNotFound means the persisted root-hash file could not be
// opened for a reason other than it being absent (absence triggers
// first-use bootstrap instead).
var ErrClientHashNotFound = errors.New("verifyclient: could not open persisted root hash file")

// ErrClientHashInvalid means the persisted root-hash file was read but
// does not hold exactly 32 bytes.
var ErrClientHashInvalid = errors.New("verifyclient: persisted root hash file is invalid")

// ErrClientHashNoWrite means the client's new expected root could not be
// persisted to disk.
var ErrClientHashNoWrite = errors.New("verifyclient: could not persist root hash file")

// ErrServerHashNotFound means the server's root digest could not be
// fetched over transport.
var ErrServerHashNotFound = errors.New("verifyclient: could not fetch server root hash")

// ErrServerHashDependenciesNotFound means the server's sibling path could
// not be fetched over transport.
var ErrServerHashDependenciesNotFound = errors.New("verifyclient: could not fetch server hash dependencies")

// HashOutOfDateError reports that the client's persisted expected root
// disagrees with the server's current root. Both digests are carried so
// the caller can diagnose which side moved.
type HashOutOfDateError struct {
	Client digest.Digest
	Server digest.Digest
}

func (e *HashOutOfDateError) Error() string {
	return fmt.Sprintf("verifyclient: client root %s does not match server root %s", e.Client, e.Server)
}

// InvalidHashDependencyCountError reports that the server returned a
// sibling path whose length does not equal the slot's bit width.
type InvalidHashDependencyCountError struct {
	Got int
}

func (e *InvalidHashDependencyCountError) Error() string {
	return fmt.Sprintf("verifyclient: got %d hash dependencies, want a count matching the slot width", e.Got)
}
