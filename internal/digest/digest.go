// Package digest implements the fixed-width content hash used to address
// Merkle tree nodes and bind envelopes to slots.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Size is the width of a Digest in bytes (SHA-256 output width).
const Size = 32

// Digest is a 32-byte content hash. The zero value is the all-zero digest,
// used as the default for uninitialized state.
type Digest [Size]byte

// Zero is the all-zero digest.
var Zero Digest

// Hash returns the SHA-256 digest of data.
func Hash(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// Join returns the digest of the concatenation of a and b, left then right.
// Join is not commutative: Join(a, b) != Join(b, a) in general.
func Join(a, b Digest) Digest {
	buf := make([]byte, 0, 2*Size)
	buf = append(buf, a[:]...)
	buf = append(buf, b[:]...)
	return Hash(buf)
}

// FromBytes builds a Digest from an exact 32-byte slice.
func FromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != Size {
		return d, fmt.Errorf("digest: expected %d bytes, got %d", Size, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// Bytes returns d's 32 bytes as a fresh slice.
func (d Digest) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, d[:])
	return out
}

// String renders the digest as lowercase hex, for logging only.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
