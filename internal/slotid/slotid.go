// Package slotid fixes the canonical slot identifier width used throughout
// this module: a 16-bit unsigned integer, matching the co-located Merkle
// tree's depth. It is the single place that pins the choice so slot width,
// tree depth, and associated-data serialization width can never drift
// apart.
package slotid

// ID addresses a single storable slot.
type ID uint16

// Bits is the width of ID in bits. The co-located Merkle tree must be
// constructed with depth == Bits for dependency counts to agree with slot
// addressing.
const Bits = 16

// ByteLen is the length, in bytes, of the big-endian serialization of an ID.
const ByteLen = Bits / 8

// Bytes returns the big-endian serialization of id, reused unmodified as
// the envelope's associated data.
func (id ID) Bytes() []byte {
	return []byte{byte(id >> 8), byte(id)}
}

// Max is the largest valid slot identifier.
const Max = ID(1<<Bits - 1)
