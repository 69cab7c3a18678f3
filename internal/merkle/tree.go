// Package merkle implements a fixed-shape perfect binary Merkle tree whose
// leaves address a contiguous range of slot positions.
//
// The tree is stored as a single contiguous array of digests in heap order
// (root at index 0, children of i at 2i+1 and 2i+2) rather than a
// heap-allocated node graph: the tree's shape never changes after
// construction, so an array gives constant-time navigation with no
// per-node allocation. This mirrors the precomputed-levels trick the
// transparency package of the wider corpus uses for its sparse tree, scaled
// down to a dense tree of depth 0..32.
package merkle

import (
	"fmt"
	"math/bits"

	"github.com/inda18plusplus/cnol-file-storage/internal/digest"
)

// MaxDepth is the largest depth a Tree may be constructed with.
const MaxDepth = 32

// emptySentinelSeed is the exact byte sequence hashed to produce the
// digest of a never-written leaf. This is a fixed historical constant,
// not a security property: it exists only so that roots computed by this
// implementation agree with roots computed by any other compliant
// implementation. See package doc of internal/envelope for the analogous
// "must preserve exactly" note about the PBKDF2 salt.
const emptySentinelSeed = "Hello, world!"

// emptyAtLevel[0] is the sentinel digest placed at every unwritten leaf.
// emptyAtLevel[k] is the root of an empty subtree of depth k (the k-fold
// self-join of the sentinel). Precomputed once so New never has to hash
// more than necessary for a fresh tree.
var emptyAtLevel [MaxDepth + 1]digest.Digest

func init() {
	emptyAtLevel[0] = digest.Hash([]byte(emptySentinelSeed))
	for level := 1; level <= MaxDepth; level++ {
		emptyAtLevel[level] = digest.Join(emptyAtLevel[level-1], emptyAtLevel[level-1])
	}
}

// EmptyLeafDigest returns the sentinel digest occupying every slot that has
// never been written.
func EmptyLeafDigest() digest.Digest {
	return emptyAtLevel[0]
}

// ErrNodeNotPresent is returned by any operation addressing an index that
// does not exist in the tree (index >= 2^depth).
var ErrNodeNotPresent = fmt.Errorf("merkle: node not present")

// ErrInvalidDepth is returned by New when depth is outside [0, MaxDepth].
var ErrInvalidDepth = fmt.Errorf("merkle: depth must be between 0 and %d", MaxDepth)

// Tree is a perfect binary tree of fixed depth. Leaves are never added or
// removed after construction; only their digests are replaced.
type Tree struct {
	depth int
	nodes []digest.Digest
}

// New builds a tree of the given depth with every leaf set to the sentinel
// digest and every internal node's digest following from it.
func New(depth int) (*Tree, error) {
	if depth < 0 || depth > MaxDepth {
		return nil, ErrInvalidDepth
	}

	size := 1<<uint(depth+1) - 1
	nodes := make([]digest.Digest, size)
	for i := range nodes {
		nodes[i] = emptyAtLevel[depth-levelOf(i)]
	}

	return &Tree{depth: depth, nodes: nodes}, nil
}

// Depth returns the tree's fixed depth D.
func (t *Tree) Depth() int {
	return t.depth
}

// Root returns the current root digest.
func (t *Tree) Root() digest.Digest {
	return t.nodes[0]
}

// Get returns the current digest at leaf index.
func (t *Tree) Get(index int) (digest.Digest, error) {
	leaf, err := t.leafArrayIndex(index)
	if err != nil {
		return digest.Zero, err
	}
	return t.nodes[leaf], nil
}

// Insert replaces the digest at leaf index, recomputing every ancestor up
// to the root, and returns the digest that index previously held.
func (t *Tree) Insert(index int, d digest.Digest) (digest.Digest, error) {
	idx, err := t.leafArrayIndex(index)
	if err != nil {
		return digest.Zero, err
	}

	previous := t.nodes[idx]
	t.nodes[idx] = d

	for idx > 0 {
		parent := (idx - 1) / 2
		left, right := 2*parent+1, 2*parent+2
		t.nodes[parent] = digest.Join(t.nodes[left], t.nodes[right])
		idx = parent
	}

	return previous, nil
}

// Dependencies returns the sibling digests along the root-ward path from
// index, bottom-up: element 0 is the sibling of the leaf, element D-1 is
// the sibling of the node one level below the root.
func (t *Tree) Dependencies(index int) ([]digest.Digest, error) {
	idx, err := t.leafArrayIndex(index)
	if err != nil {
		return nil, err
	}

	deps := make([]digest.Digest, 0, t.depth)
	for idx > 0 {
		sibling := idx - 1
		if idx%2 == 1 {
			sibling = idx + 1
		}
		deps = append(deps, t.nodes[sibling])
		idx = (idx - 1) / 2
	}

	return deps, nil
}

// ReconstructRootHash is a pure function, independent of any Tree instance:
// given a bottom-up sibling path, the leaf's original index, and the
// leaf's digest, it deterministically recomputes the root digest.
//
// mask is fixed at 1 << (len(deps) - 1) and selects, at every step, which
// side of the join the accumulator occupies; index is shifted left after
// each step to advance the same mask bit through every level on the way to
// the root. The bit convention must be reproduced exactly, because
// persisted roots depend on it.
func ReconstructRootHash(deps []digest.Digest, index int, leaf digest.Digest) digest.Digest {
	if len(deps) == 0 {
		return leaf
	}

	mask := 1 << uint(len(deps)-1)
	acc := leaf
	i := index

	for _, sibling := range deps {
		if i&mask == 0 {
			acc = digest.Join(acc, sibling)
		} else {
			acc = digest.Join(sibling, acc)
		}
		i <<= 1
	}

	return acc
}

// leafArrayIndex converts a leaf position into its index in the backing
// array, validating range.
//
// ReconstructRootHash consumes index's bits MSB-first as it walks from the
// leaf toward the root (see its doc comment): the split immediately above
// a leaf is decided by index's high bit, and the split immediately below
// the root by index's low bit. A conventional heap array, descended
// top-down, does the opposite — its root-adjacent split reads the high
// bit first. Bit-reversing index before placing it in the array
// reconciles the two: descending the array top-down then consumes
// index's original bits low-to-high, exactly matching
// ReconstructRootHash's convention.
func (t *Tree) leafArrayIndex(index int) (int, error) {
	if index < 0 || index >= 1<<uint(t.depth) {
		return 0, ErrNodeNotPresent
	}
	leafStart := 1<<uint(t.depth) - 1
	return leafStart + reverseBits(index, t.depth), nil
}

// reverseBits reverses the low width bits of x.
func reverseBits(x, width int) int {
	out := 0
	for i := 0; i < width; i++ {
		out = (out << 1) | (x & 1)
		x >>= 1
	}
	return out
}

// levelOf returns the depth (root = 0) of array index i in a 0-indexed
// heap-order binary tree.
func levelOf(i int) int {
	return bits.Len(uint(i+1)) - 1
}
