package merkle

import (
	"testing"

	"github.com/inda18plusplus/cnol-file-storage/internal/digest"
)

func TestEmptyTreeRoot(t *testing.T) {
	for depth := 0; depth <= 6; depth++ {
		tr, err := New(depth)
		if err != nil {
			t.Fatalf("New(%d): %v", depth, err)
		}

		want := EmptyLeafDigest()
		for i := 0; i < depth; i++ {
			want = digest.Join(want, want)
		}

		if tr.Root() != want {
			t.Fatalf("depth %d: root = %v, want %v", depth, tr.Root(), want)
		}
	}
}

func TestInvalidDepth(t *testing.T) {
	if _, err := New(-1); err == nil {
		t.Fatalf("expected error for negative depth")
	}
	if _, err := New(MaxDepth + 1); err == nil {
		t.Fatalf("expected error for depth > %d", MaxDepth)
	}
}

func TestOutOfRange(t *testing.T) {
	tr, err := New(3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	oob := 1 << 3
	if _, err := tr.Get(oob); err != ErrNodeNotPresent {
		t.Fatalf("Get(%d) = %v, want ErrNodeNotPresent", oob, err)
	}
	if _, err := tr.Insert(oob, digest.Zero); err != ErrNodeNotPresent {
		t.Fatalf("Insert(%d) = %v, want ErrNodeNotPresent", oob, err)
	}
	if _, err := tr.Dependencies(oob); err != ErrNodeNotPresent {
		t.Fatalf("Dependencies(%d) = %v, want ErrNodeNotPresent", oob, err)
	}
}

func TestInsertAndReconstruct(t *testing.T) {
	const depth = 8
	tr, err := New(depth)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, index := range []int{0, 1, 42, 255} {
		h := digest.Hash([]byte{byte(index), byte(index >> 8)})

		if _, err := tr.Insert(index, h); err != nil {
			t.Fatalf("Insert(%d): %v", index, err)
		}

		got, err := tr.Get(index)
		if err != nil {
			t.Fatalf("Get(%d): %v", index, err)
		}
		if got != h {
			t.Fatalf("Get(%d) = %v, want %v", index, got, h)
		}

		deps, err := tr.Dependencies(index)
		if err != nil {
			t.Fatalf("Dependencies(%d): %v", index, err)
		}
		if len(deps) != depth {
			t.Fatalf("len(Dependencies(%d)) = %d, want %d", index, len(deps), depth)
		}

		root := ReconstructRootHash(deps, index, h)
		if root != tr.Root() {
			t.Fatalf("index %d: reconstructed root %v != tree root %v", index, root, tr.Root())
		}
	}
}

func TestInsertReturnsPrevious(t *testing.T) {
	tr, err := New(4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	prev, err := tr.Insert(5, digest.Hash([]byte("a")))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if prev != EmptyLeafDigest() {
		t.Fatalf("first insert's previous = %v, want sentinel", prev)
	}

	second := digest.Hash([]byte("b"))
	prev, err = tr.Insert(5, second)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if prev != digest.Hash([]byte("a")) {
		t.Fatalf("second insert's previous = %v, want first value", prev)
	}
}

func TestDependenciesLength(t *testing.T) {
	for depth := 0; depth <= 10; depth++ {
		tr, err := New(depth)
		if err != nil {
			t.Fatalf("New(%d): %v", depth, err)
		}
		for _, index := range []int{0, (1 << uint(depth)) - 1} {
			deps, err := tr.Dependencies(index)
			if err != nil {
				t.Fatalf("Dependencies(%d) at depth %d: %v", index, depth, err)
			}
			if len(deps) != depth {
				t.Fatalf("depth %d index %d: len(deps) = %d, want %d", depth, index, len(deps), depth)
			}
		}
	}
}

// TestReconstructionScenario checks a depth-5 tree,
// insert hash([1,2,3]) at index 18, and confirm the pure reconstruction
// function agrees with the tree's own root.
func TestReconstructionScenario(t *testing.T) {
	tr, err := New(5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h := digest.Hash([]byte{1, 2, 3})
	if _, err := tr.Insert(18, h); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	deps, err := tr.Dependencies(18)
	if err != nil {
		t.Fatalf("Dependencies: %v", err)
	}

	if got := ReconstructRootHash(deps, 18, h); got != tr.Root() {
		t.Fatalf("reconstructed root %v != tree root %v", got, tr.Root())
	}
}
