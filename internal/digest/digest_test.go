package digest

import "testing"

func TestHashDeterministic(t *testing.T) {
	a := Hash([]byte("hello"))
	b := Hash([]byte("hello"))
	if a != b {
		t.Fatalf("hash not deterministic: %v != %v", a, b)
	}
}

func TestJoinNotCommutative(t *testing.T) {
	a := Hash([]byte("left"))
	b := Hash([]byte("right"))

	if Join(a, b) == Join(b, a) {
		t.Fatalf("join must not be commutative")
	}
}

func TestJoinMatchesConcatenation(t *testing.T) {
	a := Hash([]byte("a"))
	b := Hash([]byte("b"))

	got := Join(a, b)
	want := Hash(append(append([]byte{}, a[:]...), b[:]...))

	if got != want {
		t.Fatalf("Join(a, b) = %v, want %v", got, want)
	}
}

func TestFromBytesRoundTrip(t *testing.T) {
	d := Hash([]byte("round-trip"))

	got, err := FromBytes(d.Bytes())
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got != d {
		t.Fatalf("round-trip mismatch: %v != %v", got, d)
	}
}

func TestFromBytesWrongLength(t *testing.T) {
	for _, n := range []int{0, 31, 33, 64} {
		if _, err := FromBytes(make([]byte, n)); err == nil {
			t.Fatalf("FromBytes with %d bytes: expected error, got nil", n)
		}
	}
}

func TestZeroIsDefault(t *testing.T) {
	var d Digest
	if d != Zero {
		t.Fatalf("zero value should equal Zero")
	}
}
