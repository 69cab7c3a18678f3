package envelope

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	password := []byte("abc")
	plaintext := []byte("Super secret message")
	ad := []byte{0x05, 0x3e}

	sealed, err := Seal(password, plaintext, ad)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	opened, err := Open(password, sealed, ad)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("Open() = %q, want %q", opened, plaintext)
	}
}

func TestSlotBindingMismatch(t *testing.T) {
	password := []byte("abc")
	plaintext := []byte("data")

	sealed, err := Seal(password, plaintext, []byte{0, 1})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	if _, err := Open(password, sealed, []byte{0, 7}); err != ErrAuthenticationFailed {
		t.Fatalf("Open with wrong ad = %v, want ErrAuthenticationFailed", err)
	}
}

func TestPasswordBindingMismatch(t *testing.T) {
	plaintext := []byte("data")
	ad := []byte{0, 1}

	sealed, err := Seal([]byte("abc"), plaintext, ad)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	if _, err := Open([]byte("abd"), sealed, ad); err != ErrAuthenticationFailed {
		t.Fatalf("Open with wrong password = %v, want ErrAuthenticationFailed", err)
	}
}

func TestEnvelopeLength(t *testing.T) {
	plaintext := []byte("0123456789")

	sealed, err := Seal([]byte("pw"), plaintext, []byte{1, 2})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	want := len(plaintext) + TagLen + NonceLen
	if len(sealed) != want {
		t.Fatalf("len(sealed) = %d, want %d", len(sealed), want)
	}
	if want-len(plaintext) != Overhead() {
		t.Fatalf("Overhead() = %d, want %d", Overhead(), want-len(plaintext))
	}
}

func TestOpenInvalidLength(t *testing.T) {
	if _, err := Open([]byte("pw"), make([]byte, NonceLen-1), nil); err != ErrInvalidLength {
		t.Fatalf("Open with short envelope = %v, want ErrInvalidLength", err)
	}
}

func TestOpenCorruptedCiphertext(t *testing.T) {
	password := []byte("abc")
	ad := []byte{0, 1}

	sealed, err := Seal(password, []byte("hello world"), ad)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	corrupted := append([]byte{}, sealed...)
	corrupted[0] ^= 0xFF

	if _, err := Open(password, corrupted, ad); err != ErrAuthenticationFailed {
		t.Fatalf("Open corrupted = %v, want ErrAuthenticationFailed", err)
	}
}
