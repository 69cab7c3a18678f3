// Package envelope implements the authenticated-encryption-at-rest format
// that binds a slot's ciphertext to its slot identifier.
//
// Parameters are fixed for interoperability with existing persisted data:
// AES-128-GCM with a 12-byte random nonce, and PBKDF2-HMAC-SHA256 key
// derivation with a hard-coded salt and a fixed iteration count. The salt
// being a literal constant is a deliberate, known weakness of the original
// design (every user derives the same key from the same password) that is
// preserved here rather than silently fixed, because it keeps the key
// recoverable from the password alone after client state loss. See
// DESIGN.md's "Open Questions resolved" section; a per-client random salt
// is the recommended redesign, flagged but intentionally not applied.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeyLen is the AES-128 key length in bytes.
	KeyLen = 16

	// NonceLen is the AES-GCM nonce length in bytes.
	NonceLen = 12

	// TagLen is the AES-GCM authentication tag length in bytes.
	TagLen = 16

	// pbkdf2Iterations is the fixed PBKDF2 round count. Changing it breaks
	// compatibility with every previously sealed envelope.
	pbkdf2Iterations = 47131
)

// pbkdf2Salt is the fixed salt used for every password. This must never
// change; see the package doc above.
var pbkdf2Salt = []byte{0, 1, 2, 3, 4, 5, 6, 7}

// ErrInvalidLength is returned by Open when the envelope is shorter than
// the nonce length and therefore cannot be a valid envelope.
var ErrInvalidLength = errors.New("envelope: too short to contain a nonce")

// ErrAuthenticationFailed is returned by Open when the AEAD tag does not
// verify: wrong password, wrong associated data, or corrupted ciphertext.
var ErrAuthenticationFailed = errors.New("envelope: authentication failed")

// Seal encrypts plaintext under a key derived from password, binding ad
// (the big-endian slot identifier) into the authentication tag, and
// returns ciphertext||tag||nonce.
func Seal(password, plaintext, ad []byte) ([]byte, error) {
	gcm, err := newAEAD(password)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("envelope: failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, ad)
	return append(sealed, nonce...), nil
}

// Open verifies and decrypts envelopeBytes (ciphertext||tag||nonce),
// requiring the same password and associated data used to Seal it.
func Open(password, envelopeBytes, ad []byte) ([]byte, error) {
	if len(envelopeBytes) < NonceLen {
		return nil, ErrInvalidLength
	}

	split := len(envelopeBytes) - NonceLen
	sealed, nonce := envelopeBytes[:split], envelopeBytes[split:]

	gcm, err := newAEAD(password)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, sealed, ad)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	return plaintext, nil
}

// Overhead returns the number of bytes Seal adds beyond len(plaintext):
// the authentication tag plus the trailing nonce.
func Overhead() int {
	return TagLen + NonceLen
}

func newAEAD(password []byte) (cipher.AEAD, error) {
	key := deriveKey(password)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("envelope: failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("envelope: failed to create GCM: %w", err)
	}

	return gcm, nil
}

func deriveKey(password []byte) []byte {
	return pbkdf2.Key(password, pbkdf2Salt, pbkdf2Iterations, KeyLen, sha256.New)
}
