// Package verifyclient implements the client-side verification protocol
// that ties the envelope format and the Merkle tree together: every
// upload and download cross-checks a locally persisted root digest
// against the server's root digest and against a path recomputed from the
// payload.
package verifyclient

import (
	"context"
	"fmt"

	"github.com/inda18plusplus/cnol-file-storage/internal/digest"
	"github.com/inda18plusplus/cnol-file-storage/internal/envelope"
	"github.com/inda18plusplus/cnol-file-storage/internal/merkle"
	"github.com/inda18plusplus/cnol-file-storage/internal/slotid"
)

// Verifier orchestrates the upload and download protocols against a
// server reached through a Transport, persisting its trusted root through
// a RootStore.
type Verifier struct {
	transport *Transport
	root      *RootStore
}

// New builds a Verifier.
func New(transport *Transport, root *RootStore) *Verifier {
	return &Verifier{transport: transport, root: root}
}

// Upload seals plaintext under password, binding it to slot, uploads it,
// and updates the client's trusted root on success.
func (v *Verifier) Upload(ctx context.Context, password []byte, slot slotid.ID, plaintext []byte) error {
	sealed, err := envelope.Seal(password, plaintext, slot.Bytes())
	if err != nil {
		return fmt.Errorf("verifyclient: sealing envelope: %w", err)
	}

	expected, err := v.expectedRoot(ctx)
	if err != nil {
		return err
	}

	deps, serverRoot, err := v.fetchDepsAndRoot(ctx, slot)
	if err != nil {
		return err
	}

	if expected != serverRoot {
		return &HashOutOfDateError{Client: expected, Server: serverRoot}
	}

	projectedRoot := merkle.ReconstructRootHash(deps, int(slot), digest.Hash(sealed))

	if _, err := v.transport.PutBlob(ctx, slot, sealed); err != nil {
		return fmt.Errorf("verifyclient: uploading blob: %w", err)
	}

	newServerRoot, err := v.transport.FetchRoot(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerHashNotFound, err)
	}
	if newServerRoot != projectedRoot {
		return ErrTamperedFiles
	}

	if err := v.root.Save(projectedRoot); err != nil {
		return err
	}

	return nil
}

// Download fetches, verifies, and decrypts the blob at slot.
func (v *Verifier) Download(ctx context.Context, password []byte, slot slotid.ID) ([]byte, error) {
	sealed, ok, err := v.transport.FetchBlob(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("verifyclient: fetching blob: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	expected, err := v.expectedRoot(ctx)
	if err != nil {
		return nil, err
	}

	deps, serverRoot, err := v.fetchDepsAndRoot(ctx, slot)
	if err != nil {
		return nil, err
	}

	if expected != serverRoot {
		return nil, &HashOutOfDateError{Client: expected, Server: serverRoot}
	}

	reconstructed := merkle.ReconstructRootHash(deps, int(slot), digest.Hash(sealed))
	if reconstructed != expected {
		return nil, ErrTamperedFiles
	}

	plaintext, err := envelope.Open(password, sealed, slot.Bytes())
	if err != nil {
		return nil, err
	}

	return plaintext, nil
}

// expectedRoot returns the client's trusted root, performing first-use
// bootstrap (fetching and adopting the server's current root) if no root
// has ever been persisted. Subsequent calls never silently re-bootstrap:
// once a root file exists, its contents are authoritative.
func (v *Verifier) expectedRoot(ctx context.Context) (digest.Digest, error) {
	root, found, err := v.root.Load()
	if err != nil {
		return digest.Zero, err
	}
	if found {
		return root, nil
	}

	serverRoot, err := v.transport.FetchRoot(ctx)
	if err != nil {
		return digest.Zero, fmt.Errorf("%w: %v", ErrServerHashNotFound, err)
	}

	if err := v.root.Save(serverRoot); err != nil {
		return digest.Zero, err
	}

	return serverRoot, nil
}

func (v *Verifier) fetchDepsAndRoot(ctx context.Context, slot slotid.ID) ([]digest.Digest, digest.Digest, error) {
	deps, err := v.transport.FetchDependencies(ctx, slot)
	if err != nil {
		return nil, digest.Zero, fmt.Errorf("%w: %v", ErrServerHashDependenciesNotFound, err)
	}

	root, err := v.transport.FetchRoot(ctx)
	if err != nil {
		return nil, digest.Zero, fmt.Errorf("%w: %v", ErrServerHashNotFound, err)
	}

	return deps, root, nil
}
