package verifyclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inda18plusplus/cnol-file-storage/internal/digest"
	"github.com/inda18plusplus/cnol-file-storage/internal/slotid"
)

// Transport speaks the four wire-protocol endpoints over HTTP. It is a
// thin wrapper around the standard library client, built with
// http.NewRequestWithContext and a timeout-bound http.Client.
type Transport struct {
	baseURL string
	client  *http.Client
}

// NewTransport builds a Transport targeting baseURL (e.g.
// "http://localhost:8000").
func NewTransport(baseURL string) *Transport {
	return &Transport{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchBlob downloads the envelope bytes stored at slot. ok is false if
// the server reports the slot as not found.
func (t *Transport) FetchBlob(ctx context.Context, slot slotid.ID) (data []byte, ok bool, err error) {
	resp, err := t.get(ctx, fmt.Sprintf("/file/%d", slot))
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("verifyclient: GET /file/%d: unexpected status %s", slot, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("verifyclient: reading blob body: %w", err)
	}
	return body, true, nil
}

// PutBlob uploads envelope bytes to slot, returning whether the server
// reports the slot as newly created (201) versus replaced (200).
func (t *Transport) PutBlob(ctx context.Context, slot slotid.ID, data []byte) (created bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.url(fmt.Sprintf("/file/%d", slot)), bytes.NewReader(data))
	if err != nil {
		return false, fmt.Errorf("verifyclient: building PUT request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("verifyclient: PUT /file/%d: %w", slot, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		return true, nil
	case http.StatusOK:
		return false, nil
	default:
		return false, fmt.Errorf("verifyclient: PUT /file/%d: unexpected status %s", slot, resp.Status)
	}
}

// FetchRoot downloads the server's current root digest.
func (t *Transport) FetchRoot(ctx context.Context) (digest.Digest, error) {
	resp, err := t.get(ctx, "/file/verify/root")
	if err != nil {
		return digest.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return digest.Zero, fmt.Errorf("verifyclient: GET /file/verify/root: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return digest.Zero, fmt.Errorf("verifyclient: reading root body: %w", err)
	}

	return digest.FromBytes(body)
}

// FetchDependencies downloads the bottom-up sibling path for slot.
func (t *Transport) FetchDependencies(ctx context.Context, slot slotid.ID) ([]digest.Digest, error) {
	resp, err := t.get(ctx, fmt.Sprintf("/file/verify/%d", slot))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verifyclient: GET /file/verify/%d: unexpected status %s", slot, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("verifyclient: reading dependencies body: %w", err)
	}

	count := len(body) / digest.Size
	if count != slotid.Bits || len(body)%digest.Size != 0 {
		return nil, &InvalidHashDependencyCountError{Got: count}
	}

	deps := make([]digest.Digest, count)
	for i := range deps {
		d, err := digest.FromBytes(body[i*digest.Size : (i+1)*digest.Size])
		if err != nil {
			return nil, fmt.Errorf("verifyclient: malformed dependency %d: %w", i, err)
		}
		deps[i] = d
	}

	return deps, nil
}

func (t *Transport) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url(path), nil)
	if err != nil {
		return nil, fmt.Errorf("verifyclient: building GET request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verifyclient: GET %s: %w", path, err)
	}
	return resp, nil
}

func (t *Transport) url(path string) string {
	return t.baseURL + path
}
