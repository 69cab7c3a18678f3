// Package handlers exposes the ServerStore over the canonical HTTP wire
// protocol: GET/PUT /file/{slot} for blobs, GET /file/verify/root for the
// current root digest, and GET /file/verify/{slot} for a slot's bottom-up
// sibling path.
package handlers

import (
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inda18plusplus/cnol-file-storage/internal/slotid"
	"github.com/inda18plusplus/cnol-file-storage/internal/store"
)

// RateLimiter is the subset of internal/ratelimit's Limiter this handler
// depends on. A nil RateLimiter (the zero value of the interface) disables
// limiting entirely.
type RateLimiter interface {
	Allow(remoteAddr string, slot slotid.ID) error
}

// AuditLog is the subset of internal/audit's Log this handler depends on.
type AuditLog interface {
	Record(event, remoteAddr string, slot slotid.ID, err error)
}

// FileHandler wires a Store to the wire protocol.
type FileHandler struct {
	store   *store.Store
	limiter RateLimiter
	audit   AuditLog
}

// NewFileHandler builds a FileHandler. limiter and audit may both be nil.
func NewFileHandler(s *store.Store, limiter RateLimiter, audit AuditLog) *FileHandler {
	return &FileHandler{store: s, limiter: limiter, audit: audit}
}

// Register mounts the four endpoints onto r under /file.
func (h *FileHandler) Register(r *mux.Router) {
	sub := r.PathPrefix("/file").Subrouter()
	sub.HandleFunc("/verify/root", h.handleRoot).Methods(http.MethodGet)
	sub.HandleFunc("/verify/{slot:[0-9]+}", h.handleDependencies).Methods(http.MethodGet)
	sub.HandleFunc("/{slot:[0-9]+}", h.handleGet).Methods(http.MethodGet)
	sub.HandleFunc("/{slot:[0-9]+}", h.handlePut).Methods(http.MethodPut)
}

func (h *FileHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	slot, err := parseSlot(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.checkRateLimit(r, slot); err != nil {
		h.recordAudit("get", r, slot, err)
		http.Error(w, err.Error(), http.StatusTooManyRequests)
		return
	}

	data, ok := h.store.Get(slot)
	if !ok {
		h.recordAudit("get", r, slot, errNotFound)
		http.NotFound(w, r)
		return
	}

	h.recordAudit("get", r, slot, nil)
	w.Header().Set("X-Request-Id", requestID)
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(data); err != nil {
		log.Printf("[Handlers] request %s: failed writing blob response: %v", requestID, err)
	}
}

func (h *FileHandler) handlePut(w http.ResponseWriter, r *http.Request) {
	slot, err := parseSlot(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.checkRateLimit(r, slot); err != nil {
		h.recordAudit("put", r, slot, err)
		http.Error(w, err.Error(), http.StatusTooManyRequests)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	created, err := h.store.Put(slot, body)
	if err != nil {
		log.Printf("[Handlers] PUT /file/%d: %v", slot, err)
		h.recordAudit("put", r, slot, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.recordAudit("put", r, slot, nil)
	if created {
		w.WriteHeader(http.StatusCreated)
	} else {
		w.WriteHeader(http.StatusOK)
	}
}

func (h *FileHandler) handleRoot(w http.ResponseWriter, r *http.Request) {
	root := h.store.Root()
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(root.Bytes()); err != nil {
		log.Printf("[Handlers] failed writing root response: %v", err)
	}
}

func (h *FileHandler) handleDependencies(w http.ResponseWriter, r *http.Request) {
	slot, err := parseSlot(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	deps, err := h.store.Dependencies(slot)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	for _, d := range deps {
		if _, err := w.Write(d.Bytes()); err != nil {
			log.Printf("[Handlers] failed writing dependencies response: %v", err)
			return
		}
	}
}

func (h *FileHandler) checkRateLimit(r *http.Request, slot slotid.ID) error {
	if h.limiter == nil {
		return nil
	}
	return h.limiter.Allow(r.RemoteAddr, slot)
}

func (h *FileHandler) recordAudit(event string, r *http.Request, slot slotid.ID, err error) {
	if h.audit == nil {
		return
	}
	h.audit.Record(event, r.RemoteAddr, slot, err)
}

func parseSlot(r *http.Request) (slotid.ID, error) {
	raw := mux.Vars(r)["slot"]
	n, err := strconv.ParseUint(raw, 10, slotid.Bits)
	if err != nil {
		return 0, errInvalidSlot
	}
	return slotid.ID(n), nil
}
