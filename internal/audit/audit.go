// Package audit appends a tamper-evident record of every slot operation
// to Postgres: each row carries an HMAC tag derived from an
// operator-held key, so a row edited directly in the database (bypassing
// this package) is detectable even though the table itself has no
// write protection of its own.
package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"log"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/hkdf"

	"github.com/inda18plusplus/cnol-file-storage/internal/slotid"
)

// Log records slot operations. Record never returns an error to its
// caller: a failed audit write is logged and otherwise swallowed, since
// losing an audit row must not take the storage path down with it.
type Log struct {
	db  *sql.DB
	mac func() hash.Hash
}

// New builds a Log backed by db, deriving its HMAC key from auditKey via
// HKDF-SHA256. The caller is responsible for having run the schema
// migration that creates the audit_events table.
func New(db *sql.DB, auditKey []byte) (*Log, error) {
	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, auditKey, nil, []byte("cnol-file-storage audit log v1"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("audit: deriving log key: %w", err)
	}

	return &Log{
		db:  db,
		mac: func() hash.Hash { return hmac.New(sha256.New, key) },
	}, nil
}

// Record appends one event row. event is a short verb ("get", "put"),
// remoteAddr identifies the requester, slot the affected slot, and opErr
// (nil on success) the outcome.
func (l *Log) Record(event, remoteAddr string, slot slotid.ID, opErr error) {
	if l == nil || l.db == nil {
		return
	}

	now := time.Now().UTC()
	errText := ""
	if opErr != nil {
		errText = opErr.Error()
	}

	tag := l.tag(now, event, remoteAddr, slot, errText)

	_, err := l.db.Exec(
		`INSERT INTO audit_events (occurred_at, event, remote_addr, slot, error, tag)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		now, event, remoteAddr, slot, errText, tag,
	)
	if err != nil {
		log.Printf("[Audit] failed to record %s event for slot %d: %v", event, slot, err)
	}
}

// tag computes the HMAC over the event's fields in a fixed, unambiguous
// encoding, so two distinct field combinations can never hash to the
// same input string.
func (l *Log) tag(at time.Time, event, remoteAddr string, slot slotid.ID, errText string) string {
	mac := l.mac()

	var slotBuf [2]byte
	binary.BigEndian.PutUint16(slotBuf[:], uint16(slot))

	writeField := func(s string) {
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(s)))
		mac.Write(lenBuf[:])
		mac.Write([]byte(s))
	}

	writeField(at.Format(time.RFC3339Nano))
	writeField(event)
	writeField(remoteAddr)
	mac.Write(slotBuf[:])
	writeField(errText)

	return hex.EncodeToString(mac.Sum(nil))
}

// Schema is the DDL Record's table must satisfy. cmd/server executes it
// at startup, before building the Log.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          BIGSERIAL PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL,
	event       TEXT NOT NULL,
	remote_addr TEXT NOT NULL,
	slot        INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	tag         TEXT NOT NULL
)`
