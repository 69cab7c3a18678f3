package audit

import (
	"errors"
	"testing"
	"time"
)

func TestNilLogRecordIsNoOp(t *testing.T) {
	var l *Log
	l.Record("get", "127.0.0.1:1", 4, nil) // must not panic
}

func TestTagIsDeterministic(t *testing.T) {
	l, err := New(nil, []byte("audit-root-key"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	at := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	a := l.tag(at, "put", "10.0.0.1:5000", 42, "")
	b := l.tag(at, "put", "10.0.0.1:5000", 42, "")
	if a != b {
		t.Fatalf("tag is not deterministic: %s != %s", a, b)
	}
}

func TestTagDistinguishesFields(t *testing.T) {
	l, err := New(nil, []byte("audit-root-key"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	at := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	base := l.tag(at, "put", "10.0.0.1:5000", 42, "")

	cases := map[string]string{
		"event":      l.tag(at, "get", "10.0.0.1:5000", 42, ""),
		"remote":     l.tag(at, "put", "10.0.0.1:5001", 42, ""),
		"slot":       l.tag(at, "put", "10.0.0.1:5000", 43, ""),
		"error text": l.tag(at, "put", "10.0.0.1:5000", 42, errors.New("boom").Error()),
	}

	for name, tag := range cases {
		if tag == base {
			t.Fatalf("tag did not change when %s changed", name)
		}
	}
}

func TestDifferentKeysProduceDifferentTags(t *testing.T) {
	a, err := New(nil, []byte("key-a"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := New(nil, []byte("key-b"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	at := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	if a.tag(at, "put", "x", 1, "") == b.tag(at, "put", "x", 1, "") {
		t.Fatalf("distinct audit keys produced the same tag")
	}
}
