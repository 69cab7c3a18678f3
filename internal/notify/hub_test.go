package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/inda18plusplus/cnol-file-storage/internal/digest"
)

func TestPublishReachesConnectedSubscriber(t *testing.T) {
	h := NewHub(nil)

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	// Give ServeWS's goroutine time to register the client before we publish.
	time.Sleep(20 * time.Millisecond)

	root := digest.Hash([]byte("new root"))
	h.Publish(root)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var msg RootChangedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if msg.Root != root.String() {
		t.Fatalf("got root %s, want %s", msg.Root, root.String())
	}
}

func TestPublishWithNoSubscribersDoesNotBlock(t *testing.T) {
	h := NewHub(nil)
	done := make(chan struct{})
	go func() {
		h.Publish(digest.Hash([]byte("x")))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no subscribers")
	}
}
