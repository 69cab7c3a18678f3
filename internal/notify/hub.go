// Package notify fans out root-digest-changed events to connected
// websocket clients, and bridges those events across server instances
// through a Redis pub/sub channel.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/inda18plusplus/cnol-file-storage/internal/digest"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	redisChannel = "cnol-file-storage:root-changed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// RootChangedMessage is the wire format broadcast to every subscriber.
type RootChangedMessage struct {
	Root string `json:"root"`
}

// client is one connected websocket subscriber.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of locally connected subscribers and republishes
// every root change both to them directly and to Redis, so that other
// server instances subscribed to the same channel also learn of it.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]bool

	rdb *redis.Client
}

// NewHub builds a Hub. rdb may be nil, in which case root changes are
// only delivered to subscribers connected to this instance.
func NewHub(rdb *redis.Client) *Hub {
	h := &Hub{
		clients: make(map[*client]bool),
		rdb:     rdb,
	}
	if rdb != nil {
		go h.subscribeRedis()
	}
	return h
}

// Publish is meant to be wired to store.Store.OnRootChanged: every time
// the authoritative root changes, it is broadcast to local subscribers
// and, if Redis is configured, to every other instance's subscribers.
func (h *Hub) Publish(root digest.Digest) {
	payload, err := json.Marshal(RootChangedMessage{Root: root.String()})
	if err != nil {
		log.Printf("[Notify] failed to marshal root-changed message: %v", err)
		return
	}

	h.broadcastLocal(payload)

	if h.rdb != nil {
		if err := h.rdb.Publish(context.Background(), redisChannel, payload).Err(); err != nil {
			log.Printf("[Notify] failed to publish root change to redis: %v", err)
		}
	}
}

func (h *Hub) broadcastLocal(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			close(c.send)
			delete(h.clients, c)
		}
	}
}

// subscribeRedis relays messages published by other instances to this
// instance's locally connected subscribers. It never exits on its own;
// it is started once from NewHub and lives for the process lifetime.
func (h *Hub) subscribeRedis() {
	sub := h.rdb.Subscribe(context.Background(), redisChannel)
	defer sub.Close()

	ch := sub.Channel()
	for msg := range ch {
		h.broadcastLocal([]byte(msg.Payload))
	}
}

// ServeWS upgrades the request to a websocket connection and registers
// it as a subscriber until the connection closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Notify] websocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 16)}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards inbound messages (this channel is server-to-client
// only) but drains the connection so pong control frames are processed,
// and cleans up the subscriber on disconnect.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
