package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/componentbus/message"
)

const writeDeadline = 5 * time.Second

// FeedFrame is one message on the websocket feed: the topic an envelope
// arrived on plus the envelope itself.
type FeedFrame struct {
	Topic    string            `json:"topic"`
	Envelope *message.Envelope `json:"envelope"`
}

// envelopeFeed fans bridge traffic out to websocket clients. Slow or dead
// clients are dropped rather than allowed to stall the feed.
type envelopeFeed struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*websocket.Conn
	seq     atomic.Int64

	// Serializes writes across topics; gorilla connections allow only
	// one concurrent writer.
	writeMu sync.Mutex
}

func newEnvelopeFeed(logger *slog.Logger) *envelopeFeed {
	return &envelopeFeed{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
		clients: make(map[string]*websocket.Conn),
	}
}

func (f *envelopeFeed) handleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	clientID := fmt.Sprintf("feed-%d", f.seq.Add(1))
	f.mu.Lock()
	f.clients[clientID] = conn
	f.mu.Unlock()

	f.logger.Debug("feed client connected", "client", clientID, "remote", r.RemoteAddr)

	// The feed is one-way. Reading keeps close frames flowing and tells
	// us when the client goes away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				f.remove(clientID)
				return
			}
		}
	}()
}

// broadcast sends one envelope to every connected client.
func (f *envelopeFeed) broadcast(topic string, env *message.Envelope) {
	frame, err := json.Marshal(FeedFrame{Topic: topic, Envelope: env})
	if err != nil {
		f.logger.Warn("feed frame encode failed", "topic", topic, "error", err)
		return
	}

	f.mu.RLock()
	conns := make(map[string]*websocket.Conn, len(f.clients))
	for id, c := range f.clients {
		conns[id] = c
	}
	f.mu.RUnlock()

	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	for id, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			f.logger.Debug("feed client write failed, dropping", "client", id, "error", err)
			f.remove(id)
		}
	}
}

func (f *envelopeFeed) remove(clientID string) {
	f.mu.Lock()
	conn, ok := f.clients[clientID]
	if ok {
		delete(f.clients, clientID)
	}
	f.mu.Unlock()

	if ok {
		conn.Close()
	}
}

func (f *envelopeFeed) clientCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

func (f *envelopeFeed) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, conn := range f.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "gateway stopping"),
			time.Now().Add(time.Second))
		conn.Close()
		delete(f.clients, id)
	}
}
