// Package gateway exposes a read-only HTTP surface over a running bridge:
// a status endpoint, Prometheus metrics, and an optional WebSocket feed of
// bus traffic for external observers.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/componentbus/bridge"
	"github.com/c360/componentbus/errors"
	"github.com/c360/componentbus/health"
	"github.com/c360/componentbus/message"
	"github.com/c360/componentbus/metric"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// Gateway serves bridge status and metrics over HTTP. It never writes to
// the bus.
type Gateway struct {
	addr     string
	bridge   *bridge.Bridge
	logger   *slog.Logger
	registry *metric.Registry
	monitor  *health.Monitor
	enableWS bool

	httpServer *http.Server
	running    atomic.Bool

	mu           sync.RWMutex
	startTime    time.Time
	lastActivity time.Time

	requestsTotal  atomic.Uint64
	requestsFailed atomic.Uint64

	feed *envelopeFeed
}

// Option configures a Gateway.
type Option func(*Gateway) error

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(g *Gateway) error {
		if addr == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Gateway", "WithAddr",
				"addr must not be empty")
		}
		g.addr = addr
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) error {
		if logger != nil {
			g.logger = logger
		}
		return nil
	}
}

// WithRegistry enables the /metrics endpoint backed by the given registry.
func WithRegistry(r *metric.Registry) Option {
	return func(g *Gateway) error {
		g.registry = r
		return nil
	}
}

// WithHealthMonitor enables the /api/v1/health endpoint backed by the
// given monitor.
func WithHealthMonitor(m *health.Monitor) Option {
	return func(g *Gateway) error {
		g.monitor = m
		return nil
	}
}

// WithWebsocketFeed enables the /ws live envelope feed.
func WithWebsocketFeed(enabled bool) Option {
	return func(g *Gateway) error {
		g.enableWS = enabled
		return nil
	}
}

// New creates a gateway over the given bridge.
func New(b *bridge.Bridge, opts ...Option) (*Gateway, error) {
	if b == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Gateway", "New",
			"bridge is required")
	}

	g := &Gateway{
		addr:   DefaultAddr,
		bridge: b,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}

	if g.enableWS {
		g.feed = newEnvelopeFeed(g.logger)
	}

	return g, nil
}

// Handler returns the gateway's route set. Useful for embedding into an
// existing server; Start uses it internally.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", g.handleStatus)
	if g.monitor != nil {
		mux.HandleFunc("/api/v1/health", g.handleHealth)
	}
	if g.registry != nil {
		mux.Handle("/metrics", g.registry.Handler())
	}
	if g.feed != nil {
		mux.HandleFunc("/ws", g.feed.handleConnect)
	}
	return mux
}

// Start begins serving in the background.
func (g *Gateway) Start(_ context.Context) error {
	if !g.running.CompareAndSwap(false, true) {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Gateway", "Start",
			"gateway already running")
	}

	g.mu.Lock()
	g.startTime = time.Now()
	g.httpServer = &http.Server{
		Addr:         g.addr,
		Handler:      g.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	server := g.httpServer
	g.mu.Unlock()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			g.logger.Error("gateway server error", "error", err)
		}
	}()

	g.logger.Info("gateway started", "addr", g.addr, "websocket", g.enableWS)
	return nil
}

// Stop shuts the server down gracefully, closing any feed clients.
func (g *Gateway) Stop(timeout time.Duration) error {
	if !g.running.CompareAndSwap(true, false) {
		return nil
	}

	if g.feed != nil {
		g.feed.closeAll()
	}

	g.mu.RLock()
	server := g.httpServer
	g.mu.RUnlock()
	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.WrapTransient(err, "Gateway", "Stop", "server shutdown")
	}
	return nil
}

// WatchTopic subscribes the websocket feed to one bus topic. Envelopes
// arriving on it are forwarded to every connected feed client.
func (g *Gateway) WatchTopic(ctx context.Context, commType message.CommunicationType, componentID string) error {
	if g.feed == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Gateway", "WatchTopic",
			"websocket feed not enabled")
	}

	topic := g.bridge.Topic(commType, componentID)
	return g.bridge.Subscribe(ctx, topic, func(_ context.Context, env *message.Envelope) {
		g.feed.broadcast(topic, env)
	})
}

// StatusResponse is the JSON body of GET /api/v1/status.
type StatusResponse struct {
	Gateway GatewayStatus       `json:"gateway"`
	Bridge  bridge.BridgeStatus `json:"bridge"`
}

// GatewayStatus reports the gateway's own counters.
type GatewayStatus struct {
	Addr           string  `json:"addr"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	RequestsTotal  uint64  `json:"requests_total"`
	RequestsFailed uint64  `json:"requests_failed"`
	FeedClients    int     `json:"feed_clients"`
}

func (g *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	g.requestsTotal.Add(1)
	g.mu.Lock()
	g.lastActivity = time.Now()
	startTime := g.startTime
	g.mu.Unlock()

	if r.Method != http.MethodGet {
		g.requestsFailed.Add(1)
		g.writeError(w, http.StatusMethodNotAllowed,
			fmt.Sprintf("method %s not allowed", r.Method))
		return
	}

	feedClients := 0
	if g.feed != nil {
		feedClients = g.feed.clientCount()
	}

	resp := StatusResponse{
		Gateway: GatewayStatus{
			Addr:           g.addr,
			UptimeSeconds:  time.Since(startTime).Seconds(),
			RequestsTotal:  g.requestsTotal.Load(),
			RequestsFailed: g.requestsFailed.Load(),
			FeedClients:    feedClients,
		},
		Bridge: g.bridge.Status(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		g.logger.Error("status encode failed", "error", err)
	}
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	g.requestsTotal.Add(1)

	if r.Method != http.MethodGet {
		g.requestsFailed.Add(1)
		g.writeError(w, http.StatusMethodNotAllowed,
			fmt.Sprintf("method %s not allowed", r.Method))
		return
	}

	status := g.monitor.AggregateHealth(g.bridge.Name())

	code := http.StatusOK
	if status.IsUnhealthy() {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		g.logger.Error("health encode failed", "error", err)
	}
}

// writeError writes a JSON error body without exposing internal detail.
func (g *Gateway) writeError(w http.ResponseWriter, statusCode int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	body := map[string]any{
		"error":  msg,
		"status": statusCode,
	}
	data, _ := json.Marshal(body)
	w.Write(data)
}
