package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/componentbus/bridge"
	"github.com/c360/componentbus/message"
)

// DefaultStaleAfter marks a component degraded when its last state
// snapshot is older than this.
const DefaultStaleAfter = 30 * time.Second

// Monitor tracks health of multiple components in a thread-safe manner
type Monitor struct {
	mu         sync.RWMutex
	statuses   map[string]Status
	staleAfter time.Duration
}

// NewMonitor creates a new health monitor
func NewMonitor() *Monitor {
	return &Monitor{
		statuses:   make(map[string]Status),
		staleAfter: DefaultStaleAfter,
	}
}

// SetStaleAfter changes the staleness threshold. Zero disables stale
// detection.
func (m *Monitor) SetStaleAfter(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staleAfter = d
}

// Update updates the health status for a named component
func (m *Monitor) Update(name string, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}

	m.statuses[name] = status
}

// Get retrieves the health status for a named component
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, exists := m.statuses[name]
	return status, exists
}

// GetAll returns a copy of all current health statuses, with staleness
// applied.
func (m *Monitor) GetAll() map[string]Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]Status, len(m.statuses))
	for name, status := range m.statuses {
		result[name] = m.applyStaleness(status)
	}
	return result
}

// Remove removes a component from monitoring
func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.statuses, name)
}

// AggregateHealth returns one status covering every tracked component.
func (m *Monitor) AggregateHealth(systemName string) Status {
	all := m.GetAll()

	subStatuses := make([]Status, 0, len(all))
	for _, status := range all {
		subStatuses = append(subStatuses, status)
	}

	return Aggregate(systemName, subStatuses)
}

// applyStaleness degrades a healthy status whose snapshot has gone quiet.
// Callers hold at least a read lock.
func (m *Monitor) applyStaleness(status Status) Status {
	if m.staleAfter <= 0 || !status.IsHealthy() {
		return status
	}
	if time.Since(status.Timestamp) > m.staleAfter {
		stale := NewDegraded(status.Component, "no state update within stale window")
		stale.Timestamp = status.Timestamp
		return stale
	}
	return status
}

// Watch feeds the monitor from a component's bus traffic: state snapshots
// refresh its status, error reports override it until the next snapshot.
func (m *Monitor) Watch(ctx context.Context, b *bridge.Bridge, componentID string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	stateTopic := b.Topic(message.CommTypeState, componentID)
	err := b.Subscribe(ctx, stateTopic, func(_ context.Context, env *message.Envelope) {
		payload, err := env.DecodePayload(b.Registry())
		if err != nil {
			logger.Debug("undecodable state payload", "component", componentID, "error", err)
			return
		}
		state, ok := payload.(*message.ComponentState)
		if !ok {
			return
		}
		m.Update(componentID, FromComponentState(state))
	})
	if err != nil {
		return err
	}

	errorTopic := b.Topic(message.CommTypeError, componentID)
	return b.Subscribe(ctx, errorTopic, func(_ context.Context, env *message.Envelope) {
		payload, err := env.DecodePayload(b.Registry())
		if err != nil {
			logger.Debug("undecodable error payload", "component", componentID, "error", err)
			return
		}
		report, ok := payload.(*message.ErrorMessage)
		if !ok {
			return
		}
		m.Update(componentID, FromErrorReport(report))
	})
}
