package pattern

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360/componentbus/communicator"
	"github.com/c360/componentbus/errors"
	"github.com/c360/componentbus/message"
	"github.com/c360/componentbus/metric"
)

// DefaultRequestTimeout bounds SendRequest when the caller passes no timeout.
const DefaultRequestTimeout = 5 * time.Second

// responseAction is the reserved coordination action carrying replies.
const responseAction = "response"

// RequestHandler processes one request on the responder side. The returned
// map is wrapped into a response envelope carrying the request's correlation
// id. A returned error becomes an error response instead.
type RequestHandler func(ctx context.Context, sourceID string, data map[string]any) (map[string]any, error)

// RequestResponse layers a blocking request-response exchange on top of
// coordination envelopes. Requests carry a unique correlation id; the
// responder's reply carries the same id back, which wakes the pending
// caller. Concurrent requests use independent ids and never block one
// another.
type RequestResponse struct {
	comm    *communicator.Communicator
	logger  *slog.Logger
	metrics *metric.Metrics
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]chan map[string]any
}

// RequestResponseOption configures the pattern
type RequestResponseOption func(*RequestResponse)

// WithDefaultTimeout sets the timeout used when SendRequest receives zero
func WithDefaultTimeout(d time.Duration) RequestResponseOption {
	return func(rr *RequestResponse) {
		if d > 0 {
			rr.timeout = d
		}
	}
}

// WithRequestLogger sets the logger
func WithRequestLogger(logger *slog.Logger) RequestResponseOption {
	return func(rr *RequestResponse) {
		if logger != nil {
			rr.logger = logger
		}
	}
}

// WithRequestMetrics wires request counters into a metrics bundle
func WithRequestMetrics(m *metric.Metrics) RequestResponseOption {
	return func(rr *RequestResponse) {
		rr.metrics = m
	}
}

// NewRequestResponse creates the pattern over a communicator. It claims the
// reserved "response" coordination action on that communicator.
func NewRequestResponse(comm *communicator.Communicator, opts ...RequestResponseOption) (*RequestResponse, error) {
	if comm == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("communicator is required"),
			"RequestResponse", "NewRequestResponse", "communicator validation")
	}

	rr := &RequestResponse{
		comm:    comm,
		logger:  slog.Default(),
		timeout: DefaultRequestTimeout,
		pending: make(map[string]chan map[string]any),
	}
	for _, opt := range opts {
		opt(rr)
	}
	rr.logger = rr.logger.With("component", comm.ComponentID())

	comm.RegisterCoordinationHandler(responseAction, rr.handleResponse)
	return rr, nil
}

// RegisterRequestHandler maps an action name to a handler on the responder
// side. Registering the same action again replaces the previous handler.
func (rr *RequestResponse) RegisterRequestHandler(action string, handler RequestHandler) {
	rr.comm.RegisterCoordinationHandler(action, func(ctx context.Context, env *message.Envelope, data *message.CoordinationData) {
		result, err := handler(ctx, env.SourceID, data.Params)
		if err != nil {
			rr.logger.Warn("request handler failed",
				"action", action, "source", env.SourceID, "error", err)
			result = map[string]any{"error": err.Error()}
		}

		if env.CorrelationID == "" {
			// Fire-and-forget coordination, nothing to reply to
			return
		}

		ok := rr.comm.SendCoordination(ctx,
			env.SourceID,
			string(message.CoordStateSync),
			responseAction,
			result,
			message.WithCorrelationID(env.CorrelationID),
		)
		if !ok {
			rr.logger.Warn("response did not publish",
				"action", action, "target", env.SourceID, "correlation_id", env.CorrelationID)
		}
	})
}

// handleResponse wakes the caller waiting on the response's correlation id.
// Responses with no pending request (late arrivals after timeout) drop.
func (rr *RequestResponse) handleResponse(_ context.Context, env *message.Envelope, data *message.CoordinationData) {
	rr.mu.Lock()
	ch, ok := rr.pending[env.CorrelationID]
	if ok {
		delete(rr.pending, env.CorrelationID)
	}
	rr.mu.Unlock()

	if !ok {
		rr.logger.Debug("late response dropped",
			"correlation_id", env.CorrelationID, "source", env.SourceID)
		return
	}
	ch <- data.Params
}

// SendRequest publishes a request and blocks until the matching response
// arrives or the timeout elapses. Returns (false, nil) on timeout or when
// the request fails to publish; a zero timeout uses the default. The only
// cancellation is timeout expiry.
func (rr *RequestResponse) SendRequest(
	ctx context.Context,
	targetID, action string,
	data map[string]any,
	timeout time.Duration,
) (bool, map[string]any) {
	if timeout <= 0 {
		timeout = rr.timeout
	}

	correlationID := uuid.New().String()
	ch := make(chan map[string]any, 1)

	rr.mu.Lock()
	rr.pending[correlationID] = ch
	rr.mu.Unlock()

	if rr.metrics != nil {
		rr.metrics.RequestsSent.WithLabelValues(rr.comm.ComponentID(), action).Inc()
	}

	ok := rr.comm.SendCoordination(ctx,
		targetID,
		string(message.CoordStateSync),
		action,
		data,
		message.WithCorrelationID(correlationID),
	)
	if !ok {
		rr.abandon(correlationID)
		rr.logger.Warn("request did not publish",
			"action", action, "target", targetID, "correlation_id", correlationID)
		return false, nil
	}

	select {
	case response := <-ch:
		if rr.metrics != nil {
			rr.metrics.RequestsCompleted.WithLabelValues(rr.comm.ComponentID(), action).Inc()
		}
		return true, response
	case <-time.After(timeout):
		rr.abandon(correlationID)
		if rr.metrics != nil {
			rr.metrics.RequestsTimedOut.WithLabelValues(rr.comm.ComponentID(), action).Inc()
		}
		rr.logger.Warn("request timed out",
			"action", action, "target", targetID,
			"correlation_id", correlationID, "timeout", timeout)
		return false, nil
	}
}

func (rr *RequestResponse) abandon(correlationID string) {
	rr.mu.Lock()
	delete(rr.pending, correlationID)
	rr.mu.Unlock()
}

// Pending returns the number of requests still awaiting a response
func (rr *RequestResponse) Pending() int {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return len(rr.pending)
}
