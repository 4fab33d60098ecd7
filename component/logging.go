package component

import (
	"context"
	"log/slog"

	"github.com/c360/componentbus/communicator"
	"github.com/c360/componentbus/message"
	"github.com/c360/componentbus/pkg/timestamp"
)

// Logger provides structured logging for a component. It wraps a standard
// slog.Logger for local output and additionally publishes warnings and
// errors as ErrorMessage envelopes on the component's error topic, so peers
// and the dashboard see component faults as bus traffic.
type Logger struct {
	componentID string
	comm        *communicator.Communicator
	logger      *slog.Logger
}

// NewLogger creates a component logger. A nil communicator disables bus
// publishing; local logging still works.
func NewLogger(componentID string, comm *communicator.Communicator, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{
		componentID: componentID,
		comm:        comm,
		logger:      logger.With("component", componentID),
	}
}

// Debug logs a debug-level message locally
func (cl *Logger) Debug(msg string, args ...any) {
	cl.logger.Debug(msg, args...)
}

// Info logs an info-level message locally
func (cl *Logger) Info(msg string, args ...any) {
	cl.logger.Info(msg, args...)
}

// Warn logs a warning locally and publishes it on the error topic
func (cl *Logger) Warn(msg string, args ...any) {
	cl.logger.Warn(msg, args...)
	cl.publish(context.Background(), "warning", msg, nil, true)
}

// Error logs an error locally and publishes it on the error topic
func (cl *Logger) Error(msg string, err error, args ...any) {
	cl.logger.Error(msg, append(args, "error", err)...)
	cl.publish(context.Background(), "error", msg, err, false)
}

// ErrorContext is Error with context cancellation honored before publishing
func (cl *Logger) ErrorContext(ctx context.Context, msg string, err error, args ...any) {
	cl.logger.Error(msg, append(args, "error", err)...)
	cl.publish(ctx, "error", msg, err, false)
}

func (cl *Logger) publish(ctx context.Context, severity, msg string, cause error, recoverable bool) {
	if cl.comm == nil {
		return
	}

	select {
	case <-ctx.Done():
		return
	default:
	}

	report := &message.ErrorMessage{
		ComponentID:  cl.componentID,
		ErrorType:    "component",
		ErrorMessage: msg,
		Severity:     severity,
		Recoverable:  recoverable,
		Timestamp:    timestamp.Now(),
	}
	if cause != nil {
		report.ErrorMessage = msg + ": " + cause.Error()
	}

	// Best effort: a failed publish is already logged by the bridge
	cl.comm.SendError(ctx, report)
}
