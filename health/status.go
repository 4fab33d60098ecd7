// Package health tracks the liveness of components from the state and
// error traffic they put on the bus.
package health

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/c360/componentbus/message"
)

// Pre-compiled regexes for error message sanitization
var (
	urlRegex        = regexp.MustCompile(`(?:https?|nats|wss?)://[^\s]+`)
	ipAddrRegex     = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	credentialRegex = regexp.MustCompile(`(?i)(password|token|key|secret|credential)[^a-zA-Z]*[:=][^,\s}]+`)
)

// lowBatteryThreshold marks a component degraded below this charge
// percentage.
const lowBatteryThreshold = 20.0

// Status represents the health state of a component or of the whole bus.
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	Status      string    `json:"status"` // "healthy", "unhealthy", "degraded"
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
}

// IsHealthy returns true if the status is healthy
func (s Status) IsHealthy() bool {
	return s.Status == "healthy"
}

// IsDegraded returns true if the status is degraded
func (s Status) IsDegraded() bool {
	return s.Status == "degraded"
}

// IsUnhealthy returns true if the status is unhealthy
func (s Status) IsUnhealthy() bool {
	return s.Status == "unhealthy"
}

// NewHealthy creates a new healthy status
func NewHealthy(component, message string) Status {
	return Status{
		Component: component,
		Healthy:   true,
		Status:    "healthy",
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewUnhealthy creates a new unhealthy status
func NewUnhealthy(component, message string) Status {
	return Status{
		Component: component,
		Healthy:   false,
		Status:    "unhealthy",
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewDegraded creates a new degraded status
func NewDegraded(component, message string) Status {
	return Status{
		Component: component,
		Healthy:   false,
		Status:    "degraded",
		Message:   message,
		Timestamp: time.Now(),
	}
}

// FromComponentState derives a health status from a state snapshot.
// Inactive components are unhealthy; a low battery degrades an otherwise
// active component.
func FromComponentState(state *message.ComponentState) Status {
	if state == nil {
		return NewUnhealthy("", "no state reported")
	}

	if !state.Active {
		return NewUnhealthy(state.ComponentID, "component inactive")
	}

	if state.BatteryLevel < lowBatteryThreshold {
		return NewDegraded(state.ComponentID,
			fmt.Sprintf("battery low: %.0f%%", state.BatteryLevel))
	}

	return NewHealthy(state.ComponentID, "component active")
}

// FromErrorReport derives a health status from an error message on the
// bus. Recoverable errors degrade; everything else is unhealthy. The error
// text is sanitized before it can reach an external surface.
func FromErrorReport(report *message.ErrorMessage) Status {
	msg := sanitizeErrorMessage(report.ErrorMessage)
	if report.Recoverable {
		return NewDegraded(report.ComponentID, msg)
	}
	return NewUnhealthy(report.ComponentID, msg)
}

// Aggregate creates a status by aggregating sub-statuses
// The aggregation rules are:
// - If all sub-statuses are healthy, the aggregate is healthy
// - If any sub-status is unhealthy, the aggregate is unhealthy
// - If no sub-status is unhealthy but at least one is degraded, the aggregate is degraded
func Aggregate(component string, subStatuses []Status) Status {
	if len(subStatuses) == 0 {
		return NewHealthy(component, "No components to aggregate")
	}

	hasUnhealthy := false
	hasDegraded := false

	for _, sub := range subStatuses {
		if sub.IsUnhealthy() {
			hasUnhealthy = true
		} else if sub.IsDegraded() {
			hasDegraded = true
		}
	}

	var status Status
	switch {
	case hasUnhealthy:
		status = NewUnhealthy(component, "One or more components are unhealthy")
	case hasDegraded:
		status = NewDegraded(component, "One or more components are degraded")
	default:
		status = NewHealthy(component, "All components are healthy")
	}

	status.SubStatuses = make([]Status, len(subStatuses))
	copy(status.SubStatuses, subStatuses)

	return status
}

// sanitizeErrorMessage strips URLs, addresses, and credential-looking
// fragments from error text before it is exposed outside the bus.
func sanitizeErrorMessage(err string) string {
	if err == "" {
		return "error reported"
	}

	sanitized := urlRegex.ReplaceAllString(err, "[URL]")
	sanitized = ipAddrRegex.ReplaceAllString(sanitized, "[IP]")

	lower := strings.ToLower(sanitized)
	if strings.Contains(lower, "password") || strings.Contains(lower, "token") ||
		strings.Contains(lower, "key") || strings.Contains(lower, "secret") ||
		strings.Contains(lower, "credential") {
		sanitized = credentialRegex.ReplaceAllString(sanitized, "[REDACTED]")
	}

	return sanitized
}
