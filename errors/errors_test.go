package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.class.String(); got != tt.expected {
			t.Errorf("ErrorClass(%d).String() = %q, want %q", tt.class, got, tt.expected)
		}
	}
}

func TestClassifiedError_Error(t *testing.T) {
	base := errors.New("boom")

	withMessage := &ClassifiedError{Class: ErrorFatal, Err: base, Message: "bridge.Publish: dispatch failed"}
	if withMessage.Error() != "bridge.Publish: dispatch failed" {
		t.Errorf("expected message to take precedence, got %q", withMessage.Error())
	}

	withoutMessage := &ClassifiedError{Class: ErrorFatal, Err: base}
	if withoutMessage.Error() != "boom" {
		t.Errorf("expected underlying error text, got %q", withoutMessage.Error())
	}
}

func TestClassifiedError_Unwrap(t *testing.T) {
	base := errors.New("boom")
	ce := &ClassifiedError{Class: ErrorTransient, Err: base}

	if !errors.Is(ce, base) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"connection timeout", ErrConnectionTimeout, true},
		{"connection lost", ErrConnectionLost, true},
		{"request timeout", ErrRequestTimeout, true},
		{"topic unavailable", ErrTopicUnavailable, true},
		{"context deadline", context.DeadlineExceeded, true},
		{"context canceled", context.Canceled, true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: errors.New("x")}, true},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: errors.New("x")}, false},
		{"pattern match", errors.New("backend temporarily unavailable"), true},
		{"plain error", errors.New("something else entirely"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.expected {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(ErrInvalidConfig) {
		t.Error("ErrInvalidConfig should be fatal")
	}
	if !IsFatal(ErrMissingConfig) {
		t.Error("ErrMissingConfig should be fatal")
	}
	if IsFatal(nil) {
		t.Error("nil should not be fatal")
	}
	if IsFatal(ErrRequestTimeout) {
		t.Error("request timeout should not be fatal")
	}
	if !IsFatal(&ClassifiedError{Class: ErrorFatal, Err: errors.New("x")}) {
		t.Error("classified fatal should be fatal")
	}
}

func TestIsInvalid(t *testing.T) {
	if !IsInvalid(ErrMalformedPayload) {
		t.Error("ErrMalformedPayload should be invalid")
	}
	if !IsInvalid(fmt.Errorf("decode: %w", ErrMalformedPayload)) {
		t.Error("wrapped ErrMalformedPayload should be invalid")
	}
	if IsInvalid(nil) {
		t.Error("nil should not be invalid")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil defaults transient", nil, ErrorTransient},
		{"timeout", ErrRequestTimeout, ErrorTransient},
		{"config", ErrInvalidConfig, ErrorFatal},
		{"malformed", ErrMalformedPayload, ErrorInvalid},
		{"unknown defaults transient", errors.New("who knows"), ErrorTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.expected {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("connection refused")
	wrapped := Wrap(base, "bridge", "Publish", "backend dispatch")

	if wrapped == nil {
		t.Fatal("expected non-nil wrapped error")
	}
	if !strings.Contains(wrapped.Error(), "bridge.Publish: backend dispatch failed") {
		t.Errorf("unexpected wrap format: %q", wrapped.Error())
	}
	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should match base with errors.Is")
	}
	if Wrap(nil, "a", "b", "c") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestWrapClassifiers(t *testing.T) {
	base := errors.New("boom")

	if got := Classify(WrapTransient(base, "c", "m", "a")); got != ErrorTransient {
		t.Errorf("WrapTransient classified as %v", got)
	}
	if got := Classify(WrapInvalid(base, "c", "m", "a")); got != ErrorInvalid {
		t.Errorf("WrapInvalid classified as %v", got)
	}
	if got := Classify(WrapFatal(base, "c", "m", "a")); got != ErrorFatal {
		t.Errorf("WrapFatal classified as %v", got)
	}
	if WrapTransient(nil, "c", "m", "a") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestMalformed(t *testing.T) {
	err := Malformed("robotics.motion.v1", errors.New("unexpected end of JSON input"))

	if !errors.Is(err, ErrMalformedPayload) {
		t.Error("Malformed should wrap ErrMalformedPayload")
	}
	if !IsInvalid(err) {
		t.Error("Malformed should classify invalid")
	}
	if !strings.Contains(err.Error(), "robotics.motion.v1") {
		t.Errorf("Malformed should name the offending type, got %q", err.Error())
	}
}
