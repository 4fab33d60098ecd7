// Package config provides application configuration with validation and
// thread-safe access.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode"

	"github.com/c360/componentbus/bridge"
)

// Config is the root application configuration.
type Config struct {
	Platform PlatformConfig `json:"platform"`
	Bridge   BridgeConfig   `json:"bridge"`
	NATS     NATSConfig     `json:"nats,omitempty"`
	Gateway  GatewayConfig  `json:"gateway,omitempty"`
}

// PlatformConfig identifies the deployment this process belongs to.
type PlatformConfig struct {
	ID          string `json:"id"`
	Environment string `json:"environment,omitempty"`
}

// BridgeConfig controls the message bridge and its backend selection.
type BridgeConfig struct {
	Name           string `json:"name"`
	UseMock        bool   `json:"use_mock"`
	TopicNamespace string `json:"topic_namespace,omitempty"`
	BufferSize     int    `json:"buffer_size,omitempty"`
}

// NATSConfig configures the NATS transport. Ignored when the bridge runs
// on the mock backend.
type NATSConfig struct {
	URLs          []string      `json:"urls,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty"`
	Username      string        `json:"username,omitempty"`
	Password      string        `json:"password,omitempty"`
	Token         string        `json:"token,omitempty"`
}

// GatewayConfig configures the HTTP status gateway.
type GatewayConfig struct {
	Enabled         bool   `json:"enabled"`
	Addr            string `json:"addr,omitempty"`
	EnableWebsocket bool   `json:"enable_websocket,omitempty"`
}

// SafeConfig provides thread-safe access to configuration.
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper.
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = &Config{}
	}
	return &SafeConfig{config: cfg}
}

// Get returns a deep copy of the current configuration.
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically replaces the configuration after validation.
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg.Clone()
	return nil
}

// Clone returns a deep copy via a JSON round trip. Falls back to a
// shallow copy if marshaling fails.
func (c *Config) Clone() *Config {
	data, err := json.Marshal(c)
	if err != nil {
		clone := *c
		return &clone
	}
	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		shallow := *c
		return &shallow
	}
	return &clone
}

// ApplyDefaults fills in zero-valued fields that have sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Bridge.TopicNamespace == "" {
		c.Bridge.TopicNamespace = bridge.DefaultTopicNamespace
	}
	if c.Platform.Environment == "" {
		c.Platform.Environment = "development"
	}
	if !c.Bridge.UseMock {
		if len(c.NATS.URLs) == 0 {
			c.NATS.URLs = []string{"nats://localhost:4222"}
		}
		if c.NATS.MaxReconnects == 0 {
			c.NATS.MaxReconnects = 10
		}
		if c.NATS.ReconnectWait == 0 {
			c.NATS.ReconnectWait = 2 * time.Second
		}
	}
	if c.Gateway.Enabled && c.Gateway.Addr == "" {
		c.Gateway.Addr = ":8080"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Platform.ID == "" {
		return errors.New("platform.id is required")
	}

	if c.Bridge.Name == "" {
		return errors.New("bridge.name is required")
	}
	if c.Bridge.TopicNamespace != "" && !isValidSubjectPart(c.Bridge.TopicNamespace) {
		return fmt.Errorf(
			"bridge.topic_namespace '%s' is not valid for NATS subjects (must be alphanumeric with dots, dashes, underscores)",
			c.Bridge.TopicNamespace,
		)
	}
	if c.Bridge.BufferSize < 0 {
		return fmt.Errorf("bridge.buffer_size must not be negative, got %d", c.Bridge.BufferSize)
	}

	if !c.Bridge.UseMock {
		if len(c.NATS.URLs) == 0 {
			return errors.New("nats.urls is required when bridge.use_mock is false")
		}
		for _, u := range c.NATS.URLs {
			if u == "" {
				return errors.New("nats.urls must not contain empty entries")
			}
		}
	}

	if c.Gateway.Enabled && c.Gateway.Addr == "" {
		return errors.New("gateway.addr is required when the gateway is enabled")
	}

	return nil
}

// isValidSubjectPart checks if a string is valid for use in NATS subjects.
// Valid characters are alphanumeric, dots, dashes, and underscores.
func isValidSubjectPart(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			r != '-' && r != '_' && r != '.' {
			return false
		}
	}
	return true
}
