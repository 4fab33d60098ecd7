package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	maxConfigSize = 1 << 20 // 1MB max config file size
	maxJSONDepth  = 32      // maximum JSON nesting depth
	maxPathLen    = 4096    // maximum file path length
)

// Load reads, parses, and validates a JSON configuration file. Defaults
// are applied before validation.
func Load(path string) (*Config, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := validateJSONDepth(data); err != nil {
		return nil, fmt.Errorf("invalid JSON structure: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validateConfigPath does basic path validation before reading.
func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("empty config path")
	}
	if len(path) > maxPathLen {
		return fmt.Errorf("path too long: %d > %d", len(path), maxPathLen)
	}

	if !strings.HasSuffix(path, ".json") {
		return fmt.Errorf("only JSON config files allowed: %s", path)
	}

	// Reject parent references that survive normalization.
	clean := filepath.Clean(path)
	if strings.Contains(filepath.ToSlash(clean), "..") {
		return fmt.Errorf("path traversal not allowed: %s", path)
	}

	return nil
}

// safeReadFile reads a config file with size and path validation.
func safeReadFile(path string) ([]byte, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d > %d bytes", info.Size(), maxConfigSize)
	}

	return os.ReadFile(path)
}

// validateJSONDepth rejects pathologically nested documents.
func validateJSONDepth(data []byte) error {
	depth := 0
	maxSeen := 0
	inString := false
	escaped := false

	for _, b := range data {
		if escaped {
			escaped = false
			continue
		}
		switch b {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				depth++
				if depth > maxSeen {
					maxSeen = depth
				}
			}
		case '}', ']':
			if !inString {
				depth--
			}
		}
	}

	if maxSeen > maxJSONDepth {
		return fmt.Errorf("JSON nesting too deep: %d > %d", maxSeen, maxJSONDepth)
	}
	return nil
}
