package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"gcphcp/pkg/logging"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir

const (
	userConfigDir  = ".gcphcp"
	configFileName = "config.yaml"
)

// Config is the user's configuration file, addressed with dotted keys such
// as "api_endpoint" or "defaults.region".
type Config struct {
	path string
	data map[string]any
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir() // Use mockable variable
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

// DefaultPath returns the location of the user configuration file.
func DefaultPath() (string, error) {
	return getUserConfigPath()
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig reads the configuration at path, or at the default location
// when path is empty. A missing or unreadable file yields an empty
// configuration; only a failure to determine the default path is an error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := getUserConfigPath()
		if err != nil {
			return nil, fmt.Errorf("could not determine user config path: %w", err)
		}
		path = p
	}

	cfg := &Config{path: path, data: map[string]any{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logging.Debug("Config", "Configuration file does not exist: %s", path)
		return cfg, nil
	}
	if err != nil {
		logging.Warn("Config", "Failed to read configuration from %s: %v", path, err)
		return cfg, nil
	}

	var loaded map[string]any
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		logging.Warn("Config", "Failed to load configuration from %s: %v", path, err)
		return cfg, nil
	}
	if loaded != nil {
		cfg.data = loaded
	}
	logging.Debug("Config", "Loaded configuration from %s", path)
	return cfg, nil
}

// Path returns the file the configuration is read from and saved to.
func (c *Config) Path() string {
	return c.path
}

// Get returns the value at a dotted key.
func (c *Config) Get(key string) (any, bool) {
	var cur any = c.data
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set stores value at a dotted key, creating intermediate sections.
func (c *Config) Set(key string, value any) error {
	parts := strings.Split(key, ".")
	m := c.data
	for i, part := range parts[:len(parts)-1] {
		next, exists := m[part]
		if !exists {
			child := map[string]any{}
			m[part] = child
			m = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot set %s: %s is not a section", key, strings.Join(parts[:i+1], "."))
		}
		m = child
	}
	m[parts[len(parts)-1]] = value
	return nil
}

// Unset removes a dotted key and reports whether it existed.
func (c *Config) Unset(key string) bool {
	parts := strings.Split(key, ".")
	m := c.data
	for _, part := range parts[:len(parts)-1] {
		child, ok := m[part].(map[string]any)
		if !ok {
			return false
		}
		m = child
	}
	last := parts[len(parts)-1]
	if _, ok := m[last]; !ok {
		return false
	}
	delete(m, last)
	return true
}

// All returns a shallow copy of the top-level values.
func (c *Config) All() map[string]any {
	return maps.Clone(c.data)
}

// Save writes the configuration, creating the directory if needed.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c.data)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to save configuration to %s: %w", c.path, err)
	}
	logging.Debug("Config", "Saved configuration to %s", c.path)
	return nil
}

func mustYAML(v any) string {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
