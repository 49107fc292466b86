package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Well-known keys.
const (
	KeyAPIEndpoint       = "api_endpoint"
	KeyCredentialsPath   = "credentials_path"
	KeyClientSecretsPath = "client_secrets_path"
	KeyDefaultProject    = "default_project"
	KeyAudience          = "audience"
)

// Environment variables that take precedence over the file.
const (
	EnvAPIEndpoint   = "GCPHCP_API_ENDPOINT"
	EnvClientSecrets = "GCPHCP_CLIENT_SECRETS"
)

// DefaultAPIEndpoint is used when no endpoint is configured.
const DefaultAPIEndpoint = "https://api.gcphcp.example.com"

const credentialsFileName = "credentials.json"

// APIEndpoint returns the API base URL.
func (c *Config) APIEndpoint() string {
	if v := os.Getenv(EnvAPIEndpoint); v != "" {
		return v
	}
	return c.stringOr(KeyAPIEndpoint, DefaultAPIEndpoint)
}

// CredentialsPath returns where OAuth credentials are stored.
func (c *Config) CredentialsPath() string {
	if v := c.stringOr(KeyCredentialsPath, ""); v != "" {
		return expandHome(v)
	}
	dir, err := GetUserConfigDir()
	if err != nil {
		return credentialsFileName
	}
	return filepath.Join(dir, credentialsFileName)
}

// ClientSecretsPath returns the OAuth client secrets file, or "" when none is
// configured.
func (c *Config) ClientSecretsPath() string {
	if v := os.Getenv(EnvClientSecrets); v != "" {
		return expandHome(v)
	}
	return expandHome(c.stringOr(KeyClientSecretsPath, ""))
}

// DefaultProject returns the project used when a command gets none.
func (c *Config) DefaultProject() string {
	return c.stringOr(KeyDefaultProject, "")
}

// Audience returns the configured identity token audience.
func (c *Config) Audience() string {
	return c.stringOr(KeyAudience, "")
}

func (c *Config) stringOr(key, def string) string {
	v, ok := c.Get(key)
	if !ok || v == nil {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return FormatValue(v)
	}
	if s == "" {
		return def
	}
	return s
}

// ParseValue converts a command line value to the type stored in the file:
// true/false become booleans, digit strings become integers.
func ParseValue(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if s != "" && strings.Trim(s, "0123456789") == "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return s
}

// FormatValue renders a stored value for display.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	default:
		return strings.TrimSpace(mustYAML(t))
	}
}

// IsSensitiveKey reports whether a key holds a secret that should not be
// printed.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "secret") || strings.Contains(k, "token")
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := osUserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
