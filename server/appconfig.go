package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
)

// AppConfig defines application configuration loaded from files and environment.
type AppConfig struct {
	Env      string           `koanf:"env"`
	Database DatabaseConfig   `koanf:"database"`
	Auth     AuthConfig       `koanf:"auth"`
	Valkey   ValkeyConfig     `koanf:"valkey"`
	Revoke   RevocationConfig `koanf:"revocation"`
}

type DatabaseConfig struct {
	DSN string `koanf:"dsn"`
}

// AuthConfig carries the credential-signing settings. It is read once at
// startup into an immutable generates.TokenConfig; request handling never
// reads the secret from the environment.
type AuthConfig struct {
	Secret      string        `koanf:"secret"`
	KeyID       string        `koanf:"key_id"`
	TokenExpiry time.Duration `koanf:"token_expiry"`
}

type ValkeyConfig struct {
	Addr   string `koanf:"addr"`
	Prefix string `koanf:"prefix"`
}

// RevocationConfig selects the deny-list backend. When no valkey address is
// configured the embedded buntdb store is used.
type RevocationConfig struct {
	BuntPath string `koanf:"bunt_path"`
}

// LoadConfig loads configuration. Loading order:
// 1) config/config.yaml (optional)
// 2) config/config.<APP_ENV>.yaml (optional), APP_ENV defaults to "local"
// 3) Environment variables with prefix CREWDESK_ mapped using __ as nested
// separator, e.g. CREWDESK_AUTH__SECRET, CREWDESK_DATABASE__DSN
func LoadConfig() (*AppConfig, error) {
	k := koanf.New(".")
	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "config"
	}
	// Whether to load files (default: disabled to keep tests isolated)
	loadFiles := strings.EqualFold(os.Getenv("APP_CONFIG_FILES"), "1") || strings.EqualFold(os.Getenv("APP_CONFIG_FILES"), "true")
	if loadFiles {
		base := filepath.Join(configDir, "config.yaml")
		if _, err := os.Stat(base); err == nil {
			if err := k.Load(file.Provider(base), yaml.Parser()); err != nil {
				logrus.WithError(err).Warn("config: failed loading base file")
			}
		}
	}
	envName := os.Getenv("APP_ENV")
	if envName == "" {
		envName = "local"
	}
	if loadFiles {
		envFile := filepath.Join(configDir, "config."+envName+".yaml")
		if _, err := os.Stat(envFile); err == nil {
			if err := k.Load(file.Provider(envFile), yaml.Parser()); err != nil {
				logrus.WithError(err).Warn("config: failed loading env file")
			}
		}
	}
	// CREWDESK_AUTH__SECRET -> auth.secret
	if err := k.Load(env.Provider("CREWDESK_", "__", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "CREWDESK_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	var c AppConfig
	if err := k.Unmarshal("", &c); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if c.Env == "" {
		c.Env = envName
	}
	return &c, nil
}

// DatabaseDSN returns the effective database DSN (config first, then env).
func (c *AppConfig) DatabaseDSN() string {
	if c != nil && c.Database.DSN != "" {
		return strings.TrimSpace(c.Database.DSN)
	}
	return strings.TrimSpace(os.Getenv("DB_DSN"))
}

// AuthSecret returns the effective signing secret (config first, then env).
func (c *AppConfig) AuthSecret() string {
	if c != nil && c.Auth.Secret != "" {
		return strings.TrimSpace(c.Auth.Secret)
	}
	return strings.TrimSpace(os.Getenv("AUTH_SECRET"))
}
