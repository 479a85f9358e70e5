// Package config provides configuration management for go-tyggbot.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

var AppVersion = "-unset-" // will be set at build time

const (
	// Privilege levels used by the admin panel
	LevelAdminPanel = 500  // minimum level to reach any /admin route
	LevelMaximum    = 2000 // highest assignable user level

	DefaultFlashTTL       = 10 * time.Minute
	DefaultNotifyTimeout  = 2 * time.Second
	DefaultUpdatesChannel = "tyggbot:updates"
)

// MainConfig holds the main configuration for go-tyggbot
type MainConfig struct {
	// Web interface settings
	Web WebConfig `json:"web"`

	// Database settings
	Database DatabaseConfig `json:"database"`

	// Valkey (live update channel + flash store), optional
	Valkey ValkeyConfig `json:"valkey"`

	Logging LoggingConfig `json:"logging"`

	AppVersion string `json:"app_version"` // Application version, set at build time
}

// WebConfig holds web interface configuration
type WebConfig struct {
	ListenPort int    `json:"listen_port"`
	SSL        bool   `json:"ssl"`
	CertFile   string `json:"cert_file,omitempty"`
	KeyFile    string `json:"key_file,omitempty"`
	Debug      bool   `json:"debug"` // Enable gin debug mode and access log

	// MetricsAPIKey protects /metrics when set
	MetricsAPIKey string `json:"metrics_api_key,omitempty"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	DataDir string `json:"data_dir"` // main database lives in <DataDir>/cfg/tyggbot.sq3
}

// ValkeyConfig holds the connection used for the live update channel.
// An empty Addr disables valkey: updates are only logged and flash values stay in memory.
type ValkeyConfig struct {
	Addr          string        `json:"addr"`
	Password      string        `json:"password"`
	DB            int           `json:"db"`
	Channel       string        `json:"channel"`
	FlashTTL      time.Duration `json:"flash_ttl"`
	NotifyTimeout time.Duration `json:"notify_timeout"`
}

// Enabled reports whether a valkey server is configured
func (v ValkeyConfig) Enabled() bool {
	return strings.TrimSpace(v.Addr) != ""
}

// LoggingConfig controls the slog handler
type LoggingConfig struct {
	Level      string `json:"level"`
	LogDir     string `json:"log_dir"` // empty logs to stdout only
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *MainConfig {
	return &MainConfig{
		AppVersion: AppVersion,
		Web: WebConfig{
			ListenPort: 11990,
			SSL:        false,
		},
		Database: DatabaseConfig{
			DataDir: "./data",
		},
		Valkey: ValkeyConfig{
			Channel:       DefaultUpdatesChannel,
			FlashTTL:      DefaultFlashTTL,
			NotifyTimeout: DefaultNotifyTimeout,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 14,
			Compress:   true,
		},
	}
}

// ApplyEnv overrides config values from TYGG_* environment variables.
// Unparseable numbers are logged and ignored.
func (c *MainConfig) ApplyEnv() {
	if v, ok := lookupEnv("TYGG_WEB_PORT"); ok {
		c.Web.ListenPort = envInt("TYGG_WEB_PORT", v, c.Web.ListenPort)
	}
	if v, ok := lookupEnv("TYGG_WEB_SSL"); ok {
		c.Web.SSL = envBool(v)
	}
	if v, ok := lookupEnv("TYGG_WEB_CERT"); ok {
		c.Web.CertFile = v
	}
	if v, ok := lookupEnv("TYGG_WEB_KEY"); ok {
		c.Web.KeyFile = v
	}
	if v, ok := lookupEnv("TYGG_WEB_DEBUG"); ok {
		c.Web.Debug = envBool(v)
	}
	if v, ok := lookupEnv("TYGG_METRICS_API_KEY"); ok {
		c.Web.MetricsAPIKey = v
	}
	if v, ok := lookupEnv("TYGG_DATA_DIR"); ok {
		c.Database.DataDir = v
	}
	if v, ok := lookupEnv("TYGG_VALKEY_ADDR"); ok {
		c.Valkey.Addr = v
	}
	if v, ok := lookupEnv("TYGG_VALKEY_PASSWORD"); ok {
		c.Valkey.Password = v
	}
	if v, ok := lookupEnv("TYGG_VALKEY_DB"); ok {
		c.Valkey.DB = envInt("TYGG_VALKEY_DB", v, c.Valkey.DB)
	}
	if v, ok := lookupEnv("TYGG_VALKEY_CHANNEL"); ok {
		c.Valkey.Channel = v
	}
	if v, ok := lookupEnv("TYGG_FLASH_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Valkey.FlashTTL = d
		} else {
			slog.Warn("ignoring invalid env value", "key", "TYGG_FLASH_TTL", "value", v)
		}
	}
	if v, ok := lookupEnv("TYGG_LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := lookupEnv("TYGG_LOG_DIR"); ok {
		c.Logging.LogDir = v
	}
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func envInt(key, value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("ignoring invalid env value", "key", key, "value", value)
		return fallback
	}
	return n
}

func envBool(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
