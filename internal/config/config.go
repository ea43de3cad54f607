package config

import "time"

// PlaceholderAdminID is the identity used when no admin id is configured.
// Requests sent with it are attributed to a shared placeholder account.
const PlaceholderAdminID = "68767ca8b4d9fa5fe49dae23"

// Config holds dashboard configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`

	// DatabasePath locates the send audit ledger. Empty disables it.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Admin   AdminConfig   `mapstructure:"admin" yaml:"admin"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	WS      WSConfig      `mapstructure:"ws" yaml:"ws"`
}

// APIConfig describes the remote message store.
type APIConfig struct {
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	TokenSecret string        `mapstructure:"token_secret" yaml:"token_secret"`
	TokenIssuer string        `mapstructure:"token_issuer" yaml:"token_issuer"`
	TokenTTL    time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
}

// AdminConfig is the operator identity attached to outgoing messages.
type AdminConfig struct {
	ID   string `mapstructure:"id" yaml:"id"`
	Role string `mapstructure:"role" yaml:"role"`
}

// DisplayConfig controls how timestamps are rendered.
type DisplayConfig struct {
	TimeLayout string `mapstructure:"time_layout" yaml:"time_layout"`
}

// WSConfig limits dashboard websocket clients.
type WSConfig struct {
	RatePerSecond   float64 `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	Burst           int     `mapstructure:"burst" yaml:"burst"`
	MaxMessageBytes int64   `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		DatabasePath:      "wirechat-admin.db",
		API: APIConfig{
			BaseURL:     "http://localhost:4000/api/v1/messages",
			Timeout:     10 * time.Second,
			TokenIssuer: "wirechat-admin",
			TokenTTL:    5 * time.Minute,
		},
		Admin: AdminConfig{
			ID:   PlaceholderAdminID,
			Role: "admin",
		},
		Display: DisplayConfig{
			TimeLayout: "15:04:05",
		},
		WS: WSConfig{
			RatePerSecond:   5,
			Burst:           10,
			MaxMessageBytes: 1 << 16,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.API.BaseURL != "" {
		c.API.BaseURL = other.API.BaseURL
	}
	if other.API.Timeout != 0 {
		c.API.Timeout = other.API.Timeout
	}
	if other.Admin.ID != "" {
		c.Admin.ID = other.Admin.ID
	}
	if other.Admin.Role != "" {
		c.Admin.Role = other.Admin.Role
	}
}

// UsesPlaceholderIdentity reports whether the admin id was left at its default.
func (c *Config) UsesPlaceholderIdentity() bool {
	return c.Admin.ID == "" || c.Admin.ID == PlaceholderAdminID
}
