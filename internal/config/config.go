// Package config loads the imapctl configuration.
package config

import "time"

// Config is the root configuration structure
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Client  ClientConfig  `mapstructure:"client"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TLS modes
const (
	TLSModeImplicit = "tls"
	TLSModeStartTLS = "starttls"
	TLSModeNone     = "none"
)

// ServerConfig describes how to reach the IMAP server.
type ServerConfig struct {
	Address            string        `mapstructure:"address" validate:"required,hostname_port"`
	TLS                string        `mapstructure:"tls" validate:"oneof=tls starttls none"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	Timeout            time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// Authentication modes
const (
	AuthModeDefault   = "default"
	AuthModeAnonymous = "anonymous"
	AuthModeGSSAPI    = "gssapi"
)

// AuthConfig holds the credentials and the mechanisms to try.
type AuthConfig struct {
	Mode     string   `mapstructure:"mode" validate:"oneof=default anonymous gssapi"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	Methods  []string `mapstructure:"methods" validate:"dive,oneof=CRAM-MD5 PLAIN LOGIN ANONYMOUS GSSAPI LOGIN-COMMAND"`
}

// ClientConfig tunes the protocol engine.
type ClientConfig struct {
	Compress       bool          `mapstructure:"compress"`
	ClientSideSort bool          `mapstructure:"client_side_sort"`
	IdleAfter      time.Duration `mapstructure:"idle_after" validate:"gte=0"`
	// Mirror the raw protocol stream to stderr
	Debug bool `mapstructure:"debug"`
	// Upper bound on concurrent connections for fan-out commands
	MaxConnections int `mapstructure:"max_connections" validate:"min=1,max=64"`
}

// LoggingConfig defines logging settings
type LoggingConfig struct {
	Level     string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format    string `mapstructure:"format" validate:"oneof=json text"`
	Output    string `mapstructure:"output"`
	AddSource bool   `mapstructure:"add_source"`
}
