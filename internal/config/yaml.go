package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the top-level incidentdesk configuration file. Keys
// mirror the viper keys read by the CLI (server.port, auth.jwt_secret, ...).
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Notify   NotifyConfig   `yaml:"notify"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	CORSOrigins     []string `yaml:"cors_origins"`
	LoginRateLimit  int      `yaml:"login_rate_limit"`
	MaxBodySize     int64    `yaml:"max_body_size"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// AuthConfig controls token signing and password hashing.
type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	AccessTokenTTL  string `yaml:"access_token_ttl"`
	RefreshTokenTTL string `yaml:"refresh_token_ttl"`
	BcryptCost      int    `yaml:"bcrypt_cost"`
}

// NotifyConfig controls one-time codes and outgoing messages.
type NotifyConfig struct {
	CodeTTL       string     `yaml:"code_ttl"`
	DeletionInbox string     `yaml:"deletion_inbox"`
	SMTP          SMTPConfig `yaml:"smtp"`
}

// SMTPConfig holds mail relay settings. An empty host selects the log notifier.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadYAMLConfig reads and parses a YAML configuration file. Environment
// variables referenced as ${VAR_NAME} in the file are expanded before parsing.
func LoadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	var cfg YAMLConfig
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// DefaultYAMLConfig returns a YAMLConfig pre-filled with defaults. The JWT
// secret is deliberately left empty: the server refuses to start without one.
func DefaultYAMLConfig() *YAMLConfig {
	return &YAMLConfig{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			CORSOrigins:     []string{"*"},
			LoginRateLimit:  20,
			MaxBodySize:     1 << 20,
			ShutdownTimeout: "30s",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
		},
		Auth: AuthConfig{
			AccessTokenTTL:  "1h",
			RefreshTokenTTL: "240h",
			BcryptCost:      10,
		},
		Notify: NotifyConfig{
			CodeTTL: "10m",
			SMTP:    SMTPConfig{Port: 587},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// WriteDefaultConfig writes the default configuration to a YAML file.
func WriteDefaultConfig(path string) error {
	data, err := yaml.Marshal(DefaultYAMLConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
