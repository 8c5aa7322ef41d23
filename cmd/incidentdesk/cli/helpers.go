package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/sentinelops/incidentdesk/internal/config"
	"github.com/sentinelops/incidentdesk/internal/notify"
	"github.com/sentinelops/incidentdesk/internal/service"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir flag,
// INCIDENTDESK_DATA_DIR env var, or ~/.incidentdesk as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("INCIDENTDESK_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".incidentdesk")
}

// setDefaults registers every config key with viper so that env overrides
// work even when no config file exists.
func setDefaults() {
	d := config.DefaultYAMLConfig()

	viper.SetDefault("server.host", d.Server.Host)
	viper.SetDefault("server.port", d.Server.Port)
	viper.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	viper.SetDefault("server.login_rate_limit", d.Server.LoginRateLimit)
	viper.SetDefault("server.max_body_size", d.Server.MaxBodySize)
	viper.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	viper.SetDefault("server.base_url", "")

	viper.SetDefault("database.driver", d.Database.Driver)
	viper.SetDefault("database.dsn", d.Database.DSN)

	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.access_token_ttl", d.Auth.AccessTokenTTL)
	viper.SetDefault("auth.refresh_token_ttl", d.Auth.RefreshTokenTTL)
	viper.SetDefault("auth.bcrypt_cost", d.Auth.BcryptCost)

	viper.SetDefault("notify.code_ttl", d.Notify.CodeTTL)
	viper.SetDefault("notify.deletion_inbox", "")
	viper.SetDefault("notify.smtp.host", "")
	viper.SetDefault("notify.smtp.port", d.Notify.SMTP.Port)
	viper.SetDefault("notify.smtp.username", "")
	viper.SetDefault("notify.smtp.password", "")
	viper.SetDefault("notify.smtp.from", "")

	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("logging.format", d.Logging.Format)
}

// openStore opens the configured store. SQLite without a DSN lives in the
// data directory; any other driver needs database.dsn.
func openStore() (*config.Store, error) {
	driver := viper.GetString("database.driver")
	dsn := viper.GetString("database.dsn")

	if (driver == "" || driver == "sqlite") && dsn == "" {
		return config.NewStore(resolveDataDir())
	}
	if dsn == "" {
		return nil, fmt.Errorf("database.dsn is required for driver %q", driver)
	}
	return config.Open(driver, dsn)
}

// newLogger builds a slog logger from the logging.level and logging.format
// settings.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// configuredLogger returns a stderr logger honoring the current viper settings.
func configuredLogger() *slog.Logger {
	return newLogger(os.Stderr, viper.GetString("logging.level"), viper.GetString("logging.format"))
}

// tokenConfig reads the token settings. A missing secret is rejected by
// service.NewTokenManager.
func tokenConfig() service.TokenConfig {
	return service.TokenConfig{
		Secret:     viper.GetString("auth.jwt_secret"),
		AccessTTL:  viper.GetDuration("auth.access_token_ttl"),
		RefreshTTL: viper.GetDuration("auth.refresh_token_ttl"),
		Issuer:     service.DefaultIssuer,
	}
}

// buildNotifier routes email through SMTP when notify.smtp.host is set and
// through the log otherwise. SMS always goes to the log.
func buildNotifier(logger *slog.Logger) (notify.Notifier, error) {
	logNotifier := notify.NewLogNotifier(logger)

	host := viper.GetString("notify.smtp.host")
	if host == "" {
		logger.Warn("notify.smtp.host not set, email notifications are logged only")
		return notify.Router{Email: logNotifier, SMS: logNotifier}, nil
	}

	smtpNotifier, err := notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     host,
		Port:     viper.GetInt("notify.smtp.port"),
		Username: viper.GetString("notify.smtp.username"),
		Password: viper.GetString("notify.smtp.password"),
		From:     viper.GetString("notify.smtp.from"),
	})
	if err != nil {
		return nil, fmt.Errorf("configure smtp: %w", err)
	}
	return notify.Router{Email: smtpNotifier, SMS: logNotifier}, nil
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}

// cmdCtx returns a background context for CLI commands.
func cmdCtx() context.Context {
	return context.Background()
}
