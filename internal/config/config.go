// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for the governance service: the target
// account, the manifest bucket, reconciliation tuning, and the HTTP API.
type Config struct {
	AccountID string // AWS account whose access-control state is governed
	Region    string // region for the remote API and principal ARNs
	RoleName  string // federated role users are bound to (identity handle prefix)

	Bucket           string // manifest bucket
	UserManifestKey  string // user governance manifest object key
	AssetManifestKey string // asset governance manifest object key

	// Optional S3-compatible endpoint for the manifest bucket (e.g. MinIO in
	// development). When set, static credentials and path-style addressing
	// are used instead of the default AWS credential chain.
	S3Endpoint    string
	S3AccessKeyID string
	S3SecretKey   string

	OktaSecretID string // Secrets Manager ID of the Okta credentials (empty disables the collector)

	NamespaceSettleWait time.Duration // wait after namespace creation (remote provisioning is async)
	QuickSightRPS       float64       // client-side remote API rate limit (0 disables)

	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	APIKey    string // static API key for the admin API
	JWTSecret string // HS256 shared secret for bearer-token auth

	// HTTP rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 50)
	RateLimitBurst int     // burst capacity (default 100)

	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Cron schedules; empty disables the corresponding trigger.
	UserRunSchedule  string
	AssetRunSchedule string
	CollectSchedule  string

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the service is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// CollectorEnabled returns true when the Okta collector is configured.
func (c *Config) CollectorEnabled() bool {
	return c.OktaSecretID != ""
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		AccountID:        os.Getenv("GOVERNANCE_ACCOUNT_ID"),
		Region:           os.Getenv("AWS_REGION"),
		RoleName:         os.Getenv("GOVERNANCE_ROLE_NAME"),
		Bucket:           os.Getenv("GOVERNANCE_BUCKET"),
		UserManifestKey:  os.Getenv("USER_MANIFEST_KEY"),
		AssetManifestKey: os.Getenv("ASSET_MANIFEST_KEY"),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:    os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey:      os.Getenv("S3_SECRET_ACCESS_KEY"),
		OktaSecretID:     os.Getenv("OKTA_SECRET"),
		ListenAddr:       os.Getenv("LISTEN_ADDR"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		Env:              os.Getenv("ENV"),
		APIKey:           os.Getenv("API_KEY"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		UserRunSchedule:  os.Getenv("USER_RUN_SCHEDULE"),
		AssetRunSchedule: os.Getenv("ASSET_RUN_SCHEDULE"),
		CollectSchedule:  os.Getenv("COLLECT_SCHEDULE"),
	}

	if v := os.Getenv("NAMESPACE_SETTLE_WAIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse NAMESPACE_SETTLE_WAIT: %w", err)
		}
		cfg.NamespaceSettleWait = d
	}
	if v := os.Getenv("QUICKSIGHT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.QuickSightRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Required settings
	if cfg.AccountID == "" {
		return nil, fmt.Errorf("GOVERNANCE_ACCOUNT_ID must be set")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("GOVERNANCE_BUCKET must be set")
	}

	// Defaults
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.RoleName == "" {
		cfg.RoleName = "FederatedQuickSightRole"
	}
	if cfg.UserManifestKey == "" {
		cfg.UserManifestKey = "qs-user-governance.json"
	}
	if cfg.AssetManifestKey == "" {
		cfg.AssetManifestKey = "qs-asset-governance.json"
	}
	if cfg.NamespaceSettleWait == 0 {
		cfg.NamespaceSettleWait = 2 * time.Minute
	}
	if cfg.QuickSightRPS == 0 {
		cfg.QuickSightRPS = 4
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 50
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 100
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if cfg.APIKey == "" && cfg.JWTSecret == "" {
		cfg.Warnings = append(cfg.Warnings, "no API_KEY or JWT_SECRET set — the admin API is unauthenticated")
	}
	if !cfg.CollectorEnabled() {
		cfg.Warnings = append(cfg.Warnings, "OKTA_SECRET not set — the manifest collector is disabled")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.APIKey == "" && cfg.JWTSecret == "" {
			return nil, fmt.Errorf("API_KEY or JWT_SECRET must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. Lines must be in KEY=VALUE format. Comments (#) and blank
// lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
