package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

const (
	defaultPort              = "5000"
	defaultAllowedOrigins    = "localhost"
	defaultReconcileInterval = 1 * time.Hour
)

type Config struct {
	port              string
	databaseURL       string
	sentryDSN         string
	allowedOrigins    []string
	reconcileInterval time.Duration
	otelEnabled       bool
	env               environment
}

func (c *Config) Port() string {
	return c.port
}

// DatabaseURL is empty in development when no database is configured
func (c *Config) DatabaseURL() string {
	return c.databaseURL
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

// AllowedOrigins are domain suffixes allowed to make cross-origin requests
func (c *Config) AllowedOrigins() []string {
	return c.allowedOrigins
}

// ReconcileInterval is zero when the periodic reconciliation is disabled
func (c *Config) ReconcileInterval() time.Duration {
	return c.reconcileInterval
}

func (c *Config) OTelEnabled() bool {
	return c.otelEnabled
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, port: %s, allowedOrigins: %v, reconcileInterval: %s, otelEnabled: %t, ...}",
		string(c.env),
		c.port,
		c.allowedOrigins,
		c.reconcileInterval,
		c.otelEnabled,
	)
}

// LoadDotEnv reads variables from the given file into the environment.
// Variables that are already set take precedence. A missing file is not an error.
func LoadDotEnv(path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	err := godotenv.Load(path)
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return true, nil
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}
	invalidValue := func(key, value string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s (%s)", ErrInvalidValue, key, value)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("FRAGSTAT_ENVIRONMENT")
	if !ok {
		return missingKey("FRAGSTAT_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return invalidValue("FRAGSTAT_ENVIRONMENT", rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return invalidValue("PORT", port)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	sentryDSN := os.Getenv("SENTRY_DSN")

	rawAllowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if rawAllowedOrigins == "" {
		rawAllowedOrigins = defaultAllowedOrigins
	}
	allowedOrigins := make([]string, 0)
	for _, origin := range strings.Split(rawAllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		allowedOrigins = append(allowedOrigins, origin)
	}

	reconcileInterval := defaultReconcileInterval
	if rawInterval := os.Getenv("RECONCILE_INTERVAL"); rawInterval != "" {
		interval, err := time.ParseDuration(rawInterval)
		if err != nil || interval < 0 {
			return invalidValue("RECONCILE_INTERVAL", rawInterval)
		}
		reconcileInterval = interval
	}

	otelEnabled := false
	if rawOTelEnabled := os.Getenv("OTEL_ENABLED"); rawOTelEnabled != "" {
		enabled, err := strconv.ParseBool(rawOTelEnabled)
		if err != nil {
			return invalidValue("OTEL_ENABLED", rawOTelEnabled)
		}
		otelEnabled = enabled
	}

	if env == production || env == staging {
		if databaseURL == "" {
			return missingKey("DATABASE_URL")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
	}

	return Config{
		port:              port,
		databaseURL:       databaseURL,
		sentryDSN:         sentryDSN,
		allowedOrigins:    allowedOrigins,
		reconcileInterval: reconcileInterval,
		otelEnabled:       otelEnabled,
		env:               env,
	}, nil
}
