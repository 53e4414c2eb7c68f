package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"herd/cmd/internal/schema"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string // json | pretty

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int
	MaxBodyBytes      int64

	DatabaseURL   string
	DBMaxConns    int32
	DBMinConns    int32
	DBSchema      string
	DBApplySchema bool

	// If true, /readyz returns 503 unless the DB is configured and reachable.
	ReadinessRequireDB bool

	// Realm sent in WWW-Authenticate challenges.
	AuthRealm string

	// When both are set, the operator is provisioned at startup if missing.
	BootstrapUsername string
	BootstrapPassword string
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("HERD_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("HERD_LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(EnvString("HERD_LOG_FORMAT", "json")),

		ReadHeaderTimeout: EnvDuration("HERD_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("HERD_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("HERD_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("HERD_HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   EnvDuration("HERD_HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    EnvInt("HERD_HTTP_MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      EnvInt64("HERD_HTTP_MAX_BODY_BYTES", 64<<10),

		DatabaseURL:   EnvString("HERD_DATABASE_URL", ""),
		DBMaxConns:    EnvInt32("HERD_DB_MAX_CONNS", 10),
		DBMinConns:    EnvInt32("HERD_DB_MIN_CONNS", 0),
		DBSchema:      EnvString("HERD_DB_SCHEMA", schema.DefaultName),
		DBApplySchema: EnvBool("HERD_DB_APPLY_SCHEMA", false),

		ReadinessRequireDB: EnvBool("HERD_READINESS_REQUIRE_DB", false),

		AuthRealm: EnvString("HERD_AUTH_REALM", "herd"),

		BootstrapUsername: EnvString("HERD_BOOTSTRAP_USERNAME", ""),
		BootstrapPassword: EnvString("HERD_BOOTSTRAP_PASSWORD", ""),
	}
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	var errs []error

	switch c.LogFormat {
	case "json", "pretty":
	default:
		errs = append(errs, fmt.Errorf("HERD_LOG_FORMAT must be json or pretty, got %q", c.LogFormat))
	}
	if !schema.ValidName(c.DBSchema) {
		errs = append(errs, fmt.Errorf("HERD_DB_SCHEMA is not a valid identifier: %q", c.DBSchema))
	}
	if c.DBMaxConns > 0 && c.DBMinConns > c.DBMaxConns {
		errs = append(errs, errors.New("HERD_DB_MIN_CONNS must be <= HERD_DB_MAX_CONNS"))
	}
	if (c.BootstrapUsername == "") != (c.BootstrapPassword == "") {
		errs = append(errs, errors.New("HERD_BOOTSTRAP_USERNAME and HERD_BOOTSTRAP_PASSWORD must be set together"))
	}
	if strings.ContainsAny(c.AuthRealm, "\"\r\n") {
		errs = append(errs, errors.New("HERD_AUTH_REALM must not contain quotes or newlines"))
	}
	return errors.Join(errs...)
}
