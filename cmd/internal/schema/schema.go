// Package schema creates the herd tables in a PostgreSQL schema.
//
// Apply is idempotent: every statement is CREATE ... IF NOT EXISTS, so it is safe to run
// on each startup and from herdctl setup.
package schema

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultName is the schema used when none is configured.
const DefaultName = "herd"

var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidName reports whether name is usable as an unquoted schema identifier.
func ValidName(name string) bool {
	return identRe.MatchString(name)
}

// Apply creates the schema and the cattle, operators and health_log tables.
func Apply(ctx context.Context, pool *pgxpool.Pool, name string) error {
	if pool == nil {
		return errors.New("schema: nil pool")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	if !ValidName(name) {
		return fmt.Errorf("schema: invalid identifier %q", name)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("schema: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range statements(name) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema: apply: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("schema: commit: %w", err)
	}
	return nil
}

func statements(name string) []string {
	ident := func(table string) string { return pgx.Identifier{name, table}.Sanitize() }

	cattle := ident("cattle")
	operators := ident("operators")
	health := ident("health_log")

	return []string{
		`CREATE SCHEMA IF NOT EXISTS ` + pgx.Identifier{name}.Sanitize(),

		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id BIGSERIAL PRIMARY KEY,
  breed VARCHAR(100),
  color VARCHAR(50),
  age INTEGER CHECK (age IS NULL OR age >= 0),
  shed_no VARCHAR(20),
  gender VARCHAR(10),
  tag_number VARCHAR(50),
  notes TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, cattle),

		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id BIGSERIAL PRIMARY KEY,
  username VARCHAR(100) UNIQUE NOT NULL,
  password VARCHAR(255) NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, operators),

		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id BIGSERIAL PRIMARY KEY,
  cattle_id BIGINT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
  checkup_date DATE NOT NULL,
  diagnosis TEXT,
  medicines TEXT,
  remarks TEXT,
  doctor_username VARCHAR(100),
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, health, cattle),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS health_log_cattle_checkup_idx ON %s (cattle_id, checkup_date DESC)`, health),
	}
}
