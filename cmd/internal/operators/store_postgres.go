package operators

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must NOT close it.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the store (default "herd").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("operators: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("operators: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "herd",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("operators: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) GetCredential(ctx context.Context, username string) (Credential, error) {
	const op = "operators.GetCredential"

	if err := ctx.Err(); err != nil {
		return Credential{}, err
	}
	username = NormalizeUsername(username)

	var c Credential
	err := s.withConn(ctx, op, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT id, username, password, created_at
			   FROM `+s.table()+`
			  WHERE username = $1`,
			username,
		).Scan(&c.Operator.ID, &c.Operator.Username, &c.PasswordHash, &c.Operator.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credential{}, OpError{Op: op, Kind: ErrNotFound, Msg: "operator"}
		}
		return Credential{}, err
	}
	return c, nil
}

// CreateOperator inserts with ON CONFLICT (username) DO NOTHING and reads back the
// existing row when nothing was inserted.
func (s *PostgresStore) CreateOperator(ctx context.Context, username, passwordHash string) (Operator, bool, error) {
	const op = "operators.CreateOperator"

	if err := ctx.Err(); err != nil {
		return Operator{}, false, err
	}
	username = NormalizeUsername(username)
	if err := validateUsername(op, username); err != nil {
		return Operator{}, false, err
	}
	if err := validateHash(op, passwordHash); err != nil {
		return Operator{}, false, err
	}

	var o Operator
	err := s.withConn(ctx, op, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx,
			`INSERT INTO `+s.table()+` (username, password, created_at)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (username) DO NOTHING
			 RETURNING id, username, created_at`,
			username, passwordHash, time.Now().UTC(),
		).Scan(&o.ID, &o.Username, &o.CreatedAt)
	})
	if err == nil {
		return o, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Operator{}, false, err
	}

	c, err := s.GetCredential(ctx, username)
	if err != nil {
		return Operator{}, false, err
	}
	return c.Operator, false, nil
}

func (s *PostgresStore) SetPassword(ctx context.Context, username, passwordHash string) error {
	const op = "operators.SetPassword"

	if err := ctx.Err(); err != nil {
		return err
	}
	username = NormalizeUsername(username)
	if err := validateHash(op, passwordHash); err != nil {
		return err
	}

	var affected int64
	err := s.withConn(ctx, op, func(conn *pgxpool.Conn) error {
		ct, err := conn.Exec(ctx,
			`UPDATE `+s.table()+` SET password = $2 WHERE username = $1`,
			username, passwordHash,
		)
		affected = ct.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return OpError{Op: op, Kind: ErrNotFound, Msg: "operator"}
	}
	return nil
}

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "operators"}.Sanitize()
}

// withConn scopes one pooled connection to fn and always releases it.
// pgx.ErrNoRows is passed through unwrapped for callers to map.
func (s *PostgresStore) withConn(ctx context.Context, op string, fn func(*pgxpool.Conn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.pool == nil {
		return OpError{Op: op, Kind: ErrStoreUnavailable, Msg: "nil store"}
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return classify(ctx, op, err)
	}
	defer conn.Release()

	if err := fn(conn); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		return classify(ctx, op, err)
	}
	return nil
}

// classify maps connectivity failures to ErrStoreUnavailable; a done context is returned
// as is and everything else is wrapped with op.
func classify(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) || pgconn.Timeout(err) || errors.As(err, &netErr) {
		return OpError{Op: op, Kind: ErrStoreUnavailable, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
