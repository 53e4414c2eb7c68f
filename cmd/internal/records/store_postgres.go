package records

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a Store backed by PostgreSQL.
//
// Ownership model:
// - PostgresStore does NOT own the pgx pool. The caller must close the pool.
// - Every operation acquires its own pooled connection and releases it before
//   returning, on success and on error. Connections are never shared across operations.
//
// Failures to reach the database (acquire, dial, network, timeouts) are reported as
// ErrStoreUnavailable.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures PostgresStore behavior.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the DB schema used by this store (default: "herd").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return errors.New("records: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return errors.New("records: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a Postgres-backed Store.
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
		return nil, errors.New("records: nil pool")
	}
	return st, nil
}

// Close is a no-op because the pool is owned by the caller.
func (s *PostgresStore) Close() error { return nil }

const recordColumns = `id, COALESCE(breed, ''), COALESCE(color, ''), age, COALESCE(shed_no, ''),
       COALESCE(gender, ''), COALESCE(tag_number, ''), COALESCE(notes, ''), created_at`

const healthColumns = `id, cattle_id, checkup_date, COALESCE(diagnosis, ''), COALESCE(medicines, ''),
       COALESCE(remarks, ''), COALESCE(doctor_username, ''), created_at`

// QueryRecords runs SELECT ... WHERE p1 AND p2 ... with every predicate value bound as a
// parameter. No ORDER BY is added.
func (s *PostgresStore) QueryRecords(ctx context.Context, preds []Predicate) ([]Record, error) {
	const op = "records.QueryRecords"

	where, args, err := compileWhere(preds)
	if err != nil {
		return nil, invalid(op, err.Error())
	}

	sql := `SELECT ` + recordColumns + ` FROM ` + s.table("cattle") + where

	var out []Record
	err = s.withConn(ctx, op, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, scanRecord)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// compileWhere renders predicates as a parameterized WHERE clause ("" when empty).
// Only column names from the fixed field mapping reach the SQL text.
func compileWhere(preds []Predicate) (string, []any, error) {
	if len(preds) == 0 {
		return "", nil, nil
	}

	conds := make([]string, 0, len(preds))
	args := make([]any, 0, len(preds))
	for _, p := range preds {
		col, ok := columns[p.Field]
		if !ok {
			return "", nil, fmt.Errorf("unknown field %q", p.Field)
		}
		col = pgx.Identifier{col}.Sanitize()
		ph := "$" + strconv.Itoa(len(args)+1)

		if p.Field == FieldAge {
			if p.Op != OpEq {
				return "", nil, fmt.Errorf("unsupported operator %q for age", p.Op)
			}
			n, fits, ok := ageValue(p.Value)
			switch {
			case !ok:
				return "", nil, fmt.Errorf("age is not an integer")
			case !fits:
				// No INTEGER column value lies outside int64.
				conds = append(conds, "FALSE")
			default:
				conds = append(conds, col+" = "+ph+"::bigint")
				args = append(args, n)
			}
			continue
		}

		switch p.Op {
		case OpEq:
			conds = append(conds, col+" = "+ph)
		case OpILike:
			conds = append(conds, col+" ILIKE "+ph+` ESCAPE '\'`)
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", p.Op)
		}
		args = append(args, p.Value)
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// CreateRecord inserts a record and returns it with its assigned id.
func (s *PostgresStore) CreateRecord(ctx context.Context, in RecordInput) (Record, error) {
	const op = "records.CreateRecord"

	if err := validateRecordInput(op, in); err != nil {
		return Record{}, err
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	r := recordFromInput(0, in, now)

	var out Record
	err := s.withConn(ctx, op, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx,
			`INSERT INTO `+s.table("cattle")+` (
			     breed, color, age, shed_no, gender, tag_number, notes, created_at
			   ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING `+recordColumns,
			r.Breed, r.Color, r.Age, r.ShedNumber, r.Gender, r.TagNumber, r.Notes, now,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectExactlyOneRow(rows, scanRecord)
		return err
	})
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

// GetRecord returns the record with id.
func (s *PostgresStore) GetRecord(ctx context.Context, id int64) (Record, error) {
	const op = "records.GetRecord"

	var out Record
	err := s.withConn(ctx, op, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+recordColumns+` FROM `+s.table("cattle")+` WHERE id = $1`,
			id,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectExactlyOneRow(rows, scanRecord)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, notFound(op, "cattle")
	}
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

// UpdateRecord replaces the writable fields of record id.
func (s *PostgresStore) UpdateRecord(ctx context.Context, id int64, in RecordInput) (Record, error) {
	const op = "records.UpdateRecord"

	if err := validateRecordInput(op, in); err != nil {
		return Record{}, err
	}
	r := recordFromInput(id, in, time.Time{})

	var out Record
	err := s.withConn(ctx, op, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx,
			`UPDATE `+s.table("cattle")+`
			    SET breed = $1, color = $2, age = $3, shed_no = $4,
			        gender = $5, tag_number = $6, notes = $7
			  WHERE id = $8
			RETURNING `+recordColumns,
			r.Breed, r.Color, r.Age, r.ShedNumber, r.Gender, r.TagNumber, r.Notes, id,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectExactlyOneRow(rows, scanRecord)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, notFound(op, "cattle")
	}
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

// DeleteRecord removes record id; its health log goes with it (ON DELETE CASCADE).
func (s *PostgresStore) DeleteRecord(ctx context.Context, id int64) error {
	const op = "records.DeleteRecord"

	var affected int64
	err := s.withConn(ctx, op, func(conn *pgxpool.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM `+s.table("cattle")+` WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound(op, "cattle")
	}
	return nil
}

// AddHealthEntry appends a checkup to an existing record's health log.
func (s *PostgresStore) AddHealthEntry(ctx context.Context, in HealthEntryInput) (HealthEntry, error) {
	const op = "records.AddHealthEntry"

	if err := validateHealthInput(op, in); err != nil {
		return HealthEntry{}, err
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	e := healthFromInput(0, in, now)

	var out HealthEntry
	err := s.withConn(ctx, op, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx,
			`INSERT INTO `+s.table("health_log")+` (
			     cattle_id, checkup_date, diagnosis, medicines, remarks, doctor_username, created_at
			   ) VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING `+healthColumns,
			e.CattleID, e.CheckupDate, e.Diagnosis, e.Medicines, e.Remarks, e.DoctorUsername, now,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectExactlyOneRow(rows, scanHealthEntry)
		return err
	})
	if pgIsForeignKeyViolation(err) {
		return HealthEntry{}, notFound(op, "cattle")
	}
	if err != nil {
		return HealthEntry{}, err
	}
	return out, nil
}

// ListHealthEntries returns a record's checkups, most recent checkup first.
func (s *PostgresStore) ListHealthEntries(ctx context.Context, cattleID int64) ([]HealthEntry, error) {
	const op = "records.ListHealthEntries"

	var (
		out    []HealthEntry
		exists bool
	)
	err := s.withConn(ctx, op, func(conn *pgxpool.Conn) error {
		if err := conn.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM `+s.table("cattle")+` WHERE id = $1)`,
			cattleID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return nil
		}

		rows, err := conn.Query(ctx,
			`SELECT `+healthColumns+`
			   FROM `+s.table("health_log")+`
			  WHERE cattle_id = $1
			  ORDER BY checkup_date DESC, id DESC`,
			cattleID,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, scanHealthEntry)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound(op, "cattle")
	}
	return out, nil
}

// withConn scopes one pooled connection to fn and always releases it.
func (s *PostgresStore) withConn(ctx context.Context, op string, fn func(*pgxpool.Conn) error) error {
	if s == nil || s.pool == nil {
		return OpError{Op: op, Kind: ErrStoreUnavailable, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return unavailable(op, err)
	}
	defer conn.Release()

	if err := fn(conn); err != nil {
		if pgIsConnFailure(err) {
			return unavailable(op, err)
		}
		return err
	}
	return nil
}

func (s *PostgresStore) table(name string) string {
	return pgx.Identifier{s.schema, name}.Sanitize()
}

func scanRecord(row pgx.CollectableRow) (Record, error) {
	var r Record
	err := row.Scan(
		&r.ID,
		&r.Breed,
		&r.Color,
		&r.Age,
		&r.ShedNumber,
		&r.Gender,
		&r.TagNumber,
		&r.Notes,
		&r.CreatedAt,
	)
	return r, err
}

func scanHealthEntry(row pgx.CollectableRow) (HealthEntry, error) {
	var e HealthEntry
	err := row.Scan(
		&e.ID,
		&e.CattleID,
		&e.CheckupDate,
		&e.Diagnosis,
		&e.Medicines,
		&e.Remarks,
		&e.DoctorUsername,
		&e.CreatedAt,
	)
	return e, err
}

func pgIsConnFailure(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func pgIsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23503" // foreign_key_violation
}
