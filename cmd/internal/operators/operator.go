package operators

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

// Operator is an account allowed to manage records.
type Operator struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}

// Credential pairs an operator with its stored encoded password hash.
type Credential struct {
	Operator     Operator
	PasswordHash string
}

// Store is the operator persistence boundary.
type Store interface {
	// GetCredential returns ErrNotFound when username has no account.
	GetCredential(ctx context.Context, username string) (Credential, error)

	// CreateOperator inserts an account. An existing username is left untouched and
	// reported with created=false.
	CreateOperator(ctx context.Context, username, passwordHash string) (op Operator, created bool, err error)

	// SetPassword replaces the stored hash of an existing account.
	SetPassword(ctx context.Context, username, passwordHash string) error
}

const (
	maxUsernameLen = 100
	maxHashLen     = 255
)

// NormalizeUsername trims and lower-cases a username.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validateUsername(op, username string) error {
	if username == "" {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "username is required"}
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "username is too long"}
	}
	return nil
}

func validateHash(op, hash string) error {
	if strings.TrimSpace(hash) == "" {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "password hash is required"}
	}
	if len(hash) > maxHashLen {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "password hash is too long"}
	}
	return nil
}
