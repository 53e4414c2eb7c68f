package operators

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a dev-only Store used when no database is configured.
type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[string]Credential
	now    func() time.Time
}

// NewInMemoryStore constructs an empty in-memory Store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		rows: make(map[string]Credential),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *InMemoryStore) GetCredential(ctx context.Context, username string) (Credential, error) {
	const op = "operators.GetCredential"

	if err := ctx.Err(); err != nil {
		return Credential{}, err
	}
	username = NormalizeUsername(username)

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.rows[username]
	if !ok {
		return Credential{}, OpError{Op: op, Kind: ErrNotFound, Msg: "operator"}
	}
	return c, nil
}

func (s *InMemoryStore) CreateOperator(ctx context.Context, username, passwordHash string) (Operator, bool, error) {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.rows[username]; ok {
		return c.Operator, false, nil
	}
	s.nextID++
	o := Operator{ID: s.nextID, Username: username, CreatedAt: s.now()}
	s.rows[username] = Credential{Operator: o, PasswordHash: passwordHash}
	return o, true, nil
}

func (s *InMemoryStore) SetPassword(ctx context.Context, username, passwordHash string) error {
	const op = "operators.SetPassword"

	if err := ctx.Err(); err != nil {
		return err
	}
	username = NormalizeUsername(username)
	if err := validateHash(op, passwordHash); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.rows[username]
	if !ok {
		return OpError{Op: op, Kind: ErrNotFound, Msg: "operator"}
	}
	c.PasswordHash = passwordHash
	s.rows[username] = c
	return nil
}
