package records

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// InMemoryStore is a dev-only fallback when DB is not configured.
// Records are returned in insertion order; predicates follow PostgreSQL semantics
// (ILIKE with '\' escapes, integer equality on age).
type InMemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	nextHID int64
	order   []int64
	rows    map[int64]Record
	health  map[int64][]HealthEntry
}

// NewInMemoryStore constructs an empty in-memory Store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		rows:   make(map[int64]Record),
		health: make(map[int64][]HealthEntry),
	}
}

// Close closes the store (noop for in-memory).
func (s *InMemoryStore) Close() error { return nil }

// QueryRecords returns the records satisfying every predicate.
func (s *InMemoryStore) QueryRecords(ctx context.Context, preds []Predicate) ([]Record, error) {
	const op = "records.QueryRecords"

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, p := range preds {
		if _, ok := columns[p.Field]; !ok {
			return nil, invalid(op, fmt.Sprintf("unknown field %q", p.Field))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		r := s.rows[id]
		if matchAll(r, preds) {
			out = append(out, r)
		}
	}
	return out, nil
}

func matchAll(r Record, preds []Predicate) bool {
	for _, p := range preds {
		if !matchOne(r, p) {
			return false
		}
	}
	return true
}

func matchOne(r Record, p Predicate) bool {
	if p.Field == FieldAge {
		want, fits, ok := ageValue(p.Value)
		if !ok || !fits || r.Age == nil {
			return false
		}
		return p.Op == OpEq && int64(*r.Age) == want
	}

	var v string
	switch p.Field {
	case FieldBreed:
		v = r.Breed
	case FieldColor:
		v = r.Color
	case FieldShedNumber:
		v = r.ShedNumber
	case FieldGender:
		v = r.Gender
	case FieldTagNumber:
		v = r.TagNumber
	}

	switch p.Op {
	case OpEq:
		return v == p.Value
	case OpILike:
		return likeMatch(p.Value, v)
	default:
		return false
	}
}

// CreateRecord inserts a record and assigns it the next id.
func (s *InMemoryStore) CreateRecord(ctx context.Context, in RecordInput) (Record, error) {
	const op = "records.CreateRecord"

	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := validateRecordInput(op, in); err != nil {
		return Record{}, err
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	r := recordFromInput(s.nextID, in, now)
	s.rows[r.ID] = r
	s.order = append(s.order, r.ID)
	return r, nil
}

// GetRecord returns the record with id.
func (s *InMemoryStore) GetRecord(ctx context.Context, id int64) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[id]
	if !ok {
		return Record{}, notFound("records.GetRecord", "cattle")
	}
	return r, nil
}

// UpdateRecord replaces the writable fields of record id.
func (s *InMemoryStore) UpdateRecord(ctx context.Context, id int64, in RecordInput) (Record, error) {
	const op = "records.UpdateRecord"

	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := validateRecordInput(op, in); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.rows[id]
	if !ok {
		return Record{}, notFound(op, "cattle")
	}
	r := recordFromInput(id, in, cur.CreatedAt)
	s.rows[id] = r
	return r, nil
}

// DeleteRecord removes record id and its health log.
func (s *InMemoryStore) DeleteRecord(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return notFound("records.DeleteRecord", "cattle")
	}
	delete(s.rows, id)
	delete(s.health, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// AddHealthEntry appends a checkup to an existing record's health log.
func (s *InMemoryStore) AddHealthEntry(ctx context.Context, in HealthEntryInput) (HealthEntry, error) {
	const op = "records.AddHealthEntry"

	if err := ctx.Err(); err != nil {
		return HealthEntry{}, err
	}
	if err := validateHealthInput(op, in); err != nil {
		return HealthEntry{}, err
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[in.CattleID]; !ok {
		return HealthEntry{}, notFound(op, "cattle")
	}
	s.nextHID++
	e := healthFromInput(s.nextHID, in, now)
	s.health[in.CattleID] = append(s.health[in.CattleID], e)
	return e, nil
}

// ListHealthEntries returns a record's checkups, most recent checkup first.
func (s *InMemoryStore) ListHealthEntries(ctx context.Context, cattleID int64) ([]HealthEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[cattleID]; !ok {
		return nil, notFound("records.ListHealthEntries", "cattle")
	}
	out := append([]HealthEntry(nil), s.health[cattleID]...)
	sortHealthEntries(out)
	return out, nil
}

func recordFromInput(id int64, in RecordInput, createdAt time.Time) Record {
	var age *int
	if in.Age != nil {
		a := *in.Age
		age = &a
	}
	return Record{
		ID:         id,
		Breed:      strings.TrimSpace(in.Breed),
		Color:      strings.TrimSpace(in.Color),
		Age:        age,
		ShedNumber: strings.TrimSpace(in.ShedNumber),
		Gender:     strings.TrimSpace(in.Gender),
		TagNumber:  strings.TrimSpace(in.TagNumber),
		Notes:      in.Notes,
		CreatedAt:  createdAt,
	}
}

func healthFromInput(id int64, in HealthEntryInput, now time.Time) HealthEntry {
	date := in.CheckupDate
	if date.IsZero() {
		date = now
	}
	y, m, d := date.UTC().Date()
	return HealthEntry{
		ID:             id,
		CattleID:       in.CattleID,
		CheckupDate:    time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Diagnosis:      in.Diagnosis,
		Medicines:      in.Medicines,
		Remarks:        in.Remarks,
		DoctorUsername: strings.TrimSpace(in.DoctorUsername),
		CreatedAt:      now,
	}
}
