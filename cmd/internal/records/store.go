package records

import "context"

// Querier executes a conjunction of predicates against the record store.
// An empty predicate list selects every record. Rows come back in store order.
type Querier interface {
	QueryRecords(ctx context.Context, preds []Predicate) ([]Record, error)
}

// Store is the record persistence boundary.
type Store interface {
	Querier

	CreateRecord(ctx context.Context, in RecordInput) (Record, error)
	GetRecord(ctx context.Context, id int64) (Record, error)
	UpdateRecord(ctx context.Context, id int64, in RecordInput) (Record, error)
	DeleteRecord(ctx context.Context, id int64) error

	AddHealthEntry(ctx context.Context, in HealthEntryInput) (HealthEntry, error)
	ListHealthEntries(ctx context.Context, cattleID int64) ([]HealthEntry, error)

	Close() error
}
