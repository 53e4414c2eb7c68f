package records

import (
	"context"
	"log/slog"
	"time"
)

// Search outcomes reported to a SearchObserver.
const (
	SearchOK          = "ok"
	SearchUnavailable = "unavailable"
	SearchError       = "error"
)

// SearchObserver receives one outcome per Search call.
type SearchObserver interface {
	ObserveSearch(result string, predicates int, elapsed time.Duration)
}

// Planner answers searches by building predicates and running them on a Querier.
// It keeps no per-request state and is safe for concurrent use.
type Planner struct {
	store    Querier
	log      *slog.Logger
	observer SearchObserver
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithSearchObserver reports each search outcome to o.
func WithSearchObserver(o SearchObserver) PlannerOption {
	return func(p *Planner) {
		if o != nil {
			p.observer = o
		}
	}
}

// NewPlanner constructs a Planner over store.
func NewPlanner(store Querier, log *slog.Logger, opts ...PlannerOption) *Planner {
	if log == nil {
		log = slog.Default()
	}
	p := &Planner{store: store, log: log}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Search returns the records matching every present criterion, or all records when
// none is present. If the store cannot be reached the error wraps ErrStoreUnavailable
// and no records are returned.
func (p *Planner) Search(ctx context.Context, c SearchCriteria) ([]Record, error) {
	const op = "records.Search"

	if p == nil || p.store == nil {
		return nil, OpError{Op: op, Kind: ErrStoreUnavailable, Msg: "nil store"}
	}

	preds := BuildPredicates(c)
	start := time.Now()

	recs, err := p.store.QueryRecords(ctx, preds)
	elapsed := time.Since(start)
	if err != nil {
		result := SearchError
		if IsStoreUnavailable(err) {
			result = SearchUnavailable
		}
		p.log.Error("records.search.fail", "result", result, "predicates", len(preds), "err", err)
		p.observe(result, len(preds), elapsed)
		return nil, err
	}

	p.log.Debug("records.search.ok", "predicates", len(preds), "rows", len(recs), "duration_ms", elapsed.Milliseconds())
	p.observe(SearchOK, len(preds), elapsed)
	return recs, nil
}

func (p *Planner) observe(result string, n int, d time.Duration) {
	if p.observer != nil {
		p.observer.ObserveSearch(result, n, d)
	}
}
