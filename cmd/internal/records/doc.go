// Package records holds the cattle record model, the multi-criteria search planner and
// the record stores (PostgreSQL and in-memory).
//
// Search turns a SearchCriteria into an ordered list of predicates, one per present
// field, and hands them to the store. Predicate values are always bound as query
// parameters; they never become part of the SQL text.
package records
