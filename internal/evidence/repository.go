package evidence

import (
	"context"
	"errors"
)

// Static errors for the persistence layer.
var (
	// ErrRecordNotFound is returned when no record matches the lookup.
	ErrRecordNotFound = errors.New("evidence: record not found")
	// ErrCaseNotFound is returned when the referenced case does not exist.
	ErrCaseNotFound = errors.New("evidence: case not found")
)

// Repository persists evidence records.
type Repository interface {
	// Create stores a new record.
	Create(ctx context.Context, record *Record) error

	// FindByPath returns the record owning the given storage key.
	// Returns ErrRecordNotFound if no record matches.
	FindByPath(ctx context.Context, filePath string) (*Record, error)

	// ListByCase returns every record attached to a case, in any order.
	ListByCase(ctx context.Context, caseID string) ([]*Record, error)

	// MarkPermanent flips a record's storage location to permanent.
	// Safe to call on an already-permanent record.
	MarkPermanent(ctx context.Context, id string) error
}

// CaseDirectory resolves complaint cases for access decisions.
type CaseDirectory interface {
	// FindCase returns the case with the given ID, or ErrCaseNotFound.
	FindCase(ctx context.Context, id string) (*Case, error)
}

// PromotionGuard serializes promotion runs per case. Two concurrent
// promotions of the same case must not race each other's copy/delete pairs.
type PromotionGuard interface {
	// Acquire claims the in-progress flag for a case. Returns false when
	// another promotion currently holds it.
	Acquire(ctx context.Context, caseID string) (bool, error)

	// Release clears the in-progress flag.
	Release(ctx context.Context, caseID string) error
}
