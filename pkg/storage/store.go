package storage

import (
	"context"
	"time"
)

// Op is a filter comparison operator. Only the shapes the engines actually
// need are supported — this is a typed document store, not a query
// language.
type Op string

const (
	OpEq Op = "eq"
	OpLT Op = "lt"
	OpGT Op = "gt"
)

// Filter is one equality/ordering predicate over a top-level document field.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter { return Filter{Field: field, Op: OpEq, Value: value} }

// OrderDir is ascending or descending.
type OrderDir string

const (
	Asc  OrderDir = "asc"
	Desc OrderDir = "desc"
)

// Order specifies a sort field (a composite-index-aware shape: filter(a=eq)
// + order_by(b desc) is the supported query shape per §4.1).
type Order struct {
	Field string
	Dir   OrderDir
}

// Document is one stored record: an opaque JSON payload plus the envelope
// fields every collection shares.
type Document struct {
	Collection string
	UserID     string
	ID         string
	Data       []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store is the typed document CRUD + query surface every engine depends on.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put upserts a document, keyed by (collection, userID, id). data must be
	// valid JSON.
	Put(ctx context.Context, collection, userID, id string, data []byte) error

	// Get fetches one document. Returns ErrNotFound if absent.
	Get(ctx context.Context, collection, userID, id string) (Document, error)

	// Delete removes a document. Deleting an absent document is a no-op.
	Delete(ctx context.Context, collection, userID, id string) error

	// Query returns documents in a collection for a user matching filters,
	// ordered and limited. filters are ANDed together.
	Query(ctx context.Context, collection, userID string, filters []Filter, order *Order, limit int) ([]Document, error)

	// QueryAllUsers is like Query but spans every user — used by the
	// scheduler and cron jobs that must scan across tenants.
	QueryAllUsers(ctx context.Context, collection string, filters []Filter, order *Order, limit int) ([]Document, error)

	// ClaimNext atomically transitions the oldest document in collection
	// whose statusField equals fromStatus to toStatus, stamping claimedBy
	// and a claimed_at timestamp into the payload, and returns it. ok is
	// false (with a nil error) when nothing matched. Used by the task
	// queue to claim pending work without two workers racing onto the
	// same document — the document-store analogue of a `SELECT ... FOR
	// UPDATE SKIP LOCKED` claim.
	ClaimNext(ctx context.Context, collection, statusField, fromStatus, toStatus, claimedBy string) (Document, bool, error)
}

// ErrNotFound is returned by Get when no document matches.
type ErrNotFound struct {
	Collection, UserID, ID string
}

func (e *ErrNotFound) Error() string {
	return "document not found: " + e.Collection + "/" + e.UserID + "/" + e.ID
}
