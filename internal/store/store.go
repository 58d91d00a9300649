package store

import (
	"context"
	"time"

	"github.com/straviz/straviz-server/internal/model"
)

// Store exposes persistence operations required by the syncer and the API.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Activities() Activities

	// BeginBatch opens the transaction that scopes exactly one sync run.
	// Upserts staged on the batch become visible only on Commit; a crash or
	// Rollback mid-batch leaves storage unchanged.
	BeginBatch(ctx context.Context) (Batch, error)

	HealthPing(ctx context.Context) error
	Close() error
}

// Activities are the read-side queries over stored activities.
type Activities interface {
	GetByID(ctx context.Context, id int64) (*model.Activity, error)

	// ListByDateRange returns activities with start_date in [from, to],
	// ordered by start_date ascending.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*model.Activity, error)

	Count(ctx context.Context) (int, error)
}

// Batch stages upserts inside one open transaction. Upsert never commits by
// itself; the orchestrator commits once after the whole batch is staged.
type Batch interface {
	// Upsert looks up the row by primary key: found rows are overwritten in
	// full (a newly-null field does replace a previous value), missing rows
	// are inserted.
	Upsert(ctx context.Context, a *model.Activity) error

	Commit() error
	Rollback() error
}
