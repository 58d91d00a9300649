package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/straviz/straviz-server/internal/store"
	"github.com/straviz/straviz-server/internal/store/storetest"
)

func makePGStore(t *testing.T) store.Store {
	t.Helper()
	dsn := os.Getenv("STRAVIZ_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STRAVIZ_POSTGRES_DSN not set; skipping postgres store integration test")
	}
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("postgres open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	// Suite expects an empty table.
	if _, err := db.ExecContext(ctx, `TRUNCATE activities`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return NewWithDB(db)
}

func TestPostgresStore_Compliance(t *testing.T) {
	storetest.Run(t, makePGStore)
}
