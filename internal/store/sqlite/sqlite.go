// Package sqlite implements the activity store on SQLite via the pure-Go
// modernc driver. Used for local development and as the unit-test backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/straviz/straviz-server/internal/model"
	"github.com/straviz/straviz-server/internal/store"
)

// Open opens (or creates) a SQLite database at the given path and enables WAL
// journal mode. ":memory:" opens a private in-memory database limited to a
// single connection so every query sees the same data.
func Open(path string) (*sql.DB, error) {
	var dsn string
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(ON)"
	} else {
		// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the activities table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const ddl = `CREATE TABLE IF NOT EXISTS activities (
        id INTEGER PRIMARY KEY,
        name TEXT NOT NULL,
        distance REAL NOT NULL,
        moving_time INTEGER NOT NULL,
        elapsed_time INTEGER NOT NULL,
        total_elevation_gain REAL NOT NULL,
        type TEXT NOT NULL,
        sport_type TEXT NOT NULL,
        start_date TIMESTAMP NOT NULL,
        start_date_local TIMESTAMP NOT NULL,
        timezone TEXT NOT NULL,
        utc_offset REAL NOT NULL,
        map_polyline TEXT,
        map_summary_polyline TEXT,
        average_speed REAL,
        max_speed REAL,
        average_heartrate REAL,
        max_heartrate REAL,
        elev_high REAL,
        elev_low REAL
    )`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS activities_start_date_idx ON activities (start_date)`)
	return err
}

// NewWithDB constructs a SQLite store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &liteStore{db: db} }

type liteStore struct{ db *sql.DB }

func (s *liteStore) Activities() store.Activities { return &activities{db: s.db} }

func (s *liteStore) BeginBatch(ctx context.Context) (store.Batch, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &batch{tx: tx}, nil
}

func (s *liteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *liteStore) Close() error { return s.db.Close() }

const activityColumns = `id, name, distance, moving_time, elapsed_time, total_elevation_gain,
        type, sport_type, start_date, start_date_local, timezone, utc_offset,
        map_polyline, map_summary_polyline, average_speed, max_speed,
        average_heartrate, max_heartrate, elev_high, elev_low`

func scanActivity(row interface{ Scan(...any) error }) (*model.Activity, error) {
	var a model.Activity
	if err := row.Scan(
		&a.ID, &a.Name, &a.Distance, &a.MovingTime, &a.ElapsedTime, &a.TotalElevationGain,
		&a.Type, &a.SportType, &a.StartDate, &a.StartDateLocal, &a.Timezone, &a.UTCOffset,
		&a.MapPolyline, &a.MapSummaryPolyline, &a.AverageSpeed, &a.MaxSpeed,
		&a.AverageHeartrate, &a.MaxHeartrate, &a.ElevHigh, &a.ElevLow,
	); err != nil {
		return nil, err
	}
	// SQLite hands timestamps back without a fixed zone; normalize to UTC so
	// range comparisons behave like the postgres driver.
	a.StartDate = a.StartDate.UTC()
	a.StartDateLocal = a.StartDateLocal.UTC()
	return &a, nil
}

// --- Activities ---
type activities struct{ db *sql.DB }

func (q *activities) GetByID(ctx context.Context, id int64) (*model.Activity, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id=?`, id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return a, err
}

func (q *activities) ListByDateRange(ctx context.Context, from, to time.Time) ([]*model.Activity, error) {
	rows, err := q.db.QueryContext(ctx, `
        SELECT `+activityColumns+` FROM activities
        WHERE start_date >= ? AND start_date <= ?
        ORDER BY start_date ASC
    `, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var res []*model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (q *activities) Count(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`).Scan(&n)
	return n, err
}

// --- Batch ---
type batch struct{ tx *sql.Tx }

func (b *batch) Upsert(ctx context.Context, a *model.Activity) error {
	var exists int
	err := b.tx.QueryRowContext(ctx, `SELECT 1 FROM activities WHERE id=?`, a.ID).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = b.tx.ExecContext(ctx, `
            INSERT INTO activities (`+activityColumns+`)
            VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
        `, upsertArgs(a)...)
		return err
	case err != nil:
		return err
	default:
		_, err = b.tx.ExecContext(ctx, `
            UPDATE activities SET
                name=?, distance=?, moving_time=?, elapsed_time=?, total_elevation_gain=?,
                type=?, sport_type=?, start_date=?, start_date_local=?, timezone=?, utc_offset=?,
                map_polyline=?, map_summary_polyline=?, average_speed=?, max_speed=?,
                average_heartrate=?, max_heartrate=?, elev_high=?, elev_low=?
            WHERE id=?
        `, append(upsertArgs(a)[1:], a.ID)...)
		return err
	}
}

func (b *batch) Commit() error   { return b.tx.Commit() }
func (b *batch) Rollback() error { return b.tx.Rollback() }

func upsertArgs(a *model.Activity) []any {
	return []any{
		a.ID, a.Name, a.Distance, a.MovingTime, a.ElapsedTime, a.TotalElevationGain,
		a.Type, a.SportType, a.StartDate.UTC(), a.StartDateLocal.UTC(), a.Timezone, a.UTCOffset,
		a.MapPolyline, a.MapSummaryPolyline, a.AverageSpeed, a.MaxSpeed,
		a.AverageHeartrate, a.MaxHeartrate, a.ElevHigh, a.ElevLow,
	}
}
