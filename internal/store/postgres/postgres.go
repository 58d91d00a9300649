// Package postgres implements the activity store on PostgreSQL via the pgx
// stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/straviz/straviz-server/internal/model"
	"github.com/straviz/straviz-server/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the activities table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const ddl = `CREATE TABLE IF NOT EXISTS activities (
        id BIGINT PRIMARY KEY,
        name TEXT NOT NULL,
        distance DOUBLE PRECISION NOT NULL,
        moving_time BIGINT NOT NULL,
        elapsed_time BIGINT NOT NULL,
        total_elevation_gain DOUBLE PRECISION NOT NULL,
        type TEXT NOT NULL,
        sport_type TEXT NOT NULL,
        start_date TIMESTAMPTZ NOT NULL,
        start_date_local TIMESTAMPTZ NOT NULL,
        timezone TEXT NOT NULL,
        utc_offset DOUBLE PRECISION NOT NULL,
        map_polyline TEXT,
        map_summary_polyline TEXT,
        average_speed DOUBLE PRECISION,
        max_speed DOUBLE PRECISION,
        average_heartrate DOUBLE PRECISION,
        max_heartrate DOUBLE PRECISION,
        elev_high DOUBLE PRECISION,
        elev_low DOUBLE PRECISION
    )`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS activities_start_date_idx ON activities (start_date)`)
	return err
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Activities() store.Activities { return &activities{db: s.db} }

func (s *pgStore) BeginBatch(ctx context.Context) (store.Batch, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &batch{tx: tx}, nil
}

// HealthPing implements the store health probe.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *pgStore) Close() error { return s.db.Close() }

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
	return &a, nil
}

// --- Activities ---
type activities struct{ db *sql.DB }

func (q *activities) GetByID(ctx context.Context, id int64) (*model.Activity, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id=$1`, id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return a, err
}

func (q *activities) ListByDateRange(ctx context.Context, from, to time.Time) ([]*model.Activity, error) {
	rows, err := q.db.QueryContext(ctx, `
        SELECT `+activityColumns+` FROM activities
        WHERE start_date >= $1 AND start_date <= $2
        ORDER BY start_date ASC
    `, from, to)
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
	err := b.tx.QueryRowContext(ctx, `SELECT 1 FROM activities WHERE id=$1`, a.ID).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = b.tx.ExecContext(ctx, `
            INSERT INTO activities (`+activityColumns+`)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
        `, upsertArgs(a)...)
		return err
	case err != nil:
		return err
	default:
		_, err = b.tx.ExecContext(ctx, `
            UPDATE activities SET
                name=$2, distance=$3, moving_time=$4, elapsed_time=$5, total_elevation_gain=$6,
                type=$7, sport_type=$8, start_date=$9, start_date_local=$10, timezone=$11, utc_offset=$12,
                map_polyline=$13, map_summary_polyline=$14, average_speed=$15, max_speed=$16,
                average_heartrate=$17, max_heartrate=$18, elev_high=$19, elev_low=$20
            WHERE id=$1
        `, upsertArgs(a)...)
		return err
	}
}

func (b *batch) Commit() error   { return b.tx.Commit() }
func (b *batch) Rollback() error { return b.tx.Rollback() }

func upsertArgs(a *model.Activity) []any {
	return []any{
		a.ID, a.Name, a.Distance, a.MovingTime, a.ElapsedTime, a.TotalElevationGain,
		a.Type, a.SportType, a.StartDate, a.StartDateLocal, a.Timezone, a.UTCOffset,
		a.MapPolyline, a.MapSummaryPolyline, a.AverageSpeed, a.MaxSpeed,
		a.AverageHeartrate, a.MaxHeartrate, a.ElevHigh, a.ElevLow,
	}
}
