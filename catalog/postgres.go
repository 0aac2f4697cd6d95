package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore keeps the catalog in the catalog_entries table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT index_key, vod_id, title, description, date, duration, last_updated
		FROM catalog_entries ORDER BY index_key`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			duration sql.NullInt64
			updated  time.Time
		)
		if err := rows.Scan(&e.IndexKey, &e.VodID, &e.Title, &e.Description, &e.Date, &duration, &updated); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		if duration.Valid {
			d := int(duration.Int64)
			e.Duration = &d
		}
		e.LastUpdated = timestamp(updated)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Add(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO catalog_entries
		(index_key, vod_id, title, description, date, duration, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare catalog insert: %w", err)
	}
	defer stmt.Close()
	for _, e := range entries {
		var duration sql.NullInt64
		if e.Duration != nil {
			duration = sql.NullInt64{Int64: int64(*e.Duration), Valid: true}
		}
		updated, err := time.Parse(time.RFC3339Nano, e.LastUpdated)
		if err != nil {
			updated = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, e.IndexKey, e.VodID, e.Title, e.Description, e.Date, duration, updated); err != nil {
			return fmt.Errorf("insert catalog entry %s: %w", e.VodID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog tx: %w", err)
	}
	return nil
}

// RecordRun appends a row to sync_runs.
func (s *PostgresStore) RecordRun(ctx context.Context, run Run) error {
	msg := ""
	if run.Err != nil {
		msg = run.Err.Error()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO sync_runs (started_at, finished_at, added, error) VALUES ($1, $2, $3, $4)`,
		run.StartedAt, run.FinishedAt, run.Added, msg)
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}
