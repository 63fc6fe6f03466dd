package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"matscribe/internal/media"
	"matscribe/internal/services"
	"matscribe/internal/stage"
)

// Store persists item records in a SQLite database inside the work directory.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the state database under workDir.
func Open(workDir string) (*Store, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}

	dbPath := filepath.Join(workDir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS items (
    item_id          TEXT PRIMARY KEY,
    source_path      TEXT NOT NULL,
    display_title    TEXT NOT NULL DEFAULT '',
    current_stage    TEXT NOT NULL,
    completed_stages TEXT NOT NULL DEFAULT '[]',
    stage_times      TEXT NOT NULL DEFAULT '{}',
    fingerprint      TEXT NOT NULL DEFAULT '',
    last_error       TEXT NOT NULL DEFAULT '',
    created_at       TEXT NOT NULL,
    updated_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_stage ON items(current_stage);
`
	return retryOnBusy(ensureContext(ctx), func() error {
		_, err := s.db.ExecContext(ctx, schema)
		return err
	})
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Save upserts a record, refreshing its updated timestamp.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	ctx = ensureContext(ctx)
	rec.UpdatedAt = time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}

	completed, err := encodeStages(rec.Completed)
	if err != nil {
		return fmt.Errorf("encode completed stages: %w", err)
	}
	times, err := encodeStageTimes(rec.StageTimes)
	if err != nil {
		return fmt.Errorf("encode stage times: %w", err)
	}

	const query = `
INSERT INTO items (item_id, source_path, display_title, current_stage, completed_stages, stage_times, fingerprint, last_error, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(item_id) DO UPDATE SET
    source_path = excluded.source_path,
    display_title = excluded.display_title,
    current_stage = excluded.current_stage,
    completed_stages = excluded.completed_stages,
    stage_times = excluded.stage_times,
    fingerprint = excluded.fingerprint,
    last_error = excluded.last_error,
    updated_at = excluded.updated_at
`
	return retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, query,
			rec.ItemID,
			rec.SourcePath,
			rec.DisplayTitle,
			string(rec.CurrentStage),
			completed,
			times,
			rec.Fingerprint.String(),
			rec.LastError,
			rec.CreatedAt.Format(time.RFC3339Nano),
			rec.UpdatedAt.Format(time.RFC3339Nano),
		)
		return execErr
	})
}

// Load fetches one record by item ID. Absence is reported through
// services.ErrNotFound so callers can distinguish it from IO failure.
func (s *Store) Load(ctx context.Context, itemID string) (*Record, error) {
	ctx = ensureContext(ctx)
	const query = `
SELECT item_id, source_path, display_title, current_stage, completed_stages, stage_times, fingerprint, last_error, created_at, updated_at
FROM items WHERE item_id = ?
`
	var rec *Record
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(ctx, query, itemID)
		loaded, scanErr := scanRecord(row)
		if scanErr != nil {
			return scanErr
		}
		rec = loaded
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "state", "load", fmt.Sprintf("no record for item %s", itemID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", itemID, err)
	}
	return rec, nil
}

// List returns every record ordered by source path.
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	ctx = ensureContext(ctx)
	const query = `
SELECT item_id, source_path, display_title, current_stage, completed_stages, stage_times, fingerprint, last_error, created_at, updated_at
FROM items ORDER BY source_path
`
	var records []*Record
	err := retryOnBusy(ctx, func() error {
		rows, queryErr := s.db.QueryContext(ctx, query)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		records = records[:0]
		for rows.Next() {
			rec, scanErr := scanRecord(rows)
			if scanErr != nil {
				return scanErr
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Remove deletes one record, reporting whether it existed.
func (s *Store) Remove(ctx context.Context, itemID string) (bool, error) {
	ctx = ensureContext(ctx)
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx, `DELETE FROM items WHERE item_id = ?`, itemID)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return false, fmt.Errorf("remove record %s: %w", itemID, err)
	}
	return affected > 0, nil
}

// Stats counts records per current stage.
func (s *Store) Stats(ctx context.Context) (map[stage.Stage]int, error) {
	ctx = ensureContext(ctx)
	stats := make(map[stage.Stage]int)
	err := retryOnBusy(ctx, func() error {
		rows, queryErr := s.db.QueryContext(ctx, `SELECT current_stage, COUNT(*) FROM items GROUP BY current_stage`)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			var count int
			if scanErr := rows.Scan(&name, &count); scanErr != nil {
				return scanErr
			}
			stats[stage.Stage(name)] = count
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("stage stats: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec          Record
		currentStage string
		completed    string
		times        string
		fingerprint  string
		createdAt    string
		updatedAt    string
	)
	if err := row.Scan(
		&rec.ItemID,
		&rec.SourcePath,
		&rec.DisplayTitle,
		&currentStage,
		&completed,
		&times,
		&fingerprint,
		&rec.LastError,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	rec.CurrentStage = stage.Stage(currentStage)
	stages, err := decodeStages(completed)
	if err != nil {
		return nil, fmt.Errorf("decode completed stages: %w", err)
	}
	rec.Completed = stages
	stageTimes, err := decodeStageTimes(times)
	if err != nil {
		return nil, fmt.Errorf("decode stage times: %w", err)
	}
	rec.StageTimes = stageTimes
	if strings.TrimSpace(fingerprint) != "" {
		fp, fpErr := media.ParseFingerprint(fingerprint)
		if fpErr != nil {
			return nil, fmt.Errorf("decode fingerprint: %w", fpErr)
		}
		rec.Fingerprint = fp
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("decode updated_at: %w", err)
	}
	return &rec, nil
}

func encodeStages(stages []stage.Stage) (string, error) {
	if stages == nil {
		stages = []stage.Stage{}
	}
	data, err := json.Marshal(stages)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeStages(raw string) ([]stage.Stage, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var stages []stage.Stage
	if err := json.Unmarshal([]byte(raw), &stages); err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		return nil, nil
	}
	return stages, nil
}

func encodeStageTimes(times map[stage.Stage]time.Time) (string, error) {
	encoded := make(map[string]string, len(times))
	for s, t := range times {
		encoded[string(s)] = t.UTC().Format(time.RFC3339Nano)
	}
	data, err := json.Marshal(encoded)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeStageTimes(raw string) (map[stage.Stage]time.Time, error) {
	times := map[stage.Stage]time.Time{}
	if strings.TrimSpace(raw) == "" {
		return times, nil
	}
	var encoded map[string]string
	if err := json.Unmarshal([]byte(raw), &encoded); err != nil {
		return nil, err
	}
	for name, value := range encoded {
		t, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return nil, err
		}
		times[stage.Stage(name)] = t
	}
	return times, nil
}
