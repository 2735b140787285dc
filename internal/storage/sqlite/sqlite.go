package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/steveyegge/scribe/internal/types"
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// New creates a new SQLite storage backend
func New(path string) (*SQLiteStorage, error) {
	if path != ":memory:" {
		// Ensure directory exists
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Open database with WAL mode for better concurrency: status readers
	// must never block the orchestrator's upserts.
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// RecordAction upserts the ledger record for (fingerprint, angle).
// The upsert is a single statement, so readers never observe a partial
// write, and last_acted_at is guarded against moving backward.
func (s *SQLiteStorage) RecordAction(ctx context.Context, fingerprint, angle string, at time.Time) error {
	if fingerprint == "" || angle == "" {
		return fmt.Errorf("fingerprint and angle are required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dedup_records (fingerprint, angle, last_acted_at)
		VALUES (?, ?, ?)
		ON CONFLICT(fingerprint, angle) DO UPDATE
		SET last_acted_at = excluded.last_acted_at
		WHERE excluded.last_acted_at > dedup_records.last_acted_at
	`, fingerprint, angle, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to record action for %s/%s: %w", fingerprint, angle, err)
	}
	return nil
}

// IsEligible returns true if no ledger record exists for the key, or if
// the cooldown has fully elapsed. The boundary is inclusive: an entity
// acted on at t0 becomes eligible again exactly at t0+cooldown.
func (s *SQLiteStorage) IsEligible(ctx context.Context, fingerprint, angle string, now time.Time, cooldown time.Duration) (bool, error) {
	rec, err := s.GetDedupRecord(ctx, fingerprint, angle)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return true, nil
	}
	return now.Sub(rec.LastActedAt) >= cooldown, nil
}

// GetDedupRecord fetches the ledger record for a key, or nil if absent.
func (s *SQLiteStorage) GetDedupRecord(ctx context.Context, fingerprint, angle string) (*types.DedupRecord, error) {
	var lastActed string
	err := s.db.QueryRowContext(ctx, `
		SELECT last_acted_at FROM dedup_records
		WHERE fingerprint = ? AND angle = ?
	`, fingerprint, angle).Scan(&lastActed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query dedup record: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, lastActed)
	if err != nil {
		return nil, fmt.Errorf("corrupt last_acted_at for %s/%s: %w", fingerprint, angle, err)
	}
	return &types.DedupRecord{Fingerprint: fingerprint, Angle: angle, LastActedAt: t}, nil
}

// EligibleSet is the batch form of IsEligible used by the selector.
// Fingerprints with no record are eligible; recorded ones are eligible
// when the cooldown has elapsed.
func (s *SQLiteStorage) EligibleSet(ctx context.Context, fingerprints []string, angle string, now time.Time, cooldown time.Duration) (map[string]bool, error) {
	eligible := make(map[string]bool, len(fingerprints))
	for _, fp := range fingerprints {
		eligible[fp] = true
	}
	if len(fingerprints) == 0 {
		return eligible, nil
	}

	placeholders := strings.Repeat("?,", len(fingerprints))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, 0, len(fingerprints)+1)
	args = append(args, angle)
	for _, fp := range fingerprints {
		args = append(args, fp)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint, last_acted_at FROM dedup_records
		WHERE angle = ? AND fingerprint IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible set: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fp, lastActed string
		if err := rows.Scan(&fp, &lastActed); err != nil {
			return nil, fmt.Errorf("failed to scan dedup row: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, lastActed)
		if err != nil {
			return nil, fmt.Errorf("corrupt last_acted_at for %s/%s: %w", fp, angle, err)
		}
		eligible[fp] = now.Sub(t) >= cooldown
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dedup rows: %w", err)
	}
	return eligible, nil
}

// SaveScheduleDay persists the ordered slot list for a day. It refuses
// to overwrite a day that already exists: schedules are generated once.
func (s *SQLiteStorage) SaveScheduleDay(ctx context.Context, date string, fireAt []time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO schedule_days (date, generated_at)
		VALUES (?, ?)
		ON CONFLICT(date) DO NOTHING
	`, date, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert schedule day %s: %w", date, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("schedule for %s already exists", date)
	}

	for i, t := range fireAt {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO schedule_slots (date, seq, fire_at, fired)
			VALUES (?, ?, ?, 0)
		`, date, i, t.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("failed to insert slot %d for %s: %w", i, date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schedule day %s: %w", date, err)
	}
	return nil
}

// GetScheduleDay returns the ordered slots for a day, or nil if the day
// has not been generated yet.
func (s *SQLiteStorage) GetScheduleDay(ctx context.Context, date string) ([]*types.ScheduleSlot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, fire_at, fired FROM schedule_slots
		WHERE date = ?
		ORDER BY seq ASC
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule for %s: %w", date, err)
	}
	defer rows.Close()

	var slots []*types.ScheduleSlot
	for rows.Next() {
		var seq, fired int
		var fireAt string
		if err := rows.Scan(&seq, &fireAt, &fired); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, fireAt)
		if err != nil {
			return nil, fmt.Errorf("corrupt fire_at in %s/%d: %w", date, seq, err)
		}
		slots = append(slots, &types.ScheduleSlot{
			Date:   date,
			Seq:    seq,
			FireAt: t,
			Fired:  fired != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate slots: %w", err)
	}

	if slots == nil {
		// Distinguish "never generated" from "generated empty".
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM schedule_days WHERE date = ?`, date).Scan(&exists)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check schedule day %s: %w", date, err)
		}
		return []*types.ScheduleSlot{}, nil
	}
	return slots, nil
}

// MarkSlotFired flips a slot's fired flag. Firing is one-way.
func (s *SQLiteStorage) MarkSlotFired(ctx context.Context, date string, seq int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE schedule_slots SET fired = 1 WHERE date = ? AND seq = ?
	`, date, seq)
	if err != nil {
		return fmt.Errorf("failed to mark slot %s/%d fired: %w", date, seq, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("slot %s/%d does not exist", date, seq)
	}
	return nil
}

// RecordCycleResult appends one audit row.
func (s *SQLiteStorage) RecordCycleResult(ctx context.Context, result *types.CycleResult) error {
	if result.ID == "" {
		return fmt.Errorf("cycle result ID is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cycle_results
		(id, fired_at, repo, fingerprint, entity_name, angle, outcome, detail, commit_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.ID,
		result.FiredAt.UTC().Format(time.RFC3339Nano),
		result.Repo,
		result.Fingerprint,
		result.EntityName,
		result.Angle,
		string(result.Outcome),
		result.Detail,
		result.CommitID,
	)
	if err != nil {
		return fmt.Errorf("failed to record cycle result: %w", err)
	}
	return nil
}

// GetRecentCycleResults returns the most recent cycle results, newest first.
func (s *SQLiteStorage) GetRecentCycleResults(ctx context.Context, limit int) ([]*types.CycleResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fired_at, repo, fingerprint, entity_name, angle, outcome, detail, commit_id
		FROM cycle_results
		ORDER BY fired_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle results: %w", err)
	}
	defer rows.Close()

	var results []*types.CycleResult
	for rows.Next() {
		var r types.CycleResult
		var firedAt, outcome string
		if err := rows.Scan(&r.ID, &firedAt, &r.Repo, &r.Fingerprint,
			&r.EntityName, &r.Angle, &outcome, &r.Detail, &r.CommitID); err != nil {
			return nil, fmt.Errorf("failed to scan cycle result: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, firedAt)
		if err != nil {
			return nil, fmt.Errorf("corrupt fired_at in cycle result %s: %w", r.ID, err)
		}
		r.FiredAt = t
		r.Outcome = types.CycleOutcome(outcome)
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cycle results: %w", err)
	}
	return results, nil
}

// GetStatistics summarizes ledger contents and cycle history.
func (s *SQLiteStorage) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	stats := &types.Statistics{
		ByRepo:  make(map[string]int),
		ByAngle: make(map[string]int),
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dedup_records`).Scan(&stats.TotalDocumented)
	if err != nil {
		return nil, fmt.Errorf("failed to count dedup records: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -7).UTC().Format(time.RFC3339Nano)
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dedup_records WHERE last_acted_at > ?`, cutoff).Scan(&stats.Last7Days)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent records: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT repo, COUNT(*) FROM cycle_results
		WHERE outcome = 'committed' AND repo != ''
		GROUP BY repo
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by repo: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var repo string
		var n int
		if err := rows.Scan(&repo, &n); err != nil {
			return nil, fmt.Errorf("failed to scan repo count: %w", err)
		}
		stats.ByRepo[repo] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate repo counts: %w", err)
	}

	angleRows, err := s.db.QueryContext(ctx,
		`SELECT angle, COUNT(*) FROM dedup_records GROUP BY angle`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by angle: %w", err)
	}
	defer angleRows.Close()
	for angleRows.Next() {
		var angle string
		var n int
		if err := angleRows.Scan(&angle, &n); err != nil {
			return nil, fmt.Errorf("failed to scan angle count: %w", err)
		}
		stats.ByAngle[angle] = n
	}
	if err := angleRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate angle counts: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN outcome = 'failed' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN outcome = 'skipped' THEN 1 ELSE 0 END), 0)
		FROM cycle_results
	`).Scan(&stats.TotalCycles, &stats.FailedCycles, &stats.SkippedCycles)
	if err != nil {
		return nil, fmt.Errorf("failed to count cycles: %w", err)
	}

	return stats, nil
}
