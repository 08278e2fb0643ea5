package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}
	if dir := filepath.Dir(cleanPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}
	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveRun records a run. A second run for the same workspace and timestamp
// replaces the first.
func (s *Store) SaveRun(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeKey(run.WorkspaceKey)
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}

	const query = `
INSERT INTO check_runs (
  workspace_key, ts_utc, snapshot_id, file_count, decl_count, reference_count,
  unresolved, ambiguous, cyclic_aliases, malformed_arguments
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(workspace_key, ts_utc) DO UPDATE SET
  snapshot_id=excluded.snapshot_id,
  file_count=excluded.file_count,
  decl_count=excluded.decl_count,
  reference_count=excluded.reference_count,
  unresolved=excluded.unresolved,
  ambiguous=excluded.ambiguous,
  cyclic_aliases=excluded.cyclic_aliases,
  malformed_arguments=excluded.malformed_arguments
`
	return s.withRetry("save run", func() error {
		_, err := s.db.Exec(query,
			key,
			run.Timestamp.UTC().Format(time.RFC3339Nano),
			run.SnapshotID,
			run.FileCount,
			run.DeclCount,
			run.ReferenceCount,
			run.Unresolved,
			run.Ambiguous,
			run.CyclicAliases,
			run.MalformedArguments,
		)
		return err
	})
}

// LoadRuns returns the runs of a workspace at or after since, oldest first.
// A zero since returns every run.
func (s *Store) LoadRuns(workspaceKey string, since time.Time) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT workspace_key, ts_utc, snapshot_id, file_count, decl_count, reference_count,
  unresolved, ambiguous, cyclic_aliases, malformed_arguments
FROM check_runs
WHERE workspace_key = ?`
	args := []any{normalizeKey(workspaceKey)}
	if !since.IsZero() {
		query += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY ts_utc ASC"

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			tsRaw string
			run   Run
		)
		if err := rows.Scan(
			&run.WorkspaceKey,
			&tsRaw,
			&run.SnapshotID,
			&run.FileCount,
			&run.DeclCount,
			&run.ReferenceCount,
			&run.Unresolved,
			&run.Ambiguous,
			&run.CyclicAliases,
			&run.MalformedArguments,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

func normalizeKey(key string) string {
	if key = strings.TrimSpace(key); key == "" {
		return "default"
	}
	return key
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

// IsCorruptError reports whether err indicates the history file is not a
// usable database.
func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
