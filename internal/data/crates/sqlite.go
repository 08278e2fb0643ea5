package crates

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

var _ Index = (*SQLiteIndex)(nil)

// SQLiteIndex persists an imported registry index. It becomes ready after
// the first successful import.
type SQLiteIndex struct {
	db         *sql.DB
	lookupStmt *sql.Stmt
}

func OpenSQLiteIndex(path string) (*SQLiteIndex, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("crate index path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("crate index path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create crate index directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open crate index %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping crate index %q: %w", cleanPath, err)
	}
	if err := migrateIndexSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	lookupStmt, err := db.Prepare(`SELECT version, yanked, features
FROM crate_versions
WHERE crate = ?
ORDER BY seq ASC`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare crate lookup stmt: %w", err)
	}
	return &SQLiteIndex{db: db, lookupStmt: lookupStmt}, nil
}

func (s *SQLiteIndex) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.lookupStmt != nil {
		_ = s.lookupStmt.Close()
	}
	return s.db.Close()
}

// Import stores every record read from r in one transaction and returns the
// number of records written. Re-importing a version overwrites it in place.
func (s *SQLiteIndex) Import(ctx context.Context, r io.Reader) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("crate index not initialized")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin crate import tx: %w", err)
	}
	n, err := importRecords(ctx, tx, r)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO index_meta (key, value) VALUES ('imported_at', ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value
`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("mark crate index ready: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit crate import tx: %w", err)
	}
	return n, nil
}

// ImportDir imports a checked-out registry index: every regular file below
// root except config.json and dot-directories holds one crate's records.
func (s *SQLiteIndex) ImportDir(ctx context.Context, root string) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == "config.json" || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open index file %q: %w", path, err)
		}
		defer f.Close()
		n, err := s.Import(ctx, f)
		if err != nil {
			return fmt.Errorf("import %q: %w", path, err)
		}
		total += n
		return nil
	})
	return total, err
}

func importRecords(ctx context.Context, tx *sql.Tx, r io.Reader) (int, error) {
	crateStmt, err := tx.PrepareContext(ctx, `INSERT INTO crates (name) VALUES (?) ON CONFLICT(name) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare crate insert: %w", err)
	}
	defer crateStmt.Close()
	versionStmt, err := tx.PrepareContext(ctx, `
INSERT INTO crate_versions (crate, seq, version, yanked, features)
VALUES (?, (SELECT COALESCE(MAX(seq), -1) + 1 FROM crate_versions WHERE crate = ?), ?, ?, ?)
ON CONFLICT(crate, version) DO UPDATE SET yanked = excluded.yanked, features = excluded.features
`)
	if err != nil {
		return 0, fmt.Errorf("prepare version insert: %w", err)
	}
	defer versionStmt.Close()

	n := 0
	err = ReadRecords(r, func(rec Record) error {
		v := rec.version()
		features, err := json.Marshal(v.Features)
		if err != nil {
			return fmt.Errorf("encode features of %s %s: %w", rec.Name, rec.Vers, err)
		}
		if _, err := crateStmt.ExecContext(ctx, rec.Name); err != nil {
			return fmt.Errorf("insert crate %s: %w", rec.Name, err)
		}
		if _, err := versionStmt.ExecContext(ctx, rec.Name, rec.Name, v.Version, v.Yanked, string(features)); err != nil {
			return fmt.Errorf("insert %s %s: %w", rec.Name, rec.Vers, err)
		}
		n++
		return nil
	})
	return n, err
}

func (s *SQLiteIndex) IsReady() bool {
	if s == nil || s.db == nil {
		return false
	}
	var value string
	err := s.db.QueryRow(`SELECT value FROM index_meta WHERE key = 'imported_at'`).Scan(&value)
	return err == nil && value != ""
}

func (s *SQLiteIndex) GetCrate(name string) (Crate, bool) {
	if s == nil || s.lookupStmt == nil {
		return Crate{}, false
	}
	rows, err := s.lookupStmt.Query(name)
	if err != nil {
		return Crate{}, false
	}
	defer rows.Close()

	c := Crate{Name: name}
	for rows.Next() {
		var (
			v   Version
			raw string
		)
		if err := rows.Scan(&v.Version, &v.Yanked, &raw); err != nil {
			return Crate{}, false
		}
		if err := json.Unmarshal([]byte(raw), &v.Features); err != nil {
			return Crate{}, false
		}
		c.Versions = append(c.Versions, v)
	}
	if rows.Err() != nil || len(c.Versions) == 0 {
		return Crate{}, false
	}
	return c, true
}

func (s *SQLiteIndex) AllCrateNames() []string {
	if s == nil || s.db == nil {
		return nil
	}
	rows, err := s.db.Query(`SELECT name FROM crates ORDER BY name`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil
		}
		out = append(out, name)
	}
	return out
}
