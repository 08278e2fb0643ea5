package crates

import (
	"database/sql"
	"fmt"
)

func migrateIndexSchema(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("crate index db is nil")
	}
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS crates (
  name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS crate_versions (
  crate TEXT NOT NULL REFERENCES crates(name) ON DELETE CASCADE,
  seq INTEGER NOT NULL,
  version TEXT NOT NULL,
  yanked INTEGER NOT NULL DEFAULT 0,
  features TEXT NOT NULL DEFAULT '[]',
  PRIMARY KEY (crate, version)
);
CREATE INDEX IF NOT EXISTS idx_crate_versions_seq ON crate_versions(crate, seq);
CREATE TABLE IF NOT EXISTS index_meta (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`)
	if err != nil {
		return fmt.Errorf("migrate crate index schema: %w", err)
	}
	return nil
}
