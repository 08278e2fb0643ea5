package history

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveLoadRuns(t *testing.T) {
	store := openStore(t)

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	first := Run{WorkspaceKey: "demo", Timestamp: base, FileCount: 3, DeclCount: 40, ReferenceCount: 12, Unresolved: 2}
	dup := Run{WorkspaceKey: "demo", Timestamp: base, FileCount: 4, DeclCount: 41, ReferenceCount: 13, Unresolved: 1, Ambiguous: 1}
	second := Run{WorkspaceKey: "demo", Timestamp: base.Add(2 * time.Hour), SnapshotID: "abc", FileCount: 5, DeclCount: 50, ReferenceCount: 20, MalformedArguments: 1}

	for _, r := range []Run{first, dup, second} {
		if err := store.SaveRun(r); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}

	got, err := store.LoadRuns("demo", base.Add(time.Hour))
	if err != nil {
		t.Fatalf("load runs: %v", err)
	}
	if len(got) != 1 || got[0].SnapshotID != "abc" || got[0].MalformedArguments != 1 {
		t.Fatalf("unexpected runs after since filter: %+v", got)
	}

	all, err := store.LoadRuns("demo", time.Time{})
	if err != nil {
		t.Fatalf("load all runs: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 runs after upsert, got %d", len(all))
	}
	if all[0].FileCount != 4 || all[0].Problems() != 2 {
		t.Fatalf("expected upserted first run, got %+v", all[0])
	}
	if !all[0].Timestamp.Equal(base) {
		t.Fatalf("timestamp did not roundtrip: %v", all[0].Timestamp)
	}
}

func TestStore_WorkspaceIsolation(t *testing.T) {
	store := openStore(t)
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	if err := store.SaveRun(Run{WorkspaceKey: "a", Timestamp: base, FileCount: 1}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveRun(Run{Timestamp: base, FileCount: 2}); err != nil {
		t.Fatal(err)
	}

	aRuns, err := store.LoadRuns("a", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(aRuns) != 1 || aRuns[0].FileCount != 1 {
		t.Fatalf("unexpected rows for a: %+v", aRuns)
	}
	defRuns, err := store.LoadRuns("  ", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(defRuns) != 1 || defRuns[0].WorkspaceKey != "default" {
		t.Fatalf("unexpected default rows: %+v", defRuns)
	}
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("expected directory error, got %v", err)
	}
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	if err := os.WriteFile(path, []byte("this is not sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected sqlite open error")
	}
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "not a database") && !strings.Contains(lower, "schema") {
		t.Fatalf("expected schema/open error, got: %v", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	err = EnsureSchema(db)
	if err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("expected drift error, got %v", err)
	}
}

func TestBuildTrendReport(t *testing.T) {
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	runs := []Run{
		{Timestamp: base, DeclCount: 10, ReferenceCount: 20, Unresolved: 4},
		{Timestamp: base.Add(2 * time.Hour), DeclCount: 12, ReferenceCount: 25, Unresolved: 1, Ambiguous: 1},
		{Timestamp: base.Add(30 * time.Hour), DeclCount: 12, ReferenceCount: 26, Unresolved: 3},
	}

	report, err := BuildTrendReport("demo", runs, 24*time.Hour)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.RunCount != 3 || !report.Until.Equal(runs[2].Timestamp) {
		t.Fatalf("unexpected report header: %+v", report)
	}
	if report.Points[1].DeltaProblems != -2 || report.Points[1].DeltaDecls != 2 {
		t.Fatalf("unexpected deltas: %+v", report.Points[1])
	}
	if report.Points[1].AvgProblems != 3 {
		t.Fatalf("expected avg 3 over both runs, got %v", report.Points[1].AvgProblems)
	}
	if report.Points[2].AvgProblems != 3 {
		t.Fatalf("expected window to drop older runs, got %v", report.Points[2].AvgProblems)
	}

	if _, err := BuildTrendReport("demo", nil, time.Hour); err == nil {
		t.Fatal("expected error without runs")
	}
}

func TestIsCorruptError(t *testing.T) {
	if !IsCorruptError(errors.New("database disk image is malformed")) {
		t.Fatal("expected malformed sqlite message to be treated as corrupt")
	}
	if IsCorruptError(nil) {
		t.Fatal("nil is not corrupt")
	}
}
