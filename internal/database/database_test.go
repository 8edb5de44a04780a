package database

import (
	"strings"
	"testing"
)

func TestOpenAppliesSchemaAndPragmas(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		t.Fatalf("schema not applied: %v", err)
	}

	var fk int
	if err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("query pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestOpenOnDisk(t *testing.T) {
	path := t.TempDir() + "/test.db"

	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("query pragma: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestDSNEncodesPragmas(t *testing.T) {
	got := dsn("bramble.db")
	if !strings.HasPrefix(got, "bramble.db?") {
		t.Fatalf("dsn = %q", got)
	}
	for _, want := range []string{"busy_timeout(5000)", "foreign_keys(1)"} {
		if !strings.Contains(got, want) {
			t.Errorf("dsn missing %q: %s", want, got)
		}
	}
}
