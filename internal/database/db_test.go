package database

import (
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
)

func TestHistoryDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		wantBase string
		wantKeep map[string]string
	}{
		{name: "plain path", path: "storage.db", wantBase: "file:storage.db"},
		{name: "file uri", path: "file:/var/lib/bot/history.db", wantBase: "file:/var/lib/bot/history.db"},
		{
			name:     "existing query kept",
			path:     "file:history.db?mode=rwc",
			wantBase: "file:history.db",
			wantKeep: map[string]string{"mode": "rwc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dsn := historyDSN(tt.path)
			base, query, ok := strings.Cut(dsn, "?")
			if !ok {
				t.Fatalf("historyDSN(%q) = %q, missing query", tt.path, dsn)
			}
			if base != tt.wantBase {
				t.Errorf("base = %q, want %q", base, tt.wantBase)
			}

			params, err := url.ParseQuery(query)
			if err != nil {
				t.Fatalf("ParseQuery(%q): %v", query, err)
			}
			pragmas := params["_pragma"]
			if len(pragmas) != len(connPragmas) {
				t.Fatalf("_pragma = %v, want %v", pragmas, connPragmas)
			}
			for i, p := range connPragmas {
				if pragmas[i] != p {
					t.Errorf("_pragma[%d] = %q, want %q", i, pragmas[i], p)
				}
			}
			for k, v := range tt.wantKeep {
				if got := params.Get(k); got != v {
					t.Errorf("%s = %q, want %q", k, got, v)
				}
			}
		})
	}
}

func TestFilePath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"storage.db":                  "storage.db",
		"file:storage.db?_pragma=wal": "storage.db",
		"file:my%20db.sqlite":         "my db.sqlite",
	}
	for in, want := range tests {
		if got := filePath(in); got != want {
			t.Errorf("filePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewDBAppliesPragmas(t *testing.T) {
	t.Parallel()

	db, err := NewDB(filepath.Join(t.TempDir(), "history.db"), nil)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { CloseDB(db) })

	var mode string
	if err := db.Get(&mode, "PRAGMA journal_mode"); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var timeout int64
	if err := db.Get(&timeout, "PRAGMA busy_timeout"); err != nil {
		t.Fatalf("busy_timeout: %v", err)
	}
	if timeout != busyTimeout.Milliseconds() {
		t.Errorf("busy_timeout = %d, want %d", timeout, busyTimeout.Milliseconds())
	}
}

func TestNewDBReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.db")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	first, err := NewDB(path, log)
	if err != nil {
		t.Fatalf("first NewDB: %v", err)
	}
	CloseDB(first)

	db, err := NewDB(path, log)
	if err != nil {
		t.Fatalf("second NewDB: %v", err)
	}
	t.Cleanup(func() { CloseDB(db) })

	version, err := ApplyMigrations(db.DB, path, log)
	if err != nil {
		t.Fatalf("ApplyMigrations on current schema: %v", err)
	}
	if version != 1 {
		t.Errorf("schema version = %d, want 1", version)
	}
}

func TestNewDBEmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := NewDB("  ", nil); err == nil {
		t.Fatal("NewDB with blank path returned nil error")
	}
}
