package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"repodump/internal/config"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	platform     TEXT      NOT NULL,
	username     TEXT      NOT NULL,
	started_at   TIMESTAMP NOT NULL,
	finished_at  TIMESTAMP NOT NULL,
	total        INTEGER   NOT NULL,
	succeeded    INTEGER   NOT NULL,
	failed       INTEGER   NOT NULL
);
CREATE TABLE IF NOT EXISTS run_issues (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      INTEGER   NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	repo        TEXT      NOT NULL,
	kind        TEXT      NOT NULL,
	message     TEXT      NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_issues_run ON run_issues(run_id);
`

// NewSQLite opens (or creates) the SQLite history database at cfg.Path.
func NewSQLite(cfg config.HistoryConfig) (Store, error) {
	path := cfg.Path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(home, config.DefaultHistoryDB)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite history: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(context.Background(), sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying sqlite schema: %w", err)
	}

	return &store{db: db, driver: "sqlite"}, nil
}
