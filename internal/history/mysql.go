package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"repodump/internal/config"
)

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id           BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
	platform     VARCHAR(32)  NOT NULL,
	username     VARCHAR(255) NOT NULL,
	started_at   DATETIME(6)  NOT NULL,
	finished_at  DATETIME(6)  NOT NULL,
	total        INT          NOT NULL,
	succeeded    INT          NOT NULL,
	failed       INT          NOT NULL
) ENGINE=InnoDB;
CREATE TABLE IF NOT EXISTS run_issues (
	id          BIGINT        NOT NULL AUTO_INCREMENT PRIMARY KEY,
	run_id      BIGINT        NOT NULL,
	repo        VARCHAR(512)  NOT NULL,
	kind        VARCHAR(32)   NOT NULL,
	message     TEXT          NOT NULL,
	created_at  DATETIME(6)   NOT NULL,
	INDEX idx_run_issues_run (run_id),
	CONSTRAINT fk_run_issues_run FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
) ENGINE=InnoDB;
`

// NewMySQL connects to the MySQL history database described by cfg.DSN.
func NewMySQL(cfg config.HistoryConfig) (Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("history.dsn is required for the mysql driver")
	}

	dsn := cfg.DSN
	if !strings.Contains(dsn, "parseTime") {
		if strings.Contains(dsn, "?") {
			dsn += "&parseTime=true"
		} else {
			dsn += "?parseTime=true"
		}
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening mysql history: %w", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(4)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging mysql history: %w", err)
	}

	// MySQL refuses multiple statements per Exec by default.
	for _, stmt := range strings.Split(mysqlSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying mysql schema: %w", err)
		}
	}

	return &store{db: db, driver: "mysql"}, nil
}
