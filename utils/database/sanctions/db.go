package sanctions

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Init opens the sanction database and ensures the sanctions table exists.
func Init(dbPath string) (*sqlx.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// sqlite only allows one writer; an in-memory database also vanishes per connection.
	db.SetMaxOpenConns(1)

	schema := `CREATE TABLE IF NOT EXISTS sanctions (
		guild_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		actor_id TEXT NOT NULL DEFAULT '',
		actor_name TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		matched_keyword TEXT NOT NULL DEFAULT '',
		channel_id TEXT NOT NULL DEFAULT '',
		started_at INTEGER NOT NULL,
		duration_seconds INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		PRIMARY KEY (guild_id, user_id)
	);
	CREATE INDEX IF NOT EXISTS idx_sanctions_expires_at ON sanctions (expires_at);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sanctions table: %w", err)
	}

	return db, nil
}
