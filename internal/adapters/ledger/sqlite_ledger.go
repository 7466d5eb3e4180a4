package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS sync_ledger (
			email TEXT PRIMARY KEY,
			contact_id TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '',
			workflow_id TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			synced_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
		// Create index on expires_at for faster cleanup
		`CREATE INDEX IF NOT EXISTS idx_sync_ledger_expires_at ON sync_ledger(expires_at)`,
	},
	upsert: `
		INSERT OR REPLACE INTO sync_ledger (email, contact_id, tags, workflow_id, source, synced_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
}

// SQLiteLedger is a SQLite implementation of the Ledger interface
type SQLiteLedger struct {
	*sqlLedger
}

// NewSQLiteLedger creates a new SQLite ledger
func NewSQLiteLedger(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// A single writer avoids "database is locked" under concurrent syncs
	db.SetMaxOpenConns(1)

	l, err := newSQLLedger(db, sqliteDialect, logger, cleanupFreq)
	if err != nil {
		return nil, err
	}
	return &SQLiteLedger{sqlLedger: l}, nil
}
