package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS sync_ledger (
			email VARCHAR(255) PRIMARY KEY,
			contact_id VARCHAR(64) NOT NULL,
			tags TEXT NOT NULL,
			workflow_id VARCHAR(64) NOT NULL DEFAULT '',
			source VARCHAR(255) NOT NULL DEFAULT '',
			synced_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			INDEX idx_expires_at (expires_at)
		)`,
	},
	upsert: `
		INSERT INTO sync_ledger (email, contact_id, tags, workflow_id, source, synced_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			contact_id = VALUES(contact_id),
			tags = VALUES(tags),
			workflow_id = VALUES(workflow_id),
			source = VALUES(source),
			synced_at = VALUES(synced_at),
			expires_at = VALUES(expires_at)
	`,
}

// MySQLLedger is a MySQL implementation of the Ledger interface
type MySQLLedger struct {
	*sqlLedger
}

// NewMySQLLedger creates a new MySQL ledger
func NewMySQLLedger(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLLedger, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	l, err := newSQLLedger(db, mysqlDialect, logger, cleanupFreq)
	if err != nil {
		return nil, err
	}
	return &MySQLLedger{sqlLedger: l}, nil
}
