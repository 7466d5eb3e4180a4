package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mikey/ghl-ops/internal/core"
	"go.uber.org/zap"
)

// dialect holds the statements that differ between SQL backends
type dialect struct {
	name   string
	schema []string
	upsert string
}

// sqlLedger is the database/sql implementation shared by the SQLite and
// MySQL ledgers. Timestamps are stored as unix seconds.
type sqlLedger struct {
	db          *sql.DB
	dialect     dialect
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

func newSQLLedger(db *sql.DB, d dialect, logger *zap.Logger, cleanupFreq time.Duration) (*sqlLedger, error) {
	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create %s schema: %w", d.name, err)
		}
	}

	l := &sqlLedger{
		db:          db,
		dialect:     d,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go l.startCleanupTask()
	}

	return l, nil
}

// Get retrieves the entry for an email
func (l *sqlLedger) Get(ctx context.Context, email string) (*core.LedgerEntry, error) {
	var entry core.LedgerEntry
	var tags string
	var syncedAt, expiresAt int64

	err := l.db.QueryRowContext(ctx, `
		SELECT email, contact_id, tags, workflow_id, source, synced_at, expires_at
		FROM sync_ledger
		WHERE email = ? AND expires_at > ?
	`, key(email), time.Now().Unix()).Scan(
		&entry.Email, &entry.ContactID, &tags, &entry.WorkflowID, &entry.Source, &syncedAt, &expiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}

	entry.Tags = splitTags(tags)
	entry.SyncedAt = time.Unix(syncedAt, 0)
	entry.ExpiresAt = time.Unix(expiresAt, 0)
	return &entry, nil
}

// Set stores an entry
func (l *sqlLedger) Set(ctx context.Context, entry *core.LedgerEntry) error {
	_, err := l.db.ExecContext(ctx, l.dialect.upsert,
		key(entry.Email), entry.ContactID, strings.Join(entry.Tags, ","), entry.WorkflowID, entry.Source,
		entry.SyncedAt.Unix(), entry.ExpiresAt.Unix())

	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return nil
}

// Delete removes an entry
func (l *sqlLedger) Delete(ctx context.Context, email string) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM sync_ledger WHERE email = ?`, key(email))
	if err != nil {
		return fmt.Errorf("failed to delete ledger entry: %w", err)
	}

	return nil
}

// Cleanup removes expired entries
func (l *sqlLedger) Cleanup(ctx context.Context) error {
	result, err := l.db.ExecContext(ctx, `DELETE FROM sync_ledger WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		l.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		l.logger.Debug("Cleaned up expired ledger entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (l *sqlLedger) startCleanupTask() {
	ticker := time.NewTicker(l.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := l.Cleanup(context.Background()); err != nil {
				l.logger.Error("Failed to clean up ledger", zap.Error(err))
			}
		case <-l.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database connection
func (l *sqlLedger) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		if err := l.db.Close(); err != nil {
			l.logger.Error("Failed to close ledger database", zap.String("driver", l.dialect.name), zap.Error(err))
		}
	})
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
