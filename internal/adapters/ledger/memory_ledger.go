package ledger

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mikey/ghl-ops/internal/core"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a ledger entry is missing or expired
var ErrNotFound = core.ErrNotFound

// MemoryLedger is an in-memory implementation of the Ledger interface
type MemoryLedger struct {
	entries     map[string]*core.LedgerEntry
	mu          sync.RWMutex
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMemoryLedger creates a new in-memory ledger
func NewMemoryLedger(logger *zap.Logger, cleanupFreq time.Duration) *MemoryLedger {
	l := &MemoryLedger{
		entries:     make(map[string]*core.LedgerEntry),
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go l.startCleanupTask()
	}

	return l
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Get retrieves the entry for an email
func (l *MemoryLedger) Get(ctx context.Context, email string) (*core.LedgerEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.entries[key(email)]
	if !ok || time.Now().After(entry.ExpiresAt) {
		return nil, ErrNotFound
	}

	copied := *entry
	copied.Tags = append([]string(nil), entry.Tags...)
	return &copied, nil
}

// Set stores an entry
func (l *MemoryLedger) Set(ctx context.Context, entry *core.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	copied := *entry
	copied.Email = key(entry.Email)
	copied.Tags = append([]string(nil), entry.Tags...)
	l.entries[copied.Email] = &copied
	return nil
}

// Delete removes an entry
func (l *MemoryLedger) Delete(ctx context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, key(email))
	return nil
}

// Cleanup removes expired entries
func (l *MemoryLedger) Cleanup(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	expiredCount := 0

	for k, entry := range l.entries {
		if now.After(entry.ExpiresAt) {
			delete(l.entries, k)
			expiredCount++
		}
	}

	l.logger.Debug("Cleaned up expired ledger entries", zap.Int("expired_count", expiredCount))
	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (l *MemoryLedger) startCleanupTask() {
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

// Stop stops the background cleanup task
func (l *MemoryLedger) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}
