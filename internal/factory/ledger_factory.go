package factory

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mikey/ghl-ops/internal/adapters/ledger"
	"github.com/mikey/ghl-ops/internal/config"
	"github.com/mikey/ghl-ops/internal/core"
	"go.uber.org/zap"
)

// LedgerFactory creates sync ledgers based on configuration
type LedgerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLedgerFactory creates a new ledger factory
func NewLedgerFactory(cfg *config.Config, logger *zap.Logger) *LedgerFactory {
	return &LedgerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLedger creates a ledger based on the configuration
func (f *LedgerFactory) CreateLedger() (core.Ledger, error) {
	ledgerCfg := f.cfg.GetLedger()
	if ledgerCfg.CleanupFrequency < 0 {
		return nil, fmt.Errorf("invalid ledger cleanup frequency: %s", ledgerCfg.CleanupFrequency)
	}

	switch ledgerCfg.Type {
	case "memory":
		return ledger.NewMemoryLedger(f.logger, ledgerCfg.CleanupFrequency), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(ledgerCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return ledger.NewSQLiteLedger(ledgerCfg.SQLitePath, f.logger, ledgerCfg.CleanupFrequency)
	case "mysql":
		return ledger.NewMySQLLedger(ledgerCfg.MySQLDSN, f.logger, ledgerCfg.CleanupFrequency)
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", ledgerCfg.Type)
	}
}

// LedgerTTL returns how long a synced contact is remembered
func (f *LedgerFactory) LedgerTTL() (time.Duration, error) {
	return f.cfg.GetDuration("ledger.ttl")
}
