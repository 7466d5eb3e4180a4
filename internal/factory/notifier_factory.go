package factory

import (
	"github.com/mikey/ghl-ops/internal/adapters/notify"
	"github.com/mikey/ghl-ops/internal/config"
	"github.com/mikey/ghl-ops/internal/core"
	"go.uber.org/zap"
)

// NotifierFactory creates the run report notifier
type NotifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifierFactory creates a new notifier factory
func NewNotifierFactory(cfg *config.Config, logger *zap.Logger) *NotifierFactory {
	return &NotifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNotifier returns nil when notifications are disabled
func (f *NotifierFactory) CreateNotifier() (core.Notifier, error) {
	notifyCfg := f.cfg.GetNotify()
	if !notifyCfg.Enabled {
		return nil, nil
	}

	n, err := notify.NewSMTPNotifier(notifyCfg, f.logger.Named("notify"))
	if err != nil {
		return nil, err
	}
	f.logger.Info("Report notifications enabled",
		zap.String("smtp_address", notifyCfg.SMTPAddress),
		zap.Strings("to", notifyCfg.To))
	return n, nil
}
