package di

import (
	"context"
	"fmt"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/ghl-ops/internal/adapters/intake"
	"github.com/mikey/ghl-ops/internal/config"
	"github.com/mikey/ghl-ops/internal/core"
	"github.com/mikey/ghl-ops/internal/factory"
	"github.com/mikey/ghl-ops/internal/ghl"
	"github.com/mikey/ghl-ops/internal/logging"
	"github.com/mikey/ghl-ops/internal/mbox"
	"github.com/mikey/ghl-ops/internal/sources"
	"github.com/mikey/ghl-ops/internal/suppression"
	"github.com/mikey/ghl-ops/internal/textutil"
)

// BuildContainer creates the container for the intake daemon. Logging is
// configured from the config file.
func BuildContainer(configFile string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		return config.Load(configFile)
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideServices(container); err != nil {
		return nil, err
	}
	return container, nil
}

// provideServices registers everything built on top of config and logger
func provideServices(container *dig.Container) error {
	// Register factories
	for _, ctor := range []any{
		factory.NewLedgerFactory,
		factory.NewClassifierFactory,
		factory.NewGHLFactory,
		factory.NewTextProcessorFactory,
		factory.NewNotifierFactory,
	} {
		if err := container.Provide(ctor); err != nil {
			return err
		}
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *textutil.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register ledger
	if err := container.Provide(func(f *factory.LedgerFactory) (core.Ledger, error) {
		return f.CreateLedger()
	}); err != nil {
		return err
	}

	// Register lead classifier, nil when disabled
	if err := container.Provide(func(f *factory.ClassifierFactory) (core.LeadClassifier, error) {
		return f.CreateClassifier(context.Background())
	}); err != nil {
		return err
	}

	// Register GHL client and CRM adapter
	if err := container.Provide(func(f *factory.GHLFactory) (*ghl.Client, error) {
		return f.CreateClient()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.GHLFactory, client *ghl.Client) core.CRM {
		return f.CreateCRM(client)
	}); err != nil {
		return err
	}

	// Register suppression checker under both ports
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *suppression.Checker {
		syncCfg := cfg.GetSync()
		return suppression.NewChecker(syncCfg.SuppressedDomains, syncCfg.SuppressedLocalParts, syncCfg.SelfAddresses, logger)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(c *suppression.Checker) core.Suppressor { return c }); err != nil {
		return err
	}
	if err := container.Provide(func(c *suppression.Checker) mbox.Suppressor { return c }); err != nil {
		return err
	}

	// Register source loader
	if err := container.Provide(sources.NewLoader); err != nil {
		return err
	}

	// Register sync service
	if err := container.Provide(func(
		crm core.CRM,
		ledger core.Ledger,
		classifier core.LeadClassifier,
		suppressor core.Suppressor,
		logger *zap.Logger,
		cfg *config.Config,
		lf *factory.LedgerFactory,
	) (*core.SyncService, error) {
		ttl, err := lf.LedgerTTL()
		if err != nil {
			return nil, err
		}
		syncCfg := cfg.GetSync()
		return core.NewSyncService(
			crm,
			ledger,
			classifier,
			suppressor,
			logger,
			ttl,
			cfg.GetClassify().Threshold,
			syncCfg.DefaultTags,
			syncCfg.Workers,
		), nil
	}); err != nil {
		return err
	}

	// Register notifier, nil when disabled
	if err := container.Provide(func(f *factory.NotifierFactory) (core.Notifier, error) {
		return f.CreateNotifier()
	}); err != nil {
		return err
	}

	// Register intake server
	if err := container.Provide(func(
		svc *core.SyncService,
		suppressor mbox.Suppressor,
		notifier core.Notifier,
		cfg *config.Config,
		logger *zap.Logger,
	) (*intake.Server, error) {
		intakeCfg := cfg.GetIntake()
		if intakeCfg.ListenAddress == "" {
			return nil, fmt.Errorf("intake.listen_address is required")
		}
		return intake.NewServer(svc, suppressor, notifier, intakeCfg, logger.Named("intake")), nil
	}); err != nil {
		return err
	}

	return nil
}
