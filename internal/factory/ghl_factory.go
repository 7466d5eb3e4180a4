package factory

import (
	"github.com/mikey/ghl-ops/internal/adapters/crm"
	"github.com/mikey/ghl-ops/internal/config"
	"github.com/mikey/ghl-ops/internal/ghl"
	"go.uber.org/zap"
)

// contactSource is recorded on every contact this tool creates
const contactSource = "ghl-ops"

// GHLFactory creates the GoHighLevel client and its CRM adapter
type GHLFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewGHLFactory creates a new GHL factory
func NewGHLFactory(cfg *config.Config, logger *zap.Logger) *GHLFactory {
	return &GHLFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates an API client for the configured location
func (f *GHLFactory) CreateClient() (*ghl.Client, error) {
	ghlCfg := f.cfg.GetGHL()
	return ghl.NewClient(ghl.Options{
		BaseURL:      ghlCfg.BaseURL,
		APIVersion:   ghlCfg.APIVersion,
		Token:        ghlCfg.APIKey,
		LocationID:   ghlCfg.LocationID,
		Timeout:      ghlCfg.Timeout,
		RateLimit:    ghlCfg.RateLimit,
		RateBurst:    ghlCfg.RateBurst,
		RetryCount:   ghlCfg.RetryCount,
		RetryWait:    ghlCfg.RetryWait,
		RetryMaxWait: ghlCfg.RetryMaxWait,
	}, f.logger.Named("ghl"))
}

// CreateCRM wraps a client in the core CRM port
func (f *GHLFactory) CreateCRM(client *ghl.Client) *crm.GHLCRM {
	return crm.NewGHLCRM(client, contactSource)
}
