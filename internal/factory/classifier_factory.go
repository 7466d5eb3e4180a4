package factory

import (
	"context"
	"fmt"

	"github.com/mikey/ghl-ops/internal/adapters/bedrock"
	"github.com/mikey/ghl-ops/internal/adapters/gemini"
	"github.com/mikey/ghl-ops/internal/adapters/openai"
	"github.com/mikey/ghl-ops/internal/adapters/rules"
	"github.com/mikey/ghl-ops/internal/config"
	"github.com/mikey/ghl-ops/internal/core"
	"github.com/mikey/ghl-ops/internal/textutil"
	"go.uber.org/zap"
)

// ClassifierFactory creates lead classifiers
type ClassifierFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *textutil.TextProcessor
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(cfg *config.Config, logger *zap.Logger, textProcessor *textutil.TextProcessor) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates the configured classifier. It returns nil when
// classification is disabled or the provider is "none".
func (f *ClassifierFactory) CreateClassifier(ctx context.Context) (core.LeadClassifier, error) {
	classifyCfg := f.cfg.GetClassify()
	if !classifyCfg.Enabled {
		return nil, nil
	}

	f.logger.Info("Lead classification enabled",
		zap.String("provider", classifyCfg.Provider),
		zap.Float64("threshold", classifyCfg.Threshold))

	switch classifyCfg.Provider {
	case "", "none":
		return nil, nil
	case "rules":
		return rules.NewClassifier(), nil
	case "bedrock":
		return bedrock.NewFactory(f.cfg.GetBedrock(), f.logger, f.textProcessor).CreateClassifier(ctx)
	case "gemini":
		return gemini.NewFactory(f.cfg.GetGemini(), f.logger, f.textProcessor).CreateClassifier(ctx)
	case "openai":
		return openai.NewFactory(f.cfg.GetOpenAI(), f.logger, f.textProcessor).CreateClassifier(), nil
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", classifyCfg.Provider)
	}
}
