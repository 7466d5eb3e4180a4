package gemini

import (
	"context"

	"github.com/mikey/ghl-ops/internal/config"
	"github.com/mikey/ghl-ops/internal/textutil"
	"go.uber.org/zap"
)

// Factory creates new instances of the Gemini classifier
type Factory struct {
	cfg           config.GeminiConfig
	logger        *zap.Logger
	textProcessor *textutil.TextProcessor
}

// NewFactory creates a new factory for Gemini classifiers
func NewFactory(cfg config.GeminiConfig, logger *zap.Logger, textProcessor *textutil.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a new Gemini classifier
func (f *Factory) CreateClassifier(ctx context.Context) (*Classifier, error) {
	return NewClassifier(
		ctx,
		f.cfg.APIKey,
		f.cfg.ModelName,
		f.cfg.MaxTokens,
		f.cfg.Temperature,
		f.cfg.TopP,
		f.cfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	)
}
