package factory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/ghl-ops/internal/adapters/ledger"
	"github.com/mikey/ghl-ops/internal/adapters/openai"
	"github.com/mikey/ghl-ops/internal/adapters/rules"
	"github.com/mikey/ghl-ops/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(values map[string]any) *config.Config {
	v := config.NewEmptyViper()
	for k, val := range values {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestCreateLedger(t *testing.T) {
	f := NewLedgerFactory(testConfig(map[string]any{"ledger.type": "memory"}), zap.NewNop())
	l, err := f.CreateLedger()
	require.NoError(t, err)
	defer l.Stop()
	assert.IsType(t, &ledger.MemoryLedger{}, l)

	ttl, err := f.LedgerTTL()
	require.NoError(t, err)
	assert.Equal(t, 90*24*time.Hour, ttl)
}

func TestCreateSQLiteLedgerMakesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	f := NewLedgerFactory(testConfig(map[string]any{"ledger.type": "sqlite", "ledger.sqlite_path": path}), zap.NewNop())
	l, err := f.CreateLedger()
	require.NoError(t, err)
	defer l.Stop()
	assert.FileExists(t, path)
}

func TestCreateLedgerUnsupported(t *testing.T) {
	_, err := NewLedgerFactory(testConfig(map[string]any{"ledger.type": "redis"}), zap.NewNop()).CreateLedger()
	assert.ErrorContains(t, err, "unsupported ledger type")
}

func TestCreateClassifier(t *testing.T) {
	tp := NewTextProcessorFactory(zap.NewNop()).CreateTextProcessor()
	ctx := context.Background()

	c, err := NewClassifierFactory(testConfig(nil), zap.NewNop(), tp).CreateClassifier(ctx)
	require.NoError(t, err)
	assert.Nil(t, c, "disabled by default")

	c, err = NewClassifierFactory(testConfig(map[string]any{"classify.enabled": true}), zap.NewNop(), tp).CreateClassifier(ctx)
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = NewClassifierFactory(testConfig(map[string]any{"classify.enabled": true, "classify.provider": "rules"}), zap.NewNop(), tp).CreateClassifier(ctx)
	require.NoError(t, err)
	assert.IsType(t, &rules.Classifier{}, c)

	c, err = NewClassifierFactory(testConfig(map[string]any{"classify.enabled": true, "classify.provider": "openai", "openai.api_key": "sk"}), zap.NewNop(), tp).CreateClassifier(ctx)
	require.NoError(t, err)
	assert.IsType(t, &openai.Classifier{}, c)

	_, err = NewClassifierFactory(testConfig(map[string]any{"classify.enabled": true, "classify.provider": "magic"}), zap.NewNop(), tp).CreateClassifier(ctx)
	assert.ErrorContains(t, err, "unsupported classifier provider")
}

func TestCreateGHLClient(t *testing.T) {
	_, err := NewGHLFactory(testConfig(nil), zap.NewNop()).CreateClient()
	assert.Error(t, err, "api key is required")

	f := NewGHLFactory(testConfig(map[string]any{"ghl.api_key": "k", "ghl.location_id": "loc"}), zap.NewNop())
	client, err := f.CreateClient()
	require.NoError(t, err)
	assert.Equal(t, "loc", client.LocationID())
	assert.NotNil(t, f.CreateCRM(client))
}

func TestCreateNotifier(t *testing.T) {
	n, err := NewNotifierFactory(testConfig(nil), zap.NewNop()).CreateNotifier()
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = NewNotifierFactory(testConfig(map[string]any{
		"notify.enabled": true,
		"notify.from":    "ops@broker.com",
		"notify.to":      []string{"me@broker.com"},
	}), zap.NewNop()).CreateNotifier()
	require.NoError(t, err)
	assert.NotNil(t, n)

	_, err = NewNotifierFactory(testConfig(map[string]any{"notify.enabled": true}), zap.NewNop()).CreateNotifier()
	assert.Error(t, err)
}
