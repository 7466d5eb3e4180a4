package di

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mikey/ghl-ops/internal/adapters/intake"
	"github.com/mikey/ghl-ops/internal/config"
	"github.com/mikey/ghl-ops/internal/core"
	"github.com/mikey/ghl-ops/internal/ghl"
	"github.com/mikey/ghl-ops/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestBuildCLIContainerResolvesServices(t *testing.T) {
	path := writeConfig(t, `
ghl:
  api_key: test-key
  location_id: loc-1
ledger:
  type: memory
classify:
  enabled: true
  provider: rules
`)
	container, err := BuildCLIContainer(&CLIFlags{ConfigFile: path})
	require.NoError(t, err)

	err = container.Invoke(func(cfg *config.Config, client *ghl.Client, svc *core.SyncService, loader *sources.Loader, ledger core.Ledger, classifier core.LeadClassifier) {
		assert.Equal(t, "loc-1", cfg.GetGHL().LocationID)
		assert.Equal(t, "loc-1", client.LocationID())
		assert.NotNil(t, svc)
		assert.NotNil(t, loader)
		assert.NotNil(t, classifier)
		ledger.Stop()
	})
	require.NoError(t, err)
}

func TestBuildContainerIntake(t *testing.T) {
	path := writeConfig(t, `
ghl:
  api_key: test-key
  location_id: loc-1
ledger:
  type: memory
intake:
  listen_address: 127.0.0.1:0
logging:
  level: error
`)
	container, err := BuildContainer(path)
	require.NoError(t, err)

	err = container.Invoke(func(srv *intake.Server, notifier core.Notifier, ledger core.Ledger) {
		assert.NotNil(t, srv)
		assert.Nil(t, notifier)
		ledger.Stop()
	})
	require.NoError(t, err)
}

func TestMissingCredentialsFailOnlyWhenNeeded(t *testing.T) {
	path := writeConfig(t, "ledger:\n  type: memory\n")
	container, err := BuildCLIContainer(&CLIFlags{ConfigFile: path})
	require.NoError(t, err)

	assert.NoError(t, container.Invoke(func(loader *sources.Loader) {}))
	assert.Error(t, container.Invoke(func(client *ghl.Client) {}))
}
