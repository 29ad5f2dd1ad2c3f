package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-rollup/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, config.NetworkTestnet, cfg.Network.Name)
	assert.Equal(t, []string{"https://aws-gw-v2.zk.link"}, cfg.Network.RPCURLs)
	assert.Equal(t, 2, cfg.Retry.MaxResubmits)
	assert.Equal(t, 200*time.Millisecond, cfg.Retry.InitialInterval)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, ":8080", cfg.Server.ListenAddress)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	_, err := json.MarshalIndent(cfg, "", "  ")
	require.NoError(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ROLLUP_NETWORK_NAME", "mainnet")
	t.Setenv("ROLLUP_RETRY_MAX_RESUBMITS", "5")
	t.Setenv("ROLLUP_AUTH_TIMEOUT", "45s")

	cfg, err := config.Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, config.NetworkMainnet, cfg.Network.Name)
	assert.Equal(t, []string{"https://api-v1.zk.link"}, cfg.Network.RPCURLs)
	assert.Equal(t, uint64(1), cfg.Network.BaseChainID)
	assert.Equal(t, 5, cfg.Retry.MaxResubmits)
	assert.Equal(t, 45*time.Second, cfg.Auth.Timeout)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rollup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
network:
  name: local
  rpc_urls:
    - http://127.0.0.1:3030
    - http://127.0.0.1:3031
  base_chain_id: 31337
retry:
  max_elapsed_time: 3s
logger:
  level: debug
`), 0o600))

	cfg, err := config.Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Network.Name)
	assert.Equal(t, []string{"http://127.0.0.1:3030", "http://127.0.0.1:3031"}, cfg.Network.RPCURLs)
	assert.Equal(t, uint64(31337), cfg.Network.BaseChainID)
	assert.Equal(t, 3*time.Second, cfg.Retry.MaxElapsedTime)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadUnknownNetworkWithoutURLs(t *testing.T) {
	t.Setenv("ROLLUP_NETWORK_NAME", "devnet")

	_, err := config.Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("ROLLUP_KEYSTORE_PATH=/tmp/rollup-test-keystore.json\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ROLLUP_KEYSTORE_PATH") })

	cfg, err := config.Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/rollup-test-keystore.json", cfg.Keystore.Path)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}
