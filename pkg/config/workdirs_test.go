package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubinix-warun/suibase/pkg/types"
)

func TestDefaultCatalog_LocalnetOnly(t *testing.T) {
	cat := DefaultCatalog()
	require.Len(t, cat.Workdirs, 1)
	assert.Equal(t, types.WorkdirIdxLocalnet, cat.Workdirs[0].Idx)
	assert.Equal(t, types.DefaultEndpoints[types.WorkdirIdxLocalnet], cat.Workdirs[0].Endpoint)
}

func TestLoadCatalog_EnabledWithOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workdirs.yaml")
	content := "enabled:\n  - localnet\n  - testnet\nendpoints:\n  testnet: wss://custom.example.com:443\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, cat.Workdirs, 2)

	wc, ok := cat.Lookup(types.WorkdirIdxTestnet)
	require.True(t, ok)
	assert.Equal(t, "wss://custom.example.com:443", wc.Endpoint)

	wc, ok = cat.Lookup(types.WorkdirIdxLocalnet)
	require.True(t, ok)
	assert.Equal(t, types.DefaultEndpoints[types.WorkdirIdxLocalnet], wc.Endpoint)
}

func TestLoadCatalog_UnknownWorkdirErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workdirs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled:\n  - nosuchnet\n"), 0o644))

	_, err := LoadCatalog(path)
	assert.Error(t, err)
}

func TestLoadCatalog_EmptyEnabledFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workdirs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: []\n"), 0o644))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog(), cat)
}
