package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureRoot(t *testing.T) {
	tmpDir := t.TempDir()

	EnsureRoot(tmpDir)

	_, err := os.Stat(filepath.Join(tmpDir, defaultConfigDir))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(tmpDir, defaultDataDir))
	require.NoError(t, err)
}

func TestWriteConfigFileRoundTrips(t *testing.T) {
	tmpDir := t.TempDir()
	EnsureRoot(tmpDir)

	cfg := DefaultConfig()
	cfg.Moniker = "test-node"
	require.NoError(t, WriteConfigFile(tmpDir, cfg))

	data, err := os.ReadFile(filepath.Join(tmpDir, defaultConfigFilePath))
	require.NoError(t, err)
	require.Contains(t, string(data), `moniker = "test-node"`)
	require.Contains(t, string(data), "[bootstrap_ascending]")
}

func TestWriteDefaultConfigFileIfNone(t *testing.T) {
	tmpDir := t.TempDir()
	EnsureRoot(tmpDir)

	require.NoError(t, writeDefaultConfigFileIfNone(tmpDir))
	path := filepath.Join(tmpDir, defaultConfigFilePath)
	_, err := os.Stat(path)
	require.NoError(t, err)

	info1, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, writeDefaultConfigFileIfNone(tmpDir))
	info2, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, info1.ModTime(), info2.ModTime(), "should not rewrite an existing config file")
}
