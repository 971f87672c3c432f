package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"motd":"hi"}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "hi", cfg.Motd)
	require.EqualValues(t, 25565, cfg.Port)
	require.EqualValues(t, 20, cfg.MaxPlayers)
	require.EqualValues(t, 256, cfg.CompressionThreshold)
	require.Equal(t, "0.0.0.0", cfg.BindAddress)
	require.EqualValues(t, 1024, cfg.RSAKeyBits)
}

func TestLoadPreservesExplicitValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port":25000,"compression_threshold":-1,"online_mode":true}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.EqualValues(t, 25000, cfg.Port)
	require.EqualValues(t, -1, cfg.CompressionThreshold)
	require.True(t, cfg.OnlineMode)
}

func TestLoadPreservesExplicitZeroCompressionThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"compression_threshold":0}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.EqualValues(t, 0, cfg.CompressionThreshold)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/server.json")
	require.Error(t, err)
}
