package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadFile_DefaultsAndRelativeDBPath(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
[server]
admin_secret = "sekrit"

[embedding]
concurrency = 4
`)
	t.Setenv("CONFIG_PATH", path)

	cfg := LoadFile()
	require.Equal(t, "0.0.0.0:7856", cfg.Server.ListenAddr)
	require.Equal(t, uint64(10), cfg.Server.GracefulShutdownSecs)
	require.Equal(t, filepath.Join(dir, "data/data.db"), cfg.Database.Path)
	require.Equal(t, uint32(8), cfg.Database.PoolMaxSize)
}

func TestLoadFile_AbsoluteDBPathUnchanged(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "elsewhere", "data.db")
	path := writeConfigFile(t, dir, `
[database]
path = "`+abs+`"

[embedding]
concurrency = 1
`)
	t.Setenv("CONFIG_PATH", path)

	cfg := LoadFile()
	require.Equal(t, abs, cfg.Database.Path)
}
