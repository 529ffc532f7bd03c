package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEnv_AdminEnabled(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", "secret")
	t.Setenv("ADMIN_SESSION_SECRET", "abcd")

	cfg, err := LoadEnv()
	require.NoError(t, err)
	require.True(t, cfg.AdminEnabled())
	require.False(t, cfg.IsProd())

	require.NoError(t, os.Unsetenv("ADMIN_USERNAME"))
	require.NoError(t, os.Unsetenv("ADMIN_PASSWORD"))
	require.NoError(t, os.Unsetenv("ADMIN_SESSION_SECRET"))
	cfg, err = LoadEnv()
	require.NoError(t, err)
	require.False(t, cfg.AdminEnabled())
}

func TestLoadEnv_OJAPITokenAuthDefaultsTrue(t *testing.T) {
	cfg, err := LoadEnv()
	require.NoError(t, err)
	require.True(t, cfg.OJAPITokenAuthDefault)

	t.Setenv("OJ_API_TOKEN_AUTH_DEFAULT", "false")
	cfg, err = LoadEnv()
	require.NoError(t, err)
	require.False(t, cfg.OJAPITokenAuthDefault)
}
