package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
server:
  port: 8081
  allowedOrigins: ["https://roleta.example"]
store:
  driver: file
  path: /data/db.json
  lockTimeout: 2s
game:
  spinCost: 2
  itemsPath: /data/items.json
admin:
  key: from-file
rateLimit:
  requests: 3
  window: 30s
`

func memFS(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/configs/test.yaml", []byte(testYAML), 0o644))
	return fs
}

func TestLoad_FileAndDefaults(t *testing.T) {
	cfg, err := Load(memFS(t), Test, "/configs")
	require.NoError(t, err)

	assert.Equal(t, Test, cfg.Environment)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, []string{"https://roleta.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "/data/db.json", cfg.Store.Path)
	assert.Equal(t, 2*time.Second, cfg.Store.LockTimeout)
	assert.Equal(t, int64(2), cfg.Game.SpinCost)
	assert.Equal(t, "from-file", cfg.Admin.Key)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)

	assert.Equal(t, "userId", cfg.Identity.CookieName)
	assert.Equal(t, 365*24*time.Hour, cfg.Identity.CookieMaxAge)
	assert.Equal(t, "America/Sao_Paulo", cfg.Game.TimeZone)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), Production, "/configs")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, StoreFile, cfg.Store.Driver)
	assert.Equal(t, int64(1), cfg.Game.SpinCost)
	assert.False(t, cfg.AdminConfigured())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PW_SERVER_PORT", "9090")
	t.Setenv("PW_STORE_LOCKTIMEOUT", "750ms")
	t.Setenv("PW_DB_HOST", "db.internal")
	t.Setenv("PW_DB_PORT", "6543")
	t.Setenv("PW_LOGGER_LEVEL", "debug")

	cfg, err := Load(memFS(t), Test, "/configs")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.Store.LockTimeout)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_LegacyVariables(t *testing.T) {
	t.Run("legacy names apply", func(t *testing.T) {
		t.Setenv("ADMIN_KEY", "legacy-secret")
		t.Setenv("PORT", "4000")

		cfg, err := Load(afero.NewMemMapFs(), Test, "/configs")
		require.NoError(t, err)

		assert.Equal(t, "legacy-secret", cfg.Admin.Key)
		assert.Equal(t, 4000, cfg.Server.Port)
		assert.True(t, cfg.AdminConfigured())
	})

	t.Run("prefixed names win", func(t *testing.T) {
		t.Setenv("ADMIN_KEY", "legacy-secret")
		t.Setenv("PW_ADMIN_KEY", "prefixed-secret")
		t.Setenv("PORT", "4000")
		t.Setenv("PW_SERVER_PORT", "5000")

		cfg, err := Load(afero.NewMemMapFs(), Test, "/configs")
		require.NoError(t, err)

		assert.Equal(t, "prefixed-secret", cfg.Admin.Key)
		assert.Equal(t, 5000, cfg.Server.Port)
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("PORT", "http")

		_, err := Load(afero.NewMemMapFs(), Test, "/configs")
		assert.ErrorContains(t, err, "PORT")
	})
}

func TestLoad_MalformedFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/configs/test.yaml", []byte("server: [unclosed"), 0o644))

	_, err := Load(fs, Test, "/configs")
	assert.ErrorContains(t, err, "error reading config file")
}

func TestValidate_CollectsProblems(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), Test, "/configs")
	require.NoError(t, err)

	cfg.Server.Port = 0
	cfg.Store.Driver = StorePostgres
	cfg.Logger.Format = "xml"
	cfg.Game.SpinCost = 0
	cfg.Game.TimeZone = "Mars/Olympus"
	cfg.RateLimit.Backend = "memcached"
	cfg.Backup.Enabled = true
	cfg.Backup.Schedule = "every now and then"

	err = cfg.Validate()
	require.Error(t, err)

	for _, want := range []string{
		"server.port", "database host", "logger.format", "game.spinCost",
		"game.timeZone", "rateLimit.backend", "backup.schedule",
	} {
		assert.ErrorContains(t, err, want)
	}
}
