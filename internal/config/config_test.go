package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, SnapshotDriverRedis, cfg.Search.SnapshotDriver)
	assert.Equal(t, "search:index", cfg.Search.SnapshotKey)
	assert.Equal(t, 25, cfg.Search.MaxLimit)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenLifespan)
	assert.Empty(t, cfg.Search.RebuildCron)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
app:
  port: "9000"
search:
  snapshot_driver: sqlite
  max_limit: 100
  default_limit: 5
  rebuild_cron: "0 3 * * *"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("SEARCH_SQLITE_PATH", "/tmp/idx.db")
	t.Setenv("APP_PORT", "9100")

	cfg, err := LoadConfig(dir)

	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.App.Port)
	assert.Equal(t, SnapshotDriverSQLite, cfg.Search.SnapshotDriver)
	assert.Equal(t, "/tmp/idx.db", cfg.Search.SQLitePath)
	assert.Equal(t, 25, cfg.Search.MaxLimit, "ceiling is fixed")
	assert.Equal(t, 5, cfg.Search.DefaultLimit)
	assert.Equal(t, "0 3 * * *", cfg.Search.RebuildCron)
}

func TestLoadConfig_LowerMaxLimitCapsDefault(t *testing.T) {
	t.Setenv("SEARCH_MAX_LIMIT", "4")

	cfg, err := LoadConfig(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Search.MaxLimit)
	assert.Equal(t, 4, cfg.Search.DefaultLimit)
}
