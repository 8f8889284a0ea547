package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every config lookup at a temp dir
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("PIZARRA_HOME", filepath.Join(dir, "data"))
	t.Setenv("PIZARRA_CONFIG", "")
	t.Setenv("PIZARRA_THEME_FILE", "")
	t.Setenv("PIZARRA_AZURE_CONNECTION_STRING", "")
	t.Setenv("PIZARRA_STORE_DRIVER", "")
	t.Setenv("PIZARRA_BOARD", "")
	t.Setenv("PIZARRA_REDIS_ADDR", "")
	t.Setenv("PIZARRA_LOG_LEVEL", "")
	return dir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	configDir := filepath.Join(dir, "pizarra")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	path := filepath.Join(configDir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigWithoutFile(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(dir, "data", "pizarra.db"), cfg.Store.Path)
	assert.Equal(t, "default", cfg.Board.ID)
	assert.Equal(t, "reject", cfg.Board.OrphanPolicy)
	assert.Equal(t, []string{"Todo", "In Progress", "Done"}, cfg.Board.DefaultSections)
	assert.Equal(t, EventsSocket, cfg.Events.Driver)
	assert.Equal(t, filepath.Join(dir, "data", "pizarra.sock"), cfg.Events.SocketPath)
	assert.Equal(t, "pizarra:board", cfg.Events.ChannelPrefix)
	assert.Equal(t, filepath.Join(dir, "data", "logs", "pizarra.log"), cfg.Log.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "#874BFD", cfg.Theme.Accent)
}

func TestLoadConfigWithFile(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, `store:
  driver: SQLite
  path: /tmp/board.db
board:
  id: team-a
  orphan_policy: reassign
  default_sections: [Backlog, Doing]
events:
  driver: redis
  redis_addr: redis:6379
log:
  level: debug
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/board.db", cfg.Store.Path)
	assert.Equal(t, "team-a", cfg.Board.ID)
	assert.Equal(t, "reassign", cfg.Board.OrphanPolicy)
	assert.Equal(t, []string{"Backlog", "Doing"}, cfg.Board.DefaultSections)
	assert.Equal(t, EventsRedis, cfg.Events.Driver)
	assert.Equal(t, "redis:6379", cfg.Events.RedisAddr)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Unspecified values should use defaults
	assert.Equal(t, "pizarra:board", cfg.Events.ChannelPrefix)
	assert.Equal(t, "PizarraTasks", cfg.Store.TasksTable)
}

func TestLoadConfig_EmptyDefaultSectionsStayEmpty(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, "board:\n  default_sections: []\n")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Board.DefaultSections)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "elsewhere.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: aztables\nboard:\n  id: from-file\n"), 0o644))

	t.Setenv("PIZARRA_CONFIG", path)
	t.Setenv("PIZARRA_AZURE_CONNECTION_STRING", "UseDevelopmentStorage=true")
	t.Setenv("PIZARRA_BOARD", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverAzTables, cfg.Store.Driver)
	assert.Equal(t, "UseDevelopmentStorage=true", cfg.Store.ConnectionString)
	assert.Equal(t, "from-env", cfg.Board.ID)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := isolate(t)

	writeConfig(t, dir, "store:\n  driver: postgres\n")
	_, err := Load()
	assert.ErrorContains(t, err, "unknown store driver")

	writeConfig(t, dir, "store:\n  driver: aztables\n")
	_, err = Load()
	assert.ErrorContains(t, err, "connection_string")

	writeConfig(t, dir, "events:\n  driver: carrier-pigeon\n")
	_, err = Load()
	assert.ErrorContains(t, err, "unknown events driver")

	writeConfig(t, dir, "store: [not, a, map]\n")
	_, err = Load()
	assert.ErrorContains(t, err, "parsing config")
}

func TestSaveConfig(t *testing.T) {
	dir := isolate(t)

	cfg := Default()
	cfg.Board.ID = "saved"
	require.NoError(t, cfg.Save())

	_, err := os.Stat(filepath.Join(dir, "pizarra", "config.yaml"))
	require.NoError(t, err)

	cfg2, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "saved", cfg2.Board.ID)
	assert.Equal(t, cfg.Store, cfg2.Store)
}

func TestThemeFileLoading(t *testing.T) {
	dir := isolate(t)
	themeFile := filepath.Join(dir, "theme.yaml")
	require.NoError(t, os.WriteFile(themeFile, []byte("theme:\n  accent: \"#FF0000\"\n"), 0o644))
	t.Setenv("PIZARRA_THEME_FILE", themeFile)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "#FF0000", cfg.Theme.Accent)
	// Other colors keep their defaults
	assert.Equal(t, Preset("default").Subtle, cfg.Theme.Subtle)
}

func TestThemePreset(t *testing.T) {
	theme := Theme{Preset: "monochrome", Accent: "#123456"}
	theme.ApplyDefaults()

	assert.Equal(t, "#123456", theme.Accent)
	assert.Equal(t, Preset("monochrome").ColumnBorder, theme.ColumnBorder)
}
