package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "arcgis", cfg.Source.Provider)
	assert.Equal(t, "ZipCode_gdb/FeatureServer/0", cfg.Source.Layer)
	assert.Equal(t, 30, cfg.Source.TimeoutSecs)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.InDelta(t, 4000.0, cfg.Region.AreaScale, 1e-9)
	assert.InDelta(t, 10.0, cfg.Region.NearestCutoffMiles, 1e-9)
	assert.InDelta(t, 25.1, cfg.Region.Bounds.MinLat, 1e-9)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EXPLORER_SERVER_PORT", "9090")
	t.Setenv("EXPLORER_SOURCE_PROVIDER", "shapefile")
	t.Setenv("EXPLORER_REGION_AREA_SCALE", "3500")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "shapefile", cfg.Source.Provider)
	assert.InDelta(t, 3500.0, cfg.Region.AreaScale, 1e-9)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
server:
  port: 7070
log:
  level: debug
  format: console
`), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	require.Error(t, InitLogger(LogConfig{Level: "loud", Format: "json"}))
}
