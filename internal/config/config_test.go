package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridmap/internal/geom"
)

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, geom.OverlandPark, cfg.Region)
	assert.Equal(t, orb.Point{-94.67, 38.98}, cfg.Center)
	assert.Equal(t, 10.5, cfg.Zoom)
	assert.Equal(t, 20*time.Second, cfg.InitTimeout)
	assert.Equal(t, time.Second, cfg.ReadyCheckInterval)
	assert.Equal(t, time.Second, cfg.LoadDelay)
	assert.Equal(t, 60*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "gridmap.log", cfg.LogFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Offline)
}

func TestLoad_WithConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	body := `{
		"map": { "token": "pk.file", "zoom": 12 },
		"api": { "url": "http://backend:9000" },
		"session": { "initTimeout": "5s" },
		"log": { "level": "debug" }
	}`
	path := filepath.Join(dir, "gridmap.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "pk.file", cfg.Token)
	assert.Equal(t, 12.0, cfg.Zoom)
	assert.Equal(t, "http://backend:9000", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.InitTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoad_Environment(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("MAPBOX_TOKEN", "pk.env")
	t.Setenv("GRIDMAP_API_URL", "http://env:1234")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "pk.env", cfg.Token)
	assert.Equal(t, "http://env:1234", cfg.APIBaseURL)
}

func TestLoad_InvalidRegion(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("GRIDMAP_DATA_REGION", "1,2,3")

	_, err := Load("")
	assert.ErrorIs(t, err, geom.ErrInvalidRegion)
}

func TestValidateToken(t *testing.T) {
	assert.ErrorIs(t, Config{}.ValidateToken(), ErrMissingToken)
	assert.ErrorIs(t, Config{Token: "your_mapbox_token_here"}.ValidateToken(), ErrMissingToken)
	assert.ErrorIs(t, Config{Token: "sk.secret"}.ValidateToken(), ErrInvalidToken)
	assert.NoError(t, Config{Token: "pk.abc"}.ValidateToken())
}
