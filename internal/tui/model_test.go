package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridmap/internal/config"
	"gridmap/internal/dataset"
	"gridmap/internal/geom"
	"gridmap/internal/powermap"
)

func testModel(t *testing.T, token string) Model {
	t.Helper()
	ds, err := dataset.Sample(zerolog.Nop())
	require.NoError(t, err)
	cfg := config.Config{
		Token:              token,
		Region:             geom.OverlandPark,
		Center:             orb.Point{-94.67, 38.98},
		Zoom:               10.5,
		InitTimeout:        20 * time.Second,
		ReadyCheckInterval: time.Second,
		LoadDelay:          time.Second,
	}
	m := New(powermap.NewSession(cfg, ds, zerolog.Nop()), zerolog.Nop())
	m.Init()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestLayoutAccountsForPanels(t *testing.T) {
	m := testModel(t, "pk.test")
	lay := m.layout()
	assert.Equal(t, 120-panelWidth, lay.mapW)
	assert.Equal(t, 40-headerHeight-footerHeight, lay.mapH)

	w, h := m.session.Map().Size()
	assert.Equal(t, lay.mapW, w)
	assert.Equal(t, lay.mapH, h)

	m = press(t, m, "d", "tab")
	lay = m.layout()
	assert.Equal(t, sidebarWidth+1, lay.mapX)
	assert.Equal(t, 120-sidebarWidth-1, lay.mapW)
}

func TestMapCell(t *testing.T) {
	m := testModel(t, "pk.test")
	x, y, ok := m.mapCell(5, 3)
	assert.True(t, ok)
	assert.Equal(t, 5, x)
	assert.Equal(t, 3-headerHeight, y)

	_, _, ok = m.mapCell(119, 3)
	assert.False(t, ok, "inside the dashboard")
}

func TestLayerKeys(t *testing.T) {
	m := testModel(t, "pk.test")
	m = press(t, m, "1", "3", "f")
	v := m.session.Visibility()
	assert.False(t, v.Transmission)
	assert.True(t, v.Distribution)
	assert.False(t, v.Transformers)
	assert.False(t, v.Flow)
	assert.Equal(t, "flow animation: false", m.status)

	m = press(t, m, "1")
	assert.True(t, m.session.Visibility().Transmission)
}

func TestCameraKeys(t *testing.T) {
	m := testModel(t, "pk.test")
	m = press(t, m, "+", "]")
	mp := m.session.Map()
	assert.Equal(t, 11.0, mp.Zoom())
	assert.Equal(t, keyRotateStep, mp.Bearing())

	m = press(t, m, "r")
	assert.Equal(t, 10.5, mp.Zoom())
	assert.Zero(t, mp.Bearing())
	assert.Equal(t, "view reset", m.status)
}

func TestConfigErrorBannerShown(t *testing.T) {
	m := testModel(t, "")
	out := m.View()
	assert.Contains(t, out, "access token")
	m = press(t, m, "esc")
	_, ok := m.session.Banner()
	assert.True(t, ok, "config errors cannot be dismissed")
}

func TestViewRendersDashboard(t *testing.T) {
	m := testModel(t, "pk.test")
	out := m.View()
	assert.Contains(t, out, "Overland Park Power Grid")
	assert.Contains(t, out, "Transmission")
	assert.Contains(t, out, "No data yet")
}

func TestBuildAttributes(t *testing.T) {
	a := geojson.NewFeature(orb.Point{0, 0})
	a.Properties["power"] = "transformer"
	a.Properties["zeta"] = 1.5
	b := geojson.NewFeature(orb.Point{1, 1})
	b.Properties["name"] = "T2"
	b.Properties["alpha"] = true

	cols, rows := buildAttributes([]*geojson.Feature{a, b})
	assert.Equal(t, []string{"power", "name", "alpha", "zeta"}, cols)
	assert.Equal(t, [][]string{
		{"transformer", "", "", "1.5"},
		{"", "T2", "true", ""},
	}, rows)
}

func TestFeatureItem(t *testing.T) {
	f := geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}})
	f.Properties["power"] = "line"
	f.Properties["name"] = "Stilwell 345"
	f.Properties["voltage"] = "345000;161000"
	f.Properties["length_miles"] = 4.25

	it := newFeatureItem(f)
	assert.Equal(t, "Stilwell 345", it.Title())
	assert.Equal(t, "transmission · 345.0 kV · 4.25 mi", it.Description())

	g := geojson.NewFeature(orb.Point{0, 0})
	g.Properties["power"] = "transformer"
	g.Properties["osm_id"] = 77.0
	assert.Equal(t, "transformer 77", newFeatureItem(g).Title())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "", truncate("abc", 0))
}
