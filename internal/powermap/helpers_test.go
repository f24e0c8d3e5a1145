package powermap

import (
	"context"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"gridmap/internal/api"
	"gridmap/internal/config"
	"gridmap/internal/engine"
	"gridmap/internal/geom"
)

type fakeSource struct {
	power      *api.PowerResult
	powerErr   error
	boundary   *geojson.FeatureCollection
	powerCalls int
}

func (f *fakeSource) Boundary(ctx context.Context) (*geojson.FeatureCollection, error) {
	if f.boundary == nil {
		return geojson.NewFeatureCollection(), nil
	}
	return f.boundary, nil
}

func (f *fakeSource) Power(ctx context.Context, r geom.Region) (*api.PowerResult, error) {
	f.powerCalls++
	if f.powerErr != nil {
		return nil, f.powerErr
	}
	return f.power, nil
}

func feature(g orb.Geometry, props map[string]any) *geojson.Feature {
	f := geojson.NewFeature(g)
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

// samplePower is a small grid around the default test center.
func samplePower() *api.PowerResult {
	fc := geojson.NewFeatureCollection()
	fc.Append(feature(orb.LineString{{-94.70, 38.98}, {-94.64, 38.98}}, map[string]any{
		"power": "line", "voltage": "345000", "name": "Stilwell 345", "osm_id": 1001,
	}))
	fc.Append(feature(orb.LineString{{-94.70, 38.96}, {-94.64, 38.96}}, map[string]any{
		"power": "minor_line", "voltage": "12470", "line": "D-7",
	}))
	fc.Append(feature(orb.Point{-94.67, 39.00}, map[string]any{
		"power": "transformer", "name": "T1", "operator": "Evergy", "osm_id": 2001,
	}))
	return &api.PowerResult{
		GeoJSON: fc,
		Stats:   geom.Stats{TransmissionMiles: 3.2, DistributionMiles: 3.2, TransformerCount: 1},
	}
}

func testConfig() config.Config {
	return config.Config{
		Token:              "pk.test",
		Region:             geom.OverlandPark,
		Center:             orb.Point{-94.67, 38.98},
		Zoom:               11,
		InitTimeout:        20 * time.Second,
		ReadyCheckInterval: time.Second,
		LoadDelay:          time.Second,
		FetchTimeout:       5 * time.Second,
	}
}

func newTestMap(t *testing.T) *engine.Map {
	t.Helper()
	m, err := engine.New(engine.Options{AccessToken: "pk.test", Center: orb.Point{-94.67, 38.98}, Zoom: 11, DoubleClickZoom: true})
	require.NoError(t, err)
	m.Resize(80, 30)
	return m
}

// newLayeredMap returns a map holding the sample data and every power
// layer, all visible.
func newLayeredMap(t *testing.T) *engine.Map {
	t.Helper()
	m := newTestMap(t)
	require.NoError(t, m.AddSource(SourcePower, geom.WithEndpoints(samplePower().GeoJSON)))
	require.NoError(t, EnsureLayers(m, DefaultVisibility()))
	return m
}

func layerVisible(t *testing.T, m *engine.Map, id string) bool {
	t.Helper()
	v, err := m.LayerVisibility(id)
	require.NoError(t, err)
	return v == engine.Visible
}

// readySession returns an initialised session whose map is ready.
func readySession(t *testing.T, src Source, opts ...SessionOption) *Session {
	t.Helper()
	s := NewSession(testConfig(), src, zerolog.Nop(), opts...)
	require.NotNil(t, s.Init())
	s.Resize(80, 30)
	require.NotNil(t, s.Update(readyCheckMsg{gen: s.initGen}))
	require.True(t, s.Ready())
	return s
}

// loadedSession additionally runs the power load to completion.
func loadedSession(t *testing.T, src *fakeSource, opts ...SessionOption) *Session {
	t.Helper()
	s := readySession(t, src, opts...)
	cmd := s.Update(loadDelayMsg{gen: s.initGen})
	require.NotNil(t, cmd)
	s.Update(cmd())
	require.True(t, s.Map().HasSource(SourcePower))
	return s
}
