package powermap

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridmap/internal/api"
	"gridmap/internal/engine"
	"gridmap/internal/geom"
)

func TestLoadGuard(t *testing.T) {
	var g LoadGuard
	require.True(t, g.TryBegin())
	assert.True(t, g.InFlight())
	assert.False(t, g.TryBegin(), "second begin while in flight")

	g.Finish(false)
	assert.False(t, g.InFlight())
	assert.False(t, g.Loaded())
	require.True(t, g.TryBegin(), "retry after failure")

	g.Finish(true)
	assert.True(t, g.Loaded())
	assert.False(t, g.TryBegin(), "no load after completion")
}

func newTestLoader(t *testing.T, src Source) (*Loader, *engine.Map) {
	t.Helper()
	m := newTestMap(t)
	return NewLoader(src, m, geom.OverlandPark, 0, zerolog.Nop()), m
}

func TestLoadOnceWhileInFlightIsNoop(t *testing.T) {
	src := &fakeSource{power: samplePower()}
	l, _ := newTestLoader(t, src)

	cmd := l.LoadOnce()
	require.NotNil(t, cmd)
	assert.Nil(t, l.LoadOnce())
	assert.Nil(t, l.LoadOnce())

	msg := cmd()
	assert.Equal(t, 1, src.powerCalls)
	assert.Nil(t, l.publishPower(msg.(powerLoadedMsg), DefaultVisibility()))
	assert.Equal(t, 1, l.Fetches())
}

func TestSecondLoadOnceMakesNoCall(t *testing.T) {
	src := &fakeSource{power: samplePower()}
	l, _ := newTestLoader(t, src)

	msg := l.LoadOnce()()
	require.Nil(t, l.publishPower(msg.(powerLoadedMsg), DefaultVisibility()))
	assert.Nil(t, l.LoadOnce())
	assert.Equal(t, 1, src.powerCalls)
	assert.True(t, l.Guard().Loaded())
}

func TestPublishMergesEndpointMarkers(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(feature(orb.LineString{{0, 0}, {1, 1}}, map[string]any{"power": "line"}))
	fc.Append(feature(orb.LineString{{0, 0}, {0, 0}}, map[string]any{"power": "minor_line"}))
	fc.Append(feature(orb.Point{0.5, 0.5}, map[string]any{"power": "transformer"}))
	src := &fakeSource{power: &api.PowerResult{GeoJSON: fc}}
	l, m := newTestLoader(t, src)

	require.Nil(t, l.publishPower(l.LoadOnce()().(powerLoadedMsg), DefaultVisibility()))

	published, ok := m.SourceData(SourcePower)
	require.True(t, ok)
	var lines, markers, points int
	for _, f := range published.Features {
		switch {
		case geom.IsEndpoint(f):
			markers++
		case f.Geometry.GeoJSONType() == "Point":
			points++
		default:
			lines++
		}
	}
	assert.Equal(t, 2, lines)
	assert.Equal(t, 3, markers, "two for the open line, one for the degenerate one")
	assert.Equal(t, 1, points)
	assert.Len(t, fc.Features, 3, "input collection untouched")

	for _, id := range GroupLayers(Transmission) {
		assert.True(t, m.HasLayer(id), id)
	}
	assert.True(t, m.HasLayer(LayerTransformers))
}

func TestPublishUpdatesExistingSourceInPlace(t *testing.T) {
	src := &fakeSource{power: samplePower()}
	l, m := newTestLoader(t, src)
	require.NoError(t, m.AddSource(SourcePower, geojson.NewFeatureCollection()))

	require.Nil(t, l.publishPower(l.LoadOnce()().(powerLoadedMsg), DefaultVisibility()))
	fc, _ := m.SourceData(SourcePower)
	assert.NotEmpty(t, fc.Features)
}

func TestFetchErrorWithoutDataIsSurfaced(t *testing.T) {
	src := &fakeSource{powerErr: &api.StatusError{Code: 400, Detail: "Zoom in - bounding box too large (max 60km diagonal)"}}
	l, m := newTestLoader(t, src)

	b := l.publishPower(l.LoadOnce()().(powerLoadedMsg), DefaultVisibility())
	require.NotNil(t, b)
	assert.Equal(t, FetchBanner, b.Kind)
	assert.True(t, b.Dismissible)
	assert.Equal(t, "Zoom in - bounding box too large (max 60km diagonal)", b.Message)
	assert.False(t, m.HasSource(SourcePower))

	// A failed load can be retried.
	src.powerErr = nil
	src.power = samplePower()
	cmd := l.LoadOnce()
	require.NotNil(t, cmd)
	assert.Nil(t, l.publishPower(cmd().(powerLoadedMsg), DefaultVisibility()))
	assert.Equal(t, 2, src.powerCalls)
}

func TestFetchErrorWithDataIsOnlyLogged(t *testing.T) {
	src := &fakeSource{power: samplePower()}
	l, m := newTestLoader(t, src)
	require.Nil(t, l.publishPower(l.LoadOnce()().(powerLoadedMsg), DefaultVisibility()))
	before, _ := m.SourceData(SourcePower)

	b := l.publishPower(powerLoadedMsg{err: errors.New("connection reset")}, DefaultVisibility())
	assert.Nil(t, b)
	after, _ := m.SourceData(SourcePower)
	assert.Same(t, before, after)
}

func TestFetchErrorGenericMessage(t *testing.T) {
	b := fetchBanner("power data", errors.New("dial tcp: connection refused"))
	assert.Equal(t, "Failed to load power data: dial tcp: connection refused", b.Message)
}

func TestStatsStoredOnSuccess(t *testing.T) {
	src := &fakeSource{power: samplePower()}
	l, _ := newTestLoader(t, src)
	_, ok := l.Stats()
	assert.False(t, ok)

	require.Nil(t, l.publishPower(l.LoadOnce()().(powerLoadedMsg), DefaultVisibility()))
	st, ok := l.Stats()
	require.True(t, ok)
	assert.Equal(t, 1, st.Transformers())
}

func TestBoundaryLoad(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(feature(orb.Polygon{{{-94.8, 38.85}, {-94.55, 38.85}, {-94.55, 39.1}, {-94.8, 38.85}}}, map[string]any{"name": "Overland Park"}))
	src := &fakeSource{boundary: fc}
	l, m := newTestLoader(t, src)

	cmd := l.LoadBoundary()
	require.NotNil(t, cmd)
	assert.Nil(t, l.LoadBoundary())
	assert.Nil(t, l.publishBoundary(cmd().(boundaryLoadedMsg)))
	assert.True(t, m.HasLayer(LayerBoundary))
	assert.True(t, m.HasSource(SourceBoundary))
}

func TestPublishFailureAllowsRetry(t *testing.T) {
	src := &fakeSource{power: samplePower()}
	l, m := newTestLoader(t, src)

	msg := l.LoadOnce()().(powerLoadedMsg)
	m.Remove()
	b := l.publishPower(msg, DefaultVisibility())
	require.NotNil(t, b)
	assert.Equal(t, RenderBanner, b.Kind)
	assert.False(t, l.Guard().Loaded())
	assert.False(t, l.Guard().InFlight())

	assert.NotNil(t, l.LoadOnce(), "a failed publish can be retried")
}
