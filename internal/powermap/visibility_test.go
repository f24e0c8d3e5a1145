package powermap

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridmap/internal/engine"
)

func TestGroupLayers(t *testing.T) {
	assert.Equal(t, []string{LayerTransmissionLines, LayerTransmissionFlow, LayerTransmissionFlow2, LayerTransmissionPoints}, GroupLayers(Transmission))
	assert.Equal(t, []string{LayerDistributionLines, LayerDistributionFlow, LayerDistributionFlow2, LayerDistributionPoints}, GroupLayers(Distribution))
	assert.Equal(t, []string{LayerTransformers}, GroupLayers(Transformers))
	assert.Len(t, FlowLayers(), 4)
}

func TestSetVisibleAppliesToWholeGroup(t *testing.T) {
	m := newLayeredMap(t)
	s := NewSynchronizer(m, DefaultVisibility(), zerolog.Nop())

	s.SetVisible(Transmission, false)
	for _, id := range GroupLayers(Transmission) {
		assert.False(t, layerVisible(t, m, id), id)
	}
	for _, id := range GroupLayers(Distribution) {
		assert.True(t, layerVisible(t, m, id), id)
	}
	assert.False(t, s.State().Transmission)

	s.SetVisible(Transmission, true)
	for _, id := range GroupLayers(Transmission) {
		assert.True(t, layerVisible(t, m, id), id)
	}
}

func TestSetVisibleIsIdempotent(t *testing.T) {
	m := newLayeredMap(t)
	s := NewSynchronizer(m, DefaultVisibility(), zerolog.Nop())

	s.SetVisible(Transformers, false)
	s.SetVisible(Transformers, false)
	assert.False(t, layerVisible(t, m, LayerTransformers))
	assert.False(t, s.State().Transformers)
}

func TestSetVisibleSkipsMissingLayers(t *testing.T) {
	m := newTestMap(t)
	s := NewSynchronizer(m, DefaultVisibility(), zerolog.Nop())

	assert.NotPanics(t, func() { s.SetVisible(Distribution, false) })
	assert.False(t, s.State().Distribution)

	// Layers created later start from the recorded state.
	require.NoError(t, m.AddSource(SourcePower, samplePower().GeoJSON))
	require.NoError(t, EnsureLayers(m, s.State()))
	assert.False(t, layerVisible(t, m, LayerDistributionLines))
	assert.False(t, layerVisible(t, m, LayerDistributionFlow))
	assert.True(t, layerVisible(t, m, LayerTransmissionLines))
}

func TestFlowOverlaysNeedGroupAndFlow(t *testing.T) {
	m := newLayeredMap(t)
	s := NewSynchronizer(m, DefaultVisibility(), zerolog.Nop())

	s.SetFlow(false)
	for _, id := range FlowLayers() {
		assert.False(t, layerVisible(t, m, id), id)
	}
	assert.True(t, layerVisible(t, m, LayerTransmissionLines))

	s.SetVisible(Distribution, false)
	s.SetFlow(true)
	assert.True(t, layerVisible(t, m, LayerTransmissionFlow))
	assert.True(t, layerVisible(t, m, LayerTransmissionFlow2))
	assert.False(t, layerVisible(t, m, LayerDistributionFlow))
	assert.False(t, layerVisible(t, m, LayerDistributionFlow2))
}

func TestRestoreAppliesLiveState(t *testing.T) {
	m := newLayeredMap(t)
	s := NewSynchronizer(m, DefaultVisibility(), zerolog.Nop())

	require.NotNil(t, s.ScheduleRestore())
	pending := restoreMsg{gen: s.gen}
	s.SetVisible(Transmission, false)
	// Something else turned a layer back on before the restore fired.
	require.NoError(t, m.SetVisibility(LayerTransmissionLines, engine.Visible))

	s.handleRestore(pending)
	assert.False(t, layerVisible(t, m, LayerTransmissionLines))
}

func TestCancelledRestoreIsIgnored(t *testing.T) {
	m := newLayeredMap(t)
	s := NewSynchronizer(m, DefaultVisibility(), zerolog.Nop())

	s.ScheduleRestore()
	pending := restoreMsg{gen: s.gen}
	s.Cancel()
	require.NoError(t, m.SetVisibility(LayerTransformers, engine.None))

	s.handleRestore(pending)
	assert.False(t, layerVisible(t, m, LayerTransformers))
}

func TestLayerFilters(t *testing.T) {
	m := newLayeredMap(t)
	fc, ok := m.SourceData(SourcePower)
	require.True(t, ok)

	count := func(id string) int {
		l, ok := m.Layer(id)
		require.True(t, ok, id)
		n := 0
		for _, f := range fc.Features {
			if l.Filter(f) {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 1, count(LayerTransmissionLines))
	assert.Equal(t, 2, count(LayerTransmissionPoints))
	assert.Equal(t, 1, count(LayerDistributionLines))
	assert.Equal(t, 2, count(LayerDistributionPoints))
	assert.Equal(t, 1, count(LayerTransformers))
}
