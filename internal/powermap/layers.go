package powermap

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"gridmap/internal/engine"
	"gridmap/internal/geom"
)

// Source and layer ids shared with the map engine.
const (
	SourcePower    = "power-data"
	SourceBoundary = "boundary"

	LayerBoundary           = "boundary-line"
	LayerTransmissionLines  = "transmission-lines"
	LayerTransmissionFlow   = "transmission-flow"
	LayerTransmissionFlow2  = "transmission-flow-2"
	LayerTransmissionPoints = "transmission-points"
	LayerDistributionLines  = "distribution-lines"
	LayerDistributionFlow   = "distribution-flow"
	LayerDistributionFlow2  = "distribution-flow-2"
	LayerDistributionPoints = "distribution-points"
	LayerTransformers       = "transformers"
)

const (
	ColorTransmission = "#FFD700"
	ColorDistribution = "#A855F7"
	ColorTransformer  = "#22C55E"
	ColorBoundary     = "#38BDF8"
	colorFlow         = "#FFFFFF"

	widthTransmission = 3
	widthDistribution = 1.5
	widthHover        = 4.5

	radiusTransformer = 6.5
)

// Group is a user toggleable infrastructure class backed by several
// physical layers.
type Group int

const (
	Transmission Group = iota
	Distribution
	Transformers
)

var Groups = []Group{Transmission, Distribution, Transformers}

func (g Group) String() string {
	switch g {
	case Transmission:
		return "transmission"
	case Distribution:
		return "distribution"
	case Transformers:
		return "transformers"
	}
	return fmt.Sprintf("group(%d)", int(g))
}

// layerDef ties an engine layer to the group that owns it. Flow overlays
// are additionally gated by the flow toggle.
type layerDef struct {
	layer engine.Layer
	group Group
	flow  bool
}

// powerLayers lists the power layers bottom to top.
var powerLayers = []layerDef{
	{group: Distribution, layer: engine.Layer{
		ID: LayerDistributionLines, Type: engine.LineLayer, Source: SourcePower,
		Filter: lineOf(geom.PowerMinorLine),
		Paint:  engine.Paint{Color: ColorDistribution, Width: widthDistribution, Opacity: 0.85},
	}},
	{group: Distribution, flow: true, layer: engine.Layer{
		ID: LayerDistributionFlow, Type: engine.LineLayer, Source: SourcePower,
		Filter: lineOf(geom.PowerMinorLine),
		Paint:  engine.Paint{Color: colorFlow, Width: 1, Opacity: 0.7, DashArray: []float64{18, 6}},
	}},
	{group: Distribution, flow: true, layer: engine.Layer{
		ID: LayerDistributionFlow2, Type: engine.LineLayer, Source: SourcePower,
		Filter: lineOf(geom.PowerMinorLine),
		Paint:  engine.Paint{Color: colorFlow, Width: 1, Opacity: 0.5, DashArray: []float64{16, 8}},
	}},
	{group: Distribution, layer: engine.Layer{
		ID: LayerDistributionPoints, Type: engine.CircleLayer, Source: SourcePower,
		Filter: endpointOf(geom.PowerMinorLine),
		Paint:  engine.Paint{Color: ColorDistribution, Radius: 2.5, Opacity: 0.9},
	}},
	{group: Transmission, layer: engine.Layer{
		ID: LayerTransmissionLines, Type: engine.LineLayer, Source: SourcePower,
		Filter: lineOf(geom.PowerLine),
		Paint:  engine.Paint{Color: ColorTransmission, Width: widthTransmission, Opacity: 0.9},
	}},
	{group: Transmission, flow: true, layer: engine.Layer{
		ID: LayerTransmissionFlow, Type: engine.LineLayer, Source: SourcePower,
		Filter: lineOf(geom.PowerLine),
		Paint:  engine.Paint{Color: colorFlow, Width: 1, Opacity: 0.75, DashArray: []float64{25, 10}},
	}},
	{group: Transmission, flow: true, layer: engine.Layer{
		ID: LayerTransmissionFlow2, Type: engine.LineLayer, Source: SourcePower,
		Filter: lineOf(geom.PowerLine),
		Paint:  engine.Paint{Color: colorFlow, Width: 1, Opacity: 0.5, DashArray: []float64{22, 13}},
	}},
	{group: Transmission, layer: engine.Layer{
		ID: LayerTransmissionPoints, Type: engine.CircleLayer, Source: SourcePower,
		Filter: endpointOf(geom.PowerLine),
		Paint:  engine.Paint{Color: ColorTransmission, Radius: 3, Opacity: 0.9},
	}},
	{group: Transformers, layer: engine.Layer{
		ID: LayerTransformers, Type: engine.CircleLayer, Source: SourcePower,
		Filter: transformerPoint,
		Paint:  engine.Paint{Color: ColorTransformer, Radius: radiusTransformer, Opacity: 0.95},
	}},
}

// lineWidths are the resting widths of the hoverable line layers.
var lineWidths = map[string]float64{
	LayerTransmissionLines: widthTransmission,
	LayerDistributionLines: widthDistribution,
}

// clickable layers get click and hover listeners after every publish.
var clickable = []string{
	LayerTransmissionLines,
	LayerTransmissionPoints,
	LayerDistributionLines,
	LayerDistributionPoints,
	LayerTransformers,
}

// GroupLayers returns every physical layer of g, flow overlays included.
func GroupLayers(g Group) []string {
	var ids []string
	for _, d := range powerLayers {
		if d.group == g {
			ids = append(ids, d.layer.ID)
		}
	}
	return ids
}

// FlowLayers returns the flow overlays of every line group.
func FlowLayers() []string {
	var ids []string
	for _, d := range powerLayers {
		if d.flow {
			ids = append(ids, d.layer.ID)
		}
	}
	return ids
}

func (d layerDef) visibleIn(v Visibility) bool {
	on := v.Group(d.group)
	if d.flow {
		on = on && v.Flow
	}
	return on
}

func visibility(on bool) engine.Visibility {
	if on {
		return engine.Visible
	}
	return engine.None
}

// SourceEngine is the part of the map engine that holds data and layers.
type SourceEngine interface {
	HasSource(id string) bool
	AddSource(id string, fc *geojson.FeatureCollection) error
	SetSourceData(id string, fc *geojson.FeatureCollection) error
	HasLayer(id string) bool
	AddLayer(l engine.Layer) error
}

// EnsureLayers adds the power layers that do not exist yet, each starting
// with the visibility v implies for it. Existing layers are left alone.
func EnsureLayers(eng SourceEngine, v Visibility) error {
	for _, d := range powerLayers {
		if eng.HasLayer(d.layer.ID) {
			continue
		}
		l := d.layer
		l.Visibility = visibility(d.visibleIn(v))
		if err := eng.AddLayer(l); err != nil {
			return fmt.Errorf("add layer %s: %w", l.ID, err)
		}
	}
	return nil
}

// publish replaces the data of source id, creating it when missing.
func publish(eng SourceEngine, id string, fc *geojson.FeatureCollection) error {
	if eng.HasSource(id) {
		return eng.SetSourceData(id, fc)
	}
	return eng.AddSource(id, fc)
}

func publishBoundary(eng SourceEngine, fc *geojson.FeatureCollection) error {
	if err := publish(eng, SourceBoundary, fc); err != nil {
		return err
	}
	if eng.HasLayer(LayerBoundary) {
		return nil
	}
	return eng.AddLayer(engine.Layer{
		ID: LayerBoundary, Type: engine.LineLayer, Source: SourceBoundary,
		Paint: engine.Paint{Color: ColorBoundary, Width: 2, Opacity: 0.9},
	})
}

func lineOf(power string) func(*geojson.Feature) bool {
	return func(f *geojson.Feature) bool {
		if geom.Power(f) != power || geom.IsEndpoint(f) {
			return false
		}
		switch f.Geometry.(type) {
		case orb.LineString, orb.MultiLineString:
			return true
		}
		return false
	}
}

func endpointOf(power string) func(*geojson.Feature) bool {
	return func(f *geojson.Feature) bool {
		return geom.Power(f) == power && geom.IsEndpoint(f)
	}
}

func transformerPoint(f *geojson.Feature) bool {
	if _, ok := f.Geometry.(orb.Point); !ok {
		return false
	}
	return geom.CategoryOf(geom.Power(f)) == geom.Transformer && !geom.IsEndpoint(f)
}
