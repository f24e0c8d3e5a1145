// Package engine is a terminal map widget: GeoJSON sources, ordered styled
// layers, a mercator camera with bearing, braille rendering and layer
// scoped pointer events.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var (
	ErrMissingToken   = errors.New("engine: access token required")
	ErrLayerNotFound  = errors.New("engine: layer not found")
	ErrLayerExists    = errors.New("engine: layer already exists")
	ErrSourceNotFound = errors.New("engine: source not found")
	ErrSourceExists   = errors.New("engine: source already exists")
	ErrRemoved        = errors.New("engine: map removed")
)

type Visibility string

const (
	Visible Visibility = "visible"
	None    Visibility = "none"
)

type LayerType int

const (
	LineLayer LayerType = iota
	CircleLayer
)

// Paint holds the style of a layer. Width and Radius are in screen pixels
// of a regular map and scaled to braille dots when drawn; DashArray
// alternates dash and gap lengths in dots.
type Paint struct {
	Color     string
	Width     float64
	Opacity   float64
	DashArray []float64
	Radius    float64
}

type Layer struct {
	ID         string
	Type       LayerType
	Source     string
	Filter     func(f *geojson.Feature) bool
	Paint      Paint
	Visibility Visibility
}

type Options struct {
	AccessToken     string
	Center          orb.Point
	Zoom            float64
	Bearing         float64
	MinZoom         float64
	MaxZoom         float64
	DoubleClickZoom bool
	Background      string
}

type Map struct {
	token      string
	center     orb.Point
	zoom       float64
	bearing    float64
	minZoom    float64
	maxZoom    float64
	background colorful.Color

	width, height int
	loaded        bool
	removed       bool

	sources map[string]*geojson.FeatureCollection
	layers  []*Layer

	listeners []listener
	nextID    ListenerID
	hovered   map[string]bool
	cursor    string

	doubleClickZoom bool
	lastPress       time.Time
	lastPressX      int
	lastPressY      int
}

func New(opts Options) (*Map, error) {
	if opts.AccessToken == "" {
		return nil, ErrMissingToken
	}
	if opts.MaxZoom == 0 {
		opts.MaxZoom = 20
	}
	if opts.Background == "" {
		opts.Background = "#0B0F14"
	}
	bg, err := colorful.Hex(opts.Background)
	if err != nil {
		return nil, fmt.Errorf("engine: background: %w", err)
	}
	m := &Map{
		token:           opts.AccessToken,
		minZoom:         opts.MinZoom,
		maxZoom:         opts.MaxZoom,
		background:      bg,
		sources:         map[string]*geojson.FeatureCollection{},
		hovered:         map[string]bool{},
		doubleClickZoom: opts.DoubleClickZoom,
	}
	m.SetCenter(opts.Center)
	m.SetZoom(opts.Zoom)
	m.SetBearing(opts.Bearing)
	return m, nil
}

// Resize sets the viewport in terminal cells. The first non-empty size
// marks the map loaded and fires the load event.
func (m *Map) Resize(w, h int) {
	if m.removed {
		return
	}
	m.width, m.height = max(0, w), max(0, h)
	if !m.loaded && m.width > 0 && m.height > 0 {
		m.loaded = true
		m.emit(Event{Type: Load})
	}
}

func (m *Map) Loaded() bool { return m.loaded && !m.removed }

func (m *Map) Size() (int, int) { return m.width, m.height }

// Remove tears the map down: listeners, sources and layers are dropped.
func (m *Map) Remove() {
	m.listeners = nil
	m.sources = map[string]*geojson.FeatureCollection{}
	m.layers = nil
	m.hovered = map[string]bool{}
	m.loaded = false
	m.removed = true
}

func (m *Map) AddSource(id string, fc *geojson.FeatureCollection) error {
	if m.removed {
		return ErrRemoved
	}
	if _, ok := m.sources[id]; ok {
		return fmt.Errorf("%w: %s", ErrSourceExists, id)
	}
	if fc == nil {
		fc = geojson.NewFeatureCollection()
	}
	m.sources[id] = fc
	return nil
}

// SetSourceData replaces a source's features in one step.
func (m *Map) SetSourceData(id string, fc *geojson.FeatureCollection) error {
	if _, ok := m.sources[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	if fc == nil {
		fc = geojson.NewFeatureCollection()
	}
	m.sources[id] = fc
	return nil
}

func (m *Map) HasSource(id string) bool {
	_, ok := m.sources[id]
	return ok
}

func (m *Map) SourceData(id string) (*geojson.FeatureCollection, bool) {
	fc, ok := m.sources[id]
	return fc, ok
}

func (m *Map) RemoveSource(id string) error {
	if _, ok := m.sources[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	for _, l := range m.layers {
		if l.Source == id {
			return fmt.Errorf("engine: source %s is used by layer %s", id, l.ID)
		}
	}
	delete(m.sources, id)
	return nil
}

// AddLayer appends l on top of the existing layers.
func (m *Map) AddLayer(l Layer) error {
	if m.removed {
		return ErrRemoved
	}
	if m.HasLayer(l.ID) {
		return fmt.Errorf("%w: %s", ErrLayerExists, l.ID)
	}
	if !m.HasSource(l.Source) {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, l.Source)
	}
	if l.Visibility == "" {
		l.Visibility = Visible
	}
	if l.Paint.Opacity == 0 {
		l.Paint.Opacity = 1
	}
	l.Paint.DashArray = append([]float64(nil), l.Paint.DashArray...)
	m.layers = append(m.layers, &l)
	return nil
}

func (m *Map) HasLayer(id string) bool {
	return m.layer(id) != nil
}

func (m *Map) layer(id string) *Layer {
	for _, l := range m.layers {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// Layer returns a copy of the layer's current definition.
func (m *Map) Layer(id string) (Layer, bool) {
	l := m.layer(id)
	if l == nil {
		return Layer{}, false
	}
	out := *l
	out.Paint.DashArray = append([]float64(nil), l.Paint.DashArray...)
	return out, true
}

// LayerIDs lists layers bottom to top.
func (m *Map) LayerIDs() []string {
	ids := make([]string, len(m.layers))
	for i, l := range m.layers {
		ids[i] = l.ID
	}
	return ids
}

func (m *Map) RemoveLayer(id string) error {
	for i, l := range m.layers {
		if l.ID == id {
			m.layers = append(m.layers[:i], m.layers[i+1:]...)
			delete(m.hovered, id)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
}

func (m *Map) withLayer(id string, fn func(l *Layer)) error {
	l := m.layer(id)
	if l == nil {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	fn(l)
	return nil
}

func (m *Map) SetVisibility(id string, v Visibility) error {
	return m.withLayer(id, func(l *Layer) { l.Visibility = v })
}

func (m *Map) LayerVisibility(id string) (Visibility, error) {
	l := m.layer(id)
	if l == nil {
		return "", fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	return l.Visibility, nil
}

func (m *Map) SetColor(id, hex string) error {
	return m.withLayer(id, func(l *Layer) { l.Paint.Color = hex })
}

func (m *Map) SetLineWidth(id string, w float64) error {
	return m.withLayer(id, func(l *Layer) { l.Paint.Width = w })
}

func (m *Map) SetOpacity(id string, o float64) error {
	return m.withLayer(id, func(l *Layer) { l.Paint.Opacity = clamp(o, 0, 1) })
}

func (m *Map) SetDashArray(id string, d []float64) error {
	return m.withLayer(id, func(l *Layer) { l.Paint.DashArray = append(l.Paint.DashArray[:0], d...) })
}

func (m *Map) SetRadius(id string, r float64) error {
	return m.withLayer(id, func(l *Layer) { l.Paint.Radius = r })
}

func (m *Map) SetCursor(c string) { m.cursor = c }

func (m *Map) Cursor() string { return m.cursor }

func (m *Map) SetDoubleClickZoom(enabled bool) { m.doubleClickZoom = enabled }

func (m *Map) DoubleClickZoom() bool { return m.doubleClickZoom }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
