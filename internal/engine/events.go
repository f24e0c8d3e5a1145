package engine

import (
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

type EventType string

const (
	Click      EventType = "click"
	MouseEnter EventType = "mouseenter"
	MouseLeave EventType = "mouseleave"
	Load       EventType = "load"
	Error      EventType = "error"
)

// hitTolerance is the pick radius in dots around the pointer.
const hitTolerance = 3.0

// doubleClickWindow bounds two native presses counted as a double click.
const doubleClickWindow = 300 * time.Millisecond

type Event struct {
	Type     EventType
	Layer    string
	X, Y     int
	LngLat   orb.Point
	Features []*geojson.Feature
	Err      error
}

type Handler func(Event)

type ListenerID int

type listener struct {
	id    ListenerID
	typ   EventType
	layer string
	fn    Handler
}

// On registers fn for events of typ. Layer scoped types (click, mouseenter,
// mouseleave) need a layer id; map wide types use "".
func (m *Map) On(typ EventType, layer string, fn Handler) ListenerID {
	m.nextID++
	m.listeners = append(m.listeners, listener{id: m.nextID, typ: typ, layer: layer, fn: fn})
	return m.nextID
}

func (m *Map) Off(id ListenerID) bool {
	for i, l := range m.listeners {
		if l.id == id {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// OffLayer removes every listener of typ on layer and returns how many.
func (m *Map) OffLayer(typ EventType, layer string) int {
	kept := m.listeners[:0]
	n := 0
	for _, l := range m.listeners {
		if l.typ == typ && l.layer == layer {
			n++
			continue
		}
		kept = append(kept, l)
	}
	m.listeners = kept
	return n
}

func (m *Map) ListenerCount(typ EventType, layer string) int {
	n := 0
	for _, l := range m.listeners {
		if l.typ == typ && l.layer == layer {
			n++
		}
	}
	return n
}

func (m *Map) emit(ev Event) {
	snapshot := append([]listener(nil), m.listeners...)
	for _, l := range snapshot {
		if l.typ == ev.Type && l.layer == ev.Layer {
			l.fn(ev)
		}
	}
}

// Hit is a rendered feature under the pointer.
type Hit struct {
	Layer   string
	Feature *geojson.Feature
}

// QueryRenderedFeatures returns the visible features drawn under cell (x, y),
// top-most layer first. With no layer ids every layer is searched.
func (m *Map) QueryRenderedFeatures(x, y int, layers ...string) []Hit {
	want := map[string]bool{}
	for _, id := range layers {
		want[id] = true
	}
	px, py := float64(x*dotsX)+dotsX/2.0, float64(y*dotsY)+dotsY/2.0
	var hits []Hit
	for i := len(m.layers) - 1; i >= 0; i-- {
		l := m.layers[i]
		if len(want) > 0 && !want[l.ID] {
			continue
		}
		if l.Visibility != Visible || l.Paint.Opacity < minOpacity {
			continue
		}
		fc := m.sources[l.Source]
		if fc == nil {
			continue
		}
		for _, f := range fc.Features {
			if featureFilter(l, f) && m.hit(l, f.Geometry, px, py) {
				hits = append(hits, Hit{Layer: l.ID, Feature: f})
			}
		}
	}
	return hits
}

func (m *Map) hit(l *Layer, g orb.Geometry, px, py float64) bool {
	p := orb.Point{px, py}
	switch l.Type {
	case CircleLayer:
		pt, ok := g.(orb.Point)
		if !ok {
			return false
		}
		x, y := m.projectDots(pt)
		return math.Hypot(x-px, y-py) <= hitTolerance+l.Paint.Radius/pxPerDot
	case LineLayer:
		var paths []orb.LineString
		switch g := g.(type) {
		case orb.LineString:
			paths = append(paths, g)
		case orb.MultiLineString:
			paths = append(paths, g...)
		case orb.Polygon:
			for _, r := range g {
				paths = append(paths, orb.LineString(r))
			}
		}
		for _, ls := range paths {
			for i := 1; i < len(ls); i++ {
				ax, ay := m.projectDots(ls[i-1])
				bx, by := m.projectDots(ls[i])
				if planar.DistanceFromSegment(orb.Point{ax, ay}, orb.Point{bx, by}, p) <= hitTolerance {
					return true
				}
			}
		}
	}
	return false
}

// Click dispatches a click at cell (x, y): layer listeners fire when their
// layer has features under the pointer, map wide listeners always fire.
func (m *Map) Click(x, y int) {
	at := m.Unproject(x, y)
	for _, layer := range m.listenedLayers(Click) {
		hits := m.QueryRenderedFeatures(x, y, layer)
		if len(hits) == 0 {
			continue
		}
		m.emit(Event{Type: Click, Layer: layer, X: x, Y: y, LngLat: at, Features: features(hits)})
	}
	m.emit(Event{Type: Click, X: x, Y: y, LngLat: at})
}

// Hover updates enter/leave state for layers with listeners.
func (m *Map) Hover(x, y int) {
	at := m.Unproject(x, y)
	seen := map[string]bool{}
	for _, typ := range []EventType{MouseEnter, MouseLeave} {
		for _, layer := range m.listenedLayers(typ) {
			if seen[layer] {
				continue
			}
			seen[layer] = true
			hits := m.QueryRenderedFeatures(x, y, layer)
			switch {
			case len(hits) > 0 && !m.hovered[layer]:
				m.hovered[layer] = true
				m.emit(Event{Type: MouseEnter, Layer: layer, X: x, Y: y, LngLat: at, Features: features(hits)})
			case len(hits) == 0 && m.hovered[layer]:
				delete(m.hovered, layer)
				m.emit(Event{Type: MouseLeave, Layer: layer, X: x, Y: y, LngLat: at})
			}
		}
	}
}

// Leave ends every hover, as when the pointer leaves the map.
func (m *Map) Leave() {
	for layer := range m.hovered {
		delete(m.hovered, layer)
		m.emit(Event{Type: MouseLeave, Layer: layer})
	}
}

func (m *Map) listenedLayers(typ EventType) []string {
	var out []string
	seen := map[string]bool{}
	for _, l := range m.listeners {
		if l.typ == typ && l.layer != "" && !seen[l.layer] {
			seen[l.layer] = true
			out = append(out, l.layer)
		}
	}
	return out
}

func features(hits []Hit) []*geojson.Feature {
	out := make([]*geojson.Feature, len(hits))
	for i, h := range hits {
		out[i] = h.Feature
	}
	return out
}

// Wheel zooms around the pointer; positive delta zooms in.
func (m *Map) Wheel(x, y int, delta float64) {
	m.ZoomAround(x, y, delta)
}

// NativePress feeds a primary button press to the map's own handlers. Two
// presses on the same spot within the double click window zoom in. While
// double click zoom is disabled a press only forgets the previous one.
func (m *Map) NativePress(x, y int, at time.Time) {
	if !m.doubleClickZoom {
		m.lastPress = time.Time{}
		return
	}
	if !m.lastPress.IsZero() && at.Sub(m.lastPress) <= doubleClickWindow &&
		abs(x-m.lastPressX) <= 1 && abs(y-m.lastPressY) <= 1 {
		m.ZoomAround(x, y, 1)
		m.lastPress = time.Time{}
		return
	}
	m.lastPress, m.lastPressX, m.lastPressY = at, x, y
}
