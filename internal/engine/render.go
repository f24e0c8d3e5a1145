package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// minOpacity is the opacity below which a layer is skipped.
const minOpacity = 0.02

// Render draws all visible layers bottom to top. A panic while drawing is
// reported as an error event and yields an empty frame.
func (m *Map) Render() (out string) {
	defer func() {
		if r := recover(); r != nil {
			m.emit(Event{Type: Error, Err: fmt.Errorf("render: %v", r)})
			out = strings.TrimSuffix(strings.Repeat(strings.Repeat(" ", m.width)+"\n", m.height), "\n")
		}
	}()
	return strings.Join(m.render().toLines(), "\n")
}

func (m *Map) render() *brailleBuf {
	buf := newBrailleBuf(m.width, m.height)
	if m.width == 0 || m.height == 0 {
		return buf
	}
	for _, l := range m.layers {
		if l.Visibility != Visible || l.Paint.Opacity < minOpacity {
			continue
		}
		fc := m.sources[l.Source]
		if fc == nil {
			continue
		}
		col := m.blend(l.Paint.Color, l.Paint.Opacity)
		for _, f := range fc.Features {
			if !featureFilter(l, f) {
				continue
			}
			switch l.Type {
			case LineLayer:
				m.drawGeometry(buf, f.Geometry, l.Paint, col)
			case CircleLayer:
				if p, ok := f.Geometry.(orb.Point); ok {
					m.drawCircle(buf, p, l.Paint.Radius, col)
				}
			}
		}
	}
	return buf
}

// blend mixes hex toward the background by 1-opacity.
func (m *Map) blend(hex string, opacity float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		c = colorful.Color{R: 1, G: 1, B: 1}
	}
	if opacity >= 1 {
		return c.Hex()
	}
	return c.BlendRgb(m.background, 1-opacity).Clamped().Hex()
}

func (m *Map) drawGeometry(buf *brailleBuf, g orb.Geometry, p Paint, col string) {
	switch g := g.(type) {
	case orb.LineString:
		m.drawPath(buf, g, p, col)
	case orb.MultiLineString:
		for _, ls := range g {
			m.drawPath(buf, ls, p, col)
		}
	case orb.Ring:
		m.drawPath(buf, orb.LineString(g), p, col)
	case orb.Polygon:
		for _, r := range g {
			m.drawPath(buf, orb.LineString(r), p, col)
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			for _, r := range poly {
				m.drawPath(buf, orb.LineString(r), p, col)
			}
		}
	}
}

// drawPath rasterises a polyline with Bresenham, keeping the distance
// travelled so the dash pattern runs continuously across vertices.
func (m *Map) drawPath(buf *brailleBuf, ls orb.LineString, p Paint, col string) {
	if len(ls) < 2 {
		return
	}
	thick := lineThickness(p.Width)
	w, h := float64(buf.w*dotsX), float64(buf.h*dotsY)
	var dist float64
	px, py := m.projectDots(ls[0])
	for _, pt := range ls[1:] {
		x, y := m.projectDots(pt)
		seg := math.Hypot(x-px, y-py)
		if t0, t1, ok := clip(px, py, x, y, w, h); ok {
			ax, ay := px+(x-px)*t0, py+(y-py)*t0
			bx, by := px+(x-px)*t1, py+(y-py)*t1
			rasterize(int(math.Round(ax)), int(math.Round(ay)), int(math.Round(bx)), int(math.Round(by)), dist+seg*t0, func(mx, my int, d float64) {
				if !dashOn(p.DashArray, d) {
					return
				}
				buf.setDot(mx, my, col)
				if thick > 1 {
					buf.setDot(mx+1, my, col)
				}
				if thick > 2 {
					buf.setDot(mx, my+1, col)
					buf.setDot(mx+1, my+1, col)
				}
			})
		}
		dist += seg
		px, py = x, y
	}
}

func lineThickness(w float64) int {
	switch {
	case w >= 4:
		return 3
	case w >= 2:
		return 2
	}
	return 1
}

// clip intersects the segment with the viewport (plus a small margin) and
// returns the parameter range that remains.
func clip(x0, y0, x1, y1, w, h float64) (float64, float64, bool) {
	const pad = 2
	t0, t1 := 0.0, 1.0
	dx, dy := x1-x0, y1-y0
	edges := [4][2]float64{
		{-dx, x0 + pad},
		{dx, w + pad - x0},
		{-dy, y0 + pad},
		{dy, h + pad - y0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, false
			}
			t1 = math.Min(t1, r)
		}
	}
	return t0, t1, true
}

// rasterize walks the segment calling plot with the running distance.
func rasterize(x0, y0, x1, y1 int, dist float64, plot func(x, y int, d float64)) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0, dist)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		movedX, movedY := false, false
		if e2 >= dy {
			err += dy
			x0 += sx
			movedX = true
		}
		if e2 <= dx {
			err += dx
			y0 += sy
			movedY = true
		}
		if movedX && movedY {
			dist += math.Sqrt2
		} else {
			dist++
		}
	}
}

// dashOn reports whether distance d along a line falls on a dash.
func dashOn(pattern []float64, d float64) bool {
	var total float64
	for _, v := range pattern {
		total += v
	}
	if len(pattern) == 0 || total <= 0 {
		return true
	}
	r := math.Mod(d, total)
	for i, v := range pattern {
		if r < v {
			return i%2 == 0
		}
		r -= v
	}
	return true
}

func (m *Map) drawCircle(buf *brailleBuf, p orb.Point, radius float64, col string) {
	cx, cy := m.projectDots(p)
	r := radius / pxPerDot
	if r < 1 {
		buf.setDot(int(math.Round(cx)), int(math.Round(cy)), col)
		return
	}
	ir := int(math.Ceil(r))
	x0, y0 := int(math.Round(cx)), int(math.Round(cy))
	for dy := -ir; dy <= ir; dy++ {
		for dx := -ir; dx <= ir; dx++ {
			if float64(dx*dx+dy*dy) <= r*r {
				buf.setDot(x0+dx, y0+dy, col)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func featureFilter(l *Layer, f *geojson.Feature) bool {
	return f != nil && f.Geometry != nil && (l.Filter == nil || l.Filter(f))
}
