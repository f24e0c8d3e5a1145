package engine

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

const (
	tileSize  = 256.0
	maxLat    = 85.05112878
	dotsX     = 2
	dotsY     = 4
	pxPerDot  = 3.0
	earthCirc = 2 * math.Pi * orb.EarthRadius
)

func (m *Map) Center() orb.Point { return m.center }

func (m *Map) SetCenter(p orb.Point) {
	p[1] = clamp(p[1], -maxLat, maxLat)
	p[0] = math.Mod(p[0]+540, 360) - 180
	m.center = p
}

func (m *Map) Zoom() float64 { return m.zoom }

func (m *Map) SetZoom(z float64) {
	m.zoom = clamp(z, m.minZoom, m.maxZoom)
}

func (m *Map) Bearing() float64 { return m.bearing }

// SetBearing normalises b into (-180, 180].
func (m *Map) SetBearing(b float64) {
	b = math.Mod(b, 360)
	if b > 180 {
		b -= 360
	}
	if b <= -180 {
		b += 360
	}
	m.bearing = b
}

// FlyTo moves the camera to center at zoom. A terminal has no animation
// budget to spare, so the move is immediate.
func (m *Map) FlyTo(center orb.Point, zoom float64) {
	m.SetCenter(center)
	m.SetZoom(zoom)
}

func (m *Map) JumpTo(center orb.Point, zoom, bearing float64) {
	m.SetCenter(center)
	m.SetZoom(zoom)
	m.SetBearing(bearing)
}

// metersPerDot is the mercator resolution at the current zoom.
func (m *Map) metersPerDot() float64 {
	return earthCirc / (tileSize * math.Pow(2, m.zoom))
}

func (m *Map) dims() (float64, float64) {
	return float64(m.width * dotsX), float64(m.height * dotsY)
}

// projectDots maps lon/lat to dot coordinates of the viewport.
func (m *Map) projectDots(p orb.Point) (float64, float64) {
	mp := project.WGS84.ToMercator(p)
	mc := project.WGS84.ToMercator(m.center)
	res := m.metersPerDot()
	ex := (mp[0] - mc[0]) / res
	ny := (mp[1] - mc[1]) / res
	sin, cos := math.Sincos(m.bearing * math.Pi / 180)
	sx := ex*cos - ny*sin
	sn := ex*sin + ny*cos
	w, h := m.dims()
	return w/2 + sx, h/2 - sn
}

func (m *Map) unprojectDots(x, y float64) orb.Point {
	w, h := m.dims()
	sx := x - w/2
	sn := h/2 - y
	sin, cos := math.Sincos(m.bearing * math.Pi / 180)
	ex := sx*cos + sn*sin
	ny := -sx*sin + sn*cos
	res := m.metersPerDot()
	mc := project.WGS84.ToMercator(m.center)
	return project.Mercator.ToWGS84(orb.Point{mc[0] + ex*res, mc[1] + ny*res})
}

// Project returns the cell holding p and whether it lies inside the viewport.
func (m *Map) Project(p orb.Point) (int, int, bool) {
	x, y := m.projectDots(p)
	cx, cy := int(math.Floor(x/dotsX)), int(math.Floor(y/dotsY))
	return cx, cy, cx >= 0 && cy >= 0 && cx < m.width && cy < m.height
}

// Unproject returns the lon/lat at the center of cell (x, y).
func (m *Map) Unproject(x, y int) orb.Point {
	return m.unprojectDots(float64(x*dotsX)+dotsX/2.0, float64(y*dotsY)+dotsY/2.0)
}

// Bounds is the geographic extent covered by the viewport.
func (m *Map) Bounds() orb.Bound {
	w, h := m.dims()
	b := orb.Bound{Min: m.center, Max: m.center}
	for _, c := range [][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		b = b.Extend(m.unprojectDots(c[0], c[1]))
	}
	return b
}

// Pan shifts the view by dx, dy cells.
func (m *Map) Pan(dx, dy int) {
	w, h := m.dims()
	m.SetCenter(m.unprojectDots(w/2+float64(dx*dotsX), h/2+float64(dy*dotsY)))
}

// ZoomAround changes zoom by delta keeping the location under cell (x, y)
// fixed on screen.
func (m *Map) ZoomAround(x, y int, delta float64) {
	ax, ay := float64(x*dotsX)+dotsX/2.0, float64(y*dotsY)+dotsY/2.0
	anchor := m.unprojectDots(ax, ay)
	m.SetZoom(m.zoom + delta)
	px, py := m.projectDots(anchor)
	w, h := m.dims()
	m.SetCenter(m.unprojectDots(w/2+(px-ax), h/2+(py-ay)))
}
