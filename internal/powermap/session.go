// Package powermap holds the UI state of the power grid map: session
// lifecycle, layer visibility, the one time data load, flow animation and
// pointer gestures. It drives an engine.Map and runs inside a bubbletea
// program; every timer is a tea.Tick carrying a token so that stale ticks
// are ignored.
package powermap

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"gridmap/internal/config"
	"gridmap/internal/engine"
	"gridmap/internal/geom"
)

// FlyToZoom is the zoom the camera flies to when a feature is clicked.
const FlyToZoom = 15

type readyCheckMsg struct{ gen int }

type initTimeoutMsg struct{ gen int }

type loadDelayMsg struct{ gen int }

// Session owns one map: creation, readiness, data, animation, gestures
// and teardown.
type Session struct {
	cfg config.Config
	src Source
	log zerolog.Logger
	now func() time.Time

	eng      *engine.Map
	sync     *Synchronizer
	loader   *Loader
	flow     *FlowAnimator
	pulse    *TransformerPulse
	gestures *GestureArbiter

	initial  Visibility
	ready    bool
	initGen  int
	closed   bool
	banner   *Banner
	popup    *Popup
	hovered  map[string]bool
	hoverAt  orb.Point
	hoverSet bool
}

type SessionOption func(*Session)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithVisibility sets the initial toggle state.
func WithVisibility(v Visibility) SessionOption {
	return func(s *Session) { s.initial = v }
}

func NewSession(cfg config.Config, src Source, log zerolog.Logger, opts ...SessionOption) *Session {
	s := &Session{cfg: cfg, src: src, log: log, now: time.Now, initial: DefaultVisibility(), hovered: map[string]bool{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Init validates the configuration, creates the map and starts waiting for
// it to become ready. A configuration error leaves the session without a
// map and with a static banner.
func (s *Session) Init() tea.Cmd {
	if err := s.cfg.ValidateToken(); err != nil {
		s.log.Error().Err(err).Msg("invalid map configuration")
		b := configBanner(err)
		s.banner = &b
		return nil
	}
	eng, err := engine.New(engine.Options{
		AccessToken:     s.cfg.Token,
		Center:          s.cfg.Center,
		Zoom:            s.cfg.Zoom,
		DoubleClickZoom: true,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("create map")
		b := configBanner(err)
		s.banner = &b
		return nil
	}
	s.eng = eng
	s.sync = NewSynchronizer(eng, s.initial, s.log.With().Str("component", "layers").Logger())
	s.loader = NewLoader(s.src, eng, s.cfg.Region, s.cfg.FetchTimeout, s.log.With().Str("component", "loader").Logger())
	s.flow = NewFlowAnimator(eng, s.sync.State, s.now, s.log.With().Str("component", "flow").Logger())
	s.pulse = NewTransformerPulse(eng, s.sync.State, s.now)
	s.gestures = NewGestureArbiter(eng, s.log.With().Str("component", "gestures").Logger())
	eng.On(engine.Error, "", s.onEngineError)

	s.initGen++
	s.log.Info().
		Float64("lon", s.cfg.Center[0]).
		Float64("lat", s.cfg.Center[1]).
		Float64("zoom", s.cfg.Zoom).
		Dur("timeout", s.cfg.InitTimeout).
		Msg("map created, waiting for ready")
	return tea.Batch(s.readyCheck(), s.initTimeout())
}

func (s *Session) readyCheck() tea.Cmd {
	gen := s.initGen
	return tea.Tick(s.cfg.ReadyCheckInterval, func(time.Time) tea.Msg { return readyCheckMsg{gen: gen} })
}

func (s *Session) initTimeout() tea.Cmd {
	gen := s.initGen
	return tea.Tick(s.cfg.InitTimeout, func(time.Time) tea.Msg { return initTimeoutMsg{gen: gen} })
}

// Update routes the session's own messages. Messages it does not know
// return nil.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	if s.closed || s.eng == nil {
		return nil
	}
	switch msg := msg.(type) {
	case readyCheckMsg:
		if msg.gen != s.initGen || s.ready {
			return nil
		}
		if s.eng.Loaded() {
			return s.onReady()
		}
		return s.readyCheck()
	case initTimeoutMsg:
		if msg.gen != s.initGen || s.ready {
			return nil
		}
		s.initGen++
		s.log.Error().Err(ErrInitTimeout).Dur("timeout", s.cfg.InitTimeout).Msg("map not ready")
		b := timeoutBanner()
		s.banner = &b
	case loadDelayMsg:
		if msg.gen != s.initGen {
			return nil
		}
		return s.loader.LoadOnce()
	case boundaryLoadedMsg:
		if b := s.loader.publishBoundary(msg); b != nil {
			s.banner = b
		}
	case powerLoadedMsg:
		return s.onPowerLoaded(msg)
	case restoreMsg:
		s.sync.handleRestore(msg)
	case flowFrameMsg:
		return s.flow.handleFrame(msg)
	case pulseFrameMsg:
		return s.pulse.handleFrame(msg)
	case rotateTimerMsg:
		s.gestures.handleRotateTimer(msg)
	case clickWindowMsg:
		s.gestures.handleClickWindow(msg)
	}
	return nil
}

func (s *Session) onReady() tea.Cmd {
	s.ready = true
	s.log.Info().Msg("map ready")
	gen := s.initGen
	return tea.Batch(
		s.loader.LoadBoundary(),
		tea.Tick(s.cfg.LoadDelay, func(time.Time) tea.Msg { return loadDelayMsg{gen: gen} }),
		s.flow.Sync(),
		s.pulse.Sync(),
	)
}

func (s *Session) onPowerLoaded(msg powerLoadedMsg) tea.Cmd {
	if b := s.loader.publishPower(msg, s.sync.State()); b != nil {
		s.banner = b
		return nil
	}
	if msg.err != nil {
		return nil
	}
	s.bindLayerListeners()
	return tea.Batch(s.sync.ScheduleRestore(), s.flow.Sync(), s.pulse.Sync())
}

// bindLayerListeners detaches and re-attaches the click and hover
// listeners of every clickable layer, so repeated publishes never stack
// handlers.
func (s *Session) bindLayerListeners() {
	for _, id := range clickable {
		if !s.eng.HasLayer(id) {
			continue
		}
		s.eng.OffLayer(engine.Click, id)
		s.eng.OffLayer(engine.MouseEnter, id)
		s.eng.OffLayer(engine.MouseLeave, id)
		s.eng.On(engine.Click, id, s.onFeatureClick)
		s.eng.On(engine.MouseEnter, id, s.onFeatureEnter)
		s.eng.On(engine.MouseLeave, id, s.onFeatureLeave)
	}
}

func (s *Session) onFeatureClick(ev engine.Event) {
	if len(ev.Features) == 0 {
		return
	}
	f := ev.Features[0]
	p, ok := NewPopup(f, ev.LngLat)
	if !ok {
		return
	}
	s.popup = &p
	s.eng.FlyTo(ev.LngLat, FlyToZoom)
	s.log.Debug().Str("layer", ev.Layer).Str("osm_id", p.OSMID).Msg("feature clicked")
}

func (s *Session) onFeatureEnter(ev engine.Event) {
	s.hovered[ev.Layer] = true
	if _, ok := lineWidths[ev.Layer]; ok {
		_ = s.eng.SetLineWidth(ev.Layer, widthHover)
	}
	s.eng.SetCursor(CursorPointer)
}

func (s *Session) onFeatureLeave(ev engine.Event) {
	delete(s.hovered, ev.Layer)
	if w, ok := lineWidths[ev.Layer]; ok {
		_ = s.eng.SetLineWidth(ev.Layer, w)
	}
	if len(s.hovered) == 0 && s.gestures.Mode() == GestureIdle {
		s.eng.SetCursor(CursorDefault)
	}
}

func (s *Session) onEngineError(ev engine.Event) {
	s.log.Error().Err(ev.Err).Msg("map error")
	b := renderBanner(ev.Err)
	s.banner = &b
}

// Resize gives the map its viewport in cells.
func (s *Session) Resize(w, h int) {
	if s.eng != nil && !s.closed {
		s.eng.Resize(w, h)
	}
}

// Toggle flips the visibility of g.
func (s *Session) Toggle(g Group) tea.Cmd {
	if s.sync == nil {
		return nil
	}
	return s.SetVisible(g, !s.sync.State().Group(g))
}

func (s *Session) SetVisible(g Group, visible bool) tea.Cmd {
	if s.eng == nil || s.closed {
		return nil
	}
	s.sync.SetVisible(g, visible)
	return tea.Batch(s.flow.Sync(), s.pulse.Sync())
}

func (s *Session) ToggleFlow() tea.Cmd {
	if s.sync == nil {
		return nil
	}
	return s.SetFlow(!s.sync.State().Flow)
}

func (s *Session) SetFlow(enabled bool) tea.Cmd {
	if s.eng == nil || s.closed {
		return nil
	}
	s.sync.SetFlow(enabled)
	return s.flow.Sync()
}

// Reload retries the power load after a failure. It is a no-op once data
// has loaded or while a load is in flight.
func (s *Session) Reload() tea.Cmd {
	if s.eng == nil || s.closed || !s.ready {
		return nil
	}
	return s.loader.LoadOnce()
}

// Press, Motion, Release and Leave feed the primary pointer in map cells.
func (s *Session) Press(x, y int) tea.Cmd {
	if !s.interactive() {
		return nil
	}
	cmd := s.gestures.Press(x, y)
	s.eng.NativePress(x, y, s.now())
	return cmd
}

func (s *Session) Motion(x, y int) {
	if !s.interactive() {
		return
	}
	s.hoverAt, s.hoverSet = s.eng.Unproject(x, y), true
	if s.gestures.Move(x, y) == Pass {
		s.eng.Hover(x, y)
	}
}

func (s *Session) Release(x, y int) {
	if !s.interactive() {
		return
	}
	if s.gestures.Release(x, y) == Click {
		s.eng.Click(x, y)
	}
}

func (s *Session) Leave() {
	if !s.interactive() {
		return
	}
	s.hoverSet = false
	s.gestures.Leave()
	s.eng.Leave()
}

func (s *Session) Wheel(x, y int, delta float64) {
	if s.interactive() {
		s.eng.Wheel(x, y, delta)
	}
}

func (s *Session) interactive() bool { return s.eng != nil && !s.closed }

// Camera shortcuts for keyboard control.

func (s *Session) ZoomBy(delta float64) {
	if s.interactive() {
		s.eng.SetZoom(s.eng.Zoom() + delta)
	}
}

func (s *Session) PanBy(dx, dy int) {
	if s.interactive() {
		s.eng.Pan(dx, dy)
	}
}

func (s *Session) RotateBy(deg float64) {
	if s.interactive() {
		s.eng.SetBearing(s.eng.Bearing() + deg)
	}
}

// ResetView returns to the configured center and zoom, facing north.
func (s *Session) ResetView() {
	if s.interactive() {
		s.eng.JumpTo(s.cfg.Center, s.cfg.Zoom, 0)
	}
}

// FlyToFeature centers the map on f and opens its popup.
func (s *Session) FlyToFeature(f *geojson.Feature) {
	if !s.interactive() || f == nil || f.Geometry == nil {
		return
	}
	at := f.Geometry.Bound().Center()
	if p, ok := NewPopup(f, at); ok {
		s.popup = &p
	}
	s.eng.FlyTo(at, FlyToZoom)
}

// Features lists the published power features, endpoint markers excluded.
func (s *Session) Features() []*geojson.Feature {
	if s.eng == nil {
		return nil
	}
	fc, ok := s.eng.SourceData(SourcePower)
	if !ok {
		return nil
	}
	out := make([]*geojson.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		if !geom.IsEndpoint(f) {
			out = append(out, f)
		}
	}
	return out
}

func (s *Session) View() string {
	if s.eng == nil || s.closed {
		return ""
	}
	return s.eng.Render()
}

func (s *Session) Map() *engine.Map { return s.eng }

func (s *Session) Ready() bool { return s.ready }

func (s *Session) Visibility() Visibility {
	if s.sync == nil {
		return s.initial
	}
	return s.sync.State()
}

func (s *Session) Stats() (geom.Stats, bool) {
	if s.loader == nil {
		return geom.Stats{}, false
	}
	return s.loader.Stats()
}

func (s *Session) Loading() bool {
	return s.loader != nil && s.loader.Guard().InFlight()
}

func (s *Session) FlowRunning() bool { return s.flow != nil && s.flow.Running() }

func (s *Session) Banner() (Banner, bool) {
	if s.banner == nil {
		return Banner{}, false
	}
	return *s.banner, true
}

// DismissBanner clears a dismissible banner and reports whether it did.
func (s *Session) DismissBanner() bool {
	if s.banner == nil || !s.banner.Dismissible {
		return false
	}
	s.banner = nil
	return true
}

func (s *Session) Popup() (Popup, bool) {
	if s.popup == nil {
		return Popup{}, false
	}
	return *s.popup, true
}

func (s *Session) ClosePopup() bool {
	if s.popup == nil {
		return false
	}
	s.popup = nil
	return true
}

// HoverLngLat is the location under the pointer, if it is over the map.
func (s *Session) HoverLngLat() (orb.Point, bool) { return s.hoverAt, s.hoverSet }

// Close stops the animation loops, invalidates pending timers, cancels the
// fetch in flight and detaches every listener.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.initGen++
	if s.eng == nil {
		return
	}
	s.sync.Cancel()
	s.flow.Stop()
	s.pulse.Stop()
	s.gestures.Stop()
	s.loader.Close()
	s.eng.Remove()
	s.log.Info().Msg("session closed")
}
