package powermap

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"gridmap/internal/engine"
)

// FrameInterval is the animation frame period.
const FrameInterval = time.Second / 30

// FlowPattern animates one flow overlay: a dash pattern sliding along the
// line and an opacity breathing around a base value.
type FlowPattern struct {
	Layer string
	Dash  float64
	Gap   float64
	Speed float64 // dots per second
	Phase float64 // dots

	Opacity   float64
	Amplitude float64
	Frequency float64 // radians per second
}

var FlowPatterns = []FlowPattern{
	{Layer: LayerTransmissionFlow, Dash: 25, Gap: 10, Speed: 15, Opacity: 0.75, Amplitude: 0.08, Frequency: 1.0},
	{Layer: LayerTransmissionFlow2, Dash: 22, Gap: 13, Speed: 15, Phase: 17.5, Opacity: 0.5, Amplitude: 0.06, Frequency: 1.1},
	{Layer: LayerDistributionFlow, Dash: 18, Gap: 6, Speed: 6, Opacity: 0.7, Amplitude: 0.1, Frequency: 1.3},
	{Layer: LayerDistributionFlow2, Dash: 16, Gap: 8, Speed: 6, Phase: 12, Opacity: 0.5, Amplitude: 0.08, Frequency: 1.4},
}

// Offset is the cyclic position of the pattern after elapsed seconds, in
// [0, Dash+Gap).
func (p FlowPattern) Offset(elapsed float64) float64 {
	total := p.Dash + p.Gap
	o := math.Mod(elapsed*p.Speed+p.Phase, total)
	if o < 0 {
		o += total
	}
	return o
}

// DashArray shifts the pattern by its offset. While the offset is inside
// the dash the entries sum to Dash+Gap; inside the gap the dash stays whole
// and the gap shrinks, so the sum falls between Dash and Dash+Gap.
func (p FlowPattern) DashArray(elapsed float64) []float64 {
	o := p.Offset(elapsed)
	if o < p.Dash {
		return []float64{p.Dash - o, p.Gap + o}
	}
	return []float64{p.Dash, p.Dash + p.Gap - o}
}

func (p FlowPattern) OpacityAt(elapsed float64) float64 {
	return p.Opacity + math.Sin(elapsed*p.Frequency)*p.Amplitude
}

// PaintEngine is the part of the map engine the animators write to.
type PaintEngine interface {
	HasLayer(id string) bool
	SetVisibility(id string, v engine.Visibility) error
	SetDashArray(id string, d []float64) error
	SetOpacity(id string, o float64) error
	SetRadius(id string, r float64) error
	Zoom() float64
}

type flowFrameMsg struct{ gen int }

// FlowAnimator drives the flow overlays while flow is enabled and a line
// group is visible. Each frame derives dash offsets and opacities from the
// wall clock, so dropped frames do not slow the flow down.
type FlowAnimator struct {
	eng      PaintEngine
	state    func() Visibility
	patterns []FlowPattern
	now      func() time.Time
	start    time.Time
	gen      int
	running  bool
	log      zerolog.Logger
}

func NewFlowAnimator(eng PaintEngine, state func() Visibility, now func() time.Time, log zerolog.Logger) *FlowAnimator {
	if now == nil {
		now = time.Now
	}
	return &FlowAnimator{eng: eng, state: state, patterns: FlowPatterns, now: now, start: now(), log: log}
}

func (a *FlowAnimator) Running() bool { return a.running }

// Sync starts or stops the loop to match the toggle state. Turning flow
// off hides every overlay; turning it on leaves overlay visibility to the
// synchronizer, which only shows overlays of visible groups.
func (a *FlowAnimator) Sync() tea.Cmd {
	v := a.state()
	want := v.Flow && v.LinesVisible()
	if !v.Flow {
		a.hide()
	}
	switch {
	case want && !a.running:
		a.running = true
		a.gen++
		a.log.Debug().Msg("flow animation started")
		a.Frame(a.now())
		return a.tick()
	case !want && a.running:
		a.Stop()
	}
	return nil
}

// Stop ends the loop and hides every overlay.
func (a *FlowAnimator) Stop() {
	if a.running {
		a.log.Debug().Msg("flow animation stopped")
	}
	a.running = false
	a.gen++
	a.hide()
}

func (a *FlowAnimator) hide() {
	for _, p := range a.patterns {
		if a.eng.HasLayer(p.Layer) {
			_ = a.eng.SetVisibility(p.Layer, engine.None)
		}
	}
}

func (a *FlowAnimator) tick() tea.Cmd {
	gen := a.gen
	return tea.Tick(FrameInterval, func(time.Time) tea.Msg { return flowFrameMsg{gen: gen} })
}

func (a *FlowAnimator) handleFrame(msg flowFrameMsg) tea.Cmd {
	if msg.gen != a.gen || !a.running {
		return nil
	}
	a.Frame(a.now())
	return a.tick()
}

// Frame writes the paint of every overlay for time now. Overlays missing
// from the engine are skipped.
func (a *FlowAnimator) Frame(now time.Time) {
	elapsed := now.Sub(a.start).Seconds()
	for _, p := range a.patterns {
		if !a.eng.HasLayer(p.Layer) {
			continue
		}
		_ = a.eng.SetDashArray(p.Layer, p.DashArray(elapsed))
		_ = a.eng.SetOpacity(p.Layer, p.OpacityAt(elapsed))
	}
}

// Transformer pulse: the circle radius swings between 5 and 8 around 6.5,
// scaled with zoom.
const (
	pulseBase      = radiusTransformer
	pulseAmplitude = 1.5
	pulseRate      = 3.0 // radians per second
)

// pulseStops scale the radius by zoom, interpolated linearly.
var pulseStops = [][2]float64{{10, 0.77}, {15, 1.23}, {20, 1.85}}

type pulseFrameMsg struct{ gen int }

// TransformerPulse animates the transformer circles while they are shown.
type TransformerPulse struct {
	eng     PaintEngine
	state   func() Visibility
	now     func() time.Time
	start   time.Time
	gen     int
	running bool
}

func NewTransformerPulse(eng PaintEngine, state func() Visibility, now func() time.Time) *TransformerPulse {
	if now == nil {
		now = time.Now
	}
	return &TransformerPulse{eng: eng, state: state, now: now, start: now()}
}

func (p *TransformerPulse) Running() bool { return p.running }

func (p *TransformerPulse) Sync() tea.Cmd {
	want := p.state().Transformers
	switch {
	case want && !p.running:
		p.running = true
		p.gen++
		p.Frame(p.now())
		return p.tick()
	case !want && p.running:
		p.Stop()
	}
	return nil
}

func (p *TransformerPulse) Stop() {
	p.running = false
	p.gen++
}

func (p *TransformerPulse) tick() tea.Cmd {
	gen := p.gen
	return tea.Tick(FrameInterval, func(time.Time) tea.Msg { return pulseFrameMsg{gen: gen} })
}

func (p *TransformerPulse) handleFrame(msg pulseFrameMsg) tea.Cmd {
	if msg.gen != p.gen || !p.running {
		return nil
	}
	p.Frame(p.now())
	return p.tick()
}

func (p *TransformerPulse) Frame(now time.Time) {
	if !p.eng.HasLayer(LayerTransformers) {
		return
	}
	_ = p.eng.SetRadius(LayerTransformers, PulseRadius(now.Sub(p.start).Seconds(), p.eng.Zoom()))
}

// PulseRadius is the transformer radius after elapsed seconds at zoom.
func PulseRadius(elapsed, zoom float64) float64 {
	return (pulseBase + math.Sin(elapsed*pulseRate)*pulseAmplitude) * zoomScale(zoom)
}

func zoomScale(zoom float64) float64 {
	first, last := pulseStops[0], pulseStops[len(pulseStops)-1]
	if zoom <= first[0] {
		return first[1]
	}
	if zoom >= last[0] {
		return last[1]
	}
	for i := 1; i < len(pulseStops); i++ {
		a, b := pulseStops[i-1], pulseStops[i]
		if zoom <= b[0] {
			t := (zoom - a[0]) / (b[0] - a[0])
			return a[1] + t*(b[1]-a[1])
		}
	}
	return last[1]
}
