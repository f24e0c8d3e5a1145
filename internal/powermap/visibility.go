package powermap

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"gridmap/internal/engine"
)

// restoreDelay is how long after a publish the visibility state is
// re-applied. One animation frame is added on top.
const restoreDelay = 100 * time.Millisecond

// Visibility is the user's toggle state. It is the only source of truth
// for what should be shown; layers are brought in line with it.
type Visibility struct {
	Transmission bool
	Distribution bool
	Transformers bool
	Flow         bool
}

func DefaultVisibility() Visibility {
	return Visibility{Transmission: true, Distribution: true, Transformers: true, Flow: true}
}

func (v Visibility) Group(g Group) bool {
	switch g {
	case Transmission:
		return v.Transmission
	case Distribution:
		return v.Distribution
	case Transformers:
		return v.Transformers
	}
	return false
}

func (v *Visibility) SetGroup(g Group, on bool) {
	switch g {
	case Transmission:
		v.Transmission = on
	case Distribution:
		v.Distribution = on
	case Transformers:
		v.Transformers = on
	}
}

// LinesVisible reports whether any line group is shown.
func (v Visibility) LinesVisible() bool { return v.Transmission || v.Distribution }

// LayerEngine is the part of the map engine the synchronizer writes to.
type LayerEngine interface {
	HasLayer(id string) bool
	SetVisibility(id string, v engine.Visibility) error
}

type restoreMsg struct{ gen int }

// Synchronizer keeps layer visibility in the engine equal to the toggle
// state. Layers that do not exist yet are skipped; they pick the state up
// when created or at the next restore.
type Synchronizer struct {
	eng   LayerEngine
	state Visibility
	gen   int
	log   zerolog.Logger
}

func NewSynchronizer(eng LayerEngine, initial Visibility, log zerolog.Logger) *Synchronizer {
	return &Synchronizer{eng: eng, state: initial, log: log}
}

func (s *Synchronizer) State() Visibility { return s.state }

// SetVisible records the toggle for g and applies it to every physical
// layer of the group. Calling it twice with the same value is harmless.
func (s *Synchronizer) SetVisible(g Group, visible bool) {
	s.state.SetGroup(g, visible)
	s.log.Debug().Str("group", g.String()).Bool("visible", visible).Msg("set visibility")
	s.apply(func(d layerDef) bool { return d.group == g })
}

// SetFlow records the flow toggle and applies it to the flow overlays.
func (s *Synchronizer) SetFlow(enabled bool) {
	s.state.Flow = enabled
	s.log.Debug().Bool("flow", enabled).Msg("set flow")
	s.apply(func(d layerDef) bool { return d.flow })
}

// ApplyAll writes the current state to every power layer.
func (s *Synchronizer) ApplyAll() {
	s.apply(func(layerDef) bool { return true })
}

func (s *Synchronizer) apply(match func(layerDef) bool) {
	for _, d := range powerLayers {
		if !match(d) || !s.eng.HasLayer(d.layer.ID) {
			continue
		}
		if err := s.eng.SetVisibility(d.layer.ID, visibility(d.visibleIn(s.state))); err != nil {
			s.log.Warn().Err(err).Str("layer", d.layer.ID).Msg("set visibility")
		}
	}
}

// ScheduleRestore re-applies the state shortly after a data publish. The
// state is read when the timer fires, so toggles made in between win.
func (s *Synchronizer) ScheduleRestore() tea.Cmd {
	s.gen++
	gen := s.gen
	return tea.Tick(restoreDelay+FrameInterval, func(time.Time) tea.Msg {
		return restoreMsg{gen: gen}
	})
}

func (s *Synchronizer) handleRestore(msg restoreMsg) {
	if msg.gen != s.gen {
		return
	}
	s.ApplyAll()
}

// Cancel drops any pending restore.
func (s *Synchronizer) Cancel() { s.gen++ }
