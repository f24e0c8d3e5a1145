package powermap

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
)

const (
	// rotationDelay is shorter than the double click window so a second
	// press can still cancel a pending rotation.
	rotationDelay     = 250 * time.Millisecond
	doubleClickWindow = 300 * time.Millisecond

	degreesPerCell = 4.0
	noiseCells     = 1
)

// Cursor names set on the engine while a gesture runs.
const (
	CursorDefault  = ""
	CursorPointer  = "pointer"
	CursorGrabbing = "grabbing"
	CursorMove     = "move"
)

// GestureMode is the single active gesture. Only one can be live for a
// press sequence.
type GestureMode int

const (
	GestureIdle GestureMode = iota
	RotatePending
	Rotating
	PanArmed
	Panning
)

func (m GestureMode) String() string {
	switch m {
	case RotatePending:
		return "rotate-pending"
	case Rotating:
		return "rotating"
	case PanArmed:
		return "pan-armed"
	case Panning:
		return "panning"
	}
	return "idle"
}

// Outcome tells the caller what to do with a pointer event after the
// arbiter has seen it.
type Outcome int

const (
	// Pass leaves the event to the engine (hover and the like).
	Pass Outcome = iota
	// Consumed means the arbiter handled it.
	Consumed
	// Click means the press sequence was a plain click.
	Click
)

// CameraEngine is the part of the map engine the arbiter drives.
type CameraEngine interface {
	Center() orb.Point
	SetCenter(p orb.Point)
	Bearing() float64
	SetBearing(b float64)
	Bounds() orb.Bound
	Size() (int, int)
	SetCursor(c string)
	SetDoubleClickZoom(enabled bool)
}

type rotateTimerMsg struct{ seq int }

type clickWindowMsg struct{ seq int }

// GestureArbiter turns primary button sequences into rotation (press, hold,
// drag horizontally) or panning (double press, drag) without the two ever
// running together.
type GestureArbiter struct {
	eng CameraEngine
	log zerolog.Logger

	mode    GestureMode
	dragged bool

	pressX, pressY int
	startBearing   float64
	startCenter    orb.Point

	// windowOpen is true while a second press would count as a double press.
	windowOpen bool
	rotateSeq  int
	windowSeq  int
}

func NewGestureArbiter(eng CameraEngine, log zerolog.Logger) *GestureArbiter {
	return &GestureArbiter{eng: eng, log: log}
}

func (a *GestureArbiter) Mode() GestureMode { return a.mode }

// Press handles a primary button press at cell (x, y).
func (a *GestureArbiter) Press(x, y int) tea.Cmd {
	a.pressX, a.pressY = x, y
	a.dragged = false
	if a.windowOpen {
		a.rotateSeq++
		a.windowSeq++
		a.windowOpen = false
		a.mode = PanArmed
		a.startCenter = a.eng.Center()
		a.eng.SetDoubleClickZoom(false)
		a.log.Debug().Int("x", x).Int("y", y).Msg("double press, pan armed")
		return nil
	}
	a.mode = RotatePending
	a.windowOpen = true
	a.rotateSeq++
	a.windowSeq++
	rs, ws := a.rotateSeq, a.windowSeq
	return tea.Batch(
		tea.Tick(rotationDelay, func(time.Time) tea.Msg { return rotateTimerMsg{seq: rs} }),
		tea.Tick(doubleClickWindow, func(time.Time) tea.Msg { return clickWindowMsg{seq: ws} }),
	)
}

func (a *GestureArbiter) handleRotateTimer(msg rotateTimerMsg) {
	if msg.seq != a.rotateSeq || a.mode != RotatePending {
		return
	}
	a.mode = Rotating
	a.startBearing = a.eng.Bearing()
	a.eng.SetCursor(CursorGrabbing)
	a.log.Debug().Float64("bearing", a.startBearing).Msg("rotation active")
}

func (a *GestureArbiter) handleClickWindow(msg clickWindowMsg) {
	if msg.seq == a.windowSeq {
		a.windowOpen = false
	}
}

// Move handles pointer motion with the button held.
func (a *GestureArbiter) Move(x, y int) Outcome {
	dx, dy := x-a.pressX, y-a.pressY
	switch a.mode {
	case Rotating:
		if abs(dx) <= noiseCells && !a.dragged {
			return Consumed
		}
		a.dragged = true
		a.eng.SetBearing(a.startBearing + float64(dx)*degreesPerCell)
		return Consumed
	case PanArmed, Panning:
		if abs(dx) <= noiseCells && abs(dy) <= noiseCells && !a.dragged {
			return Consumed
		}
		if a.mode == PanArmed {
			a.mode = Panning
			a.eng.SetCursor(CursorMove)
		}
		a.dragged = true
		a.pan(dx, dy)
		return Consumed
	case RotatePending:
		return Consumed
	}
	return Pass
}

// pan offsets the start center by the drag in degrees per cell of the
// current view, x inverted and y natural.
func (a *GestureArbiter) pan(dx, dy int) {
	w, h := a.eng.Size()
	if w <= 0 || h <= 0 {
		return
	}
	b := a.eng.Bounds()
	lngPerCell := (b.Max[0] - b.Min[0]) / float64(w)
	latPerCell := (b.Max[1] - b.Min[1]) / float64(h)
	a.eng.SetCenter(orb.Point{
		a.startCenter[0] - float64(dx)*lngPerCell,
		a.startCenter[1] + float64(dy)*latPerCell,
	})
}

// Release ends the press. A press that never turned into a drag is a click.
// The double click window stays open across the release of a first press.
func (a *GestureArbiter) Release(x, y int) Outcome {
	mode, dragged := a.mode, a.dragged
	a.rotateSeq++
	if mode == PanArmed || mode == Panning || mode == Rotating {
		a.windowSeq++
		a.windowOpen = false
	}
	a.reset()
	switch {
	case mode == GestureIdle:
		return Pass
	case mode == RotatePending, mode == Rotating && !dragged:
		return Click
	}
	return Consumed
}

// Leave abandons any gesture when the pointer leaves the map.
func (a *GestureArbiter) Leave() {
	if a.mode == GestureIdle && !a.windowOpen {
		return
	}
	a.Stop()
}

// Stop clears every timer and gesture.
func (a *GestureArbiter) Stop() {
	a.rotateSeq++
	a.windowSeq++
	a.windowOpen = false
	a.reset()
}

func (a *GestureArbiter) reset() {
	if a.mode != GestureIdle {
		a.eng.SetCursor(CursorDefault)
		a.eng.SetDoubleClickZoom(true)
	}
	a.mode = GestureIdle
	a.dragged = false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
