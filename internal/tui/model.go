package tui

import (
	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"gridmap/internal/powermap"
)

const (
	sidebarWidth = 28
	panelWidth   = 36
	headerHeight = 1
	footerHeight = 2

	startStatus = "gridmap starting"
)

type Model struct {
	width  int
	height int

	showSidebar   bool
	helpVisible   bool
	showDashboard bool

	status string

	session *powermap.Session
	log     zerolog.Logger

	// feature list
	l            list.Model
	listFeatures int

	// pointer
	pressed     bool
	hovering    bool
	hoverHasGeo bool
	hoverLon    float64
	hoverLat    float64

	// attributes table
	showAttrs bool
	tbl       table.Model
}

func New(s *powermap.Session, log zerolog.Logger) Model {
	m := Model{
		helpVisible:   true,
		showDashboard: true,
		status:        startStatus,
		session:       s,
		log:           log,
	}
	d := list.NewDefaultDelegate()
	d.ShowDescription = true
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Features"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	return m
}

func (m Model) Init() tea.Cmd { return m.session.Init() }

// layout is the geometry of the screen regions, shared by View and the
// mouse handling in Update.
type layout struct {
	contentW, contentH int
	bannerH            int
	mapX, mapY         int
	mapW, mapH         int
	panelW             int
}

func (m Model) layout() layout {
	var lay layout
	lay.contentW = max(10, m.width)
	if _, ok := m.session.Banner(); ok {
		lay.bannerH = 1
	}
	lay.contentH = max(4, m.height-headerHeight-footerHeight-lay.bannerH)
	if m.showPanel() {
		lay.panelW = panelWidth
	}
	lay.mapX = 0
	lay.mapW = lay.contentW - lay.panelW
	if m.showSidebar {
		lay.mapX = sidebarWidth + 1
		lay.mapW -= sidebarWidth + 1
	}
	lay.mapW = max(10, lay.mapW)
	lay.mapY = headerHeight + lay.bannerH
	lay.mapH = lay.contentH
	return lay
}

// showPanel reports whether the right column (popup or dashboard) is shown.
func (m Model) showPanel() bool {
	if _, ok := m.session.Popup(); ok {
		return true
	}
	return m.showDashboard
}

// mapCell converts a screen position into a map cell.
func (m Model) mapCell(x, y int) (int, int, bool) {
	lay := m.layout()
	cx, cy := x-lay.mapX, y-lay.mapY
	return cx, cy, cx >= 0 && cx < lay.mapW && cy >= 0 && cy < lay.mapH
}
