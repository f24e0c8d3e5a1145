package tui

import (
	"fmt"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"gridmap/internal/powermap"
)

const (
	keyZoomStep   = 0.5
	keyRotateStep = 15.0
	wheelStep     = 0.5
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		// If list is visible and filtering, send keys to list and ignore global commands
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.showAttrs {
			switch msg.String() {
			case "up", "down", "pgup", "pgdown", "home", "end", "j", "k":
				var cmd tea.Cmd
				m.tbl, cmd = m.tbl.Update(msg)
				return m, cmd
			}
		}
		if m.showSidebar {
			switch msg.String() {
			case "up", "down", "pgup", "pgdown", "/", "j", "k":
				var cmd tea.Cmd
				m.l, cmd = m.l.Update(msg)
				return m, cmd
			}
		}
		cmds = append(cmds, m.handleKey(msg))
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.MouseMsg:
		cmds = append(cmds, m.handleMouse(msg))
	default:
		cmds = append(cmds, m.session.Update(msg))
		if m.status == startStatus && m.session.Ready() {
			m.status = "map ready"
		}
	}

	lay := m.layout()
	m.session.Resize(lay.mapW, lay.mapH)
	if m.showSidebar {
		m.l.SetSize(sidebarWidth-2, lay.contentH-2)
		if n := len(m.session.Features()); n != m.listFeatures {
			m.refreshFeatures()
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	s := m.session
	switch msg.String() {
	case "ctrl+c", "q":
		s.Close()
	case "1":
		cmd := s.Toggle(powermap.Transmission)
		m.status = fmt.Sprintf("transmission: %v", s.Visibility().Transmission)
		return cmd
	case "2":
		cmd := s.Toggle(powermap.Distribution)
		m.status = fmt.Sprintf("distribution: %v", s.Visibility().Distribution)
		return cmd
	case "3":
		cmd := s.Toggle(powermap.Transformers)
		m.status = fmt.Sprintf("transformers: %v", s.Visibility().Transformers)
		return cmd
	case "f":
		cmd := s.ToggleFlow()
		m.status = fmt.Sprintf("flow animation: %v", s.Visibility().Flow)
		return cmd
	case "+", "=":
		s.ZoomBy(keyZoomStep)
		m.status = m.cameraStatus()
	case "-", "_":
		s.ZoomBy(-keyZoomStep)
		m.status = m.cameraStatus()
	case "[":
		s.RotateBy(-keyRotateStep)
		m.status = m.cameraStatus()
	case "]":
		s.RotateBy(keyRotateStep)
		m.status = m.cameraStatus()
	case "up":
		s.PanBy(0, -2)
	case "down":
		s.PanBy(0, 2)
	case "left":
		s.PanBy(-4, 0)
	case "right":
		s.PanBy(4, 0)
	case "r":
		s.ResetView()
		m.status = "view reset"
	case "l":
		cmd := s.Reload()
		if cmd == nil {
			m.status = "power data already loaded"
		} else {
			m.status = "loading power data"
		}
		return cmd
	case "d":
		m.showDashboard = !m.showDashboard
	case "tab":
		m.showSidebar = !m.showSidebar
		if m.showSidebar {
			m.refreshFeatures()
		}
	case "a":
		m.showAttrs = !m.showAttrs
		if m.showAttrs {
			m.refreshAttrsFromCurrent()
		}
	case "h":
		m.helpVisible = !m.helpVisible
	case "esc":
		switch {
		case s.ClosePopup():
			m.status = "popup closed"
		case s.DismissBanner():
			m.status = "error dismissed"
		case m.showAttrs:
			m.showAttrs = false
		}
	case "enter":
		if m.showSidebar {
			if it, ok := m.l.SelectedItem().(featureItem); ok {
				s.FlyToFeature(it.f)
				m.status = "flew to " + it.title
			}
		}
	}
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	s := m.session
	x, y, inMap := m.mapCell(msg.X, msg.Y)
	switch {
	case msg.Button == tea.MouseButtonWheelUp && inMap:
		s.Wheel(x, y, wheelStep)
		m.status = m.cameraStatus()
	case msg.Button == tea.MouseButtonWheelDown && inMap:
		s.Wheel(x, y, -wheelStep)
		m.status = m.cameraStatus()
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && inMap:
		m.pressed = true
		return s.Press(x, y)
	case msg.Action == tea.MouseActionRelease:
		if m.pressed {
			m.pressed = false
			s.Release(x, y)
		}
	case msg.Action == tea.MouseActionMotion:
		if inMap || m.pressed {
			m.hovering = true
			s.Motion(x, y)
		} else if m.hovering {
			m.hovering = false
			s.Leave()
		}
	}
	if p, ok := s.HoverLngLat(); ok && m.hovering {
		m.hoverHasGeo = true
		m.hoverLon, m.hoverLat = p[0], p[1]
	} else {
		m.hoverHasGeo = false
	}
	return nil
}

func (m Model) cameraStatus() string {
	mp := m.session.Map()
	if mp == nil {
		return "map unavailable"
	}
	return fmt.Sprintf("zoom %.1f  bearing %.0f°", mp.Zoom(), mp.Bearing())
}
