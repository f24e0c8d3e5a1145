package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	lay := m.layout()

	// Header
	title := " gridmap ─ Overland Park power grid "
	if m.session.Loading() {
		title += "─ loading "
	}
	header := lipgloss.NewStyle().Width(lay.contentW).Padding(0).Render(titleStyle.Render(title))

	// Error banner
	banner := ""
	if b, ok := m.session.Banner(); ok {
		msg := " " + b.Message
		if b.Dismissible {
			msg += "  (esc to dismiss)"
		}
		style := bannerStyle
		if b.Dismissible {
			style = noticeStyle
		}
		banner = style.Width(lay.contentW).Render(truncate(msg, lay.contentW))
	}

	// Sidebar
	var sidebar string
	if m.showSidebar {
		sidebar = lipgloss.NewStyle().Width(sidebarWidth).Height(lay.contentH).Render(m.l.View())
	}

	// Map viewport
	var mapView string
	if m.showAttrs {
		// Render attributes table centered in the map area
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		if colW == 0 {
			colW = min(60, lay.contentW-6)
		}
		maxW := min(lay.mapW, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(lay.mapH-2, 20))
		attrsBox := boxStyle.Width(maxW).Render(m.tbl.View())
		mapView = lipgloss.Place(lay.mapW, lay.mapH, lipgloss.Center, lipgloss.Center, attrsBox)
	} else {
		mapView = lipgloss.NewStyle().Width(lay.mapW).Height(lay.mapH).Render(m.session.View())
	}

	// Right panel: popup first, dashboard otherwise
	var panel string
	if p, ok := m.session.Popup(); ok {
		panel = renderPopup(p, lay.panelW, lay.contentH)
	} else if m.showDashboard {
		panel = m.renderDashboard(lay.panelW, lay.contentH)
	}

	// Body row
	parts := []string{}
	if m.showSidebar {
		parts = append(parts, sidebar, " ")
	}
	parts = append(parts, mapView)
	if panel != "" {
		parts = append(parts, lipgloss.NewStyle().Width(lay.panelW).Height(lay.contentH).Render(panel))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, parts...)

	// Footer / help
	help := m.renderHelp()
	status := dimStyle.Render(" " + m.status + " ")
	// mouse coords at bottom-right
	coords := ""
	if m.hoverHasGeo {
		coords = dimStyle.Render(fmt.Sprintf("  lon=%.5f lat=%.5f  ", m.hoverLon, m.hoverLat))
	}
	left := lipgloss.JoinHorizontal(lipgloss.Bottom, status, help)
	spacerW := max(0, lay.contentW-lipgloss.Width(left)-lipgloss.Width(coords))
	right := lipgloss.Place(spacerW+lipgloss.Width(coords), 1, lipgloss.Right, lipgloss.Center, coords)
	footer := lipgloss.NewStyle().Width(lay.contentW).MaxHeight(footerHeight).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, left, right))

	rows := []string{header}
	if banner != "" {
		rows = append(rows, banner)
	}
	rows = append(rows, body, footer)
	ui := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return appStyle.Width(lay.contentW).Height(m.height).MaxHeight(m.height).Render(ui)
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	keys := []string{
		"1/2/3 layers",
		"f flow",
		"↑↓←→ pan",
		"+/- zoom",
		"[ ] rotate",
		"r reset",
		"d dashboard",
		"Tab features",
		"a attrs",
		"l reload",
		"esc close",
		"h help",
		"q quit",
	}
	return dimStyle.Render("  " + strings.Join(keys, "  "))
}
