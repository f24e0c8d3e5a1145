package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gridmap/internal/geom"
	"gridmap/internal/powermap"
)

const dashboardAbout = "Overland Park's power grid: high voltage transmission carries bulk power between substations, distribution lines feed neighbourhoods, transformers step voltage down for homes and businesses."

// renderDashboard draws the stats, legend and toggle panel.
func (m Model) renderDashboard(w, h int) string {
	inner := w - 4
	var b strings.Builder
	b.WriteString(titleStyle.Render("Overland Park Power Grid"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Width(inner).Render(dashboardAbout))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Statistics"))
	b.WriteString("\n")
	if st, ok := m.session.Stats(); ok {
		b.WriteString(statsLines(st, inner))
	} else if m.session.Loading() {
		b.WriteString(dimStyle.Render("Loading power data..."))
	} else {
		b.WriteString(dimStyle.Render("No data yet"))
	}
	b.WriteString("\n\n")

	v := m.session.Visibility()
	b.WriteString(labelStyle.Render("Layers"))
	b.WriteString("\n")
	b.WriteString(toggleLine("1", transmissionStyle.Render("━━"), "Transmission", v.Transmission))
	b.WriteString(toggleLine("2", distributionStyle.Render("──"), "Distribution", v.Distribution))
	b.WriteString(toggleLine("3", transformerStyle.Render("●"), "Transformers", v.Transformers))
	b.WriteString(toggleLine("f", dimStyle.Render("╌╌"), "Flow animation", v.Flow))
	b.WriteString("   " + boundaryStyle.Render("──") + " City boundary\n")
	return boxStyle.Width(w - 2).MaxHeight(h).Render(strings.TrimRight(b.String(), "\n"))
}

func statsLines(st geom.Stats, w int) string {
	rows := [][2]string{
		{"Transmission", fmt.Sprintf("%.2f mi", st.TransmissionMiles)},
		{"Distribution", fmt.Sprintf("%.2f mi", st.DistributionMiles)},
		{"Transformers", fmt.Sprintf("%d", st.Transformers())},
	}
	if st.HighestVoltage != nil {
		rows = append(rows, [2]string{"Highest voltage", geom.FormatVoltage(*st.HighestVoltage)})
	}
	if st.LowestVoltage != nil {
		rows = append(rows, [2]string{"Lowest voltage", geom.FormatVoltage(*st.LowestVoltage)})
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		gap := max(1, w-lipgloss.Width(r[0])-lipgloss.Width(r[1]))
		lines[i] = r[0] + strings.Repeat(" ", gap) + r[1]
	}
	return strings.Join(lines, "\n")
}

func toggleLine(key, swatch, label string, on bool) string {
	box := "[ ]"
	if on {
		box = "[x]"
	}
	return fmt.Sprintf("%s %s %s %s\n", dimStyle.Render(key), box, swatch, label)
}

// renderPopup draws the clicked feature's details.
func renderPopup(p powermap.Popup, w, h int) string {
	title := titleStyle.Render(p.Title)
	switch p.Category {
	case geom.Transmission:
		title = transmissionStyle.Bold(true).Render("⚡ " + p.Title)
	case geom.Distribution:
		title = distributionStyle.Bold(true).Render(p.Title)
	case geom.Transformer:
		title = transformerStyle.Bold(true).Render("⚡ " + p.Title)
	}
	inner := w - 4
	lines := []string{title}
	for _, l := range p.Lines() {
		lines = append(lines, truncate(l, inner))
	}
	lines = append(lines, "", dimStyle.Render(fmt.Sprintf("%.5f, %.5f  esc close", p.At[1], p.At[0])))
	return boxStyle.Width(w - 2).MaxHeight(h).Render(strings.Join(lines, "\n"))
}
