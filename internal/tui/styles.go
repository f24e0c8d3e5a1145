package tui

import (
	"github.com/charmbracelet/lipgloss"

	"gridmap/internal/powermap"
)

// Styles
var (
	baseFg    = lipgloss.Color("#E6E6E6")
	baseDimFg = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	accentFg  = lipgloss.Color("#38BDF8")
	borderCol = lipgloss.Color("#243141")
	errorBg   = lipgloss.Color("#7F1D1D")
	warnBg    = lipgloss.Color("#78350F")

	appStyle    = lipgloss.NewStyle().Foreground(baseFg)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(baseDimFg)
	labelStyle  = lipgloss.NewStyle().Bold(true)
	bannerStyle = lipgloss.NewStyle().Foreground(baseFg).Background(errorBg).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(baseFg).Background(warnBg)

	transmissionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(powermap.ColorTransmission))
	distributionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(powermap.ColorDistribution))
	transformerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(powermap.ColorTransformer))
	boundaryStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(powermap.ColorBoundary))
)
