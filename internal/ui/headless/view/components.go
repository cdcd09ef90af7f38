package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"

	"printwatch/internal/actionlog"
	"printwatch/internal/ui/headless/theme"
	"printwatch/internal/ui/health"
)

const (
	statusIdle = iota
	statusStarting
	statusWatching
	statusStopping
	statusError
)

const (
	minComponentWidth = 1
	scrollbarMinThumb = 0
)

func RenderTabs(activeTab int, hoverZone string) string {
	overview := theme.TabInactiveStyle.Render(" Overview ")
	settings := theme.TabInactiveStyle.Render(" Settings ")
	if hoverZone == zoneTabOverview {
		overview = theme.TabHoverStyle.Render(" Overview ")
	}
	if hoverZone == zoneTabSettings {
		settings = theme.TabHoverStyle.Render(" Settings ")
	}
	if activeTab == TabOverview {
		overview = theme.TabActiveStyle.Render(" Overview ")
	}
	if activeTab == TabSettings {
		settings = theme.TabActiveStyle.Render(" Settings ")
	}

	overview = zone.Mark(zoneTabOverview, overview)
	settings = zone.Mark(zoneTabSettings, settings)

	return lipgloss.JoinHorizontal(lipgloss.Bottom, overview, settings)
}

func RenderStatus(status string, kind int) string {
	switch kind {
	case statusWatching:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(status)
	case statusStarting:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Render(status)
	case statusStopping:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render(status)
	case statusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(status)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(status)
	}
}

func RenderActionsRow(segments []string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = minComponentWidth
	}
	lines := make([]string, 0, len(segments))
	rowParts := make([]string, 0, len(segments))
	joinRow := func(parts []string) string {
		if len(parts) == 0 {
			return ""
		}
		row := parts[0]
		for i := 1; i < len(parts); i++ {
			row = lipgloss.JoinHorizontal(lipgloss.Top, row, " ", parts[i])
		}
		return row
	}
	for _, seg := range segments {
		if len(rowParts) == 0 {
			rowParts = append(rowParts, seg)
			continue
		}
		candidateParts := append(append([]string(nil), rowParts...), seg)
		candidate := joinRow(candidateParts)
		if lipgloss.Width(candidate) <= maxWidth {
			rowParts = candidateParts
			continue
		}
		lines = append(lines, joinRow(rowParts))
		rowParts = []string{seg}
	}
	if len(rowParts) > 0 {
		lines = append(lines, joinRow(rowParts))
	}
	return strings.Join(lines, "\n")
}

func RuleDotStyle(kind health.Kind) (string, lipgloss.Style) {
	dot := "●"
	switch kind {
	case health.Active:
		return dot, lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	case health.Warn:
		return dot, lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	case health.Stale:
		return dot, lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	default:
		return dot, lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	}
}

// RecordLine colours a record by how far its pipeline got.
func RecordLine(entry actionlog.Entry) string {
	return styleRecord(strings.TrimSuffix(entry.Line(), "\n"), entry.Status())
}

// StoredRecordLine colours a line read back from a day file.
func StoredRecordLine(line string) string {
	return styleRecord(line, actionlog.LineStatus(line))
}

func styleRecord(line string, status actionlog.Status) string {
	switch status {
	case actionlog.StatusPrinted:
		return theme.RecordOKStyle.Render(line)
	case actionlog.StatusFailed:
		return theme.RecordFailedStyle.Render(line)
	default:
		return theme.RecordPartialStyle.Render(line)
	}
}

func WithScrollBar(content string, width int, height int, percent float64) string {
	if height <= 0 {
		return content
	}
	width = max(width, minComponentWidth)
	lines := strings.Split(content, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}

	thumb := int(percent * float64(height-1))
	thumb = max(thumb, scrollbarMinThumb)
	if thumb >= height {
		thumb = height - 1
	}
	barInactive := lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render("┊")
	barActive := lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Render("▯")

	out := make([]string, 0, height)
	for i := range height {
		bar := barInactive
		if i == thumb {
			bar = barActive
		}
		text := ansi.Cut(lines[i], 0, width)
		if pad := width - ansi.StringWidth(text); pad > 0 {
			text += strings.Repeat(" ", pad)
		}
		out = append(out, text+" "+bar)
	}
	return strings.Join(out, "\n")
}
