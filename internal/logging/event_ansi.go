package logging

import (
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var forceLipglossColorOnce sync.Once

func ensureLipglossColorOutput() {
	forceLipglossColorOnce.Do(func() {
		lipgloss.SetColorProfile(termenv.TrueColor)
	})
}

var (
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	messageStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	fieldKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	fieldValStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	fieldErrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	fieldSepStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	blockStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("245")).Padding(0, 1)
)

// FormatEventANSI renders one event with terminal colors. The TUI and GUI log
// panes feed this output through their own ANSI handling.
func FormatEventANSI(event Event) string {
	ensureLipglossColorOutput()
	levelLabel, levelStyle := levelBadge(event.Level)
	line := lipgloss.JoinHorizontal(lipgloss.Center,
		timestampStyle.Render(event.Time.Format("15:04:05.000")),
		" ",
		levelStyle.Render(levelLabel),
		" ",
		messageStyle.Render(event.Message),
	)
	if len(event.Fields) == 0 {
		return line + "\n"
	}

	keys := orderedFieldKeys(event.Fields)
	parts := make([]string, 0, len(keys))
	blocks := make([]string, 0)
	for _, key := range keys {
		value := event.Fields[key]
		if pretty, ok := prettyJSONString(value); ok {
			blocks = append(blocks, fieldKeyStyle.Render(key)+fieldSepStyle.Render("=")+"\n"+blockStyle.Render(pretty))
			continue
		}
		valStyle := fieldValStyle
		if key == "error" {
			valStyle = fieldErrStyle
		}
		parts = append(parts, fieldKeyStyle.Render(key)+fieldSepStyle.Render("=")+valStyle.Render(formatFieldValue(value)))
	}
	if len(parts) > 0 {
		line += "  " + strings.Join(parts, " ")
	}
	for _, block := range blocks {
		line += "\n  " + block
	}
	return line + "\n"
}
