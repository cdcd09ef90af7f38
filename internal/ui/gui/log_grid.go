//go:build !headless

package gui

import (
	"image/color"
	"strconv"
	"strings"
	"unicode/utf8"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
	"github.com/charmbracelet/x/ansi"
)

var (
	logDefaultFG = color.NRGBA{R: 220, G: 220, B: 220, A: 255}
	logDefaultBG = color.NRGBA{R: 0, G: 0, B: 0, A: 255}

	// logPalette is the 16-colour table lipgloss falls back to on basic
	// terminals; indexes 8-15 are the bright variants.
	logPalette = [16]color.NRGBA{
		{0, 0, 0, 255}, {205, 49, 49, 255}, {13, 188, 121, 255}, {229, 229, 16, 255},
		{36, 114, 200, 255}, {188, 63, 188, 255}, {17, 168, 205, 255}, {229, 229, 229, 255},
		{102, 102, 102, 255}, {241, 76, 76, 255}, {35, 209, 139, 255}, {245, 245, 67, 255},
		{59, 142, 234, 255}, {214, 112, 214, 255}, {41, 184, 219, 255}, {255, 255, 255, 255},
	}
	cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

	gridStyles = map[gridPen]*widget.CustomTextGridStyle{}
)

// gridPen is the SGR state in effect for the next cell. A zero-alpha colour
// means the grid default.
type gridPen struct {
	fg      color.NRGBA
	bg      color.NRGBA
	bold    bool
	faint   bool
	inverse bool
}

func splitLogLines(input string) []string {
	lines := strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

func stripANSIText(input string) string {
	return ansi.Strip(input)
}

func wrapANSILines(lines []string, columns int) []string {
	if columns <= 1 {
		return append([]string(nil), lines...)
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, splitLogLines(ansi.Wrap(line, columns, ""))...)
	}
	return out
}

// textGridRow converts one line with SGR escapes into styled grid cells.
// Escapes other than SGR are dropped.
func textGridRow(line string) widget.TextGridRow {
	row := widget.TextGridRow{Cells: make([]widget.TextGridCell, 0, len(line))}
	pen := gridPen{}
	for len(line) > 0 {
		if strings.HasPrefix(line, "\x1b[") {
			if end := strings.IndexFunc(line[2:], isCSIFinal); end >= 0 {
				if line[2+end] == 'm' {
					pen = pen.apply(sgrParams(line[2 : 2+end]))
				}
				line = line[3+end:]
				continue
			}
		}
		r, size := utf8.DecodeRuneInString(line)
		if r == utf8.RuneError && size == 1 {
			r = rune(line[0])
		}
		row.Cells = append(row.Cells, widget.TextGridCell{Rune: r, Style: pen.style()})
		line = line[size:]
	}
	if len(row.Cells) == 0 {
		row.Cells = append(row.Cells, widget.TextGridCell{Rune: ' ', Style: pen.style()})
	}
	return row
}

func isCSIFinal(r rune) bool {
	return r >= 0x40 && r <= 0x7e
}

// sgrParams parses "1;38;5;208" style parameters. Colon separators are
// treated like semicolons; an empty list means reset.
func sgrParams(seq string) []int {
	if seq == "" {
		return []int{0}
	}
	fields := strings.FieldsFunc(seq, func(r rune) bool { return r == ';' || r == ':' })
	params := make([]int, 0, len(fields))
	for _, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil {
			n = -1
		}
		params = append(params, n)
	}
	return params
}

func (p gridPen) apply(params []int) gridPen {
	for i := 0; i < len(params); i++ {
		switch code := params[i]; {
		case code == 0:
			p = gridPen{}
		case code == 1:
			p.bold = true
		case code == 2:
			p.faint = true
		case code == 22:
			p.bold, p.faint = false, false
		case code == 7:
			p.inverse = true
		case code == 27:
			p.inverse = false
		case code >= 30 && code <= 37:
			p.fg = logPalette[code-30]
		case code >= 90 && code <= 97:
			p.fg = logPalette[code-90+8]
		case code == 39:
			p.fg = color.NRGBA{}
		case code >= 40 && code <= 47:
			p.bg = logPalette[code-40]
		case code >= 100 && code <= 107:
			p.bg = logPalette[code-100+8]
		case code == 49:
			p.bg = color.NRGBA{}
		case code == 38 || code == 48:
			c, used, ok := extendedColor(params[i+1:])
			if !ok {
				continue
			}
			i += used
			if code == 38 {
				p.fg = c
			} else {
				p.bg = c
			}
		}
	}
	return p
}

// extendedColor reads the arguments after 38/48: "5;idx" or "2;r;g;b".
func extendedColor(args []int) (color.NRGBA, int, bool) {
	switch {
	case len(args) >= 2 && args[0] == 5:
		return xterm256(args[1]), 2, true
	case len(args) >= 4 && args[0] == 2:
		return color.NRGBA{R: channel(args[1]), G: channel(args[2]), B: channel(args[3]), A: 255}, 4, true
	}
	return color.NRGBA{}, 0, false
}

func channel(v int) uint8 {
	return uint8(min(max(v, 0), 255))
}

func xterm256(index int) color.NRGBA {
	index = min(max(index, 0), 255)
	switch {
	case index < 16:
		return logPalette[index]
	case index < 232:
		c := index - 16
		return color.NRGBA{R: cubeLevels[c/36], G: cubeLevels[c/6%6], B: cubeLevels[c%6], A: 255}
	default:
		v := uint8(8 + (index-232)*10)
		return color.NRGBA{R: v, G: v, B: v, A: 255}
	}
}

// style returns the shared grid style for the pen. Only called on the UI
// thread, so the cache needs no lock.
func (p gridPen) style() widget.TextGridStyle {
	if cached, ok := gridStyles[p]; ok {
		return cached
	}
	fg, bg := logDefaultFG, logDefaultBG
	if p.fg.A != 0 {
		fg = p.fg
	}
	if p.bg.A != 0 {
		bg = p.bg
	}
	if p.inverse {
		fg, bg = bg, fg
	}
	if p.faint {
		fg = color.NRGBA{R: fg.R / 10 * 7, G: fg.G / 10 * 7, B: fg.B / 10 * 7, A: fg.A}
	}
	style := &widget.CustomTextGridStyle{
		FGColor:   fg,
		BGColor:   bg,
		TextStyle: fyne.TextStyle{Bold: p.bold, Monospace: true},
	}
	gridStyles[p] = style
	return style
}
