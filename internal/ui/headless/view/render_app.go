package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"

	"printwatch/internal/ui/headless/render"
	"printwatch/internal/ui/headless/theme"
	"printwatch/internal/ui/health"
)

type Runtime struct {
	BuildVersion string
	Running      bool
	Starting     bool
	Stopping     bool
	Status       string
	StatusKind   int
	Rules        []health.Row
	HealthDetail string
	Archive      string
	RecordDir    string
	Printed      int
	Partial      int
	Failed       int
}

const (
	outerPaneGap               = 2
	frameInnerInset            = 4
	minOverviewLeftContent     = 12
	minOverviewLeftHeight      = 6
	minOverviewRemainingWidth  = 24
	rulePaneMinWidth           = 8
	rulePaneMinHeight          = 3
	ruleListMinWidth           = 10
	settingsLabelWidth         = 10
	settingsRowExtraCapacity   = 5
	settingsControlMinWidth    = 16
	settingsBrowsePaddingLeft  = settingsLabelWidth + 1
	dialogHorizontalInset      = 8
	quitDialogWidth            = 72
	errorDialogWidth           = 78
	filePickerDialogMaxWidth   = 96
	leftFrameExtraWidth        = 6
	leftFrameMinWidth          = 24
	rightPaneMinWidth          = 32
	sideBySideMinTotalWidth    = 84
	paneInnerMinWidth          = 1
	defaultOverviewPaneHeight  = 8
	largeOverviewPaneHeight    = 10
	largeOverviewHeightCutover = 36
	settingsHeightPadding      = 4
	settingsPaneMinHeight      = 12
)

func RenderApp(state *State, rt Runtime) string {
	if state.Width == 0 {
		return "initializing..."
	}

	base := renderBase(state, rt)
	if state.FilePickerOpen {
		return renderModalOverlay(state, base, renderFilePickerDialog(state))
	}
	if state.ErrorModalText != "" {
		return renderModalOverlay(state, base, renderErrorDialog(state))
	}
	if state.ConfirmQuit {
		return renderModalOverlay(state, base, renderQuitConfirmDialog(state))
	}
	return base
}

func renderBase(state *State, rt Runtime) string {
	header := theme.TitleStyle.Render("printwatch (" + rt.BuildVersion + ")")
	tabs := RenderTabs(state.Tab, state.HoverZone)

	var content string
	if state.Tab == TabOverview {
		content = renderOverview(state, rt)
	} else {
		content = renderSettings(state)
	}

	helpText := state.HelpView.View(state.Keys)
	if state.Tab == TabSettings {
		helpText += " • ctrl+s save"
	}

	sections := []string{header, tabs, content}
	if state.Tab == TabOverview {
		state.FitPanelViewportHeight([]string{header, tabs, content, helpText}, DefaultNonPanelLayoutReserveMin, DefaultMinPanelHeight)
		sections = append(sections, renderBottomPanel(state))
	}

	sections = append(sections, theme.HelpStyle.Render(helpText))
	return renderFrame(strings.Join(sections, "\n\n"), state.ContentWidth())
}

func renderFrame(content string, width int) string {
	return render.Frame(content, width, theme.PanelStyle)
}

func renderOverview(state *State, rt Runtime) string {
	total := state.PageWidth()
	ResizePaneViewports(state, rt)

	leftWidth, rightWidth, stacked := overviewPaneLayout(total, overviewLeftFrameWidth(state, rt, total))
	leftRenderWidth := leftWidth
	if stacked {
		leftRenderWidth = total
	}

	leftContentWidth := leftRenderWidth - frameInnerInset
	if leftContentWidth <= 0 {
		leftContentWidth = state.LeftView.Width
	}
	if leftContentWidth > outerPaneGap {
		leftContentWidth -= outerPaneGap
	}
	leftContentWidth = max(leftContentWidth, minOverviewLeftContent)
	state.LeftView.Width = leftContentWidth

	summary := renderSummary(rt, leftContentWidth)
	actionsLine := renderActionsRowState(state, rt, leftContentWidth)
	requiredLeftHeight := max(lipgloss.Height(summary)+outerPaneGap+lipgloss.Height(actionsLine), minOverviewLeftHeight)
	if state.LeftView.Height < requiredLeftHeight {
		state.LeftView.Height = requiredLeftHeight
	}
	if !stacked && state.RightView.Height < requiredLeftHeight {
		state.RightView.Height = requiredLeftHeight
	}

	state.LeftView.SetContent(strings.Join([]string{summary, actionsLine}, "\n\n"))
	left := renderFrame(state.LeftView.View(), leftRenderWidth)

	if stacked {
		state.RightView.SetContent(renderRulePanelBody(rt, total-frameInnerInset, state.RightView.Height))
		right := renderFrame(state.RightView.View(), rightWidth)
		return lipgloss.NewStyle().Width(total).Render(left + "\n\n" + right)
	}

	remaining := max(total-lipgloss.Width(left)-outerPaneGap, minOverviewRemainingWidth)
	state.RightView.SetContent(renderRulePanelBody(rt, remaining-frameInnerInset, state.RightView.Height))
	right := renderFrame(state.RightView.View(), remaining)
	layout := lipgloss.JoinHorizontal(lipgloss.Top, left, strings.Repeat(" ", outerPaneGap), right)
	return lipgloss.NewStyle().Width(total).Render(layout)
}

func renderSummary(rt Runtime, width int) string {
	lines := []string{
		"Status: " + RenderStatus(rt.Status, rt.StatusKind),
		fmt.Sprintf("Today: %s %s %s",
			theme.RecordOKStyle.Render(fmt.Sprintf("%d printed", rt.Printed)),
			theme.RecordPartialStyle.Render(fmt.Sprintf("%d partial", rt.Partial)),
			theme.RecordFailedStyle.Render(fmt.Sprintf("%d failed", rt.Failed)),
		),
	}
	if rt.Archive != "" {
		lines = append(lines, theme.MutedStyle.Render("Archive: "+render.TruncateLeft(rt.Archive, max(width-len("Archive: "), 1))))
	}
	return strings.Join(lines, "\n")
}

func renderActionsRowState(state *State, rt Runtime, maxWidth int) string {
	segments := []string{renderWatchToggle(state, rt), renderPanelButton(state), renderQuitButton(state)}
	return RenderActionsRow(segments, maxWidth)
}

func renderWatchToggle(state *State, rt Runtime) string {
	focused := state.Focus == state.ToggleIndex() && state.Tab == TabOverview
	hovered := state.HoverZone == zoneOverviewToggle

	start := theme.SegmentOffStyle.Render("Start")
	stop := theme.SegmentOffStyle.Render("Stop")
	switch {
	case rt.Starting:
		start = theme.SegmentOnStyle.Render("Starting...")
	case rt.Stopping:
		stop = theme.SegmentOnStyle.Render("Stopping...")
	case rt.Running:
		stop = theme.SegmentOnStyle.Render("Stop")
	default:
		start = theme.SegmentOnStyle.Render("Start")
	}
	content := start + theme.SegmentBaseStyle.Render("|") + stop

	style := theme.ButtonStyle
	if hovered {
		style = theme.ButtonHoverStyle
	}
	if focused {
		style = theme.ButtonFocusedStyle
	}
	return zone.Mark(zoneOverviewToggle, style.Render(content))
}

func renderPanelButton(state *State) string {
	label := "Logs"
	if state.ShowLogs {
		label = "Records"
	}
	return zone.Mark(zoneOverviewPanel, buttonStyle(state, state.PanelIndex(), zoneOverviewPanel).Render(label))
}

func renderQuitButton(state *State) string {
	return zone.Mark(zoneOverviewQuit, buttonStyle(state, state.QuitIndex(), zoneOverviewQuit).Render("Quit"))
}

func buttonStyle(state *State, index int, zoneID string) lipgloss.Style {
	if state.Focus == index {
		return theme.ButtonFocusedStyle
	}
	if state.HoverZone == zoneID {
		return theme.ButtonHoverStyle
	}
	return theme.ButtonStyle
}

func renderRulePanelBody(rt Runtime, width int, height int) string {
	header := theme.TitleStyle.Render("Monitor Rules")
	if len(rt.Rules) == 0 {
		placeholder := "Rules are loaded when watching starts"
		if rt.HealthDetail != "" {
			placeholder = rt.HealthDetail
		}
		width = max(width, rulePaneMinWidth)
		height = max(height, rulePaneMinHeight)
		content := lipgloss.NewStyle().
			Width(width).
			Height(height - 1).
			AlignHorizontal(lipgloss.Center).
			AlignVertical(lipgloss.Center).
			Foreground(lipgloss.Color("245")).
			Render(placeholder)
		return header + "\n" + content
	}

	lines := make([]string, 0, len(rt.Rules))
	width = max(width, ruleListMinWidth)
	for _, row := range rt.Rules {
		dot, style := RuleDotStyle(row.Kind)
		prefix := style.Render(dot) + " "
		target := row.Target
		if target == "" {
			target = "default printer"
		}
		suffix := theme.MutedStyle.Render(" -> " + target)
		available := max(width-ansi.StringWidth(prefix)-ansi.StringWidth(suffix), 1)
		lines = append(lines, prefix+render.TruncateLeft(row.Name, available)+suffix)
		if row.Kind != health.Active && row.Reason != "" {
			lines = append(lines, "  "+theme.HelpStyle.Render(render.TruncateDisplayWidth(row.Reason, max(width-2, 1))))
		}
	}

	body := strings.Join(lines, "\n")
	if rt.HealthDetail != "" {
		body += "\n" + theme.HelpStyle.Render(rt.HealthDetail)
	}
	return header + "\n" + body
}

func renderSettings(state *State) string {
	labels := []string{"Rules", "Archive", "Records"}
	labelWidth := settingsLabelWidth
	rows := make([]string, 0, len(state.Inputs)+settingsRowExtraCapacity)
	controlWidth := max(state.SettingsView.Width-labelWidth-outerPaneGap, settingsControlMinWidth)
	for i := range state.Inputs {
		label := labels[i]
		if state.Focus == i {
			label = theme.FocusStyle.Render("-> " + label)
		}
		state.Inputs[i].Width = controlWidth
		row := fmt.Sprintf("%-*s %s", labelWidth, label+":", state.Inputs[i].View())
		rows = append(rows, zone.Mark(zoneSettingsInput(i), row))
	}

	browseText := "Choose Folder"
	if state.PickingFile() {
		browseText = "Choose File"
	}
	browseButton := zone.Mark(zoneSettingsBrowse, buttonStyle(state, state.BrowseIndex(), zoneSettingsBrowse).Render(browseText))
	rows = append(rows, lipgloss.NewStyle().PaddingLeft(settingsBrowsePaddingLeft).Render(browseButton))

	auto := "[ ] Start watching on launch"
	if state.AutoStart {
		auto = "[x] Start watching on launch"
	}
	autoLabel := "Auto"
	if state.Focus == state.AutoStartIndex() {
		autoLabel = theme.FocusStyle.Render("-> Auto")
	}
	rows = append(rows, zone.Mark(zoneSettingsAutoStart, fmt.Sprintf("%-*s %s", labelWidth, autoLabel+":", auto)))

	saveLabel := renderDraftButton(state, "Save", state.SaveIndex())
	cancelLabel := renderDraftButton(state, "Cancel", state.CancelIndex())
	rows = append(rows, "")
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Left,
		zone.Mark(zoneSettingsSave, saveLabel), " ", zone.Mark(zoneSettingsCancel, cancelLabel)))
	if state.SettingsDirty {
		rows = append(rows, theme.HelpStyle.Render("unsaved changes; they apply the next time watching starts"))
	}

	state.SettingsView.SetContent(strings.Join(rows, "\n"))
	return renderFrame(state.SettingsView.View(), state.PageWidth())
}

func renderDraftButton(state *State, label string, index int) string {
	focused := state.Focus == index
	switch {
	case state.SettingsDirty && focused:
		return theme.ButtonFocusedStyle.Render(label)
	case state.SettingsDirty:
		return theme.ButtonStyle.Render(label)
	case focused:
		return theme.ButtonDisabledFocusedStyle.Render(label)
	default:
		return theme.ButtonDisabledStyle.Render(label)
	}
}

func renderBottomPanel(state *State) string {
	title := theme.TitleStyle.Render("Today's Records")
	parts := []string{title}
	if state.ShowLogs {
		check := "[ ] Debug"
		if state.DebugOn {
			check = "[x] Debug"
		}
		debug := zone.Mark(zoneOverviewDebug, buttonStyle(state, state.DebugIndex(), zoneOverviewDebug).Render(check))
		parts = []string{theme.TitleStyle.Render("Logs"), "  ", debug}
	}
	parts = append(parts, "  ", theme.HelpStyle.Render("ctrl+f follow"))
	toolbar := lipgloss.JoinHorizontal(lipgloss.Center, parts...)

	content := state.PanelView.View()
	if !state.ShowLogs && strings.TrimSpace(state.RecordText) == "" {
		content = theme.MutedStyle.Render("No files handled today.")
	}
	withBar := WithScrollBar(content, state.PanelView.Width, state.PanelView.Height, state.PanelView.ScrollPercent())
	return renderFrame(toolbar+"\n"+withBar, state.PageWidth())
}

func renderQuitConfirmDialog(state *State) string {
	cancelButton := theme.ButtonStyle.Render("Cancel")
	quitButton := theme.ButtonStyle.Render("Quit")
	if state.ConfirmQuitChoice == ConfirmQuitChoiceCancel {
		cancelButton = theme.ButtonFocusedStyle.Render("Cancel")
	} else {
		quitButton = theme.ButtonFocusedStyle.Render("Quit")
	}

	buttonRow := lipgloss.JoinHorizontal(lipgloss.Top,
		zone.Mark(zoneDialogQuitCancel, cancelButton), "  ", zone.Mark(zoneDialogQuitAccept, quitButton))
	dialogWidth := min(state.ContentWidth()-dialogHorizontalInset, quitDialogWidth)
	buttonLine := lipgloss.NewStyle().
		Width(max(dialogWidth-frameInnerInset, 1)).
		AlignHorizontal(lipgloss.Center).
		Render(buttonRow)

	body := strings.Join([]string{
		theme.TitleStyle.Render("Quit while watching?"),
		"The file being printed is finished; queued files are left in place.",
		buttonLine,
		theme.HelpStyle.Render("tab/arrow switch • enter confirms"),
	}, "\n")
	return renderFrame(body, dialogWidth)
}

func renderErrorDialog(state *State) string {
	body := strings.Join([]string{
		theme.ErrorStyle.Render("Error"),
		state.ErrorModalText,
		theme.HelpStyle.Render("Press Enter or Esc to close"),
	}, "\n")
	return renderFrame(body, min(state.ContentWidth()-dialogHorizontalInset, errorDialogWidth))
}

func renderFilePickerDialog(state *State) string {
	title := "Select Directory"
	if state.PickingFile() {
		title = "Select Rules File"
	}
	help := "up/down move • space open • enter select • left/backspace up • esc close"
	body := strings.Join([]string{theme.TitleStyle.Render(title), state.FilePicker.View(), theme.HelpStyle.Render(help)}, "\n")
	return renderFrame(body, min(state.PageWidth(), filePickerDialogMaxWidth))
}

func renderModalOverlay(state *State, base string, dialog string) string {
	faded := theme.ModalBackdrop.Render(base)
	overlay := lipgloss.Place(state.Width, state.Height, lipgloss.Center, lipgloss.Center, dialog)
	return faded + "\n" + overlay
}

func overviewLeftFrameWidth(state *State, rt Runtime, total int) int {
	summary := renderSummary(rt, 10_000)
	actionsLine := renderActionsRowState(state, rt, 10_000)
	leftInner := max(lipgloss.Width(summary), lipgloss.Width(actionsLine))
	leftWidth := max(leftInner+leftFrameExtraWidth, leftFrameMinWidth)
	return min(leftWidth, total)
}

func overviewPaneLayout(total int, leftWidth int) (int, int, bool) {
	rightWidth := total - leftWidth - outerPaneGap
	if total < sideBySideMinTotalWidth || rightWidth < rightPaneMinWidth {
		return leftWidth, total, true
	}
	return leftWidth, rightWidth, false
}

func ResizePaneViewports(state *State, rt Runtime) {
	total := state.PageWidth()
	leftWidth, rightWidth, stacked := overviewPaneLayout(total, overviewLeftFrameWidth(state, rt, total))
	if stacked {
		rightWidth = total
	}

	paneHeight := defaultOverviewPaneHeight
	if state.Height >= largeOverviewHeightCutover {
		paneHeight = largeOverviewPaneHeight
	}

	state.LeftView.Width = max(leftWidth-frameInnerInset, paneInnerMinWidth)
	state.LeftView.Height = paneHeight
	state.RightView.Width = max(rightWidth-frameInnerInset, paneInnerMinWidth)
	state.RightView.Height = paneHeight
	state.SettingsView.Width = max(total-frameInnerInset, paneInnerMinWidth)
	state.SettingsView.Height = max(settingsPaneMinHeight, paneHeight+settingsHeightPadding)
}
