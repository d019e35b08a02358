package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/batchlabel/internal/batch"
	"github.com/kingrea/batchlabel/internal/dates"
	"github.com/kingrea/batchlabel/internal/labelplan"
	"github.com/kingrea/batchlabel/internal/render"
)

var (
	labelStyleReady   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	labelStyleBlocked = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	labelStyleRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	labelStyleGate    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	labelStyleSkipped = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	labelStyleDefault = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	detailTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	panelTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	boxStyle          = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#444444")).
				Padding(0, 1)
)

var fieldTitles = [fieldCount]string{
	fieldCode:       "WIP Code",
	fieldMix:        "Mix Name",
	fieldPrep:       "Prep Date",
	fieldSupervisor: "Supervisor",
	fieldQuantity:   "QA Quantity (kg)",
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	rightWidth := max(32, width/3)
	leftWidth := width - rightWidth - 4
	if leftWidth < 40 {
		leftWidth = width - 4
		rightWidth = 0
	}

	var main string
	switch a.state {
	case stateSupervisorSelect:
		main = a.renderSupervisorSelection()
	default:
		main = a.renderForm(leftWidth - 4)
	}
	leftBox := boxStyle.Width(max(20, leftWidth)).Render(main)
	body := leftBox
	if rightWidth > 0 {
		right := lipgloss.JoinVertical(lipgloss.Left,
			a.renderStats(rightWidth-4),
			"",
			a.renderHistory(rightWidth-4),
		)
		rightBox := boxStyle.Width(max(20, rightWidth)).Render(right)
		body = lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, leftBox, boxStyle.Render(a.renderStats(leftWidth-4)))
	}

	sections := []string{a.renderHeader(), body}
	if preview := a.renderLabelPreview(); preview != "" {
		sections = append(sections, preview)
	}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, a.renderFooter())
	return strings.Join(sections, "\n")
}

func (a *App) renderHeader() string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render(fmt.Sprintf("⬡ BATCHLABEL %s", a.version))
}

func (a *App) renderForm(width int) string {
	derived := a.session.Derived()
	var rows []string
	for i := fieldCode; i < fieldCount; i++ {
		title := fieldTitles[i]
		if i == a.focus {
			title = labelStyleRunning.Render("› " + title)
		} else {
			title = labelStyleDefault.Render("  " + title)
		}
		line := fmt.Sprintf("%-20s %s", title, a.inputs[i].View())
		if extra := a.fieldAnnotation(i, derived); extra != "" {
			line += "  " + extra
		}
		rows = append(rows, line)
		if i == fieldCode && a.focus == fieldCode {
			if options := a.suggestions(); len(options) > 0 {
				rows = append(rows, detailTextStyle.Render("     ctrl+f → "+strings.Join(options, "  ")))
			}
		}
		if i == fieldQuantity {
			rows = append(rows, detailTextStyle.Render(fmt.Sprintf(
				"     Range: %gkg - %gkg · 1 label / %gkg",
				labelplan.MinKg, labelplan.MaxKg, labelplan.KgPerLabel,
			)))
		}
	}
	if derived.Plan.Warning != "" {
		rows = append(rows, "", labelStyleBlocked.Render("⚠ "+derived.Plan.Warning))
	}
	rows = append(rows, "", a.renderSubmitState())
	return lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(rows, "\n"))
}

func (a *App) fieldAnnotation(f field, derived batch.Derived) string {
	switch f {
	case fieldMix:
		if a.session.Resolving() {
			return a.spinner.View() + labelStyleRunning.Render(" Resolving…")
		}
		if derived.KnownCode {
			return labelStyleReady.Render("Auto-Matched")
		}
		label := labelStyleSkipped.Render("Manual Entry")
		if a.session.OfferResolve() {
			label += "  " + labelStyleGate.Render("ctrl+a Auto")
		}
		return label
	case fieldPrep:
		if strings.TrimSpace(a.session.Form().PrepDate) != "" && !derived.HasUseBy {
			return labelStyleBlocked.Render("invalid date")
		}
	case fieldSupervisor:
		if a.focus == fieldSupervisor {
			return detailTextStyle.Render("enter → pick")
		}
	}
	return ""
}

func (a *App) renderSubmitState() string {
	switch a.session.State() {
	case batch.StateReady:
		return labelStyleReady.Render("READY") + detailTextStyle.Render("  ctrl+p / enter → print labels")
	case batch.StateSubmitted:
		if a.printing {
			return labelStyleRunning.Render("PRINTING")
		}
		return labelStyleReady.Render("SUBMITTED") + detailTextStyle.Render("  edit any field for the next batch")
	default:
		if a.session.Resolving() {
			return labelStyleGate.Render("WAITING FOR NAME LOOKUP")
		}
		return labelStyleSkipped.Render("EDITING")
	}
}

func (a *App) renderStats(width int) string {
	derived := a.session.Derived()
	useBy := derived.UseByDisplay()
	if useBy == "" {
		useBy = "--"
	}
	count := "--"
	if derived.Plan.LabelCount > 0 {
		count = strconv.Itoa(derived.Plan.LabelCount)
	}
	lines := []string{
		panelTitleStyle.Render("Use By"),
		labelStyleDefault.Render(useBy),
		detailTextStyle.Render(fmt.Sprintf("shelf life %d day(s)", a.session.ShelfLifeDays())),
		"",
		panelTitleStyle.Render("Labels To Print"),
		labelStyleDefault.Render(count),
	}
	return lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(lines, "\n"))
}

func (a *App) renderHistory(width int) string {
	history := a.session.History()
	title := panelTitleStyle.Render(fmt.Sprintf("Recent Batches (%d)", len(history)))
	if len(history) == 0 {
		note := detailTextStyle.Render("No batches printed this session.")
		return lipgloss.JoinVertical(lipgloss.Left, title, note)
	}
	var rows []string
	for i, rec := range history {
		if i == historyLimit {
			rows = append(rows, detailTextStyle.Render(fmt.Sprintf("+%d earlier", len(history)-historyLimit)))
			break
		}
		rows = append(rows, renderHistoryItem(rec, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n"))
}

func renderHistoryItem(rec batch.Record, width int) string {
	line1 := fmt.Sprintf("%s · %s", rec.WipCode, rec.MixName)
	line2 := fmt.Sprintf("%skg · %d label(s) · %s",
		strconv.FormatFloat(rec.QAQuantity, 'f', -1, 64),
		rec.LabelCount,
		dates.FormatDisplay(dates.Date(rec.CreatedAt)),
	)
	return lipgloss.NewStyle().Width(max(20, width)).Render(
		labelStyleDefault.Render(line1) + "\n" + detailTextStyle.Render(line2),
	)
}

func (a *App) renderSupervisorSelection() string {
	view := a.supervisorMenu.View()
	if strings.TrimSpace(view) == "" {
		view = "No supervisors configured"
	}
	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		MarginTop(1).
		Render("Enter → select    Esc → cancel")
	return lipgloss.JoinVertical(lipgloss.Left, view, hint)
}

func (a *App) renderLabelPreview() string {
	labels := a.spool.Visible()
	if len(labels) == 0 {
		return ""
	}
	shown := labels
	if len(shown) > previewLimit {
		shown = shown[:previewLimit]
	}
	cards := make([]string, 0, len(shown))
	for _, l := range shown {
		cards = append(cards, render.Text(l))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	head := panelTitleStyle.Render(fmt.Sprintf("LABELS · %d copy(ies)", len(labels)))
	if more := len(labels) - len(shown); more > 0 {
		head += detailTextStyle.Render(fmt.Sprintf("  +%d more", more))
	}
	return boxStyle.Render(head + "\n" + row)
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logLines)
	if len(lines) == 0 {
		return ""
	}
	head := panelTitleStyle.Render(fmt.Sprintf("LOG · %d entries", total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return boxStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) renderFooter() string {
	keys := "tab/↑↓ move · enter next/print · ctrl+a auto name · ctrl+p print · ctrl+c quit"
	if a.state == stateSupervisorSelect {
		keys = "↑↓ choose · enter select · esc cancel"
	}
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render(a.statusMsg)
	help := detailTextStyle.Faint(true).Render(keys)
	return lipgloss.NewStyle().MarginTop(1).Render(status + "\n" + help)
}
