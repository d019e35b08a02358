package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/batchlabel/internal/batch"
)

// TextWidth is the inner width of a text card.
const TextWidth = 34

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			Width(TextWidth)
	codeStyle = lipgloss.NewStyle().Bold(true)
	mixStyle  = lipgloss.NewStyle().Bold(true)
	metaStyle = lipgloss.NewStyle().Faint(true)
)

// Text renders one label as a bordered card.
func Text(l batch.LabelDescriptor) string {
	f := FieldsFor(l)
	inner := TextWidth - 2
	top := spread(codeStyle.Render(f.Code), "USE BY "+f.UseBy, inner)
	rule := strings.Repeat("─", inner)
	mix := mixStyle.Width(inner).Render(f.MixName)
	bottom := spread(
		metaStyle.Render(fmt.Sprintf("PREP %s  SUP %s", f.PrepDate, f.Supervisor)),
		f.Copy,
		inner,
	)
	id := metaStyle.Render("ID:" + f.ShortID)
	return cardStyle.Render(strings.Join([]string{top, rule, mix, rule, bottom, id}, "\n"))
}

// TextSheet renders every label, one card after another.
func TextSheet(labels []batch.LabelDescriptor) string {
	cards := make([]string, 0, len(labels))
	for _, l := range labels {
		cards = append(cards, Text(l))
	}
	return strings.Join(cards, "\n")
}

func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
