package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizrag/internal/ui/theme"
)

// ProgressBar shows how far through the quiz the user is.
type ProgressBar struct {
	Current int
	Total   int
	Width   int
}

// NewProgressBar creates a bar for question current (1-based) of total.
func NewProgressBar(current, total, width int) ProgressBar {
	return ProgressBar{Current: current, Total: total, Width: width}
}

// Percent returns the completed fraction in [0, 1].
func (p ProgressBar) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return min(max(float64(p.Current)/float64(p.Total), 0), 1)
}

// View renders "Question i/n" followed by the bar.
func (p ProgressBar) View() string {
	label := lipgloss.NewStyle().
		Foreground(theme.Text).
		Render(fmt.Sprintf("Question %d/%d", p.Current, p.Total)) + "  "

	barWidth := max(p.Width-lipgloss.Width(label), 4)
	filled := int(float64(barWidth) * p.Percent())
	empty := barWidth - filled

	return label +
		theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", empty))
}
