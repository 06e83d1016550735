package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizrag/internal/mcq"
	"github.com/abhisek/quizrag/internal/ui/theme"
)

// MultiChoice renders one MCQ and lets the user pick an option with the
// arrow keys or by typing its label.
type MultiChoice struct {
	Question mcq.MCQ
	Labels   []string
	Selected int

	// Chosen is the submitted label, "" until the user submits.
	Chosen string
}

// NewMultiChoice creates a selector for q with the cursor on the first option.
func NewMultiChoice(q mcq.MCQ) MultiChoice {
	return MultiChoice{Question: q, Labels: q.Labels()}
}

// Submitted reports whether an option has been chosen.
func (m MultiChoice) Submitted() bool {
	return m.Chosen != ""
}

// Update handles navigation and selection. It is a no-op after submission.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Submitted() {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Labels)-1 {
			m.Selected++
		}
	case "enter", "space":
		if len(m.Labels) > 0 {
			m.Chosen = m.Labels[m.Selected]
		}
	default:
		label := strings.ToUpper(key)
		for i, l := range m.Labels {
			if l == label {
				m.Selected = i
				m.Chosen = l
			}
		}
	}

	return m, nil
}

// View renders the stem and the options. After submission the correct
// option is green and a wrong pick is red.
func (m MultiChoice) View() string {
	var b strings.Builder
	b.WriteString(theme.Question.Render(m.Question.Question))
	b.WriteString("\n\n")

	for i, label := range m.Labels {
		prefix := "  "
		if i == m.Selected && !m.Submitted() {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s.  %s", prefix, label, m.Question.Options[label])

		switch {
		case m.Submitted() && label == m.Question.Answer:
			line = theme.Correct.Render(line)
		case m.Submitted() && label == m.Chosen:
			line = theme.Incorrect.Render(line)
		case m.Submitted():
			line = theme.Faded.Render(line)
		case i == m.Selected:
			line = theme.Selected.Render(line)
		default:
			line = theme.Unselected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

// IsCorrect returns true if the user chose the correct answer.
func (m MultiChoice) IsCorrect() bool {
	return m.Submitted() && m.Question.IsCorrect(m.Chosen)
}
