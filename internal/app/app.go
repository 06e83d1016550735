// Package app is the terminal quiz: it generates a batch of MCQs, then walks
// the user through them one at a time.
package app

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizrag/internal/mcq"
	"github.com/abhisek/quizrag/internal/quiz"
	"github.com/abhisek/quizrag/internal/ui/components"
	"github.com/abhisek/quizrag/internal/ui/layout"
	"github.com/abhisek/quizrag/internal/ui/theme"
)

// GenerateFunc produces the MCQ batch for a quiz.
type GenerateFunc func(ctx context.Context) ([]mcq.MCQ, error)

type state int

const (
	stateGenerating state = iota
	stateQuestion
	stateFeedback
	stateSummary
	stateError
)

type generatedMsg struct {
	mcqs []mcq.MCQ
	err  error
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx      context.Context
	generate GenerateFunc

	state   state
	spinner spinner.Model
	session *quiz.Session
	choice  components.MultiChoice
	result  quiz.Result
	err     error

	width  int
	height int
}

// New returns a Model that calls generate on start.
func New(ctx context.Context, generate GenerateFunc) Model {
	return Model{
		ctx:      ctx,
		generate: generate,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (m Model) Init() tea.Cmd {
	ctx, generate := m.ctx, m.generate
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		mcqs, err := generate(ctx)
		return generatedMsg{mcqs: mcqs, err: err}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case generatedMsg:
		return m.loaded(msg), nil

	case spinner.TickMsg:
		if m.state != stateGenerating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) loaded(msg generatedMsg) Model {
	if msg.err != nil {
		m.state = stateError
		m.err = msg.err
		return m
	}
	if len(msg.mcqs) == 0 {
		m.state = stateError
		m.err = fmt.Errorf("the model returned no questions")
		return m
	}
	m.session = quiz.NewSession(msg.mcqs)
	return m.showCurrent()
}

func (m Model) showCurrent() Model {
	q, ok := m.session.Current()
	if !ok {
		m.state = stateSummary
		return m
	}
	m.choice = components.NewMultiChoice(q)
	m.state = stateQuestion
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateQuestion:
		m.choice, _ = m.choice.Update(msg)
		if !m.choice.Submitted() {
			return m, nil
		}
		res, err := m.session.SubmitAnswer(m.choice.Chosen)
		if err != nil {
			m.state = stateError
			m.err = err
			return m, nil
		}
		m.result = res
		m.state = stateFeedback

	case stateFeedback:
		switch msg.String() {
		case "enter", "space", "n":
			if err := m.session.Advance(); err != nil {
				m.state = stateError
				m.err = err
				return m, nil
			}
			m = m.showCurrent()
		}

	case stateSummary:
		switch msg.String() {
		case "r":
			m.session.Restart()
			m = m.showCurrent()
		case "enter":
			return m, tea.Quit
		}

	case stateError:
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	score, total := 0, -1
	if m.session != nil {
		score, total = m.session.Score(), m.session.Total()
	}
	header := layout.RenderHeader(m.title(), score, total, m.width)
	footer := layout.RenderFooter(m.hints(), m.width)

	v.SetContent(layout.RenderFrame(header, m.content(m.width-4), footer, m.width, m.height))
	return v
}

func (m Model) title() string {
	switch m.state {
	case stateGenerating:
		return "Generating"
	case stateSummary:
		return "Results"
	case stateError:
		return "Error"
	default:
		return "Quiz"
	}
}

func (m Model) hints() []layout.KeyHint {
	switch m.state {
	case stateQuestion:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "A-D/Enter", Description: "Answer"},
			{Key: "q", Description: "Quit"},
		}
	case stateFeedback:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Next"},
			{Key: "q", Description: "Quit"},
		}
	case stateSummary:
		return []layout.KeyHint{
			{Key: "r", Description: "Restart"},
			{Key: "Enter", Description: "Quit"},
		}
	default:
		return []layout.KeyHint{{Key: "q", Description: "Quit"}}
	}
}

// content renders the body of the current screen at the given width.
func (m Model) content(width int) string {
	var b strings.Builder

	switch m.state {
	case stateGenerating:
		b.WriteString(m.spinner.View())
		b.WriteString(" Generating questions...")

	case stateError:
		b.WriteString(theme.ErrorBox.Width(width).Render(m.err.Error()))
		b.WriteString("\n\n")
		b.WriteString(theme.Hint.Render("Press any key to exit."))

	case stateQuestion, stateFeedback:
		b.WriteString(components.NewProgressBar(m.session.Index()+1, m.session.Total(), width).View())
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(m.choice.View()))
		if m.state == stateFeedback {
			b.WriteString("\n")
			b.WriteString(m.feedback(width))
		}

	case stateSummary:
		b.WriteString(m.summary(width))
	}

	return b.String()
}

func (m Model) feedback(width int) string {
	verdict := theme.Correct.Render("Correct!")
	if !m.result.Correct {
		verdict = theme.Incorrect.Render(fmt.Sprintf("Incorrect. The answer is %s.", m.result.Answer))
	}
	explanation := theme.Body.Width(width).Render("Explanation: " + m.result.Explanation)
	return verdict + "\n\n" + explanation
}

func (m Model) summary(width int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("You scored %d out of %d", m.session.Score(), m.session.Total())))
	b.WriteString("\n\n")

	for i, res := range m.session.Results() {
		mark := theme.Correct.Render("✔")
		if !res.Correct {
			mark = theme.Incorrect.Render("✘")
		}
		line := fmt.Sprintf("%s Q%d: you chose %s, answer %s", mark, i+1, res.Chosen, res.Answer)
		b.WriteString(lipgloss.NewStyle().Width(width).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// Run starts the quiz program and blocks until the user quits.
func Run(ctx context.Context, generate GenerateFunc) error {
	_, err := tea.NewProgram(New(ctx, generate)).Run()
	return err
}
