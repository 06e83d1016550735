package app

import (
	"context"
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizrag/internal/mcq"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func batch() []mcq.MCQ {
	return []mcq.MCQ{
		{
			Question:    "Which gas do plants release?",
			Options:     map[string]string{"A": "Oxygen", "B": "Helium", "C": "Neon", "D": "Argon"},
			Answer:      "A",
			Explanation: "Oxygen is a by-product of splitting water.",
		},
		{
			Question:    "Where does the Calvin cycle run?",
			Options:     map[string]string{"A": "Nucleus", "B": "Stroma", "C": "Cell wall", "D": "Vacuole"},
			Answer:      "B",
			Explanation: "The Calvin cycle takes place in the stroma.",
		},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func loadedModel(t *testing.T) Model {
	t.Helper()
	m := New(context.Background(), nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(t, m, generatedMsg{mcqs: batch()})
	require.Equal(t, stateQuestion, m.state)
	return m
}

func TestInit_RunsGenerate(t *testing.T) {
	called := false
	m := New(context.Background(), func(context.Context) ([]mcq.MCQ, error) {
		called = true
		return batch(), nil
	})

	assert.NotNil(t, m.Init())
	assert.Equal(t, stateGenerating, m.state)
	assert.Contains(t, m.content(80), "Generating questions")
	assert.False(t, called, "generation runs inside the returned command")
}

func TestGenerateError(t *testing.T) {
	m := New(context.Background(), nil)
	m, _ = update(t, m, generatedMsg{err: errors.New("MCQ generation failed: boom")})

	assert.Equal(t, stateError, m.state)
	assert.Contains(t, m.content(80), "MCQ generation failed: boom")

	_, cmd := update(t, m, keyPress('x'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestGenerateEmpty(t *testing.T) {
	m := New(context.Background(), nil)
	m, _ = update(t, m, generatedMsg{mcqs: []mcq.MCQ{}})

	assert.Equal(t, stateError, m.state)
	assert.Contains(t, m.content(80), "no questions")
}

func TestAnswerByLabel(t *testing.T) {
	m := loadedModel(t)

	m, _ = update(t, m, keyPress('a'))

	assert.Equal(t, stateFeedback, m.state)
	assert.True(t, m.result.Correct)
	assert.Equal(t, 1, m.session.Score())
	out := m.content(80)
	assert.Contains(t, out, "Correct!")
	assert.Contains(t, out, "Explanation: Oxygen is a by-product of splitting water.")
}

func TestAnswerWithArrowsAndEnter(t *testing.T) {
	m := loadedModel(t)

	m, _ = update(t, m, specialKey(tea.KeyDown))
	m, _ = update(t, m, specialKey(tea.KeyDown))
	m, _ = update(t, m, specialKey(tea.KeyUp))
	assert.Equal(t, stateQuestion, m.state)
	m, _ = update(t, m, specialKey(tea.KeyEnter))

	require.Equal(t, stateFeedback, m.state)
	assert.Equal(t, "B", m.result.Chosen)
	assert.False(t, m.result.Correct)
	assert.Contains(t, m.content(80), "The answer is A.")
}

func TestFullRunAndRestart(t *testing.T) {
	m := loadedModel(t)

	m, _ = update(t, m, keyPress('a'))
	m, _ = update(t, m, specialKey(tea.KeyEnter))
	require.Equal(t, stateQuestion, m.state)
	assert.Contains(t, m.content(80), "Question 2/2")

	m, _ = update(t, m, keyPress('c'))
	m, _ = update(t, m, keyPress('n'))
	require.Equal(t, stateSummary, m.state)
	assert.Contains(t, m.content(80), "You scored 1 out of 2")

	m, _ = update(t, m, keyPress('r'))
	assert.Equal(t, stateQuestion, m.state)
	assert.Equal(t, 0, m.session.Score())
	assert.Contains(t, m.content(80), "Question 1/2")
}

func TestQuitKeys(t *testing.T) {
	m := loadedModel(t)

	_, cmd := update(t, m, keyPress('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestFeedbackIgnoresOtherKeys(t *testing.T) {
	m := loadedModel(t)
	m, _ = update(t, m, keyPress('a'))

	m, _ = update(t, m, keyPress('b'))
	assert.Equal(t, stateFeedback, m.state)
	assert.Equal(t, 1, m.session.Score())
}
