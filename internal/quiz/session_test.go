package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizrag/internal/mcq"
)

func batch() []mcq.MCQ {
	opts := map[string]string{"A": "Glucose", "B": "Oxygen", "C": "Starch", "D": "Water"}
	return []mcq.MCQ{
		{Question: "What does photosynthesis produce?", Options: opts, Answer: "A", Explanation: "Glucose stores the energy."},
		{Question: "Which gas is released?", Options: opts, Answer: "B", Explanation: "Water is split, releasing oxygen."},
	}
}

func TestSession_FullRun(t *testing.T) {
	s := NewSession(batch())
	assert.Equal(t, 2, s.Total())

	q, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "What does photosynthesis produce?", q.Question)

	r, err := s.SubmitAnswer("A")
	require.NoError(t, err)
	assert.True(t, r.Correct)
	assert.Equal(t, "Glucose stores the energy.", r.Explanation)
	assert.Equal(t, 1, s.Score())

	require.NoError(t, s.Advance())
	assert.Equal(t, 1, s.Index())
	assert.False(t, s.Answered())

	r, err = s.SubmitAnswer("C")
	require.NoError(t, err)
	assert.False(t, r.Correct)
	assert.Equal(t, "B", r.Answer)
	assert.Equal(t, 1, s.Score())

	require.NoError(t, s.Advance())
	assert.True(t, s.Done())
	_, ok = s.Current()
	assert.False(t, ok)
	assert.Len(t, s.Results(), 2)
}

func TestSession_Transitions(t *testing.T) {
	s := NewSession(batch())

	assert.ErrorIs(t, s.Advance(), ErrNotAnswered)

	_, err := s.SubmitAnswer("E")
	assert.ErrorIs(t, err, ErrUnknownOption)
	assert.False(t, s.Answered())

	_, err = s.SubmitAnswer("B")
	require.NoError(t, err)
	_, err = s.SubmitAnswer("A")
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
	assert.Equal(t, 0, s.Score(), "second answer must not change the score")

	require.NoError(t, s.Advance())
	_, err = s.SubmitAnswer("B")
	require.NoError(t, err)
	require.NoError(t, s.Advance())

	assert.ErrorIs(t, s.Advance(), ErrFinished)
	_, err = s.SubmitAnswer("A")
	assert.ErrorIs(t, err, ErrFinished)
}

func TestSession_Restart(t *testing.T) {
	s := NewSession(batch())
	_, err := s.SubmitAnswer("A")
	require.NoError(t, err)
	require.NoError(t, s.Advance())

	s.Restart()
	assert.Equal(t, 0, s.Index())
	assert.Equal(t, 0, s.Score())
	assert.False(t, s.Answered())
	assert.Empty(t, s.Results())
	assert.Equal(t, 2, s.Total())
}

func TestSession_EmptyAndCopy(t *testing.T) {
	var zero Session
	assert.True(t, zero.Done())

	in := batch()
	s := NewSession(in)
	in[0].Question = "mutated"
	q, _ := s.Current()
	assert.Equal(t, "What does photosynthesis produce?", q.Question)
}
