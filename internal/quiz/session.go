// Package quiz tracks progress through a batch of generated MCQs.
package quiz

import (
	"errors"

	"github.com/abhisek/quizrag/internal/mcq"
)

var (
	ErrFinished        = errors.New("quiz is finished")
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrNotAnswered     = errors.New("current question has not been answered")
	ErrUnknownOption   = errors.New("unknown option")
)

// Result is the outcome of one submitted answer.
type Result struct {
	Chosen  string
	Correct bool
	Answer  string

	Explanation string
}

// Session is the state of one quiz over a fixed MCQ batch. The zero value
// is an empty, finished quiz. Sessions are not safe for concurrent use.
type Session struct {
	mcqs     []mcq.MCQ
	current  int
	score    int
	answered bool
	results  []Result
}

// NewSession starts a quiz over mcqs. The slice is copied.
func NewSession(mcqs []mcq.MCQ) *Session {
	s := &Session{mcqs: append([]mcq.MCQ(nil), mcqs...)}
	s.results = make([]Result, 0, len(s.mcqs))
	return s
}

// Current returns the question being asked, or false when the quiz is done.
func (s *Session) Current() (mcq.MCQ, bool) {
	if s.Done() {
		return mcq.MCQ{}, false
	}
	return s.mcqs[s.current], true
}

// SubmitAnswer records the learner's choice for the current question. Each
// question accepts exactly one answer.
func (s *Session) SubmitAnswer(label string) (Result, error) {
	q, ok := s.Current()
	if !ok {
		return Result{}, ErrFinished
	}
	if s.answered {
		return Result{}, ErrAlreadyAnswered
	}
	if _, ok := q.Options[label]; !ok {
		return Result{}, ErrUnknownOption
	}

	r := Result{
		Chosen:      label,
		Correct:     q.IsCorrect(label),
		Answer:      q.Answer,
		Explanation: q.Explanation,
	}
	if r.Correct {
		s.score++
	}
	s.answered = true
	s.results = append(s.results, r)
	return r, nil
}

// Advance moves to the next question once the current one is answered.
func (s *Session) Advance() error {
	if s.Done() {
		return ErrFinished
	}
	if !s.answered {
		return ErrNotAnswered
	}
	s.current++
	s.answered = false
	return nil
}

// Restart resets progress and score over the same questions.
func (s *Session) Restart() {
	s.current = 0
	s.score = 0
	s.answered = false
	s.results = s.results[:0]
}

// Done reports whether every question has been passed.
func (s *Session) Done() bool { return s.current >= len(s.mcqs) }

// Answered reports whether the current question has been answered.
func (s *Session) Answered() bool { return s.answered }

// Score returns the number of correct answers so far.
func (s *Session) Score() int { return s.score }

// Total returns the number of questions.
func (s *Session) Total() int { return len(s.mcqs) }

// Index returns the zero-based position of the current question.
func (s *Session) Index() int { return s.current }

// Results returns the answers submitted so far, in order.
func (s *Session) Results() []Result {
	return append([]Result(nil), s.results...)
}
