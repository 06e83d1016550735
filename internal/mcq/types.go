package mcq

import "sort"

// MCQ is one generated multiple-choice question.
type MCQ struct {
	// Question is the stem shown to the learner. At least 5 characters.
	Question string `json:"question"`

	// Options maps a short label ("A".."D") to the option text.
	Options map[string]string `json:"options"`

	// Answer is the label of the correct option.
	Answer string `json:"answer"`

	// Explanation is the rationale for the correct answer.
	Explanation string `json:"explanation"`
}

// List is the wire envelope returned by the completion service. The order
// of MCQs is generation order.
type List struct {
	MCQs []MCQ `json:"mcqs"`
}

// Labels returns the option labels in sorted order, so "A" comes before "B".
func (q MCQ) Labels() []string {
	labels := make([]string, 0, len(q.Options))
	for k := range q.Options {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return labels
}

// IsCorrect reports whether label is the correct option.
func (q MCQ) IsCorrect(label string) bool {
	return label == q.Answer
}
