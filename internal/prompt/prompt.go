// Package prompt renders the MCQ generation instruction.
package prompt

import (
	"fmt"
	"strings"

	"github.com/abhisek/quizrag/internal/mcq"
)

// Difficulty is the requested cognitive load.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Difficulties lists the accepted difficulties in ascending order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

var difficultyClauses = map[Difficulty]string{
	Easy:   "Focus on direct factual recall and simple definitions.",
	Medium: "Test conceptual understanding and relationships between ideas.",
	Hard:   "Create analytical, scenario-based, and inference-driven questions with subtle distractors.",
}

// Clause returns the instruction for d and whether d is known.
func (d Difficulty) Clause() (string, bool) {
	c, ok := difficultyClauses[d]
	return c, ok
}

// BloomLevel is a level of Bloom's taxonomy.
type BloomLevel string

const (
	Remember   BloomLevel = "Remember"
	Understand BloomLevel = "Understand"
	Apply      BloomLevel = "Apply"
	Analyze    BloomLevel = "Analyze"
	Evaluate   BloomLevel = "Evaluate"
	Create     BloomLevel = "Create"
)

// BloomLevels lists the taxonomy from lowest to highest.
var BloomLevels = []BloomLevel{Remember, Understand, Apply, Analyze, Evaluate, Create}

// Question count bounds.
const (
	MinQuestions = 1
	MaxQuestions = 20
)

const template = `You are an expert academic question designer.

Generate %d multiple-choice questions strictly from the given content.

Difficulty Level: %s
Difficulty Description: %s

Bloom's Taxonomy Level: %s

Rules:
1. Each question must have exactly four options (A, B, C, D).
2. Only one option must be correct.
3. Provide a concise explanation for the correct answer.
4. Avoid repeating concepts.
5. Distractors must be plausible and conceptually close to the correct answer.
6. Do not generate content outside the provided text.

Content:
"""
%s
"""

Return output strictly in this JSON format:

{
  "mcqs": [
    {
      "question": "",
      "options": {
        "A": "",
        "B": "",
        "C": "",
        "D": ""
      },
      "answer": "",
      "explanation": ""
    }
  ]
}`

// Build renders the generation prompt. It has no side effects: the same
// arguments always produce the same string. An empty bloom level means
// Understand; other levels are passed through as given.
func Build(content string, numQuestions int, difficulty Difficulty, bloom BloomLevel) (string, error) {
	clause, ok := difficulty.Clause()
	if !ok {
		return "", mcq.NewError(mcq.KindPrompt, "Invalid difficulty level provided.")
	}
	if strings.TrimSpace(content) == "" {
		return "", mcq.NewError(mcq.KindPrompt, "Content for prompt cannot be empty.")
	}
	if err := checkCount(numQuestions); err != nil {
		return "", err
	}
	if bloom == "" {
		bloom = Understand
	}

	return fmt.Sprintf(template, numQuestions, difficulty, clause, bloom, content), nil
}

// CheckParams reports the error Build would return for these parameters,
// without needing content. Callers use it to fail before doing any work.
func CheckParams(numQuestions int, difficulty Difficulty) error {
	if _, ok := difficulty.Clause(); !ok {
		return mcq.NewError(mcq.KindPrompt, "Invalid difficulty level provided.")
	}
	return checkCount(numQuestions)
}

func checkCount(n int) error {
	if n < MinQuestions || n > MaxQuestions {
		return mcq.NewError(mcq.KindPrompt,
			fmt.Sprintf("Number of questions must be between %d and %d.", MinQuestions, MaxQuestions))
	}
	return nil
}

// JoinChunks combines retrieved chunks into prompt content.
func JoinChunks(chunks []string) string {
	return strings.Join(chunks, "\n")
}
