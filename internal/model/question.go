package model

import (
	"fmt"
	"strings"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// OptionCount is the fixed number of answer options per question.
const OptionCount = 4

// DefaultQuestionPoints applies to questions entered without explicit points.
const DefaultQuestionPoints = 10

func ParseDifficulty(s string) (Difficulty, bool) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Medium, Hard:
		return d, true
	}
	return "", false
}

func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

// Points awarded for a question of this difficulty on the bulk import path.
func (d Difficulty) Points() int {
	switch d {
	case Easy:
		return 5
	case Hard:
		return 15
	default:
		return 10
	}
}

// swagger:model Question
type Question struct {
	ID            string     `json:"id" yaml:"id"`
	Subject       Subject    `json:"subject" yaml:"subject"`
	Topic         string     `json:"topic" yaml:"topic"`
	Difficulty    Difficulty `json:"difficulty" yaml:"difficulty"`
	Question      string     `json:"question" yaml:"question"`
	Options       []string   `json:"options" yaml:"options"`
	CorrectAnswer int        `json:"correctAnswer" yaml:"correctAnswer"`
	Explanation   string     `json:"explanation" yaml:"explanation"`
	Points        int        `json:"points" yaml:"points"`
}

func (q *Question) Validate() error {
	if strings.TrimSpace(q.Subject.ID) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidQuestion)
	}
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("%w: question text is required", ErrInvalidQuestion)
	}
	if !q.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidQuestion, q.Difficulty)
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("%w: expected %d options, got %d", ErrInvalidQuestion, OptionCount, len(q.Options))
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("%w: correct answer %d out of range", ErrInvalidQuestion, q.CorrectAnswer)
	}
	if q.Points <= 0 {
		return fmt.Errorf("%w: points must be positive", ErrInvalidQuestion)
	}
	return nil
}

// IsCorrect reports whether option is the keyed answer.
func (q *Question) IsCorrect(option int) bool {
	return option == q.CorrectAnswer
}

// PublicQuestion is a question stripped of its answer key and explanation.
type PublicQuestion struct {
	ID         string     `json:"id"`
	SubjectID  string     `json:"subjectId"`
	Topic      string     `json:"topic"`
	Difficulty Difficulty `json:"difficulty"`
	Question   string     `json:"question"`
	Options    []string   `json:"options"`
	Points     int        `json:"points"`
}

func (q *Question) Public() PublicQuestion {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)
	return PublicQuestion{
		ID:         q.ID,
		SubjectID:  q.Subject.ID,
		Topic:      q.Topic,
		Difficulty: q.Difficulty,
		Question:   q.Question,
		Options:    opts,
		Points:     q.Points,
	}
}

// QuestionPatch carries the fields an edit may change; nil means unchanged.
type QuestionPatch struct {
	SubjectID     *string     `json:"subjectId"`
	Topic         *string     `json:"topic"`
	Difficulty    *Difficulty `json:"difficulty"`
	Question      *string     `json:"question"`
	Options       *[]string   `json:"options"`
	CorrectAnswer *int        `json:"correctAnswer"`
	Explanation   *string     `json:"explanation"`
	Points        *int        `json:"points"`
}
