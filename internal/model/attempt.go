package model

import "time"

// swagger:model ExamAttempt
type ExamAttempt struct {
	ID              string         `json:"id"`
	UserID          string         `json:"userId"`
	ExamID          string         `json:"examId"`
	Answers         map[string]int `json:"answers"`
	Score           int            `json:"score"`
	TotalPoints     int            `json:"totalPoints"`
	TotalQuestions  int            `json:"totalQuestions"`
	TimeSpent       int            `json:"timeSpent"` // seconds
	CompletedAt     time.Time      `json:"completedAt"`
	MarkedQuestions []string       `json:"markedQuestions"`
	QuestionIDs     []string       `json:"questionIds"`
	TimedOut        bool           `json:"timedOut"`
	// Questions as scored at submit time; later edits to the bank do not reach it.
	Questions []Question `json:"questions,omitempty"`
}
