package model

// swagger:model Exam
type Exam struct {
	ID        string     `json:"id"`
	Subject   Subject    `json:"subject"`
	Title     string     `json:"title"`
	Duration  int        `json:"duration"` // minutes
	Questions []Question `json:"questions"`
	// TotalPoints is the nominal catalog value; it can differ from the sum
	// over the questions actually attached to an attempt.
	TotalPoints int `json:"totalPoints"`
}

func (e *Exam) DurationSeconds() int {
	return e.Duration * 60
}
