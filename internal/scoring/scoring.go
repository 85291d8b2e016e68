// Package scoring turns an answer sheet into points, a percentage and a
// letter grade.
package scoring

import (
	"exam_portal_backend/internal/model"
	"math"
)

// Score sums the points of every question whose recorded answer matches the
// key. totalPoints is the sum over all questions passed in, answered or not.
func Score(questions []model.Question, answers map[string]int) (score, totalPoints int) {
	for _, q := range questions {
		totalPoints += q.Points
		if chosen, ok := answers[q.ID]; ok && q.IsCorrect(chosen) {
			score += q.Points
		}
	}
	return score, totalPoints
}

// Percentage rounds half away from zero. A zero total yields 0.
func Percentage(score, totalPoints int) int {
	if totalPoints <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(totalPoints)))
}

type Grade struct {
	Letter  string `json:"letter"`
	Message string `json:"message"`
}

type band struct {
	min   int
	grade Grade
}

// ordered top-down; first match wins
var bands = []band{
	{90, Grade{"A+", "Outstanding!"}},
	{80, Grade{"A", "Excellent!"}},
	{70, Grade{"B", "Good Job!"}},
	{60, Grade{"C", "Fair"}},
	{50, Grade{"D", "Needs Improvement"}},
}

var failing = Grade{"F", "Keep Practicing!"}

func GradeFor(percentage int) Grade {
	for _, b := range bands {
		if percentage >= b.min {
			return b.grade
		}
	}
	return failing
}

// Result is the breakdown shown after an attempt.
type Result struct {
	Score int `json:"score"`
	// TotalPoints is summed over the questions attached to the attempt.
	TotalPoints int `json:"totalPoints"`
	Percentage  int `json:"percentage"`
	// NominalTotalPoints is the exam's catalog total.
	NominalTotalPoints int   `json:"nominalTotalPoints"`
	NominalPercentage  int   `json:"nominalPercentage"`
	Grade              Grade `json:"grade"`
	Correct            int   `json:"correct"`
	Incorrect          int   `json:"incorrect"`
	Unanswered         int   `json:"unanswered"`
	Marked             int   `json:"marked"`
}

// Evaluate scores answers against questions. The grade follows the
// percentage over the attached questions.
func Evaluate(questions []model.Question, answers map[string]int, nominalTotal int) Result {
	score, total := Score(questions, answers)
	r := Result{
		Score:              score,
		TotalPoints:        total,
		Percentage:         Percentage(score, total),
		NominalTotalPoints: nominalTotal,
		NominalPercentage:  Percentage(score, nominalTotal),
	}
	for _, q := range questions {
		chosen, ok := answers[q.ID]
		switch {
		case !ok:
			r.Unanswered++
		case q.IsCorrect(chosen):
			r.Correct++
		default:
			r.Incorrect++
		}
	}
	r.Grade = GradeFor(r.Percentage)
	return r
}
