package scoring

import (
	"exam_portal_backend/internal/model"
	"testing"
)

func questions() []model.Question {
	return []model.Question{
		{ID: "q1", CorrectAnswer: 0, Points: 10},
		{ID: "q2", CorrectAnswer: 2, Points: 15},
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		answers   map[string]int
		wantScore int
	}{
		{"none answered", map[string]int{}, 0},
		{"only second correct", map[string]int{"q1": 1, "q2": 2}, 15},
		{"both correct", map[string]int{"q1": 0, "q2": 2}, 25},
		{"unknown ids ignored", map[string]int{"zz": 0}, 0},
		{"nil answers", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, total := Score(questions(), tt.answers)
			if score != tt.wantScore {
				t.Errorf("score = %d, want %d", score, tt.wantScore)
			}
			if total != 25 {
				t.Errorf("total = %d, want 25", total)
			}
		})
	}
}

func TestGradeFor(t *testing.T) {
	tests := []struct {
		pct  int
		want string
	}{
		{100, "A+"},
		{90, "A+"},
		{89, "A"},
		{80, "A"},
		{79, "B"},
		{70, "B"},
		{60, "C"},
		{59, "D"},
		{50, "D"},
		{49, "F"},
		{0, "F"},
	}
	for _, tt := range tests {
		if got := GradeFor(tt.pct).Letter; got != tt.want {
			t.Errorf("GradeFor(%d) = %s, want %s", tt.pct, got, tt.want)
		}
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		score, total, want int
	}{
		{15, 25, 60},
		{1, 3, 33},
		{2, 3, 67},
		{1, 200, 1},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := Percentage(tt.score, tt.total); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %d, want %d", tt.score, tt.total, got, tt.want)
		}
	}
}

func TestEvaluateUsesAttachedTotalForGrade(t *testing.T) {
	r := Evaluate(questions(), map[string]int{"q1": 0, "q2": 2}, 500)
	if r.Percentage != 100 || r.Grade.Letter != "A+" {
		t.Errorf("percentage/grade = %d/%s, want 100/A+", r.Percentage, r.Grade.Letter)
	}
	if r.NominalPercentage != 5 {
		t.Errorf("nominal percentage = %d, want 5", r.NominalPercentage)
	}
	if r.Correct != 2 || r.Incorrect != 0 || r.Unanswered != 0 {
		t.Errorf("counts = %+v", r)
	}

	r = Evaluate(questions(), map[string]int{"q1": 3}, 500)
	if r.Correct != 0 || r.Incorrect != 1 || r.Unanswered != 1 {
		t.Errorf("counts = %+v", r)
	}
}
