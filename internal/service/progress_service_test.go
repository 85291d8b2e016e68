package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"exam_portal_backend/internal/model"
)

func (f *fixture) addAttempt(t *testing.T, userID, examID string, score int, at time.Time) {
	t.Helper()
	a := &model.ExamAttempt{
		ID:          fmt.Sprintf("%s-%s-%d", userID, examID, at.Unix()),
		UserID:      userID,
		ExamID:      examID,
		Answers:     map[string]int{},
		Score:       score,
		TotalPoints: 500,
		CompletedAt: at,
	}
	if err := f.attempts.Append(context.Background(), a); err != nil {
		t.Fatal(err)
	}
}

func TestSubjectProgressUsesAllExams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addAttempt(t, "u1", "1-exam-1", 250, f.now)
	f.addAttempt(t, "u1", "1-exam-2", 250, f.now)
	f.addAttempt(t, "u1", "2-exam-1", 500, f.now)
	f.addAttempt(t, "u2", "1-exam-1", 500, f.now)

	tests := []struct {
		subject string
		want    int
	}{
		{"1", 5}, // 500 / (20 × 500)
		{"2", 5}, // 500 / 10000
		{"3", 0}, // no attempts
		{"x", 0}, // unknown subject
	}
	for _, tt := range tests {
		got, err := f.progress.SubjectProgress(ctx, "u1", tt.subject)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("SubjectProgress(%s) = %d, want %d", tt.subject, got, tt.want)
		}
	}
}

func TestRecentActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		f.addAttempt(t, "u1", fmt.Sprintf("3-exam-%d", i+1), 100*i%500, f.now.Add(time.Duration(i)*time.Hour))
	}

	got, err := f.progress.RecentActivity(ctx, "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != DefaultRecentActivity {
		t.Fatalf("len = %d, want %d", len(got), DefaultRecentActivity)
	}
	if got[0].ExamID != "3-exam-7" || got[4].ExamID != "3-exam-3" {
		t.Errorf("order = %s..%s", got[0].ExamID, got[4].ExamID)
	}
	if got[0].ExamTitle != "Computer Science Exam 7" || got[0].Subject.ID != "3" {
		t.Errorf("activity = %+v", got[0])
	}
}

func TestOverview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addAttempt(t, "u1", "1-exam-1", 400, f.now)
	f.addAttempt(t, "u1", "1-exam-2", 300, f.now)
	f.addAttempt(t, "u1", "2-exam-1", 201, f.now)

	ov, err := f.progress.Overview(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if ov.ExamsTaken != 3 {
		t.Errorf("examsTaken = %d", ov.ExamsTaken)
	}
	if ov.AverageScore != 300 {
		t.Errorf("averageScore = %d, want 300", ov.AverageScore)
	}
	if ov.StudyHours != 5 {
		t.Errorf("studyHours = %d, want 5", ov.StudyHours)
	}
	// subject 1: 700/10000 → 7, subject 2: 201/10000 → 2, subject 3: 0
	if ov.OverallProgress != 3 {
		t.Errorf("overallProgress = %d, want 3", ov.OverallProgress)
	}
	if len(ov.Subjects) != 3 || ov.Subjects[0].Attempts != 2 || ov.Subjects[0].Progress != 7 {
		t.Errorf("subjects = %+v", ov.Subjects)
	}

	empty, _ := f.progress.Overview(ctx, "nobody")
	if empty.ExamsTaken != 0 || empty.AverageScore != 0 || empty.OverallProgress != 0 {
		t.Errorf("empty overview = %+v", empty)
	}
}
