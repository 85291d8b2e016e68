package service

import (
	"context"
	"math"
	"time"

	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/scoring"
)

const (
	DefaultRecentActivity = 5
	hoursPerExam          = 1.5
)

// ProgressService derives dashboard figures from the attempt log.
type ProgressService struct {
	AttemptRepo *repository.AttemptRepository
	Content     *ContentService
}

func NewProgressService(attemptRepo *repository.AttemptRepository, content *ContentService) *ProgressService {
	return &ProgressService{AttemptRepo: attemptRepo, Content: content}
}

// SubjectProgress is the user's summed score in the subject over the nominal
// points of every exam in it, attempted or not.
func (s *ProgressService) SubjectProgress(ctx context.Context, userID, subjectID string) (int, error) {
	attempts, err := s.AttemptRepo.ByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.subjectProgress(attempts, subjectID), nil
}

func (s *ProgressService) subjectProgress(attempts []model.ExamAttempt, subjectID string) int {
	scored := 0
	found := false
	for _, a := range attempts {
		exam, err := s.Content.Exam(a.ExamID)
		if err != nil || exam.Subject.ID != subjectID {
			continue
		}
		scored += a.Score
		found = true
	}
	if !found {
		return 0
	}
	return scoring.Percentage(scored, s.Content.SubjectTotalPoints(subjectID))
}

// ExamHistory returns the user's attempts, newest first.
func (s *ProgressService) ExamHistory(ctx context.Context, userID string) ([]model.ExamAttempt, error) {
	return s.AttemptRepo.ByUser(ctx, userID)
}

type Activity struct {
	AttemptID   string        `json:"attemptId"`
	ExamID      string        `json:"examId"`
	ExamTitle   string        `json:"examTitle"`
	Subject     model.Subject `json:"subject"`
	Score       int           `json:"score"`
	TotalPoints int           `json:"totalPoints"`
	Percentage  int           `json:"percentage"`
	TimedOut    bool          `json:"timedOut"`
	CompletedAt time.Time     `json:"completedAt"`
}

// RecentActivity returns at most n of the newest attempts.
func (s *ProgressService) RecentActivity(ctx context.Context, userID string, n int) ([]Activity, error) {
	if n <= 0 {
		n = DefaultRecentActivity
	}
	attempts, err := s.AttemptRepo.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(attempts) > n {
		attempts = attempts[:n]
	}
	out := make([]Activity, 0, len(attempts))
	for _, a := range attempts {
		item := Activity{
			AttemptID:   a.ID,
			ExamID:      a.ExamID,
			Score:       a.Score,
			TotalPoints: a.TotalPoints,
			Percentage:  scoring.Percentage(a.Score, a.TotalPoints),
			TimedOut:    a.TimedOut,
			CompletedAt: a.CompletedAt,
		}
		if exam, err := s.Content.Exam(a.ExamID); err == nil {
			item.ExamTitle = exam.Title
			item.Subject = exam.Subject
		}
		out = append(out, item)
	}
	return out, nil
}

type SubjectProgress struct {
	Subject  model.Subject `json:"subject"`
	Progress int           `json:"progress"`
	Attempts int           `json:"attempts"`
}

type ProgressOverview struct {
	OverallProgress int `json:"overallProgress"`
	ExamsTaken      int `json:"examsTaken"`
	// AverageScore is the mean raw score per attempt, not a percentage.
	AverageScore int               `json:"averageScore"`
	StudyHours   int               `json:"studyHours"`
	Subjects     []SubjectProgress `json:"subjects"`
}

func (s *ProgressService) Overview(ctx context.Context, userID string) (*ProgressOverview, error) {
	attempts, err := s.AttemptRepo.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ov := &ProgressOverview{ExamsTaken: len(attempts)}
	if len(attempts) > 0 {
		total := 0
		for _, a := range attempts {
			total += a.Score
		}
		ov.AverageScore = int(math.Round(float64(total) / float64(len(attempts))))
	}
	ov.StudyHours = int(math.Round(float64(len(attempts)) * hoursPerExam))

	subjects := s.Content.Subjects()
	sum := 0
	for _, sub := range subjects {
		count := 0
		for _, a := range attempts {
			if exam, err := s.Content.Exam(a.ExamID); err == nil && exam.Subject.ID == sub.ID {
				count++
			}
		}
		p := s.subjectProgress(attempts, sub.ID)
		sum += p
		ov.Subjects = append(ov.Subjects, SubjectProgress{Subject: sub, Progress: p, Attempts: count})
	}
	if len(subjects) > 0 {
		ov.OverallProgress = int(math.Round(float64(sum) / float64(len(subjects))))
	}
	return ov, nil
}
