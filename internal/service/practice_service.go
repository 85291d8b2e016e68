package service

import (
	"context"

	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/util"
)

// PracticeService serves untimed questions with immediate feedback. Nothing
// is recorded.
type PracticeService struct {
	Content *ContentService
}

func NewPracticeService(content *ContentService) *PracticeService {
	return &PracticeService{Content: content}
}

func (s *PracticeService) Questions(ctx context.Context, subjectID string) ([]model.PublicQuestion, error) {
	if _, err := s.Content.Subject(subjectID); err != nil {
		return nil, err
	}
	qs, err := s.Content.QuestionsForSubject(ctx, subjectID, 0)
	if err != nil {
		return nil, err
	}
	out := make([]model.PublicQuestion, len(qs))
	for i := range qs {
		out[i] = qs[i].Public()
	}
	return out, nil
}

type PracticeFeedback struct {
	QuestionID    string `json:"questionId"`
	Selected      int    `json:"selected"`
	Correct       bool   `json:"correct"`
	CorrectAnswer int    `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
}

func (s *PracticeService) Check(ctx context.Context, questionID string, option int) (*PracticeFeedback, error) {
	q, err := s.Content.Question(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if option < 0 || option >= len(q.Options) {
		return nil, util.ErrInvalidOption
	}
	return &PracticeFeedback{
		QuestionID:    q.ID,
		Selected:      option,
		Correct:       q.IsCorrect(option),
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
	}, nil
}
