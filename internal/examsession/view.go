package examsession

import "exam_portal_backend/internal/model"

// View is a point-in-time snapshot safe to send to a student.
type View struct {
	ID            string                 `json:"id"`
	ExamID        string                 `json:"examId"`
	ExamTitle     string                 `json:"examTitle"`
	SubjectID     string                 `json:"subjectId"`
	State         State                  `json:"state"`
	CurrentIndex  int                    `json:"currentIndex"`
	Total         int                    `json:"total"`
	Answered      int                    `json:"answered"`
	TimeRemaining int                    `json:"timeRemaining"`
	Current       *model.PublicQuestion  `json:"current,omitempty"`
	Answers       map[string]int         `json:"answers"`
	Marked        []string               `json:"markedQuestions"`
	Navigator     []QuestionStatus       `json:"navigator"`
	Questions     []model.PublicQuestion `json:"questions"`
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:            s.cfg.ID,
		ExamID:        s.cfg.Exam.ID,
		ExamTitle:     s.cfg.Exam.Title,
		SubjectID:     s.cfg.Exam.Subject.ID,
		State:         s.state,
		CurrentIndex:  s.current,
		Total:         len(s.questions),
		Answered:      s.answeredLocked(),
		TimeRemaining: s.remaining,
		Answers:       make(map[string]int, len(s.answers)),
		Marked:        append([]string(nil), s.marked...),
		Navigator:     make([]QuestionStatus, len(s.questions)),
		Questions:     make([]model.PublicQuestion, len(s.questions)),
	}
	for k, a := range s.answers {
		v.Answers[k] = a
	}
	for i := range s.questions {
		v.Navigator[i] = s.statusLocked(i)
		v.Questions[i] = s.questions[i].Public()
	}
	if len(s.questions) > 0 {
		cur := s.questions[s.current].Public()
		v.Current = &cur
	}
	return v
}
