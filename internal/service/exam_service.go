package service

import (
	"context"
	"sync"
	"time"

	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/examsession"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/scoring"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/logger"
	"exam_portal_backend/pkg/monitoring"
	"exam_portal_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ExamService runs live exam sessions and turns submitted ones into
// attempts. Sessions live in memory only; a restart loses them.
type ExamService struct {
	Content     *ContentService
	Entitlement *EntitlementService
	AttemptRepo *repository.AttemptRepository
	Cfg         *config.Config
	Now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*examsession.Session
	byUser   map[string]string
}

func NewExamService(content *ContentService, entitlement *EntitlementService, attemptRepo *repository.AttemptRepository, cfg *config.Config) *ExamService {
	return &ExamService{
		Content:     content,
		Entitlement: entitlement,
		AttemptRepo: attemptRepo,
		Cfg:         cfg,
		Now:         time.Now,
		sessions:    make(map[string]*examsession.Session),
		byUser:      make(map[string]string),
	}
}

// StartExam opens a session for examID. A user holds at most one live
// session; an older one is abandoned.
func (s *ExamService) StartExam(ctx context.Context, userID, examID string) (examsession.View, error) {
	ctx, span := tracing.Start(ctx, "ExamService.StartExam", attribute.String("exam.id", examID))
	defer span.End()

	user, err := s.Entitlement.Load(ctx, userID)
	if err != nil {
		return examsession.View{}, err
	}
	if err := s.Entitlement.RequireAccess(user); err != nil {
		return examsession.View{}, err
	}

	exam, err := s.Content.Exam(examID)
	if err != nil {
		return examsession.View{}, err
	}
	questions, err := s.Content.QuestionsForSubject(ctx, exam.Subject.ID, s.Cfg.Content.MaxExamQuestions)
	if err != nil {
		return examsession.View{}, err
	}
	if len(questions) == 0 {
		return examsession.View{}, util.ErrNoQuestions
	}

	sess := examsession.New(examsession.Config{
		ID:           model.GenerateUUID(),
		UserID:       userID,
		Exam:         *exam,
		Questions:    questions,
		MaxQuestions: s.Cfg.Content.MaxExamQuestions,
		Tick:         s.Cfg.Session.TickInterval,
		Now:          s.Now,
		OnSubmit:     s.record,
	})

	s.mu.Lock()
	previous := s.sessions[s.byUser[userID]]
	s.mu.Unlock()
	if previous != nil {
		s.abandon(previous, "replaced by a new session")
	}

	if err := sess.Start(); err != nil {
		return examsession.View{}, err
	}

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.byUser[userID] = sess.ID()
	s.mu.Unlock()

	monitoring.SessionsStarted.WithLabelValues(exam.Subject.Name).Inc()
	monitoring.ActiveSessions.Inc()
	logger.Log.Info("Exam session started",
		zap.String("sessionID", sess.ID()),
		zap.String("userID", userID),
		zap.String("examID", examID),
		zap.Int("questions", len(questions)),
	)
	return sess.Snapshot(), nil
}

// record is the session's submit hook. It runs once per session, from the
// request goroutine on a manual submit or the countdown on timeout.
func (s *ExamService) record(out examsession.Outcome) {
	s.release(out.SessionID, out.UserID)

	ctx, span := tracing.Start(context.Background(), "ExamService.record",
		attribute.String("session.id", out.SessionID),
		attribute.Bool("timed_out", out.TimedOut))
	defer span.End()

	score, total := scoring.Score(out.Questions, out.Answers)
	ids := make([]string, len(out.Questions))
	for i, q := range out.Questions {
		ids[i] = q.ID
	}
	attempt := &model.ExamAttempt{
		ID:              out.SessionID,
		UserID:          out.UserID,
		ExamID:          out.Exam.ID,
		Answers:         out.Answers,
		Score:           score,
		TotalPoints:     total,
		TotalQuestions:  len(out.Questions),
		TimeSpent:       out.TimeSpent,
		CompletedAt:     out.SubmittedAt,
		MarkedQuestions: out.Marked,
		QuestionIDs:     ids,
		TimedOut:        out.TimedOut,
		Questions:       append([]model.Question(nil), out.Questions...),
	}

	if err := s.AttemptRepo.Append(ctx, attempt); err != nil {
		span.RecordError(err)
		logger.Log.Error("Failed to record attempt",
			zap.String("sessionID", out.SessionID),
			zap.Error(err),
		)
		return
	}

	outcome := "submitted"
	if out.TimedOut {
		outcome = "timed_out"
	}
	monitoring.AttemptsRecorded.WithLabelValues(out.Exam.Subject.Name, outcome).Inc()
	monitoring.AttemptPercentage.Observe(float64(scoring.Percentage(score, total)))
	logger.Log.Info("Exam attempt recorded",
		zap.String("attemptID", attempt.ID),
		zap.String("userID", attempt.UserID),
		zap.String("examID", attempt.ExamID),
		zap.Int("score", score),
		zap.Int("totalPoints", total),
		zap.Bool("timedOut", out.TimedOut),
	)
}

func (s *ExamService) release(sessionID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return
	}
	delete(s.sessions, sessionID)
	if s.byUser[userID] == sessionID {
		delete(s.byUser, userID)
	}
	monitoring.ActiveSessions.Dec()
}

func (s *ExamService) abandon(sess *examsession.Session, reason string) {
	if !sess.Abandon() {
		return
	}
	s.release(sess.ID(), sess.UserID())
	monitoring.SessionsAbandoned.Inc()
	logger.Log.Warn("Exam session abandoned, answers discarded",
		zap.String("sessionID", sess.ID()),
		zap.String("userID", sess.UserID()),
		zap.String("reason", reason),
	)
}

// Session returns the live session if it belongs to userID.
func (s *ExamService) Session(userID, sessionID string) (*examsession.Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok || sess.UserID() != userID {
		return nil, util.ErrSessionNotFound
	}
	return sess, nil
}

func (s *ExamService) Current(userID string) (*examsession.Session, error) {
	s.mu.Lock()
	id, ok := s.byUser[userID]
	s.mu.Unlock()
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	return s.Session(userID, id)
}

func (s *ExamService) do(userID, sessionID string, fn func(*examsession.Session) error) (examsession.View, error) {
	sess, err := s.Session(userID, sessionID)
	if err != nil {
		return examsession.View{}, err
	}
	if err := fn(sess); err != nil {
		return examsession.View{}, err
	}
	return sess.Snapshot(), nil
}

func (s *ExamService) SelectAnswer(userID, sessionID string, option int) (examsession.View, error) {
	return s.do(userID, sessionID, func(sess *examsession.Session) error {
		return sess.SelectAnswer(option)
	})
}

func (s *ExamService) ToggleMark(userID, sessionID string) (examsession.View, error) {
	return s.do(userID, sessionID, func(sess *examsession.Session) error {
		_, err := sess.ToggleMark()
		return err
	})
}

func (s *ExamService) Next(userID, sessionID string) (examsession.View, error) {
	return s.do(userID, sessionID, func(sess *examsession.Session) error {
		_, err := sess.Next()
		return err
	})
}

func (s *ExamService) Previous(userID, sessionID string) (examsession.View, error) {
	return s.do(userID, sessionID, func(sess *examsession.Session) error {
		_, err := sess.Previous()
		return err
	})
}

func (s *ExamService) JumpTo(userID, sessionID string, index int) (examsession.View, error) {
	return s.do(userID, sessionID, func(sess *examsession.Session) error {
		return sess.JumpTo(index)
	})
}

func (s *ExamService) RequestSubmit(userID, sessionID string) (examsession.SubmitPrompt, error) {
	sess, err := s.Session(userID, sessionID)
	if err != nil {
		return examsession.SubmitPrompt{}, err
	}
	return sess.RequestSubmit()
}

// Submit finalizes the session and returns the scored attempt.
func (s *ExamService) Submit(ctx context.Context, userID, sessionID string) (res *AttemptResult, err error) {
	ctx, span := tracing.Start(ctx, "ExamService.Submit", attribute.String("session.id", sessionID))
	defer func() { tracing.End(span, err) }()

	sess, err := s.Session(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err = sess.Submit(); err != nil {
		return nil, err
	}
	return s.Result(ctx, userID, sessionID)
}

func (s *ExamService) Abandon(userID, sessionID string) error {
	sess, err := s.Session(userID, sessionID)
	if err != nil {
		return err
	}
	s.abandon(sess, "left by user")
	return nil
}

// Shutdown abandons every live session.
func (s *ExamService) Shutdown() {
	s.mu.Lock()
	live := make([]*examsession.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()
	for _, sess := range live {
		s.abandon(sess, "server shutdown")
	}
}

// AttemptResult is an attempt with everything needed to review it.
type AttemptResult struct {
	Attempt   model.ExamAttempt `json:"attempt"`
	ExamTitle string            `json:"examTitle"`
	Subject   model.Subject     `json:"subject"`
	Result    scoring.Result    `json:"result"`
	// Questions still present in the bank, in attempt order.
	Questions []model.Question `json:"questions"`
}

func (s *ExamService) Result(ctx context.Context, userID, attemptID string) (*AttemptResult, error) {
	attempt, err := s.AttemptRepo.FindByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, util.ErrAttemptNotFound
	}
	exam, err := s.Content.Exam(attempt.ExamID)
	if err != nil {
		return nil, err
	}

	questions := attempt.Questions
	if len(questions) == 0 {
		// attempts recorded without a snapshot fall back to the live bank
		questions = make([]model.Question, 0, len(attempt.QuestionIDs))
		for _, id := range attempt.QuestionIDs {
			q, err := s.Content.Question(ctx, id)
			if err != nil {
				continue
			}
			questions = append(questions, *q)
		}
	}

	res := scoring.Evaluate(questions, attempt.Answers, exam.TotalPoints)
	res.Score = attempt.Score
	res.TotalPoints = attempt.TotalPoints
	res.Percentage = scoring.Percentage(attempt.Score, attempt.TotalPoints)
	res.NominalPercentage = scoring.Percentage(attempt.Score, exam.TotalPoints)
	res.Grade = scoring.GradeFor(res.Percentage)
	res.Marked = len(attempt.MarkedQuestions)

	return &AttemptResult{
		Attempt:   *attempt,
		ExamTitle: exam.Title,
		Subject:   exam.Subject,
		Result:    res,
		Questions: questions,
	}, nil
}
