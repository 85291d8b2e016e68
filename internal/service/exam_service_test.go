package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"exam_portal_backend/internal/examsession"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/util"
)

func TestStartExamPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "ana@example.com")

	if _, err := f.exams.StartExam(ctx, u.ID, "1-exam-1"); !errors.Is(err, util.ErrNoQuestions) {
		t.Errorf("empty bank err = %v, want ErrNoQuestions", err)
	}
	if _, err := f.exams.StartExam(ctx, u.ID, "nope"); !errors.Is(err, util.ErrExamNotFound) {
		t.Errorf("unknown exam err = %v", err)
	}
	if _, err := f.exams.StartExam(ctx, "ghost", "1-exam-1"); !errors.Is(err, util.ErrUserNotFound) {
		t.Errorf("unknown user err = %v", err)
	}

	f.addQuestions(t, "1", 2)
	f.now = f.now.AddDate(0, 0, 3)
	if _, err := f.exams.StartExam(ctx, u.ID, "1-exam-1"); !errors.Is(err, util.ErrEntitlementExpired) {
		t.Errorf("expired trial err = %v, want ErrEntitlementExpired", err)
	}
}

func TestExamSubmitRecordsAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "ana@example.com")
	f.addQuestions(t, "1", 3)
	f.addQuestions(t, "2", 2)

	v, err := f.exams.StartExam(ctx, u.ID, "1-exam-4")
	if err != nil {
		t.Fatal(err)
	}
	if v.Total != 3 || v.State != examsession.InProgress || v.TimeRemaining != 90*60 {
		t.Fatalf("view = %+v", v)
	}
	if v.Current == nil || v.Current.ID != "1-q0" {
		t.Fatalf("current = %+v", v.Current)
	}

	f.exams.SelectAnswer(u.ID, v.ID, 1) // correct
	f.exams.Next(u.ID, v.ID)
	f.exams.SelectAnswer(u.ID, v.ID, 0) // wrong
	f.exams.ToggleMark(u.ID, v.ID)

	prompt, err := f.exams.RequestSubmit(u.ID, v.ID)
	if err != nil || prompt.Unanswered != 1 || !prompt.NeedsConfirm {
		t.Errorf("prompt = %+v, %v", prompt, err)
	}

	res, err := f.exams.Submit(ctx, u.ID, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	a := res.Attempt
	if a.ID != v.ID || a.Score != 10 || a.TotalPoints != 30 || a.TotalQuestions != 3 || a.TimedOut {
		t.Errorf("attempt = %+v", a)
	}
	if len(a.MarkedQuestions) != 1 || a.MarkedQuestions[0] != "1-q1" {
		t.Errorf("marked = %v", a.MarkedQuestions)
	}
	if res.Result.Percentage != 33 || res.Result.Grade.Letter != "F" || res.Result.NominalPercentage != 2 {
		t.Errorf("result = %+v", res.Result)
	}
	if res.Result.Correct != 1 || res.Result.Incorrect != 1 || res.Result.Unanswered != 1 {
		t.Errorf("counts = %+v", res.Result)
	}

	if _, err := f.exams.Current(u.ID); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("session should be released, err = %v", err)
	}
	history, _ := f.progress.ExamHistory(ctx, u.ID)
	if len(history) != 1 {
		t.Errorf("history = %d, want 1", len(history))
	}
}

func TestNewSessionAbandonsPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "ana@example.com")
	f.addQuestions(t, "1", 1)

	first, _ := f.exams.StartExam(ctx, u.ID, "1-exam-1")
	second, err := f.exams.StartExam(ctx, u.ID, "1-exam-2")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.exams.Session(u.ID, first.ID); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("first session still reachable: %v", err)
	}
	cur, err := f.exams.Current(u.ID)
	if err != nil || cur.ID() != second.ID {
		t.Errorf("current = %v, %v", cur, err)
	}
	attempts, _ := f.attempts.List(ctx)
	if len(attempts) != 0 {
		t.Errorf("abandoned session produced %d attempts", len(attempts))
	}
}

func TestSessionBelongsToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.register(t, "ana@example.com")
	bob := f.register(t, "bob@example.com")
	f.addQuestions(t, "1", 1)

	v, _ := f.exams.StartExam(ctx, ana.ID, "1-exam-1")
	if _, err := f.exams.SelectAnswer(bob.ID, v.ID, 0); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("foreign answer err = %v", err)
	}
	if err := f.exams.Abandon(bob.ID, v.ID); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("foreign abandon err = %v", err)
	}
	if err := f.exams.Abandon(ana.ID, v.ID); err != nil {
		t.Errorf("abandon: %v", err)
	}
}

func TestInvalidCommands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "ana@example.com")
	f.addQuestions(t, "1", 2)

	v, _ := f.exams.StartExam(ctx, u.ID, "1-exam-1")
	if _, err := f.exams.SelectAnswer(u.ID, v.ID, 7); !errors.Is(err, util.ErrInvalidOption) {
		t.Errorf("option 7 err = %v", err)
	}
	if _, err := f.exams.JumpTo(u.ID, v.ID, 2); !errors.Is(err, util.ErrQuestionOutOfRange) {
		t.Errorf("jump err = %v", err)
	}
	got, err := f.exams.JumpTo(u.ID, v.ID, 1)
	if err != nil || got.CurrentIndex != 1 {
		t.Errorf("jump = %d, %v", got.CurrentIndex, err)
	}
}

func TestExamTimesOut(t *testing.T) {
	f := newFixture(t)
	f.cfg.Session.TickInterval = time.Millisecond
	f.cfg.Content.ExamDurationMinutes = 1
	f.content = NewContentService(f.questions, f.cfg)
	f.exams.Content = f.content

	ctx := context.Background()
	u := f.register(t, "ana@example.com")
	f.addQuestions(t, "3", 2)

	v, err := f.exams.StartExam(ctx, u.ID, "3-exam-1")
	if err != nil {
		t.Fatal(err)
	}
	if v.TimeRemaining != 60 {
		t.Fatalf("timeRemaining = %d, want 60", v.TimeRemaining)
	}

	deadline := time.Now().Add(5 * time.Second)
	var attempt *model.ExamAttempt
	for time.Now().Before(deadline) {
		if a, err := f.attempts.FindByID(ctx, v.ID); err == nil {
			attempt = a
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if attempt == nil {
		t.Fatal("timed-out session was not recorded")
	}
	if !attempt.TimedOut || attempt.TimeSpent != 60 || attempt.Score != 0 || len(attempt.Answers) != 0 {
		t.Errorf("attempt = %+v", attempt)
	}
}

func TestResultIgnoresLaterBankEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "ana@example.com")
	f.addQuestions(t, "1", 2)

	v, err := f.exams.StartExam(ctx, u.ID, "1-exam-1")
	if err != nil {
		t.Fatal(err)
	}
	f.exams.SelectAnswer(u.ID, v.ID, 1)
	f.exams.Next(u.ID, v.ID)
	f.exams.SelectAnswer(u.ID, v.ID, 1)
	if _, err := f.exams.Submit(ctx, u.ID, v.ID); err != nil {
		t.Fatal(err)
	}

	key := 3
	if _, err := f.content.UpdateQuestion(ctx, "1-q0", model.QuestionPatch{CorrectAnswer: &key}); err != nil {
		t.Fatal(err)
	}
	if err := f.content.DeleteQuestion(ctx, "1-q1"); err != nil {
		t.Fatal(err)
	}

	res, err := f.exams.Result(ctx, u.ID, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	r := res.Result
	if r.Score != 20 || r.TotalPoints != 20 || r.Percentage != 100 || r.Grade.Letter != "A+" {
		t.Errorf("result = %+v", r)
	}
	if r.Correct != 2 || r.Incorrect != 0 || r.Unanswered != 0 {
		t.Errorf("counts = %d/%d/%d, want 2/0/0", r.Correct, r.Incorrect, r.Unanswered)
	}
	if r.Correct+r.Incorrect+r.Unanswered != res.Attempt.TotalQuestions {
		t.Errorf("counts do not add up to %d questions", res.Attempt.TotalQuestions)
	}
	if len(res.Questions) != 2 || res.Questions[0].CorrectAnswer != 1 || res.Questions[1].ID != "1-q1" {
		t.Errorf("questions = %+v", res.Questions)
	}
}
