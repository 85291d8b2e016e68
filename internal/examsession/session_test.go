package examsession

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"exam_portal_backend/internal/model"
)

func pool(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:            fmt.Sprintf("q%d", i),
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: 1,
			Points:        10,
		}
	}
	return qs
}

func newSession(t *testing.T, n int, onSubmit func(Outcome)) *Session {
	t.Helper()
	s := New(Config{
		ID:        "s1",
		UserID:    "u1",
		Exam:      model.Exam{ID: "mathematics-exam-1", Duration: 90, TotalPoints: 500},
		Questions: pool(n),
		Tick:      time.Hour,
		OnSubmit:  onSubmit,
	})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { s.Abandon() })
	return s
}

func TestStartRequiresQuestions(t *testing.T) {
	s := New(Config{Exam: model.Exam{Duration: 1}})
	if err := s.Start(); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("err = %v, want ErrNoQuestions", err)
	}
	if s.State() != NotStarted {
		t.Errorf("state = %s, want %s", s.State(), NotStarted)
	}
}

func TestStartSnapshotsAtMostFifty(t *testing.T) {
	s := newSession(t, 70, nil)
	v := s.Snapshot()
	if v.Total != 50 {
		t.Errorf("total = %d, want 50", v.Total)
	}
	if v.Questions[0].ID != "q0" || v.Questions[49].ID != "q49" {
		t.Errorf("snapshot not in collection order: %s..%s", v.Questions[0].ID, v.Questions[49].ID)
	}
	if v.TimeRemaining != 90*60 {
		t.Errorf("timeRemaining = %d, want %d", v.TimeRemaining, 90*60)
	}
	if err := s.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start err = %v", err)
	}
}

func TestNavigationClamps(t *testing.T) {
	s := newSession(t, 3, nil)
	if i, _ := s.Previous(); i != 0 {
		t.Errorf("Previous at 0 = %d", i)
	}
	s.Next()
	s.Next()
	if i, _ := s.Next(); i != 2 {
		t.Errorf("Next past end = %d, want 2", i)
	}
	if err := s.JumpTo(3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("JumpTo(3) err = %v", err)
	}
	if err := s.JumpTo(0); err != nil {
		t.Fatalf("JumpTo(0): %v", err)
	}
	if got := s.Snapshot().CurrentIndex; got != 0 {
		t.Errorf("current = %d, want 0", got)
	}
}

func TestSelectAnswerOverwrites(t *testing.T) {
	s := newSession(t, 2, nil)
	if err := s.SelectAnswer(4); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("SelectAnswer(4) err = %v", err)
	}
	s.SelectAnswer(0)
	s.SelectAnswer(3)
	v := s.Snapshot()
	if v.Answers["q0"] != 3 || len(v.Answers) != 1 {
		t.Errorf("answers = %v", v.Answers)
	}
	if v.CurrentIndex != 0 {
		t.Errorf("answering moved the pointer to %d", v.CurrentIndex)
	}
}

func TestToggleMarkIsInvolution(t *testing.T) {
	s := newSession(t, 2, nil)
	before := s.Snapshot().Marked
	if on, _ := s.ToggleMark(); !on {
		t.Fatal("first toggle should mark")
	}
	if on, _ := s.ToggleMark(); on {
		t.Fatal("second toggle should unmark")
	}
	if after := s.Snapshot().Marked; len(after) != len(before) {
		t.Errorf("marked = %v, want %v", after, before)
	}
}

func TestStatusPrecedence(t *testing.T) {
	s := newSession(t, 4, nil)
	// q0 answered and marked, q1 marked, q2 current, q3 untouched
	s.SelectAnswer(1)
	s.ToggleMark()
	s.Next()
	s.ToggleMark()
	s.Next()

	want := []QuestionStatus{StatusAnswered, StatusMarked, StatusCurrent, StatusUnanswered}
	for i, w := range want {
		got, err := s.Status(i)
		if err != nil {
			t.Fatalf("Status(%d): %v", i, err)
		}
		if got != w {
			t.Errorf("Status(%d) = %s, want %s", i, got, w)
		}
	}
}

func TestRequestSubmitCountsUnanswered(t *testing.T) {
	s := newSession(t, 3, nil)
	s.SelectAnswer(1)
	p, err := s.RequestSubmit()
	if err != nil {
		t.Fatal(err)
	}
	if p.Unanswered != 2 || !p.NeedsConfirm {
		t.Errorf("prompt = %+v", p)
	}
	if s.State() != InProgress {
		t.Errorf("RequestSubmit changed state to %s", s.State())
	}
}

func TestSubmitRunsCallbackOnceAndFreezes(t *testing.T) {
	calls := 0
	s := newSession(t, 2, func(Outcome) { calls++ })
	s.SelectAnswer(2)
	out, err := s.Submit()
	if err != nil {
		t.Fatal(err)
	}
	if out.TimedOut || out.Answers["q0"] != 2 {
		t.Errorf("outcome = %+v", out)
	}
	if _, err := s.Submit(); !errors.Is(err, ErrNotInProgress) {
		t.Errorf("second Submit err = %v", err)
	}
	if err := s.SelectAnswer(0); !errors.Is(err, ErrNotInProgress) {
		t.Errorf("SelectAnswer after submit err = %v", err)
	}
	if s.Abandon() {
		t.Error("Abandon after submit should be a no-op")
	}
	if calls != 1 {
		t.Errorf("OnSubmit calls = %d, want 1", calls)
	}
}

func TestCountdownAutoSubmits(t *testing.T) {
	done := make(chan Outcome, 2)
	s := New(Config{
		ID:        "s1",
		Exam:      model.Exam{ID: "e1", Duration: 1},
		Questions: pool(3),
		Tick:      time.Millisecond,
		OnSubmit:  func(o Outcome) { done <- o },
	})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.SelectAnswer(1)

	select {
	case out := <-done:
		if !out.TimedOut {
			t.Error("outcome should be marked timed out")
		}
		if out.TimeSpent != 60 {
			t.Errorf("timeSpent = %d, want 60", out.TimeSpent)
		}
		if out.Answers["q0"] != 1 {
			t.Errorf("answers = %v", out.Answers)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("countdown never submitted")
	}
	if s.State() != Submitted {
		t.Errorf("state = %s", s.State())
	}
	if v := s.Snapshot(); v.TimeRemaining != 0 {
		t.Errorf("timeRemaining = %d", v.TimeRemaining)
	}

	select {
	case <-done:
		t.Fatal("OnSubmit fired twice")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCountdownWithNoAnswers(t *testing.T) {
	done := make(chan Outcome, 1)
	s := New(Config{
		Exam:      model.Exam{Duration: 1},
		Questions: pool(1),
		Tick:      time.Millisecond,
		OnSubmit:  func(o Outcome) { done <- o },
	})
	s.Start()
	select {
	case out := <-done:
		if len(out.Answers) != 0 || !out.TimedOut {
			t.Errorf("outcome = %+v", out)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("countdown never submitted")
	}
}

func TestAbandonStopsCountdown(t *testing.T) {
	submitted := make(chan struct{}, 1)
	s := New(Config{
		Exam:      model.Exam{Duration: 1},
		Questions: pool(1),
		Tick:      time.Millisecond,
		OnSubmit:  func(Outcome) { submitted <- struct{}{} },
	})
	s.Start()
	if !s.Abandon() {
		t.Fatal("Abandon on running session returned false")
	}
	select {
	case <-submitted:
		t.Fatal("abandoned session submitted")
	case <-time.After(150 * time.Millisecond):
	}
	if s.State() != Abandoned {
		t.Errorf("state = %s", s.State())
	}
}

func TestSubscribeReceivesTerminalEvent(t *testing.T) {
	s := newSession(t, 1, nil)
	events, cancel := s.Subscribe()
	defer cancel()
	s.Submit()

	var last Event
	for ev := range events {
		last = ev
	}
	if last.Type != EventSubmitted {
		t.Errorf("last event = %+v", last)
	}

	late, _ := s.Subscribe()
	ev, ok := <-late
	if !ok || ev.Type != EventSubmitted {
		t.Errorf("late subscriber got %+v, %v", ev, ok)
	}
}
