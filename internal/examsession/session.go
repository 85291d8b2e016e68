// Package examsession holds the in-memory state of one exam being taken:
// the question snapshot, the answer sheet, marks, navigation and the
// countdown that forces submission when time runs out.
package examsession

import (
	"errors"
	"sync"
	"time"

	"exam_portal_backend/internal/model"
)

type State string

const (
	NotStarted State = "not_started"
	InProgress State = "in_progress"
	Submitted  State = "submitted"
	// Abandoned sessions never produce an attempt.
	Abandoned State = "abandoned"
)

type QuestionStatus string

const (
	StatusAnswered   QuestionStatus = "answered"
	StatusMarked     QuestionStatus = "marked"
	StatusCurrent    QuestionStatus = "current"
	StatusUnanswered QuestionStatus = "unanswered"
)

// DefaultMaxQuestions caps the snapshot taken at start.
const DefaultMaxQuestions = 50

var (
	ErrNotInProgress   = errors.New("exam session is not in progress")
	ErrAlreadyStarted  = errors.New("exam session already started")
	ErrNoQuestions     = errors.New("no questions available for this exam")
	ErrInvalidOption   = errors.New("answer option out of range")
	ErrIndexOutOfRange = errors.New("question index out of range")
)

// Outcome is the frozen answer sheet handed to scoring on submission.
type Outcome struct {
	SessionID   string
	UserID      string
	Exam        model.Exam
	Questions   []model.Question
	Answers     map[string]int
	Marked      []string
	TimeSpent   int // seconds
	TimedOut    bool
	SubmittedAt time.Time
}

type Config struct {
	ID     string
	UserID string
	Exam   model.Exam
	// Questions is the pool for the exam's subject in collection order.
	Questions    []model.Question
	MaxQuestions int
	Tick         time.Duration
	Now          func() time.Time
	// OnSubmit runs exactly once, outside the session lock, for both manual
	// and timed-out submissions.
	OnSubmit func(Outcome)
}

type Session struct {
	mu  sync.Mutex
	cfg Config

	state     State
	questions []model.Question
	current   int
	answers   map[string]int
	marked    []string
	remaining int
	startedAt time.Time
	outcome   *Outcome

	stop     chan struct{}
	stopOnce sync.Once
	subs     map[chan Event]struct{}
}

func New(cfg Config) *Session {
	if cfg.MaxQuestions <= 0 {
		cfg.MaxQuestions = DefaultMaxQuestions
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Session{
		cfg:     cfg,
		state:   NotStarted,
		answers: make(map[string]int),
		stop:    make(chan struct{}),
		subs:    make(map[chan Event]struct{}),
	}
}

func (s *Session) ID() string     { return s.cfg.ID }
func (s *Session) UserID() string { return s.cfg.UserID }

// Start snapshots the question set and starts the countdown.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != NotStarted {
		return ErrAlreadyStarted
	}
	if len(s.cfg.Questions) == 0 {
		return ErrNoQuestions
	}
	n := len(s.cfg.Questions)
	if n > s.cfg.MaxQuestions {
		n = s.cfg.MaxQuestions
	}
	s.questions = make([]model.Question, n)
	copy(s.questions, s.cfg.Questions[:n])
	s.current = 0
	s.remaining = s.cfg.Exam.DurationSeconds()
	s.startedAt = s.cfg.Now()
	s.state = InProgress

	go s.run()
	return nil
}

func (s *Session) run() {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Session) tick() {
	s.mu.Lock()
	if s.state != InProgress {
		s.mu.Unlock()
		return
	}
	s.remaining--
	if s.remaining > 0 {
		remaining := s.remaining
		s.mu.Unlock()
		s.publish(Event{Type: EventTick, TimeRemaining: remaining})
		return
	}
	s.remaining = 0
	out := s.finishLocked(true)
	s.mu.Unlock()
	s.complete(out)
}

// finishLocked freezes the sheet. Caller holds s.mu.
func (s *Session) finishLocked(timedOut bool) Outcome {
	s.state = Submitted
	answers := make(map[string]int, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	marked := make([]string, len(s.marked))
	copy(marked, s.marked)
	out := Outcome{
		SessionID:   s.cfg.ID,
		UserID:      s.cfg.UserID,
		Exam:        s.cfg.Exam,
		Questions:   s.questions,
		Answers:     answers,
		Marked:      marked,
		TimeSpent:   s.cfg.Exam.DurationSeconds() - s.remaining,
		TimedOut:    timedOut,
		SubmittedAt: s.cfg.Now(),
	}
	s.outcome = &out
	return out
}

func (s *Session) complete(out Outcome) {
	s.stopTimer()
	if s.cfg.OnSubmit != nil {
		s.cfg.OnSubmit(out)
	}
	s.closeSubscribers(Event{Type: EventSubmitted, TimeRemaining: s.cfg.Exam.DurationSeconds() - out.TimeSpent, TimedOut: out.TimedOut})
}

func (s *Session) stopTimer() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Session) SelectAnswer(option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != InProgress {
		return ErrNotInProgress
	}
	q := s.questions[s.current]
	if option < 0 || option >= len(q.Options) {
		return ErrInvalidOption
	}
	s.answers[q.ID] = option
	return nil
}

// ToggleMark flips the review flag of the current question.
func (s *Session) ToggleMark() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != InProgress {
		return false, ErrNotInProgress
	}
	id := s.questions[s.current].ID
	for i, m := range s.marked {
		if m == id {
			s.marked = append(s.marked[:i], s.marked[i+1:]...)
			return false, nil
		}
	}
	s.marked = append(s.marked, id)
	return true, nil
}

func (s *Session) Next() (int, error)     { return s.move(1) }
func (s *Session) Previous() (int, error) { return s.move(-1) }

func (s *Session) move(delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != InProgress {
		return s.current, ErrNotInProgress
	}
	i := s.current + delta
	if i < 0 {
		i = 0
	}
	if i > len(s.questions)-1 {
		i = len(s.questions) - 1
	}
	s.current = i
	return i, nil
}

func (s *Session) JumpTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != InProgress {
		return ErrNotInProgress
	}
	if index < 0 || index >= len(s.questions) {
		return ErrIndexOutOfRange
	}
	s.current = index
	return nil
}

type SubmitPrompt struct {
	Total        int  `json:"total"`
	Answered     int  `json:"answered"`
	Unanswered   int  `json:"unanswered"`
	NeedsConfirm bool `json:"needsConfirm"`
}

// RequestSubmit reports what a confirmation step has to show. It does not
// change state; cancelling is simply not calling Submit.
func (s *Session) RequestSubmit() (SubmitPrompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != InProgress {
		return SubmitPrompt{}, ErrNotInProgress
	}
	answered := s.answeredLocked()
	p := SubmitPrompt{
		Total:      len(s.questions),
		Answered:   answered,
		Unanswered: len(s.questions) - answered,
	}
	p.NeedsConfirm = p.Unanswered > 0
	return p, nil
}

func (s *Session) answeredLocked() int {
	n := 0
	for _, q := range s.questions {
		if _, ok := s.answers[q.ID]; ok {
			n++
		}
	}
	return n
}

func (s *Session) Submit() (Outcome, error) {
	s.mu.Lock()
	if s.state != InProgress {
		s.mu.Unlock()
		return Outcome{}, ErrNotInProgress
	}
	out := s.finishLocked(false)
	s.mu.Unlock()
	s.complete(out)
	return out, nil
}

// Abandon drops the session without producing an attempt. Calling it on a
// finished session is a no-op.
func (s *Session) Abandon() bool {
	s.mu.Lock()
	if s.state == Submitted || s.state == Abandoned {
		s.mu.Unlock()
		return false
	}
	s.state = Abandoned
	remaining := s.remaining
	s.mu.Unlock()
	s.stopTimer()
	s.closeSubscribers(Event{Type: EventAbandoned, TimeRemaining: remaining})
	return true
}

// Status derives the navigator colour of question i. Answered wins over
// marked, marked over current.
func (s *Session) Status(i int) (QuestionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.questions) {
		return "", ErrIndexOutOfRange
	}
	return s.statusLocked(i), nil
}

func (s *Session) statusLocked(i int) QuestionStatus {
	id := s.questions[i].ID
	if _, ok := s.answers[id]; ok {
		return StatusAnswered
	}
	for _, m := range s.marked {
		if m == id {
			return StatusMarked
		}
	}
	if i == s.current {
		return StatusCurrent
	}
	return StatusUnanswered
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outcome returns the frozen sheet once the session has been submitted.
func (s *Session) Outcome() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return Outcome{}, false
	}
	return *s.outcome, true
}
