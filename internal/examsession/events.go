package examsession

type EventType string

const (
	EventTick      EventType = "tick"
	EventSubmitted EventType = "submitted"
	EventAbandoned EventType = "abandoned"
)

type Event struct {
	Type          EventType `json:"type"`
	TimeRemaining int       `json:"timeRemaining"`
	TimedOut      bool      `json:"timedOut,omitempty"`
}

const subscriberBuffer = 8

// Subscribe returns a channel of countdown events. The channel is closed after
// the terminal event, or when cancel is called. Slow readers miss ticks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	s.mu.Lock()
	switch s.state {
	case Submitted, Abandoned:
		ev := Event{Type: EventAbandoned, TimeRemaining: s.remaining}
		if s.state == Submitted {
			ev.Type = EventSubmitted
			if s.outcome != nil {
				ev.TimedOut = s.outcome.TimedOut
			}
		}
		s.mu.Unlock()
		ch <- ev
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

func (s *Session) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Session) closeSubscribers(last Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- last:
		default:
			// make room for the terminal event
			select {
			case <-ch:
			default:
			}
			ch <- last
		}
		close(ch)
		delete(s.subs, ch)
	}
}
