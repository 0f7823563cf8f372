package app

import (
	"sync"

	"classroom-quiz-service/internal/domain"
)

// ResultsFeed fans scored-attempt events out to per-quiz subscribers, for
// dashboards that watch results arrive live.
type ResultsFeed struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan domain.AttemptResult]struct{}
}

func NewResultsFeed() *ResultsFeed {
	return &ResultsFeed{
		subscribers: make(map[string]map[chan domain.AttemptResult]struct{}),
	}
}

// Subscribe returns a channel that receives result events for a quiz. The
// caller must invoke the returned cancel function to avoid leaks.
func (f *ResultsFeed) Subscribe(quizID string) (<-chan domain.AttemptResult, func()) {
	ch := make(chan domain.AttemptResult, 8)

	f.mu.Lock()
	subs, ok := f.subscribers[quizID]
	if !ok {
		subs = make(map[chan domain.AttemptResult]struct{})
		f.subscribers[quizID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if subs, ok := f.subscribers[quizID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(f.subscribers, quizID)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber of its quiz. Slow
// subscribers lose their oldest pending event instead of blocking the
// publisher.
func (f *ResultsFeed) Publish(result domain.AttemptResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[result.QuizID] {
		select {
		case ch <- result:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- result
		}
	}
}
