package app

import (
	"sync"

	"quizpath-service/internal/domain"
)

type feedKey struct {
	userID int64
	pathID int64
}

// ProgressFeed fans progress updates out to subscribers of one student's
// path. Transports publish after a submission commits so every open
// connection for the same student converges on the new state.
type ProgressFeed struct {
	mu   sync.Mutex
	subs map[feedKey]map[chan domain.ProgressView]struct{}
}

func NewProgressFeed() *ProgressFeed {
	return &ProgressFeed{subs: make(map[feedKey]map[chan domain.ProgressView]struct{})}
}

// Subscribe returns a channel of progress updates for the (user, path)
// pair. The caller must invoke the returned cancel function to avoid leaks.
func (f *ProgressFeed) Subscribe(userID, pathID int64) (<-chan domain.ProgressView, func()) {
	ch := make(chan domain.ProgressView, 8)
	key := feedKey{userID, pathID}

	f.mu.Lock()
	if f.subs[key] == nil {
		f.subs[key] = make(map[chan domain.ProgressView]struct{})
	}
	f.subs[key][ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if set, ok := f.subs[key]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(f.subs, key)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an update to every subscriber of the pair. Slow
// consumers lose their oldest pending update rather than blocking the
// publisher.
func (f *ProgressFeed) Publish(userID int64, view domain.ProgressView) {
	key := feedKey{userID, view.PathID}

	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs[key] {
		select {
		case ch <- view:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}
