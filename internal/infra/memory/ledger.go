package memory

import (
	"context"
	"sync"
	"time"

	"quizpath-service/internal/domain"
)

// ledgerStore keeps attempts in submission order.
type ledgerStore struct {
	nextID func() int64

	mu       sync.RWMutex
	attempts []domain.Attempt
}

func (l *ledgerStore) Append(_ context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	attempt.ID = l.nextID()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}
	l.attempts = append(l.attempts, attempt)
	return attempt, nil
}

func (l *ledgerStore) History(_ context.Context, userID, quizID int64) ([]domain.Attempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domain.Attempt
	for _, a := range l.attempts {
		if a.UserID == userID && a.QuizID == quizID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (l *ledgerStore) Latest(_ context.Context, userID, quizID int64) (*domain.Attempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.attempts) - 1; i >= 0; i-- {
		if l.attempts[i].UserID == userID && l.attempts[i].QuizID == quizID {
			a := l.attempts[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (l *ledgerStore) CompletedAttempt(_ context.Context, userID, quizID int64) (*domain.Attempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, a := range l.attempts {
		if a.UserID == userID && a.QuizID == quizID && a.Completed {
			a := a
			return &a, nil
		}
	}
	return nil, nil
}

func (l *ledgerStore) ByRequestID(_ context.Context, userID int64, requestID string) (*domain.Attempt, error) {
	if requestID == "" {
		return nil, nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, a := range l.attempts {
		if a.UserID == userID && a.RequestID == requestID {
			a := a
			return &a, nil
		}
	}
	return nil, nil
}

func (l *ledgerStore) CompletedMembers(_ context.Context, userID int64, quizIDs []int64) ([]int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	done := make(map[int64]bool)
	for _, a := range l.attempts {
		if a.UserID == userID && a.Completed {
			done[a.QuizID] = true
		}
	}
	var out []int64
	for _, id := range quizIDs {
		if done[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (l *ledgerStore) FirstCompleted(_ context.Context, userID int64) ([]domain.Attempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	seen := make(map[int64]bool)
	var out []domain.Attempt
	for _, a := range l.attempts {
		if a.UserID == userID && a.Completed && !seen[a.QuizID] {
			seen[a.QuizID] = true
			out = append(out, a)
		}
	}
	return out, nil
}

func (l *ledgerStore) DeleteForQuizzes(_ context.Context, userID int64, quizIDs []int64) error {
	drop := make(map[int64]bool, len(quizIDs))
	for _, id := range quizIDs {
		drop[id] = true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.attempts[:0]
	for _, a := range l.attempts {
		if a.UserID == userID && drop[a.QuizID] {
			continue
		}
		kept = append(kept, a)
	}
	l.attempts = kept
	return nil
}
