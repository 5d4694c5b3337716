package memory

import (
	"context"
	"testing"
	"time"

	"quizpath-service/internal/domain"
)

func TestQuizContentCaches(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[int64]domain.Quiz{
			1: sampleQuiz(),
		}),
	}
	content := NewQuizContent(loader, time.Minute)

	if _, err := content.GetQuiz(context.Background(), 1); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := content.GetQuiz(context.Background(), 1); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizContentUnknownQuiz(t *testing.T) {
	content := NewQuizContent(NewStaticQuizLoader(nil), time.Minute)
	if _, err := content.GetQuiz(context.Background(), 42); err != domain.ErrQuizNotFound {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:            1,
		Question:      "What is 2 + 2?",
		Options:       []string{"3", "4", "5"},
		CorrectAnswer: "4",
		Explanation:   "Two plus two makes four.",
		Points:        10,
	}
}
