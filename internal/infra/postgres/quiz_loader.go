package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizpath-service/internal/domain"
)

// QuizLoader reads quiz content from Postgres for the content cache.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var (
		quiz    domain.Quiz
		rawOpts []byte
	)
	err := l.pool.QueryRow(ctx,
		`SELECT id, question, options, correct_answer, explanation, points, creator_id
		 FROM quizzes WHERE id=$1`, quizID).
		Scan(&quiz.ID, &quiz.Question, &rawOpts, &quiz.CorrectAnswer, &quiz.Explanation, &quiz.Points, &quiz.CreatorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if err := json.Unmarshal(rawOpts, &quiz.Options); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz options: %w", err)
	}
	return quiz, nil
}
