package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"quizpath-service/internal/domain"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID     int64  `bun:"id,pk,autoincrement"`
	Name   string `bun:"name"`
	Role   string `bun:"role"`
	Points int    `bun:"points"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{ID: r.ID, Name: r.Name, Role: domain.Role(r.Role), Points: r.Points}
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:q"`

	ID            int64    `bun:"id,pk,autoincrement"`
	Question      string   `bun:"question"`
	Options       []string `bun:"options,type:jsonb"`
	CorrectAnswer string   `bun:"correct_answer"`
	Explanation   string   `bun:"explanation"`
	Points        int      `bun:"points"`
	CreatorID     int64    `bun:"creator_id"`
}

func (r quizRow) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:            r.ID,
		Question:      r.Question,
		Options:       r.Options,
		CorrectAnswer: r.CorrectAnswer,
		Explanation:   r.Explanation,
		Points:        r.Points,
		CreatorID:     r.CreatorID,
	}
}

type pathRow struct {
	bun.BaseModel `bun:"table:paths,alias:p"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Name        string `bun:"name"`
	Description string `bun:"description"`
	BonusPoints int    `bun:"bonus_points"`
	CreatorID   int64  `bun:"creator_id"`
}

func (r pathRow) toDomain() domain.Path {
	return domain.Path{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		BonusPoints: r.BonusPoints,
		CreatorID:   r.CreatorID,
	}
}

type pathTemplateRow struct {
	bun.BaseModel `bun:"table:path_templates,alias:pt"`

	PathID   int64 `bun:"path_id,pk"`
	QuizID   int64 `bun:"quiz_id,pk"`
	Position int   `bun:"position"`
}

// pathQuizRow is a per-student clone of a template quiz inside a path. Its
// ID shares the quiz key sequence so ledger entries for clones can never
// collide with entries for template quizzes.
type pathQuizRow struct {
	bun.BaseModel `bun:"table:path_quizzes,alias:pq"`

	ID             int64    `bun:"id,pk,autoincrement"`
	PathID         int64    `bun:"path_id"`
	AssigneeID     int64    `bun:"assignee_id"`
	OriginalQuizID int64    `bun:"original_quiz_id"`
	Position       int      `bun:"position"`
	Question       string   `bun:"question"`
	Options        []string `bun:"options,type:jsonb"`
	CorrectAnswer  string   `bun:"correct_answer"`
	Explanation    string   `bun:"explanation"`
	Points         int      `bun:"points"`
}

func (r pathQuizRow) toMember() domain.QuizSetMember {
	return domain.QuizSetMember{
		ID:             r.ID,
		PathID:         r.PathID,
		OriginalQuizID: r.OriginalQuizID,
		Order:          r.Position,
		Quiz: domain.Quiz{
			ID:            r.ID,
			Question:      r.Question,
			Options:       r.Options,
			CorrectAnswer: r.CorrectAnswer,
			Explanation:   r.Explanation,
			Points:        r.Points,
		},
	}
}

type progressRow struct {
	bun.BaseModel `bun:"table:user_progress,alias:up"`

	UserID           int64 `bun:"user_id,pk"`
	PathID           int64 `bun:"path_id,pk"`
	CompletedQuizzes int   `bun:"completed_quizzes"`
	Completed        bool  `bun:"completed"`
	BonusAwarded     bool  `bun:"bonus_awarded"`
}

func (r progressRow) toDomain() domain.Progress {
	return domain.Progress{
		UserID:           r.UserID,
		PathID:           r.PathID,
		CompletedQuizzes: r.CompletedQuizzes,
		Completed:        r.Completed,
		BonusAwarded:     r.BonusAwarded,
	}
}

type attemptRow struct {
	bun.BaseModel `bun:"table:quiz_attempts,alias:qa"`

	ID           int64     `bun:"id,pk,autoincrement"`
	RequestID    string    `bun:"request_id"`
	UserID       int64     `bun:"user_id"`
	QuizID       int64     `bun:"quiz_id"`
	Answer       string    `bun:"answer"`
	Correct      bool      `bun:"correct"`
	PointsEarned int       `bun:"points_earned"`
	Value        int       `bun:"value"`
	Completed    bool      `bun:"completed"`
	CreatedAt    time.Time `bun:"created_at,nullzero,default:now()"`
}

func (r attemptRow) toDomain() domain.Attempt {
	return domain.Attempt{
		ID:           r.ID,
		RequestID:    r.RequestID,
		UserID:       r.UserID,
		QuizID:       r.QuizID,
		Answer:       r.Answer,
		Correct:      r.Correct,
		PointsEarned: r.PointsEarned,
		Value:        r.Value,
		Completed:    r.Completed,
		CreatedAt:    r.CreatedAt,
	}
}

func attemptFromDomain(a domain.Attempt) attemptRow {
	return attemptRow{
		ID:           a.ID,
		RequestID:    a.RequestID,
		UserID:       a.UserID,
		QuizID:       a.QuizID,
		Answer:       a.Answer,
		Correct:      a.Correct,
		PointsEarned: a.PointsEarned,
		Value:        a.Value,
		Completed:    a.Completed,
		CreatedAt:    a.CreatedAt,
	}
}
