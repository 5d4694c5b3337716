package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quizpath-service/internal/app"
	"quizpath-service/internal/domain"
)

// Store is the bun-backed implementation of app.Store. Plain reads run on
// the pool; InTx opens a transaction and takes a row lock on the user
// before running the callback, so scopes for one user serialize while other
// users proceed.
type Store struct {
	db *bun.DB
}

// Open builds a bun.DB over the Postgres DSN.
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ledger() app.Ledger          { return &ledgerRepo{db: s.db} }
func (s *Store) Accounts() app.Accounts      { return &accountRepo{db: s.db} }
func (s *Store) Progress() app.ProgressStore { return &progressRepo{db: s.db} }
func (s *Store) Catalog() app.Catalog        { return &catalogRepo{db: s.db} }

func (s *Store) InTx(ctx context.Context, userID int64, fn func(app.Repos) error) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// Per-user serialization: the user row is the lock key.
		var locked userRow
		err := tx.NewSelect().Model(&locked).Where("id = ?", userID).For("UPDATE").Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("lock user %d: %w", userID, err)
		}
		return fn(&txRepos{tx: tx})
	})
}

type txRepos struct {
	tx bun.Tx
}

func (r *txRepos) Ledger() app.Ledger          { return &ledgerRepo{db: r.tx} }
func (r *txRepos) Accounts() app.Accounts      { return &accountRepo{db: r.tx} }
func (r *txRepos) Progress() app.ProgressStore { return &progressRepo{db: r.tx} }
func (r *txRepos) Catalog() app.Catalog        { return &catalogRepo{db: r.tx} }

type ledgerRepo struct {
	db bun.IDB
}

func (l *ledgerRepo) Append(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	row := attemptFromDomain(attempt)
	if _, err := l.db.NewInsert().Model(&row).Returning("id, created_at").Exec(ctx); err != nil {
		return domain.Attempt{}, fmt.Errorf("insert attempt: %w", err)
	}
	return row.toDomain(), nil
}

func (l *ledgerRepo) History(ctx context.Context, userID, quizID int64) ([]domain.Attempt, error) {
	var rows []attemptRow
	err := l.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	out := make([]domain.Attempt, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (l *ledgerRepo) Latest(ctx context.Context, userID, quizID int64) (*domain.Attempt, error) {
	var row attemptRow
	err := l.db.NewSelect().Model(&row).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		Order("id DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select latest attempt: %w", err)
	}
	a := row.toDomain()
	return &a, nil
}

func (l *ledgerRepo) CompletedAttempt(ctx context.Context, userID, quizID int64) (*domain.Attempt, error) {
	var row attemptRow
	err := l.db.NewSelect().Model(&row).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		Where("completed").
		Order("id ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select completed attempt: %w", err)
	}
	a := row.toDomain()
	return &a, nil
}

func (l *ledgerRepo) ByRequestID(ctx context.Context, userID int64, requestID string) (*domain.Attempt, error) {
	if requestID == "" {
		return nil, nil
	}
	var row attemptRow
	err := l.db.NewSelect().Model(&row).
		Where("user_id = ?", userID).
		Where("request_id = ?", requestID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select attempt by request: %w", err)
	}
	a := row.toDomain()
	return &a, nil
}

func (l *ledgerRepo) CompletedMembers(ctx context.Context, userID int64, quizIDs []int64) ([]int64, error) {
	if len(quizIDs) == 0 {
		return nil, nil
	}
	var ids []int64
	err := l.db.NewSelect().Model((*attemptRow)(nil)).
		ColumnExpr("DISTINCT quiz_id").
		Where("user_id = ?", userID).
		Where("completed").
		Where("quiz_id IN (?)", bun.In(quizIDs)).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("select completed members: %w", err)
	}
	return ids, nil
}

func (l *ledgerRepo) FirstCompleted(ctx context.Context, userID int64) ([]domain.Attempt, error) {
	var rows []attemptRow
	err := l.db.NewSelect().Model(&rows).
		ColumnExpr("DISTINCT ON (quiz_id) *").
		Where("user_id = ?", userID).
		Where("completed").
		OrderExpr("quiz_id, id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select completed quizzes: %w", err)
	}
	out := make([]domain.Attempt, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (l *ledgerRepo) DeleteForQuizzes(ctx context.Context, userID int64, quizIDs []int64) error {
	if len(quizIDs) == 0 {
		return nil
	}
	_, err := l.db.NewDelete().Model((*attemptRow)(nil)).
		Where("user_id = ?", userID).
		Where("quiz_id IN (?)", bun.In(quizIDs)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete attempts: %w", err)
	}
	return nil
}

type accountRepo struct {
	db bun.IDB
}

func (a *accountRepo) User(ctx context.Context, id int64) (domain.User, error) {
	var row userRow
	err := a.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return row.toDomain(), nil
}

func (a *accountRepo) AddPoints(ctx context.Context, id int64, delta int) (domain.User, error) {
	var row userRow
	err := a.db.NewUpdate().Model(&row).
		Set("points = GREATEST(points + ?, 0)", delta).
		Where("id = ?", id).
		Returning("*").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("update points: %w", err)
	}
	return row.toDomain(), nil
}

type progressRepo struct {
	db bun.IDB
}

func (p *progressRepo) Get(ctx context.Context, userID, pathID int64) (domain.Progress, error) {
	var row progressRow
	err := p.db.NewSelect().Model(&row).
		Where("user_id = ?", userID).
		Where("path_id = ?", pathID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Progress{}, domain.ErrPathNotAssigned
	}
	if err != nil {
		return domain.Progress{}, fmt.Errorf("select progress: %w", err)
	}
	return row.toDomain(), nil
}

func (p *progressRepo) Put(ctx context.Context, progress domain.Progress) error {
	row := progressRow{
		UserID:           progress.UserID,
		PathID:           progress.PathID,
		CompletedQuizzes: progress.CompletedQuizzes,
		Completed:        progress.Completed,
		BonusAwarded:     progress.BonusAwarded,
	}
	res, err := p.db.NewUpdate().Model(&row).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrPathNotAssigned
	}
	return nil
}

func (p *progressRepo) Create(ctx context.Context, progress domain.Progress) error {
	row := progressRow{
		UserID:           progress.UserID,
		PathID:           progress.PathID,
		CompletedQuizzes: progress.CompletedQuizzes,
		Completed:        progress.Completed,
		BonusAwarded:     progress.BonusAwarded,
	}
	if _, err := p.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert progress: %w", err)
	}
	return nil
}

func (p *progressRepo) Delete(ctx context.Context, userID, pathID int64) error {
	_, err := p.db.NewDelete().Model((*progressRow)(nil)).
		Where("user_id = ?", userID).
		Where("path_id = ?", pathID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}

type catalogRepo struct {
	db bun.IDB
}

func (c *catalogRepo) Quiz(ctx context.Context, id int64) (domain.Quiz, error) {
	var row quizRow
	err := c.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("select quiz: %w", err)
	}
	return row.toDomain(), nil
}

func (c *catalogRepo) Path(ctx context.Context, id int64) (domain.Path, error) {
	var row pathRow
	err := c.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Path{}, domain.ErrPathNotFound
	}
	if err != nil {
		return domain.Path{}, fmt.Errorf("select path: %w", err)
	}
	return row.toDomain(), nil
}

func (c *catalogRepo) TemplateQuizzes(ctx context.Context, pathID int64) ([]domain.Quiz, error) {
	if _, err := c.Path(ctx, pathID); err != nil {
		return nil, err
	}
	var rows []quizRow
	err := c.db.NewSelect().Model(&rows).
		Join("JOIN path_templates AS pt ON pt.quiz_id = q.id").
		Where("pt.path_id = ?", pathID).
		OrderExpr("pt.position").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select template quizzes: %w", err)
	}
	out := make([]domain.Quiz, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (c *catalogRepo) QuizSet(ctx context.Context, pathID, userID int64) (domain.QuizSet, error) {
	var rows []pathQuizRow
	err := c.db.NewSelect().Model(&rows).
		Where("path_id = ?", pathID).
		Where("assignee_id = ?", userID).
		Order("position ASC").
		Scan(ctx)
	if err != nil {
		return domain.QuizSet{}, fmt.Errorf("select quiz-set clones: %w", err)
	}
	if len(rows) > 0 {
		set := domain.QuizSet{PathID: pathID}
		for _, row := range rows {
			set.Members = append(set.Members, row.toMember())
		}
		return set, nil
	}

	// Shared set: members reference the template quizzes directly.
	quizzes, err := c.TemplateQuizzes(ctx, pathID)
	if err != nil {
		return domain.QuizSet{}, err
	}
	set := domain.QuizSet{PathID: pathID}
	for i, q := range quizzes {
		set.Members = append(set.Members, domain.QuizSetMember{
			ID:             q.ID,
			PathID:         pathID,
			OriginalQuizID: q.ID,
			Order:          i,
			Quiz:           q,
		})
	}
	return set, nil
}

func (c *catalogRepo) CreateClones(ctx context.Context, pathID, userID int64, quizzes []domain.Quiz) ([]domain.QuizSetMember, error) {
	if len(quizzes) == 0 {
		return nil, nil
	}
	rows := make([]pathQuizRow, 0, len(quizzes))
	for i, q := range quizzes {
		rows = append(rows, pathQuizRow{
			PathID:         pathID,
			AssigneeID:     userID,
			OriginalQuizID: q.ID,
			Position:       i,
			Question:       q.Question,
			Options:        q.Options,
			CorrectAnswer:  q.CorrectAnswer,
			Explanation:    q.Explanation,
			Points:         q.Points,
		})
	}
	if _, err := c.db.NewInsert().Model(&rows).Returning("id").Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert quiz-set clones: %w", err)
	}
	members := make([]domain.QuizSetMember, 0, len(rows))
	for _, row := range rows {
		members = append(members, row.toMember())
	}
	return members, nil
}

func (c *catalogRepo) DeleteClones(ctx context.Context, pathID, userID int64) error {
	_, err := c.db.NewDelete().Model((*pathQuizRow)(nil)).
		Where("path_id = ?", pathID).
		Where("assignee_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete quiz-set clones: %w", err)
	}
	return nil
}
