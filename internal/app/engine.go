package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"quizpath-service/internal/domain"
)

// Ledger is the append-only attempt log for one storage backend. Reads are
// side-effect free; Append assigns the attempt ID and timestamp. The quiz
// key of an attempt is either a template quiz ID or a quiz-set member ID;
// the two draw from one ID space.
type Ledger interface {
	Append(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error)
	History(ctx context.Context, userID, quizID int64) ([]domain.Attempt, error)
	Latest(ctx context.Context, userID, quizID int64) (*domain.Attempt, error)
	CompletedAttempt(ctx context.Context, userID, quizID int64) (*domain.Attempt, error)
	ByRequestID(ctx context.Context, userID int64, requestID string) (*domain.Attempt, error)
	// CompletedMembers filters quizIDs down to those with at least one
	// completed attempt for the user.
	CompletedMembers(ctx context.Context, userID int64, quizIDs []int64) ([]int64, error)
	// FirstCompleted returns the earliest completed attempt per quiz for
	// the user, oldest first.
	FirstCompleted(ctx context.Context, userID int64) ([]domain.Attempt, error)
	// DeleteForQuizzes drops the user's attempts against the given quiz
	// keys. Only path reassignment uses this; normal operation never
	// deletes ledger entries.
	DeleteForQuizzes(ctx context.Context, userID int64, quizIDs []int64) error
}

// Accounts reads and mutates user point balances.
type Accounts interface {
	User(ctx context.Context, id int64) (domain.User, error)
	// AddPoints applies a delta to the balance, flooring at zero, and
	// returns the updated user.
	AddPoints(ctx context.Context, id int64, delta int) (domain.User, error)
}

// ProgressStore holds the one mutable progress row per (user, path).
type ProgressStore interface {
	Get(ctx context.Context, userID, pathID int64) (domain.Progress, error)
	Put(ctx context.Context, progress domain.Progress) error
	Create(ctx context.Context, progress domain.Progress) error
	Delete(ctx context.Context, userID, pathID int64) error
}

// Catalog resolves quiz and path content and owns the quiz-set rows.
// QuizSet returns the student's private clones when they exist and falls
// back to the shared template set (member ID == quiz ID) otherwise.
type Catalog interface {
	Quiz(ctx context.Context, id int64) (domain.Quiz, error)
	Path(ctx context.Context, id int64) (domain.Path, error)
	TemplateQuizzes(ctx context.Context, pathID int64) ([]domain.Quiz, error)
	QuizSet(ctx context.Context, pathID, userID int64) (domain.QuizSet, error)
	CreateClones(ctx context.Context, pathID, userID int64, quizzes []domain.Quiz) ([]domain.QuizSetMember, error)
	DeleteClones(ctx context.Context, pathID, userID int64) error
}

// Repos bundles the stores that participate in one submission.
type Repos interface {
	Ledger() Ledger
	Accounts() Accounts
	Progress() ProgressStore
	Catalog() Catalog
}

// Store opens atomic scopes over the repositories. InTx serializes by user:
// two scopes for the same user never interleave, so the history read, the
// appended attempt, and the balance delta of one submission commit together
// against a stable baseline.
type Store interface {
	Repos
	InTx(ctx context.Context, userID int64, fn func(Repos) error) error
}

// QuizContent serves quiz reads outside the transaction scope, typically
// from a cache in front of the catalog.
type QuizContent interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// Engine contains the scoring and path progress use cases.
type Engine struct {
	store        Store
	content      QuizContent
	newRequestID func() string
}

func NewEngine(store Store, content QuizContent) *Engine {
	return &Engine{
		store:        store,
		content:      content,
		newRequestID: uuid.NewString,
	}
}

// User resolves an account by ID.
func (e *Engine) User(ctx context.Context, id int64) (domain.User, error) {
	return e.store.Accounts().User(ctx, id)
}

// quiz reads quiz content through the cache when one is wired.
func (e *Engine) quiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	if e.content != nil {
		return e.content.GetQuiz(ctx, quizID)
	}
	return e.store.Catalog().Quiz(ctx, quizID)
}

// SubmitAttempt records a student's answer to a standalone quiz: scores it
// against the attempt history, appends the ledger entry, and credits the
// points account, all in one per-user transaction scope. A repeated
// requestID echoes the originally recorded result instead of re-crediting.
func (e *Engine) SubmitAttempt(ctx context.Context, user domain.User, quizID int64, answer, requestID string) (domain.SubmitResult, error) {
	if user.Role != domain.RoleStudent {
		return domain.SubmitResult{}, fmt.Errorf("submit attempt: %w", domain.ErrForbidden)
	}
	quiz, err := e.quiz(ctx, quizID)
	if err != nil {
		return domain.SubmitResult{}, fmt.Errorf("submit attempt: %w", err)
	}
	if requestID == "" {
		requestID = e.newRequestID()
	}

	var result domain.SubmitResult
	err = e.store.InTx(ctx, user.ID, func(r Repos) error {
		res, _, err := e.recordAttempt(ctx, r, user, quiz, quiz.ID, answer, requestID)
		result = res
		return err
	})
	if err != nil {
		return domain.SubmitResult{}, err
	}
	return result, nil
}

// recordAttempt is the shared write path for standalone and path-scoped
// submissions. It must run inside an InTx scope for the submitting user.
// The returned bool reports whether this call recorded a new completion
// (first-time correct answer).
func (e *Engine) recordAttempt(ctx context.Context, r Repos, user domain.User, quiz domain.Quiz, quizKey int64, answer, requestID string) (domain.SubmitResult, bool, error) {
	ledger := r.Ledger()

	completed, err := ledger.CompletedAttempt(ctx, user.ID, quizKey)
	if err != nil {
		return domain.SubmitResult{}, false, fmt.Errorf("read completion: %w", err)
	}

	if prior, err := ledger.ByRequestID(ctx, user.ID, requestID); err != nil {
		return domain.SubmitResult{}, false, fmt.Errorf("dedupe request: %w", err)
	} else if prior != nil {
		account, err := r.Accounts().User(ctx, user.ID)
		if err != nil {
			return domain.SubmitResult{}, false, err
		}
		// Attempt IDs are monotonic: a completion recorded before the
		// echoed attempt means the quiz had already paid out then.
		already := completed != nil && completed.ID < prior.ID
		return resultFromAttempt(*prior, quiz, account.Points, already), false, nil
	}
	latest, err := ledger.Latest(ctx, user.ID, quizKey)
	if err != nil {
		return domain.SubmitResult{}, false, fmt.Errorf("read latest attempt: %w", err)
	}

	out := scoreLedger(completed, latest, answer, quiz.CorrectAnswer, quiz.Points)

	attempt, err := ledger.Append(ctx, domain.Attempt{
		RequestID:    requestID,
		UserID:       user.ID,
		QuizID:       quizKey,
		Answer:       answer,
		Correct:      out.Correct,
		PointsEarned: out.Awarded,
		Value:        out.Value,
		Completed:    out.Correct,
	})
	if err != nil {
		return domain.SubmitResult{}, false, fmt.Errorf("append attempt: %w", err)
	}

	account, err := e.credit(ctx, r, user.ID, out.Awarded)
	if err != nil {
		return domain.SubmitResult{}, false, err
	}

	completedNow := out.Correct && !out.AlreadyCompleted
	return resultFromAttempt(attempt, quiz, account.Points, out.AlreadyCompleted), completedNow, nil
}

func (e *Engine) credit(ctx context.Context, r Repos, userID int64, awarded int) (domain.User, error) {
	if awarded > 0 {
		account, err := r.Accounts().AddPoints(ctx, userID, awarded)
		if err != nil {
			return domain.User{}, fmt.Errorf("credit points: %w", err)
		}
		return account, nil
	}
	account, err := r.Accounts().User(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("read account: %w", err)
	}
	return account, nil
}

func resultFromAttempt(attempt domain.Attempt, quiz domain.Quiz, balance int, alreadyCompleted bool) domain.SubmitResult {
	res := domain.SubmitResult{
		AttemptID:         attempt.ID,
		RequestID:         attempt.RequestID,
		Correct:           attempt.Correct,
		PointsEarned:      attempt.PointsEarned,
		Completed:         attempt.Completed,
		AlreadyCompleted:  alreadyCompleted,
		CurrentQuizPoints: attempt.Value,
		UserPoints:        balance,
	}
	if attempt.Correct {
		res.Explanation = quiz.Explanation
	}
	return res
}

// CompletedQuizzes lists the quizzes the student has completed, each with
// its current (frozen) payable value.
func (e *Engine) CompletedQuizzes(ctx context.Context, user domain.User) ([]domain.CompletedQuiz, error) {
	attempts, err := e.store.Ledger().FirstCompleted(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("completed quizzes: %w", err)
	}
	out := make([]domain.CompletedQuiz, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, domain.CompletedQuiz{QuizID: a.QuizID, CurrentPoints: a.Value})
	}
	return out, nil
}
