package app

import (
	"context"
	"errors"
	"fmt"

	"quizpath-service/internal/domain"
)

// AssignOptions selects the quiz-set provider for one assignment.
type AssignOptions struct {
	// Clone gives the student a private copy of the path's quizzes, frozen
	// at assignment time. Without it the student tracks the shared
	// template set and standalone completions of its quizzes count.
	Clone bool
}

// AssignPath assigns a path to a student: it creates the zero progress row
// and, when cloning, snapshots the template quizzes into the student's
// private quiz-set. Assigning an already-assigned path is an explicit
// reassignment: the old progress row, the student's attempts against the
// old clones, and the clones themselves are discarded and rebuilt against
// the current template. Template edits alone never touch an assignment.
func (e *Engine) AssignPath(ctx context.Context, actor domain.User, studentID, pathID int64, opts AssignOptions) error {
	if actor.Role != domain.RoleParent && actor.Role != domain.RoleAdmin {
		return fmt.Errorf("assign path: %w", domain.ErrForbidden)
	}

	return e.store.InTx(ctx, studentID, func(r Repos) error {
		path, err := r.Catalog().Path(ctx, pathID)
		if err != nil {
			return fmt.Errorf("assign path: %w", err)
		}
		if actor.Role == domain.RoleParent && path.CreatorID != actor.ID {
			return fmt.Errorf("assign path: not the creator: %w", domain.ErrForbidden)
		}
		student, err := r.Accounts().User(ctx, studentID)
		if err != nil {
			return fmt.Errorf("assign path: %w", err)
		}
		if student.Role != domain.RoleStudent {
			return fmt.Errorf("assign path: assignee is not a student: %w", domain.ErrForbidden)
		}

		// The bonus pays at most once per (user, path) ever, so the flag
		// survives a reassignment even though everything else resets.
		bonusAwarded := false
		if prior, err := r.Progress().Get(ctx, studentID, pathID); err == nil {
			bonusAwarded = prior.BonusAwarded
			if err := e.discardAssignment(ctx, r, studentID, pathID); err != nil {
				return err
			}
		} else if !errors.Is(err, domain.ErrPathNotAssigned) {
			return fmt.Errorf("assign path: %w", err)
		}

		if opts.Clone {
			quizzes, err := r.Catalog().TemplateQuizzes(ctx, pathID)
			if err != nil {
				return fmt.Errorf("assign path: %w", err)
			}
			if _, err := r.Catalog().CreateClones(ctx, pathID, studentID, quizzes); err != nil {
				return fmt.Errorf("clone quiz-set: %w", err)
			}
		}

		if err := r.Progress().Create(ctx, domain.Progress{UserID: studentID, PathID: pathID, BonusAwarded: bonusAwarded}); err != nil {
			return fmt.Errorf("create progress: %w", err)
		}
		return nil
	})
}

// discardAssignment tears down an existing assignment: progress row, the
// student's attempts against the old clones, and the clone rows. Attempts
// against shared template quizzes stay in the ledger; they belong to the
// quizzes, not the assignment.
func (e *Engine) discardAssignment(ctx context.Context, r Repos, studentID, pathID int64) error {
	set, err := r.Catalog().QuizSet(ctx, pathID, studentID)
	if err != nil {
		return fmt.Errorf("load quiz-set: %w", err)
	}
	cloned := make([]int64, 0, len(set.Members))
	for _, m := range set.Members {
		if m.ID != m.OriginalQuizID {
			cloned = append(cloned, m.ID)
		}
	}
	if len(cloned) > 0 {
		if err := r.Ledger().DeleteForQuizzes(ctx, studentID, cloned); err != nil {
			return fmt.Errorf("drop old attempts: %w", err)
		}
	}
	if err := r.Catalog().DeleteClones(ctx, pathID, studentID); err != nil {
		return fmt.Errorf("drop old clones: %w", err)
	}
	if err := r.Progress().Delete(ctx, studentID, pathID); err != nil {
		return fmt.Errorf("drop old progress: %w", err)
	}
	return nil
}

// UnassignPath removes a path assignment. The progress row goes away;
// ledger entries stay (orphaned for clones, still live for shared quizzes).
func (e *Engine) UnassignPath(ctx context.Context, actor domain.User, studentID, pathID int64) error {
	if actor.Role != domain.RoleParent && actor.Role != domain.RoleAdmin {
		return fmt.Errorf("unassign path: %w", domain.ErrForbidden)
	}

	return e.store.InTx(ctx, studentID, func(r Repos) error {
		path, err := r.Catalog().Path(ctx, pathID)
		if err != nil {
			return fmt.Errorf("unassign path: %w", err)
		}
		if actor.Role == domain.RoleParent && path.CreatorID != actor.ID {
			return fmt.Errorf("unassign path: not the creator: %w", domain.ErrForbidden)
		}
		if _, err := r.Progress().Get(ctx, studentID, pathID); err != nil {
			return fmt.Errorf("unassign path: %w", err)
		}
		if err := r.Progress().Delete(ctx, studentID, pathID); err != nil {
			return fmt.Errorf("unassign path: %w", err)
		}
		return nil
	})
}
