package app

import (
	"context"
	"fmt"

	"quizpath-service/internal/domain"
)

// SubmitPathAttempt records a student's answer to a quiz-set member of an
// assigned path. Scoring, the ledger append, the balance delta, the progress
// recompute, and a possible completion bonus all commit in one per-user
// transaction scope.
func (e *Engine) SubmitPathAttempt(ctx context.Context, user domain.User, pathID, memberID int64, answer, requestID string) (domain.PathSubmitResult, error) {
	if user.Role != domain.RoleStudent {
		return domain.PathSubmitResult{}, fmt.Errorf("submit path attempt: %w", domain.ErrForbidden)
	}
	if requestID == "" {
		requestID = e.newRequestID()
	}

	var result domain.PathSubmitResult
	err := e.store.InTx(ctx, user.ID, func(r Repos) error {
		path, err := r.Catalog().Path(ctx, pathID)
		if err != nil {
			return fmt.Errorf("load path: %w", err)
		}
		progress, err := r.Progress().Get(ctx, user.ID, pathID)
		if err != nil {
			return err
		}
		set, err := r.Catalog().QuizSet(ctx, pathID, user.ID)
		if err != nil {
			return fmt.Errorf("load quiz-set: %w", err)
		}
		member, ok := set.Member(memberID)
		if !ok {
			return fmt.Errorf("member %d: %w", memberID, domain.ErrNotInPath)
		}

		res, completedNow, err := e.recordAttempt(ctx, r, user, member.Quiz, member.ID, answer, requestID)
		if err != nil {
			return err
		}

		if completedNow {
			progress, err = e.settleProgress(ctx, r, user.ID, path, set, progress)
			if err != nil {
				return err
			}
			if progress.Completed && progress.BonusAwarded {
				account, err := r.Accounts().User(ctx, user.ID)
				if err != nil {
					return fmt.Errorf("read account: %w", err)
				}
				res.UserPoints = account.Points
			}
		}

		result = domain.PathSubmitResult{
			SubmitResult: res,
			Progress:     progressView(progress, len(set.Members)),
		}
		return nil
	})
	if err != nil {
		return domain.PathSubmitResult{}, err
	}
	return result, nil
}

// OnQuizCompleted syncs a path's progress after the student completed one
// of its quizzes elsewhere (the shared quiz-set flow, where the member key
// is the template quiz itself). Calling it again after completion is a
// no-op; the bonus is never re-awarded.
func (e *Engine) OnQuizCompleted(ctx context.Context, user domain.User, pathID, quizID int64) (domain.ProgressView, error) {
	if user.Role != domain.RoleStudent {
		return domain.ProgressView{}, fmt.Errorf("complete quiz in path: %w", domain.ErrForbidden)
	}

	var view domain.ProgressView
	err := e.store.InTx(ctx, user.ID, func(r Repos) error {
		path, err := r.Catalog().Path(ctx, pathID)
		if err != nil {
			return fmt.Errorf("load path: %w", err)
		}
		progress, err := r.Progress().Get(ctx, user.ID, pathID)
		if err != nil {
			return err
		}
		set, err := r.Catalog().QuizSet(ctx, pathID, user.ID)
		if err != nil {
			return fmt.Errorf("load quiz-set: %w", err)
		}
		if !memberOf(set, quizID) {
			return fmt.Errorf("quiz %d: %w", quizID, domain.ErrNotInPath)
		}

		progress, err = e.settleProgress(ctx, r, user.ID, path, set, progress)
		if err != nil {
			return err
		}
		view = progressView(progress, len(set.Members))
		return nil
	})
	if err != nil {
		return domain.ProgressView{}, err
	}
	return view, nil
}

// settleProgress recomputes the completed count from the ledger, persists
// it, and settles the one-time completion bonus on the false-to-true
// transition of the completed flag. It never trusts the stored counter:
// drift cannot survive a recompute.
func (e *Engine) settleProgress(ctx context.Context, r Repos, userID int64, path domain.Path, set domain.QuizSet, progress domain.Progress) (domain.Progress, error) {
	done, err := r.Ledger().CompletedMembers(ctx, userID, set.MemberIDs())
	if err != nil {
		return progress, fmt.Errorf("recompute progress: %w", err)
	}
	progress.CompletedQuizzes = len(done)

	if progress.CompletedQuizzes == len(set.Members) && len(set.Members) > 0 && !progress.Completed {
		progress.Completed = true
		if !progress.BonusAwarded {
			progress.BonusAwarded = true
			if path.BonusPoints > 0 {
				if _, err := r.Accounts().AddPoints(ctx, userID, path.BonusPoints); err != nil {
					return progress, fmt.Errorf("award bonus: %w", err)
				}
			}
		}
	}

	if err := r.Progress().Put(ctx, progress); err != nil {
		return progress, fmt.Errorf("store progress: %w", err)
	}
	return progress, nil
}

// PathProgress reports a student's progress on a path. Students may only
// read their own; parents and admins may read any student's.
func (e *Engine) PathProgress(ctx context.Context, actor domain.User, studentID, pathID int64) (domain.ProgressView, error) {
	if actor.Role == domain.RoleStudent && actor.ID != studentID {
		return domain.ProgressView{}, fmt.Errorf("path progress: %w", domain.ErrForbidden)
	}

	progress, err := e.store.Progress().Get(ctx, studentID, pathID)
	if err != nil {
		return domain.ProgressView{}, err
	}
	set, err := e.store.Catalog().QuizSet(ctx, pathID, studentID)
	if err != nil {
		return domain.ProgressView{}, fmt.Errorf("load quiz-set: %w", err)
	}
	done, err := e.store.Ledger().CompletedMembers(ctx, studentID, set.MemberIDs())
	if err != nil {
		return domain.ProgressView{}, fmt.Errorf("recompute progress: %w", err)
	}
	progress.CompletedQuizzes = len(done)
	return progressView(progress, len(set.Members)), nil
}

func progressView(p domain.Progress, total int) domain.ProgressView {
	return domain.ProgressView{
		PathID:           p.PathID,
		CompletedQuizzes: p.CompletedQuizzes,
		TotalQuizzes:     total,
		Completed:        p.Completed,
		BonusAwarded:     p.BonusAwarded,
	}
}

// memberOf reports set membership by either the member key or the original
// quiz the member was cloned from.
func memberOf(set domain.QuizSet, quizID int64) bool {
	for _, m := range set.Members {
		if m.ID == quizID || m.OriginalQuizID == quizID {
			return true
		}
	}
	return false
}
