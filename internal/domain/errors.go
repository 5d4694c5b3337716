package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrPathNotFound indicates the path does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrNotInPath is returned when a quiz is not a member of the path's quiz-set.
	ErrNotInPath = errors.New("quiz not in path")
	// ErrPathNotAssigned is returned when no progress row exists for the (user, path) pair.
	ErrPathNotAssigned = errors.New("path not assigned to student")
	// ErrUserNotFound indicates the account could not be resolved.
	ErrUserNotFound = errors.New("user not found")
	// ErrForbidden is returned when the actor's role does not permit the operation.
	ErrForbidden = errors.New("operation not permitted for this role")
)
