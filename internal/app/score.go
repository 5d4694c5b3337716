package app

import "quizpath-service/internal/domain"

// Outcome describes the result of scoring a single submission against the
// attempt history for one (user, quiz) pair.
type Outcome struct {
	// Correct reports whether the submitted answer matched.
	Correct bool
	// Awarded is the amount to credit the user: the current payable value
	// on a first-time correct answer, zero otherwise.
	Awarded int
	// Value is the payable value after this attempt. Wrong answers halve
	// it; a completing answer freezes it. It is persisted on the attempt
	// row so later scoring can resume from the ledger instead of replaying.
	Value int
	// AlreadyCompleted is set when the quiz paid out on an earlier attempt,
	// in which case Awarded is zero regardless of correctness.
	AlreadyCompleted bool
}

// ScoreSubmission computes the outcome of a new answer given the prior
// attempts for the same (user, quiz) pair, oldest first.
//
// The payable value starts at basePoints and halves (integer division,
// never below 1) for every wrong answer. Once a correct attempt exists the
// quiz has paid out and every later attempt earns nothing. A quiz with zero
// base points pays nothing even on success; the floor at 1 only applies
// while decaying a positive value.
func ScoreSubmission(history []domain.Attempt, answer, correctAnswer string, basePoints int) Outcome {
	value := basePoints
	for _, prior := range history {
		if prior.Completed {
			// Frozen from the moment the quiz paid out.
			return scoreCompleted(prior.Value, answer, correctAnswer)
		}
		if !prior.Correct {
			value = decay(value, basePoints)
		}
	}
	return scoreOpen(value, answer, correctAnswer, basePoints)
}

// scoreLedger is the O(1) variant used inside the submission transaction:
// it resumes from the first completed attempt (if any) and the cached value
// on the most recent attempt, both single-row ledger reads. It produces the
// same outcome as a full ScoreSubmission replay; the tests hold them equal.
func scoreLedger(completed, latest *domain.Attempt, answer, correctAnswer string, basePoints int) Outcome {
	if completed != nil {
		return scoreCompleted(completed.Value, answer, correctAnswer)
	}
	value := basePoints
	if latest != nil {
		value = latest.Value
	}
	return scoreOpen(value, answer, correctAnswer, basePoints)
}

func scoreCompleted(frozen int, answer, correctAnswer string) Outcome {
	return Outcome{
		Correct:          answer == correctAnswer,
		Awarded:          0,
		Value:            frozen,
		AlreadyCompleted: true,
	}
}

func scoreOpen(value int, answer, correctAnswer string, basePoints int) Outcome {
	if answer == correctAnswer {
		return Outcome{Correct: true, Awarded: value, Value: value}
	}
	return Outcome{Correct: false, Awarded: 0, Value: decay(value, basePoints)}
}

// decay halves the payable value after a wrong answer. The floor at 1 only
// applies to quizzes that are worth something to begin with.
func decay(value, basePoints int) int {
	if basePoints <= 0 {
		return 0
	}
	value /= 2
	if value < 1 {
		return 1
	}
	return value
}
