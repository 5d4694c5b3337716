package app

import (
	"testing"

	"quizpath-service/internal/domain"
)

func TestDecaySequence(t *testing.T) {
	values := []int{}
	v := 10
	for i := 0; i < 5; i++ {
		v = decay(v, 10)
		values = append(values, v)
	}
	want := []int{5, 2, 1, 1, 1}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("decay step %d: expected %d, got %d", i, want[i], values[i])
		}
	}
}

func TestDecayZeroBasePaysNothing(t *testing.T) {
	if got := decay(0, 0); got != 0 {
		t.Fatalf("expected 0 for zero-point quiz, got %d", got)
	}
	out := ScoreSubmission(nil, "a", "a", 0)
	if !out.Correct || out.Awarded != 0 || out.Value != 0 {
		t.Fatalf("zero-point quiz should award nothing, got %+v", out)
	}
}

func TestScoreFirstTryAwardsFullPoints(t *testing.T) {
	out := ScoreSubmission(nil, "4", "4", 10)
	if !out.Correct || out.Awarded != 10 || out.Value != 10 || out.AlreadyCompleted {
		t.Fatalf("expected full award on first try, got %+v", out)
	}
}

func TestScoreWrongAnswersHalveValue(t *testing.T) {
	history := []domain.Attempt{}
	answers := []struct {
		answer    string
		wantAward int
		wantValue int
	}{
		{"guess-1", 0, 5},
		{"guess-2", 0, 2},
		{"guess-3", 0, 1},
		{"4", 1, 1},
	}
	for i, step := range answers {
		out := ScoreSubmission(history, step.answer, "4", 10)
		if out.Awarded != step.wantAward || out.Value != step.wantValue {
			t.Fatalf("step %d: expected award=%d value=%d, got %+v", i, step.wantAward, step.wantValue, out)
		}
		history = append(history, attemptFromOutcome(out, step.answer))
	}
}

func TestScoreAfterCompletionEarnsNothing(t *testing.T) {
	history := []domain.Attempt{
		{Answer: "4", Correct: true, PointsEarned: 10, Value: 10, Completed: true},
	}
	out := ScoreSubmission(history, "4", "4", 10)
	if !out.Correct || out.Awarded != 0 || !out.AlreadyCompleted {
		t.Fatalf("expected zero award after completion, got %+v", out)
	}
	if out.Value != 10 {
		t.Fatalf("expected frozen value 10, got %d", out.Value)
	}

	// A wrong answer after completion must not decay the frozen value.
	out = ScoreSubmission(history, "5", "4", 10)
	if out.Correct || out.Value != 10 || !out.AlreadyCompleted {
		t.Fatalf("expected frozen value on wrong answer, got %+v", out)
	}
}

// TestScoreLedgerMatchesReplay drives random-ish answer sequences through
// both scoring paths and holds their outcomes equal: resuming from the
// (completed, latest) pair must be indistinguishable from a full replay.
func TestScoreLedgerMatchesReplay(t *testing.T) {
	sequences := [][]string{
		{"4"},
		{"x", "4"},
		{"x", "x", "x", "x", "4", "4", "x"},
		{"x", "x", "x", "x", "x", "x"},
		{"4", "x", "4"},
	}
	for _, base := range []int{10, 7, 1, 0} {
		for si, seq := range sequences {
			var history []domain.Attempt
			for step, answer := range seq {
				replay := ScoreSubmission(history, answer, "4", base)

				var completed, latest *domain.Attempt
				for i := range history {
					if history[i].Completed && completed == nil {
						completed = &history[i]
					}
				}
				if len(history) > 0 {
					latest = &history[len(history)-1]
				}
				resumed := scoreLedger(completed, latest, answer, "4", base)

				if replay != resumed {
					t.Fatalf("base=%d seq=%d step=%d: replay %+v != resumed %+v", base, si, step, replay, resumed)
				}
				history = append(history, attemptFromOutcome(replay, answer))
			}
		}
	}
}

func attemptFromOutcome(out Outcome, answer string) domain.Attempt {
	return domain.Attempt{
		Answer:       answer,
		Correct:      out.Correct,
		PointsEarned: out.Awarded,
		Value:        out.Value,
		Completed:    out.Correct,
	}
}
