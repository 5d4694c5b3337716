package memory

import (
	"context"
	"testing"

	"quizpath-service/internal/domain"
)

func TestLedgerCompletedMembers(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	ledger := store.Ledger()

	for _, a := range []domain.Attempt{
		{UserID: 1, QuizID: 10, Completed: true},
		{UserID: 1, QuizID: 11, Completed: false},
		{UserID: 1, QuizID: 12, Completed: true},
		{UserID: 2, QuizID: 11, Completed: true},
	} {
		if _, err := ledger.Append(ctx, a); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	done, err := ledger.CompletedMembers(ctx, 1, []int64{12, 11, 10, 99})
	if err != nil {
		t.Fatalf("completed members: %v", err)
	}
	if len(done) != 2 || done[0] != 12 || done[1] != 10 {
		t.Fatalf("expected [12 10] in input order, got %v", done)
	}
}

func TestLedgerFirstCompletedPerQuiz(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	ledger := store.Ledger()

	for _, a := range []domain.Attempt{
		{UserID: 1, QuizID: 10, Completed: true, Value: 10},
		{UserID: 1, QuizID: 10, Completed: true, Value: 99},
		{UserID: 1, QuizID: 11, Completed: true, Value: 2},
	} {
		if _, err := ledger.Append(ctx, a); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	first, err := ledger.FirstCompleted(ctx, 1)
	if err != nil {
		t.Fatalf("first completed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 quizzes, got %d", len(first))
	}
	if first[0].QuizID != 10 || first[0].Value != 10 {
		t.Fatalf("expected the earliest completion per quiz, got %+v", first[0])
	}
}

func TestLedgerDeleteForQuizzes(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	ledger := store.Ledger()

	for _, a := range []domain.Attempt{
		{UserID: 1, QuizID: 10, Completed: true},
		{UserID: 1, QuizID: 11, Completed: true},
		{UserID: 2, QuizID: 10, Completed: true},
	} {
		if _, err := ledger.Append(ctx, a); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if err := ledger.DeleteForQuizzes(ctx, 1, []int64{10}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if got, _ := ledger.History(ctx, 1, 10); len(got) != 0 {
		t.Fatalf("expected user 1 attempts gone, got %d", len(got))
	}
	if got, _ := ledger.History(ctx, 2, 10); len(got) != 1 {
		t.Fatalf("expected user 2 attempts kept, got %d", len(got))
	}
	if got, _ := ledger.History(ctx, 1, 11); len(got) != 1 {
		t.Fatalf("expected other quiz attempts kept, got %d", len(got))
	}
}

func TestCloneIDsNeverCollideWithQuizzes(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	q1 := store.AddQuiz(domain.Quiz{Question: "a", CorrectAnswer: "a", Points: 5})
	q2 := store.AddQuiz(domain.Quiz{Question: "b", CorrectAnswer: "b", Points: 5})
	path := store.AddPath(domain.Path{Name: "p"}, q1.ID, q2.ID)

	members, err := store.Catalog().CreateClones(ctx, path.ID, 7, []domain.Quiz{q1, q2})
	if err != nil {
		t.Fatalf("create clones: %v", err)
	}
	seen := map[int64]bool{q1.ID: true, q2.ID: true, path.ID: true}
	for _, m := range members {
		if seen[m.ID] {
			t.Fatalf("clone id %d collides with an existing entity", m.ID)
		}
		seen[m.ID] = true
		if m.OriginalQuizID != q1.ID && m.OriginalQuizID != q2.ID {
			t.Fatalf("clone %d points at unknown original %d", m.ID, m.OriginalQuizID)
		}
	}
}

func TestProgressStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	progress := store.Progress()

	if _, err := progress.Get(ctx, 1, 2); err != domain.ErrPathNotAssigned {
		t.Fatalf("expected not assigned, got %v", err)
	}
	if err := progress.Put(ctx, domain.Progress{UserID: 1, PathID: 2}); err != domain.ErrPathNotAssigned {
		t.Fatalf("expected put to require an existing row, got %v", err)
	}

	if err := progress.Create(ctx, domain.Progress{UserID: 1, PathID: 2}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := progress.Create(ctx, domain.Progress{UserID: 1, PathID: 2}); err == nil {
		t.Fatalf("expected duplicate create to fail")
	}

	if err := progress.Put(ctx, domain.Progress{UserID: 1, PathID: 2, CompletedQuizzes: 3}); err != nil {
		t.Fatalf("put: %v", err)
	}
	row, err := progress.Get(ctx, 1, 2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.CompletedQuizzes != 3 {
		t.Fatalf("expected stored count 3, got %d", row.CompletedQuizzes)
	}

	if err := progress.Delete(ctx, 1, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := progress.Get(ctx, 1, 2); err != domain.ErrPathNotAssigned {
		t.Fatalf("expected row gone, got %v", err)
	}
}
