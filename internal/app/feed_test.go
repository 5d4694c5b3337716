package app_test

import (
	"testing"
	"time"

	"quizpath-service/internal/app"
	"quizpath-service/internal/domain"
)

func TestProgressFeedDelivers(t *testing.T) {
	feed := app.NewProgressFeed()
	ch, cancel := feed.Subscribe(1, 2)
	defer cancel()

	feed.Publish(1, domain.ProgressView{PathID: 2, CompletedQuizzes: 3})

	select {
	case view := <-ch:
		if view.CompletedQuizzes != 3 {
			t.Fatalf("expected 3 completed, got %+v", view)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected an update")
	}

	// Other pairs never see it.
	other, cancelOther := feed.Subscribe(1, 9)
	defer cancelOther()
	feed.Publish(1, domain.ProgressView{PathID: 2})
	select {
	case view := <-other:
		t.Fatalf("unexpected update %+v", view)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestProgressFeedCancelCloses(t *testing.T) {
	feed := app.NewProgressFeed()
	ch, cancel := feed.Subscribe(1, 2)
	cancel()

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}

	// Publishing after cancel must not panic.
	feed.Publish(1, domain.ProgressView{PathID: 2})
}
