package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quizpath-service/internal/app"
	"quizpath-service/internal/domain"
	"quizpath-service/internal/infra/memory"
)

func TestWebSocketAnswerFlow(t *testing.T) {
	store := memory.NewStore()
	parent := store.AddUser(domain.User{Name: "Pat", Role: domain.RoleParent})
	student := store.AddUser(domain.User{Name: "Sam", Role: domain.RoleStudent})
	quiz := store.AddQuiz(domain.Quiz{
		Question:      "What is 2 + 2?",
		Options:       []string{"3", "4", "5"},
		CorrectAnswer: "4",
		Explanation:   "Two plus two makes four.",
		Points:        10,
		CreatorID:     parent.ID,
	})
	path := store.AddPath(domain.Path{Name: "Starter", BonusPoints: 5, CreatorID: parent.ID}, quiz.ID)

	engine := app.NewEngine(store, nil)
	if err := engine.AssignPath(context.Background(), parent, student.ID, path.ID, app.AssignOptions{}); err != nil {
		t.Fatalf("assign path: %v", err)
	}
	wsHandler := NewWSHandler(engine, app.NewProgressFeed())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?userId=" + strconv.FormatInt(student.ID, 10) + "&pathId=" + strconv.FormatInt(path.ID, 10)
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the progress snapshot first.
	msgType, payload := readNext(conn, t, "progress")
	if msgType != "progress" {
		t.Fatalf("expected progress, got %s", msgType)
	}
	if payload == nil {
		t.Fatalf("expected progress payload, got nil")
	}

	// Send an answer.
	answer := map[string]any{
		"type": "answer",
		"payload": map[string]any{
			"quizId": quiz.ID,
			"answer": "4",
		},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	// Expect answerResult then progress.
	answerSeen := false
	progressSeen := false
	for i := 0; i < 3; i++ {
		typ, body := readNext(conn, t, "")
		switch typ {
		case "answerResult":
			answerSeen = true
			if correct, _ := body["correct"].(bool); !correct {
				t.Fatalf("expected correct answer, got %+v", body)
			}
			if earned, _ := body["pointsEarned"].(float64); earned != 10 {
				t.Fatalf("expected 10 points earned, got %+v", body)
			}
		case "progress":
			progressSeen = true
			if done, _ := body["completedQuizzes"].(float64); done != 1 {
				t.Fatalf("expected 1 completed quiz, got %+v", body)
			}
			if completed, _ := body["completed"].(bool); !completed {
				t.Fatalf("expected completed path, got %+v", body)
			}
		}
		if answerSeen && progressSeen {
			break
		}
	}
	if !answerSeen || !progressSeen {
		t.Fatalf("expected answerResult and progress, got answerResult=%v progress=%v", answerSeen, progressSeen)
	}
}

func TestWebSocketRejectsMissingParams(t *testing.T) {
	store := memory.NewStore()
	wsHandler := NewWSHandler(app.NewEngine(store, nil), app.NewProgressFeed())

	server := httptest.NewServer(http.HandlerFunc(wsHandler.ServeWS))
	defer server.Close()

	resp, err := http.Get(server.URL + "?userId=1")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
