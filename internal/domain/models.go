package domain

import "time"

// Role classifies platform accounts. Only students hold points.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleParent  Role = "parent"
	RoleStudent Role = "student"
)

// User is the engine's view of an account: identity, role, and the
// cumulative point balance the engine mutates.
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Points int    `json:"points"`
}

// Quiz is a single question with its option set, the correct answer, and
// the base point reward paid on a first-time correct answer.
type Quiz struct {
	ID            int64    `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
	Points        int      `json:"points"`
	CreatorID     int64    `json:"creatorId"`
}

// Attempt is one recorded answer submission. Attempts are append-only:
// recorded once per submission and never updated afterwards.
//
// PointsEarned is the amount actually credited to the user (zero for wrong
// answers and for anything after the quiz first paid out). Value caches the
// payable point value after this attempt so the next scoring pass can start
// from the latest row instead of replaying the whole history.
type Attempt struct {
	ID           int64     `json:"id"`
	RequestID    string    `json:"requestId,omitempty"`
	UserID       int64     `json:"userId"`
	QuizID       int64     `json:"quizId"`
	Answer       string    `json:"answer"`
	Correct      bool      `json:"correct"`
	PointsEarned int       `json:"pointsEarned"`
	Value        int       `json:"value"`
	Completed    bool      `json:"completed"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Path is an ordered curriculum of quizzes with a one-time completion bonus.
type Path struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	BonusPoints int    `json:"bonusPoints"`
	CreatorID   int64  `json:"creatorId"`
}

// QuizSetMember is one entry of a path's quiz-set. The member ID is the
// attempt correlation key; OriginalQuizID points back at the template quiz
// the member was derived from. Quiz holds the content snapshot: for cloned
// sets it is a private copy frozen at assignment time, for shared sets it is
// the template itself (and the member ID equals the quiz ID).
type QuizSetMember struct {
	ID             int64 `json:"id"`
	PathID         int64 `json:"pathId"`
	OriginalQuizID int64 `json:"originalQuizId"`
	Order          int   `json:"order"`
	Quiz           Quiz  `json:"quiz"`
}

// QuizSet is the resolved quiz-set of a path for one student.
type QuizSet struct {
	PathID  int64           `json:"pathId"`
	Members []QuizSetMember `json:"members"`
}

// Member returns the quiz-set entry with the given member ID.
func (s QuizSet) Member(memberID int64) (QuizSetMember, bool) {
	for _, m := range s.Members {
		if m.ID == memberID {
			return m, true
		}
	}
	return QuizSetMember{}, false
}

// MemberIDs returns the correlation keys of every quiz-set entry.
func (s QuizSet) MemberIDs() []int64 {
	ids := make([]int64, 0, len(s.Members))
	for _, m := range s.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// Progress is the per-user-per-path aggregate: how many distinct quiz-set
// members have a completed attempt, whether the whole set is done, and
// whether the completion bonus has been paid.
type Progress struct {
	UserID           int64 `json:"userId"`
	PathID           int64 `json:"pathId"`
	CompletedQuizzes int   `json:"completedQuizzes"`
	Completed        bool  `json:"completed"`
	BonusAwarded     bool  `json:"bonusAwarded"`
}

// SubmitResult summarizes the outcome of one answer submission.
type SubmitResult struct {
	AttemptID         int64  `json:"attemptId"`
	RequestID         string `json:"requestId"`
	Correct           bool   `json:"correct"`
	PointsEarned      int    `json:"pointsEarned"`
	Completed         bool   `json:"completed"`
	AlreadyCompleted  bool   `json:"alreadyCompleted"`
	CurrentQuizPoints int    `json:"currentQuizPoints"`
	UserPoints        int    `json:"userPoints"`
	Explanation       string `json:"explanation,omitempty"`
}

// PathSubmitResult is a SubmitResult plus the progress state it produced.
type PathSubmitResult struct {
	SubmitResult
	Progress ProgressView `json:"progress"`
}

// ProgressView is the caller-facing projection of Progress.
type ProgressView struct {
	PathID           int64 `json:"pathId"`
	CompletedQuizzes int   `json:"completedQuizzes"`
	TotalQuizzes     int   `json:"totalQuizzes"`
	Completed        bool  `json:"completed"`
	BonusAwarded     bool  `json:"bonusAwarded"`
}

// CompletedQuiz pairs a completed quiz with its current payable value.
type CompletedQuiz struct {
	QuizID        int64 `json:"quizId"`
	CurrentPoints int   `json:"currentPoints"`
}
