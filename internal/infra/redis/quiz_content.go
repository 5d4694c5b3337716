package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizpath-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store (e.g., Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// QuizContent caches quiz content in Redis (hash per quiz) and falls back
// to a loader on cache miss. Stored as:
//
//	HSET quiz:{id}:content answer {correct} points {base} question {text}
//	     explanation {text} options {json array}
type QuizContent struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuizContent(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizContent {
	return &QuizContent{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizContent) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	key := c.contentKey(quizID)

	fields, err := c.client.HGetAll(ctx, key).Result()
	if err == nil && len(fields) > 0 {
		return buildQuizFromCache(quizID, fields), nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		fields, err := c.client.HGetAll(ctx, key).Result()
		if err == nil && len(fields) > 0 {
			return buildQuizFromCache(quizID, fields), nil
		}

		quiz, err := c.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		options, _ := json.Marshal(quiz.Options)
		pipe := c.client.Pipeline()
		pipe.HSet(ctx, key,
			"answer", quiz.CorrectAnswer,
			"points", quiz.Points,
			"question", quiz.Question,
			"explanation", quiz.Explanation,
			"options", string(options),
		)
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizContent) contentKey(quizID int64) string {
	return "quiz:" + strconv.FormatInt(quizID, 10) + ":content"
}

func buildQuizFromCache(quizID int64, fields map[string]string) domain.Quiz {
	quiz := domain.Quiz{
		ID:            quizID,
		Question:      fields["question"],
		CorrectAnswer: fields["answer"],
		Explanation:   fields["explanation"],
	}
	if p, err := strconv.Atoi(fields["points"]); err == nil {
		quiz.Points = p
	}
	if raw := fields["options"]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &quiz.Options)
	}
	return quiz
}

func (c *QuizContent) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
