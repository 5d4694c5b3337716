package memory

import (
	"context"
	"sync"

	"quizpath-service/internal/domain"
)

type cloneKey struct {
	pathID int64
	userID int64
}

// catalogStore holds path templates, their quiz membership, and per-student
// quiz-set clones.
type catalogStore struct {
	nextID func() int64

	mu        sync.RWMutex
	quizzes   map[int64]domain.Quiz
	paths     map[int64]domain.Path
	templates map[int64][]int64
	clones    map[cloneKey][]domain.QuizSetMember
}

func (c *catalogStore) Quiz(_ context.Context, id int64) (domain.Quiz, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return q, nil
}

// LoadQuiz satisfies the content-cache loader contract with the same read.
func (c *catalogStore) LoadQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	return c.Quiz(ctx, id)
}

func (c *catalogStore) Path(_ context.Context, id int64) (domain.Path, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.paths[id]
	if !ok {
		return domain.Path{}, domain.ErrPathNotFound
	}
	return p, nil
}

func (c *catalogStore) TemplateQuizzes(_ context.Context, pathID int64) ([]domain.Quiz, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.paths[pathID]; !ok {
		return nil, domain.ErrPathNotFound
	}
	ids := c.templates[pathID]
	out := make([]domain.Quiz, 0, len(ids))
	for _, id := range ids {
		if q, ok := c.quizzes[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (c *catalogStore) QuizSet(_ context.Context, pathID, userID int64) (domain.QuizSet, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.paths[pathID]; !ok {
		return domain.QuizSet{}, domain.ErrPathNotFound
	}
	if members, ok := c.clones[cloneKey{pathID, userID}]; ok {
		return domain.QuizSet{PathID: pathID, Members: append([]domain.QuizSetMember(nil), members...)}, nil
	}
	// Shared set: members reference the template quizzes directly.
	set := domain.QuizSet{PathID: pathID}
	for i, id := range c.templates[pathID] {
		q, ok := c.quizzes[id]
		if !ok {
			continue
		}
		set.Members = append(set.Members, domain.QuizSetMember{
			ID:             q.ID,
			PathID:         pathID,
			OriginalQuizID: q.ID,
			Order:          i,
			Quiz:           q,
		})
	}
	return set, nil
}

func (c *catalogStore) CreateClones(_ context.Context, pathID, userID int64, quizzes []domain.Quiz) ([]domain.QuizSetMember, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	members := make([]domain.QuizSetMember, 0, len(quizzes))
	for i, q := range quizzes {
		clone := q
		clone.ID = c.nextID()
		members = append(members, domain.QuizSetMember{
			ID:             clone.ID,
			PathID:         pathID,
			OriginalQuizID: q.ID,
			Order:          i,
			Quiz:           clone,
		})
	}
	c.clones[cloneKey{pathID, userID}] = members
	return append([]domain.QuizSetMember(nil), members...), nil
}

func (c *catalogStore) DeleteClones(_ context.Context, pathID, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.clones, cloneKey{pathID, userID})
	return nil
}
