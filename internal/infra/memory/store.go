package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"quizpath-service/internal/app"
	"quizpath-service/internal/domain"
)

// Store is an in-memory implementation of app.Store. Transaction scopes are
// per-user mutexes: two scopes for the same user serialize, scopes for
// different users run independently. There is no rollback; unit tests and
// the no-database server mode are its audience.
type Store struct {
	ids atomic.Int64

	mu    sync.Mutex
	locks map[int64]*sync.Mutex

	ledger   *ledgerStore
	accounts *accountStore
	progress *progressStore
	catalog  *catalogStore
}

func NewStore() *Store {
	s := &Store{locks: make(map[int64]*sync.Mutex)}
	s.ledger = &ledgerStore{nextID: s.nextID}
	s.accounts = &accountStore{users: make(map[int64]domain.User)}
	s.progress = &progressStore{rows: make(map[progressKey]domain.Progress)}
	s.catalog = &catalogStore{
		nextID:    s.nextID,
		quizzes:   make(map[int64]domain.Quiz),
		paths:     make(map[int64]domain.Path),
		templates: make(map[int64][]int64),
		clones:    make(map[cloneKey][]domain.QuizSetMember),
	}
	return s
}

// nextID hands out IDs from one sequence for every entity, so quiz keys in
// the ledger never collide between template quizzes and quiz-set clones.
func (s *Store) nextID() int64 { return s.ids.Add(1) }

func (s *Store) Ledger() app.Ledger          { return s.ledger }
func (s *Store) Accounts() app.Accounts      { return s.accounts }
func (s *Store) Progress() app.ProgressStore { return s.progress }
func (s *Store) Catalog() app.Catalog        { return s.catalog }

func (s *Store) InTx(ctx context.Context, userID int64, fn func(app.Repos) error) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()
	return fn(s)
}

func (s *Store) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// AddUser seeds an account, assigning an ID when none is set.
func (s *Store) AddUser(u domain.User) domain.User {
	if u.ID == 0 {
		u.ID = s.nextID()
	}
	s.accounts.mu.Lock()
	defer s.accounts.mu.Unlock()
	s.accounts.users[u.ID] = u
	return u
}

// AddQuiz seeds a template quiz.
func (s *Store) AddQuiz(q domain.Quiz) domain.Quiz {
	if q.ID == 0 {
		q.ID = s.nextID()
	}
	s.catalog.mu.Lock()
	defer s.catalog.mu.Unlock()
	s.catalog.quizzes[q.ID] = q
	return q
}

// AddPath seeds a path template with its ordered quiz membership.
func (s *Store) AddPath(p domain.Path, quizIDs ...int64) domain.Path {
	if p.ID == 0 {
		p.ID = s.nextID()
	}
	s.catalog.mu.Lock()
	defer s.catalog.mu.Unlock()
	s.catalog.paths[p.ID] = p
	s.catalog.templates[p.ID] = append([]int64(nil), quizIDs...)
	return p
}

// SetTemplateQuizzes replaces a path template's quiz membership. Existing
// clones and progress rows are untouched: template edits never reach an
// in-flight assignment.
func (s *Store) SetTemplateQuizzes(pathID int64, quizIDs ...int64) {
	s.catalog.mu.Lock()
	defer s.catalog.mu.Unlock()
	s.catalog.templates[pathID] = append([]int64(nil), quizIDs...)
}

// LoadQuiz exposes the catalog as a quiz-content loader, so the no-database
// server mode can sit behind the same cache as the postgres loader.
func (s *Store) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	return s.catalog.LoadQuiz(ctx, quizID)
}

type accountStore struct {
	mu    sync.RWMutex
	users map[int64]domain.User
}

func (a *accountStore) User(_ context.Context, id int64) (domain.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	u, ok := a.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (a *accountStore) AddPoints(_ context.Context, id int64, delta int) (domain.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	u.Points += delta
	if u.Points < 0 {
		u.Points = 0
	}
	a.users[id] = u
	return u, nil
}

type progressKey struct {
	userID int64
	pathID int64
}

type progressStore struct {
	mu   sync.RWMutex
	rows map[progressKey]domain.Progress
}

func (p *progressStore) Get(_ context.Context, userID, pathID int64) (domain.Progress, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	row, ok := p.rows[progressKey{userID, pathID}]
	if !ok {
		return domain.Progress{}, domain.ErrPathNotAssigned
	}
	return row, nil
}

func (p *progressStore) Put(_ context.Context, progress domain.Progress) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := progressKey{progress.UserID, progress.PathID}
	if _, ok := p.rows[key]; !ok {
		return domain.ErrPathNotAssigned
	}
	p.rows[key] = progress
	return nil
}

func (p *progressStore) Create(_ context.Context, progress domain.Progress) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := progressKey{progress.UserID, progress.PathID}
	if _, ok := p.rows[key]; ok {
		return fmt.Errorf("progress already exists for user %d path %d", progress.UserID, progress.PathID)
	}
	p.rows[key] = progress
	return nil
}

func (p *progressStore) Delete(_ context.Context, userID, pathID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.rows, progressKey{userID, pathID})
	return nil
}
