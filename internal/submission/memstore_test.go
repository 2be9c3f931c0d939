package submission

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gokatarajesh/mathquest/internal/db/repository"
)

type progressKey struct {
	userID, lessonID int64
}

// memStore is an in-memory Store. Transactions run one at a time against a
// private copy of the state that replaces the shared state on success.
type memStore struct {
	mu          sync.Mutex
	lessons     map[int64]repository.Lesson
	users       map[int64]repository.User
	progress    map[progressKey]repository.Progress
	attempts    map[string]repository.Attempt
	submissions []repository.Submission
	nextSubID   int64

	failInsert   error
	failLookup   error
	onGetAttempt func()
}

func newMemStore() *memStore {
	return &memStore{
		lessons:  map[int64]repository.Lesson{},
		users:    map[int64]repository.User{},
		progress: map[progressKey]repository.Progress{},
		attempts: map[string]repository.Attempt{},
	}
}

func (m *memStore) addLesson(l repository.Lesson) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lessons[l.ID] = l
}

func (m *memStore) addUser(u repository.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *memStore) user(id int64) repository.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

func (m *memStore) submissionsFor(attemptID string) []repository.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.Submission
	for _, s := range m.submissions {
		if s.AttemptID == attemptID {
			out = append(out, s)
		}
	}
	return out
}

func (m *memStore) GetAttempt(_ context.Context, attemptID string) (repository.Attempt, error) {
	if m.onGetAttempt != nil {
		m.onGetAttempt()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLookup != nil {
		return repository.Attempt{}, m.failLookup
	}
	a, ok := m.attempts[attemptID]
	if !ok {
		return repository.Attempt{}, repository.ErrNotFound
	}
	return a, nil
}

func (m *memStore) GetLesson(_ context.Context, lessonID int64) (repository.Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lessons[lessonID]
	if !ok {
		return repository.Lesson{}, repository.ErrNotFound
	}
	return l, nil
}

func (m *memStore) GetUser(_ context.Context, userID int64) (repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memStore) GetProgress(_ context.Context, userID, lessonID int64) (repository.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[progressKey{userID, lessonID}]
	if !ok {
		return repository.Progress{}, repository.ErrNotFound
	}
	return p, nil
}

func (m *memStore) CountCorrectByAttempt(_ context.Context, attemptID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.submissions {
		if s.AttemptID == attemptID && s.IsCorrect {
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListSubmissionsByAttempt(ctx context.Context, attemptID string) ([]repository.Submission, error) {
	subs := m.submissionsFor(attemptID)
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}

func (m *memStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		store:       m,
		users:       make(map[int64]repository.User, len(m.users)),
		progress:    make(map[progressKey]repository.Progress, len(m.progress)),
		attempts:    make(map[string]repository.Attempt, len(m.attempts)),
		submissions: append([]repository.Submission(nil), m.submissions...),
		nextSubID:   m.nextSubID,
	}
	for k, v := range m.users {
		tx.users[k] = v
	}
	for k, v := range m.progress {
		tx.progress[k] = v
	}
	for k, v := range m.attempts {
		tx.attempts[k] = v
	}

	if err := fn(tx); err != nil {
		return err
	}

	m.users = tx.users
	m.progress = tx.progress
	m.attempts = tx.attempts
	m.submissions = tx.submissions
	m.nextSubID = tx.nextSubID
	return nil
}

type memTx struct {
	store       *memStore
	users       map[int64]repository.User
	progress    map[progressKey]repository.Progress
	attempts    map[string]repository.Attempt
	submissions []repository.Submission
	nextSubID   int64
}

func (t *memTx) CreateAttempt(_ context.Context, a repository.Attempt) (bool, error) {
	if _, exists := t.attempts[a.ID]; exists {
		return false, nil
	}
	t.attempts[a.ID] = a
	return true, nil
}

func (t *memTx) LockUser(_ context.Context, userID int64) (repository.User, error) {
	u, ok := t.users[userID]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (t *memTx) UpdateUserStats(_ context.Context, arg repository.UpdateUserStatsParams) (repository.User, error) {
	u, ok := t.users[arg.UserID]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	day := arg.LastActivityDate
	u.TotalXP = arg.TotalXP
	u.CurrentStreak = arg.CurrentStreak
	u.BestStreak = arg.BestStreak
	u.LastActivityDate = &day
	t.users[arg.UserID] = u
	return u, nil
}

func (t *memTx) UpsertProgress(_ context.Context, arg repository.UpsertProgressParams) (repository.Progress, error) {
	at := arg.LastAttemptAt
	p := repository.Progress{
		UserID:            arg.UserID,
		LessonID:          arg.LessonID,
		ProblemsCompleted: arg.ProblemsCompleted,
		TotalProblems:     arg.TotalProblems,
		ProgressPercent:   arg.ProgressPercent,
		Completed:         arg.Completed,
		LastAttemptAt:     &at,
	}
	t.progress[progressKey{arg.UserID, arg.LessonID}] = p
	return p, nil
}

func (t *memTx) InsertSubmissions(_ context.Context, subs []repository.Submission) error {
	if t.store.failInsert != nil {
		return t.store.failInsert
	}
	for _, s := range subs {
		for _, existing := range t.submissions {
			if existing.AttemptID == s.AttemptID && existing.ProblemID == s.ProblemID {
				return fmt.Errorf("duplicate submission %s/%d", s.AttemptID, s.ProblemID)
			}
		}
		t.nextSubID++
		s.ID = t.nextSubID
		t.submissions = append(t.submissions, s)
	}
	return nil
}
