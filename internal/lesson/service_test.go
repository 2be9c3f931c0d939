package lesson

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/mathquest/internal/auth"
	"github.com/gokatarajesh/mathquest/internal/db/repository"
)

type stubStore struct {
	mu         sync.Mutex
	lessons    map[int64]repository.Lesson
	users      map[int64]bool
	progress   map[[2]int64]repository.Progress
	getLessons atomic.Int32
	lessonGate chan struct{}
}

func newStubStore() *stubStore {
	desc := "Addition and subtraction problems"
	return &stubStore{
		lessons: map[int64]repository.Lesson{
			1: {
				ID: 1, Title: "Basic Arithmetic", Description: &desc, OrderIndex: 1,
				Problems: []repository.Problem{
					{ID: 1, LessonID: 1, Type: repository.ProblemTypeMultipleChoice, Question: "What is 2 + 3?", CorrectAnswer: "5", XPValue: 10, OrderIndex: 1,
						Options: []repository.Option{{ID: 1, ProblemID: 1, Text: "4"}, {ID: 2, ProblemID: 1, Text: "5", IsCorrect: true}}},
					{ID: 2, LessonID: 1, Type: repository.ProblemTypeInput, Question: "Solve: 10 - 4", CorrectAnswer: "6", XPValue: 10, OrderIndex: 2},
					{ID: 3, LessonID: 1, Type: repository.ProblemTypeInput, Question: "Solve: 7 + 8", CorrectAnswer: "15", XPValue: 10, OrderIndex: 3},
				},
			},
		},
		users:    map[int64]bool{1: true},
		progress: map[[2]int64]repository.Progress{},
	}
}

func (s *stubStore) ListLessonSummaries(_ context.Context, userID int64) ([]repository.LessonSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.lessons[1]
	row := repository.LessonSummary{ID: l.ID, Title: l.Title, Description: l.Description, OrderIndex: l.OrderIndex, TotalProblems: len(l.Problems)}
	if p, ok := s.progress[[2]int64{userID, l.ID}]; ok {
		row.Progress = &p
	}
	return []repository.LessonSummary{row}, nil
}

func (s *stubStore) GetLesson(_ context.Context, lessonID int64) (repository.Lesson, error) {
	s.getLessons.Add(1)
	if s.lessonGate != nil {
		<-s.lessonGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lessons[lessonID]
	if !ok {
		return repository.Lesson{}, repository.ErrNotFound
	}
	return l, nil
}

func (s *stubStore) GetUser(_ context.Context, userID int64) (repository.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.users[userID] {
		return repository.User{}, repository.ErrNotFound
	}
	return repository.User{ID: userID}, nil
}

func (s *stubStore) GetProgress(_ context.Context, userID, lessonID int64) (repository.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[[2]int64{userID, lessonID}]
	if !ok {
		return repository.Progress{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *stubStore) UpsertProgress(_ context.Context, arg repository.UpsertProgressParams) (repository.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := arg.LastAttemptAt
	p := repository.Progress{
		UserID: arg.UserID, LessonID: arg.LessonID,
		ProblemsCompleted: arg.ProblemsCompleted, TotalProblems: arg.TotalProblems,
		ProgressPercent: arg.ProgressPercent, Completed: arg.Completed, LastAttemptAt: &at,
	}
	s.progress[[2]int64{arg.UserID, arg.LessonID}] = p
	return p, nil
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestGetHidesAnswers(t *testing.T) {
	svc := NewService(newStubStore(), nil, ServiceOptions{}, zerolog.Nop())

	detail, err := svc.Get(context.Background(), 1, 1)
	require.NoError(t, err)

	assert.Equal(t, "Basic Arithmetic", detail.Title)
	require.Len(t, detail.Problems, 3)
	assert.Equal(t, []Option{{ID: 1, ProblemID: 1, OptionText: "4"}, {ID: 2, ProblemID: 1, OptionText: "5"}}, detail.Problems[0].Options)
	assert.Equal(t, Progress{TotalProblems: 3}, detail.UserProgress)

	raw, err := json.Marshal(detail)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "correctAnswer")
	assert.NotContains(t, string(raw), "isCorrect")
}

func TestGetNotFound(t *testing.T) {
	svc := NewService(newStubStore(), nil, ServiceOptions{}, zerolog.Nop())

	_, err := svc.Get(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContentCached(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, newTestCache(t), ServiceOptions{}, zerolog.Nop())
	ctx := context.Background()

	first, err := svc.Content(ctx, 1)
	require.NoError(t, err)
	second, err := svc.Content(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, first.Problems, second.Problems)
	assert.Equal(t, int32(1), store.getLessons.Load())
}

func TestContentCollapsesConcurrentMisses(t *testing.T) {
	store := newStubStore()
	store.lessonGate = make(chan struct{})
	svc := NewService(store, nil, ServiceOptions{}, zerolog.Nop())

	var (
		wg      sync.WaitGroup
		started atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Add(1)
			_, err := svc.Content(context.Background(), 1)
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return started.Load() == 8 && store.getLessons.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(store.lessonGate)
	wg.Wait()

	assert.Equal(t, int32(1), store.getLessons.Load())
}

func TestUpdateProgress(t *testing.T) {
	store := newStubStore()
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := NewService(store, nil, ServiceOptions{Clock: func() time.Time { return now }}, zerolog.Nop())
	ctx := context.Background()

	p, err := svc.UpdateProgress(ctx, 1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 67, p.ProgressPercent)
	assert.False(t, p.Completed)
	assert.Equal(t, 3, p.TotalProblems)
	require.NotNil(t, p.LastAttemptAt)
	assert.Equal(t, now, *p.LastAttemptAt)

	p, err = svc.UpdateProgress(ctx, 1, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 100, p.ProgressPercent)
	assert.True(t, p.Completed)

	_, err = svc.UpdateProgress(ctx, 1, 1, -1)
	assert.ErrorIs(t, err, ErrInvalidProgress)
	_, err = svc.UpdateProgress(ctx, 9, 1, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	lessons, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, 3, lessons[0].CompletedProblems)
	assert.True(t, lessons[0].Completed)
}

func TestHTTPHandlers(t *testing.T) {
	h := NewHTTPHandlers(NewService(newStubStore(), nil, ServiceOptions{}, zerolog.Nop()), zerolog.Nop())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/lessons", h.List)
	mux.HandleFunc("GET /api/lessons/{lessonId}", h.Get)
	mux.HandleFunc("PUT /api/lessons/{lessonId}/progress", h.UpdateProgress)
	handler := auth.IdentityMiddleware(1, zerolog.Nop())(mux)

	do := func(method, target, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
		return rec
	}

	rec := do(http.MethodGet, "/api/lessons", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)

	rec = do(http.MethodGet, "/api/lessons/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userProgress"`)

	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/api/lessons/5", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/api/lessons/x", "").Code)

	rec = do(http.MethodPut, "/api/lessons/1/progress", `{"problemsCompleted":1}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"progressPercent":33`)

	assert.Equal(t, http.StatusBadRequest, do(http.MethodPut, "/api/lessons/1/progress", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPut, "/api/lessons/1/progress", `{"problemsCompleted":-2}`).Code)
}
