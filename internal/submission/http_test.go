package submission

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/mathquest/internal/auth"
)

func newTestMux(f *fixture) http.Handler {
	h := NewHTTPHandlers(f.svc, zerolog.Nop())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/lessons/{lessonId}/submit", h.Submit)
	return auth.IdentityMiddleware(1, zerolog.Nop())(mux)
}

func post(t *testing.T, handler http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func TestSubmitHandler(t *testing.T) {
	f := newFixture(t)
	handler := newTestMux(f)

	rec, body := post(t, handler, "/api/lessons/1/submit",
		`{"attemptId":"3f1c","answers":[{"problemId":1,"answer":"5"},{"problemId":2,"answer":"7"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "3f1c", data["attemptId"])
	assert.Equal(t, map[string]any{"correctAnswers": 1.0, "totalAnswers": 2.0, "xpAwarded": 10.0}, data["results"])
	assert.Equal(t, map[string]any{"totalXp": 10.0, "currentStreak": 1.0, "bestStreak": 1.0}, data["user"])
	assert.Equal(t, false, data["isResubmission"])
	assert.Equal(t, true, data["isNewStreak"])
	assert.Len(t, data["problemResults"], 2)

	rec, body = post(t, handler, "/api/lessons/1/submit",
		`{"attemptId":"3f1c","answers":[{"problemId":1,"answer":"5"},{"problemId":2,"answer":"7"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	data = body["data"].(map[string]any)
	assert.Equal(t, true, data["isResubmission"])
	assert.Equal(t, 0.0, data["results"].(map[string]any)["xpAwarded"])
}

func TestSubmitHandlerErrors(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"bad lesson id", "/api/lessons/abc/submit", `{}`, http.StatusBadRequest, "invalid_request"},
		{"malformed json", "/api/lessons/1/submit", `{"attemptId":`, http.StatusBadRequest, "invalid_request"},
		{"missing attempt", "/api/lessons/1/submit", `{"answers":[{"problemId":1,"answer":"5"}]}`, http.StatusBadRequest, "validation_failed"},
		{"empty answers", "/api/lessons/1/submit", `{"attemptId":"x","answers":[]}`, http.StatusBadRequest, "validation_failed"},
		{"answers not array", "/api/lessons/1/submit", `{"attemptId":"x","answers":"5"}`, http.StatusBadRequest, "validation_failed"},
		{"numeric answer", "/api/lessons/1/submit", `{"attemptId":"x","answers":[{"problemId":1,"answer":5}]}`, http.StatusBadRequest, "validation_failed"},
		{"missing problem id", "/api/lessons/1/submit", `{"attemptId":"x","answers":[{"answer":"5"}]}`, http.StatusBadRequest, "missing_field"},
		{"duplicate problem", "/api/lessons/1/submit", `{"attemptId":"x","answers":[{"problemId":1,"answer":"5"},{"problemId":1,"answer":"4"}]}`, http.StatusBadRequest, "validation_failed"},
		{"unknown lesson", "/api/lessons/42/submit", `{"attemptId":"x","answers":[{"problemId":1,"answer":"5"}]}`, http.StatusNotFound, "not_found"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			rec, body := post(t, newTestMux(f), tc.path, tc.body)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.code, body["error"])
		})
	}
}

func TestSubmitHandlerPersistenceFailure(t *testing.T) {
	f := newFixture(t)
	f.store.failInsert = errors.New("connection reset")

	rec, body := post(t, newTestMux(f), "/api/lessons/1/submit",
		`{"attemptId":"x","answers":[{"problemId":1,"answer":"5"}]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", body["error"])
}
