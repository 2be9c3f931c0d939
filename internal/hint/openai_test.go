package hint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *OpenAIGenerator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g, err := NewOpenAIGenerator(OpenAIConfig{
		APIKey:      "test-key",
		Model:       "gpt-3.5-turbo",
		BaseURL:     server.URL + "/v1",
		MaxTokens:   150,
		Temperature: 0.7,
	})
	require.NoError(t, err)
	return g
}

func TestOpenAIGenerator(t *testing.T) {
	var got map[string]any
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   "gpt-3.5-turbo",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "  Line up the tens first! 🧮 "},
				"finish_reason": "stop",
			}},
		})
	})

	text, err := g.Generate(context.Background(), Prompt{Question: "What is 15 + 27?", Type: "input", UserAnswer: "32"})
	require.NoError(t, err)
	assert.Equal(t, "Line up the tens first! 🧮", text)

	assert.Equal(t, "gpt-3.5-turbo", got["model"])
	assert.EqualValues(t, 150, got["max_tokens"])
	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)
	assert.Contains(t, user["content"], "Student's answer: 32")
	assert.NotContains(t, user["content"], "Available options")
}

func TestOpenAIGeneratorAPIError(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited", "type": "rate_limit_error"},
		})
	})

	_, err := g.Generate(context.Background(), Prompt{Question: "q", Type: "input", UserAnswer: "a"})
	assert.Error(t, err)
}

func TestNewOpenAIGeneratorRequiresKey(t *testing.T) {
	_, err := NewOpenAIGenerator(OpenAIConfig{})
	assert.Error(t, err)
}
