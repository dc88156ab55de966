package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, defaultModel, req.Model)
		require.Len(t, req.Messages, 1)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": `{"first_name":"Taro"}`}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key").WithBaseURL(srv.URL)
	content, err := client.ChatCompletion(context.Background(), []Message{
		{Role: "user", Content: "extract"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"first_name":"Taro"}`, content)
}

func TestChatCompletionAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "rate limit exceeded", "type": "rate_limit_error"},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key").WithBaseURL(srv.URL)
	_, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestChatCompletionMissingAPIKey(t *testing.T) {
	client := NewClient("")
	_, err := client.ChatCompletion(context.Background(), nil)
	assert.Error(t, err)
}
