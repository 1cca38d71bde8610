package llmsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edutrack/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conf := core.NewTestConfig()
	conf.Assistant.LLMEnabled = true
	conf.Assistant.OpenAIKey = "test-key"
	conf.Assistant.OpenAIBaseURL = srv.URL + "/v1"
	conf.Assistant.Model = "test-model"
	return NewOpenAIClient(conf)
}

func TestNewOpenAIClient_Disabled(t *testing.T) {
	conf := core.NewTestConfig()
	client := NewOpenAIClient(conf)
	assert.Nil(t, client)

	_, err := client.Complete(context.Background(), "sys", "hola")
	assert.Equal(t, ErrDisabled, err)
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"test-model",
			"choices":[{"index":0,"message":{"role":"assistant","content":"  Hola, ¿en qué te ayudo?  "},"finish_reason":"stop"}]}`))
	})

	answer, err := client.Complete(context.Background(), "eres un asistente", "hola")
	require.NoError(t, err)
	assert.Equal(t, "Hola, ¿en qué te ayudo?", answer)
	assert.Equal(t, "test-model", got.Model)
	if assert.Len(t, got.Messages, 2) {
		assert.Equal(t, "system", got.Messages[0].Role)
		assert.Equal(t, "hola", got.Messages[1].Content)
	}
}

func TestOpenAIClient_Complete_Errors(t *testing.T) {
	t.Run("no choices", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`))
		})
		_, err := client.Complete(context.Background(), "sys", "hola")
		assert.Equal(t, ErrEmptyAnswer, err)
	})

	t.Run("server error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		_, err := client.Complete(context.Background(), "sys", "hola")
		assert.Error(t, err)
	})

	t.Run("timeout", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := client.Complete(ctx, "sys", "hola")
		assert.Error(t, err)
	})
}
