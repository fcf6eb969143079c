package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSendsConversation(t *testing.T) {
	var got messageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":" Check the water supply. "}],"usage":{"input_tokens":42,"output_tokens":7}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "secret", BaseURL: srv.URL})
	reply, err := c.Chat(context.Background(), ChatRequest{
		System: "You are a pig farming assistant.",
		Turns: []Turn{
			{Role: "user", Content: "My sow is not eating"},
			{Role: "assistant", Content: "Since when?"},
			{Role: "user", Content: "Two days"},
		},
		Image: &Image{MediaType: "image/jpeg", Data: "aGVsbG8="},
	})
	require.NoError(t, err)

	assert.Equal(t, "Check the water supply.", reply.Text)
	assert.Equal(t, 42, reply.InputTokens)
	assert.Equal(t, defaultModel, got.Model)
	assert.Equal(t, "You are a pig farming assistant.", got.System)
	require.Len(t, got.Messages, 3)

	last := got.Messages[2]
	require.Len(t, last.Content, 2)
	assert.Equal(t, "image", last.Content[0].Type)
	assert.Equal(t, "image/jpeg", last.Content[0].Source.MediaType)
	assert.Equal(t, "Two days", last.Content[1].Text)
	assert.Len(t, got.Messages[0].Content, 1)
}

func TestChatReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Chat(context.Background(), ChatRequest{Turns: []Turn{{Role: "user", Content: "hi"}}})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestChatEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).Chat(context.Background(), ChatRequest{Turns: []Turn{{Role: "user", Content: "hi"}}})
	assert.ErrorIs(t, err, ErrEmptyReply)
}
