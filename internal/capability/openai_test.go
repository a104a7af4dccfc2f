package capability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAITransport_Complete(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"bonjour"}}]}`))
	}))
	defer srv.Close()

	tr := NewOpenAITransport(srv.URL+"/v1/", "secret", 0)
	out, err := tr.Complete(context.Background(), CompletionRequest{
		Model:    "gpt-4.1-mini",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "bonjour", out)
	assert.Equal(t, "gpt-4.1-mini", got.Model)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "hello"}}, got.Messages)
	assert.Nil(t, got.Temperature)
}

func TestOpenAITransport_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	out, err := NewOpenAITransport(srv.URL, "", 0).Complete(context.Background(), CompletionRequest{Model: "m"})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOpenAITransport_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewOpenAITransport(srv.URL, "", 0).Complete(context.Background(), CompletionRequest{Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code 429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestEchoTransport(t *testing.T) {
	out, err := EchoTransport{}.Complete(context.Background(), CompletionRequest{
		Model: "m",
		Messages: []Message{
			{Role: RoleSystem, Content: "sys"},
			{Role: RoleUser, Content: "ping"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "[m] ping", out)
}
