package claude

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/aushadhi/internal/completion"
)

var jpegDataURL = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10})

type capturedRequest struct {
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

// fakeMessagesAPI answers every call with the next reply and records requests.
type fakeMessagesAPI struct {
	mu       sync.Mutex
	requests []capturedRequest
	replies  []string
}

func (f *fakeMessagesAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req capturedRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.requests = append(f.requests, req)
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-test",
		"stop_reason": "end_turn",
		"content":     []map[string]any{{"type": "text", "text": reply}},
		"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
	})
}

func newTestClient(t *testing.T, handler http.Handler) *ClaudeClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClaudeClient("sk-test", "claude-test", time.Minute, anthropic.WithBaseURL(server.URL))
}

func TestClaudeCompleteWithImage(t *testing.T) {
	api := &fakeMessagesAPI{replies: []string{"  MEDICINE NAME: Cetamol \n"}}
	client := newTestClient(t, api)

	text, err := client.Complete(context.Background(), completion.Request{
		Prompt:       "Analyze this",
		ImageDataURL: jpegDataURL,
	})
	require.NoError(t, err)
	assert.Equal(t, "MEDICINE NAME: Cetamol", text)

	require.Len(t, api.requests, 1)
	require.Len(t, api.requests[0].Messages, 1)
	content := api.requests[0].Messages[0].Content
	require.Len(t, content, 2)
	assert.Equal(t, "image", content[0].Type)
	assert.Equal(t, "text", content[1].Type)
	assert.Equal(t, "Analyze this", content[1].Text)
}

func TestClaudeCompleteReplaysSessionTranscript(t *testing.T) {
	api := &fakeMessagesAPI{replies: []string{"first answer", "second answer"}}
	client := newTestClient(t, api)
	ctx := context.Background()

	_, err := client.Complete(ctx, completion.Request{Prompt: "first", SessionID: "s1"})
	require.NoError(t, err)
	text, err := client.Complete(ctx, completion.Request{Prompt: "second", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "second answer", text)

	require.Len(t, api.requests, 2)
	second := api.requests[1].Messages
	require.Len(t, second, 3)
	assert.Equal(t, "user", second[0].Role)
	assert.Equal(t, "first", second[0].Content[0].Text)
	assert.Equal(t, "assistant", second[1].Role)
	assert.Equal(t, "first answer", second[1].Content[0].Text)
	assert.Equal(t, "second", second[2].Content[0].Text)
}

func TestClaudeCompleteWithoutSessionIsStateless(t *testing.T) {
	api := &fakeMessagesAPI{replies: []string{"a"}}
	client := newTestClient(t, api)
	ctx := context.Background()

	_, err := client.Complete(ctx, completion.Request{Prompt: "one"})
	require.NoError(t, err)
	_, err = client.Complete(ctx, completion.Request{Prompt: "two"})
	require.NoError(t, err)

	require.Len(t, api.requests, 2)
	assert.Len(t, api.requests[1].Messages, 1)
}

func TestClaudeForgetDropsTranscript(t *testing.T) {
	api := &fakeMessagesAPI{replies: []string{"a"}}
	client := newTestClient(t, api)
	ctx := context.Background()

	_, err := client.Complete(ctx, completion.Request{Prompt: "one", SessionID: "s1"})
	require.NoError(t, err)
	client.Forget("s1")
	_, err = client.Complete(ctx, completion.Request{Prompt: "two", SessionID: "s1"})
	require.NoError(t, err)

	assert.Len(t, api.requests[1].Messages, 1)
}

func TestClaudeCompleteAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"rate limited"}}`))
	}))

	_, err := client.Complete(context.Background(), completion.Request{Prompt: "hello", SessionID: "s1"})
	require.Error(t, err)

	var rse *completion.RemoteServiceError
	assert.True(t, errors.As(err, &rse))
}

func TestClaudeCompleteRejectsBadImage(t *testing.T) {
	client := NewClaudeClient("sk-test", "claude-test", time.Minute)

	_, err := client.Complete(context.Background(), completion.Request{Prompt: "x", ImageDataURL: "not-a-data-url"})
	assert.Error(t, err)
}
