package claude

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/patrickmn/go-cache"
	"github.com/vbonduro/aushadhi/internal/completion"
	"github.com/vbonduro/aushadhi/internal/imagedata"
)

const backendName = "claude"

// maxTokens covers the longest section prompt (a full safety or dosage
// breakdown) with room for a verbose model.
const maxTokens = 2048

// transcript is the conversation the Messages API needs replayed on every
// call, since it keeps no server-side state for a session id.
type transcript struct {
	mu       sync.Mutex
	messages []anthropic.Message
}

type ClaudeClient struct {
	client      *anthropic.Client
	model       string
	transcripts *cache.Cache
}

// NewClaudeClient returns a Completer backed by the Anthropic Messages API.
// Session transcripts expire after sessionTTL without use.
func NewClaudeClient(apiKey, model string, sessionTTL time.Duration, opts ...anthropic.ClientOption) *ClaudeClient {
	return &ClaudeClient{
		client:      anthropic.NewClient(apiKey, opts...),
		model:       model,
		transcripts: cache.New(sessionTTL, sessionTTL*2),
	}
}

// buildTurn constructs the user message for one request, image first.
func buildTurn(req completion.Request) (anthropic.Message, error) {
	content := make([]anthropic.MessageContent, 0, 2)
	if req.ImageDataURL != "" {
		img, err := imagedata.FromDataURL(req.ImageDataURL)
		if err != nil {
			return anthropic.Message{}, fmt.Errorf("failed to read image: %w", err)
		}
		content = append(content, anthropic.NewImageMessageContent(
			anthropic.NewMessageContentSource(
				anthropic.MessagesContentSourceTypeBase64,
				img.MIMEType,
				base64.StdEncoding.EncodeToString(img.Data),
			),
		))
	}
	content = append(content, anthropic.NewTextMessageContent(req.Prompt))
	return anthropic.Message{Role: anthropic.RoleUser, Content: content}, nil
}

func (c *ClaudeClient) Complete(ctx context.Context, req completion.Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("prompt is required")
	}

	turn, err := buildTurn(req)
	if err != nil {
		return "", err
	}

	var t *transcript
	var history []anthropic.Message
	if req.SessionID != "" {
		t = c.transcript(req.SessionID)
		// Held across the call so turns within one session stay ordered.
		t.mu.Lock()
		defer t.mu.Unlock()
		history = t.messages
	}

	messages := append(slices.Clone(history), turn)
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", &completion.RemoteServiceError{Backend: backendName, Err: err}
	}

	text := strings.TrimSpace(resp.GetFirstContentText())

	// The API rejects empty assistant turns, so a blank reply is not recorded.
	if t != nil && text != "" {
		t.messages = append(messages, anthropic.Message{
			Role:    anthropic.RoleAssistant,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(text)},
		})
		c.transcripts.Set(req.SessionID, t, cache.DefaultExpiration)
	}

	slog.Debug("claude completion", "session_id", req.SessionID, "history_turns", len(history), "response_chars", len(text))
	return text, nil
}

// transcript returns the stored transcript for sessionID, creating it if absent.
func (c *ClaudeClient) transcript(sessionID string) *transcript {
	if v, ok := c.transcripts.Get(sessionID); ok {
		return v.(*transcript)
	}
	t := &transcript{}
	if err := c.transcripts.Add(sessionID, t, cache.DefaultExpiration); err != nil {
		// Lost a race with another caller; use theirs.
		if v, ok := c.transcripts.Get(sessionID); ok {
			return v.(*transcript)
		}
	}
	return t
}

// Forget drops the transcript for sessionID.
func (c *ClaudeClient) Forget(sessionID string) {
	c.transcripts.Delete(sessionID)
}
