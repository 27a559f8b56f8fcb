// Package chat implements a conversation anchored to one initial medicine
// analysis and scoped on the backend by an opaque session id.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/aushadhi/internal/catalog"
	"github.com/vbonduro/aushadhi/internal/completion"
	"github.com/vbonduro/aushadhi/internal/domain"
)

type State int

const (
	Uninitialized State = iota
	Initiating
	Active
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initiating:
		return "initiating"
	case Active:
		return "active"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

var (
	ErrSessionClosed  = errors.New("chat session is closed")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrAlreadyStarted = errors.New("chat session already started")
)

// StartError reports a failed initial analysis. Message is the localized text
// to show the user.
type StartError struct {
	Language domain.Language
	Message  string
	Err      error
}

func (e *StartError) Error() string {
	return e.Message
}

func (e *StartError) Unwrap() error {
	return e.Err
}

// Session is safe for concurrent use. Sends are serialized so that messages
// reach the backend in the order they were appended.
type Session struct {
	completer completion.Completer
	catalog   *catalog.Catalog
	logger    *slog.Logger

	sendMu sync.Mutex

	mu       sync.Mutex
	id       string
	state    State
	initial  string
	asked    bool
	messages []Message
}

// New returns an Uninitialized session for lang.
func New(completer completion.Completer, lang domain.Language, logger *slog.Logger) (*Session, error) {
	cat, err := catalog.For(lang)
	if err != nil {
		return nil, err
	}
	return &Session{completer: completer, catalog: cat, logger: logger}, nil
}

// Resume reopens a stored analysis as an Active session without calling the
// backend. id is reused as the session id.
func Resume(completer completion.Completer, id, initialAnalysis string, lang domain.Language, logger *slog.Logger) (*Session, error) {
	if id == "" {
		return nil, errors.New("session id is required")
	}
	s, err := New(completer, lang, logger)
	if err != nil {
		return nil, err
	}
	s.id = id
	s.initial = initialAnalysis
	s.state = Active
	s.messages = []Message{newMessage(RoleAssistant, initialAnalysis)}
	return s, nil
}

// Start generates a fresh session id and asks the backend for the initial
// analysis of the image. On failure the session is Closed and a *StartError
// carrying the localized analysis-failed message is returned.
func (s *Session) Start(ctx context.Context, imageDataURL string) error {
	s.mu.Lock()
	if s.state != Uninitialized {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = Initiating
	s.id = uuid.NewString()
	id := s.id
	s.mu.Unlock()

	text, err := s.completer.Complete(ctx, completion.Request{
		Prompt:       s.catalog.InitialPrompt(),
		ImageDataURL: imageDataURL,
		SessionID:    id,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Closed
		s.logger.Error("initial analysis failed", "session_id", id, "error", err)
		return &StartError{Language: s.catalog.Language, Message: s.catalog.Strings.AnalysisFailed, Err: err}
	}
	if s.state == Closed {
		return ErrSessionClosed
	}
	s.state = Active
	s.initial = text
	s.messages = append(s.messages, newMessage(RoleAssistant, text))
	s.logger.Info("chat session started", "session_id", id)
	return nil
}

// Send appends question as a user message, forwards it to the backend and
// returns the assistant reply. The first question of a session is wrapped with
// the initial analysis; later ones are sent as typed, whitespace included. A
// backend failure is returned as a localized assistant reply, not as an error.
func (s *Session) Send(ctx context.Context, question string) (Message, error) {
	if strings.TrimSpace(question) == "" {
		return Message{}, ErrEmptyMessage
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return Message{}, ErrSessionClosed
	}
	prompt := question
	if !s.asked {
		prompt = s.catalog.FollowUp(s.initial, question)
		s.asked = true
	}
	s.messages = append(s.messages, newMessage(RoleUser, question))
	id := s.id
	s.mu.Unlock()

	text, err := s.completer.Complete(ctx, completion.Request{Prompt: prompt, SessionID: id})
	if err != nil {
		s.logger.Warn("chat message failed", "session_id", id, "error", err)
		text = s.catalog.Strings.ChatError
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Closed while the call was in flight; the reply is dropped.
	if s.state != Active {
		return Message{}, ErrSessionClosed
	}
	reply := newMessage(RoleAssistant, text)
	s.messages = append(s.messages, reply)
	return reply, nil
}

// Close moves the session to Closed. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Closed {
		s.state = Closed
		s.logger.Debug("chat session closed", "session_id", s.id)
	}
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Language() domain.Language {
	return s.catalog.Language
}

// InitialAnalysis is the text of the first assistant message.
func (s *Session) InitialAnalysis() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initial
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func newMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}
