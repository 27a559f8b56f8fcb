// Package completion defines the contract for the remote multimodal chat
// backend. Calls are fire-once: retries and backoff belong to the caller.
package completion

import (
	"context"
	"fmt"
)

// Request is one prompt to the backend.
type Request struct {
	// Prompt is the instruction text; it must be non-empty.
	Prompt string
	// ImageDataURL, when set, attaches a single image encoded as a data URL.
	ImageDataURL string
	// SessionID, when set, lets the backend scope conversational memory.
	SessionID string
}

// Completer issues a single request/response call and returns the response
// text with surrounding whitespace removed. It returns "" if the backend sent
// no text, and a *RemoteServiceError if the call did not succeed.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// RemoteServiceError reports a transport failure or non-success status from
// the completion backend.
type RemoteServiceError struct {
	Backend    string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteServiceError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("failed to call %s: %v", e.Backend, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s returned status %d: %s", e.Backend, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s returned status %d", e.Backend, e.StatusCode)
	}
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
