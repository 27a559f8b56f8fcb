package flowise

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vbonduro/aushadhi/internal/completion"
)

const backendName = "flowise"

// uploadName and uploadMIME label the attached image. The prediction endpoint
// treats every capture as a JPEG file upload regardless of the source format.
const (
	uploadName = "medicine.jpg"
	uploadMIME = "image/jpeg"
)

// request types mirror the Flowise prediction API structure.
type request struct {
	Question       string         `json:"question"`
	SessionID      string         `json:"sessionId,omitempty"`
	OverrideConfig overrideConfig `json:"overrideConfig"`
	Uploads        []upload       `json:"uploads,omitempty"`
}

type overrideConfig struct {
	SessionID      string `json:"sessionId,omitempty"`
	StreamResponse bool   `json:"streamResponse"`
}

type upload struct {
	Data string `json:"data"`
	Type string `json:"type"`
	Name string `json:"name"`
	Mime string `json:"mime"`
}

type response struct {
	Text string `json:"text"`
}

type FlowiseClient struct {
	baseURL    string
	chatflowID string
	client     *http.Client
}

func NewFlowiseClient(baseURL, chatflowID string) *FlowiseClient {
	return &FlowiseClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		chatflowID: chatflowID,
		client:     &http.Client{},
	}
}

// predictionURL is {base}/api/v1/prediction/{flowId}. An empty flow id is not
// rejected here; the endpoint answers with an error status instead.
func (c *FlowiseClient) predictionURL() string {
	return c.baseURL + "/api/v1/prediction/" + c.chatflowID
}

func buildRequest(req completion.Request) request {
	body := request{
		Question:  req.Prompt,
		SessionID: req.SessionID,
		OverrideConfig: overrideConfig{
			SessionID:      req.SessionID,
			StreamResponse: false,
		},
	}
	if req.ImageDataURL != "" {
		body.Uploads = []upload{{
			Data: req.ImageDataURL,
			Type: "file",
			Name: uploadName,
			Mime: uploadMIME,
		}}
	}
	return body
}

func (c *FlowiseClient) Complete(ctx context.Context, req completion.Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("prompt is required")
	}

	payload, err := json.Marshal(buildRequest(req))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictionURL(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	slog.Debug("flowise request",
		"session_id", req.SessionID,
		"has_image", req.ImageDataURL != "",
		"prompt_chars", len(req.Prompt),
	)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &completion.RemoteServiceError{Backend: backendName, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close flowise response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &completion.RemoteServiceError{
			Backend:    backendName,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(errBody)),
		}
	}

	var respBody response
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return "", &completion.RemoteServiceError{
			Backend:    backendName,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}

	return strings.TrimSpace(respBody.Text), nil
}
