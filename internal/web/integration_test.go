package web_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vbonduro/aushadhi/internal/auth"
	"github.com/vbonduro/aushadhi/internal/catalog"
	"github.com/vbonduro/aushadhi/internal/completion"
	"github.com/vbonduro/aushadhi/internal/db"
	"github.com/vbonduro/aushadhi/internal/domain"
	"github.com/vbonduro/aushadhi/internal/events"
	"github.com/vbonduro/aushadhi/internal/imagestore"
	"github.com/vbonduro/aushadhi/internal/service"
	"github.com/vbonduro/aushadhi/internal/store"
	"github.com/vbonduro/aushadhi/internal/web"
)

const initialAnalysis = "MEDICINE NAME: Paracetamol 500mg\nCATEGORY: Analgesic"

// minimalJPEG is 512 bytes with the JPEG magic bytes header followed by zeros.
var minimalJPEG = func() []byte {
	b := make([]byte, 512)
	b[0] = 0xFF
	b[1] = 0xD8
	b[2] = 0xFF
	b[3] = 0xE0
	return b
}()

// recordingBackend answers the opening chat prompt with initialAnalysis, echoes
// every other prompt, and records what it was sent.
type recordingBackend struct {
	mu       sync.Mutex
	fail     bool
	requests []completion.Request
}

func (b *recordingBackend) Complete(_ context.Context, req completion.Request) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, req)
	if b.fail {
		return "", &completion.RemoteServiceError{Backend: "flowise", StatusCode: http.StatusBadGateway}
	}
	if req.ImageDataURL != "" && req.SessionID != "" {
		return initialAnalysis, nil
	}
	if req.ImageDataURL != "" {
		return "section: " + strings.SplitN(req.Prompt, "\n", 2)[0], nil
	}
	return "answer to: " + req.Prompt, nil
}

func (b *recordingBackend) setFail(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = fail
}

func (b *recordingBackend) last() completion.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[len(b.requests)-1]
}

// memImageStore is a simple in-memory implementation of imagestore.ImageStore.
type memImageStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	mimes   map[string]string
	counter int
}

func newMemImageStore() *memImageStore {
	return &memImageStore{
		data:  make(map[string][]byte),
		mimes: make(map[string]string),
	}
}

func (m *memImageStore) Save(_ context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	key := fmt.Sprintf("%s_%d", prefix, m.counter)
	m.data[key] = data
	m.mimes[key] = mimeType
	return key, nil
}

func (m *memImageStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, "", imagestore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), m.mimes[key], nil
}

func (m *memImageStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	delete(m.mimes, key)
	return nil
}

// newTestServer sets up a real web.Server backed by in-memory SQLite and the
// provided completion backend.
func newTestServer(t *testing.T, backend completion.Completer) *httptest.Server {
	t.Helper()
	database, err := db.OpenForTesting()
	if err != nil {
		t.Fatalf("OpenForTesting: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	feed := events.NewFeed(logger)
	svc := service.NewScanService(store.NewScanStore(database), newMemImageStore(), backend, feed, time.Hour, logger)
	authSvc := auth.NewService(store.NewUserStore(database), "test-secret", time.Hour, logger)

	srv := httptest.NewServer(web.NewServer(svc, authSvc, feed, domain.English, time.Hour, logger))
	t.Cleanup(func() {
		srv.Close()
		_ = feed.Close()
		_ = database.Close()
	})
	return srv
}

// login registers a fresh account and returns its bearer token.
func login(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()
	creds := fmt.Sprintf(`{"email":%q,"password":"secret123"}`, email)

	resp, err := http.Post(srv.URL+"/api/auth/register", "application/json", strings.NewReader(creds))
	if err != nil {
		t.Fatalf("POST /api/auth/register: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/auth/login", "application/json", strings.NewReader(creds))
	if err != nil {
		t.Fatalf("POST /api/auth/login: %v", err)
	}
	defer resp.Body.Close()
	var out struct {
		Token string `json:"token"`
	}
	decode(t, resp, http.StatusOK, &out)
	if out.Token == "" {
		t.Fatal("login returned empty token")
	}
	return out.Token
}

// do sends an authenticated request.
func do(t *testing.T, method, url, token, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, wantStatus int, v any) {
	t.Helper()
	if resp.StatusCode != wantStatus {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected %d, got %d: %s", wantStatus, resp.StatusCode, b)
	}
	if v == nil {
		return
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// buildMultipartBody creates a multipart/form-data body with an "image" field
// and optional extra fields.
func buildMultipartBody(t *testing.T, imageData []byte, fields map[string]string) (body *bytes.Buffer, contentType string) {
	t.Helper()
	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("image", "medicine.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(imageData); err != nil {
		t.Fatalf("write image data: %v", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, w.FormDataContentType()
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type captureResult struct {
	Scan struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"scan"`
	Chat  *chatResponse `json:"chat"`
	Error string        `json:"error"`
}

func capture(t *testing.T, srv *httptest.Server, token string, wantStatus int, fields map[string]string) captureResult {
	t.Helper()
	body, contentType := buildMultipartBody(t, minimalJPEG, fields)
	resp := do(t, http.MethodPost, srv.URL+"/api/scans", token, contentType, body)
	var out captureResult
	decode(t, resp, wantStatus, &out)
	return out
}

func TestIntegration_RequiresAuth(t *testing.T) {
	srv := newTestServer(t, &recordingBackend{})

	for _, path := range []string{"/api/scans", "/api/chats/abc", "/api/scans/events"} {
		resp := do(t, http.MethodGet, srv.URL+path, "", "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s: expected 401, got %d", path, resp.StatusCode)
		}
	}

	resp := do(t, http.MethodGet, srv.URL+"/api/scans", "not-a-token", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", resp.StatusCode)
	}
}

func TestIntegration_LoginSetsCookie(t *testing.T) {
	srv := newTestServer(t, &recordingBackend{})
	login(t, srv, "cookie@example.com")

	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"email":"cookie@example.com","password":"secret123"}`))
	if err != nil {
		t.Fatalf("POST /api/auth/login: %v", err)
	}
	defer resp.Body.Close()

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "aushadhi_session" {
			session = c
		}
	}
	if session == nil || !session.HttpOnly {
		t.Fatalf("expected HttpOnly session cookie, got %+v", resp.Cookies())
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/scans", nil)
	req.AddCookie(session)
	cresp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/scans: %v", err)
	}
	defer cresp.Body.Close()
	if cresp.StatusCode != http.StatusOK {
		t.Errorf("cookie auth: expected 200, got %d", cresp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"email":"cookie@example.com","password":"wrong-pass"}`))
	if err != nil {
		t.Fatalf("POST /api/auth/login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password: expected 401, got %d", resp.StatusCode)
	}
}

func TestIntegration_CaptureAndChat(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	backend := &recordingBackend{}
	srv := newTestServer(t, backend)
	token := login(t, srv, "asha@example.com")

	out := capture(t, srv, token, http.StatusCreated, nil)
	if out.Scan.Status != "analyzed" {
		t.Errorf("scan status = %q, want analyzed", out.Scan.Status)
	}
	if out.Chat == nil || out.Chat.State != "active" || len(out.Chat.Messages) != 1 {
		t.Fatalf("unexpected chat: %+v", out.Chat)
	}
	if out.Chat.Messages[0].Content != initialAnalysis {
		t.Errorf("first message = %q", out.Chat.Messages[0].Content)
	}

	chatURL := srv.URL + "/api/chats/" + out.Chat.SessionID
	resp := do(t, http.MethodPost, chatURL+"/messages", token, "application/json", strings.NewReader(`{"content":"Is it safe?"}`))
	var reply struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	decode(t, resp, http.StatusOK, &reply)
	wrapped := catalog.MustFor(domain.English).FollowUp(initialAnalysis, "Is it safe?")
	if reply.Role != "assistant" || reply.Content != "answer to: "+wrapped {
		t.Errorf("unexpected first reply: %+v", reply)
	}
	if got := backend.last().SessionID; got != out.Chat.SessionID {
		t.Errorf("session id sent = %q, want %q", got, out.Chat.SessionID)
	}

	resp = do(t, http.MethodPost, chatURL+"/messages", token, "application/json", strings.NewReader(`{"content":"And for kids?"}`))
	decode(t, resp, http.StatusOK, &reply)
	if reply.Content != "answer to: And for kids?" {
		t.Errorf("second message should be sent verbatim, got %q", reply.Content)
	}

	backend.setFail(true)
	resp = do(t, http.MethodPost, chatURL+"/messages", token, "application/json", strings.NewReader(`{"content":"Again?"}`))
	decode(t, resp, http.StatusOK, &reply)
	if reply.Content != catalog.MustFor(domain.English).Strings.ChatError {
		t.Errorf("failed turn should become the localized error, got %q", reply.Content)
	}
	backend.setFail(false)

	resp = do(t, http.MethodPost, chatURL+"/messages", token, "application/json", strings.NewReader(`{"content":"  "}`))
	decode(t, resp, http.StatusBadRequest, nil)

	var transcript chatResponse
	decode(t, do(t, http.MethodGet, chatURL, token, "", nil), http.StatusOK, &transcript)
	if len(transcript.Messages) != 7 {
		t.Errorf("expected 7 messages, got %d", len(transcript.Messages))
	}

	other := login(t, srv, "other@example.com")
	decode(t, do(t, http.MethodGet, chatURL, other, "", nil), http.StatusNotFound, nil)

	decode(t, do(t, http.MethodDelete, chatURL, token, "", nil), http.StatusNoContent, nil)
	resp = do(t, http.MethodPost, chatURL+"/messages", token, "application/json", strings.NewReader(`{"content":"hello"}`))
	decode(t, resp, http.StatusNotFound, nil)
}

func TestIntegration_CaptureFailureIsLocalized(t *testing.T) {
	backend := &recordingBackend{fail: true}
	srv := newTestServer(t, backend)
	token := login(t, srv, "ram@example.com")

	out := capture(t, srv, token, http.StatusBadGateway, map[string]string{"lang": "np"})
	if want := catalog.MustFor(domain.Nepali).Strings.AnalysisFailed; out.Error != want {
		t.Errorf("error = %q, want %q", out.Error, want)
	}
	if out.Chat != nil {
		t.Errorf("expected no chat, got %+v", out.Chat)
	}
	if out.Scan.Status != "error" {
		t.Errorf("scan status = %q, want error", out.Scan.Status)
	}
}

func TestIntegration_CaptureRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, &recordingBackend{})
	token := login(t, srv, "bad@example.com")

	body, contentType := buildMultipartBody(t, []byte("%PDF-1.4 not an image"), nil)
	decode(t, do(t, http.MethodPost, srv.URL+"/api/scans", token, contentType, body), http.StatusBadRequest, nil)

	capture(t, srv, token, http.StatusBadRequest, map[string]string{"lang": "fr"})
}

func TestIntegration_HistoryReopenDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	backend := &recordingBackend{}
	srv := newTestServer(t, backend)
	token := login(t, srv, "hari@example.com")

	first := capture(t, srv, token, http.StatusCreated, nil)
	backend.setFail(true)
	second := capture(t, srv, token, http.StatusBadGateway, nil)
	backend.setFail(false)

	var history []struct {
		ID           string `json:"id"`
		Status       string `json:"status"`
		MedicineName string `json:"medicine_name"`
		Timestamp    int64  `json:"timestamp"`
		ImageURL     string `json:"image_url"`
	}
	decode(t, do(t, http.MethodGet, srv.URL+"/api/scans?lang=np", token, "", nil), http.StatusOK, &history)
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].ID != second.Scan.ID || history[0].MedicineName != "अज्ञात औषधि" {
		t.Errorf("unexpected newest entry: %+v", history[0])
	}
	if history[1].ID != first.Scan.ID || history[1].MedicineName != "Paracetamol 500mg" || history[1].Timestamp == 0 {
		t.Errorf("unexpected oldest entry: %+v", history[1])
	}

	img := do(t, http.MethodGet, srv.URL+history[1].ImageURL, token, "", nil)
	data, _ := io.ReadAll(img.Body)
	if img.StatusCode != http.StatusOK || !bytes.Equal(data, minimalJPEG) {
		t.Errorf("image: status %d, %d bytes", img.StatusCode, len(data))
	}

	var reopened chatResponse
	decode(t, do(t, http.MethodPost, srv.URL+"/api/scans/"+first.Scan.ID+"/chat", token, "", nil), http.StatusCreated, &reopened)
	if reopened.SessionID != first.Scan.ID {
		t.Errorf("reopened session id = %q, want scan id %q", reopened.SessionID, first.Scan.ID)
	}
	if len(reopened.Messages) != 1 || reopened.Messages[0].Content != initialAnalysis {
		t.Errorf("unexpected reopened transcript: %+v", reopened.Messages)
	}

	decode(t, do(t, http.MethodPost, srv.URL+"/api/scans/"+second.Scan.ID+"/chat", token, "", nil), http.StatusConflict, nil)

	decode(t, do(t, http.MethodDelete, srv.URL+"/api/scans/"+first.Scan.ID, token, "", nil), http.StatusNoContent, nil)
	decode(t, do(t, http.MethodDelete, srv.URL+"/api/scans/"+first.Scan.ID, token, "", nil), http.StatusNotFound, nil)
	decode(t, do(t, http.MethodGet, srv.URL+"/api/chats/"+first.Scan.ID, token, "", nil), http.StatusNotFound, nil)
}

func TestIntegration_Analyze(t *testing.T) {
	backend := &recordingBackend{}
	srv := newTestServer(t, backend)
	token := login(t, srv, "maya@example.com")

	body, contentType := buildMultipartBody(t, minimalJPEG, nil)
	var report struct {
		Language string `json:"language"`
		Sections []struct {
			Key    string `json:"key"`
			Status string `json:"status"`
		} `json:"sections"`
		Report string `json:"report"`
	}
	decode(t, do(t, http.MethodPost, srv.URL+"/api/analyze", token, contentType, body), http.StatusOK, &report)

	if len(report.Sections) != len(catalog.SectionKeys) {
		t.Fatalf("expected %d sections, got %d", len(catalog.SectionKeys), len(report.Sections))
	}
	for i, s := range report.Sections {
		if s.Key != string(catalog.SectionKeys[i]) || s.Status != "complete" {
			t.Errorf("section %d: %+v", i, s)
		}
	}
	if !strings.HasPrefix(report.Report, "MEDICINE OVERVIEW\n-----------------\nsection: ") {
		t.Errorf("unexpected report start: %q", report.Report)
	}
}

func TestIntegration_AnalyzeStream(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv := newTestServer(t, &recordingBackend{})
	token := login(t, srv, "gita@example.com")

	body, contentType := buildMultipartBody(t, minimalJPEG, map[string]string{"lang": "np"})
	resp := do(t, http.MethodPost, srv.URL+"/api/analyze/stream", token, contentType, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	counts := map[string]int{}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			counts[name]++
			if name == "done" {
				break
			}
		}
	}

	if counts["sections"] != 1+len(catalog.SectionKeys) {
		t.Errorf("sections events = %d, want %d", counts["sections"], 1+len(catalog.SectionKeys))
	}
	if counts["report"] != 1 || counts["done"] != 1 {
		t.Errorf("unexpected event counts: %v", counts)
	}
}

func TestIntegration_ScanEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv := newTestServer(t, &recordingBackend{})
	token := login(t, srv, "events@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/scans/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/scans/events: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	out := capture(t, srv, token, http.StatusCreated, nil)

	var got []events.ScanEvent
	scanner := bufio.NewScanner(resp.Body)
	for len(got) < 2 && scanner.Scan() {
		payload, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}
		var ev events.ScanEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		got = append(got, ev)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != events.Insert || got[1].Type != events.Update || got[0].ScanID != out.Scan.ID {
		t.Errorf("unexpected events: %+v", got)
	}
}
