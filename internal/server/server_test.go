// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/campus-chat/internal/config"
	"github.com/jeranaias/campus-chat/internal/model"
	"github.com/jeranaias/campus-chat/internal/storage"
	"github.com/jeranaias/campus-chat/internal/study"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type stubAssistant struct {
	mu      sync.Mutex
	reply   string
	err     error
	release chan struct{}
	inputs  []string
}

func (a *stubAssistant) Send(ctx context.Context, input, sessionID string) (string, error) {
	a.mu.Lock()
	a.inputs = append(a.inputs, input)
	release := a.release
	a.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return a.reply, a.err
}

type testEnv struct {
	srv       *Server
	assistant *stubAssistant
	convs     *storage.ConversationRepo
}

func newTestEnv(t *testing.T, rateLimit int) *testEnv {
	t.Helper()
	store := storage.NewMemoryStore()
	convs := storage.NewConversationRepo(store)
	assistant := &stubAssistant{reply: `{"content":"Entropy measures disorder."}`}

	srv := New(config.ServerConfig{
		Addr:            "127.0.0.1:0",
		CORSOrigins:     []string{"http://localhost:3000"},
		RateLimitPerMin: rateLimit,
	}, Deps{
		Assistant:     assistant,
		Conversations: convs,
		Tracker:       study.NewTracker(storage.NewStudyRepo(store)),
		Logger:        zerolog.Nop(),
	})
	t.Cleanup(srv.limiter.Close)
	return &testEnv{srv: srv, assistant: assistant, convs: convs}
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
	return v
}

// =============================================================================
// HEALTH / CATALOG TESTS
// =============================================================================

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t, 100)
	rec := env.do(http.MethodGet, "/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	health := decode[HealthResponse](t, rec)
	if health.Status != "ok" || health.Version != Version {
		t.Errorf("health = %+v", health)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestHandleCourses(t *testing.T) {
	env := newTestEnv(t, 100)
	rec := env.do(http.MethodGet, "/api/courses", nil)

	courses := decode[[]model.Course](t, rec)
	if len(courses) != len(model.Courses()) {
		t.Errorf("got %d courses, want %d", len(courses), len(model.Courses()))
	}
}

func TestHandleVideos(t *testing.T) {
	env := newTestEnv(t, 100)
	rec := env.do(http.MethodGet, "/api/videos?text=watch+https://youtu.be/dQw4w9WgXcQ+now", nil)

	refs := decode[[]map[string]string](t, rec)
	if len(refs) != 1 || refs[0]["videoId"] != "dQw4w9WgXcQ" {
		t.Errorf("refs = %v", refs)
	}

	rec = env.do(http.MethodGet, "/api/videos?text=nothing+here", nil)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty result body = %q, want []", rec.Body.String())
	}
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestSendMessage(t *testing.T) {
	env := newTestEnv(t, 100)

	rec := env.do(http.MethodPost, "/api/sessions/s-1/messages", SendRequest{Content: "  What is entropy?  ", Course: "PHYS 101"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decode[SendResponse](t, rec)
	if resp.Reply.Content != "Entropy measures disorder." {
		t.Errorf("reply = %q", resp.Reply.Content)
	}
	if len(resp.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(resp.Messages))
	}
	if resp.Messages[0].Course == nil || resp.Messages[0].Course.Code != "PHYS 101" {
		t.Errorf("user message course = %+v", resp.Messages[0].Course)
	}
	if env.assistant.inputs[0] != "What is entropy?" {
		t.Errorf("assistant input = %q", env.assistant.inputs[0])
	}

	// The exchange is persisted.
	conv, err := env.convs.Load("s-1")
	if err != nil || len(conv.Messages) != 2 {
		t.Errorf("persisted conversation = %v, %v", conv, err)
	}

	rec = env.do(http.MethodGet, "/api/sessions/s-1/messages", nil)
	got := decode[MessagesResponse](t, rec)
	if got.SessionID != "s-1" || len(got.Messages) != 2 || got.Busy {
		t.Errorf("GET messages = %+v", got)
	}
}

func TestSendMessage_Rejections(t *testing.T) {
	env := newTestEnv(t, 100)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"empty", SendRequest{Content: "   "}, http.StatusBadRequest},
		{"unknown course", SendRequest{Content: "hi", Course: "BASKET 1"}, http.StatusBadRequest},
		{"bad json", "not an object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/sessions/s-1/messages", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
	if len(env.assistant.inputs) != 0 {
		t.Errorf("assistant was called %d times", len(env.assistant.inputs))
	}
}

func TestSendMessage_BusyConflict(t *testing.T) {
	env := newTestEnv(t, 100)
	env.assistant.release = make(chan struct{})

	done := make(chan int, 1)
	go func() {
		done <- env.do(http.MethodPost, "/api/sessions/s-1/messages", SendRequest{Content: "first"}).Code
	}()

	m := env.srv.Sessions().Get("s-1")
	deadline := time.Now().Add(2 * time.Second)
	for !m.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("first send never became busy")
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec := env.do(http.MethodPost, "/api/sessions/s-1/messages", SendRequest{Content: "second"})
	if rec.Code != http.StatusConflict {
		t.Errorf("second send status = %d, want 409", rec.Code)
	}

	close(env.assistant.release)
	if code := <-done; code != http.StatusOK {
		t.Errorf("first send status = %d, want 200", code)
	}
}

func TestClearMessages(t *testing.T) {
	env := newTestEnv(t, 100)
	env.do(http.MethodPost, "/api/sessions/s-1/messages", SendRequest{Content: "hello"})

	rec := env.do(http.MethodDelete, "/api/sessions/s-1/messages", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if msgs := env.srv.Sessions().Get("s-1").Messages(); len(msgs) != 0 {
		t.Errorf("messages after clear = %d", len(msgs))
	}
	if _, err := env.convs.Load("s-1"); err == nil {
		t.Error("cleared conversation is still persisted")
	}
}

func TestQuestions(t *testing.T) {
	env := newTestEnv(t, 100)

	rec := env.do(http.MethodGet, "/api/sessions/s-1/questions", nil)
	resp := decode[QuestionsResponse](t, rec)
	if len(resp.Questions) != 3 {
		t.Errorf("default questions = %d, want 3", len(resp.Questions))
	}

	env.do(http.MethodPost, "/api/sessions/s-1/messages", SendRequest{Content: "Explain the research methodology of this study"})
	rec = env.do(http.MethodGet, "/api/sessions/s-1/questions?count=5", nil)
	resp = decode[QuestionsResponse](t, rec)
	if len(resp.Questions) != 5 {
		t.Errorf("questions = %d, want 5", len(resp.Questions))
	}

	rec = env.do(http.MethodGet, "/api/sessions/s-1/questions?count=many", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad count status = %d, want 400", rec.Code)
	}
}

// =============================================================================
// STUDY TESTS
// =============================================================================

func TestStudyLifecycle(t *testing.T) {
	env := newTestEnv(t, 100)

	rec := env.do(http.MethodPost, "/api/study/end", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("end without session status = %d, want 409", rec.Code)
	}

	rec = env.do(http.MethodPost, "/api/study/start", map[string]string{"courseId": "cs101"})
	started := decode[model.StudySession](t, rec)
	if !started.Active || started.Course == nil || started.Course.ID != "cs101" {
		t.Fatalf("started = %+v", started)
	}

	env.do(http.MethodPost, "/api/sessions/s-1/messages", SendRequest{Content: "hello"})

	status := decode[StudyStatus](t, env.do(http.MethodGet, "/api/study", nil))
	if status.Active == nil || status.Active.MessageCount != 1 {
		t.Errorf("active = %+v", status.Active)
	}

	rec = env.do(http.MethodPost, "/api/study/end", nil)
	ended := decode[model.StudySession](t, rec)
	if ended.Active || ended.EndTime == nil {
		t.Errorf("ended = %+v", ended)
	}

	status = decode[StudyStatus](t, env.do(http.MethodGet, "/api/study", nil))
	if status.Active != nil || len(status.Sessions) != 1 || status.Stats.TotalSessions != 1 {
		t.Errorf("status after end = %+v", status)
	}
}

// =============================================================================
// EXPORT TESTS
// =============================================================================

func TestExport_CurrentSession(t *testing.T) {
	env := newTestEnv(t, 100)
	env.do(http.MethodPost, "/api/sessions/s-1/messages", SendRequest{Content: "What is entropy?"})

	rec := env.do(http.MethodGet, "/api/sessions/s-1/export?format=md", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/markdown" {
		t.Errorf("Content-Type = %q", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "university-chat-export-") || !strings.Contains(cd, ".md") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "What is entropy?") {
		t.Error("export does not contain the conversation")
	}
}

func TestExport_FallsBackToStoredConversations(t *testing.T) {
	env := newTestEnv(t, 100)

	old := model.NewConversation("older")
	old.Messages = append(old.Messages, model.NewUserMessage("archived question", nil, nil))
	if err := env.convs.Save(old); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rec := env.do(http.MethodGet, "/api/sessions/fresh/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var doc struct {
		Conversations struct {
			TotalMessages int `json:"totalMessages"`
		} `json:"conversations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if doc.Conversations.TotalMessages != 1 {
		t.Errorf("totalMessages = %d, want 1", doc.Conversations.TotalMessages)
	}
}

func TestExport_BadFormat(t *testing.T) {
	env := newTestEnv(t, 100)
	rec := env.do(http.MethodGet, "/api/sessions/s-1/export?format=pdf", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// =============================================================================
// ATTACHMENT TESTS
// =============================================================================

func TestAttachments(t *testing.T) {
	env := newTestEnv(t, 100)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("files", "notes.txt")
	fw.Write([]byte("lecture notes"))
	fw, _ = mw.CreateFormFile("files", "setup.exe")
	fw.Write([]byte{0x4d, 0x5a, 0x90, 0x00})
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/attachments", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decode[UploadResponse](t, rec)
	if len(resp.Attachments) != 1 || resp.Attachments[0].Name != "notes.txt" {
		t.Errorf("attachments = %+v", resp.Attachments)
	}
	if len(resp.Rejected) != 1 || resp.Rejected[0].Name != "setup.exe" {
		t.Errorf("rejected = %+v", resp.Rejected)
	}
}

func TestAttachments_NoFiles(t *testing.T) {
	env := newTestEnv(t, 100)
	rec := env.do(http.MethodPost, "/api/attachments", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// =============================================================================
// CORS TESTS
// =============================================================================

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, 100)

	req := httptest.NewRequest(http.MethodOptions, "/api/sessions/s-1/messages", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Allow-Origin = %q", got)
	}
}
