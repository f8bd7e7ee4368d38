package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAssistantsAPI simulates the thread/run/message endpoints: runs walk a
// scripted status sequence, one status per poll.
type fakeAssistantsAPI struct {
	mu           sync.Mutex
	statusScript []string
	statusIdx    int
	lastError    map[string]string
	replyText    string
	noReply      bool
	cancelled    bool
	seenPrompts  []string
}

func (f *fakeAssistantsAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /threads", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		for _, m := range body.Messages {
			f.seenPrompts = append(f.seenPrompts, m.Content)
		}
		f.mu.Unlock()
		writeJSON(w, map[string]any{"id": "thread_1"})
	})
	mux.HandleFunc("POST /threads/thread_1/messages", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Content string `json:"content"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.seenPrompts = append(f.seenPrompts, body.Content)
		f.mu.Unlock()
		writeJSON(w, map[string]any{"id": "msg_1"})
	})
	mux.HandleFunc("POST /threads/thread_1/runs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "run_1", "status": f.nextStatus()})
	})
	mux.HandleFunc("GET /threads/thread_1/runs/run_1", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"id": "run_1", "status": f.nextStatus()}
		if f.lastError != nil {
			resp["last_error"] = f.lastError
		}
		writeJSON(w, resp)
	})
	mux.HandleFunc("POST /threads/thread_1/runs/run_1/cancel", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.cancelled = true
		f.mu.Unlock()
		writeJSON(w, map[string]any{"id": "run_1", "status": "cancelling"})
	})
	mux.HandleFunc("GET /threads/thread_1/messages", func(w http.ResponseWriter, r *http.Request) {
		if f.noReply {
			writeJSON(w, map[string]any{"data": []any{}})
			return
		}
		writeJSON(w, map[string]any{"data": []any{
			map[string]any{
				"role": "assistant",
				"content": []any{
					map[string]any{"type": "text", "text": map[string]any{"value": f.replyText}},
				},
			},
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": map[string]any{"value": "prompt"}},
				},
			},
		}})
	})
	return authCheck(mux)
}

func (f *fakeAssistantsAPI) nextStatus() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusIdx < len(f.statusScript) {
		s := f.statusScript[f.statusIdx]
		f.statusIdx++
		return s
	}
	return f.statusScript[len(f.statusScript)-1]
}

func (f *fakeAssistantsAPI) prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seenPrompts...)
}

func authCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") ||
			r.Header.Get("OpenAI-Beta") != "assistants=v2" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error": "missing auth or beta header"}`)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, fake *fakeAssistantsAPI, runTimeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		PollInterval: time.Millisecond,
		RunTimeout:   runTimeout,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunStage(t *testing.T) {
	t.Run("completed run returns the newest assistant text", func(t *testing.T) {
		fake := &fakeAssistantsAPI{
			statusScript: []string{"queued", "in_progress", "completed"},
			replyText:    `{"score_percent": 91}`,
		}
		c := newTestClient(t, fake, time.Minute)

		text, threadID, ok := c.RunStage(context.Background(), "asst_1", "score this resume", "")
		require.True(t, ok)
		assert.Equal(t, `{"score_percent": 91}`, text)
		assert.Equal(t, "thread_1", threadID)
		assert.Equal(t, []string{"score this resume"}, fake.prompts())
	})

	t.Run("existing thread gets the prompt appended", func(t *testing.T) {
		fake := &fakeAssistantsAPI{
			statusScript: []string{"completed"},
			replyText:    "follow-up answer",
		}
		c := newTestClient(t, fake, time.Minute)

		text, threadID, ok := c.RunStage(context.Background(), "asst_1", "second question", "thread_1")
		require.True(t, ok)
		assert.Equal(t, "follow-up answer", text)
		assert.Equal(t, "thread_1", threadID)
		assert.Equal(t, []string{"second question"}, fake.prompts())
	})

	t.Run("completed run with no assistant message is a failure", func(t *testing.T) {
		fake := &fakeAssistantsAPI{
			statusScript: []string{"completed"},
			noReply:      true,
		}
		c := newTestClient(t, fake, time.Minute)

		_, _, ok := c.RunStage(context.Background(), "asst_1", "prompt", "")
		assert.False(t, ok)
	})

	t.Run("terminal failure reports ok=false", func(t *testing.T) {
		fake := &fakeAssistantsAPI{
			statusScript: []string{"in_progress", "failed"},
			lastError:    map[string]string{"code": "rate_limit_exceeded", "message": "try later"},
		}
		c := newTestClient(t, fake, time.Minute)

		_, _, ok := c.RunStage(context.Background(), "asst_1", "prompt", "")
		assert.False(t, ok)
	})

	t.Run("requires_action is treated as a failure", func(t *testing.T) {
		fake := &fakeAssistantsAPI{statusScript: []string{"requires_action"}}
		c := newTestClient(t, fake, time.Minute)

		_, _, ok := c.RunStage(context.Background(), "asst_1", "prompt", "")
		assert.False(t, ok)
	})

	t.Run("stuck run times out and is cancelled best effort", func(t *testing.T) {
		fake := &fakeAssistantsAPI{statusScript: []string{"in_progress"}}
		c := newTestClient(t, fake, 10*time.Millisecond)

		_, _, ok := c.RunStage(context.Background(), "asst_1", "prompt", "")
		assert.False(t, ok)
		fake.mu.Lock()
		defer fake.mu.Unlock()
		assert.True(t, fake.cancelled)
	})

	t.Run("cancelled context stops polling", func(t *testing.T) {
		fake := &fakeAssistantsAPI{statusScript: []string{"in_progress"}}
		c := newTestClient(t, fake, time.Minute)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, ok := c.RunStage(ctx, "asst_1", "prompt", "")
		assert.False(t, ok)
	})

	t.Run("missing configuration fails fast without any request", func(t *testing.T) {
		c := NewClient(Config{APIKey: "k", BaseURL: "http://127.0.0.1:0"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

		_, _, ok := c.RunStage(context.Background(), "", "prompt", "")
		assert.False(t, ok)

		_, _, ok = c.RunStage(context.Background(), "asst_1", "   ", "")
		assert.False(t, ok)
	})
}
