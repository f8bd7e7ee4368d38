package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-screener/constants"
)

// messageLookback bounds how many of the newest thread messages we scan for
// the assistant's reply after a run completes.
const messageLookback = 10

type thread struct {
	ID string `json:"id"`
}

type run struct {
	ID        string              `json:"id"`
	Status    constants.RunStatus `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
}

type messageList struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

// RunStage implements llm.StageRunner against the assistants API. It creates
// or continues a thread, starts a run, polls until a terminal status or the
// configured wall-clock timeout, and returns the newest assistant text
// message. Every failure mode is logged and reported as ok=false; nothing
// escapes to the caller as an error.
func (c *Client) RunStage(ctx context.Context, assistantID, prompt, threadID string) (string, string, bool) {
	if c.cfg.APIKey == "" {
		c.log.Error("stage.run.unconfigured", "reason", "missing api key")
		return "", threadID, false
	}
	if assistantID == "" {
		c.log.Error("stage.run.unconfigured", "reason", "missing assistant id")
		return "", threadID, false
	}
	if strings.TrimSpace(prompt) == "" {
		c.log.Warn("stage.run.empty_prompt", "assistant_id", assistantID)
		return "", threadID, false
	}

	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("stage.run.start", "req_id", rid, "assistant_id", assistantID, "prompt_len", len(prompt), "thread_id", threadID)

	// Thread management: fresh thread seeded with the prompt, or a new turn
	// appended to the existing conversation.
	if threadID == "" {
		var t thread
		body := map[string]any{
			"messages": []map[string]any{{"role": "user", "content": prompt}},
		}
		if err := c.post(ctx, "/threads", body, &t); err != nil {
			c.log.Error("stage.run.thread_create_failed", "req_id", rid, "error", err)
			return "", threadID, false
		}
		threadID = t.ID
	} else {
		body := map[string]any{"role": "user", "content": prompt}
		if err := c.post(ctx, "/threads/"+threadID+"/messages", body, nil); err != nil {
			c.log.Error("stage.run.message_append_failed", "req_id", rid, "thread_id", threadID, "error", err)
			return "", threadID, false
		}
	}

	var r run
	if err := c.post(ctx, "/threads/"+threadID+"/runs", map[string]any{"assistant_id": assistantID}, &r); err != nil {
		c.log.Error("stage.run.submit_failed", "req_id", rid, "thread_id", threadID, "error", err)
		return "", threadID, false
	}
	c.log.Debug("stage.run.submitted", "req_id", rid, "run_id", r.ID, "status", r.Status)

	submitted := time.Now()
	for r.Status.Pending() {
		if time.Since(submitted) > c.cfg.RunTimeout {
			c.log.Error("stage.run.timeout", "req_id", rid, "run_id", r.ID, "timeout", c.cfg.RunTimeout.String())
			// Best effort: the remote run keeps billing until cancelled, but a
			// failed cancel is not worth escalating over.
			if err := c.post(ctx, "/threads/"+threadID+"/runs/"+r.ID+"/cancel", map[string]any{}, nil); err != nil {
				c.log.Error("stage.run.cancel_failed", "req_id", rid, "run_id", r.ID, "error", err)
			}
			return "", threadID, false
		}
		select {
		case <-ctx.Done():
			c.log.Error("stage.run.context_cancelled", "req_id", rid, "run_id", r.ID, "error", ctx.Err())
			return "", threadID, false
		case <-time.After(c.cfg.PollInterval):
		}
		var cur run
		if err := c.get(ctx, "/threads/"+threadID+"/runs/"+r.ID, &cur); err != nil {
			c.log.Error("stage.run.poll_failed", "req_id", rid, "run_id", r.ID, "error", err)
			return "", threadID, false
		}
		r.Status = cur.Status
		r.LastError = cur.LastError
		c.log.Debug("stage.run.poll", "req_id", rid, "run_id", r.ID, "status", r.Status)
	}

	switch r.Status {
	case constants.RunStatusCompleted:
		text, found := c.latestAssistantText(ctx, threadID)
		if !found {
			// Distinct from a timeout: the run finished but produced nothing
			// we can use.
			c.log.Warn("stage.run.no_response", "req_id", rid, "run_id", r.ID, "lookback", messageLookback)
			return "", threadID, false
		}
		c.log.Info("stage.run.ok", "req_id", rid, "run_id", r.ID, "response_len", len(text), "elapsed_ms", time.Since(start).Milliseconds())
		return text, threadID, true
	case constants.RunStatusRequiresAction:
		c.log.Error("stage.run.requires_action", "req_id", rid, "run_id", r.ID)
		return "", threadID, false
	default: // failed, cancelled, expired
		detail := "no specific error"
		if r.LastError != nil {
			detail = r.LastError.Code + ": " + r.LastError.Message
		}
		c.log.Error("stage.run.terminal_failure", "req_id", rid, "run_id", r.ID, "status", r.Status, "detail", detail)
		return "", threadID, false
	}
}

// latestAssistantText scans the newest messages on the thread for the first
// assistant-authored text content.
func (c *Client) latestAssistantText(ctx context.Context, threadID string) (string, bool) {
	var ml messageList
	path := fmt.Sprintf("/threads/%s/messages?order=desc&limit=%d", threadID, messageLookback)
	if err := c.get(ctx, path, &ml); err != nil {
		c.log.Error("stage.messages.list_failed", "thread_id", threadID, "error", err)
		return "", false
	}
	for _, msg := range ml.Data {
		if msg.Role != "assistant" {
			continue
		}
		for _, part := range msg.Content {
			if part.Type == "text" && part.Text.Value != "" {
				return part.Text.Value, true
			}
		}
	}
	return "", false
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	bs, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(bs), out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if cerr := Body.Close(); cerr != nil {
			c.log.Warn("openai response body close error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("openai status %d: %s", resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode openai response: %w", err)
	}
	return nil
}
