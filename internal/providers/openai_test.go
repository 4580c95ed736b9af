package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func fakeOpenAI(t *testing.T, status int, body string, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if captured != nil {
			var payload map[string]any
			_ = json.NewDecoder(r.Body).Decode(&payload)
			*captured = payload
		}
		w.Header().Set("Content-Type", "application/json")
		if status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "3")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestOpenAI(baseURL string) *OpenAIClient {
	return NewOpenAIClient(OpenAIConfig{
		APIKey:       "test-key",
		DefaultModel: "gpt-test",
		BaseURL:      baseURL + "/",
		MaxRetries:   -1,
	})
}

func TestOpenAIClient_Chat(t *testing.T) {
	var payload map[string]any
	srv := fakeOpenAI(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1,
		"model": "gpt-test-2025",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"ok\":true}"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 9, "completion_tokens": 3, "total_tokens": 12}
	}`, &payload)

	result, err := newTestOpenAI(srv.URL).Chat(context.Background(), &ChatRequest{
		Messages: []Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "explain osmosis"},
		},
		ResponseFormat: &ResponseFormat{
			Type:       "json_schema",
			JSONSchema: json.RawMessage(`{"name":"section","strict":false,"schema":{"type":"object"}}`),
		},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if result.Content != `{"ok":true}` || result.FinishReason != "stop" || result.Blocked {
		t.Errorf("unexpected result %+v", result)
	}
	if result.TotalTokens != 12 || result.ModelUsed != "gpt-test-2025" {
		t.Errorf("TotalTokens = %d, ModelUsed = %q", result.TotalTokens, result.ModelUsed)
	}

	if payload["model"] != "gpt-test" {
		t.Errorf("model = %v", payload["model"])
	}
	rf, _ := payload["response_format"].(map[string]any)
	if rf["type"] != "json_schema" {
		t.Errorf("response_format = %v", payload["response_format"])
	}
	if msgs, _ := payload["messages"].([]any); len(msgs) != 2 {
		t.Errorf("messages = %v", payload["messages"])
	}
}

func TestOpenAIClient_ContentFilter(t *testing.T) {
	srv := fakeOpenAI(t, http.StatusOK, `{
		"id": "chatcmpl-2", "object": "chat.completion", "created": 1, "model": "gpt-test",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": ""}, "finish_reason": "content_filter"}]
	}`, nil)

	result, err := newTestOpenAI(srv.URL).Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "x"}},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if !result.Blocked || result.BlockReason != "content_filter" {
		t.Errorf("Blocked = %v, BlockReason = %q", result.Blocked, result.BlockReason)
	}
}

func TestOpenAIClient_RateLimit(t *testing.T) {
	srv := fakeOpenAI(t, http.StatusTooManyRequests, `{"error": {"message": "slow down", "type": "rate_limit"}}`, nil)

	result, err := newTestOpenAI(srv.URL).Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: "user", Content: "x"}}})

	var rlErr *RateLimitError
	if !errors.As(err, &rlErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rlErr.RetryAfter != 3*time.Second {
		t.Errorf("RetryAfter = %v, want 3s", rlErr.RetryAfter)
	}
	if result.ErrorType != "rate_limit" || result.RetryAfter != 3*time.Second {
		t.Errorf("ErrorType = %q, RetryAfter = %v", result.ErrorType, result.RetryAfter)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("5"); got != 5*time.Second {
		t.Errorf("parseRetryAfter(5) = %v", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("parseRetryAfter(\"\") = %v", got)
	}
	if got := parseRetryAfter("garbage"); got != 0 {
		t.Errorf("parseRetryAfter(garbage) = %v", got)
	}
	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > time.Minute {
		t.Errorf("parseRetryAfter(date) = %v", got)
	}
}
