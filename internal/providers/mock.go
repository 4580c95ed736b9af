package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockResponse is one scripted reply. Err makes the call fail; Blocked
// simulates a content-safety refusal.
type MockResponse struct {
	Text        string
	Err         error
	Blocked     bool
	BlockReason string
}

// MockClient is an LLMClient for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)
	ResponseText string
	ResponseJSON json.RawMessage

	// Script, when set, answers request N with Script[N-1]; requests past
	// the end fall back to the fields above.
	Script []MockResponse

	// State
	requestCount atomic.Int64
	mu           sync.Mutex
	requests     []ChatRequest
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		Latency:      10 * time.Millisecond,
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Chat sends a mock chat request.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	c.mu.Lock()
	c.requests = append(c.requests, *req)
	c.mu.Unlock()

	result := &ChatResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
		Attempts:  1,
	}

	if c.ShouldFail {
		return failResult(result, start, "mock_failure", fmt.Errorf("mock client configured to fail"))
	}
	if c.FailAfter > 0 && int(count) > c.FailAfter {
		return failResult(result, start, "mock_failure", fmt.Errorf("mock client failed after %d requests", c.FailAfter))
	}

	// Simulate latency
	select {
	case <-time.After(c.Latency):
	case <-ctx.Done():
		return failResult(result, start, "context_cancelled", ctx.Err())
	}

	content := c.ResponseText
	if req.ResponseFormat != nil && len(c.ResponseJSON) > 0 {
		content = string(c.ResponseJSON)
	}
	if idx := int(count) - 1; idx < len(c.Script) {
		scripted := c.Script[idx]
		if scripted.Err != nil {
			return failResult(result, start, "mock_failure", scripted.Err)
		}
		content = scripted.Text
		result.Blocked = scripted.Blocked
		result.BlockReason = scripted.BlockReason
	}

	result.Success = true
	result.Content = content
	result.ExecutionTime = time.Since(start)
	result.TotalTime = result.ExecutionTime

	// Simulate token counting
	promptTokens := 0
	for _, m := range req.Messages {
		promptTokens += len(m.Content) / 4 // Rough estimate
	}
	result.PromptTokens = promptTokens
	result.CompletionTokens = len(content) / 4
	result.TotalTokens = result.PromptTokens + result.CompletionTokens

	return result, nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// Requests returns a copy of every request received.
func (c *MockClient) Requests() []ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChatRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// Reset resets the request counter and history.
func (c *MockClient) Reset() {
	c.requestCount.Store(0)
	c.mu.Lock()
	c.requests = nil
	c.mu.Unlock()
}

// Verify interface
var _ LLMClient = (*MockClient)(nil)
