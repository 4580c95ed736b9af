package providers

import (
	"context"
	"errors"
	"time"
)

// RateLimitedClient gates an LLMClient behind a shared RateLimiter. Time
// spent waiting for a token is reported as QueueTime.
type RateLimitedClient struct {
	client  LLMClient
	limiter *RateLimiter
}

// NewRateLimitedClient wraps client with limiter.
func NewRateLimitedClient(client LLMClient, limiter *RateLimiter) *RateLimitedClient {
	return &RateLimitedClient{client: client, limiter: limiter}
}

// Name returns the wrapped client's name.
func (c *RateLimitedClient) Name() string {
	return c.client.Name()
}

// Unwrap returns the wrapped client.
func (c *RateLimitedClient) Unwrap() LLMClient {
	return c.client
}

// Limiter returns the limiter gating this client.
func (c *RateLimitedClient) Limiter() *RateLimiter {
	return c.limiter
}

// Chat waits for a token, then forwards the request.
func (c *RateLimitedClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	queued := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	queueTime := time.Since(queued)

	result, err := c.client.Chat(ctx, req)

	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		c.limiter.Record429(rlErr.RetryAfter)
	}
	if result != nil {
		result.QueueTime = queueTime
		result.TotalTime += queueTime
	}
	return result, err
}

var _ LLMClient = (*RateLimitedClient)(nil)
