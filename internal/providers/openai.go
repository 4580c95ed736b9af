package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	OpenAIName         = "openai"
	openAIDefaultModel = "gpt-4o-mini"
)

// OpenAIConfig holds configuration for an OpenAI-compatible chat client.
// BaseURL points it at other compatible endpoints (e.g. OpenRouter).
type OpenAIConfig struct {
	APIKey       string
	DefaultModel string
	BaseURL      string
	MaxRetries   int // 0 means the default; negative disables retries
	Timeout      time.Duration
	HTTPClient   *http.Client // Optional (tests)
}

// OpenAIClient implements LLMClient using the official OpenAI SDK.
type OpenAIClient struct {
	apiKey       string
	defaultModel string
	baseURL      string
	client       openai.Client
}

// NewOpenAIClient creates a new OpenAI-compatible chat client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = openAIDefaultModel
	}
	switch {
	case cfg.MaxRetries < 0:
		cfg.MaxRetries = 0
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = 2
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		apiKey:       cfg.APIKey,
		defaultModel: cfg.DefaultModel,
		baseURL:      cfg.BaseURL,
		client:       openai.NewClient(opts...),
	}
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Model returns the configured default model.
func (c *OpenAIClient) Model() string {
	return c.defaultModel
}

// Chat sends a chat completion request.
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	result := &ChatResult{
		RequestID: req.RequestID,
		Provider:  OpenAIName,
		ModelUsed: model,
		Attempts:  1,
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: openAIMessages(req.Messages),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	format, err := openAIResponseFormat(model, req.ResponseFormat)
	if err != nil {
		return failResult(result, start, "invalid_request", err)
	}
	if format != nil {
		params.ResponseFormat = *format
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	result.ExecutionTime = time.Since(start)
	if err != nil {
		mapped := mapOpenAIError(err)
		var rlErr *RateLimitError
		if errors.As(mapped, &rlErr) {
			result.RetryAfter = rlErr.RetryAfter
			return failResult(result, start, "rate_limit", mapped)
		}
		return failResult(result, start, "api_error", mapped)
	}

	result.PromptTokens = int(resp.Usage.PromptTokens)
	result.CompletionTokens = int(resp.Usage.CompletionTokens)
	result.ReasoningTokens = int(resp.Usage.CompletionTokensDetails.ReasoningTokens)
	result.TotalTokens = int(resp.Usage.TotalTokens)
	if resp.Model != "" {
		result.ModelUsed = resp.Model
	}

	if len(resp.Choices) == 0 {
		return failResult(result, start, "empty_response", errors.New("OpenAI returned no choices"))
	}
	choice := resp.Choices[0]
	result.Content = choice.Message.Content
	result.FinishReason = choice.FinishReason
	if choice.FinishReason == "content_filter" {
		result.Blocked = true
		result.BlockReason = "content_filter"
	}
	if choice.Message.Refusal != "" && result.Content == "" {
		result.Blocked = true
		result.BlockReason = choice.Message.Refusal
	}

	result.Success = true
	result.TotalTime = time.Since(start)
	return result, nil
}

func openAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// openAIResponseFormat maps a ResponseFormat onto the SDK's union. Models
// that reject native schemas get plain prompting plus local validation.
func openAIResponseFormat(model string, rf *ResponseFormat) (*openai.ChatCompletionNewParamsResponseFormatUnion, error) {
	adapted, err := adaptedResponseFormat(model, rf)
	if err != nil || adapted == nil {
		return nil, err
	}

	if len(adapted.JSONSchema) == 0 {
		return &openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}, nil
	}

	var wrapper struct {
		Name   string          `json:"name"`
		Strict bool            `json:"strict"`
		Schema json.RawMessage `json:"schema"`
	}
	if err := json.Unmarshal(adapted.JSONSchema, &wrapper); err != nil {
		return nil, fmt.Errorf("invalid json_schema response format: %w", err)
	}
	if wrapper.Name == "" {
		wrapper.Name = "response"
	}
	var schema map[string]any
	if err := json.Unmarshal(wrapper.Schema, &schema); err != nil {
		return nil, fmt.Errorf("invalid json_schema.schema: %w", err)
	}

	return &openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
			JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:   wrapper.Name,
				Schema: schema,
				Strict: openai.Bool(wrapper.Strict),
			},
		},
	}, nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			retryAfter := time.Duration(0)
			if apiErr.Response != nil {
				retryAfter = parseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
			}
			return &RateLimitError{
				Message:    fmt.Sprintf("OpenAI rate limited: %s", apiErr.Message),
				RetryAfter: retryAfter,
				StatusCode: apiErr.StatusCode,
			}
		}
		if apiErr.Message != "" {
			return fmt.Errorf("OpenAI error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("OpenAI error (status %d)", apiErr.StatusCode)
	}
	return err
}

// parseRetryAfter reads a Retry-After header in seconds or HTTP-date form.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

var _ LLMClient = (*OpenAIClient)(nil)
