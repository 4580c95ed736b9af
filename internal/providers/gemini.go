package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	GeminiName         = "gemini"
	geminiDefaultModel = "gemini-2.5-flash"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey       string
	DefaultModel string
	Timeout      time.Duration
	BaseURL      string       // Optional (tests)
	HTTPClient   *http.Client // Optional (tests)

	// SafetyThreshold applies to every harm category. Empty means
	// BLOCK_MEDIUM_AND_ABOVE.
	SafetyThreshold string
}

// GeminiClient implements LLMClient using the Google Gen AI SDK.
type GeminiClient struct {
	apiKey          string
	defaultModel    string
	safetyThreshold genai.HarmBlockThreshold
	client          *genai.Client
}

// safetyCategories are the harm categories every request is filtered on.
var safetyCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

// NewGeminiClient creates a new Gemini client. No network call is made.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = geminiDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	threshold := genai.HarmBlockThresholdBlockMediumAndAbove
	if cfg.SafetyThreshold != "" {
		threshold = genai.HarmBlockThreshold(strings.ToUpper(cfg.SafetyThreshold))
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	return &GeminiClient{
		apiKey:          cfg.APIKey,
		defaultModel:    cfg.DefaultModel,
		safetyThreshold: threshold,
		client:          client,
	}, nil
}

// Name returns the client identifier.
func (c *GeminiClient) Name() string {
	return GeminiName
}

// Model returns the configured default model.
func (c *GeminiClient) Model() string {
	return c.defaultModel
}

// Chat sends a generateContent request.
func (c *GeminiClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	result := &ChatResult{
		RequestID: req.RequestID,
		Provider:  GeminiName,
		ModelUsed: model,
		Attempts:  1,
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	system, turns := splitMessages(req.Messages)
	contents := make([]*genai.Content, 0, len(turns))
	for _, m := range turns {
		role := genai.Role(genai.RoleUser)
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	if len(contents) == 0 {
		return failResult(result, start, "invalid_request", errors.New("gemini: request has no user content"))
	}

	config := &genai.GenerateContentConfig{
		SafetySettings: c.safetySettings(),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.ResponseFormat != nil {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	result.ExecutionTime = time.Since(start)
	if err != nil {
		return failResult(result, start, "api_error", mapGeminiError(err))
	}

	if resp.UsageMetadata != nil {
		result.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		result.ReasoningTokens = int(resp.UsageMetadata.ThoughtsTokenCount)
		result.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	if resp.ModelVersion != "" {
		result.ModelUsed = resp.ModelVersion
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		result.Blocked = true
		result.BlockReason = string(resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) > 0 {
		finish := resp.Candidates[0].FinishReason
		result.FinishReason = string(finish)
		if isSafetyFinish(finish) {
			result.Blocked = true
			if result.BlockReason == "" {
				result.BlockReason = string(finish)
			}
		}
	}

	result.Content = resp.Text()
	result.Success = true
	result.TotalTime = time.Since(start)
	return result, nil
}

func (c *GeminiClient) safetySettings() []*genai.SafetySetting {
	settings := make([]*genai.SafetySetting, 0, len(safetyCategories))
	for _, category := range safetyCategories {
		settings = append(settings, &genai.SafetySetting{
			Category:  category,
			Threshold: c.safetyThreshold,
		})
	}
	return settings
}

func isSafetyFinish(reason genai.FinishReason) bool {
	switch reason {
	case genai.FinishReasonSafety,
		genai.FinishReasonProhibitedContent,
		genai.FinishReasonBlocklist,
		genai.FinishReasonSPII:
		return true
	}
	return false
}

func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return &RateLimitError{
				Message:    fmt.Sprintf("Gemini rate limited: %s", apiErr.Message),
				StatusCode: apiErr.Code,
			}
		}
		return fmt.Errorf("Gemini error (status %d): %s", apiErr.Code, apiErr.Message)
	}
	return err
}

var _ LLMClient = (*GeminiClient)(nil)
