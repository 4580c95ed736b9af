// Package llmcall records model calls for traceability. Every call is
// recorded with its prompt key and hash, the section it explained, and the
// provider's metrics.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/wikitutor/internal/providers"
)

// maxResponsePreview bounds how much model output a Call keeps.
const maxResponsePreview = 2000

// Call represents a recorded LLM API call.
type Call struct {
	// Unique identifier
	ID string `json:"id"`

	// Timing
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`
	QueueMs   int       `json:"queue_ms"`

	// Context references
	RequestID string `json:"request_id,omitempty"`
	PageTitle string `json:"page_title,omitempty"`
	Section   string `json:"section,omitempty"`

	// Prompt traceability
	PromptKey  string `json:"prompt_key"`
	PromptHash string `json:"prompt_hash,omitempty"` // Hash of the exact prompt template used

	// Model info
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`

	// Token usage
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	// Response
	Response    string `json:"response"`
	Blocked     bool   `json:"blocked,omitempty"`
	BlockReason string `json:"block_reason,omitempty"`

	// Status
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RecordOptions provides context for recording an LLM call.
type RecordOptions struct {
	// Context references (all optional)
	RequestID string
	PageTitle string
	Section   string

	// Prompt identification (required for traceability)
	PromptKey  string
	PromptHash string

	// Request parameters (pointer to distinguish "not set" from "set to 0")
	Temperature *float64
}

// FromChatResult creates a Call from a ChatResult.
// Returns nil if result is nil.
func FromChatResult(result *providers.ChatResult, opts RecordOptions) *Call {
	if result == nil {
		return nil
	}

	response := result.Content
	if len(response) > maxResponsePreview {
		response = response[:maxResponsePreview]
	}

	call := &Call{
		ID:           uuid.New().String(),
		Timestamp:    time.Now(),
		LatencyMs:    int(result.ExecutionTime.Milliseconds()),
		QueueMs:      int(result.QueueTime.Milliseconds()),
		RequestID:    opts.RequestID,
		PageTitle:    opts.PageTitle,
		Section:      opts.Section,
		PromptKey:    opts.PromptKey,
		PromptHash:   opts.PromptHash,
		Provider:     result.Provider,
		Model:        result.ModelUsed,
		Temperature:  opts.Temperature,
		InputTokens:  result.PromptTokens,
		OutputTokens: result.CompletionTokens,
		Response:     response,
		Blocked:      result.Blocked,
		BlockReason:  result.BlockReason,
		Success:      result.Success,
	}

	if !result.Success {
		call.Error = result.ErrorMessage
	}

	return call
}

// FromError creates a Call for a request that failed before any result was
// produced (e.g. cancelled while waiting for a rate limit token).
func FromError(provider string, err error, opts RecordOptions) *Call {
	call := FromChatResult(&providers.ChatResult{Provider: provider}, opts)
	if err != nil {
		call.Error = err.Error()
	}
	return call
}
