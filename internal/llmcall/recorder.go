package llmcall

import (
	"log/slog"
	"sync"

	"github.com/jackzampolin/wikitutor/internal/providers"
)

// DefaultHistory is how many recent calls a Recorder keeps.
const DefaultHistory = 100

// Stats summarizes every call seen by a Recorder.
type Stats struct {
	Total        int64 `json:"total" yaml:"total"`
	Failed       int64 `json:"failed" yaml:"failed"`
	Blocked      int64 `json:"blocked" yaml:"blocked"`
	InputTokens  int64 `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int64 `json:"output_tokens" yaml:"output_tokens"`
}

// Recorder logs LLM calls and keeps a bounded history of the most recent
// ones. It is safe for concurrent use; a nil Recorder ignores calls.
type Recorder struct {
	logger *slog.Logger

	mu     sync.Mutex
	recent []*Call
	next   int
	full   bool
	stats  Stats
}

// NewRecorder creates a new LLM call recorder keeping history calls.
func NewRecorder(logger *slog.Logger, history int) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if history <= 0 {
		history = DefaultHistory
	}
	return &Recorder{
		logger: logger.With("component", "llmcall"),
		recent: make([]*Call, history),
	}
}

// Record captures an LLM call.
func (r *Recorder) Record(result *providers.ChatResult, opts RecordOptions) {
	r.RecordCall(FromChatResult(result, opts))
}

// RecordCall captures an already-constructed Call.
func (r *Recorder) RecordCall(call *Call) {
	if r == nil || call == nil {
		return
	}

	r.mu.Lock()
	r.recent[r.next] = call
	r.next = (r.next + 1) % len(r.recent)
	if r.next == 0 {
		r.full = true
	}
	r.stats.Total++
	if !call.Success {
		r.stats.Failed++
	}
	if call.Blocked {
		r.stats.Blocked++
	}
	r.stats.InputTokens += int64(call.InputTokens)
	r.stats.OutputTokens += int64(call.OutputTokens)
	r.mu.Unlock()

	attrs := []any{
		"call_id", call.ID,
		"request_id", call.RequestID,
		"section", call.Section,
		"prompt_key", call.PromptKey,
		"provider", call.Provider,
		"model", call.Model,
		"latency_ms", call.LatencyMs,
		"input_tokens", call.InputTokens,
		"output_tokens", call.OutputTokens,
	}
	switch {
	case !call.Success:
		r.logger.Warn("llm call failed", append(attrs, "error", call.Error)...)
	case call.Blocked:
		r.logger.Warn("llm call blocked", append(attrs, "reason", call.BlockReason)...)
	default:
		r.logger.Debug("llm call", attrs...)
	}
}

// Recent returns recorded calls, oldest first.
func (r *Recorder) Recent() []*Call {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Call
	if r.full {
		out = append(out, r.recent[r.next:]...)
	}
	out = append(out, r.recent[:r.next]...)
	return out
}

// Stats returns totals across every recorded call.
func (r *Recorder) Stats() Stats {
	if r == nil {
		return Stats{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
