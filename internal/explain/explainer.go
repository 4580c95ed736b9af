// Package explain turns one article section into a pedagogical result by
// prompting a model and checking what comes back.
package explain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/wikitutor/internal/llmcall"
	"github.com/jackzampolin/wikitutor/internal/prompts"
	"github.com/jackzampolin/wikitutor/internal/prompts/pedagogy"
	"github.com/jackzampolin/wikitutor/internal/providers"
	"github.com/jackzampolin/wikitutor/internal/wikitext"
)

const (
	DefaultTemperature = 0.4
	DefaultMaxTokens   = 8192
	DefaultTimeout     = 2 * time.Minute
)

var validate = validator.New()

// Config configures an Explainer.
type Config struct {
	// Resolver supplies the section prompt. When nil a resolver holding
	// only the embedded prompt is created.
	Resolver *prompts.Resolver

	// Recorder receives every model call. Optional.
	Recorder *llmcall.Recorder

	// MaxContentChars bounds the section text sent to the model, in runes.
	MaxContentChars int

	// Model overrides the client's default model. Optional.
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration

	Logger *slog.Logger
}

// Explainer explains sections with one model client. It holds no
// per-request state; WithClient binds it to another client.
type Explainer struct {
	cfg    Config
	client providers.LLMClient
	format *providers.ResponseFormat
	schema *jsonschema.Schema
	logger *slog.Logger
}

// New creates an Explainer. client may be nil when the explainer is only
// used as a template for WithClient.
func New(client providers.LLMClient, cfg Config) (*Explainer, error) {
	if cfg.Resolver == nil {
		cfg.Resolver = prompts.NewResolver(cfg.Logger)
		pedagogy.RegisterPrompts(cfg.Resolver)
	}
	if cfg.MaxContentChars <= 0 {
		cfg.MaxContentChars = pedagogy.DefaultMaxContentChars
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	jsonSchema, err := json.Marshal(pedagogy.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to encode section schema: %w", err)
	}
	schema, err := providers.CompileSchema(jsonSchema)
	if err != nil {
		return nil, err
	}

	return &Explainer{
		cfg:    cfg,
		client: client,
		format: &providers.ResponseFormat{Type: "json_schema", JSONSchema: jsonSchema},
		schema: schema,
		logger: cfg.Logger.With("component", "explain"),
	}, nil
}

// WithClient returns a copy of e that calls client.
func (e *Explainer) WithClient(client providers.LLMClient) *Explainer {
	cp := *e
	cp.client = client
	return &cp
}

// Client returns the model client in use.
func (e *Explainer) Client() providers.LLMClient { return e.client }

// Explain produces the explanation for one section. Every failure is
// returned inside the Result; Explain never panics on model output.
func (e *Explainer) Explain(ctx context.Context, section wikitext.Section, pageTitle string) Result {
	if e.client == nil {
		return Failure(&Error{Kind: KindModel, Detail: "no model client configured"})
	}

	data := pedagogy.NewData(section.Title, section.Content, pageTitle, e.cfg.MaxContentChars)
	prompt, resolved, err := e.cfg.Resolver.Render(pedagogy.PromptKey, data)
	if err != nil {
		return Failure(newError(KindModel, fmt.Errorf("failed to render prompt: %w", err)))
	}

	temperature := e.cfg.Temperature
	opts := llmcall.RecordOptions{
		RequestID:   llmcall.RequestIDFromContext(ctx),
		PageTitle:   pageTitle,
		Section:     section.Title,
		PromptKey:   resolved.Key,
		PromptHash:  resolved.Hash,
		Temperature: &temperature,
	}

	result, err := e.client.Chat(ctx, &providers.ChatRequest{
		Messages:       []providers.Message{{Role: "user", Content: prompt}},
		Model:          e.cfg.Model,
		Temperature:    temperature,
		MaxTokens:      e.cfg.MaxTokens,
		Timeout:        e.cfg.Timeout,
		ResponseFormat: e.format,
		RequestID:      opts.RequestID,
	})
	if result != nil {
		e.cfg.Recorder.Record(result, opts)
	} else {
		e.cfg.Recorder.RecordCall(llmcall.FromError(e.client.Name(), err, opts))
	}
	if err != nil {
		return Failure(newError(KindModel, err))
	}
	if result == nil {
		return Failure(&Error{Kind: KindModel, Detail: "no response from model"})
	}

	parsed, err := e.parse(result)
	if err != nil {
		e.logger.Warn("section explanation rejected",
			"section", section.Title,
			"error", err,
		)
		return Failure(err)
	}
	return Success(parsed)
}

// parse applies, in order: the blocked check, object extraction, JSON
// decoding, schema validation, struct validation, and the answer check.
func (e *Explainer) parse(result *providers.ChatResult) (*PedagogicalResult, error) {
	content := strings.TrimSpace(result.Content)
	if result.Blocked && content == "" {
		return nil, &Error{Kind: KindBlocked, Detail: result.BlockReason}
	}

	object, ok := providers.ExtractJSONObject(content)
	if !ok {
		return nil, &Error{Kind: KindBadFormat}
	}

	raw := json.RawMessage(object)
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, newError(KindParse, err)
	}

	if err := providers.ValidateAgainst(e.schema, raw); err != nil {
		return nil, newError(KindInvalidStructure, err)
	}

	var out PedagogicalResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, newError(KindInvalidStructure, err)
	}
	if err := validateResult(&out); err != nil {
		return nil, newError(KindInvalidStructure, err)
	}
	out.fillQuestionIDs()
	return &out, nil
}

func validateResult(r *PedagogicalResult) error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	for i, q := range r.ScaffoldedQuiz.Questions {
		if !lo.Contains(q.Options, q.Answer) {
			return fmt.Errorf("question %d: answer %q is not one of its options", i+1, q.Answer)
		}
	}
	return nil
}
