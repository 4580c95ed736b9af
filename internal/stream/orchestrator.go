// Package stream drives one explain request from article URL to an ordered
// stream of events: resolve the page, fetch and split the article, then
// explain each section in turn.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/jackzampolin/wikitutor/internal/explain"
	"github.com/jackzampolin/wikitutor/internal/llmcall"
	"github.com/jackzampolin/wikitutor/internal/providers"
	"github.com/jackzampolin/wikitutor/internal/wikipedia"
	"github.com/jackzampolin/wikitutor/internal/wikitext"
)

// DefaultMinSectionChars is the shortest cleaned section, in runes, that is
// worth explaining.
const DefaultMinSectionChars = 20

// DefaultSkipTitles are reference appendices that are never explained.
var DefaultSkipTitles = []string{
	"References",
	"External links",
	"See also",
	"Further reading",
	"Notes",
	"Bibliography",
	"Sources",
	"Citations",
}

// State is a step of the request lifecycle.
type State string

const (
	StateValidatingInput   State = "validating input"
	StateResolvingPage     State = "resolving page"
	StateFetchingArticle   State = "fetching article"
	StateSplitting         State = "splitting"
	StateEmittingInitial   State = "emitting initial"
	StateProcessingSection State = "processing section"
	StateCompleted         State = "completed"
	StateAborted           State = "aborted"
)

var validate = validator.New()

// Request is the body of an explain call.
type Request struct {
	URL      string `json:"url" validate:"required"`
	APIKey   string `json:"apiKey,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// ModelSource hands out a model client for a provider name and an optional
// caller-supplied key. *providers.Registry implements it.
type ModelSource interface {
	ForCredential(ctx context.Context, provider, apiKey string) (providers.LLMClient, error)
}

// Config tunes section filtering.
type Config struct {
	MinSectionChars int
	SkipTitles      []string
	Logger          *slog.Logger
}

// Orchestrator runs explain requests. It is safe for concurrent use; every
// request gets its own Plan and run state.
type Orchestrator struct {
	wiki      *wikipedia.Client
	models    ModelSource
	explainer *explain.Explainer
	minChars  int
	skip      map[string]bool
	logger    *slog.Logger
}

// NewOrchestrator creates an orchestrator. explainer is used as a template;
// each request binds it to its own model client.
func NewOrchestrator(wiki *wikipedia.Client, models ModelSource, explainer *explain.Explainer, cfg Config) *Orchestrator {
	if cfg.MinSectionChars <= 0 {
		cfg.MinSectionChars = DefaultMinSectionChars
	}
	if cfg.SkipTitles == nil {
		cfg.SkipTitles = DefaultSkipTitles
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	skip := lo.SliceToMap(cfg.SkipTitles, func(title string) (string, bool) {
		return strings.ToLower(strings.TrimSpace(title)), true
	})
	return &Orchestrator{
		wiki:      wiki,
		models:    models,
		explainer: explainer,
		minChars:  cfg.MinSectionChars,
		skip:      skip,
		logger:    cfg.Logger.With("component", "stream"),
	}
}

// Plan is a validated request, ready to run.
type Plan struct {
	RequestID string
	Page      wikipedia.PageReference

	wiki      *wikipedia.Client
	explainer *explain.Explainer
}

// Prepare validates req and acquires its model client. Any failure is an
// *InputError and means no stream should be opened.
func (o *Orchestrator) Prepare(ctx context.Context, req Request) (*Plan, error) {
	req.URL = strings.TrimSpace(req.URL)
	if err := validate.Struct(req); err != nil {
		return nil, &InputError{Message: "url is required"}
	}

	ref, err := wikipedia.ParsePageURL(req.URL)
	if err != nil {
		return nil, &InputError{Message: "invalid Wikipedia URL", Err: err}
	}

	client, err := o.models.ForCredential(ctx, req.Provider, strings.TrimSpace(req.APIKey))
	if err != nil {
		return nil, &InputError{Message: "model credential unavailable", Err: err}
	}

	return &Plan{
		RequestID: uuid.New().String(),
		Page:      ref,
		wiki:      o.endpoint(ref),
		explainer: o.explainer.WithClient(client),
	}, nil
}

// Sections resolves and fetches the referenced page and returns the sections
// that would be explained, without calling a model.
func (o *Orchestrator) Sections(ctx context.Context, ref wikipedia.PageReference) (*wikipedia.PageMetadata, []wikitext.Section, error) {
	wiki := o.endpoint(ref)
	meta, err := wiki.ResolvePage(ctx, ref.Title)
	if err != nil {
		return nil, nil, err
	}
	article, err := wiki.FetchArticle(ctx, meta.Title)
	if err != nil {
		return nil, nil, err
	}
	return meta, o.filter(wikitext.Split(article.Wikitext, article.Headings)), nil
}

// endpoint picks the wiki client for ref. The default edition keeps the
// configured endpoint, which may be a mirror.
func (o *Orchestrator) endpoint(ref wikipedia.PageReference) *wikipedia.Client {
	if ref.APIURL == wikipedia.DefaultAPIURL {
		return o.wiki
	}
	return o.wiki.Endpoint(ref.APIURL)
}

func (o *Orchestrator) filter(sections []wikitext.Section) []wikitext.Section {
	return lo.Filter(sections, func(s wikitext.Section, _ int) bool {
		if o.skip[strings.ToLower(strings.TrimSpace(s.Title))] {
			return false
		}
		return utf8.RuneCountInString(s.Content) >= o.minChars
	})
}

// Run executes plan, writing events to sink, and closes sink when done.
// Once Run starts, failures are reported as error events; the returned error
// is for logging only. A cancelled ctx stops the run without further events.
func (o *Orchestrator) Run(ctx context.Context, plan *Plan, sink Sink) (err error) {
	r := &run{
		o:      o,
		plan:   plan,
		sink:   sink,
		state:  StateValidatingInput,
		logger: o.logger.With("request_id", plan.RequestID, "title", plan.Page.Title),
	}
	ctx = llmcall.WithRequestID(ctx, plan.RequestID)

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic while streaming",
				"state", r.state,
				"panic", p,
				"stack", string(debug.Stack()),
			)
			err = &FaultError{State: r.state, Err: fmt.Errorf("panic: %v", p)}
			_ = sink.Emit(ErrorEvent("internal error while explaining the article"))
			r.state = StateAborted
		}
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return r.execute(ctx)
}

// run holds the mutable state of one request.
type run struct {
	o      *Orchestrator
	plan   *Plan
	sink   Sink
	state  State
	logger *slog.Logger
}

func (r *run) transition(s State) {
	r.logger.Debug("stream state", "from", r.state, "to", s)
	r.state = s
}

func (r *run) emit(ev Event) error {
	if err := r.sink.Emit(ev); err != nil {
		fault := &FaultError{State: r.state, Err: err}
		r.logger.Warn("stream sink failed", "state", r.state, "error", err)
		_ = r.sink.Emit(ErrorEvent("stream interrupted"))
		r.state = StateAborted
		return fault
	}
	return nil
}

// abort reports a request-level failure as the final error event.
func (r *run) abort(ctx context.Context, err error) error {
	failedIn := r.state
	r.state = StateAborted
	if ctx.Err() != nil {
		r.logger.Info("request cancelled", "state", failedIn)
		return ctx.Err()
	}
	r.logger.Warn("explain request failed", "state", failedIn, "error", err)
	if emitErr := r.emit(ErrorEvent(userMessage(r.plan.Page.Title, err))); emitErr != nil {
		return emitErr
	}
	return err
}

func (r *run) execute(ctx context.Context) error {
	title := r.plan.Page.Title

	r.transition(StateResolvingPage)
	if err := r.emit(StatusEvent(fmt.Sprintf("Resolving Wikipedia page %q...", title))); err != nil {
		return err
	}
	meta, err := r.plan.wiki.ResolvePage(ctx, title)
	if err != nil {
		return r.abort(ctx, err)
	}

	r.transition(StateFetchingArticle)
	if err := r.emit(StatusEvent(fmt.Sprintf("Fetching article %q...", meta.Title))); err != nil {
		return err
	}
	article, err := r.plan.wiki.FetchArticle(ctx, meta.Title)
	if err != nil {
		return r.abort(ctx, err)
	}

	r.transition(StateSplitting)
	sections := r.o.filter(wikitext.Split(article.Wikitext, article.Headings))
	total := len(sections)
	r.logger.Info("article split", "sections", total, "headings", len(article.Headings))
	if total == 0 {
		r.transition(StateCompleted)
		return r.emit(StatusEvent(fmt.Sprintf("No content found to explain for %q.", meta.Title)))
	}

	r.transition(StateEmittingInitial)
	if err := r.emit(InitialEvent(InitialData{
		PageTitle:     meta.Title,
		MainImageURL:  meta.ThumbnailURL,
		OriginalURL:   meta.CanonicalURL,
		TotalSections: total,
	})); err != nil {
		return err
	}

	r.transition(StateProcessingSection)
	failed := 0
	for i, section := range sections {
		if ctx.Err() != nil {
			return r.abort(ctx, ctx.Err())
		}
		index := i + 1
		if err := r.emit(StatusEvent(fmt.Sprintf("Explaining section %d of %d: %s", index, total, section.Title))); err != nil {
			return err
		}

		result := r.plan.explainer.Explain(ctx, section, meta.Title)
		if ctx.Err() != nil {
			return r.abort(ctx, ctx.Err())
		}
		if !result.OK() {
			failed++
			r.logger.Warn("section failed", "section", section.Title, "index", index, "error", result.Err())
		}

		if err := r.emit(SectionEvent(SectionData{
			SectionTitle:    section.Title,
			PedagogicalData: result,
			CurrentIndex:    index,
			TotalSections:   total,
		})); err != nil {
			return err
		}
	}

	r.transition(StateCompleted)
	r.logger.Info("explain request completed", "sections", total, "failed", failed)
	return r.emit(StatusEvent(fmt.Sprintf("Finished explaining %d sections of %q.", total, meta.Title)))
}

// userMessage renders a request-level failure for the client.
func userMessage(title string, err error) string {
	var upstream *wikipedia.UpstreamError
	switch {
	case errors.Is(err, wikipedia.ErrNotFound):
		return fmt.Sprintf("Wikipedia page %q was not found.", title)
	case errors.As(err, &upstream):
		return fmt.Sprintf("Wikipedia request failed: %v", upstream)
	default:
		return fmt.Sprintf("Failed to load the article: %v", err)
	}
}
