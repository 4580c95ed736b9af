package endpoints

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackzampolin/wikitutor/internal/llmcall"
	"github.com/jackzampolin/wikitutor/internal/prompts"
	"github.com/jackzampolin/wikitutor/internal/prompts/pedagogy"
	"github.com/jackzampolin/wikitutor/internal/providers"
	"github.com/jackzampolin/wikitutor/internal/svcctx"
)

func serve(t *testing.T, ep interface {
	Route() (string, string, http.HandlerFunc)
}, services *svcctx.Services, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	_, pattern, handler := ep.Route()
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if services != nil {
		req = req.WithContext(svcctx.WithServices(req.Context(), services))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReady(t *testing.T) {
	tests := []struct {
		name     string
		services *svcctx.Services
		want     int
		llm      string
	}{
		{"no services", nil, http.StatusServiceUnavailable, "not_initialized"},
		{"no default client", &svcctx.Services{Registry: providers.NewRegistry()}, http.StatusServiceUnavailable, "not_configured"},
		{"default registered", func() *svcctx.Services {
			r := providers.NewRegistry()
			r.SetLogger(quietLogger())
			r.RegisterLLM("mock", providers.NewMockClient())
			r.SetDefault("mock")
			return &svcctx.Services{Registry: r}
		}(), http.StatusOK, "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &ReadyEndpoint{}, tt.services, http.MethodGet, "/ready", "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if got := decode[HealthResponse](t, rec); got.LLM != tt.llm {
				t.Errorf("llm = %q, want %q", got.LLM, tt.llm)
			}
		})
	}
}

func TestStatus_NotInitialized(t *testing.T) {
	rec := serve(t, &StatusEndpoint{}, nil, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decode[StatusResponse](t, rec); got.Server != "not_initialized" {
		t.Errorf("server = %q, want not_initialized", got.Server)
	}
}

func TestExplain_Unavailable(t *testing.T) {
	rec := serve(t, &ExplainEndpoint{}, &svcctx.Services{}, http.MethodPost, "/api/explain",
		`{"url": "https://en.wikipedia.org/wiki/Osmosis"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestExplain_BodyTooLarge(t *testing.T) {
	body := `{"url": "` + strings.Repeat("a", maxExplainBody) + `"}`
	rec := serve(t, &ExplainEndpoint{}, &svcctx.Services{}, http.MethodPost, "/api/explain", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSections_BadInput(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/api/sections", "url is required"},
		{"/api/sections?url=ftp://example.org/Osmosis", "invalid Wikipedia URL"},
	}
	for _, tt := range tests {
		rec := serve(t, &SectionsEndpoint{}, &svcctx.Services{}, http.MethodGet, tt.target, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.target, rec.Code)
		}
		if got := decode[ErrorResponse](t, rec); !strings.Contains(got.Error, tt.want) {
			t.Errorf("%s: error = %q, want %q", tt.target, got.Error, tt.want)
		}
	}
}

func recorderWith(calls ...*llmcall.Call) *llmcall.Recorder {
	r := llmcall.NewRecorder(quietLogger(), 10)
	for _, c := range calls {
		r.RecordCall(c)
	}
	return r
}

func TestListLLMCalls(t *testing.T) {
	recorder := recorderWith(
		&llmcall.Call{ID: "a", RequestID: "r1", PageTitle: "Osmosis", Provider: "gemini", Success: true},
		&llmcall.Call{ID: "b", RequestID: "r1", PageTitle: "Osmosis", Provider: "gemini", Error: "boom"},
		&llmcall.Call{ID: "c", RequestID: "r2", PageTitle: "Diffusion", Provider: "openai", Success: true},
	)
	services := &svcctx.Services{Recorder: recorder}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"c", "b", "a"}},
		{"?request_id=r1", []string{"b", "a"}},
		{"?page=Diffusion", []string{"c"}},
		{"?provider=gemini&success=true", []string{"a"}},
		{"?success=false", []string{"b"}},
		{"?limit=2", []string{"c", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := serve(t, &ListLLMCallsEndpoint{}, services, http.MethodGet, "/api/llmcalls"+tt.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			resp := decode[LLMCallsResponse](t, rec)
			ids := make([]string, len(resp.Calls))
			for i, c := range resp.Calls {
				ids[i] = c.ID
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
			if resp.Stats.Total != 3 || resp.Stats.Failed != 1 {
				t.Errorf("stats = %+v", resp.Stats)
			}
		})
	}

	for _, bad := range []string{"?limit=x", "?limit=-1", "?success=maybe"} {
		rec := serve(t, &ListLLMCallsEndpoint{}, services, http.MethodGet, "/api/llmcalls"+bad, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", bad, rec.Code)
		}
	}
}

func TestGetLLMCall(t *testing.T) {
	services := &svcctx.Services{Recorder: recorderWith(&llmcall.Call{ID: "a", Success: true})}

	rec := serve(t, &GetLLMCallEndpoint{}, services, http.MethodGet, "/api/llmcalls/a", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decode[LLMCallResponse](t, rec); got.Call == nil || got.Call.ID != "a" {
		t.Errorf("call = %+v", got.Call)
	}

	rec = serve(t, &GetLLMCallEndpoint{}, services, http.MethodGet, "/api/llmcalls/zzz", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing call status = %d, want 404", rec.Code)
	}
}

func newPromptServices() *svcctx.Services {
	resolver := prompts.NewResolver(quietLogger())
	pedagogy.RegisterPrompts(resolver)
	return &svcctx.Services{Prompts: resolver}
}

func TestPrompts(t *testing.T) {
	services := newPromptServices()

	rec := serve(t, &ListPromptsEndpoint{}, services, http.MethodGet, "/api/prompts", "")
	list := decode[PromptsListResponse](t, rec)
	if len(list.Prompts) != 1 || list.Prompts[0].Key != pedagogy.PromptKey || list.Prompts[0].IsOverride {
		t.Fatalf("prompts = %+v", list.Prompts)
	}
	if list.Prompts[0].Description == "" {
		t.Error("missing description")
	}

	rec = serve(t, &GetPromptEndpoint{}, services, http.MethodGet, "/api/prompts/unknown.key", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown key status = %d, want 404", rec.Code)
	}

	setTests := []struct {
		name string
		key  string
		body string
		want int
	}{
		{"empty text", pedagogy.PromptKey, `{"text": ""}`, http.StatusBadRequest},
		{"bad template", pedagogy.PromptKey, `{"text": "{{.Broken"}`, http.StatusBadRequest},
		{"unknown key", "unknown.key", `{"text": "hi"}`, http.StatusNotFound},
		{"override", pedagogy.PromptKey, `{"text": "Explain {{.SectionTitle}}"}`, http.StatusOK},
	}
	for _, tt := range setTests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &SetPromptEndpoint{}, services, http.MethodPut, "/api/prompts/"+tt.key, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec = serve(t, &GetPromptEndpoint{}, services, http.MethodGet, "/api/prompts/"+pedagogy.PromptKey, "")
	got := decode[PromptResponse](t, rec)
	if !got.IsOverride || got.Text != "Explain {{.SectionTitle}}" {
		t.Errorf("prompt after override = %+v", got)
	}
	if len(got.Variables) != 1 || got.Variables[0] != "SectionTitle" {
		t.Errorf("variables = %v", got.Variables)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusTeapot, errors.New("short and stout").Error())
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := decode[ErrorResponse](t, rec); got.Error != "short and stout" {
		t.Errorf("error = %q", got.Error)
	}
}
