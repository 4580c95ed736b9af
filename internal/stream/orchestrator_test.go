package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/wikitutor/internal/explain"
	"github.com/jackzampolin/wikitutor/internal/providers"
	"github.com/jackzampolin/wikitutor/internal/wikipedia"
)

const osmosisWikitext = "'''Osmosis''' is the spontaneous net movement of solvent molecules through a membrane.\n\n" +
	"== Mechanism ==\nWater crosses a [[semipermeable membrane|membrane]] toward the higher solute concentration.<ref>Cite</ref>\n\n" +
	"== Applications ==\nOsmosis is used in {{lang|en|reverse osmosis}} water purification plants.\n\n" +
	"== Gallery ==\nTiny.\n\n" +
	"== References ==\n{{reflist}} Some reference text that is long enough to keep.\n"

const quizResponse = `{"explanation": {"coreConcepts": "Water moves."},
 "scaffoldedQuiz": {"questions": [{"id": 1, "text": "What moves?", "options": ["Water", "Salt"], "answer": "Water"}]}}`

type heading struct {
	Level      string `json:"level"`
	Line       string `json:"line"`
	ByteOffset *int   `json:"byteoffset"`
}

func queryBody(title string) string {
	return `{"query":{"pages":[{"pageid":23313,"ns":0,"title":"` + title + `",` +
		`"canonicalurl":"https://en.wikipedia.org/wiki/` + title + `",` +
		`"thumbnail":{"source":"https://upload.wikimedia.org/thumb.png"}}]}}`
}

func parseBody(t *testing.T, title, wikitext string, headings ...string) string {
	t.Helper()
	sections := make([]heading, 0, len(headings))
	for _, h := range headings {
		sections = append(sections, heading{Level: "2", Line: h})
	}
	body, err := json.Marshal(map[string]any{
		"parse": map[string]any{
			"title":    title,
			"sections": sections,
			"wikitext": wikitext,
		},
	})
	require.NoError(t, err)
	return string(body)
}

// fakeWiki serves canned action API responses keyed by the action parameter.
func fakeWiki(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Query().Get("action")]
		if !ok {
			http.Error(w, "unexpected action", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func osmosisWiki(t *testing.T) *httptest.Server {
	return fakeWiki(t, map[string]string{
		"query": queryBody("Osmosis"),
		"parse": parseBody(t, "Osmosis", osmosisWikitext, "Mechanism", "Applications", "Gallery", "References"),
	})
}

type staticModels struct {
	client   providers.LLMClient
	err      error
	provider string
	apiKey   string
}

func (s *staticModels) ForCredential(_ context.Context, provider, apiKey string) (providers.LLMClient, error) {
	s.provider, s.apiKey = provider, apiKey
	if s.err != nil {
		return nil, s.err
	}
	return s.client, nil
}

// funcClient adapts a function to providers.LLMClient.
type funcClient func(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error)

func (f funcClient) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
	return f(ctx, req)
}

func (f funcClient) Name() string { return "func" }

func newTestOrchestrator(t *testing.T, apiURL string, client providers.LLMClient) *Orchestrator {
	t.Helper()
	explainer, err := explain.New(nil, explain.Config{})
	require.NoError(t, err)
	wiki := wikipedia.NewClient(wikipedia.Config{APIURL: apiURL, RetryDelay: time.Millisecond, MaxRetries: 2})
	return NewOrchestrator(wiki, &staticModels{client: client}, explainer, Config{})
}

func mockModel(responses ...providers.MockResponse) *providers.MockClient {
	mock := providers.NewMockClient()
	mock.Latency = 0
	mock.ResponseText = quizResponse
	mock.Script = responses
	return mock
}

func runOsmosis(t *testing.T, o *Orchestrator) (*MemorySink, error) {
	t.Helper()
	plan, err := o.Prepare(context.Background(), Request{URL: "https://en.wikipedia.org/wiki/Osmosis"})
	require.NoError(t, err)
	sink := &MemorySink{}
	return sink, o.Run(context.Background(), plan, sink)
}

func sectionEvents(sink *MemorySink) []SectionData {
	var out []SectionData
	for _, ev := range sink.Events() {
		if ev.Type == EventSection {
			out = append(out, ev.Data.(SectionData))
		}
	}
	return out
}

func TestRun_Osmosis(t *testing.T) {
	srv := osmosisWiki(t)
	o := newTestOrchestrator(t, srv.URL, mockModel())

	sink, err := runOsmosis(t, o)
	require.NoError(t, err)

	assert.Equal(t, []EventType{
		EventStatus, EventStatus,
		EventInitial,
		EventStatus, EventSection,
		EventStatus, EventSection,
		EventStatus, EventSection,
		EventStatus,
	}, sink.Types())
	assert.Equal(t, 1, sink.CloseCount())

	events := sink.Events()
	initial := events[2].Data.(InitialData)
	assert.Equal(t, "Osmosis", initial.PageTitle)
	assert.Equal(t, 3, initial.TotalSections)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Osmosis", initial.OriginalURL)
	require.NotNil(t, initial.MainImageURL)

	sections := sectionEvents(sink)
	require.Len(t, sections, 3)
	for i, want := range []string{"Introduction", "Mechanism", "Applications"} {
		assert.Equal(t, want, sections[i].SectionTitle)
		assert.Equal(t, i+1, sections[i].CurrentIndex)
		assert.Equal(t, 3, sections[i].TotalSections)
		assert.True(t, sections[i].PedagogicalData.OK())
	}

	last := events[len(events)-1]
	assert.Contains(t, last.Message, "Finished")
}

func TestRun_SectionFailureDoesNotStopStream(t *testing.T) {
	srv := osmosisWiki(t)
	model := mockModel(
		providers.MockResponse{Text: quizResponse},
		providers.MockResponse{Err: errors.New("model overloaded")},
		providers.MockResponse{Text: quizResponse},
	)
	o := newTestOrchestrator(t, srv.URL, model)

	sink, err := runOsmosis(t, o)
	require.NoError(t, err)

	sections := sectionEvents(sink)
	require.Len(t, sections, 3)
	assert.True(t, sections[0].PedagogicalData.OK())
	assert.False(t, sections[1].PedagogicalData.OK())
	assert.Contains(t, sections[1].PedagogicalData.Err().Error(), "model overloaded")
	assert.True(t, sections[2].PedagogicalData.OK())
	assert.NotContains(t, sink.Types(), EventError)

	encoded, err := json.Marshal(sink.Events()[6])
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"pedagogicalData":{"error":"the model request failed: model overloaded"}`)
}

func TestRun_NoContent(t *testing.T) {
	srv := fakeWiki(t, map[string]string{
		"query": queryBody("Stub"),
		"parse": parseBody(t, "Stub", "Short.\n== See also ==\n* [[Something else entirely, long enough]]\n", "See also"),
	})
	model := mockModel()
	o := newTestOrchestrator(t, srv.URL, model)

	plan, err := o.Prepare(context.Background(), Request{URL: "https://en.wikipedia.org/wiki/Stub"})
	require.NoError(t, err)
	sink := &MemorySink{}
	require.NoError(t, o.Run(context.Background(), plan, sink))

	assert.Equal(t, []EventType{EventStatus, EventStatus, EventStatus}, sink.Types())
	assert.Contains(t, sink.Events()[2].Message, "No content")
	assert.Equal(t, int64(0), model.RequestCount())
	assert.Equal(t, 1, sink.CloseCount())
}

func TestRun_PageNotFound(t *testing.T) {
	srv := fakeWiki(t, map[string]string{
		"query": `{"query":{"pages":[{"ns":0,"title":"Nope","missing":true}]}}`,
	})
	o := newTestOrchestrator(t, srv.URL, mockModel())

	plan, err := o.Prepare(context.Background(), Request{URL: "https://en.wikipedia.org/wiki/Nope"})
	require.NoError(t, err)
	sink := &MemorySink{}
	err = o.Run(context.Background(), plan, sink)

	assert.ErrorIs(t, err, wikipedia.ErrNotFound)
	assert.Equal(t, []EventType{EventStatus, EventError}, sink.Types())
	assert.Contains(t, sink.Events()[1].Message, "not found")
}

func TestRun_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	o := newTestOrchestrator(t, srv.URL, mockModel())

	sink, err := runOsmosis(t, o)

	var upstream *wikipedia.UpstreamError
	assert.ErrorAs(t, err, &upstream)
	assert.Equal(t, []EventType{EventStatus, EventError}, sink.Types())
	assert.Contains(t, sink.Events()[1].Message, "Wikipedia request failed")
}

func TestRun_CancelledStopsPromptly(t *testing.T) {
	srv := osmosisWiki(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	client := funcClient(func(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
		calls++
		cancel()
		return &providers.ChatResult{Success: false, ErrorMessage: "canceled"}, ctx.Err()
	})
	o := newTestOrchestrator(t, srv.URL, client)

	plan, err := o.Prepare(ctx, Request{URL: "https://en.wikipedia.org/wiki/Osmosis"})
	require.NoError(t, err)
	sink := &MemorySink{}
	err = o.Run(ctx, plan, sink)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []EventType{EventStatus, EventStatus, EventInitial, EventStatus}, sink.Types())
	assert.Equal(t, 1, sink.CloseCount())
}

func TestRun_SinkFailure(t *testing.T) {
	srv := osmosisWiki(t)
	o := newTestOrchestrator(t, srv.URL, mockModel())

	plan, err := o.Prepare(context.Background(), Request{URL: "https://en.wikipedia.org/wiki/Osmosis"})
	require.NoError(t, err)
	sink := &MemorySink{FailAfter: 3}
	err = o.Run(context.Background(), plan, sink)

	var fault *FaultError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, StateProcessingSection, fault.State)
	assert.Len(t, sink.Events(), 3)
	assert.Equal(t, 1, sink.CloseCount())
}

func TestRun_PanicIsFault(t *testing.T) {
	srv := osmosisWiki(t)
	client := funcClient(func(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
		panic("boom")
	})
	o := newTestOrchestrator(t, srv.URL, client)

	sink, err := runOsmosis(t, o)

	var fault *FaultError
	require.ErrorAs(t, err, &fault)
	types := sink.Types()
	assert.Equal(t, EventError, types[len(types)-1])
	assert.NotContains(t, types, EventSection)
	assert.Equal(t, 1, sink.CloseCount())
}

func TestPrepare(t *testing.T) {
	explainer, err := explain.New(nil, explain.Config{})
	require.NoError(t, err)
	wiki := wikipedia.NewClient(wikipedia.Config{})

	t.Run("valid with caller key", func(t *testing.T) {
		models := &staticModels{client: mockModel()}
		o := NewOrchestrator(wiki, models, explainer, Config{})

		plan, err := o.Prepare(context.Background(), Request{
			URL:      " https://fr.wikipedia.org/wiki/Osmose ",
			APIKey:   " sk-test ",
			Provider: "openai",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, plan.RequestID)
		assert.Equal(t, "Osmose", plan.Page.Title)
		assert.Equal(t, "https://fr.wikipedia.org/w/api.php", plan.wiki.APIURL())
		assert.Equal(t, "openai", models.provider)
		assert.Equal(t, "sk-test", models.apiKey)
	})

	tests := []struct {
		name   string
		req    Request
		models *staticModels
		msg    string
	}{
		{name: "empty url", req: Request{URL: "  "}, models: &staticModels{}, msg: "url is required"},
		{name: "no scheme", req: Request{URL: "en.wikipedia.org/wiki/Osmosis"}, models: &staticModels{}, msg: "invalid Wikipedia URL"},
		{
			name:   "no credential",
			req:    Request{URL: "https://en.wikipedia.org/wiki/Osmosis"},
			models: &staticModels{err: errors.New("no API key configured for provider gemini")},
			msg:    "model credential unavailable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrchestrator(wiki, tt.models, explainer, Config{})
			plan, err := o.Prepare(context.Background(), tt.req)

			assert.Nil(t, plan)
			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr)
			assert.True(t, strings.HasPrefix(inputErr.Error(), tt.msg), inputErr.Error())
		})
	}
}

func TestSections(t *testing.T) {
	srv := osmosisWiki(t)
	o := newTestOrchestrator(t, srv.URL, mockModel())

	ref, err := wikipedia.ParsePageURL("https://en.wikipedia.org/wiki/Osmosis")
	require.NoError(t, err)
	meta, sections, err := o.Sections(context.Background(), ref)
	require.NoError(t, err)

	assert.Equal(t, "Osmosis", meta.Title)
	require.Len(t, sections, 3)
	assert.Equal(t, "Mechanism", sections[1].Title)
	assert.Equal(t, "Water crosses a membrane toward the higher solute concentration.", sections[1].Content)
}

func TestFilter_CustomConfig(t *testing.T) {
	o := NewOrchestrator(nil, nil, nil, Config{MinSectionChars: 5, SkipTitles: []string{"glossary"}})
	got := o.filter(sectionsOf("Intro", "long enough", "Glossary", "long enough too", "Tiny", "abc"))
	require.Len(t, got, 1)
	assert.Equal(t, "Intro", got[0].Title)
}
