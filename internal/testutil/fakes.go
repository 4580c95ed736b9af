package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// WikiPage is one article served by FakeWiki. Headings are level 2.
type WikiPage struct {
	PageID    int
	Title     string
	Wikitext  string
	Headings  []string
	Thumbnail string
}

// FakeWiki serves the two MediaWiki action API calls the client makes
// (action=query and action=parse) for pages. Unknown titles are reported
// missing.
func FakeWiki(t *testing.T, pages ...WikiPage) *httptest.Server {
	t.Helper()
	byTitle := make(map[string]WikiPage, len(pages))
	for i, p := range pages {
		if p.PageID == 0 {
			p.PageID = 1000 + i
		}
		byTitle[p.Title] = p
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var body any
		switch q.Get("action") {
		case "query":
			title := q.Get("titles")
			page, ok := byTitle[title]
			if !ok {
				body = map[string]any{"query": map[string]any{
					"pages": []any{map[string]any{"ns": 0, "title": title, "missing": true}},
				}}
				break
			}
			entry := map[string]any{
				"pageid":       page.PageID,
				"ns":           0,
				"title":        page.Title,
				"canonicalurl": "https://en.wikipedia.org/wiki/" + strings.ReplaceAll(page.Title, " ", "_"),
			}
			if page.Thumbnail != "" {
				entry["thumbnail"] = map[string]any{"source": page.Thumbnail}
			}
			body = map[string]any{"query": map[string]any{"pages": []any{entry}}}
		case "parse":
			page, ok := byTitle[q.Get("page")]
			if !ok {
				body = map[string]any{"error": map[string]any{
					"code": "missingtitle",
					"info": "The page you specified doesn't exist.",
				}}
				break
			}
			sections := make([]map[string]any, 0, len(page.Headings))
			for _, h := range page.Headings {
				sections = append(sections, map[string]any{"level": "2", "line": h})
			}
			body = map[string]any{"parse": map[string]any{
				"title":    page.Title,
				"pageid":   page.PageID,
				"sections": sections,
				"wikitext": page.Wikitext,
			}}
		default:
			http.Error(w, "unexpected action", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// FakeModel is an OpenAI-compatible chat completions endpoint answering
// with scripted message contents.
type FakeModel struct {
	*httptest.Server

	mu        sync.Mutex
	responses []string
	requests  int
	keys      []string
}

// NewFakeModel starts a fake model server. Request N is answered with
// responses[N-1]; later requests repeat the last response.
func NewFakeModel(t *testing.T, responses ...string) *FakeModel {
	t.Helper()
	m := &FakeModel{responses: responses}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.Close)
	return m
}

func (m *FakeModel) handle(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.Error(w, `{"error":{"message":"not found"}}`, http.StatusNotFound)
		return
	}

	m.mu.Lock()
	m.requests++
	m.keys = append(m.keys, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	content := ""
	if n := len(m.responses); n > 0 {
		content = m.responses[min(m.requests, n)-1]
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "fake-model",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{
			"prompt_tokens":     100,
			"completion_tokens": 50,
			"total_tokens":      150,
		},
	})
}

// Requests returns how many chat requests were served.
func (m *FakeModel) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

// APIKeys returns the bearer token of every request, in order.
func (m *FakeModel) APIKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}
