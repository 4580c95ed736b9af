package endpoints

import (
	"errors"
	"net/http"
	"net/url"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/wikitutor/internal/api"
	"github.com/jackzampolin/wikitutor/internal/svcctx"
	"github.com/jackzampolin/wikitutor/internal/wikipedia"
	"github.com/jackzampolin/wikitutor/internal/wikitext"
)

// SectionSummary describes one section that would be explained.
type SectionSummary struct {
	Index   int    `json:"index" yaml:"index"`
	Title   string `json:"title" yaml:"title"`
	Level   int    `json:"level" yaml:"level"`
	Chars   int    `json:"chars" yaml:"chars"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// SectionsResponse is the preview of an article's explainable sections.
type SectionsResponse struct {
	Page     wikipedia.PageMetadata `json:"page" yaml:"page"`
	Sections []SectionSummary       `json:"sections" yaml:"sections"`
	Total    int                    `json:"total" yaml:"total"`
}

// SectionsEndpoint handles GET /api/sections.
type SectionsEndpoint struct{}

func (e *SectionsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sections", e.handler
}

func (e *SectionsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Preview article sections
//	@Description	Resolve, fetch and split an article without calling a model
//	@Tags			explain
//	@Produce		json
//	@Param			url		query		string	true	"Wikipedia article URL"
//	@Param			content	query		bool	false	"Include cleaned section text"
//	@Success		200		{object}	SectionsResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/sections [get]
func (e *SectionsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := q.Get("url")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	ref, err := wikipedia.ParsePageURL(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid Wikipedia URL: "+err.Error())
		return
	}

	orch := svcctx.OrchestratorFrom(r.Context())
	if orch == nil {
		writeError(w, http.StatusServiceUnavailable, "explain service not available")
		return
	}

	meta, sections, err := orch.Sections(r.Context(), ref)
	if err != nil {
		var upstream *wikipedia.UpstreamError
		switch {
		case errors.Is(err, wikipedia.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.As(err, &upstream):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	withContent := q.Get("content") == "true"
	summaries := lo.Map(sections, func(s wikitext.Section, i int) SectionSummary {
		sum := SectionSummary{
			Index: i + 1,
			Title: s.Title,
			Level: s.Level,
			Chars: utf8.RuneCountInString(s.Content),
		}
		if withContent {
			sum.Content = s.Content
		}
		return sum
	})

	writeJSON(w, http.StatusOK, SectionsResponse{
		Page:     *meta,
		Sections: summaries,
		Total:    len(summaries),
	})
}

func (e *SectionsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var withContent bool
	cmd := &cobra.Command{
		Use:   "sections <url>",
		Short: "Preview the sections of an article that would be explained",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{"url": {args[0]}}
			if withContent {
				params.Set("content", "true")
			}
			client := api.NewClient(getServerURL())
			var resp SectionsResponse
			if err := client.Get(cmd.Context(), "/api/sections?"+params.Encode(), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&withContent, "content", false, "Include cleaned section text")
	return cmd
}
