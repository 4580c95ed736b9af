package endpoints

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/wikitutor/internal/api"
	"github.com/jackzampolin/wikitutor/internal/llmcall"
	"github.com/jackzampolin/wikitutor/internal/svcctx"
)

// defaultCallLimit caps list responses when no limit is given.
const defaultCallLimit = 50

// LLMCallsResponse contains recent model calls, newest first.
type LLMCallsResponse struct {
	Calls []*llmcall.Call `json:"calls" yaml:"calls"`
	Total int             `json:"total" yaml:"total"`
	Stats llmcall.Stats   `json:"stats" yaml:"stats"`
}

// LLMCallResponse contains a single model call.
type LLMCallResponse struct {
	Call *llmcall.Call `json:"call" yaml:"call"`
}

// ListLLMCallsEndpoint handles GET /api/llmcalls.
type ListLLMCallsEndpoint struct{}

func (e *ListLLMCallsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/llmcalls", e.handler
}

func (e *ListLLMCallsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List model calls
//	@Description	Recent model calls kept in memory, newest first
//	@Tags			llmcalls
//	@Produce		json
//	@Param			request_id	query		string	false	"Filter by explain request ID"
//	@Param			page		query		string	false	"Filter by page title"
//	@Param			provider	query		string	false	"Filter by provider"
//	@Param			success		query		bool	false	"Filter by success status (true or false)"
//	@Param			limit		query		int		false	"Max results (default 50)"
//	@Success		200			{object}	LLMCallsResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/api/llmcalls [get]
func (e *ListLLMCallsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	recorder := svcctx.RecorderFrom(r.Context())
	if recorder == nil {
		writeError(w, http.StatusInternalServerError, "model call recorder not available")
		return
	}

	q := r.URL.Query()
	limit := defaultCallLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %q must be a non-negative integer", v))
			return
		}
		if n > 0 {
			limit = n
		}
	}

	var success *bool
	if v := q.Get("success"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid success filter: %q must be true or false", v))
			return
		}
		success = &b
	}

	requestID, page, provider := q.Get("request_id"), q.Get("page"), q.Get("provider")
	calls := lo.Filter(recorder.Recent(), func(c *llmcall.Call, _ int) bool {
		switch {
		case requestID != "" && c.RequestID != requestID:
			return false
		case page != "" && c.PageTitle != page:
			return false
		case provider != "" && c.Provider != provider:
			return false
		case success != nil && c.Success != *success:
			return false
		}
		return true
	})
	slices.Reverse(calls)
	if len(calls) > limit {
		calls = calls[:limit]
	}

	writeJSON(w, http.StatusOK, LLMCallsResponse{
		Calls: calls,
		Total: len(calls),
		Stats: recorder.Stats(),
	})
}

func (e *ListLLMCallsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var requestID, page, provider string
	var limit int
	var successOnly, failedOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent model calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())

			params := url.Values{}
			if requestID != "" {
				params.Set("request_id", requestID)
			}
			if page != "" {
				params.Set("page", page)
			}
			if provider != "" {
				params.Set("provider", provider)
			}
			if successOnly {
				params.Set("success", "true")
			}
			if failedOnly {
				params.Set("success", "false")
			}
			if limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}

			path := "/api/llmcalls"
			if len(params) > 0 {
				path += "?" + params.Encode()
			}

			var resp LLMCallsResponse
			if err := client.Get(ctx, path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&requestID, "request-id", "", "Filter by explain request ID")
	cmd.Flags().StringVar(&page, "page", "", "Filter by page title")
	cmd.Flags().StringVar(&provider, "provider", "", "Filter by provider")
	cmd.Flags().BoolVar(&successOnly, "success", false, "Only show successful calls")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only show failed calls")
	cmd.Flags().IntVar(&limit, "limit", defaultCallLimit, "Max results")
	return cmd
}

// GetLLMCallEndpoint handles GET /api/llmcalls/{id}.
type GetLLMCallEndpoint struct{}

func (e *GetLLMCallEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/llmcalls/{id}", e.handler
}

func (e *GetLLMCallEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a model call
//	@Description	Get a single recent model call by ID
//	@Tags			llmcalls
//	@Produce		json
//	@Param			id	path		string	true	"Model call ID"
//	@Success		200	{object}	LLMCallResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/llmcalls/{id} [get]
func (e *GetLLMCallEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}

	recorder := svcctx.RecorderFrom(r.Context())
	if recorder == nil {
		writeError(w, http.StatusInternalServerError, "model call recorder not available")
		return
	}

	call, ok := lo.Find(recorder.Recent(), func(c *llmcall.Call) bool { return c.ID == id })
	if !ok {
		writeError(w, http.StatusNotFound, "model call not found")
		return
	}

	writeJSON(w, http.StatusOK, LLMCallResponse{Call: call})
}

func (e *GetLLMCallEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a model call by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp LLMCallResponse
			if err := client.Get(cmd.Context(), "/api/llmcalls/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp.Call)
		},
	}
}
