package endpoints

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/wikitutor/internal/api"
	"github.com/jackzampolin/wikitutor/internal/prompts"
	"github.com/jackzampolin/wikitutor/internal/svcctx"
)

// PromptResponse represents a prompt as it is currently resolved.
type PromptResponse struct {
	Key         string   `json:"key" yaml:"key"`
	Text        string   `json:"text" yaml:"text"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Variables   []string `json:"variables,omitempty" yaml:"variables,omitempty"`
	Hash        string   `json:"hash" yaml:"hash"`
	IsOverride  bool     `json:"is_override" yaml:"is_override"`
}

// PromptsListResponse contains all prompts.
type PromptsListResponse struct {
	Prompts []PromptResponse `json:"prompts" yaml:"prompts"`
}

// SetPromptRequest is the request body for replacing a prompt's text.
type SetPromptRequest struct {
	Text string `json:"text"`
}

func promptResponse(embedded prompts.EmbeddedPrompt, resolved *prompts.ResolvedPrompt) PromptResponse {
	return PromptResponse{
		Key:         resolved.Key,
		Text:        resolved.Text,
		Description: embedded.Description,
		Variables:   resolved.Variables,
		Hash:        resolved.Hash,
		IsOverride:  resolved.IsOverride,
	}
}

// lookupPrompt resolves key and finds its embedded description.
func lookupPrompt(resolver *prompts.Resolver, key string) (PromptResponse, bool) {
	resolved, err := resolver.Resolve(key)
	if err != nil {
		return PromptResponse{}, false
	}
	var embedded prompts.EmbeddedPrompt
	for _, p := range resolver.AllEmbedded() {
		if p.Key == key {
			embedded = p
			break
		}
	}
	return promptResponse(embedded, resolved), true
}

// ListPromptsEndpoint handles GET /api/prompts.
type ListPromptsEndpoint struct{}

func (e *ListPromptsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts", e.handler
}

func (e *ListPromptsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List all prompts
//	@Description	Get every registered prompt with overrides applied
//	@Tags			prompts
//	@Produce		json
//	@Success		200	{object}	PromptsListResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/prompts [get]
func (e *ListPromptsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resolver := svcctx.PromptsFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusInternalServerError, "prompt resolver not available")
		return
	}

	embedded := resolver.AllEmbedded()
	resp := PromptsListResponse{
		Prompts: make([]PromptResponse, 0, len(embedded)),
	}
	for _, p := range embedded {
		resolved, err := resolver.Resolve(p.Key)
		if err != nil {
			continue
		}
		resp.Prompts = append(resp.Prompts, promptResponse(p, resolved))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *ListPromptsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PromptsListResponse
			if err := client.Get(cmd.Context(), "/api/prompts", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetPromptEndpoint handles GET /api/prompts/{key...}.
type GetPromptEndpoint struct{}

func (e *GetPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts/{key...}", e.handler
}

func (e *GetPromptEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a prompt
//	@Description	Get a specific prompt by key, with any override applied
//	@Tags			prompts
//	@Produce		json
//	@Param			key	path		string	true	"Prompt key (e.g., explain.pedagogy)"
//	@Success		200	{object}	PromptResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/prompts/{key} [get]
func (e *GetPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil || key == "" {
		writeError(w, http.StatusBadRequest, "invalid prompt key")
		return
	}

	resolver := svcctx.PromptsFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusInternalServerError, "prompt resolver not available")
		return
	}

	resp, ok := lookupPrompt(resolver, key)
	if !ok {
		writeError(w, http.StatusNotFound, "prompt not found: "+key)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *GetPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a prompt by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PromptResponse
			if err := client.Get(cmd.Context(), "/api/prompts/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// SetPromptEndpoint handles PUT /api/prompts/{key...}.
type SetPromptEndpoint struct{}

func (e *SetPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/prompts/{key...}", e.handler
}

func (e *SetPromptEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Override a prompt
//	@Description	Replace the text used for a prompt until the next restart or config reload
//	@Tags			prompts
//	@Accept			json
//	@Produce		json
//	@Param			key		path		string				true	"Prompt key"
//	@Param			body	body		SetPromptRequest	true	"Prompt override"
//	@Success		200		{object}	PromptResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/prompts/{key} [put]
func (e *SetPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil || key == "" {
		writeError(w, http.StatusBadRequest, "invalid prompt key")
		return
	}

	var req SetPromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	resolver := svcctx.PromptsFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusInternalServerError, "prompt resolver not available")
		return
	}

	if _, err := resolver.Resolve(key); err != nil {
		writeError(w, http.StatusNotFound, "prompt not found: "+key)
		return
	}
	if err := resolver.SetOverride(key, req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, _ := lookupPrompt(resolver, key)
	writeJSON(w, http.StatusOK, resp)
}

func (e *SetPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "set <key> --file <path>",
		Short: "Override a prompt with the contents of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp PromptResponse
			body := SetPromptRequest{Text: string(text)}
			if err := client.Put(cmd.Context(), "/api/prompts/"+url.PathEscape(args[0]), body, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the prompt template")
	cmd.MarkFlagRequired("file")
	return cmd
}
