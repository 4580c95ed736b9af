package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/wikitutor/internal/api"
	"github.com/jackzampolin/wikitutor/internal/llmcall"
	"github.com/jackzampolin/wikitutor/internal/providers"
	"github.com/jackzampolin/wikitutor/internal/svcctx"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status string `json:"status" yaml:"status"`
	LLM    string `json:"llm,omitempty" yaml:"llm,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Liveness check
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Readiness check
//	@Description	Ready when the default model provider has a configured key
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	HealthResponse
//	@Router			/ready [get]
func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", LLM: "ok"}

	registry := svcctx.RegistryFrom(r.Context())
	switch {
	case registry == nil:
		resp.Status = "degraded"
		resp.LLM = "not_initialized"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	case !registry.HasDefault():
		resp.Status = "degraded"
		resp.LLM = "not_configured"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (includes the default model provider)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			if resp.LLM != "" {
				fmt.Printf("LLM:    %s\n", resp.LLM)
			}
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server     string                                 `json:"server" yaml:"server"`
	Providers  ProvidersStatus                        `json:"providers" yaml:"providers"`
	RateLimits map[string]providers.RateLimiterStatus `json:"rate_limits,omitempty" yaml:"rate_limits,omitempty"`
	LLMCalls   llmcall.Stats                          `json:"llm_calls" yaml:"llm_calls"`
	ConfigFile string                                 `json:"config_file,omitempty" yaml:"config_file,omitempty"`
}

// ProvidersStatus shows registered LLM providers.
type ProvidersStatus struct {
	LLM     []string `json:"llm" yaml:"llm"`
	Default string   `json:"default" yaml:"default"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct{}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Server status
//	@Description	Registered providers, rate limiter state and model call totals
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Router			/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Server: "running",
	}

	if registry := svcctx.RegistryFrom(r.Context()); registry != nil {
		resp.Providers.LLM = registry.ListLLM()
		resp.Providers.Default = registry.Default()
		resp.RateLimits = registry.LimiterStatus()
	} else {
		resp.Server = "not_initialized"
	}
	resp.LLMCalls = svcctx.RecorderFrom(r.Context()).Stats()
	if cm := svcctx.ConfigFrom(r.Context()); cm != nil {
		resp.ConfigFile = cm.ConfigFileUsed()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
