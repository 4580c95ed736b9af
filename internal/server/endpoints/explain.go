package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/wikitutor/internal/api"
	"github.com/jackzampolin/wikitutor/internal/stream"
	"github.com/jackzampolin/wikitutor/internal/svcctx"
)

// maxExplainBody bounds the JSON request body.
const maxExplainBody = 64 << 10

// ExplainEndpoint handles POST /api/explain.
type ExplainEndpoint struct{}

func (e *ExplainEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/explain", e.handler
}

func (e *ExplainEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Explain a Wikipedia article
//	@Description	Streams newline-delimited JSON events: status, initial, one section event per explained section, and error.
//	@Tags			explain
//	@Accept			json
//	@Produce		application/x-ndjson
//	@Param			request	body		stream.Request	true	"Article URL and optional model credential"
//	@Success		200		{object}	stream.Event
//	@Failure		400		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/explain [post]
func (e *ExplainEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req stream.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxExplainBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	orch := svcctx.OrchestratorFrom(r.Context())
	if orch == nil {
		writeError(w, http.StatusServiceUnavailable, "explain service not available")
		return
	}

	plan, err := orch.Prepare(r.Context(), req)
	if err != nil {
		var inputErr *stream.InputError
		if errors.As(err, &inputErr) {
			writeError(w, http.StatusBadRequest, inputErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger := svcctx.LoggerFrom(r.Context())
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("request_id", plan.RequestID)
	logger.Info("explain stream opened", "page", plan.Page.Title, "api", plan.Page.APIURL)

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Request-Id", plan.RequestID)
	w.WriteHeader(http.StatusOK)

	if err := orch.Run(r.Context(), plan, stream.NewNDJSONSink(w)); err != nil {
		logger.Warn("explain stream ended early", "error", err)
		return
	}
	logger.Info("explain stream closed")
}

func (e *ExplainEndpoint) Command(getServerURL func() string) *cobra.Command {
	var apiKey, provider string
	cmd := &cobra.Command{
		Use:   "explain <url>",
		Short: "Explain a Wikipedia article section by section",
		Long: `Explain a Wikipedia article section by section.

Events are printed as they arrive. The command fails if the stream reports
an error event.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			printer := api.NewStreamPrinter(os.Stdout, api.GetOutputFormat())
			defer printer.Close()

			req := stream.Request{URL: args[0], APIKey: apiKey, Provider: provider}
			var streamErr error
			err := client.Stream(cmd.Context(), "/api/explain", req, func(record json.RawMessage) error {
				var ev struct {
					Type    stream.EventType `json:"type"`
					Message string           `json:"message"`
				}
				if err := json.Unmarshal(record, &ev); err != nil {
					return fmt.Errorf("invalid event: %w", err)
				}
				if ev.Type == stream.EventError {
					streamErr = errors.New(ev.Message)
				}
				var v any
				if err := json.Unmarshal(record, &v); err != nil {
					return fmt.Errorf("invalid event: %w", err)
				}
				return printer.Print(v)
			})
			if err != nil {
				return err
			}
			return streamErr
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Model API key (defaults to the server's configured key)")
	cmd.Flags().StringVar(&provider, "provider", "", "Model provider name (defaults to the server's default)")
	return cmd
}
