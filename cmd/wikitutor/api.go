package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/wikitutor/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running wikitutor server via HTTP.

These commands require a running server (wikitutor serve).
Use --server to specify a custom server URL.

Examples:
  wikitutor api health                                          # Check server health
  wikitutor api sections https://en.wikipedia.org/wiki/Osmosis  # Preview sections
  wikitutor api explain https://en.wikipedia.org/wiki/Osmosis   # Stream explanations
  wikitutor api llmcalls list --failed                          # Recent failed model calls`,
}

var llmcallsCmd = &cobra.Command{
	Use:   "llmcalls",
	Short: "Model call history commands",
}

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Prompt inspection and override commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))

	// Explain endpoints at top level of api
	apiCmd.AddCommand((&endpoints.ExplainEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SectionsEndpoint{}).Command(getServerURL))

	// Model calls as subcommand group
	for _, ep := range endpoints.LLMCallCommands() {
		llmcallsCmd.AddCommand(ep.Command(getServerURL))
	}

	// Prompts as subcommand group
	for _, ep := range endpoints.PromptCommands() {
		promptsCmd.AddCommand(ep.Command(getServerURL))
	}

	apiCmd.AddCommand((&endpoints.SwaggerEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerUIEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(llmcallsCmd)
	apiCmd.AddCommand(promptsCmd)
	rootCmd.AddCommand(apiCmd)
}
