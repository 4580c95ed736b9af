package endpoints

import (
	"github.com/jackzampolin/wikitutor/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	// SwaggerSpecPath overrides the embedded OpenAPI document.
	SwaggerSpecPath string
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Explain endpoints
		&ExplainEndpoint{},
		&SectionsEndpoint{},

		// Model call history endpoints
		&ListLLMCallsEndpoint{},
		&GetLLMCallEndpoint{},

		// Prompt endpoints
		&ListPromptsEndpoint{},
		&GetPromptEndpoint{},
		&SetPromptEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{SpecPath: cfg.SwaggerSpecPath},
		&SwaggerUIEndpoint{},
	}
}

// LLMCallCommands returns endpoints for model call history operations.
// This groups llmcall-related commands under "llmcalls" subcommand.
func LLMCallCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListLLMCallsEndpoint{},
		&GetLLMCallEndpoint{},
	}
}

// PromptCommands returns endpoints for prompt operations.
// This groups prompt-related commands under "prompts" subcommand.
func PromptCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListPromptsEndpoint{},
		&GetPromptEndpoint{},
		&SetPromptEndpoint{},
	}
}
