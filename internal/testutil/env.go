// Package testutil holds helpers shared by server and endpoint tests: free
// ports, a temporary config, and httptest fakes for the MediaWiki API and an
// OpenAI-compatible chat endpoint.
package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig returns configuration values for creating a test server.
// This avoids importing the server package directly.
type ServerConfig struct {
	Host       string
	Port       string
	HomeDir    string
	ConfigFile string
	Logger     *slog.Logger
}

// NewServerConfig creates configuration for a test server on a free port.
// The config file is written with WriteConfig.
func NewServerConfig(t *testing.T) ServerConfig {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	tempDir := t.TempDir()

	httpPort, err := FindFreePort()
	if err != nil {
		t.Fatalf("failed to find free port for HTTP: %v", err)
	}

	return ServerConfig{
		Host:       "127.0.0.1",
		Port:       httpPort,
		HomeDir:    tempDir,
		ConfigFile: filepath.Join(tempDir, "config.yaml"),
		Logger:     logger,
	}
}

// URL returns the server URL for the given config.
func (c ServerConfig) URL() string {
	return fmt.Sprintf("http://%s:%s", c.Host, c.Port)
}

// Fakes names the upstream endpoints a test config points at.
type Fakes struct {
	WikiAPIURL  string
	ModelURL    string
	ModelAPIKey string
}

// WriteConfig writes a config file whose only enabled provider is an
// OpenAI-compatible "fake" provider at f.ModelURL, with Wikipedia at
// f.WikiAPIURL. Extra values are merged over the top-level sections.
func (c ServerConfig) WriteConfig(t *testing.T, f Fakes, extra map[string]any) {
	t.Helper()

	provider := map[string]any{
		"type":        "openai",
		"model":       "fake-model",
		"api_key":     f.ModelAPIKey,
		"rate_limit":  600,
		"max_retries": -1,
		"enabled":     true,
	}
	if f.ModelURL != "" {
		provider["base_url"] = f.ModelURL
	}

	cfg := map[string]any{
		"llm_providers": map[string]any{
			"fake":       provider,
			"gemini":     map[string]any{"type": "gemini", "enabled": false},
			"openrouter": map[string]any{"type": "openai", "enabled": false},
		},
		"defaults": map[string]any{"llm_provider": "fake"},
		"server":   map[string]any{"host": c.Host},
		"wikipedia": map[string]any{
			"api_url":        f.WikiAPIURL,
			"max_retries":    1,
			"retry_delay_ms": 1,
		},
	}
	for k, v := range extra {
		cfg[k] = v
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("failed to marshal test config: %v", err)
	}
	if err := os.WriteFile(c.ConfigFile, data, 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
}

// WaitForServer polls the /health endpoint until it answers 200.
func WaitForServer(url string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	return fmt.Errorf("server not ready after %v", timeout)
}

// WaitForShutdown waits for a channel to receive a value or timeout.
func WaitForShutdown(done <-chan error, timeout time.Duration) error {
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for shutdown")
	}
}

// HTTPClient returns an HTTP client for making requests.
func HTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// FindFreePort finds an available TCP port and returns it as a string.
func FindFreePort() (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer listener.Close()
	return fmt.Sprintf("%d", listener.Addr().(*net.TCPAddr).Port), nil
}

// StartServer is a helper type for managing server lifecycle in tests.
// Usage:
//
//	srv, err := server.New(server.Config{...})
//	ctx, cancel := context.WithCancel(context.Background())
//	done := make(chan error, 1)
//	go func() { done <- srv.Start(ctx) }()
//	starter := testutil.StartServer{Cancel: cancel, Done: done}
//	t.Cleanup(starter.Stop)
type StartServer struct {
	Cancel context.CancelFunc
	Done   <-chan error
}

// Stop cancels the server context and waits for shutdown.
func (s *StartServer) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
	if s.Done != nil {
		<-s.Done
	}
}
