package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jackzampolin/wikitutor/internal/config"
	"github.com/jackzampolin/wikitutor/internal/home"
	"github.com/jackzampolin/wikitutor/internal/server/endpoints"
	"github.com/jackzampolin/wikitutor/internal/testutil"
)

// newTestServer builds a server from a config file pointing at the given
// fakes.
func newTestServer(t *testing.T, cfg testutil.ServerConfig, fakes testutil.Fakes, extra map[string]any) *Server {
	t.Helper()
	cfg.WriteConfig(t, fakes, extra)

	mgr, err := config.NewManager(cfg.ConfigFile)
	if err != nil {
		t.Fatalf("config.NewManager() error = %v", err)
	}
	h, err := home.New(cfg.HomeDir)
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}

	srv, err := New(Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		ConfigManager: mgr,
		Home:          h,
		Logger:        cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func TestServer_FullLifecycle(t *testing.T) {
	cfg := testutil.NewServerConfig(t)
	wiki := testutil.FakeWiki(t)
	model := testutil.NewFakeModel(t)
	srv := newTestServer(t, cfg, testutil.Fakes{
		WikiAPIURL:  wiki.URL,
		ModelURL:    model.URL,
		ModelAPIKey: "test-key",
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// Start server in background
	serverErr := make(chan error, 1)
	serverCtx, serverCancel := context.WithCancel(ctx)
	go func() {
		serverErr <- srv.Start(serverCtx)
	}()

	if err := testutil.WaitForServer(cfg.URL(), 10*time.Second); err != nil {
		serverCancel()
		t.Fatalf("server did not start: %v", err)
	}

	t.Run("health_endpoint", func(t *testing.T) {
		resp, err := http.Get(cfg.URL() + "/health")
		if err != nil {
			t.Fatalf("health check failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var health endpoints.HealthResponse
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if health.Status != "ok" {
			t.Errorf("health.Status = %q, want %q", health.Status, "ok")
		}
	})

	t.Run("ready_endpoint", func(t *testing.T) {
		resp, err := http.Get(cfg.URL() + "/ready")
		if err != nil {
			t.Fatalf("ready check failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("ready status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var health endpoints.HealthResponse
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if health.LLM != "ok" {
			t.Errorf("health.LLM = %q, want %q", health.LLM, "ok")
		}
	})

	t.Run("status_endpoint", func(t *testing.T) {
		resp, err := http.Get(cfg.URL() + "/status")
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		defer resp.Body.Close()

		var status endpoints.StatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if status.Providers.Default != "fake" {
			t.Errorf("default provider = %q, want %q", status.Providers.Default, "fake")
		}
		if status.ConfigFile != cfg.ConfigFile {
			t.Errorf("config file = %q, want %q", status.ConfigFile, cfg.ConfigFile)
		}
	})

	t.Run("swagger_endpoint", func(t *testing.T) {
		resp, err := http.Get(cfg.URL() + "/swagger.json")
		if err != nil {
			t.Fatalf("swagger failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("swagger status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		var doc struct {
			Paths map[string]any `json:"paths"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
			t.Fatalf("failed to decode swagger: %v", err)
		}
		if _, ok := doc.Paths["/api/explain"]; !ok {
			t.Error("swagger paths missing /api/explain")
		}
	})

	t.Run("is_running", func(t *testing.T) {
		if !srv.IsRunning() {
			t.Error("IsRunning() = false, want true")
		}
		if srv.Addr() != cfg.Host+":"+cfg.Port {
			t.Errorf("Addr() = %q, want %q", srv.Addr(), cfg.Host+":"+cfg.Port)
		}
	})

	// Shutdown server
	serverCancel()

	if err := testutil.WaitForShutdown(serverErr, 10*time.Second); err != nil {
		t.Errorf("Start() returned error: %v", err)
	}

	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown, want false")
	}

	if _, err := http.Get(cfg.URL() + "/health"); err == nil {
		t.Error("server still responding after shutdown")
	}
}

func TestServer_DefaultsWithoutConfigManager(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")

	srv, err := New(Config{Logger: testutil.NewServerConfig(t).Logger})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if srv.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, want %q", srv.Addr(), "127.0.0.1:8080")
	}
	if srv.Registry().Default() != "gemini" {
		t.Errorf("default provider = %q, want %q", srv.Registry().Default(), "gemini")
	}
	if srv.Registry().HasDefault() {
		t.Error("HasDefault() = true without an API key")
	}
	if srv.Services() == nil || srv.Services().Orchestrator == nil {
		t.Fatal("services not initialized")
	}
}
