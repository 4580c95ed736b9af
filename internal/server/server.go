package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/jackzampolin/wikitutor/docs"
	"github.com/jackzampolin/wikitutor/internal/api"
	"github.com/jackzampolin/wikitutor/internal/config"
	"github.com/jackzampolin/wikitutor/internal/explain"
	"github.com/jackzampolin/wikitutor/internal/home"
	"github.com/jackzampolin/wikitutor/internal/llmcall"
	"github.com/jackzampolin/wikitutor/internal/prompts"
	"github.com/jackzampolin/wikitutor/internal/prompts/pedagogy"
	"github.com/jackzampolin/wikitutor/internal/providers"
	"github.com/jackzampolin/wikitutor/internal/server/endpoints"
	"github.com/jackzampolin/wikitutor/internal/stream"
	"github.com/jackzampolin/wikitutor/internal/svcctx"
	"github.com/jackzampolin/wikitutor/internal/wikipedia"
)

// Server is the main wikitutor HTTP server.
// Providers and prompt overrides follow config changes; the Wikipedia client,
// explainer and orchestrator are rebuilt from the new config on each change.
type Server struct {
	httpServer *http.Server
	registry   *providers.Registry
	resolver   *prompts.Resolver
	recorder   *llmcall.Recorder
	configMgr  *config.Manager
	home       *home.Dir
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services atomic.Pointer[svcctx.Services]

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
	addr    string
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080, "0" picks a free port)
	Port string
	// ConfigManager provides configuration with hot-reload support.
	// When nil the built-in defaults are used.
	ConfigManager *config.Manager
	// Home resolves relative prompt override paths. Optional.
	Home *home.Dir
	// SwaggerSpecPath overrides the embedded OpenAPI document. Optional.
	SwaggerSpecPath string
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	appCfg := config.DefaultConfig()
	if cfg.ConfigManager != nil {
		appCfg = cfg.ConfigManager.Get()
	}

	// Create provider registry
	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)
	registry.Reload(context.Background(), appCfg.ToProviderRegistryConfig())

	resolver := prompts.NewResolver(cfg.Logger)
	pedagogy.RegisterPrompts(resolver)

	s := &Server{
		registry:  registry,
		resolver:  resolver,
		recorder:  llmcall.NewRecorder(cfg.Logger, appCfg.Explain.CallHistory),
		configMgr: cfg.ConfigManager,
		home:      cfg.Home,
		logger:    cfg.Logger,
	}

	if err := s.loadPromptOverrides(appCfg); err != nil {
		return nil, err
	}
	services, err := s.buildServices(appCfg)
	if err != nil {
		return nil, err
	}
	s.services.Store(services)

	// Watch for config changes
	if cfg.ConfigManager != nil {
		cfg.ConfigManager.OnChange(s.applyConfig)
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{SwaggerSpecPath: cfg.SwaggerSpecPath}) {
		s.endpointRegistry.Register(ep)
	}

	// WriteTimeout stays zero: explain streams last as long as the model
	// takes, and a client disconnect cancels the request context.
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s, nil
}

// buildServices wires the per-config services around the shared registry,
// resolver and recorder.
func (s *Server) buildServices(c *config.Config) (*svcctx.Services, error) {
	wikiCfg := c.ToWikipediaConfig()
	wikiCfg.Logger = s.logger
	wiki := wikipedia.NewClient(wikiCfg)

	explainCfg := c.ToExplainConfig()
	explainCfg.Resolver = s.resolver
	explainCfg.Recorder = s.recorder
	explainCfg.Logger = s.logger
	explainer, err := explain.New(nil, explainCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create explainer: %w", err)
	}

	streamCfg := c.ToStreamConfig()
	streamCfg.Logger = s.logger

	return &svcctx.Services{
		Registry:     s.registry,
		Orchestrator: stream.NewOrchestrator(wiki, s.registry, explainer, streamCfg),
		Prompts:      s.resolver,
		Recorder:     s.recorder,
		Config:       s.configMgr,
		Logger:       s.logger,
		Home:         s.home,
	}, nil
}

// loadPromptOverrides replaces the resolver's overrides with the files named
// in c. Relative paths are taken from the home directory.
func (s *Server) loadPromptOverrides(c *config.Config) error {
	files := make(map[string]string, len(c.Explain.PromptFiles))
	for key, path := range c.Explain.PromptFiles {
		if s.home != nil {
			path = s.home.ResolvePath(path)
		}
		files[key] = path
	}
	if err := s.resolver.LoadOverrides(files); err != nil {
		return fmt.Errorf("failed to load prompt overrides: %w", err)
	}
	return nil
}

// applyConfig is the config change hook. A partial failure keeps the
// previous state of the part that failed.
func (s *Server) applyConfig(c *config.Config) {
	s.registry.Reload(context.Background(), c.ToProviderRegistryConfig())
	s.logger.Info("provider registry reloaded from config")

	if err := s.loadPromptOverrides(c); err != nil {
		s.logger.Warn("keeping previous prompt overrides", "error", err)
	}

	services, err := s.buildServices(c)
	if err != nil {
		s.logger.Warn("keeping previous explain services", "error", err)
		return
	}
	s.services.Store(services)
	s.logger.Info("explain services reloaded from config")
}

// Start starts the HTTP server.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address. Once started it is the bound
// address, which matters when the configured port is 0.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.addr != "" {
		return s.addr
	}
	return s.httpServer.Addr
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Recorder returns the model call recorder.
func (s *Server) Recorder() *llmcall.Recorder {
	return s.recorder
}

// Services returns the services currently attached to requests.
func (s *Server) Services() *svcctx.Services {
	return s.services.Load()
}
