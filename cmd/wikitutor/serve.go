package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/wikitutor/internal/config"
	"github.com/jackzampolin/wikitutor/internal/home"
	"github.com/jackzampolin/wikitutor/internal/server"
)

var (
	serveHost     string
	servePort     string
	serveLogLevel string
	serveSwagger  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the wikitutor server",
	Long: `Start the wikitutor HTTP server.

The server provides:
  - /health       - Basic server health check
  - /ready        - Readiness check (a default model provider is configured)
  - /api/explain  - Stream lessons for a Wikipedia article as NDJSON
  - /api/sections - Preview the sections of an article

The config file is watched while the server runs; provider, Wikipedia and
explain settings take effect on the next request.

Examples:
  wikitutor serve                    # Start on the configured port (default 8080)
  wikitutor serve --port 3000        # Start on custom port
  wikitutor serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		level, err := parseLogLevel(serveLogLevel)
		if err != nil {
			return err
		}

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		}))
		slog.SetDefault(logger)

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// An explicit --config wins, then the home directory's config file.
		path := cfgFile
		if path == "" && h.ConfigExists() {
			path = h.ConfigPath()
		}
		cfgMgr, err := config.NewManager(path)
		if err != nil {
			return err
		}
		cfgMgr.SetLogger(logger)
		if used := cfgMgr.ConfigFileUsed(); used != "" {
			logger.Info("loaded config", "file", used)
			cfgMgr.WatchConfig()
		}

		appCfg := cfgMgr.Get()
		host := appCfg.Server.Host
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		port := strconv.Itoa(appCfg.Server.Port)
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		// Create server
		srv, err := server.New(server.Config{
			Host:            host,
			Port:            port,
			ConfigManager:   cfgMgr,
			Home:            h,
			SwaggerSpecPath: serveSwagger,
			Logger:          logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to (overrides server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on (overrides server.port)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	serveCmd.Flags().StringVar(&serveSwagger, "swagger-spec", "", "Serve this OpenAPI file instead of the embedded one")

	rootCmd.AddCommand(serveCmd)
}
