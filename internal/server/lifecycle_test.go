package server

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/wikitutor/internal/testutil"
)

// TestServer_ContextCancellation verifies graceful shutdown on context cancel.
func TestServer_ContextCancellation(t *testing.T) {
	cfg := testutil.NewServerConfig(t)
	srv := newTestServer(t, cfg, testutil.Fakes{WikiAPIURL: testutil.FakeWiki(t).URL}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	if err := testutil.WaitForServer(cfg.URL(), 10*time.Second); err != nil {
		cancel()
		t.Fatalf("server did not start: %v", err)
	}

	cancel()

	if err := testutil.WaitForShutdown(done, 10*time.Second); err != nil {
		t.Errorf("Start() error = %v", err)
	}
	if srv.IsRunning() {
		t.Error("server still running after context cancellation")
	}
}

// TestServer_DoubleStart verifies that starting an already running server fails.
func TestServer_DoubleStart(t *testing.T) {
	cfg := testutil.NewServerConfig(t)
	srv := newTestServer(t, cfg, testutil.Fakes{WikiAPIURL: testutil.FakeWiki(t).URL}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()
	starter := testutil.StartServer{Cancel: cancel, Done: done}
	t.Cleanup(starter.Stop)

	if err := testutil.WaitForServer(cfg.URL(), 10*time.Second); err != nil {
		t.Fatalf("server did not start: %v", err)
	}

	err := srv.Start(context.Background())
	if err == nil {
		t.Fatal("second Start() succeeded, want error")
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Errorf("second Start() error = %v, want 'already running'", err)
	}
}

// TestServer_PortInUse verifies that a bind failure is returned and leaves
// the server stopped.
func TestServer_PortInUse(t *testing.T) {
	cfg := testutil.NewServerConfig(t)
	first := newTestServer(t, cfg, testutil.Fakes{WikiAPIURL: testutil.FakeWiki(t).URL}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- first.Start(ctx)
	}()
	starter := testutil.StartServer{Cancel: cancel, Done: done}
	t.Cleanup(starter.Stop)

	if err := testutil.WaitForServer(cfg.URL(), 10*time.Second); err != nil {
		t.Fatalf("server did not start: %v", err)
	}

	second := newTestServer(t, cfg, testutil.Fakes{WikiAPIURL: testutil.FakeWiki(t).URL}, nil)
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("Start() on a bound port succeeded, want error")
	}
	if second.IsRunning() {
		t.Error("IsRunning() = true after failed start")
	}
}
