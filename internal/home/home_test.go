package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-wikitutor")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-wikitutor" {
			t.Errorf("expected path /tmp/test-wikitutor, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-wikitutor")

	t.Run("PromptsPath", func(t *testing.T) {
		expected := "/tmp/test-wikitutor/prompts"
		if dir.PromptsPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.PromptsPath())
		}
	})

	t.Run("ResolvePath", func(t *testing.T) {
		tests := map[string]string{
			"":                      "",
			"prompts/custom.tmpl":   "/tmp/test-wikitutor/prompts/custom.tmpl",
			"/etc/wikitutor/p.tmpl": "/etc/wikitutor/p.tmpl",
		}
		for in, want := range tests {
			if got := dir.ResolvePath(in); got != want {
				t.Errorf("ResolvePath(%q) = %q, want %q", in, got, want)
			}
		}
	})

	t.Run("ConfigPath", func(t *testing.T) {
		expected := "/tmp/test-wikitutor/config.yaml"
		if dir.ConfigPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.ConfigPath())
		}
	})
}

func TestDir_EnsureExists(t *testing.T) {
	// Use a temp directory
	tmpDir := t.TempDir()
	homeDir := filepath.Join(tmpDir, "wikitutor-test")

	dir, err := New(homeDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Directory shouldn't exist yet
	if dir.Exists() {
		t.Error("directory should not exist before EnsureExists")
	}

	// Create it
	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	// Now it should exist
	if !dir.Exists() {
		t.Error("directory should exist after EnsureExists")
	}

	// Prompts directory should also exist
	if _, err := os.Stat(dir.PromptsPath()); os.IsNotExist(err) {
		t.Error("prompts directory should exist after EnsureExists")
	}
}

func TestDir_ConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	dir, _ := New(tmpDir)

	// Config doesn't exist
	if dir.ConfigExists() {
		t.Error("config should not exist initially")
	}

	// Create a config file
	configPath := dir.ConfigPath()
	if err := os.WriteFile(configPath, []byte("test: true\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Now it should exist
	if !dir.ConfigExists() {
		t.Error("config should exist after creation")
	}
}
