// Package home locates the wikitutor home directory, which holds the config
// file and prompt override templates.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the wikitutor home directory.
	DefaultDirName = ".wikitutor"

	// PromptsDirName is the subdirectory for prompt override templates.
	PromptsDirName = "prompts"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the wikitutor home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.wikitutor).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// PromptsPath returns the path to the prompt override directory.
func (d *Dir) PromptsPath() string {
	return filepath.Join(d.path, PromptsDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// ResolvePath makes a relative path absolute against the home directory.
// Absolute paths are returned unchanged.
func (d *Dir) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.path, p)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Create prompts directory (this also creates the parent)
	if err := os.MkdirAll(d.PromptsPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create prompts directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
