package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/arthur-debert/webinstall/pkg/config"
)

// TestEnvironment is an isolated source tree plus install locations
type TestEnvironment struct {
	// SourceDir holds the assets to install
	SourceDir string
	// Root is prepended to install and config dirs
	Root string
	// SystemDir stands in for distribution-managed library locations
	SystemDir string

	Config *config.Config

	t *testing.T
}

// NewTestEnvironment creates the directories and a default Config.
// Tests needing symlinks are skipped on Windows.
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("install pipeline tests require POSIX symlinks")
	}

	base := t.TempDir()
	env := &TestEnvironment{
		SourceDir: filepath.Join(base, "html5"),
		Root:      filepath.Join(base, "root"),
		SystemDir: filepath.Join(base, "system"),
		t:         t,
	}
	for _, dir := range []string{env.SourceDir, env.Root, env.SystemDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	env.Config = &config.Config{
		SourceDir:          env.SourceDir,
		Root:               env.Root,
		InstallDir:         "/usr/share/html5-client/www",
		ConfigDir:          "/etc/html5-client",
		Minifier:           "",
		Gzip:               true,
		Brotli:             true,
		EntryPoint:         "index.html",
		TempSuffix:         ".tmp",
		ConfigurationFiles: []string{"default-settings.txt"},
		CompressExclude:    []string{"png"},
		Platform:           config.Platform{GOOS: runtime.GOOS, WorkDir: base},
	}
	return env
}

// InstallPath returns the staged install location of a relative path
func (e *TestEnvironment) InstallPath(rel string) string {
	return filepath.Join(e.Root, e.Config.InstallDir, rel)
}

// ConfigPath returns the staged config location of a relative path
func (e *TestEnvironment) ConfigPath(rel string) string {
	return filepath.Join(e.Root, e.Config.ConfigDir, rel)
}

// InstallDir returns the staged install directory
func (e *TestEnvironment) InstallDir() string {
	return filepath.Join(e.Root, e.Config.InstallDir)
}

// AddAsset writes a file into the source tree
func (e *TestEnvironment) AddAsset(rel, content string) string {
	e.t.Helper()
	return WriteFile(e.t, e.SourceDir, rel, content)
}

// AddSystemFile writes a file into the fake system library location
func (e *TestEnvironment) AddSystemFile(rel, content string) string {
	e.t.Helper()
	return WriteFile(e.t, e.SystemDir, rel, content)
}

// ReadInstalled returns the content of an installed file
func (e *TestEnvironment) ReadInstalled(rel string) string {
	e.t.Helper()
	data, err := os.ReadFile(e.InstallPath(rel))
	if err != nil {
		e.t.Fatalf("failed to read installed %s: %v", rel, err)
	}
	return string(data)
}

// WriteFile creates root/rel with content, creating parent directories
func WriteFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create parent of %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
