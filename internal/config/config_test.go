package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExplicitFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
compiler_path = "/opt/papyrus/PapyrusCompiler.exe"
archiver_path = "/usr/local/bin/bsarch"
game = "sse"
output_dir = "build/scripts"
`)

	cfg, used, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if used != path {
		t.Errorf("config file used = %q, want %q", used, path)
	}

	want := Default()
	want.CompilerPath = "/opt/papyrus/PapyrusCompiler.exe"
	want.ArchiverPath = "/usr/local/bin/bsarch"
	want.Game = "sse"
	want.OutputDir = "build/scripts"
	if diff := cmp.Diff(&want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("Load() error = nil, want read failure")
	}
}

func TestLoadDefaultsWhenNoFileFound(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, used, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if used != "" {
		t.Errorf("config file used = %q, want none", used)
	}
	want := Default()
	if diff := cmp.Diff(&want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSearchesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `archiver_path = "bsarch"`)
	t.Chdir(dir)

	cfg, _, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ArchiverPath != "bsarch" {
		t.Errorf("ArchiverPath = %q, want bsarch", cfg.ArchiverPath)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `game = "tes5"`)
	t.Setenv("PYRITE_GAME", "sse")

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Game != "sse" {
		t.Errorf("Game = %q, want sse (environment wins)", cfg.Game)
	}
}
