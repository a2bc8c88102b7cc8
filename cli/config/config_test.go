package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_FullConfig(t *testing.T) {
	yaml := `grammar:
  path: ./grammar.yaml
  start: S
depth: 5
mode:
  derivation: true
  repetition: true
  low_memory: false
  fast: false
  derivation_fq: true
  single_threaded: false
workers: 4
output:
  format: json
  no_color: true
  snapshot: ./out.snap
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assertEqual(t, "grammar.path", cfg.Grammar.Path, "./grammar.yaml")
	assertEqual(t, "grammar.start", cfg.Grammar.Start, "S")
	if cfg.Depth != 5 {
		t.Errorf("expected depth=5, got %d", cfg.Depth)
	}
	if !cfg.Mode.Derivation || !cfg.Mode.Repetition || !cfg.Mode.DerivationFQ {
		t.Errorf("expected derivation/repetition/derivation_fq set, got %+v", cfg.Mode)
	}
	if cfg.Mode.Fast || cfg.Mode.LowMemory || cfg.Mode.SingleThreaded {
		t.Errorf("expected fast/low_memory/single_threaded unset, got %+v", cfg.Mode)
	}
	if cfg.Workers != 4 {
		t.Errorf("expected workers=4, got %d", cfg.Workers)
	}
	assertEqual(t, "output.format", cfg.Output.Format, "json")
	if !cfg.Output.NoColor {
		t.Error("expected output.no_color=true")
	}
	assertEqual(t, "output.snapshot", cfg.Output.Snapshot, "./out.snap")
}

func TestLoad_EmptyConfig(t *testing.T) {
	path := writeTemp(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Grammar.Path != "" {
		t.Errorf("expected empty grammar path, got %q", cfg.Grammar.Path)
	}
	if cfg.Depth != 0 {
		t.Errorf("expected depth=0, got %d", cfg.Depth)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/cfgforge.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "{{invalid yaml")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_GRAMMAR_PATH", "/expanded/grammar.yaml")

	yaml := `grammar:
  path: ${TEST_GRAMMAR_PATH}
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "grammar.path", cfg.Grammar.Path, "/expanded/grammar.yaml")
}

func TestLoad_EnvExpansionWithDefault(t *testing.T) {
	os.Unsetenv("TEST_WORKERS_UNSET")

	yaml := `grammar:
  path: ${TEST_WORKERS_UNSET:-./default.yaml}
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "grammar.path", cfg.Grammar.Path, "./default.yaml")
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	yaml := `depth: 3
bogus_key: should_fail
`
	path := writeTemp(t, yaml)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
	if !strings.Contains(err.Error(), "bogus_key") {
		t.Errorf("error should mention the unknown key, got: %v", err)
	}
}

func TestLoad_UnknownNestedKeyRejected(t *testing.T) {
	yaml := `grammar:
  path: ./grammar.yaml
  unknown_field: bad
`
	path := writeTemp(t, yaml)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown nested key, got nil")
	}
	if !strings.Contains(err.Error(), "unknown_field") {
		t.Errorf("error should mention the unknown key, got: %v", err)
	}
}

// writeTemp writes content to a temp file and returns the path.
func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cfgforge.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", field, got, want)
	}
}
