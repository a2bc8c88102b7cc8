package cfgstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cfgforge/cfgforge/grammar"
)

func TestDemoGrammar(t *testing.T) {
	rules, start := DemoGrammar()
	if start != 'S' {
		t.Fatalf("start = %q, want 'S'", string(start))
	}
	if err := grammar.Validate(rules, start); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if len(rules['S']) != 2 || len(rules['A']) != 3 || len(rules['B']) != 3 {
		t.Fatalf("unexpected rule shape: %+v", rules)
	}
}

func TestLoadGrammarFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grammar.yaml")
	doc := "start: S\nrules:\n  S: [\"0A\", \"1B\"]\n  A: [\"0AA\", \"1S\", \"1\"]\n  B: [\"1BB\", \"0S\", \"0\"]\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rules, start, err := LoadGrammarFile(path)
	if err != nil {
		t.Fatalf("LoadGrammarFile() error = %v", err)
	}
	if start != 'S' {
		t.Fatalf("start = %q, want 'S'", string(start))
	}
	want, _ := DemoGrammar()
	if len(rules) != len(want) {
		t.Fatalf("rules = %+v, want %+v", rules, want)
	}
	for nt, alts := range want {
		if got := rules[nt]; len(got) != len(alts) {
			t.Errorf("rules[%q] = %v, want %v", string(nt), got, alts)
		}
	}
}

func TestLoadGrammarFile_DefaultStart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grammar.yaml")
	doc := "rules:\n  S: [\"a\"]\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, start, err := LoadGrammarFile(path)
	if err != nil {
		t.Fatalf("LoadGrammarFile() error = %v", err)
	}
	if start != grammar.DefaultStart {
		t.Fatalf("start = %q, want default %q", string(start), string(grammar.DefaultStart))
	}
}

func TestLoadGrammarFile_MultiCharStartRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grammar.yaml")
	doc := "start: SS\nrules:\n  S: [\"a\"]\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, _, err := LoadGrammarFile(path); err == nil {
		t.Fatal("expected error for multi-character start symbol")
	}
}

func TestLoadGrammarFile_MultiCharNonterminalRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grammar.yaml")
	doc := "rules:\n  SS: [\"a\"]\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, _, err := LoadGrammarFile(path); err == nil {
		t.Fatal("expected error for multi-character nonterminal key")
	}
}

func TestLoadGrammarFile_UnknownKeyRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grammar.yaml")
	doc := "start: S\nrules:\n  S: [\"a\"]\nbogus: true\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, _, err := LoadGrammarFile(path); err == nil {
		t.Fatal("expected error for unknown top-level key")
	}
}

func TestLoadGrammarFile_MissingFile(t *testing.T) {
	if _, _, err := LoadGrammarFile("/nonexistent/path/grammar.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
