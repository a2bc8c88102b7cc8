package cmd

import (
	"testing"

	"github.com/cfgforge/cfgforge/engine"
	"github.com/cfgforge/cfgforge/grammar"
)

func TestSummarize_Plain(t *testing.T) {
	result := engine.Result{Strings: []string{"01", "10", "01"}}
	got := summarize(result)
	want := SnapshotSummary{StringCount: 3, DistinctCount: 2}
	if got != want {
		t.Fatalf("summarize() = %+v, want %+v", got, want)
	}
}

func TestSummarize_Traced(t *testing.T) {
	result := engine.Result{
		Derivation: true,
		Derivations: map[string][]grammar.Trace{
			"01": {{{Nonterminal: 'S', AltIndex: 0}}, {{Nonterminal: 'S', AltIndex: 1}}},
			"10": {{{Nonterminal: 'S', AltIndex: 1}}},
		},
	}
	got := summarize(result)
	want := SnapshotSummary{Derivation: true, DistinctCount: 2, TraceCount: 3}
	if got != want {
		t.Fatalf("summarize() = %+v, want %+v", got, want)
	}
}
