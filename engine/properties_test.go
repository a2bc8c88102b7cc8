package engine

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/cfgforge/cfgforge/grammar"
)

// randomGrammar builds a small grammar over nonterminal alphabet "STUV" and
// terminal alphabet "01", bounded as the spec requires for property tests:
// at most maxNT nonterminals, at most maxRHSLen characters per alternative.
// The start symbol is always 'S'.
func randomGrammar(rng *rand.Rand, maxNT, maxAlts, maxRHSLen int) grammar.Rules {
	const ntAlphabet = "STUV"
	n := 1 + rng.Intn(maxNT)
	nts := []byte(ntAlphabet[:n])
	rules := make(grammar.Rules, n)
	for _, nt := range nts {
		numAlts := 1 + rng.Intn(maxAlts)
		alts := make([]string, 0, numAlts)
		for i := 0; i < numAlts; i++ {
			length := rng.Intn(maxRHSLen + 1)
			var b strings.Builder
			for j := 0; j < length; j++ {
				if rng.Intn(2) == 0 {
					b.WriteByte("01"[rng.Intn(2)])
				} else {
					b.WriteByte(nts[rng.Intn(len(nts))])
				}
			}
			alts = append(alts, b.String())
		}
		rules[nt] = alts
	}
	return rules
}

// bruteForceLdepth is an independent reference (recursion instead of layered
// BFS) computing every terminal string reachable from start via at most
// depth leftmost rewrites, for soundness/completeness checks.
func bruteForceLdepth(rules grammar.Rules, start byte, depth int) map[string]struct{} {
	nonterminals := grammar.Nonterminals(rules)
	result := map[string]struct{}{}
	var walk func(s string, rem int)
	walk = func(s string, rem int) {
		pos := grammar.LeftmostNonterminal(s, nonterminals)
		if pos < 0 {
			result[s] = struct{}{}
			return
		}
		if rem <= 0 {
			return
		}
		nt := s[pos]
		for _, rhs := range rules[nt] {
			walk(s[:pos]+rhs+s[pos+1:], rem-1)
		}
	}
	walk(string(start), depth)
	return result
}

// bruteForceTraceCounts independently counts, for each terminal string, the
// number of distinct leftmost derivations of length <= depth that reach it.
func bruteForceTraceCounts(rules grammar.Rules, start byte, depth int) map[string]int {
	nonterminals := grammar.Nonterminals(rules)
	counts := map[string]int{}
	var walk func(s string, rem int)
	walk = func(s string, rem int) {
		pos := grammar.LeftmostNonterminal(s, nonterminals)
		if pos < 0 {
			counts[s]++
			return
		}
		if rem <= 0 {
			return
		}
		nt := s[pos]
		for _, rhs := range rules[nt] {
			walk(s[:pos]+rhs+s[pos+1:], rem-1)
		}
	}
	walk(string(start), depth)
	return counts
}

func canonicalTraces(traces []grammar.Trace) []string {
	out := make([]string, len(traces))
	for i, tr := range traces {
		parts := make([]string, len(tr))
		for j, step := range tr {
			parts[j] = fmt.Sprintf("%d:%d:%d", step.Nonterminal, step.AltIndex, step.Position)
		}
		out[i] = strings.Join(parts, "|")
	}
	sort.Strings(out)
	return out
}

// resultKey canonicalizes a Result into a string comparable with ==,
// independent of which strategy or worker count produced it.
func resultKey(mode Mode, result Result) string {
	if mode.Derivation {
		keys := make([]string, 0, len(result.Derivations))
		for s := range result.Derivations {
			keys = append(keys, s)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, s := range keys {
			b.WriteString(s)
			b.WriteByte('=')
			b.WriteString(strings.Join(canonicalTraces(result.Derivations[s]), ","))
			b.WriteByte(';')
		}
		return b.String()
	}
	if mode.Repetition {
		counts := map[string]int{}
		for _, s := range result.Strings {
			counts[s]++
		}
		keys := make([]string, 0, len(counts))
		for s := range counts {
			keys = append(keys, s)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, s := range keys {
			fmt.Fprintf(&b, "%s:%d;", s, counts[s])
		}
		return b.String()
	}
	keys := append([]string(nil), result.Strings...)
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// TestProperty_SoundnessCompletenessNoNonterminal covers properties 1-3:
// every produced string is in L_depth(R), every string in L_depth(R) is
// produced, and every produced string is over terminals only.
func TestProperty_SoundnessCompletenessNoNonterminal(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 12; trial++ {
		rules := randomGrammar(rng, 4, 3, 3)
		depth := 1 + rng.Intn(6)
		want := bruteForceLdepth(rules, 'S', depth)

		result, err := Generate(rules, depth, Mode{})
		if err != nil {
			t.Fatalf("trial %d: Generate: %v", trial, err)
		}
		got := result.StringSet()

		if len(got) != len(want) {
			t.Fatalf("trial %d: got %d strings, want %d (got=%v want=%v)", trial, len(got), len(want), got, want)
		}
		nonterminals := grammar.Nonterminals(rules)
		for s := range got {
			if _, ok := want[s]; !ok {
				t.Errorf("trial %d: unsound string %q not in L_depth(R)", trial, s)
			}
			if grammar.LeftmostNonterminal(s, nonterminals) >= 0 {
				t.Errorf("trial %d: string %q still contains a nonterminal", trial, s)
			}
		}
		for s := range want {
			if _, ok := got[s]; !ok {
				t.Errorf("trial %d: incomplete, missing %q", trial, s)
			}
		}
	}
}

// TestProperty_DedupCorrectness covers property 4: no-repetition plain mode
// has no duplicates, and its set equals the set projection of the
// repetition-mode multiset.
func TestProperty_DedupCorrectness(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for trial := 0; trial < 10; trial++ {
		rules := randomGrammar(rng, 4, 3, 3)
		depth := 1 + rng.Intn(6)

		noRep, err := Generate(rules, depth, Mode{})
		if err != nil {
			t.Fatalf("trial %d: Generate no-rep: %v", trial, err)
		}
		seen := map[string]struct{}{}
		for _, s := range noRep.Strings {
			if _, dup := seen[s]; dup {
				t.Fatalf("trial %d: duplicate %q in no-repetition result", trial, s)
			}
			seen[s] = struct{}{}
		}

		rep, err := Generate(rules, depth, Mode{Repetition: true})
		if err != nil {
			t.Fatalf("trial %d: Generate rep: %v", trial, err)
		}
		repSet := rep.StringSet()
		if len(repSet) != len(seen) {
			t.Fatalf("trial %d: repetition-mode set has %d distinct strings, no-rep has %d", trial, len(repSet), len(seen))
		}
		for s := range seen {
			if _, ok := repSet[s]; !ok {
				t.Errorf("trial %d: %q in no-rep result but not in repetition-mode set", trial, s)
			}
		}
	}
}

// TestProperty_TraceSoundnessAndCompleteness covers properties 5 and 6:
// every recorded trace replays to its string within depth rewrites, and in
// additive (repetition, traced) mode the number of recorded traces per
// string equals the number of distinct leftmost derivations of length <=
// depth reaching it.
func TestProperty_TraceSoundnessAndCompleteness(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 10; trial++ {
		rules := randomGrammar(rng, 4, 3, 3)
		depth := 1 + rng.Intn(6)

		result, err := Generate(rules, depth, Mode{Derivation: true, Repetition: true})
		if err != nil {
			t.Fatalf("trial %d: Generate: %v", trial, err)
		}
		wantCounts := bruteForceTraceCounts(rules, 'S', depth)

		for s, traces := range result.Derivations {
			for _, tr := range traces {
				if len(tr) > depth {
					t.Errorf("trial %d: trace for %q has length %d > depth %d", trial, s, len(tr), depth)
				}
				replayed, err := tr.Replay(rules, 'S')
				if err != nil {
					t.Fatalf("trial %d: replay %q: %v", trial, s, err)
				}
				if replayed != s {
					t.Errorf("trial %d: trace for %q replayed to %q", trial, s, replayed)
				}
			}
			if len(traces) != wantCounts[s] {
				t.Errorf("trial %d: %q has %d recorded traces, want %d", trial, s, len(traces), wantCounts[s])
			}
		}
		for s, want := range wantCounts {
			if _, ok := result.Derivations[s]; !ok && want > 0 {
				t.Errorf("trial %d: missing derivations entirely for %q (want %d traces)", trial, s, want)
			}
		}
	}
}

// TestProperty_StrategyEquivalence covers property 7: for a fixed
// (derivation, repetition, low_memory), every strategy (and their
// single-threaded twins) and every worker count produce the same set of
// (string, trace-set) pairs as the single-threaded controlled-queue
// reference.
func TestProperty_StrategyEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	combos := []struct{ derivation, repetition, lowMemory bool }{
		{false, false, false},
		{false, true, false},
		{true, false, false},
		{true, true, false},
		{true, false, true},
		{true, true, true},
	}

	for trial := 0; trial < 6; trial++ {
		rules := randomGrammar(rng, 4, 3, 3)
		depth := 1 + rng.Intn(6)

		for _, combo := range combos {
			base := Mode{Derivation: combo.derivation, Repetition: combo.repetition, LowMemory: combo.lowMemory}

			reference, err := Generate(rules, depth, withFlag(base, func(m *Mode) { m.SingleThreaded = true }))
			if err != nil {
				t.Fatalf("trial %d combo %+v: reference Generate: %v", trial, combo, err)
			}
			wantKey := resultKey(base, reference)

			variants := []Mode{}
			for _, w := range []int{1, 2, 4} {
				variants = append(variants, withFlag(base, func(m *Mode) { m.Workers = w }))
			}
			if combo.derivation {
				variants = append(variants,
					withFlag(base, func(m *Mode) { m.DerivationFQ = true }),
					withFlag(base, func(m *Mode) { m.DerivationFQ = true; m.SingleThreaded = true }),
					withFlag(base, func(m *Mode) { m.DerivationFQ = true; m.Workers = 4 }),
				)
			}
			variants = append(variants,
				withFlag(base, func(m *Mode) { m.Fast = true }),
				withFlag(base, func(m *Mode) { m.Fast = true; m.SingleThreaded = true }),
				withFlag(base, func(m *Mode) { m.Fast = true; m.Workers = 4 }),
			)

			for i, mode := range variants {
				got, err := Generate(rules, depth, mode)
				if err != nil {
					t.Fatalf("trial %d combo %+v variant %d: Generate: %v", trial, combo, i, err)
				}
				if gotKey := resultKey(base, got); gotKey != wantKey {
					t.Errorf("trial %d combo %+v variant %d (mode=%+v): result differs from single-threaded controlled-queue reference\n got:  %s\n want: %s", trial, combo, i, mode, gotKey, wantKey)
				}
			}
		}
	}
}

func withFlag(base Mode, set func(*Mode)) Mode {
	m := base
	set(&m)
	return m
}

// TestProperty_Idempotence covers property 8: Generate is a pure function of
// (rules, depth, mode); repeated invocation yields equal results modulo
// ordering.
func TestProperty_Idempotence(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for trial := 0; trial < 8; trial++ {
		rules := randomGrammar(rng, 4, 3, 3)
		depth := 1 + rng.Intn(6)
		mode := Mode{Derivation: trial%2 == 0, Repetition: trial%3 == 0}

		first, err := Generate(rules, depth, mode)
		if err != nil {
			t.Fatalf("trial %d: first Generate: %v", trial, err)
		}
		second, err := Generate(rules, depth, mode)
		if err != nil {
			t.Fatalf("trial %d: second Generate: %v", trial, err)
		}
		if resultKey(mode, first) != resultKey(mode, second) {
			t.Errorf("trial %d: repeated Generate produced different results", trial)
		}
	}
}

// TestProperty_RoundTripFrontierLayering covers property 9: expanding one
// leftmost rewrite on any SF in the layer-k frontier produces SFs that
// belong to the layer-(k+1) frontier, for the single-threaded reference.
func TestProperty_RoundTripFrontierLayering(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	for trial := 0; trial < 8; trial++ {
		rules := randomGrammar(rng, 4, 3, 3)
		nonterminals := grammar.Nonterminals(rules)

		frontier := []grammar.SententialForm{grammar.NewStart('S', false)}
		for round := 0; round < 5; round++ {
			var next []grammar.SententialForm
			for _, sf := range frontier {
				done, children := Expand(sf, nonterminals, rules, Mode{})
				if done {
					continue
				}
				pos := grammar.LeftmostNonterminal(sf.String, nonterminals)
				if pos < 0 {
					t.Fatalf("trial %d round %d: Expand reported children but %q has no nonterminal", trial, round, sf.String)
				}
				nt := sf.String[pos]
				alts := rules[nt]
				if len(children) != len(alts) {
					t.Fatalf("trial %d round %d: %d children, want %d", trial, round, len(children), len(alts))
				}
				for i, child := range children {
					want := sf.String[:pos] + alts[i] + sf.String[pos+1:]
					if child.String != want {
						t.Fatalf("trial %d round %d: child %q is not a single leftmost rewrite of %q (want %q)", trial, round, child.String, sf.String, want)
					}
				}
				next = append(next, children...)
			}
			frontier = next
			if len(frontier) == 0 {
				break
			}
		}
	}
}
