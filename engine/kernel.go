package engine

import "github.com/cfgforge/cfgforge/grammar"

// newSentinel builds a work-queue sentinel: the reserved NUL prefix followed
// by one letter derived from workerID, giving each worker's sentinel a
// distinct (if irrelevant) body.
func newSentinel(workerID int, traced bool) grammar.SententialForm {
	sf := grammar.SententialForm{String: "\x00" + string(rune('a'+workerID%26))}
	if traced {
		sf.Traces = []grammar.Trace{}
	}
	return sf
}

func isSentinel(sf grammar.SententialForm) bool {
	return len(sf.String) > 0 && sf.String[0] == 0x00
}

// Expand is the expansion kernel (C2): given a sentential form and the
// grammar, it locates the leftmost nonterminal and either reports the form
// as done, or produces one child per alternative of that nonterminal's
// rule, replacing exactly the one nonterminal character.
//
// In derivation mode every child clones the parent's trace list and appends
// the step that produced it; low-memory mode omits the rewrite position
// from the step.
func Expand(sf grammar.SententialForm, nonterminals string, rules grammar.Rules, mode Mode) (done bool, children []grammar.SententialForm) {
	mode.Metrics.IncFormsExpanded()
	pos := grammar.LeftmostNonterminal(sf.String, nonterminals)
	if pos < 0 {
		return true, nil
	}
	nt := sf.String[pos]
	alts := rules[nt]
	children = make([]grammar.SententialForm, 0, len(alts))
	for altIdx, rhs := range alts {
		child := grammar.SententialForm{
			String: sf.String[:pos] + rhs + sf.String[pos+1:],
		}
		if mode.Derivation {
			step := grammar.Step{Nonterminal: nt, AltIndex: altIdx, Position: pos}
			if mode.LowMemory {
				step.Position = -1
			}
			traces := grammar.CloneTraces(sf.Traces)
			for i := range traces {
				traces[i] = append(traces[i], step)
			}
			child.Traces = traces
		}
		children = append(children, child)
	}
	return false, children
}
