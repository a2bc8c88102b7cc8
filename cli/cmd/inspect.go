package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/cfgforge/cfgforge/cfgstore"
	"github.com/cfgforge/cfgforge/cli/render"
	"github.com/cfgforge/cfgforge/engine"
)

// InspectCommand returns the inspect command with subcommands. Inspect is
// read-only: it loads a snapshot file written by `generate --snapshot` and
// shows a deep view of it, never re-running the engine.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect a saved generate result snapshot",
		Subcommands: []*cli.Command{
			inspectSummaryCommand(),
			inspectStringCommand(),
		},
	}
}

func inspectSummaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Show the size and shape of a snapshot",
		ArgsUsage: "<snapshot-path>",
		Flags:     TUIReadOnlyFlags(),
		Action:    inspectSummaryAction,
	}
}

// SnapshotSummary is the response for `inspect summary`.
type SnapshotSummary struct {
	Derivation    bool `json:"derivation"`
	StringCount   int  `json:"string_count"`
	DistinctCount int  `json:"distinct_count"`
	TraceCount    int  `json:"trace_count,omitempty"`
}

func summarize(result engine.Result) SnapshotSummary {
	s := SnapshotSummary{Derivation: result.Derivation}
	if result.Derivation {
		s.DistinctCount = len(result.Derivations)
		for _, traces := range result.Derivations {
			s.TraceCount += len(traces)
		}
		return s
	}
	s.StringCount = len(result.Strings)
	s.DistinctCount = len(result.StringSet())
	return s
}

func inspectSummaryAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("snapshot path required", 1)
	}
	result, err := cfgstore.LoadSnapshot(c.Args().First())
	if err != nil {
		return err
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	summary := summarize(result)
	if c.Bool("tui") {
		return r.RenderTUI("inspect_summary", summary)
	}
	return r.Render(summary)
}

func inspectStringCommand() *cli.Command {
	return &cli.Command{
		Name:      "string",
		Usage:     "Show the derivation traces recorded for one produced string",
		ArgsUsage: "<snapshot-path> <string>",
		Flags:     TUIReadOnlyFlags(),
		Action:    inspectStringAction,
	}
}

// StringDetail is the response for `inspect string`.
type StringDetail struct {
	String string        `json:"string"`
	Traces []grammarTrace `json:"traces,omitempty"`
	Found  bool          `json:"found"`
}

// grammarTrace is the JSON-friendly shape of a grammar.Trace.
type grammarTrace []grammarStep

type grammarStep struct {
	Nonterminal string `json:"nonterminal"`
	AltIndex    int    `json:"alt_index"`
	Position    int    `json:"position,omitempty"`
}

func inspectStringAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("snapshot path and string required", 1)
	}
	result, err := cfgstore.LoadSnapshot(c.Args().Get(0))
	if err != nil {
		return err
	}
	target := c.Args().Get(1)

	if !result.Derivation {
		return fmt.Errorf("snapshot was captured in plain mode; no derivation traces to inspect")
	}

	traces, ok := result.Derivations[target]
	detail := StringDetail{String: target, Found: ok}
	for _, t := range traces {
		var gt grammarTrace
		for _, step := range t {
			gt = append(gt, grammarStep{
				Nonterminal: string(step.Nonterminal),
				AltIndex:    step.AltIndex,
				Position:    step.Position,
			})
		}
		detail.Traces = append(detail.Traces, gt)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return r.RenderTUI("inspect_string", detail)
	}
	return r.Render(detail)
}
