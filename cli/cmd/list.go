package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/cfgforge/cfgforge/cfgstore"
	"github.com/cfgforge/cfgforge/cli/render"
)

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// ListCommand returns the list command with subcommands.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List grammars and strategy selections",
		Subcommands: []*cli.Command{
			listGrammarsCommand(),
			listStrategiesCommand(),
		},
	}
}

func listGrammarsCommand() *cli.Command {
	return &cli.Command{
		Name:  "grammars",
		Usage: "List grammars published in a grammar library",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{Name: "library-path", Usage: "Filesystem root of the grammar library"},
			&cli.StringFlag{Name: "library-bucket", Usage: "S3 bucket backing the grammar library"},
			&cli.StringFlag{Name: "library-prefix", Usage: "S3 prefix backing the grammar library"},
			&cli.StringFlag{Name: "library-region", Usage: "AWS region for the grammar library"},
		),
		Action: listGrammarsAction,
	}
}

// GrammarListing names one published grammar entry.
type GrammarListing struct {
	Name string `json:"name"`
}

func listGrammarsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", 1)
	}

	lib, err := openLibrary(context.Background(), c)
	if err != nil {
		return err
	}
	names, err := lib.List(context.Background())
	if err != nil {
		return err
	}

	out := make([]GrammarListing, 0, len(names))
	for _, n := range names {
		out = append(out, GrammarListing{Name: n})
	}
	return r.Render(out)
}

func listStrategiesCommand() *cli.Command {
	return &cli.Command{
		Name:   "strategies",
		Usage:  "Show which BFS strategy a combination of mode flags selects",
		Flags:  ReadOnlyFlags(),
		Action: listStrategiesAction,
	}
}

// StrategySelection documents one row of the engine's selection table.
type StrategySelection struct {
	Derivation   bool   `json:"derivation"`
	Fast         bool   `json:"fast"`
	DerivationFQ bool   `json:"derivation_fq"`
	Strategy     string `json:"strategy"`
}

func listStrategiesAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", 1)
	}

	rows := []StrategySelection{
		{Derivation: false, Fast: false, DerivationFQ: false, Strategy: "controlled-queue"},
		{Derivation: false, Fast: true, DerivationFQ: false, Strategy: "dual-container"},
		{Derivation: true, Fast: false, DerivationFQ: false, Strategy: "controlled-queue"},
		{Derivation: true, Fast: false, DerivationFQ: true, Strategy: "free-queue"},
		{Derivation: true, Fast: true, DerivationFQ: false, Strategy: "dual-container"},
	}
	return r.Render(rows)
}
