package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/cfgforge/cfgforge/cli/render"
	"github.com/cfgforge/cfgforge/engine"
	"github.com/cfgforge/cfgforge/enginemetrics"
)

// StatsCommand returns the stats command with subcommands.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Run the engine and report aggregated run metrics instead of the result set",
		Subcommands: []*cli.Command{
			statsGenerateCommand(),
		},
	}
}

func statsGenerateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Run generate and report its metrics snapshot",
		Flags: append(TUIReadOnlyFlags(),
			&cli.StringFlag{Name: "config", Usage: "Path to a YAML config file (project-level defaults)"},
			&cli.StringFlag{Name: "grammar", Usage: "Path to a local grammar YAML file"},
			&cli.StringFlag{Name: "grammar-bucket", Usage: "S3 bucket to load the grammar from"},
			&cli.StringFlag{Name: "grammar-key", Usage: "S3 key of the grammar object"},
			&cli.StringFlag{Name: "grammar-region", Usage: "AWS region for the grammar S3 source"},
			&cli.StringFlag{Name: "library", Usage: "Name of a grammar to fetch from a grammar library"},
			&cli.StringFlag{Name: "library-path", Usage: "Filesystem root of the grammar library"},
			&cli.StringFlag{Name: "library-bucket", Usage: "S3 bucket backing the grammar library"},
			&cli.StringFlag{Name: "library-prefix", Usage: "S3 prefix backing the grammar library"},
			&cli.StringFlag{Name: "library-region", Usage: "AWS region for the grammar library"},
			&cli.StringFlag{Name: "start", Usage: "Start symbol (default S)"},
			&cli.IntFlag{Name: "depth", Usage: "Maximum derivation depth", Required: true},
			&cli.IntFlag{Name: "workers", Usage: "Worker pool size (default 8)"},
			&cli.BoolFlag{Name: "derivation", Usage: "Track derivation traces instead of plain strings"},
			&cli.BoolFlag{Name: "repetition", Usage: "Preserve duplicates / accumulate every trace"},
			&cli.BoolFlag{Name: "low-memory", Usage: "In derivation mode, omit rewrite positions from traces"},
			&cli.BoolFlag{Name: "fast", Usage: "Use the dual-container strategy instead of a queue-based one"},
			&cli.BoolFlag{Name: "derivation-fq", Usage: "In non-fast derivation mode, use the free-queue strategy"},
			&cli.BoolFlag{Name: "single-threaded", Usage: "Use the deterministic single-threaded reference implementation"},
		),
		Action: statsGenerateAction,
	}
}

// RunMetrics is the response for `stats generate`: the engine's metrics
// snapshot plus the wall-clock duration of the run.
type RunMetrics struct {
	enginemetrics.Snapshot
	ElapsedMillis int64 `json:"elapsed_ms"`
}

func statsGenerateAction(c *cli.Context) error {
	cfg, err := loadConfigIfSet(c)
	if err != nil {
		return err
	}
	rules, start, err := resolveGrammar(c, cfg)
	if err != nil {
		return fmt.Errorf("resolve grammar: %w", err)
	}
	if s := firstNonEmpty(c.String("start"), cfg.Grammar.Start); s != "" {
		if len(s) != 1 {
			return fmt.Errorf("--start must be a single character, got %q", s)
		}
		start = s[0]
	}

	depth := c.Int("depth")
	if !c.IsSet("depth") {
		depth = cfg.Depth
	}
	mode := resolveMode(c, cfg, start)
	metrics := enginemetrics.NewCollector(strategyName(mode), "stats")
	mode.Metrics = metrics

	began := time.Now()
	_, genErr := engine.Generate(rules, depth, mode)
	elapsed := time.Since(began)
	if genErr != nil {
		return fmt.Errorf("generate: %w", genErr)
	}

	result := RunMetrics{Snapshot: metrics.Snapshot(), ElapsedMillis: elapsed.Milliseconds()}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return r.RenderTUI("stats_generate", result)
	}
	return r.Render(result)
}
