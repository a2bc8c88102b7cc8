package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/cfgforge/cfgforge/cfglog"
	"github.com/cfgforge/cfgforge/cfgstore"
	"github.com/cfgforge/cfgforge/cli/config"
	"github.com/cfgforge/cfgforge/cli/render"
	"github.com/cfgforge/cfgforge/engine"
	"github.com/cfgforge/cfgforge/enginemetrics"
	"github.com/cfgforge/cfgforge/grammar"
)

// GenerateCommand returns the generate command: it runs the derivation
// engine and prints or snapshots the result. stats generate also runs the
// engine but reports only its metrics.
func GenerateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Enumerate the strings a grammar derives up to a bounded depth",
		UsageText: `cfgforge generate --depth <n> [grammar source] [mode flags]

EXAMPLES:
  # Run the built-in demo grammar to depth 5
  cfgforge generate --depth 5

  # Run a grammar loaded from a local YAML file
  cfgforge generate --grammar ./grammar.yaml --depth 6

  # Track derivation traces, keeping every duplicate
  cfgforge generate --depth 4 --derivation --repetition

  # Use the dual-container strategy with 16 workers
  cfgforge generate --depth 8 --fast --workers 16

  # Save the result set to a snapshot file instead of printing it
  cfgforge generate --depth 6 --snapshot ./run.snap --quiet`,
		Flags: []cli.Flag{
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

			&cli.IntFlag{Name: "depth", Usage: "Maximum derivation depth (required, depth 0 yields no strings)", Required: true},
			&cli.IntFlag{Name: "workers", Usage: "Worker pool size (default 8)"},

			&cli.BoolFlag{Name: "derivation", Usage: "Track derivation traces instead of plain strings"},
			&cli.BoolFlag{Name: "repetition", Usage: "Preserve duplicates / accumulate every trace"},
			&cli.BoolFlag{Name: "low-memory", Usage: "In derivation mode, omit rewrite positions from traces"},
			&cli.BoolFlag{Name: "fast", Usage: "Use the dual-container strategy instead of a queue-based one"},
			&cli.BoolFlag{Name: "derivation-fq", Usage: "In non-fast derivation mode, use the free-queue strategy"},
			&cli.BoolFlag{Name: "single-threaded", Usage: "Use the deterministic single-threaded reference implementation"},

			&cli.StringFlag{Name: "snapshot", Usage: "Path to write the result as a snapshot file"},
			&cli.BoolFlag{Name: "quiet", Usage: "Suppress result output (useful with --snapshot)"},

			FormatFlag,
			NoColorFlag,
		},
		Action: generateAction,
	}
}

func generateAction(c *cli.Context) error {
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

	runID := cfglog.NewRunID()
	logger := cfglog.NewLogger(runID)
	metrics := enginemetrics.NewCollector(strategyName(mode), runID)
	mode.Metrics = metrics

	logger.Info("generate started", map[string]any{
		"depth":      depth,
		"derivation": mode.Derivation,
		"strategy":   strategyName(mode),
	})

	began := time.Now()
	result, genErr := engine.Generate(rules, depth, mode)
	elapsed := time.Since(began)

	snap := metrics.Snapshot()
	logger.Info("generate finished", map[string]any{
		"elapsed_ms":      elapsed.Milliseconds(),
		"forms_expanded":  snap.FormsExpanded,
		"layers_walked":   snap.LayersWalked,
		"queue_high_water": snap.QueueHighWater,
	})

	if genErr != nil {
		return fmt.Errorf("generate: %w", genErr)
	}

	if path := snapshotPath(c, cfg); path != "" {
		if err := cfgstore.SaveSnapshot(path, result); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}

	if c.Bool("quiet") {
		return nil
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for the generate command", 1)
	}
	return r.Render(result)
}

func loadConfigIfSet(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// resolveGrammar picks exactly one grammar source in priority order:
// explicit file, S3 object, library entry, then the built-in demo grammar.
// CLI flags take precedence over the config file.
func resolveGrammar(c *cli.Context, cfg *config.Config) (grammar.Rules, byte, error) {
	ctx := context.Background()

	if path := firstNonEmpty(c.String("grammar"), cfg.Grammar.Path); path != "" {
		return cfgstore.LoadGrammarFile(path)
	}

	bucket := firstNonEmpty(c.String("grammar-bucket"), cfg.Grammar.Bucket)
	key := firstNonEmpty(c.String("grammar-key"), cfg.Grammar.Key)
	if bucket != "" && key != "" {
		region := firstNonEmpty(c.String("grammar-region"), cfg.Grammar.Region)
		return cfgstore.LoadGrammarS3(ctx, bucket, key, region)
	}

	if name := firstNonEmpty(c.String("library"), cfg.Grammar.Library); name != "" {
		lib, err := openLibrary(ctx, c)
		if err != nil {
			return nil, 0, err
		}
		return lib.Fetch(ctx, name)
	}

	rules, start := cfgstore.DemoGrammar()
	return rules, start, nil
}

func openLibrary(ctx context.Context, c *cli.Context) (*cfgstore.GrammarLibrary, error) {
	if path := c.String("library-path"); path != "" {
		return cfgstore.OpenGrammarLibraryFS(path)
	}
	bucket, prefix := c.String("library-bucket"), c.String("library-prefix")
	if bucket != "" {
		return cfgstore.OpenGrammarLibraryS3(ctx, bucket, prefix, c.String("library-region"))
	}
	return nil, fmt.Errorf("--library requires --library-path or --library-bucket")
}

func resolveMode(c *cli.Context, cfg *config.Config, start byte) engine.Mode {
	mode := engine.Mode{
		Derivation:     boolFlagOr(c, "derivation", cfg.Mode.Derivation),
		Repetition:     boolFlagOr(c, "repetition", cfg.Mode.Repetition),
		LowMemory:      boolFlagOr(c, "low-memory", cfg.Mode.LowMemory),
		Fast:           boolFlagOr(c, "fast", cfg.Mode.Fast),
		DerivationFQ:   boolFlagOr(c, "derivation-fq", cfg.Mode.DerivationFQ),
		SingleThreaded: boolFlagOr(c, "single-threaded", cfg.Mode.SingleThreaded),
		Start:          start,
	}
	if c.IsSet("workers") {
		mode.Workers = c.Int("workers")
	} else {
		mode.Workers = cfg.Workers
	}
	return mode
}

func boolFlagOr(c *cli.Context, name string, fallback bool) bool {
	if c.IsSet(name) {
		return c.Bool(name)
	}
	return fallback
}

func snapshotPath(c *cli.Context, cfg *config.Config) string {
	return firstNonEmpty(c.String("snapshot"), cfg.Output.Snapshot)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func strategyName(mode engine.Mode) string {
	switch {
	case mode.Fast:
		return "dual-container"
	case mode.Derivation && mode.DerivationFQ:
		return "free-queue"
	default:
		return "controlled-queue"
	}
}
