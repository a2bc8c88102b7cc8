// Package config handles YAML config file loading for the cfgforge CLI.
package config

// Config represents a cfgforge.yaml configuration file. All values are
// optional. Grammar, Mode, Workers and Output.Snapshot act as defaults for
// the `cfgforge generate` and `cfgforge stats generate` flags; CLI flags
// override them. Depth is decoded, but both commands declare --depth
// required, so the flag value is the one used. Output.Format and
// Output.NoColor are decoded but not applied: the renderer reads only the
// --format and --no-color flags.
type Config struct {
	Grammar GrammarConfig `yaml:"grammar"`
	Depth   int           `yaml:"depth"`
	Mode    ModeConfig    `yaml:"mode"`
	Workers int           `yaml:"workers"`
	Output  OutputConfig  `yaml:"output"`
}

// GrammarConfig describes where to load the grammar definition from.
// Exactly one of Path, Library, or (Bucket, Key) is expected to be set;
// if none are, the demo grammar is used.
type GrammarConfig struct {
	Path    string `yaml:"path"`
	Library string `yaml:"library"`
	Bucket  string `yaml:"bucket"`
	Key     string `yaml:"key"`
	Region  string `yaml:"region"`
	Start   string `yaml:"start"`
}

// ModeConfig mirrors engine.Mode's flag set so it can be set via config
// file as well as CLI flags.
type ModeConfig struct {
	Derivation     bool `yaml:"derivation"`
	Repetition     bool `yaml:"repetition"`
	LowMemory      bool `yaml:"low_memory"`
	Fast           bool `yaml:"fast"`
	DerivationFQ   bool `yaml:"derivation_fq"`
	SingleThreaded bool `yaml:"single_threaded"`
}

// OutputConfig holds rendering/snapshot defaults.
type OutputConfig struct {
	Format   string `yaml:"format"`
	NoColor  bool   `yaml:"no_color"`
	Snapshot string `yaml:"snapshot"`
}
