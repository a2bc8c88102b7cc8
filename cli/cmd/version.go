package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/cfgforge/cfgforge/cli/render"
)

// Version is the canonical project version (lockstep across all
// components), printed by VersionCommand and embedded in the launcher's
// --version output.
const Version = "0.1.0"

// VersionResponse is the response for the version command.
type VersionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// VersionCommand returns the version command. It must not touch the
// grammar store or run the engine.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show version information",
		Flags:  ReadOnlyFlags(),
		Action: versionAction(commit),
	}
}

func versionAction(commit string) cli.ActionFunc {
	return func(c *cli.Context) error {
		r, err := render.NewRenderer(c)
		if err != nil {
			return err
		}
		if c.Bool("tui") {
			return cli.Exit("--tui is not supported for the version command", 1)
		}
		return r.Render(VersionResponse{Version: Version, Commit: commit})
	}
}
