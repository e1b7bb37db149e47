package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/proofread/internal/proofread"
	"github.com/colonyops/proofread/pkg/iojson"
)

type ModulesCmd struct {
	flags *Flags
	app   *proofread.App

	// flags
	jsonOutput bool
	serverURL  string
}

// NewModulesCmd creates a new modules command
func NewModulesCmd(flags *Flags, app *proofread.App) *ModulesCmd {
	return &ModulesCmd{flags: flags, app: app}
}

// Register adds the modules command to the application
func (cmd *ModulesCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "modules",
		Usage:     "List available analysis modules",
		UsageText: "proofread modules [--json] [--server URL]",
		Description: `Lists the modules that can be passed to process and check.

Modules whose dependencies are missing (for example transition without an LLM
service) are not listed.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
			serverFlag(&cmd.serverURL),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ModulesCmd) run(ctx context.Context, c *cli.Command) error {
	infos, err := selectBackend(cmd.app, cmd.serverURL).Modules(ctx)
	if err != nil {
		return fmt.Errorf("list modules: %w", err)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		return iojson.WriteWith(out, c.Root().ErrWriter, infos)
	}

	if len(infos) == 0 {
		fmt.Fprintf(os.Stderr, "No modules available\n")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, info := range infos {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", info.Name, info.Description)
	}
	return w.Flush()
}

func serverFlag(dest *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "server",
		Usage:       "URL of a running proofread server (runs modules in process when empty)",
		Sources:     cli.EnvVars("PROOFREAD_SERVER"),
		Destination: dest,
	}
}
