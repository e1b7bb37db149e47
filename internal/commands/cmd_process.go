package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/proofread/internal/proofread"
	"github.com/colonyops/proofread/internal/server"
	"github.com/colonyops/proofread/pkg/iojson"
)

type ProcessCmd struct {
	flags *Flags
	app   *proofread.App

	// flags
	textFile  string
	modules   []string
	serverURL string
	request   iojson.FileReader[server.ProcessRequest]
}

// NewProcessCmd creates a new process command
func NewProcessCmd(flags *Flags, app *proofread.App) *ProcessCmd {
	return &ProcessCmd{flags: flags, app: app}
}

// Register adds the process command to the application
func (cmd *ProcessCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "process",
		Usage:     "Run modules over a text file and print the findings as JSON",
		UsageText: "proofread process --text-file FILE --modules a,b",
		Description: `Runs the selected modules and prints one result per module, keyed by
module name, in the same shape as POST /api/process.

Without --text-file the request is read as JSON ({"text": ..., "modules": [...]})
from --file or stdin.

Examples:
  proofread process --text-file essay.txt --modules isolated_pronouns,transition
  echo '{"text": "It works.", "modules": ["isolated_pronouns"]}' | proofread process`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "text-file",
				Usage:       "path to the text to analyze",
				Destination: &cmd.textFile,
			},
			&cli.StringSliceFlag{
				Name:        "modules",
				Aliases:     []string{"m"},
				Usage:       "modules to run (comma separated or repeated)",
				Destination: &cmd.modules,
			},
			cmd.request.Flag(),
			serverFlag(&cmd.serverURL),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ProcessCmd) run(ctx context.Context, c *cli.Command) error {
	req, err := cmd.readRequest(c.Root().Reader)
	if err != nil {
		return err
	}

	results, err := selectBackend(cmd.app, cmd.serverURL).Process(ctx, req.Text, req.Modules)
	if err != nil {
		_ = iojson.WriteError(c.Root().ErrWriter, err, map[string]any{"modules": req.Modules})
		return cli.Exit("", 1)
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, results)
}

func (cmd *ProcessCmd) readRequest(stdin io.Reader) (server.ProcessRequest, error) {
	if cmd.textFile == "" {
		req, err := cmd.request.Read(stdin)
		if err != nil {
			return req, err
		}
		if len(cmd.modules) > 0 {
			req.Modules = cmd.modules
		}
		return req, nil
	}

	data, err := os.ReadFile(cmd.textFile)
	if err != nil {
		return server.ProcessRequest{}, fmt.Errorf("read text file: %w", err)
	}
	return server.ProcessRequest{Text: string(data), Modules: cmd.modules}, nil
}
