package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/proofread/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "proofread config validate [options]",
				Description: "Validates the configuration file, checking palette colors, referenced files, and LLM credentials.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	err := cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath)

	var problems []validationError
	var fieldErrs criterio.FieldErrors
	switch {
	case err == nil:
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			problems = append(problems, validationError{Field: fe.Field, Message: fe.Err.Error()})
		}
	default:
		problems = append(problems, validationError{Field: "config", Message: err.Error()})
	}

	out := c.Root().Writer

	if cmd.format == "json" {
		result := struct {
			Valid  bool              `json:"valid"`
			Path   string            `json:"path"`
			Errors []validationError `json:"errors,omitempty"`
		}{
			Valid:  len(problems) == 0,
			Path:   cmd.flags.ConfigPath,
			Errors: problems,
		}
		if err := iojson.WriteWith(out, c.Root().ErrWriter, result); err != nil {
			return err
		}
	} else {
		for _, p := range problems {
			_, _ = fmt.Fprintf(out, "✗ %s: %s\n", p.Field, p.Message)
		}
		if len(problems) == 0 {
			_, _ = fmt.Fprintf(out, "✓ Configuration is valid (%s)\n", cmd.flags.ConfigPath)
			return nil
		}
		_, _ = fmt.Fprintf(out, "\n%d error(s) found\n", len(problems))
	}

	if len(problems) > 0 {
		return cli.Exit("", 1)
	}
	return nil
}
