package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/proofread/internal/data/db"
	"github.com/colonyops/proofread/internal/proofread"
)

type DBCmd struct {
	flags *Flags
	app   *proofread.App

	steps int
}

// NewDBCmd creates a new db command.
func NewDBCmd(flags *Flags, app *proofread.App) *DBCmd {
	return &DBCmd{flags: flags, app: app}
}

// Register adds the db command to the application.
func (cmd *DBCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "db",
		Usage: "Cache database maintenance",
		Commands: []*cli.Command{
			{
				Name:      "migrate-down",
				Usage:     "Revert the most recent schema migrations",
				UsageText: "proofread db migrate-down [--steps N]",
				Description: `Reverts applied migrations in reverse order. Reverting the kv_store
migration drops every cached LLM reply; the next command applies pending
migrations again on startup.`,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "steps",
						Usage:       "number of migrations to revert",
						Value:       1,
						Destination: &cmd.steps,
					},
				},
				Action: cmd.runMigrateDown,
			},
		},
	})

	return app
}

func (cmd *DBCmd) runMigrateDown(ctx context.Context, c *cli.Command) error {
	if err := db.MigrateDown(ctx, cmd.app.DB.Conn(), cmd.steps); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "reverted %d migration(s) in %s\n", cmd.steps, cmd.flags.DataDir)
	return nil
}
