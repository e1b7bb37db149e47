package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/proofread/internal/core/config"
	"github.com/colonyops/proofread/internal/core/logging"
	"github.com/colonyops/proofread/internal/proofread"
	"github.com/colonyops/proofread/internal/server"
)

type ServeCmd struct {
	flags *Flags
	app   *proofread.App

	// flags
	host  string
	port  int
	watch bool
	pprof bool
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags, app *proofread.App) *ServeCmd {
	return &ServeCmd{flags: flags, app: app}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run the analysis HTTP API",
		UsageText: "proofread serve [--host HOST] [--port PORT] [--watch]",
		Description: `Serves the module registry and the highlight engine over HTTP.

Endpoints:
  GET  /api/modules       list available modules
  POST /api/process       run modules, returns raw findings
  POST /api/highlight     run modules, returns the rendered overlay
  GET  /api/sample-text   sample document

With --watch the config file is reloaded on change and palette updates apply
to the next request.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "host",
				Usage:       "address to bind (defaults to server.host)",
				Sources:     cli.EnvVars("PROOFREAD_HOST"),
				Destination: &cmd.host,
			},
			&cli.IntFlag{
				Name:        "port",
				Aliases:     []string{"p"},
				Usage:       "port to listen on (defaults to server.port)",
				Sources:     cli.EnvVars("PROOFREAD_PORT"),
				Destination: &cmd.port,
			},
			&cli.BoolFlag{
				Name:        "watch",
				Usage:       "reload the config file when it changes",
				Destination: &cmd.watch,
			},
			&cli.BoolFlag{
				Name:        "pprof",
				Usage:       "mount pprof handlers under /debug/pprof",
				Sources:     cli.EnvVars("PROOFREAD_PPROF"),
				Destination: &cmd.pprof,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := cmd.flags.Config
	host, port := cfg.Server.Host, cfg.Server.Port
	if cmd.host != "" {
		host = cmd.host
	}
	if cmd.port != 0 {
		port = cmd.port
	}

	cmd.app.Start(ctx)

	srv := server.New(cmd.app.Registry, server.Options{
		Addr:         net.JoinHostPort(host, strconv.Itoa(port)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Profiling:    cmd.pprof,
		Palette:      cmd.app.Palette,
		SampleText:   cmd.app.SampleText,
		Logger:       logging.Component("http"),
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "proofread listening on http://%s\n", srv.Addr())

	if cmd.watch {
		go func() {
			err := config.Watch(ctx, cmd.flags.ConfigPath, cmd.flags.DataDir, logging.Component("config"), func(next *config.Config) {
				cmd.app.SetPalette(next.Palette.Highlight())
			})
			if err != nil {
				log.Warn().Err(err).Msg("config watch stopped")
			}
		}()
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
