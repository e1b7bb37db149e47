package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/proofread/internal/core/editor"
	"github.com/colonyops/proofread/internal/core/highlight"
	"github.com/colonyops/proofread/internal/core/logging"
	"github.com/colonyops/proofread/internal/markup"
	"github.com/colonyops/proofread/internal/proofread"
)

type CheckCmd struct {
	flags *Flags
	app   *proofread.App

	// flags
	modules   []string
	serverURL string
	details   bool
	color     string
	width     int
}

// NewCheckCmd creates a new check command
func NewCheckCmd(flags *Flags, app *proofread.App) *CheckCmd {
	return &CheckCmd{flags: flags, app: app}
}

// Register adds the check command to the application
func (cmd *CheckCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "check",
		Usage:     "Print files with findings highlighted",
		UsageText: "proofread check [options] <file or glob>...",
		Description: `Runs the selected modules over each file and prints the text with every
finding highlighted in its module's color. Regions flagged by more than one
module use the overlap color.

Patterns support ** globs, e.g. "docs/**/*.md".

Use --details to list every highlight with its modules and explanations.`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:        "modules",
				Aliases:     []string{"m"},
				Usage:       "modules to run (defaults to all available)",
				Destination: &cmd.modules,
			},
			serverFlag(&cmd.serverURL),
			&cli.BoolFlag{
				Name:        "details",
				Aliases:     []string{"d"},
				Usage:       "list each highlight with its explanations",
				Destination: &cmd.details,
			},
			&cli.StringFlag{
				Name:        "color",
				Usage:       "when to use color (auto, always, never)",
				Value:       "auto",
				Destination: &cmd.color,
			},
			&cli.IntFlag{
				Name:        "width",
				Usage:       "word wrap width for details",
				Value:       80,
				Destination: &cmd.width,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *CheckCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("no files given. Run 'proofread check --help' for usage")
	}

	files, err := expand(c.Args().Slice())
	if err != nil {
		return err
	}

	backend := selectBackend(cmd.app, cmd.serverURL)

	modules := cmd.modules
	if len(modules) == 0 {
		infos, err := backend.Modules(ctx)
		if err != nil {
			return fmt.Errorf("list modules: %w", err)
		}
		for _, info := range infos {
			modules = append(modules, info.Name)
		}
	}

	out := c.Root().Writer
	color, err := cmd.useColor(out)
	if err != nil {
		return err
	}

	renderer := lipgloss.NewRenderer(out)
	if color {
		renderer.SetColorProfile(termenv.TrueColor)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}
	terminal := markup.NewTerminal(renderer)

	session := editor.NewSession(cmd.app.Palette(), logging.Component("check"))

	for i, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		session.SetText(string(data))

		// empty files have nothing to analyze and are printed as they are
		var overlay highlight.Overlay
		if len(data) > 0 {
			overlay, err = session.Run(ctx, backend, modules)
			if err != nil {
				return fmt.Errorf("check %s: %w", file, err)
			}
		}

		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		if len(files) > 1 {
			_, _ = fmt.Fprintf(out, "==> %s <==\n", file)
		}
		_, _ = fmt.Fprintln(out, terminal.Render(overlay))

		if cmd.details {
			rendered, err := markup.RenderMarkdown(markup.Details(overlay), cmd.width, color)
			if err != nil {
				return fmt.Errorf("render details: %w", err)
			}
			_, _ = fmt.Fprint(out, rendered)
		}
	}

	return nil
}

func (cmd *CheckCmd) useColor(w io.Writer) (bool, error) {
	switch cmd.color {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	default:
		return false, fmt.Errorf("invalid --color %q: must be auto, always or never", cmd.color)
	}
}

// expand resolves glob patterns to files. Plain paths are kept as given so a
// missing file surfaces as a read error.
func expand(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			files = append(files, pattern)
			continue
		}
		files = append(files, matches...)
	}
	return files, nil
}
