package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/starford/procforge/internal"
	"github.com/starford/procforge/internal/ledger"
	"github.com/starford/procforge/internal/models"
	"github.com/starford/procforge/internal/procedure"
	"github.com/starford/procforge/internal/render"
	"github.com/starford/procforge/internal/session"
)

// withRuntime opens the workspace for a one-shot command. Logs go to stderr
// so that command output can be piped.
func withRuntime(fn func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		rt, err := internal.Open(internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(ctx, cmd, rt)
	}
}

func bumpFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "change-type", Aliases: []string{"t"}, Value: string(models.ChangePatch), Usage: "major, minor or patch"},
		&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "Who made the change", Required: true},
		&cli.StringFlag{Name: "comment", Aliases: []string{"m"}, Usage: "What changed", Required: true},
	}
}

func bumpRequest(cmd *cli.Command) session.BumpRequest {
	return session.BumpRequest{
		ChangeType: models.ChangeType(cmd.String("change-type")),
		Author:     cmd.String("author"),
		Comment:    cmd.String("comment"),
	}
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Render the document preview",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "text, markdown or html"},
			&cli.IntFlag{Name: "width", Value: 100, Usage: "Line width of the text format"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (default stdout)"},
		},
		Action: withRuntime(func(_ context.Context, cmd *cli.Command, rt *internal.Runtime) error {
			doc := rt.Session.Preview()
			var out []byte
			switch cmd.String("format") {
			case "text":
				out = []byte(render.Terminal(doc, int(cmd.Int("width"))) + "\n")
			case "markdown":
				md, err := render.NewMarkdownRenderer().Render(doc)
				if err != nil {
					return err
				}
				out = []byte(md)
			case "html":
				html, err := render.HTML(doc)
				if err != nil {
					return err
				}
				out = html
			default:
				return fmt.Errorf("unknown format %q", cmd.String("format"))
			}
			return writeOutput(cmd.String("out"), out)
		}),
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Bump the version and export the procedure to the workspace",
		Flags: append(bumpFlags(),
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Also write the export to this file"},
		),
		Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
			res, err := rt.Session.Export(ctx, bumpRequest(cmd))
			if err != nil {
				return err
			}
			if out := cmd.String("out"); out != "" {
				if err := writeOutput(out, res.Payload); err != nil {
					return err
				}
			}
			if err := rt.Session.Save(); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Printf("exported v%s to %s\n", res.Entry.Version, res.Filename)
			return nil
		}),
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Replace the procedure with a JSON or YAML file",
		ArgsUsage: "<file>",
		Action: withRuntime(func(_ context.Context, cmd *cli.Command, rt *internal.Runtime) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("file argument is required")
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if err := rt.Session.Import(data, procedure.DetectFormat(filepath.Base(path), data)); err != nil {
				return err
			}
			if err := rt.Session.Save(); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Printf("imported %s (v%s)\n", path, rt.Session.CurrentVersion())
			return nil
		}),
	}
}

func bumpCommand() *cli.Command {
	return &cli.Command{
		Name:  "bump",
		Usage: "Record a version bump without exporting",
		Flags: bumpFlags(),
		Action: withRuntime(func(_ context.Context, cmd *cli.Command, rt *internal.Runtime) error {
			entry, err := rt.Session.Bump(bumpRequest(cmd))
			if err != nil {
				return err
			}
			fmt.Printf("%s → %s\n", entry.PreviousVersion, entry.Version)
			return nil
		}),
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Print the version history",
		Action: withRuntime(func(_ context.Context, _ *cli.Command, rt *internal.Runtime) error {
			fmt.Println(historyTable(rt.Session.HistoryTable()))
			return nil
		}),
	}
}

func historyTable(rows []ledger.TableRow) string {
	if len(rows) == 0 {
		return "Aucun historique de version disponible"
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Version", "Auteur", "Date", "Type", "Commentaire").
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			if col == 3 && row >= 0 && row < len(rows) {
				return s.Foreground(lipgloss.Color(rows[row].Color))
			}
			return s
		})
	for _, r := range rows {
		t.Row("v"+r.Version, r.Author, r.Date, r.Label, r.Comment)
	}
	return t.String()
}

func resetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Clear the procedure, its version history and the autosave",
		Action: withRuntime(func(_ context.Context, _ *cli.Command, rt *internal.Runtime) error {
			rt.Session.Reset()
			fmt.Println("procedure reset to 1.0.0")
			return nil
		}),
	}
}
