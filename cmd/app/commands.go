package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/cli/browser"
	"github.com/urfave/cli/v3"

	"github.com/starford/shelf/internal"
	"github.com/starford/shelf/internal/bookmarkservice"
	"github.com/starford/shelf/internal/mcpserver"
	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/transfer"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	starStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Padding(0, 1)
)

// withComponents loads the config, opens the stores and runs fn. Logs go
// to stderr so stdout stays clean for command output and the MCP stream.
func withComponents(ctx context.Context, cmd *cli.Command, fn func(context.Context, *internal.Components) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	slog.SetDefault(internal.NewLogger(os.Stderr, cfg.App.LogLevel))

	c, err := internal.Build(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(ctx, c)
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve bookmark tools over MCP on stdin/stdout",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withComponents(ctx, cmd, func(_ context.Context, c *internal.Components) error {
				return mcpserver.New(c.Service).ServeStdio()
			})
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print bookmarks as a table",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Filter by title, URL or tag"},
			&cli.BoolFlag{Name: "desc", Usage: "Sort titles Z to A"},
			&cli.BoolFlag{Name: "favorites", Aliases: []string{"f"}, Usage: "Only favorites"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withComponents(ctx, cmd, func(ctx context.Context, c *internal.Components) error {
				list, err := c.Service.GetBookmarks(ctx, bookmarkservice.Query{
					Search:         cmd.String("search"),
					SortDescending: cmd.Bool("desc"),
					FavoritesOnly:  cmd.Bool("favorites"),
				})
				if err != nil {
					return err
				}
				return renderTable(os.Stdout, list)
			})
		},
	}
}

func renderTable(w io.Writer, list []models.Bookmark) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No bookmarks found")
		return err
	}

	rows := make([][]string, 0, len(list))
	for _, b := range list {
		star := ""
		if b.IsFavorite {
			star = "★"
		}
		rows = append(rows, []string{b.ID, star, b.Title, b.URL, strings.Join(b.Tags, ", ")})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("ID", "", "TITLE", "URL", "TAGS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1:
				return starStyle
			default:
				return cellStyle
			}
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func openCommand() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Open a bookmark in the default browser",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return errors.New("open: bookmark id is required")
			}
			return withComponents(ctx, cmd, func(ctx context.Context, c *internal.Components) error {
				b, err := c.Service.GetBookmark(ctx, id)
				if err != nil {
					return err
				}
				return browser.OpenURL(b.URL)
			})
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import a browser bookmark export (HTML) or a Shelf dump (YAML)",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("import: file is required")
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			var items []models.NewBookmark
			switch strings.ToLower(filepath.Ext(path)) {
			case ".yaml", ".yml":
				items, err = transfer.DecodeYAML(f)
			default:
				items, err = transfer.ParseNetscape(f)
			}
			if err != nil {
				return err
			}

			return withComponents(ctx, cmd, func(ctx context.Context, c *internal.Components) error {
				res, err := transfer.Import(ctx, c.Service, items)
				for _, u := range res.Skipped {
					slog.Warn("import: skipped", slog.String("url", u))
				}
				fmt.Printf("Imported %d bookmarks, skipped %d\n", res.Imported, len(res.Skipped))
				return err
			})
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write every bookmark to a YAML dump (\"-\" for stdout)",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("export: file is required")
			}
			return withComponents(ctx, cmd, func(ctx context.Context, c *internal.Components) error {
				if path == "-" {
					_, err := transfer.Export(ctx, c.Service, os.Stdout)
					return err
				}
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				n, err := transfer.Export(ctx, c.Service, f)
				if cerr := f.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Exported %d bookmarks to %s\n", n, path)
				return nil
			})
		},
	}
}
