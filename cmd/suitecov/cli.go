package main

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/suitecov/internal/config"
	"github.com/hpungsan/suitecov/internal/errors"
	"github.com/hpungsan/suitecov/internal/ops"
	"github.com/hpungsan/suitecov/internal/report"
	"github.com/hpungsan/suitecov/internal/web"
)

// Report output formats.
const (
	formatConsole  = "console"
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

// newCLIApp creates the CLI application with all commands. baseDir holds
// the database and the exports directory.
func newCLIApp(db *sql.DB, cfg *config.Config, baseDir string) *cli.App {
	app := &cli.App{
		Name:    "suitecov",
		Usage:   "Test suite coverage for Katalon-style projects",
		Version: Version,
		Commands: []*cli.Command{
			ingestCmd(db),
			summaryCmd(db),
			modulesCmd(db, cfg),
			classesCmd(db, cfg),
			suitesCmd(db),
			collectionsCmd(db),
			reusedCmd(db),
			uncoveredCmd(db),
			matchCmd(db),
			caseCmd(db, cfg),
			browseCmd(db, cfg),
			tagsCmd(db, cfg),
			trendCmd(db),
			recommendationsCmd(db, cfg),
			reportCmd(db, cfg),
			exportCmd(db, cfg, baseDir),
			serveCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func listFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
		&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
	}
}

func listInput(c *cli.Context) ops.ListInput {
	return ops.ListInput{Limit: c.Int("limit"), Offset: c.Int("offset")}
}

func ingestCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Parse a project's test cases and suites into the local store",
		ArgsUsage: "[project-dir]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "keep-stale", Usage: "Keep records whose files no longer exist"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"V"}, Usage: "Log every skipped or altered file"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Hide the progress bar"},
		},
		Action: func(c *cli.Context) error {
			root := "."
			if c.NArg() > 0 {
				root = c.Args().First()
			}

			input := ops.IngestInput{
				Root:      root,
				KeepStale: c.Bool("keep-stale"),
			}

			var bar *ingestProgress
			if !c.Bool("quiet") {
				input.Progress = func(done, total int) {
					if bar == nil {
						bar = newIngestProgress(os.Stderr, total)
					}
					bar.Update(done)
				}
			}

			output, err := ops.Ingest(c.Context, db, input)
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return outputError(err)
			}

			if c.Bool("verbose") {
				for _, w := range output.Warnings {
					log.Printf("warning: %s: %s", w.Path, w.Message)
				}
			}
			return outputJSON(output)
		},
	}
}

func summaryCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "Show headline coverage numbers",
		Action: func(c *cli.Context) error {
			output, err := ops.Summary(c.Context, db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func modulesCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "modules",
		Usage: "Show coverage per module folder",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "depth", Aliases: []string{"d"}, Usage: "Folder depth below \"Test Cases\" (default: config module_depth)"},
		},
		Action: func(c *cli.Context) error {
			if c.Int("depth") < 0 {
				return outputError(errors.NewInvalidRequest("depth must be positive"))
			}
			output, err := ops.Modules(c.Context, db, cfg, ops.ModulesInput{Depth: c.Int("depth")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func classesCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "classes",
		Usage: "Show priority and test type distributions",
		Action: func(c *cli.Context) error {
			output, err := ops.Classes(c.Context, db, cfg)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func suitesCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "suites",
		Usage: "List suites with their effective sizes",
		Action: func(c *cli.Context) error {
			output, err := ops.Suites(c.Context, db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func collectionsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "collections",
		Usage: "List suite collections and their members",
		Action: func(c *cli.Context) error {
			output, err := ops.Collections(c.Context, db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func reusedCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "reused",
		Usage: "List test cases covered by two or more suites",
		Flags: listFlags(),
		Action: func(c *cli.Context) error {
			output, err := ops.Reused(c.Context, db, listInput(c))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func uncoveredCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "uncovered",
		Usage: "List test cases no suite covers",
		Flags: listFlags(),
		Action: func(c *cli.Context) error {
			output, err := ops.Uncovered(c.Context, db, listInput(c))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func matchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "match",
		Usage:     "Evaluate a filter expression, e.g. 'name=(AC-) tag=(api,smoke)'",
		ArgsUsage: "<filter>",
		Flags:     listFlags(),
		Action: func(c *cli.Context) error {
			filter := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(filter) == "" {
				return outputError(errors.NewInvalidRequest("filter argument is required"))
			}
			output, err := ops.Match(c.Context, db, ops.MatchInput{Filter: filter, ListInput: listInput(c)})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func caseCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "case",
		Usage:     "Show one test case and the suites covering it",
		ArgsUsage: "<id|guid|path>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("case reference is required"))
			}
			output, err := ops.Case(c.Context, db, cfg, ops.CaseInput{Ref: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func tagsCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "Show the most used tags",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum tags (default: config top_tags_limit, -1 for all)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Tags(c.Context, db, cfg, c.Int("limit"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func trendCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "trend",
		Usage: "Show test case changes per day and recent ingest runs",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Value: 10, Usage: "Number of days to show"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Trend(c.Context, db, c.Int("days"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func recommendationsCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "recommendations",
		Usage: "Show findings derived from the coverage numbers",
		Action: func(c *cli.Context) error {
			recs, err := ops.Recommendations(c.Context, db, cfg)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"recommendations": recs})
		},
	}
}

func reportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Render the full coverage report",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: formatConsole, Usage: "Output format: console|markdown|json"},
			&cli.StringFlag{Name: "out", Usage: "Write the report to this file instead of stdout"},
			&cli.IntFlag{Name: "depth", Aliases: []string{"d"}, Usage: "Module depth (default: config module_depth)"},
		},
		Action: func(c *cli.Context) error {
			format := c.String("format")
			switch format {
			case formatConsole, formatMarkdown, formatJSON:
			default:
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown format %q (want console, markdown or json)", format)))
			}

			rep, err := ops.BuildReport(c.Context, db, cfg, ops.ReportInput{Depth: c.Int("depth")})
			if err != nil {
				return outputError(err)
			}

			out := c.String("out")
			if out == "" {
				return writeReport(os.Stdout, format, rep)
			}

			f, err := os.Create(out)
			if err != nil {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("cannot create %s: %v", out, err)))
			}
			if err := writeReport(f, format, rep); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return outputError(errors.NewInternal(err))
			}
			abs, _ := filepath.Abs(out)
			return outputJSON(map[string]any{"path": abs, "format": format, "id": rep.ID})
		},
	}
}

func browseCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "List every test case grouped by module folder",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: formatConsole, Usage: "Output format: console|markdown|json"},
			&cli.IntFlag{Name: "depth", Aliases: []string{"d"}, Usage: "Module depth (default: config module_depth)"},
			&cli.StringFlag{Name: "module", Aliases: []string{"m"}, Usage: "Only this module path and the folders below it"},
		},
		Action: func(c *cli.Context) error {
			if c.Int("depth") < 0 {
				return outputError(errors.NewInvalidRequest("depth must be positive"))
			}
			output, err := ops.Browse(c.Context, db, cfg, ops.BrowseInput{
				Depth:  c.Int("depth"),
				Module: c.String("module"),
			})
			if err != nil {
				return outputError(err)
			}

			switch format := c.String("format"); format {
			case formatJSON:
				return outputJSON(output)
			case formatMarkdown:
				err = report.BrowseMarkdown(os.Stdout, output)
			case formatConsole:
				err = report.BrowseConsole(os.Stdout, output)
			default:
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown format %q (want console, markdown or json)", format)))
			}
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

func writeReport(w io.Writer, format string, rep *ops.Report) error {
	var err error
	switch format {
	case formatMarkdown:
		err = report.Markdown(w, rep)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(rep)
	default:
		err = report.Console(w, rep)
	}
	if err != nil {
		return outputError(errors.NewInternal(err))
	}
	return nil
}

func exportCmd(db *sql.DB, cfg *config.Config, baseDir string) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a metrics snapshot to a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.suitecov/exports/<name>-metrics-<id>.json)"},
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Project name used in the default file name"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ExportMetrics(c.Context, db, cfg, ops.ExportInput{
				Path:       c.String("path"),
				ExportsDir: filepath.Join(baseDir, "exports"),
				Name:       c.String("name"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8470, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(db, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var cErr *errors.CovError
	if stderrors.As(err, &cErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", cErr.Code, cErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
