package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/daybook/internal"
	"github.com/starford/daybook/internal/calendar"
	"github.com/starford/daybook/internal/journal"
	"github.com/starford/daybook/internal/printer"
	pkgconfig "github.com/starford/daybook/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

// withJournal opens the journal for a one-shot command. Logs go to stderr so
// stdout stays parseable in --json mode.
func withJournal(fn func(ctx context.Context, cmd *cli.Command, svc *journal.Service, p *printer.Printer) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		p := printer.New(cmd.Bool("json"))
		cfg, err := loadConfig(cmd)
		if err != nil {
			return p.HandleError(err)
		}
		rt, err := internal.Open(internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
		if err != nil {
			return p.HandleError(err)
		}
		defer rt.Close()
		return p.HandleError(fn(ctx, cmd, rt.Service, p))
	}
}

func dayCmd(ctx context.Context, cmd *cli.Command, svc *journal.Service, p *printer.Printer) error {
	date := cmd.Args().First()
	if date == "" {
		date = calendar.Today(time.Now()).String()
	}
	res, err := svc.FocusDay(ctx, cmd.String("file"), date)
	if err != nil {
		return err
	}
	return p.View(res)
}

func rangeCmd(ctx context.Context, cmd *cli.Command, svc *journal.Service, p *printer.Printer) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("range needs START and END dates")
	}
	res, err := svc.ShowRange(ctx, cmd.String("file"), cmd.Args().Get(0), cmd.Args().Get(1))
	if err != nil {
		return err
	}
	return p.View(res)
}

func weekCmd(ctx context.Context, cmd *cli.Command, svc *journal.Service, p *printer.Printer) error {
	res, err := svc.ShowWeek(ctx, cmd.String("file"))
	if err != nil {
		return err
	}
	return p.View(res)
}

func monthCmd(ctx context.Context, cmd *cli.Command, svc *journal.Service, p *printer.Printer) error {
	res, err := svc.ShowMonth(ctx, cmd.String("file"), cmd.Args().First())
	if err != nil {
		return err
	}
	return p.View(res)
}

func refileCmd(ctx context.Context, cmd *cli.Command, svc *journal.Service, p *printer.Printer) error {
	req := journal.RefileRequest{
		File:    cmd.String("file"),
		Line:    int(cmd.Int("line")),
		Target:  cmd.String("to"),
		Keep:    cmd.Bool("keep"),
		Period:  cmd.String("every"),
		Until:   cmd.String("until"),
		Count:   int(cmd.Int("count")),
		IfMatch: cmd.String("if-match"),
	}
	var (
		res *journal.RefileResult
		err error
	)
	if req.Period != "" {
		res, err = svc.RefileSeries(ctx, req)
	} else {
		res, err = svc.Refile(ctx, req)
	}
	if err != nil {
		return err
	}
	return p.Refile(res)
}

func filesCmd(ctx context.Context, _ *cli.Command, svc *journal.Service, p *printer.Printer) error {
	res, err := svc.Files(ctx)
	if err != nil {
		return err
	}
	return p.Files(res)
}

func daysCmd(ctx context.Context, cmd *cli.Command, svc *journal.Service, p *printer.Printer) error {
	rows, err := svc.Days(ctx, journal.DaysQuery{
		File: cmd.String("file"),
		From: cmd.String("from"),
		To:   cmd.String("to"),
	})
	if err != nil {
		return err
	}
	return p.Days(rows)
}

func reindexCmd(ctx context.Context, _ *cli.Command, svc *journal.Service, p *printer.Printer) error {
	if err := svc.Reindex(ctx); err != nil {
		return err
	}
	res, err := svc.Files(ctx)
	if err != nil {
		return err
	}
	return p.Files(res)
}

func fileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "Journal name from the registry, or a path relative to the journal dir",
		Sources: cli.EnvVars("DAYBOOK_FILE"),
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "daybook",
		Usage:   "Date-tree journal: focus days, show ranges and refile entries into year/month/day outlines",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, SSE stream and file watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:      "day",
				Usage:     "Focus a day, creating its year/month/day headings",
				ArgsUsage: "[YYYY-MM-DD]",
				Flags:     []cli.Flag{fileFlag()},
				Action:    withJournal(dayCmd),
			},
			{
				Name:      "range",
				Usage:     "Show every day between two dates inclusive",
				ArgsUsage: "START END",
				Flags:     []cli.Flag{fileFlag()},
				Action:    withJournal(rangeCmd),
			},
			{
				Name:   "week",
				Usage:  "Show the current week",
				Flags:  []cli.Flag{fileFlag()},
				Action: withJournal(weekCmd),
			},
			{
				Name:      "month",
				Usage:     "Show a month subtree",
				ArgsUsage: "[YYYY-MM]",
				Flags:     []cli.Flag{fileFlag()},
				Action:    withJournal(monthCmd),
			},
			{
				Name:  "refile",
				Usage: "Move or copy the heading at --line under a target day",
				Flags: []cli.Flag{
					fileFlag(),
					&cli.IntFlag{Name: "line", Aliases: []string{"l"}, Usage: "1-based line inside the entry to refile", Required: true},
					&cli.StringFlag{Name: "to", Aliases: []string{"t"}, Usage: "Target date YYYY-MM-DD", Required: true},
					&cli.BoolFlag{Name: "keep", Aliases: []string{"k"}, Usage: "Copy instead of move"},
					&cli.StringFlag{Name: "every", Usage: "Repeat period such as 1w or 3d"},
					&cli.StringFlag{Name: "until", Usage: "Last date of the series, inclusive"},
					&cli.IntFlag{Name: "count", Usage: "Number of placements in the series"},
					&cli.StringFlag{Name: "if-match", Usage: "Expected checksum of the document"},
				},
				Action: withJournal(refileCmd),
			},
			{
				Name:   "files",
				Usage:  "List journal files",
				Action: withJournal(filesCmd),
			},
			{
				Name:  "days",
				Usage: "List indexed days",
				Flags: []cli.Flag{
					fileFlag(),
					&cli.StringFlag{Name: "from", Usage: "First date YYYY-MM-DD"},
					&cli.StringFlag{Name: "to", Usage: "Last date YYYY-MM-DD"},
				},
				Action: withJournal(daysCmd),
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild the day index from disk",
				Action: withJournal(reindexCmd),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
