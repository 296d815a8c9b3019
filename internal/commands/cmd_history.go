package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/lanewatch/internal/core/history"
	"github.com/hay-kot/lanewatch/internal/printer"
	"github.com/hay-kot/lanewatch/internal/store/jsonfile"
)

type HistoryCmd struct {
	flags *Flags
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd(flags *Flags) *HistoryCmd {
	return &HistoryCmd{flags: flags}
}

// Register adds the history command to the application
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "history",
		Usage:       "Show recorded status transitions",
		UsageText:   "lanewatch history [--lane id] [--limit n] [--clear]",
		Description: "Displays status transitions recorded by past watch sessions, newest first.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "lane",
				Usage: "show a single lane only",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "maximum number of entries to show (0 for all)",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "remove all recorded history",
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)
	store := jsonfile.NewHistoryStore(cmd.flags.Config.HistoryFile(), cmd.flags.Config.HistoryEntries)

	if c.Bool("clear") {
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		p.Infof("history cleared")
		return nil
	}

	var (
		entries []history.Entry
		err     error
	)
	if lane := c.String("lane"); lane != "" {
		entries, err = store.ListLane(ctx, lane)
	} else {
		entries, err = store.List(ctx)
	}
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	if limit := c.Int("limit"); limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	if len(entries) == 0 {
		p.Infof("No history recorded")
		return nil
	}

	w := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tLANE\tAGENT\tTRANSITION")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s -> %s\n",
			e.Timestamp.Format(time.DateTime), e.LaneID, e.AgentType, e.Previous, e.New)
	}
	return w.Flush()
}
