package commands

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/lanewatch/internal/detect"
)

type PatternsCmd struct {
	flags *Flags
}

// NewPatternsCmd creates a new patterns command
func NewPatternsCmd(flags *Flags) *PatternsCmd {
	return &PatternsCmd{flags: flags}
}

// Register adds the patterns command to the application
func (cmd *PatternsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "patterns",
		Usage:     "Show the classification tables for each agent type",
		UsageText: "lanewatch patterns [--agent type]",
		Description: `Displays the regex tables and timing parameters each agent variant uses,
with any tuning overrides from the config file applied.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "agent",
				Usage: "show a single agent type only",
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *PatternsCmd) run(ctx context.Context, c *cli.Command) error {
	tunings := cmd.flags.Config.Tunings()

	agents := detect.AgentTypes()
	if only := c.String("agent"); only != "" {
		agents = []string{only}
	}

	out := c.Root().Writer

	for i, agent := range agents {
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		printAgentTable(out, agent, detect.PatternsFor(agent, tunings[agent]))
	}
	return nil
}

func printAgentTable(out io.Writer, agent string, pat detect.Patterns) {
	_, _ = fmt.Fprintf(out, "%s\n", agent)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "  idle timeout\t%s\n", pat.IdleTimeout)
	_, _ = fmt.Fprintf(w, "  done-to-working bytes\t%d\n", pat.DoneToWorkingBytes)
	_, _ = fmt.Fprintf(w, "  debounce\t%s\n", pat.Debounce)
	_, _ = fmt.Fprintf(w, "  spinner window\t%s\n", pat.SpinnerWindow)
	writePatternRows(w, "waiting", pat.Waiting)
	writePatternRows(w, "error", pat.Error)
	writePatternRows(w, "working", pat.Working)
	_ = w.Flush()
}

func writePatternRows(w *tabwriter.Writer, category string, patterns []*regexp.Regexp) {
	if len(patterns) == 0 {
		_, _ = fmt.Fprintf(w, "  %s\t(none)\n", category)
		return
	}
	for _, re := range patterns {
		_, _ = fmt.Fprintf(w, "  %s\t%s\n", category, re.String())
	}
}
