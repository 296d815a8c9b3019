package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/lanewatch/internal/core/history"
	"github.com/hay-kot/lanewatch/internal/detect"
	"github.com/hay-kot/lanewatch/internal/notify"
	"github.com/hay-kot/lanewatch/internal/printer"
	"github.com/hay-kot/lanewatch/internal/store/jsonfile"
	"github.com/hay-kot/lanewatch/pkg/randid"
)

type WatchCmd struct {
	flags *Flags
}

// NewWatchCmd creates a new watch command
func NewWatchCmd(flags *Flags) *WatchCmd {
	return &WatchCmd{flags: flags}
}

// Register adds the watch command to the application
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Classify agent status from PTY output on stdin",
		UsageText: "lanewatch watch [--lane id] [--agent type] < pty-output",
		Description: `Reads raw terminal output from stdin, runs it through the status
detection engine, and prints every status transition. Pipe the output of a
PTY capture (script, tmux pipe-pane, etc.) into it.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "lane",
				Usage: "lane id for the session (generated if empty)",
			},
			&cli.StringFlag{
				Name:  "agent",
				Usage: "agent type (claude, codex, gemini, shell)",
				Value: detect.AgentClaude,
			},
			&cli.BoolFlag{
				Name:  "notify",
				Usage: "emit terminal notifications on status changes",
			},
			&cli.BoolFlag{
				Name:  "osc9",
				Usage: "use the OSC 9 notification format instead of OSC 777",
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("watch expects PTY output on stdin; pipe a capture into it")
	}

	laneID := c.String("lane")
	if laneID == "" {
		laneID = "lane-" + randid.Generate(6)
	}
	agentType := c.String("agent")

	logger := log.With().Str("component", "registry").Logger()
	registry := detect.NewRegistry(logger, clock.New(), cmd.flags.Config.Tunings())

	histStore := jsonfile.NewHistoryStore(cmd.flags.Config.HistoryFile(), cmd.flags.Config.HistoryEntries)

	unsub := registry.Subscribe(func(ch detect.Change) {
		p.StatusChange(ch)

		entry := history.Entry{
			ID:        randid.Generate(8),
			LaneID:    ch.LaneID,
			AgentType: ch.AgentType,
			Previous:  ch.Previous,
			New:       ch.New,
			Timestamp: ch.At,
		}
		if err := histStore.Save(ctx, entry); err != nil {
			log.Debug().Err(err).Msg("failed to record transition")
		}
	})
	defer unsub()

	if c.Bool("notify") {
		dispatcher, err := cmd.newDispatcher(c.Bool("osc9"))
		if err != nil {
			return err
		}
		defer registry.Subscribe(dispatcher.HandleChange)()
	}

	registry.RegisterLane(laneID, agentType)
	defer registry.UnregisterLane(laneID)

	p.Infof("watching lane %s (agent: %s)", laneID, agentType)

	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := os.Stdin.Read(buf)
		if n > 0 {
			registry.FeedOutput(laneID, buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read stdin: %w", err)
		}
	}

	registry.MarkExited(laneID)

	status, _ := registry.Status(laneID)
	p.StatusLine(laneID, status)
	return nil
}

// newDispatcher wires the notification pipeline for the watch session.
func (cmd *WatchCmd) newDispatcher(osc9 bool) (*notify.Dispatcher, error) {
	cfg := cmd.flags.Config

	kv := jsonfile.NewKVStore(cfg.SettingsFile())
	store := notify.NewSettingsStore(kv, notify.Settings{
		OnDone:        cfg.Notifications.OnDone,
		OnWaiting:     cfg.Notifications.OnWaiting,
		OnError:       cfg.Notifications.OnError,
		OnlyUnfocused: cfg.Notifications.OnlyUnfocused,
	})

	notifier := notify.NewTerminalNotifier(os.Stderr, osc9)
	logger := log.With().Str("component", "notify").Logger()

	// A plain CLI pipe has no window focus to consult, so none is wired.
	dispatcher, err := notify.NewDispatcher(logger, store, notifier, nil, cfg.Notifications.Lanes)
	if err != nil {
		return nil, fmt.Errorf("init notifications: %w", err)
	}
	return dispatcher, nil
}
