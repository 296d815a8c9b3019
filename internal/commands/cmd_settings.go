package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/lanewatch/internal/notify"
	"github.com/hay-kot/lanewatch/internal/printer"
	"github.com/hay-kot/lanewatch/internal/store/jsonfile"
)

type SettingsCmd struct {
	flags *Flags
}

// NewSettingsCmd creates a new settings command
func NewSettingsCmd(flags *Flags) *SettingsCmd {
	return &SettingsCmd{flags: flags}
}

// Register adds the settings command to the application
func (cmd *SettingsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "settings",
		Usage:     "Show or change persisted notification settings",
		UsageText: "lanewatch settings [set [options]]",
		Description: `Without arguments, prints the current notification settings. The stored
record wins over config file defaults and survives restarts.`,
		Action: cmd.show,
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Update notification settings",
				UsageText: "lanewatch settings set [--on-done=bool] [--on-waiting=bool] [--on-error=bool] [--only-unfocused=bool]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "on-done", Usage: "notify when an agent finishes"},
					&cli.BoolFlag{Name: "on-waiting", Usage: "notify when an agent needs input"},
					&cli.BoolFlag{Name: "on-error", Usage: "notify when an agent errors"},
					&cli.BoolFlag{Name: "only-unfocused", Usage: "suppress notifications while the window is focused"},
				},
				Action: cmd.set,
			},
		},
	})

	return app
}

func (cmd *SettingsCmd) store() *notify.SettingsStore {
	cfg := cmd.flags.Config
	kv := jsonfile.NewKVStore(cfg.SettingsFile())
	return notify.NewSettingsStore(kv, notify.Settings{
		OnDone:        cfg.Notifications.OnDone,
		OnWaiting:     cfg.Notifications.OnWaiting,
		OnError:       cfg.Notifications.OnError,
		OnlyUnfocused: cfg.Notifications.OnlyUnfocused,
	})
}

func (cmd *SettingsCmd) show(ctx context.Context, c *cli.Command) error {
	settings, err := cmd.store().Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	w := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "on-done\t%t\n", settings.OnDone)
	_, _ = fmt.Fprintf(w, "on-waiting\t%t\n", settings.OnWaiting)
	_, _ = fmt.Fprintf(w, "on-error\t%t\n", settings.OnError)
	_, _ = fmt.Fprintf(w, "only-unfocused\t%t\n", settings.OnlyUnfocused)
	return w.Flush()
}

func (cmd *SettingsCmd) set(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	store := cmd.store()
	settings, err := store.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	changed := false
	for _, f := range []struct {
		name   string
		target *bool
	}{
		{"on-done", &settings.OnDone},
		{"on-waiting", &settings.OnWaiting},
		{"on-error", &settings.OnError},
		{"only-unfocused", &settings.OnlyUnfocused},
	} {
		if c.IsSet(f.name) {
			*f.target = c.Bool(f.name)
			changed = true
		}
	}

	if !changed {
		p.Warnf("no settings given; see 'lanewatch settings set --help'")
		return nil
	}

	if err := store.Save(settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	p.Infof("settings updated")
	return nil
}
