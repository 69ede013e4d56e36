package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/chime/internal/chime"
)

type WarnCmd struct {
	flags *Flags
	app   *chime.App

	// flags
	title string
	body  string
}

// NewWarnCmd creates a new warn command
func NewWarnCmd(flags *Flags, app *chime.App) *WarnCmd {
	return &WarnCmd{flags: flags, app: app}
}

// Register adds the warn command to the application
func (cmd *WarnCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "warn",
		Usage:     "Schedule the shutdown warning notification",
		UsageText: "chime warn [--title TITLE] [--body BODY]",
		Description: `Schedules the warning shown when the application is killed while an
alarm is still ringing. The warning fires a moment after scheduling and
replaces any previous instance of itself.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "title",
				Usage:       "warning title",
				Value:       "Alarm was interrupted",
				Destination: &cmd.title,
			},
			&cli.StringFlag{
				Name:        "body",
				Usage:       "warning body",
				Value:       "Reopen the app to keep your alarm working",
				Destination: &cmd.body,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *WarnCmd) run(ctx context.Context, c *cli.Command) error {
	if err := cmd.app.Notifier.SendWarning(ctx, cmd.title, cmd.body); err != nil {
		return fmt.Errorf("schedule warning: %w", err)
	}

	fmt.Fprintln(c.Root().Writer, "Scheduled shutdown warning")
	return nil
}
