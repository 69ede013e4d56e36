package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/chime/internal/chime"
)

type CancelCmd struct {
	flags *Flags
	app   *chime.App
}

// NewCancelCmd creates a new cancel command
func NewCancelCmd(flags *Flags, app *chime.App) *CancelCmd {
	return &CancelCmd{flags: flags, app: app}
}

// Register adds the cancel and dismiss commands to the application
func (cmd *CancelCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "cancel",
			Usage:     "Remove an alarm's pending notifications",
			UsageText: "chime cancel <alarm-id>",
			Description: `Removes the primary notification and every backup still waiting to
fire for the given alarm. Already delivered notifications are left
alone; use dismiss for those.`,
			Action: cmd.runCancel,
		},
		&cli.Command{
			Name:      "dismiss",
			Usage:     "Remove an alarm's delivered notifications",
			UsageText: "chime dismiss <alarm-id>",
			Description: `Clears the given alarm's notifications from the delivered store, as
when the user stops a ringing alarm.`,
			Action: cmd.runDismiss,
		},
	)

	return app
}

func (cmd *CancelCmd) runCancel(ctx context.Context, c *cli.Command) error {
	alarmID, err := parseAlarmID(c)
	if err != nil {
		return err
	}

	if err := cmd.app.Notifier.Cancel(ctx, alarmID); err != nil {
		return fmt.Errorf("cancel alarm %d: %w", alarmID, err)
	}

	fmt.Fprintf(c.Root().Writer, "Cancelled pending notifications for alarm %d\n", alarmID)
	return nil
}

func (cmd *CancelCmd) runDismiss(ctx context.Context, c *cli.Command) error {
	alarmID, err := parseAlarmID(c)
	if err != nil {
		return err
	}

	if err := cmd.app.Notifier.Dismiss(ctx, alarmID); err != nil {
		return fmt.Errorf("dismiss alarm %d: %w", alarmID, err)
	}

	fmt.Fprintf(c.Root().Writer, "Dismissed delivered notifications for alarm %d\n", alarmID)
	return nil
}
