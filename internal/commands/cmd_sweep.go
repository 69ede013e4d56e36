package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/chime/internal/chime"
)

type SweepCmd struct {
	flags *Flags
	app   *chime.App
}

// NewSweepCmd creates a new sweep command
func NewSweepCmd(flags *Flags, app *chime.App) *SweepCmd {
	return &SweepCmd{flags: flags, app: app}
}

// Register adds the sweep command to the application
func (cmd *SweepCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "sweep",
		Usage:     "Remove every owned notification",
		UsageText: "chime sweep",
		Description: `Clears all alarm notifications from both the pending and delivered
stores. Notifications scheduled by other tools are left untouched.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *SweepCmd) run(ctx context.Context, c *cli.Command) error {
	if err := cmd.app.Notifier.RemoveAll(ctx); err != nil {
		return fmt.Errorf("sweep notifications: %w", err)
	}

	fmt.Fprintln(c.Root().Writer, "Removed all alarm notifications")
	return nil
}
