package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/chime/internal/chime"
	"github.com/colonyops/chime/internal/core/notify"
)

type AuthorizeCmd struct {
	flags *Flags
	app   *chime.App
}

// NewAuthorizeCmd creates a new authorize command
func NewAuthorizeCmd(flags *Flags, app *chime.App) *AuthorizeCmd {
	return &AuthorizeCmd{flags: flags, app: app}
}

// Register adds the authorize command to the application
func (cmd *AuthorizeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "authorize",
		Usage:     "Set the notification authorization status",
		UsageText: "chime authorize <authorized|denied|not-determined>",
		Description: `Records the permission the user granted for notifications. While the
status is anything other than authorized, schedule requests are ignored.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *AuthorizeCmd) run(ctx context.Context, c *cli.Command) error {
	arg := c.Args().First()
	if arg == "" {
		status, err := cmd.app.Store.AuthorizationStatus(ctx)
		if err != nil {
			return fmt.Errorf("read authorization status: %w", err)
		}
		fmt.Fprintf(c.Root().Writer, "Authorization status: %s\n", status)
		return nil
	}

	status := notify.ParseAuthorizationStatus(arg)
	if status.String() != arg {
		return fmt.Errorf("unknown authorization status %q", arg)
	}

	if err := cmd.app.Store.SetAuthorizationStatus(ctx, status); err != nil {
		return fmt.Errorf("set authorization status: %w", err)
	}

	fmt.Fprintf(c.Root().Writer, "Authorization status set to %s\n", status)
	return nil
}
