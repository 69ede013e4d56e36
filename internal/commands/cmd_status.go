package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/chime/internal/chime"
	"github.com/colonyops/chime/internal/core/notify"
	"github.com/colonyops/chime/pkg/iojson"
)

type StatusCmd struct {
	flags *Flags
	app   *chime.App
}

// NewStatusCmd creates a new status command
func NewStatusCmd(flags *Flags, app *chime.App) *StatusCmd {
	return &StatusCmd{flags: flags, app: app}
}

// Register adds the status command to the application
func (cmd *StatusCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "status",
		Usage:     "Show center authorization and store counts",
		UsageText: "chime status",
		Action:    cmd.run,
	})

	return app
}

// centerStatus is the JSON output format for chime status.
type centerStatus struct {
	Authorization string `json:"authorization"`
	Pending       int    `json:"pending"`
	PendingOwned  int    `json:"pending_owned"`
	Delivered     int    `json:"delivered"`
	Categories    int    `json:"categories"`
}

func (cmd *StatusCmd) run(ctx context.Context, c *cli.Command) error {
	status, err := cmd.app.Store.AuthorizationStatus(ctx)
	if err != nil {
		return fmt.Errorf("read authorization status: %w", err)
	}

	pending, err := cmd.app.Store.Pending(ctx)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}

	delivered, err := cmd.app.Store.Delivered(ctx)
	if err != nil {
		return fmt.Errorf("list delivered: %w", err)
	}

	categories, err := cmd.app.Store.Categories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}

	owned := 0
	for _, req := range pending {
		if notify.Owned(req.Content.UserInfo) {
			owned++
		}
	}

	return iojson.Write(c.Root().Writer, centerStatus{
		Authorization: status.String(),
		Pending:       len(pending),
		PendingOwned:  owned,
		Delivered:     len(delivered),
		Categories:    len(categories),
	})
}
