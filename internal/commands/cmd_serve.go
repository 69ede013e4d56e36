package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/chime/internal/chime"
	"github.com/colonyops/chime/internal/chime/dispatch"
	"github.com/colonyops/chime/internal/core/logging"
)

type ServeCmd struct {
	flags *Flags
	app   *chime.App
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags, app *chime.App) *ServeCmd {
	return &ServeCmd{flags: flags, app: app}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run the notification delivery loop",
		UsageText: "chime serve",
		Description: `Polls the pending store and fires due notifications until interrupted.
Delivered notifications run through the presentation delegate, so
ringing alarms suppress their redundant backups.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d := dispatch.New(
		cmd.app.Store,
		cmd.app.Delegate,
		cmd.app.Bus,
		logging.Component(log.Logger, "dispatcher"),
	)

	interval := cmd.app.Config.Dispatcher.PollInterval
	fmt.Fprintf(c.Root().Writer, "Dispatching notifications every %s (ctrl-c to stop)\n", interval)
	log.Info().Dur("poll_interval", interval).Msg("dispatcher started")

	d.Run(ctx, interval)

	log.Info().Msg("dispatcher stopped")
	return nil
}
