package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/chime/internal/chime"
	"github.com/colonyops/chime/internal/core/alarm"
)

type ScheduleCmd struct {
	flags *Flags
	app   *chime.App

	// flags
	at         string
	in         time.Duration
	title      string
	body       string
	stopButton string
}

// NewScheduleCmd creates a new schedule command
func NewScheduleCmd(flags *Flags, app *chime.App) *ScheduleCmd {
	return &ScheduleCmd{flags: flags, app: app}
}

// Register adds the schedule command to the application
func (cmd *ScheduleCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "schedule",
		Usage:     "Schedule the notification fan-out for an alarm",
		UsageText: "chime schedule <alarm-id> [--at TIME | --in DURATION]",
		Description: `Schedules a silent primary notification plus audible backups for the
given alarm. Any previously scheduled notifications for the same alarm
are replaced. Without --at or --in the primary fires immediately.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "at",
				Usage:       "fire time in RFC3339 format",
				Destination: &cmd.at,
			},
			&cli.DurationFlag{
				Name:        "in",
				Usage:       "fire after the given duration",
				Destination: &cmd.in,
			},
			&cli.StringFlag{
				Name:        "title",
				Usage:       "notification title",
				Value:       "Alarm",
				Destination: &cmd.title,
			},
			&cli.StringFlag{
				Name:        "body",
				Usage:       "notification body",
				Value:       "Time to wake up",
				Destination: &cmd.body,
			},
			&cli.StringFlag{
				Name:        "stop-button",
				Usage:       "caption for the stop action button (empty for none)",
				Destination: &cmd.stopButton,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ScheduleCmd) run(ctx context.Context, c *cli.Command) error {
	alarmID, err := parseAlarmID(c)
	if err != nil {
		return err
	}

	if cmd.at != "" && cmd.in != 0 {
		return fmt.Errorf("--at and --in are mutually exclusive")
	}

	var alarmTime *time.Time
	switch {
	case cmd.at != "":
		t, err := time.Parse(time.RFC3339, cmd.at)
		if err != nil {
			return fmt.Errorf("parse --at: %w", err)
		}
		alarmTime = &t
	case cmd.in != 0:
		t := time.Now().Add(cmd.in)
		alarmTime = &t
	}

	settings := alarm.Settings{
		Title:      cmd.title,
		Body:       cmd.body,
		StopButton: cmd.stopButton,
	}

	if err := cmd.app.Notifier.Schedule(ctx, alarmID, settings, alarmTime); err != nil {
		return fmt.Errorf("schedule alarm %d: %w", alarmID, err)
	}

	when := "now"
	if alarmTime != nil {
		when = alarmTime.Format(time.RFC3339)
	}
	fmt.Fprintf(c.Root().Writer, "Scheduled alarm %d to fire at %s\n", alarmID, when)

	return nil
}

// parseAlarmID reads the required alarm-id positional argument.
func parseAlarmID(c *cli.Command) (int64, error) {
	arg := c.Args().First()
	if arg == "" {
		return 0, fmt.Errorf("missing required argument <alarm-id>")
	}

	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid alarm id %q: %w", arg, err)
	}

	return id, nil
}
