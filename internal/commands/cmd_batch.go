package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/chime/internal/chime"
	"github.com/colonyops/chime/internal/core/alarm"
	"github.com/colonyops/chime/pkg/iojson"
)

// batchEntry is one alarm in the batch schedule input.
type batchEntry struct {
	AlarmID    int64  `json:"alarm_id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	StopButton string `json:"stop_button"`
	At         string `json:"at"` // RFC3339, empty = immediate
}

type BatchCmd struct {
	flags *Flags
	app   *chime.App

	reader iojson.FileReader[[]batchEntry]
}

// NewBatchCmd creates a new batch command
func NewBatchCmd(flags *Flags, app *chime.App) *BatchCmd {
	return &BatchCmd{flags: flags, app: app}
}

// Register adds the batch command to the application
func (cmd *BatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "batch",
		Usage:     "Schedule several alarms from a JSON document",
		UsageText: "chime batch [-f FILE]",
		Description: `Reads a JSON array of alarms from a file or stdin and schedules the
notification fan-out for each one:

  [{"alarm_id": 7, "title": "Wake up", "body": "Time to get up",
    "stop_button": "Stop", "at": "2026-09-02T07:00:00Z"}]

An empty "at" schedules the alarm to fire immediately.`,
		Flags: []cli.Flag{
			cmd.reader.Flag(),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *BatchCmd) run(ctx context.Context, c *cli.Command) error {
	entries, err := cmd.reader.Read()
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.AlarmID == 0 {
			return fmt.Errorf("batch entry missing alarm_id")
		}

		var alarmTime *time.Time
		if entry.At != "" {
			t, err := time.Parse(time.RFC3339, entry.At)
			if err != nil {
				return fmt.Errorf("alarm %d: parse at: %w", entry.AlarmID, err)
			}
			alarmTime = &t
		}

		settings := alarm.Settings{
			Title:      entry.Title,
			Body:       entry.Body,
			StopButton: entry.StopButton,
		}

		if err := cmd.app.Notifier.Schedule(ctx, entry.AlarmID, settings, alarmTime); err != nil {
			return fmt.Errorf("schedule alarm %d: %w", entry.AlarmID, err)
		}
	}

	fmt.Fprintf(c.Root().Writer, "Scheduled %d alarm(s)\n", len(entries))
	return nil
}
