package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/chime/internal/chime"
	"github.com/colonyops/chime/internal/core/notify"
	"github.com/colonyops/chime/pkg/iojson"
)

type LsCmd struct {
	flags *Flags
	app   *chime.App

	// flags
	delivered  bool
	match      string
	jsonOutput bool
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags, app *chime.App) *LsCmd {
	return &LsCmd{flags: flags, app: app}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Usage:     "List scheduled notifications",
		UsageText: "chime ls [--delivered] [--match GLOB] [--json]",
		Description: `Displays a table of pending notification requests with their alarm,
kind, and fire time. Use --delivered to list the delivered store
instead, and --match to filter identifiers with a glob pattern.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "delivered",
				Usage:       "list delivered notifications instead of pending requests",
				Destination: &cmd.delivered,
			},
			&cli.StringFlag{
				Name:        "match",
				Usage:       "glob pattern to filter identifiers (e.g. 'ALARM_NOTIFICATION_7*')",
				Destination: &cmd.match,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

// requestInfo is the JSON output format for chime ls --json.
type requestInfo struct {
	Identifier  string `json:"identifier"`
	AlarmID     int64  `json:"alarm_id,omitempty"`
	Kind        string `json:"kind"`
	FiresAt     string `json:"fires_at,omitempty"`
	DeliveredAt string `json:"delivered_at,omitempty"`
	Title       string `json:"title"`
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.match != "" {
		if !doublestar.ValidatePattern(cmd.match) {
			return fmt.Errorf("invalid glob pattern %q", cmd.match)
		}
	}

	var infos []requestInfo
	if cmd.delivered {
		notifications, err := cmd.app.Store.Delivered(ctx)
		if err != nil {
			return fmt.Errorf("list delivered: %w", err)
		}
		for _, n := range notifications {
			info := buildRequestInfo(n.Request)
			info.DeliveredAt = n.DeliveredAt.Format(time.RFC3339)
			infos = append(infos, info)
		}
	} else {
		requests, err := cmd.app.Store.Pending(ctx)
		if err != nil {
			return fmt.Errorf("list pending: %w", err)
		}
		for _, req := range requests {
			infos = append(infos, buildRequestInfo(req))
		}
	}

	if cmd.match != "" {
		filtered := infos[:0]
		for _, info := range infos {
			if ok, _ := doublestar.Match(cmd.match, info.Identifier); ok {
				filtered = append(filtered, info)
			}
		}
		infos = filtered
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, info := range infos {
			if err := iojson.WriteLine(out, info); err != nil {
				return fmt.Errorf("encode request: %w", err)
			}
		}
		return nil
	}

	if len(infos) == 0 {
		fmt.Fprintf(os.Stderr, "No notifications found\n")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if cmd.delivered {
		_, _ = fmt.Fprintln(w, "IDENTIFIER\tALARM\tKIND\tDELIVERED\tTITLE")
		for _, info := range infos {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				info.Identifier, alarmColumn(info.AlarmID), info.Kind, info.DeliveredAt, info.Title)
		}
	} else {
		_, _ = fmt.Fprintln(w, "IDENTIFIER\tALARM\tKIND\tFIRES\tTITLE")
		for _, info := range infos {
			fires := info.FiresAt
			if fires == "" {
				fires = "immediate"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				info.Identifier, alarmColumn(info.AlarmID), info.Kind, fires, info.Title)
		}
	}

	return w.Flush()
}

func buildRequestInfo(req notify.Request) requestInfo {
	info := requestInfo{
		Identifier: req.Identifier,
		Kind:       "foreign",
		Title:      req.Content.Title,
	}

	if id, ok := notify.AlarmID(req.Content.UserInfo); ok {
		info.AlarmID = id
		if notify.IsBackup(req.Content.UserInfo) {
			info.Kind = "backup"
		} else {
			info.Kind = "primary"
		}
	}

	if req.Trigger != nil {
		info.FiresAt = req.Trigger.FireTime(time.Now()).Format(time.RFC3339)
	}

	return info
}

func alarmColumn(id int64) string {
	if id == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", id)
}
