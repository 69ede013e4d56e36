package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/chime/internal/chime"
	"github.com/colonyops/chime/internal/commands"
	"github.com/colonyops/chime/internal/core/alarm"
	"github.com/colonyops/chime/internal/core/config"
	"github.com/colonyops/chime/internal/core/eventbus"
	"github.com/colonyops/chime/internal/core/logging"
	"github.com/colonyops/chime/internal/data/db"
	"github.com/colonyops/chime/internal/data/stores"
	"github.com/colonyops/chime/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		chimeApp  = &chime.App{}
		database  *db.DB
		busCancel context.CancelFunc
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "chime",
		Usage:     "Schedule and deliver alarm notifications",
		UsageText: "chime [global options] command [command options]",
		Description: `Chime manages the notification side of alarms: for every alarm it
schedules a silent primary notification and a train of audible backups,
cancels the train when the alarm is stopped, and suppresses redundant
notifications while an alarm is already ringing.

Run 'chime schedule' to arm an alarm and 'chime serve' to run the
delivery loop.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("CHIME_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/chime.log)",
				Sources:     cli.EnvVars("CHIME_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("CHIME_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("CHIME_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; use explicit path or default to <datadir>/chime.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "chime.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			// Open database connection
			if err := os.MkdirAll(cfg.DatabaseDir(), 0o755); err != nil {
				return ctx, fmt.Errorf("create data dir: %w", err)
			}
			dbOpts := db.OpenOptions{
				MaxOpenConns: cfg.Database.MaxOpenConns,
				MaxIdleConns: cfg.Database.MaxIdleConns,
				BusyTimeout:  cfg.Database.BusyTimeoutMS,
			}
			database, err = db.Open(cfg.DatabaseDir(), dbOpts)
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}

			store := stores.NewCenterStore(database)

			// Start the event bus; subscribers attach before any publish.
			bus := eventbus.New(eventbus.DefaultBufferSize)
			eventbus.RegisterDebugLogger(bus, logging.Component(log.Logger, "eventbus"))
			busCtx, cancel := context.WithCancel(context.Background())
			busCancel = cancel
			go bus.Start(busCtx)

			policy := chime.Policy{
				BackupSound: cfg.Notifications.BackupSound,
				Foreign:     cfg.ForeignOptions(),
			}

			categories := chime.NewCategoryRegistry(store, logging.Component(log.Logger, "categories"))
			notifier := chime.NewNotifier(store, categories, policy, bus, logging.Component(log.Logger, "notifier"))
			registry := alarm.NewRegistry()
			delegate := chime.NewDelegate(notifier, registry, policy, bus, logging.Component(log.Logger, "delegate"))

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*chimeApp = *chime.NewApp(notifier, delegate, registry, store, bus, cfg, database)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			// Stop the event bus
			if busCancel != nil {
				busCancel()
			}

			// Close database connection
			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewServeCmd(flags, chimeApp).Register(app)
	app = commands.NewScheduleCmd(flags, chimeApp).Register(app)
	app = commands.NewBatchCmd(flags, chimeApp).Register(app)
	app = commands.NewCancelCmd(flags, chimeApp).Register(app)
	app = commands.NewLsCmd(flags, chimeApp).Register(app)
	app = commands.NewStatusCmd(flags, chimeApp).Register(app)
	app = commands.NewSweepCmd(flags, chimeApp).Register(app)
	app = commands.NewWarnCmd(flags, chimeApp).Register(app)
	app = commands.NewAuthorizeCmd(flags, chimeApp).Register(app)

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Println()
		fmt.Println(err.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
