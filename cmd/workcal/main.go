package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"workcal/internal/backup"
	"workcal/internal/capture"
	"workcal/internal/config"
	"workcal/internal/export"
	"workcal/internal/holiday"
	"workcal/internal/ics"
	appLog "workcal/internal/log"
	"workcal/internal/state"
	"workcal/internal/transfer"
	"workcal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	envPath    string
	listen     string
	year       int
	out        string
}

// app bundles everything the subcommands share.
type app struct {
	cfg      *config.Config
	state    *state.App
	feeds    *ics.Subscriptions
	holidays holiday.Provider
	exporter *export.Exporter
}

const usage = `usage: workcal [flags] [command] [args]

commands:
  serve              run the HTTP API (default)
  export             write the JSON export (to -o or stdout)
  import FILE        import a JSON export
  report             render the PDF report for -year
  ics                write the ICS calendar for -year (to -o or stdout)
  backup             write one backup now

flags:
`

func main() {
	flags := parseFlags()

	conf, err := loadConfig(flags)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	a, err := newApp(conf)
	if err != nil {
		appLog.Error("failed to initialize", err)
		os.Exit(1)
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := "serve"
	args := flag.Args()
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	if err := a.run(ctx, cmd, args, flags); err != nil {
		appLog.Error("command failed", err, "command", cmd)
		os.Exit(1)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./workcal.yaml", "Path to config file")
	flag.StringVar(&cfg.envPath, "env", ".env", "Optional .env file with WORKCAL_* variables")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.IntVar(&cfg.year, "year", 0, "Year for report/ics commands (default: config default_year or current year)")
	flag.StringVar(&cfg.out, "o", "", "Output file for export/ics commands")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}

	flag.Parse()

	return cfg
}

func loadConfig(flags flagConfig) (*config.Config, error) {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(flags.envPath); err != nil {
		return nil, fmt.Errorf("load %s: %w", flags.envPath, err)
	}
	if err := config.ApplyEnv(conf); err != nil {
		return nil, err
	}
	// CLI --listen overrides config file and environment.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"data_path", conf.DataPath,
		"output_dir", conf.OutputDir,
		"log_level", conf.LogLevel,
		"default_year", conf.DefaultYear,
		"backup_enabled", conf.Backup.Enabled,
		"feed_count", len(conf.Feeds),
		"basic_auth", conf.BasicAuth != nil,
	)
	return conf, nil
}

func newApp(conf *config.Config) (*app, error) {
	storage, err := state.OpenFileStorage(conf.DataPath)
	if err != nil {
		return nil, err
	}
	st, err := state.Load(storage)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: conf, state: st, holidays: holiday.Slovak}

	if len(conf.Feeds) > 0 {
		feeds := make([]ics.Feed, 0, len(conf.Feeds))
		for _, f := range conf.Feeds {
			feeds = append(feeds, ics.Feed{ID: f.ID, URL: f.URL, Kind: f.Kind})
		}
		a.feeds = ics.NewSubscriptions(ics.NewFetcher(conf.CacheDir), feeds)
		a.holidays = a.feeds.Holidays(holiday.Slovak)
	}

	renderer := capture.NewChromium(capture.Options{
		Width:    conf.Render.Width,
		Timeout:  conf.Render.Timeout(),
		ExecPath: conf.Render.ChromePath,
	})
	a.exporter = export.New(st, renderer, conf.OutputDir, conf.ReportPrefix)
	return a, nil
}

func (a *app) year(flags flagConfig) int {
	if flags.year > 0 {
		return flags.year
	}
	return a.cfg.Year(time.Now())
}

func (a *app) run(ctx context.Context, cmd string, args []string, flags flagConfig) error {
	switch cmd {
	case "serve":
		return a.serve(ctx)

	case "export":
		snap := a.state.Snapshot()
		path := flags.out
		if path == "" {
			return transfer.Encode(os.Stdout, transfer.Export(snap))
		}
		return writeTo(path, func(f *os.File) error { return transfer.Encode(f, transfer.Export(snap)) })

	case "import":
		if len(args) != 1 {
			return errors.New("import: expected exactly one file")
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		res, err := transfer.Import(a.state, data)
		if err != nil {
			return err
		}
		for _, s := range res.Skipped {
			appLog.Warn("import field skipped", "field", s.Field, "reason", s.Reason)
		}
		appLog.Info("import finished", "applied", len(res.Applied), "events", res.Events, "dropped", res.DroppedEntries)
		return nil

	case "report":
		res, err := a.exporter.Run(ctx, a.year(flags))
		if err != nil {
			return err
		}
		fmt.Println(res.Path)
		return nil

	case "ics":
		if a.feeds != nil {
			if err := a.feeds.Refresh(ctx); err != nil {
				appLog.Warn("feed refresh failed; using cached feeds", "err", err)
			}
		}
		year := a.year(flags)
		snap := a.state.Snapshot()
		opts := ics.ExportOptions{}
		if snap.ShowHolidays {
			opts.Holidays = a.holidays.ForYear(year)
		}
		if flags.out == "" {
			return ics.Encode(os.Stdout, snap, year, opts)
		}
		return writeTo(flags.out, func(f *os.File) error { return ics.Encode(f, snap, year, opts) })

	case "backup":
		s, err := a.backupScheduler()
		if err != nil {
			return err
		}
		path, err := s.RunOnce()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	}

	flag.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *app) backupScheduler() (*backup.Scheduler, error) {
	return backup.New(a.state, backup.Options{
		Cron: a.cfg.Backup.Cron,
		Dir:  a.cfg.Backup.Dir,
		Keep: a.cfg.Backup.Keep,
	})
}

// serve runs the HTTP API plus the feed refresh and backup schedules until
// ctx is cancelled.
func (a *app) serve(ctx context.Context) error {
	if a.feeds != nil {
		if err := a.feeds.Refresh(ctx); err != nil {
			appLog.Warn("initial feed refresh failed", "err", err)
		}
		c := cron.New()
		if _, err := c.AddFunc(a.cfg.FeedsRefresh, func() {
			if err := a.feeds.Refresh(ctx); err != nil {
				appLog.Warn("scheduled feed refresh failed", "err", err)
			}
		}); err != nil {
			return fmt.Errorf("feeds_refresh %q: %w", a.cfg.FeedsRefresh, err)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		appLog.Info("feed refresh scheduled", "cron", a.cfg.FeedsRefresh, "feeds", a.feeds.Len())
	}

	if a.cfg.Backup.Enabled {
		s, err := a.backupScheduler()
		if err != nil {
			return err
		}
		if err := s.Start(); err != nil {
			return err
		}
		defer s.Stop()
	}

	srv := web.NewServer(ctx, a.cfg, web.Deps{
		App:      a.state,
		Exporter: a.exporter,
		Holidays: holiday.Slovak,
		Feeds:    a.feeds,
	})
	err := srv.ListenAndServe(ctx)

	// Let an in-flight export notice the cancelled context.
	for i := 0; i < 50 && a.exporter.Busy(); i++ {
		time.Sleep(100 * time.Millisecond)
	}
	appLog.Info("workcal exiting")
	return err
}

func writeTo(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
