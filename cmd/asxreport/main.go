package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/shanehull/asxreport/internal/config"
	"github.com/shanehull/asxreport/internal/logger"
)

type options struct {
	configPath string
	outDir     string
	force      bool
	noEmail    bool
	schedule   string
	logLevel   string
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.StringVar(&o.configPath, "config", "", "Path to a YAML config file")
	fs.StringVar(&o.outDir, "out", "", "Directory to write the CSV report to (overrides output.dir)")
	fs.BoolVar(&o.force, "force", false, "Email the report even if it was already delivered for this date")
	fs.BoolVar(&o.noEmail, "no-email", false, "Write the CSV report without emailing it")
	fs.StringVar(&o.schedule, "schedule", "", "Cron expression in the exchange time zone, e.g. '30 7 * * MON-FRI' (runs once if empty)")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides log.level)")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage of %s:\n", fs.Name())
		for _, name := range []string{"config", "out", "force", "no-email", "schedule", "log-level"} {
			if f := fs.Lookup(name); f != nil {
				fmt.Fprintf(fs.Output(), "  -%s\n", f.Name)
				fmt.Fprintf(fs.Output(), "    %s\n", f.Usage)
			}
		}
	}

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return o, nil
}

// apply lets flags take precedence over file and environment settings.
func (o options) apply(cfg *config.Config) {
	if o.outDir != "" {
		cfg.Output.Dir = o.outDir
	}
	if o.schedule != "" {
		cfg.Schedule = o.schedule
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
}

// loadConfig loads the file and environment settings, applies flags on top
// and validates the result.
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		return 2
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Printf("Fatal error loading config: %v\n", err)
		return 1
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Printf("Fatal error setting up logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, opts, log)
	if err != nil {
		log.Error("failed to initialise", zap.Error(err))
		return 1
	}

	if cfg.Schedule == "" {
		if err := a.runOnce(ctx); err != nil {
			log.Error("report run failed", zap.Error(err))
			return 1
		}
		return 0
	}

	if err := a.schedule(ctx, cfg.Schedule); err != nil {
		log.Error("scheduler failed", zap.Error(err))
		return 1
	}
	return 0
}
