package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	observerloop "github.com/jonoton/go-observerloop"
	"github.com/jonoton/go-observerloop/internal/config"
	"github.com/jonoton/go-observerloop/internal/logging"
)

const lifecycleTimeout = 10 * time.Second

type rootOptions struct {
	configFile string
	v          *viper.Viper
}

func (o *rootOptions) bind(fs *pflag.FlagSet) error {
	o.v = config.New()
	d := config.Default()

	fs.StringVar(&o.configFile, "config", "", "path to a config file (yaml, json or toml)")
	fs.Duration("interval", d.Interval, "pause before each produced value")
	fs.String("log-level", d.Log.Level, "log level: debug, info, warn, error")
	fs.String("log-file", d.Log.File, "write log lines to this file instead of stderr")
	fs.Bool("log-development", d.Log.Development, "use development logger settings")

	for key, flag := range flagKeys {
		if err := o.v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag --%s: %w", flag, err)
		}
	}
	return nil
}

// flagKeys maps config keys to the flags overriding them.
var flagKeys = map[string]string{
	"interval":        "interval",
	"log.level":       "log-level",
	"log.file":        "log-file",
	"log.development": "log-development",
}

// parseCount reads a positional count like C's atoi: leading whitespace and
// an optional sign are skipped, then leading digits are used. Input with no
// leading digits becomes 0.
func parseCount(arg string) int {
	s := strings.TrimLeft(arg, " \t\n\v\f\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func run(cmd *cobra.Command, opts *rootOptions, args []string) error {
	if len(args) > 0 {
		opts.v.Set("produced", parseCount(args[0]))
	}
	if len(args) > 1 {
		opts.v.Set("consumed", parseCount(args[1]))
	}

	cfg, err := config.Load(opts.v, opts.configFile)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	var session *observerloop.Session
	app := fx.New(
		fx.Supply(log),
		fx.Provide(func() prometheus.Registerer { return reg }),
		fx.Supply([]observerloop.Option{
			observerloop.WithInterval(cfg.Interval),
			observerloop.WithOutput(cmd.OutOrStdout()),
		}),
		observerloop.Module(),
		fx.Populate(&session),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
	)

	startCtx, cancel := context.WithTimeout(cmd.Context(), lifecycleTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	stats, runErr := runSession(session, cfg)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("stop: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	log.Debug("run complete",
		zap.Stringer("run", stats.RunID),
		zap.Int("produced", stats.Produced),
		zap.Int("consumed", stats.Consumed),
		zap.Int("drainCycles", stats.DrainCycles),
		zap.Duration("elapsed", stats.Finished.Sub(stats.Started)))
	logMetrics(log, reg)
	return nil
}

// logMetrics writes every gathered counter as a debug line.
func logMetrics(log *zap.Logger, g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		log.Warn("gather metrics", zap.Error(err))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fields := []zap.Field{
				zap.String("name", mf.GetName()),
				zap.Float64("value", m.GetCounter().GetValue()),
			}
			for _, lp := range m.GetLabel() {
				fields = append(fields, zap.String(lp.GetName(), lp.GetValue()))
			}
			log.Debug("metric", fields...)
		}
	}
}

func runSession(s *observerloop.Session, cfg config.Config) (observerloop.Stats, error) {
	if err := s.Populate(cfg.ProducedSubscribers, cfg.ConsumedSubscribers); err != nil {
		return observerloop.Stats{}, err
	}
	return s.Run()
}
