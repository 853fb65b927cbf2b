package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"wsn-simulator/internal/config"
	"wsn-simulator/internal/field"
	"wsn-simulator/internal/logging"
	"wsn-simulator/internal/metrics"
	"wsn-simulator/internal/store"
)

func main() {
	var (
		configFile  = flag.String("config", "", "YAML run configuration")
		x           = flag.Int("x", 0, "field width")
		y           = flag.Int("y", 0, "field height")
		l           = flag.Int("l", 0, "distance from the server to the field")
		n           = flag.Int("n", 0, "nodes count")
		c           = flag.Int("c", 1, "use compression (0 or 1)")
		seed        = flag.Uint64("seed", 0, "placement seed (0 = fresh)")
		until       = flag.Float64("until", 0, "stop after this simulated time even if no node failed (0 = never)")
		logLevel    = flag.String("log-level", "", "debug, info, warn or error")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
		dsn         = flag.String("dsn", "", "PostgreSQL URL to record the run in")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "x":
			cfg.Field.Width = *x
		case "y":
			cfg.Field.Height = *y
		case "l":
			cfg.Field.Offset = *l
		case "n":
			cfg.Field.NodeCount = *n
		case "c":
			cfg.Field.UseCompression = *c > 0
		case "seed":
			cfg.Seed = *seed
		case "until":
			cfg.Until = *until
		case "log-level":
			cfg.Log.Level = *logLevel
		case "metrics-addr":
			cfg.Metrics.Addr = *metricsAddr
		case "dsn":
			cfg.Store.DSN = *dsn
		}
	})

	log := logging.New(cfg.Log.Level, os.Stdout)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []field.Option{field.WithLogger(log)}
	if cfg.Metrics.Addr != "" {
		reg := metrics.NewRegistry()
		opts = append(opts, field.WithMetrics(reg))
		go func() {
			if err := reg.Serve(cfg.Metrics.Addr); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	box, err := field.New(cfg, opts...)
	if err != nil {
		log.WithError(err).Fatal("failed to build field")
	}

	if _, err := box.SendPackets(); err != nil {
		log.WithError(err).Fatal("failed to start")
	}

	report, err := box.Run(ctx)
	if err != nil {
		log.WithError(err).Error("run interrupted")
	}
	if report == nil {
		os.Exit(1)
	}

	fmt.Println(report.Summary())

	if cfg.Store.DSN != "" {
		rs, err := store.Open(ctx, cfg.Store.DSN)
		if err != nil {
			log.WithError(err).Fatal("failed to open result store")
		}
		defer rs.Close()
		if err := rs.Save(ctx, store.FromReport("single", report)); err != nil {
			log.WithError(err).Error("failed to record run")
		} else {
			log.WithField("run", report.RunID.String()).Info("run recorded")
		}
	}

	log.WithFields(logrus.Fields{
		"sim_time": report.SimTime,
		"wall":     report.WallTime.String(),
	}).Debug("done")
}
