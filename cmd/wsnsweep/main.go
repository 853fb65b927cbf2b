package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"wsn-simulator/internal/config"
	"wsn-simulator/internal/experiment"
	"wsn-simulator/internal/logging"
	"wsn-simulator/internal/store"
)

func main() {
	var (
		configFile = flag.String("config", "", "YAML base configuration")
		name       = flag.String("name", "sweep", "experiment name prefix")
		trials     = flag.Int("trials", 10, "trials per point")
		offsets    = flag.String("offsets", "10,25,50,100", "comma-separated server distances to sweep")
		counts     = flag.String("counts", "", "comma-separated node counts to sweep")
		out        = flag.String("out", "", "write CSV results to this file")
		logLevel   = flag.String("log-level", "info", "debug, info, warn or error")
		dsn        = flag.String("dsn", "", "PostgreSQL URL to record runs in")
	)
	flag.Parse()

	log := logging.New(*logLevel, os.Stderr)

	base, err := config.Load(*configFile)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if err := base.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	offsetList, err := parseInts(*offsets)
	if err != nil {
		log.WithError(err).Fatal("bad -offsets")
	}
	countList, err := parseInts(*counts)
	if err != nil {
		log.WithError(err).Fatal("bad -counts")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rs, err := store.Open(ctx, *dsn)
	if err != nil {
		log.WithError(err).Fatal("failed to open result store")
	}
	defer rs.Close()

	runner := experiment.NewRunner(rs)
	runner.Log = log

	exp := experiment.ExperimentConfig{Name: *name, NumTrials: *trials, Base: base}

	if len(offsetList) > 0 {
		if _, err := runner.RunOffsetSweep(ctx, *name, exp, offsetList); err != nil {
			log.WithError(err).Error("offset sweep failed")
		}
	}
	if len(countList) > 0 {
		if _, err := runner.RunNodeCountSweep(ctx, *name, exp, countList); err != nil {
			log.WithError(err).Error("node count sweep failed")
		}
	}

	runner.PrintSummary(os.Stdout)

	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.WithError(err).Fatal("failed to create CSV")
		}
		defer f.Close()
		if err := runner.WriteCSV(f); err != nil {
			log.WithError(err).Fatal("failed to write CSV")
		}
		fmt.Printf("wrote %s\n", *out)
	}
}

func parseInts(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
