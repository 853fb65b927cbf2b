package experiment

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"wsn-simulator/internal/config"
	"wsn-simulator/internal/field"
	"wsn-simulator/internal/logging"
	"wsn-simulator/internal/store"
)

// =============================================================================
// EXPERIMENT CONFIG
// =============================================================================

type ExperimentConfig struct {
	Name      string
	NumTrials int
	Base      config.Config
}

func DefaultExperimentConfig() ExperimentConfig {
	base := config.Default()
	base.Field.NodeCount = 10
	return ExperimentConfig{
		Name:      "default",
		NumTrials: 10,
		Base:      base,
	}
}

// =============================================================================
// TRIAL RESULT
// =============================================================================

type TrialResult struct {
	TrialNum   int
	RunID      string
	Terminated bool
	FailedNode int
	FailedSent int
	FailedDist float64
	TotalSent  int
	Lifetime   float64
	Duration   time.Duration
}

// =============================================================================
// EXPERIMENT RESULT
// =============================================================================

type ExperimentResult struct {
	Config ExperimentConfig
	Trials []TrialResult

	MeanLifetime   float64
	MinLifetime    float64
	MaxLifetime    float64
	MeanTotalSent  float64
	MeanFailedDist float64
	Unterminated   int
}

func (er ExperimentResult) String() string {
	lo, hi := ConfidenceInterval(er.lifetimes())
	return fmt.Sprintf(`
================================================================================
                        EXPERIMENT RESULT: %s
================================================================================
Configuration:
  Trials:           %d
  Nodes:            %d
  Field:            %dx%d, offset %d
  Compression:      %v

Results:
  Mean lifetime:        %.3fs (95%% CI %.3f..%.3f)
  Lifetime range:       %.3f..%.3fs
  Mean packets:         %.1f
  Mean failed distance: %.2f
  Runs without failure: %d
================================================================================
`, er.Config.Name, er.Config.NumTrials, er.Config.Base.Field.NodeCount,
		er.Config.Base.Field.Width, er.Config.Base.Field.Height, er.Config.Base.Field.Offset,
		er.Config.Base.Field.UseCompression,
		er.MeanLifetime, lo, hi, er.MinLifetime, er.MaxLifetime,
		er.MeanTotalSent, er.MeanFailedDist, er.Unterminated)
}

func (er ExperimentResult) lifetimes() []float64 {
	out := make([]float64, len(er.Trials))
	for i, t := range er.Trials {
		out[i] = t.Lifetime
	}
	return out
}

// =============================================================================
// RUNNER
// =============================================================================

type Runner struct {
	Results []ExperimentResult
	Store   store.ResultStore
	Log     logrus.FieldLogger
	// RunLog is handed to each trial's field; trials are quiet by default.
	RunLog logrus.FieldLogger
}

func NewRunner(rs store.ResultStore) *Runner {
	if rs == nil {
		rs = store.NewMemoryStore()
	}
	return &Runner{
		Results: make([]ExperimentResult, 0),
		Store:   rs,
		Log:     logrus.StandardLogger(),
		RunLog:  logging.Discard(),
	}
}

func (r *Runner) RunExperiment(ctx context.Context, cfg ExperimentConfig) (ExperimentResult, error) {
	r.Log.WithFields(logrus.Fields{
		"experiment": cfg.Name,
		"trials":     cfg.NumTrials,
	}).Info("running experiment")

	trials := make([]TrialResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		result, err := r.runSingleTrial(ctx, cfg, trial)
		if err != nil {
			return ExperimentResult{}, fmt.Errorf("experiment %s trial %d: %w", cfg.Name, trial, err)
		}
		trials = append(trials, result)
	}

	aggregated := r.aggregateResults(cfg, trials)
	r.Results = append(r.Results, aggregated)
	return aggregated, nil
}

func (r *Runner) runSingleTrial(ctx context.Context, cfg ExperimentConfig, trialNum int) (TrialResult, error) {
	runCfg := cfg.Base
	if runCfg.Seed != 0 {
		runCfg.Seed += uint64(trialNum)
	}

	startTime := time.Now()
	b, err := field.New(runCfg, field.WithLogger(r.RunLog))
	if err != nil {
		return TrialResult{}, err
	}
	report, err := b.Run(ctx)
	if err != nil {
		return TrialResult{}, err
	}

	if err := r.Store.Save(ctx, store.FromReport(cfg.Name, report)); err != nil {
		return TrialResult{}, err
	}

	result := TrialResult{
		TrialNum:   trialNum,
		RunID:      report.RunID.String(),
		Terminated: report.Terminated,
		TotalSent:  report.TotalSent(),
		Lifetime:   report.SimTime,
		Duration:   time.Since(startTime),
	}
	if report.Terminated {
		result.FailedNode = report.Termination.NodeID
		result.FailedSent = report.Termination.Sent
		for _, n := range report.Nodes {
			if n.NodeID == result.FailedNode {
				result.FailedDist = n.Distance
			}
		}
	}
	return result, nil
}

func (r *Runner) aggregateResults(cfg ExperimentConfig, trials []TrialResult) ExperimentResult {
	result := ExperimentResult{
		Config:      cfg,
		Trials:      trials,
		MinLifetime: math.Inf(1),
		MaxLifetime: math.Inf(-1),
	}
	if len(trials) == 0 {
		result.MinLifetime, result.MaxLifetime = 0, 0
		return result
	}

	totalLifetime := 0.0
	totalSent := 0
	totalDist := 0.0
	failures := 0

	for _, trial := range trials {
		totalLifetime += trial.Lifetime
		totalSent += trial.TotalSent
		result.MinLifetime = math.Min(result.MinLifetime, trial.Lifetime)
		result.MaxLifetime = math.Max(result.MaxLifetime, trial.Lifetime)
		if trial.Terminated {
			totalDist += trial.FailedDist
			failures++
		} else {
			result.Unterminated++
		}
	}

	n := float64(len(trials))
	result.MeanLifetime = totalLifetime / n
	result.MeanTotalSent = float64(totalSent) / n
	if failures > 0 {
		result.MeanFailedDist = totalDist / float64(failures)
	}
	return result
}

// =============================================================================
// SWEEP FUNCTIONS
// =============================================================================

func (r *Runner) RunOffsetSweep(ctx context.Context, name string, base ExperimentConfig, offsets []int) ([]ExperimentResult, error) {
	results := make([]ExperimentResult, 0, len(offsets))

	for _, offset := range offsets {
		cfg := base
		cfg.Name = fmt.Sprintf("%s_l%d", name, offset)
		cfg.Base.Field.Offset = offset

		result, err := r.RunExperiment(ctx, cfg)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}

func (r *Runner) RunNodeCountSweep(ctx context.Context, name string, base ExperimentConfig, counts []int) ([]ExperimentResult, error) {
	results := make([]ExperimentResult, 0, len(counts))

	for _, count := range counts {
		cfg := base
		cfg.Name = fmt.Sprintf("%s_n%d", name, count)
		cfg.Base.Field.NodeCount = count

		result, err := r.RunExperiment(ctx, cfg)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}

// =============================================================================
// SUMMARY
// =============================================================================

func (r *Runner) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "\n================================================================================")
	fmt.Fprintln(w, "                        EXPERIMENT SUMMARY")
	fmt.Fprintln(w, "================================================================================")

	sorted := slices.Clone(r.Results)
	slices.SortStableFunc(sorted, func(a, b ExperimentResult) int {
		if a.Config.Base.Field.NodeCount != b.Config.Base.Field.NodeCount {
			return a.Config.Base.Field.NodeCount - b.Config.Base.Field.NodeCount
		}
		return a.Config.Base.Field.Offset - b.Config.Base.Field.Offset
	})

	for _, result := range sorted {
		fmt.Fprintf(w, "\n%s:\n", result.Config.Name)
		fmt.Fprintf(w, "  n=%d l=%d  lifetime %.3fs  packets %.1f  failed-node distance %.2f\n",
			result.Config.Base.Field.NodeCount,
			result.Config.Base.Field.Offset,
			result.MeanLifetime,
			result.MeanTotalSent,
			result.MeanFailedDist)
	}

	fmt.Fprintln(w, "\n================================================================================")
}

func (r *Runner) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{"experiment", "nodes", "offset", "width", "height", "compress", "trials",
		"mean_lifetime", "min_lifetime", "max_lifetime", "mean_packets", "mean_failed_distance", "unterminated"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, result := range r.Results {
		f := result.Config.Base.Field
		row := []string{
			result.Config.Name,
			strconv.Itoa(f.NodeCount),
			strconv.Itoa(f.Offset),
			strconv.Itoa(f.Width),
			strconv.Itoa(f.Height),
			strconv.FormatBool(f.UseCompression),
			strconv.Itoa(len(result.Trials)),
			strconv.FormatFloat(result.MeanLifetime, 'f', 4, 64),
			strconv.FormatFloat(result.MinLifetime, 'f', 4, 64),
			strconv.FormatFloat(result.MaxLifetime, 'f', 4, 64),
			strconv.FormatFloat(result.MeanTotalSent, 'f', 1, 64),
			strconv.FormatFloat(result.MeanFailedDist, 'f', 3, 64),
			strconv.Itoa(result.Unterminated),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ConfidenceInterval is the normal-approximation 95% interval of the mean.
func ConfidenceInterval(samples []float64) (float64, float64) {
	n := len(samples)
	if n == 0 {
		return 0, 0
	}

	mean := 0.0
	for _, s := range samples {
		mean += s
	}
	mean /= float64(n)
	if n == 1 {
		return mean, mean
	}

	variance := 0.0
	for _, s := range samples {
		variance += (s - mean) * (s - mean)
	}
	variance /= float64(n - 1)

	z := 1.96
	se := math.Sqrt(variance / float64(n))
	return mean - z*se, mean + z*se
}
