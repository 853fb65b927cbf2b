package experiment

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsn-simulator/internal/logging"
	"wsn-simulator/internal/store"
)

func quietRunner(rs store.ResultStore) *Runner {
	r := NewRunner(rs)
	r.Log = logging.Discard()
	return r
}

func smallExperiment() ExperimentConfig {
	cfg := DefaultExperimentConfig()
	cfg.NumTrials = 3
	cfg.Base.Field.NodeCount = 4
	cfg.Base.Seed = 11
	return cfg
}

func TestRunExperimentAggregates(t *testing.T) {
	rs := store.NewMemoryStore()
	r := quietRunner(rs)

	result, err := r.RunExperiment(context.Background(), smallExperiment())
	require.NoError(t, err)

	require.Len(t, result.Trials, 3)
	for _, trial := range result.Trials {
		assert.True(t, trial.Terminated)
		assert.Equal(t, 8, trial.FailedSent)
		assert.Equal(t, 8+7*3, trial.TotalSent)
		assert.Greater(t, trial.FailedDist, 0.0)
	}
	assert.InDelta(t, 35.0, result.MeanLifetime, 0.01)
	assert.LessOrEqual(t, result.MinLifetime, result.MaxLifetime)
	assert.Equal(t, 29.0, result.MeanTotalSent)
	assert.Zero(t, result.Unterminated)
	assert.Contains(t, result.String(), "EXPERIMENT RESULT: default")

	saved, err := rs.List(context.Background(), "default")
	require.NoError(t, err)
	assert.Len(t, saved, 3)
}

func TestSweepsAndCSV(t *testing.T) {
	r := quietRunner(nil)
	ctx := context.Background()
	base := smallExperiment()
	base.NumTrials = 1

	offsets, err := r.RunOffsetSweep(ctx, "dist", base, []int{10, 100})
	require.NoError(t, err)
	require.Len(t, offsets, 2)
	assert.Equal(t, "dist_l10", offsets[0].Config.Name)
	assert.Greater(t, offsets[1].MeanFailedDist, offsets[0].MeanFailedDist)

	counts, err := r.RunNodeCountSweep(ctx, "pop", base, []int{1, 3})
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, 8.0, counts[0].MeanTotalSent)
	assert.Equal(t, 22.0, counts[1].MeanTotalSent)

	var buf bytes.Buffer
	require.NoError(t, r.WriteCSV(&buf))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "experiment", rows[0][0])
	assert.Equal(t, "pop_n3", rows[4][0])

	var summary bytes.Buffer
	r.PrintSummary(&summary)
	assert.Contains(t, summary.String(), "dist_l100")
}

func TestSweepStopsOnBadConfig(t *testing.T) {
	r := quietRunner(nil)
	_, err := r.RunNodeCountSweep(context.Background(), "bad", smallExperiment(), []int{2, 120})
	assert.Error(t, err)
	assert.Len(t, r.Results, 1)
}

func TestConfidenceInterval(t *testing.T) {
	lo, hi := ConfidenceInterval(nil)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 0.0, hi)

	lo, hi = ConfidenceInterval([]float64{5})
	assert.Equal(t, 5.0, lo)
	assert.Equal(t, 5.0, hi)

	lo, hi = ConfidenceInterval([]float64{1, 2, 3, 4, 5})
	assert.Less(t, lo, 3.0)
	assert.Greater(t, hi, 3.0)
	assert.InDelta(t, 3.0, (lo+hi)/2, 1e-9)
}
