package field

import (
	"context"
	"errors"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsn-simulator/internal/config"
	"wsn-simulator/internal/logging"
	"wsn-simulator/internal/metrics"
	"wsn-simulator/internal/network"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Seed = 99
	return cfg
}

func TestReferenceRunFailsOnEighthPacket(t *testing.T) {
	b, err := New(testConfig(), WithLogger(logging.Discard()))
	require.NoError(t, err)
	assert.Equal(t, StateTopologyBuilt, b.State())

	n, err := b.SendPackets()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, StateRunning, b.State())

	report, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateStopped, b.State())

	require.True(t, report.Terminated)
	assert.Equal(t, 1, report.Termination.NodeID)
	assert.Equal(t, network.Address("00:01"), report.Termination.Address)
	assert.Equal(t, 8, report.Termination.Sent)
	assert.InDelta(t, 0.0, report.Termination.Energy, 1e-12)
	assert.InDelta(t, 35.0, report.SimTime, 0.01)

	pos := report.Termination.Position
	assert.GreaterOrEqual(t, pos.X, 0.0)
	assert.LessOrEqual(t, pos.X, 50.0)
	assert.GreaterOrEqual(t, pos.Y, 0.0)
	assert.LessOrEqual(t, pos.Y, 50.0)
	assert.Equal(t, report.Placements[0].Relative, pos)

	require.Len(t, report.Nodes, 1)
	assert.Equal(t, 8, report.Nodes[0].Attempts)
	assert.Equal(t, 8, report.TotalSent())
	assert.Equal(t, 8, report.Received)
	assert.Contains(t, report.Summary(), "successfully transmitted: 8, node #1")
	assert.Zero(t, b.Simulation().PendingEvents())
}

func TestSendPacketsOnlyOnce(t *testing.T) {
	cfg := testConfig()
	cfg.Field.NodeCount = 5
	b, err := New(cfg, WithLogger(logging.Discard()))
	require.NoError(t, err)

	n, err := b.SendPackets()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, b.Simulation().PendingEvents())

	_, err = b.SendPackets()
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, 5, b.Simulation().PendingEvents())
	assert.Len(t, b.Topology().Nodes, 5)
}

func TestManyNodesStopTogether(t *testing.T) {
	cfg := testConfig()
	cfg.Field.NodeCount = 6
	b, err := New(cfg, WithLogger(logging.Discard()))
	require.NoError(t, err)

	report, err := b.Run(context.Background())
	require.NoError(t, err)
	require.True(t, report.Terminated)

	failed := report.Termination.NodeID
	for _, n := range report.Nodes {
		if n.NodeID == failed {
			assert.Equal(t, 8, n.Sent)
			continue
		}
		assert.Equal(t, 7, n.Sent, "node %d", n.NodeID)
		assert.InDelta(t, 0.25, n.Energy, 1e-12)
	}
	assert.Equal(t, 8+7*5, report.TotalSent())
	assert.Equal(t, 8*6, report.Received)
}

func TestRunUntilWithoutFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Until = 12
	b, err := New(cfg, WithLogger(logging.Discard()))
	require.NoError(t, err)

	report, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Terminated)
	assert.Equal(t, StateStopped, b.State())
	assert.Equal(t, 3, report.Nodes[0].Sent)
	assert.InDelta(t, 1.25, report.Nodes[0].Energy, 1e-12)
	assert.Contains(t, report.Summary(), "no node failed")
}

func TestRunHonoursContext(t *testing.T) {
	b, err := New(testConfig(), WithLogger(logging.Discard()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := b.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.False(t, report.Terminated)
	assert.Equal(t, StateStopped, b.State())

	_, err = b.Run(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Field.NodeCount = 100
	_, err := New(cfg, WithLogger(logging.Discard()))
	assert.Error(t, err)
}

func TestRunFeedsMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	b, err := New(testConfig(), WithLogger(logging.Discard()), WithMetrics(reg))
	require.NoError(t, err)

	_, err = b.Run(context.Background())
	require.NoError(t, err)

	var m dto.Metric
	require.NoError(t, reg.Stops.Write(&m))
	assert.Equal(t, 1.0, m.GetCounter().GetValue())

	c, err := reg.PacketsConfirmed.GetMetricWithLabelValues("1")
	require.NoError(t, err)
	m = dto.Metric{}
	require.NoError(t, c.Write(&m))
	assert.Equal(t, 8.0, m.GetCounter().GetValue())

	m = dto.Metric{}
	require.NoError(t, reg.TransmissionsTotal.Write(&m))
	assert.Equal(t, 8.0, m.GetCounter().GetValue())
}

func TestCompressionDoesNotChangeCost(t *testing.T) {
	for _, compress := range []bool{true, false} {
		cfg := testConfig()
		cfg.Field.UseCompression = compress
		b, err := New(cfg, WithLogger(logging.Discard()))
		require.NoError(t, err)

		report, err := b.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 8, report.Termination.Sent, "compress=%v", compress)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "configured", StateConfigured.String())
	assert.Equal(t, "topology-built", StateTopologyBuilt.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestExhaustionStopsFieldImmediately(t *testing.T) {
	b, err := New(testConfig(), WithLogger(logging.Discard()))
	require.NoError(t, err)
	_, err = b.SendPackets()
	require.NoError(t, err)

	b.Simulation().RunAll()

	assert.Equal(t, StateStopped, b.State())
	assert.True(t, b.Simulation().Stopped())
	assert.Zero(t, b.Simulation().PendingEvents())

	_, err = b.Run(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)
}
