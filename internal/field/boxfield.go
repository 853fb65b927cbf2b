// Package field wires topology, traffic and the event engine into one run.
package field

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wsn-simulator/internal/config"
	"wsn-simulator/internal/engine"
	"wsn-simulator/internal/metrics"
	"wsn-simulator/internal/network"
	"wsn-simulator/internal/payload"
	"wsn-simulator/internal/topology"
	"wsn-simulator/internal/traffic"
)

// runSlice is how much simulated time Run processes between context checks.
const runSlice = 1000.0

// BoxField owns one simulated field from configuration to stop.
type BoxField struct {
	ID  uuid.UUID
	Log logrus.FieldLogger

	cfg       config.Config
	state     State
	sim       *engine.Simulation
	medium    *network.Medium
	topo      *topology.Topology
	scheduler *traffic.Scheduler
	handler   *traffic.ConfirmationHandler
	metrics   *metrics.Registry
}

type Option func(*BoxField)

func WithLogger(log logrus.FieldLogger) Option {
	return func(b *BoxField) { b.Log = log }
}

func WithMetrics(r *metrics.Registry) Option {
	return func(b *BoxField) { b.metrics = r }
}

// New validates cfg and generates the topology. The returned field is in
// StateTopologyBuilt; generation never happens again for this instance.
func New(cfg config.Config, opts ...Option) (*BoxField, error) {
	b := &BoxField{
		ID:    uuid.New(),
		Log:   logrus.StandardLogger(),
		cfg:   cfg,
		state: StateConfigured,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.Log = b.Log.WithField("run", b.ID.String()[:8])

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Field.UseCompression {
		b.Log.Info("compression enabled")
	} else {
		b.Log.Info("compression disabled")
	}
	b.Log.WithFields(logrus.Fields{
		"nodes":  cfg.Field.NodeCount,
		"offset": cfg.Field.Offset,
	}).Info("building field")

	b.sim = engine.NewSimulation()
	b.medium = network.NewMedium(b.sim, network.NewDelayModelConfig(network.DelayModelConfig{
		BitRate: cfg.Radio.BitRate,
	}))
	b.medium.Log = b.Log

	gen := topology.NewGenerator(topology.NewPlacer(cfg.Seed))
	gen.Log = b.Log
	topo, err := gen.Generate(cfg.Topology(), b.medium)
	if err != nil {
		return nil, err
	}
	b.topo = topo
	topo.Server.Log = b.Log
	if err := b.medium.SetIndicationCallback(topo.Server.Address, topo.Server.DataIndication); err != nil {
		return nil, err
	}

	b.scheduler = traffic.NewScheduler(b.sim, b.medium, topo.Nodes,
		payload.NewFramer(cfg.Radio.PacketBytes, cfg.Field.UseCompression))
	b.scheduler.PacketBytes = cfg.Radio.PacketBytes
	b.scheduler.Interval = cfg.Radio.Interval
	b.scheduler.Log = b.Log

	b.handler = traffic.NewConfirmationHandler(topo.Book, cfg.Field.Offset, b.sim.Stop, func() float64 { return b.sim.Now })
	b.handler.PacketBytes = cfg.Radio.PacketBytes
	b.handler.Log = b.Log
	b.handler.OnTerminate = func(traffic.Termination) {
		if err := b.transition(StateRunning, StateStopped); err != nil {
			b.Log.WithError(err).Error("stop outside a run")
		}
	}
	if err := b.handler.Register(b.medium, topo.Nodes); err != nil {
		return nil, err
	}

	if b.metrics != nil {
		b.scheduler.Observer = b.metrics
		b.handler.Observer = b.metrics
		b.medium.OnTransmission = func(network.TransmissionInfo) { b.metrics.MediumTransmission() }
		for _, n := range topo.Nodes {
			b.metrics.SetEnergy(n.ID, cfg.Radio.InitialEnergy)
		}
	}

	if err := b.transition(StateConfigured, StateTopologyBuilt); err != nil {
		return nil, err
	}
	return b, nil
}

// SendPackets issues the first wave: one immediate send per node. It may be
// called once.
func (b *BoxField) SendPackets() (int, error) {
	if err := b.transition(StateTopologyBuilt, StateRunning); err != nil {
		return 0, err
	}
	return b.scheduler.SendPackets(), nil
}

// Run drives the engine until a node fails, cfg.Until is reached (when set),
// or ctx is done, then tears the engine down. SendPackets is called first if
// it has not been.
func (b *BoxField) Run(ctx context.Context) (*Report, error) {
	if b.state == StateTopologyBuilt {
		if _, err := b.SendPackets(); err != nil {
			return nil, err
		}
	}
	if b.state != StateRunning {
		return nil, ErrInvalidState
	}

	limit := math.Inf(1)
	if b.cfg.Until > 0 {
		limit = b.cfg.Until
	}

	started := time.Now()
	var ctxErr error
	for !b.sim.Stopped() && b.sim.PendingEvents() > 0 && b.sim.NextEventTime() <= limit {
		if ctxErr = ctx.Err(); ctxErr != nil {
			break
		}
		b.sim.Run(math.Min(b.sim.NextEventTime()+runSlice, limit))
	}

	report := b.report(time.Since(started))
	b.sim.Destroy()
	if b.state == StateRunning {
		if err := b.transition(StateRunning, StateStopped); err != nil {
			return nil, err
		}
	}

	if report.Terminated {
		b.Log.Info(report.Summary())
	} else {
		b.Log.WithField("sim_time", report.SimTime).Warn("run ended without a node failure")
	}
	return report, ctxErr
}

func (b *BoxField) State() State {
	return b.state
}

func (b *BoxField) Topology() *topology.Topology {
	return b.topo
}

func (b *BoxField) Simulation() *engine.Simulation {
	return b.sim
}

func (b *BoxField) Config() config.Config {
	return b.cfg
}
