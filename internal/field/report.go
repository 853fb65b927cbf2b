package field

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"wsn-simulator/internal/topology"
	"wsn-simulator/internal/traffic"
)

// NodeSummary is one node's ledger at the end of a run.
type NodeSummary struct {
	NodeID   int
	Sent     int
	Energy   float64
	Attempts int
	Distance float64
}

type Report struct {
	RunID      uuid.UUID
	NodeCount  int
	Offset     int
	Width      int
	Height     int
	Compressed bool

	Terminated  bool
	Termination traffic.Termination
	SimTime     float64
	WallTime    time.Duration
	Placements  []topology.Placement
	Nodes       []NodeSummary
	Received    int
}

// Summary is the human-readable termination line.
func (r *Report) Summary() string {
	if !r.Terminated {
		return fmt.Sprintf("no node failed by t=%.2fs", r.SimTime)
	}
	t := r.Termination
	return fmt.Sprintf("successfully transmitted: %d, node #%d failed at (%.0f, %.0f), t=%.2fs",
		t.Sent, t.NodeID, t.Position.X, t.Position.Y, t.Time)
}

// TotalSent sums confirmed packets over every node.
func (r *Report) TotalSent() int {
	total := 0
	for _, n := range r.Nodes {
		total += n.Sent
	}
	return total
}

func (b *BoxField) report(wall time.Duration) *Report {
	r := &Report{
		RunID:      b.ID,
		NodeCount:  b.cfg.Field.NodeCount,
		Offset:     b.cfg.Field.Offset,
		Width:      b.cfg.Field.Width,
		Height:     b.cfg.Field.Height,
		Compressed: b.cfg.Field.UseCompression,
		SimTime:    b.sim.Now,
		WallTime:   wall,
		Placements: b.topo.Placements,
		Received:   b.topo.Server.Received,
	}
	r.Termination, r.Terminated = b.handler.Termination()

	for i, n := range b.topo.Nodes {
		ledger, err := b.topo.Book.Get(n.ID)
		if err != nil {
			continue
		}
		r.Nodes = append(r.Nodes, NodeSummary{
			NodeID:   n.ID,
			Sent:     ledger.PacketsSent(),
			Energy:   ledger.CurrentEnergy(),
			Attempts: b.scheduler.Attempts(n.ID),
			Distance: b.topo.Placements[i].Distance,
		})
	}
	return r
}
