// Package topology places the server and the sensor nodes of a star network.
package topology

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	"wsn-simulator/internal/energy"
	"wsn-simulator/internal/network"
	"wsn-simulator/internal/nodes"
)

// FieldConfig bounds the placement rectangle. Nodes land in
// [Offset, Offset+Width] x [0, Height]; the server sits at (0, Height/2).
type FieldConfig struct {
	Width          int
	Height         int
	Offset         int
	NodeCount      int
	UseCompression bool

	InitialEnergy float64
	CostPerByte   float64
}

func (c FieldConfig) Validate() error {
	if c.Width < 0 || c.Height < 0 || c.Offset < 0 {
		return fmt.Errorf("field %dx%d offset %d: dimensions must be non-negative", c.Width, c.Height, c.Offset)
	}
	if c.NodeCount < 1 || c.NodeCount > network.MaxNodes {
		return fmt.Errorf("node count %d: %w (1..%d)", c.NodeCount, network.ErrAddressSpace, network.MaxNodes)
	}
	return nil
}

// Placer draws node coordinates from two independent uniform generators, one
// per axis, each seeded once when the placer is built.
type Placer struct {
	x *rand.Rand
	y *rand.Rand
}

// NewPlacer seeds both axes from seed. A zero seed draws fresh seeds from the
// clock, so placements differ across runs.
func NewPlacer(seed uint64) *Placer {
	if seed == 0 {
		now := uint64(time.Now().UnixNano())
		return &Placer{
			x: rand.New(rand.NewPCG(now, rand.Uint64())),
			y: rand.New(rand.NewPCG(rand.Uint64(), now)),
		}
	}
	return &Placer{
		x: rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15)),
		y: rand.New(rand.NewPCG(seed, 0xbf58476d1ce4e5b9)),
	}
}

// Draw returns integer coordinates in [lo, hi] on each axis, inclusive.
func (p *Placer) Draw(xlo, xhi, ylo, yhi int) nodes.Position {
	return nodes.Position{
		X: float64(xlo + p.x.IntN(xhi-xlo+1)),
		Y: float64(ylo + p.y.IntN(yhi-ylo+1)),
	}
}

// Placement is the diagnostic record written for each generated node.
type Placement struct {
	NodeID   int
	Relative nodes.Position
	Distance float64
}

type Topology struct {
	Server     *nodes.Server
	Nodes      []*nodes.SensorNode
	Book       *energy.Book
	Placements []Placement
}

// NodeByID returns the node with the given identity.
func (t *Topology) NodeByID(id int) (*nodes.SensorNode, error) {
	for _, n := range t.Nodes {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, fmt.Errorf("node %d: %w", id, energy.ErrUnknownNode)
}

type Generator struct {
	Log    logrus.FieldLogger
	placer *Placer
}

func NewGenerator(placer *Placer) *Generator {
	if placer == nil {
		placer = NewPlacer(0)
	}
	return &Generator{
		Log:    logrus.StandardLogger(),
		placer: placer,
	}
}

// Generate builds the server and cfg.NodeCount nodes, attaches all of them to
// medium, and opens one ledger per node. Node counts the address scheme cannot
// carry fail before anything is placed.
func (g *Generator) Generate(cfg FieldConfig, medium *network.Medium) (*Topology, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.InitialEnergy == 0 {
		cfg.InitialEnergy = energy.DefaultInitialEnergy
	}
	if cfg.CostPerByte == 0 {
		cfg.CostPerByte = energy.DefaultCostPerByte
	}

	server := nodes.NewServer(nodes.Position{X: 0, Y: float64(cfg.Height / 2)})
	if err := medium.Attach(server); err != nil {
		return nil, err
	}

	topo := &Topology{
		Server:     server,
		Nodes:      make([]*nodes.SensorNode, 0, cfg.NodeCount),
		Book:       energy.NewBook(),
		Placements: make([]Placement, 0, cfg.NodeCount),
	}

	for i := 1; i <= cfg.NodeCount; i++ {
		pos := g.placer.Draw(cfg.Offset, cfg.Offset+cfg.Width, 0, cfg.Height)

		node, err := nodes.NewSensorNode(i, pos)
		if err != nil {
			return nil, err
		}
		if err := medium.Attach(node); err != nil {
			return nil, err
		}
		if _, err := topo.Book.Open(i, cfg.InitialEnergy, cfg.CostPerByte); err != nil {
			return nil, err
		}

		p := Placement{
			NodeID:   i,
			Relative: nodes.Position{X: pos.X - float64(cfg.Offset), Y: pos.Y},
			Distance: medium.Distance(node, server),
		}
		g.Log.WithFields(logrus.Fields{
			"node":     i,
			"x":        p.Relative.X,
			"y":        p.Relative.Y,
			"distance": p.Distance,
		}).Info("node placed")

		topo.Nodes = append(topo.Nodes, node)
		topo.Placements = append(topo.Placements, p)
	}

	return topo, nil
}
