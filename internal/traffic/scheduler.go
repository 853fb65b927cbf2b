// Package traffic drives the periodic sends of every node and accounts for
// their confirmations.
package traffic

import (
	"github.com/sirupsen/logrus"

	"wsn-simulator/internal/engine"
	"wsn-simulator/internal/network"
	"wsn-simulator/internal/nodes"
	"wsn-simulator/internal/payload"
)

// DefaultInterval is the simulated time between two sends of the same node.
const DefaultInterval = 5.0

// Transmitter is the medium a scheduler submits packets to.
type Transmitter interface {
	Transmit(src network.Endpoint, dst network.Address, pkt network.Packet, opts network.TxOptions) error
}

// Scheduler keeps one unbounded send loop per node. Each send re-arms the next
// one Interval later whatever its outcome; the loop ends only with the
// simulation's global stop.
type Scheduler struct {
	PacketBytes int
	Interval    float64
	Observer    Observer
	Log         logrus.FieldLogger

	sim      *engine.Simulation
	tx       Transmitter
	dst      network.Address
	nodes    []*nodes.SensorNode
	framer   *payload.Framer
	nextID   int
	sequence map[int]int
}

func NewScheduler(sim *engine.Simulation, tx Transmitter, ns []*nodes.SensorNode, framer *payload.Framer) *Scheduler {
	if framer == nil {
		framer = payload.NewFramer(network.DefaultPacketBytes, false)
	}
	return &Scheduler{
		PacketBytes: network.DefaultPacketBytes,
		Interval:    DefaultInterval,
		Observer:    nopObserver{},
		Log:         logrus.StandardLogger(),
		sim:         sim,
		tx:          tx,
		dst:         network.ServerAddress,
		nodes:       ns,
		framer:      framer,
		sequence:    make(map[int]int),
	}
}

// SendPackets schedules an immediate first send for every node, in node order,
// and returns how many were scheduled.
func (s *Scheduler) SendPackets() int {
	for _, n := range s.nodes {
		node := n
		s.sim.Schedule(0, func() {
			s.SendOnePacket(node)
		})
	}
	return len(s.nodes)
}

// SendOnePacket submits one acknowledged packet from node to the server and
// arms the next attempt.
func (s *Scheduler) SendOnePacket(node *nodes.SensorNode) {
	s.nextID++
	seq := s.sequence[node.ID]
	s.sequence[node.ID] = seq + 1

	frame := s.framer.Build(node.ID, seq, s.sim.Now)
	pkt := network.NewPacket(s.nextID, node.Address, s.dst, s.PacketBytes, s.sim.Now)
	pkt.Payload = frame.Wire

	opts := network.TxOptions{AckRequested: true, Handle: uint8(seq)}
	if err := s.tx.Transmit(node, s.dst, pkt, opts); err != nil {
		s.Log.WithFields(logrus.Fields{
			"node": node.ID,
			"time": s.sim.Now,
		}).WithError(err).Warn("transmit failed")
		s.Observer.SubmitFailed(node.ID)
	} else {
		s.Observer.PacketSubmitted(node.ID, len(frame.Wire))
	}

	s.sim.Schedule(s.Interval, func() {
		s.SendOnePacket(node)
	})
}

// Attempts returns how many sends node has made so far.
func (s *Scheduler) Attempts(nodeID int) int {
	return s.sequence[nodeID]
}
