package nodes

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"wsn-simulator/internal/network"
)

type Position = network.Point

// SensorNode is a battery-powered device at a fixed position.
type SensorNode struct {
	ID       int
	Address  network.Address
	Position Position
}

func NewSensorNode(id int, pos Position) (*SensorNode, error) {
	addr, err := network.AddressFor(id)
	if err != nil {
		return nil, err
	}
	return &SensorNode{
		ID:       id,
		Address:  addr,
		Position: pos,
	}, nil
}

func (n *SensorNode) Addr() network.Address { return n.Address }

func (n *SensorNode) Location() network.Point { return n.Position }

func (n *SensorNode) String() string {
	return fmt.Sprintf("node#%d(%s)", n.ID, n.Address)
}

// Server is the coordinator every node reports to. It has no energy model.
type Server struct {
	Address  network.Address
	Position Position
	Received int
	Log      logrus.FieldLogger
}

func NewServer(pos Position) *Server {
	return &Server{
		Address:  network.ServerAddress,
		Position: pos,
		Log:      logrus.StandardLogger(),
	}
}

func (s *Server) Addr() network.Address { return s.Address }

func (s *Server) Location() network.Point { return s.Position }

// DataIndication records an arriving packet. It has no energy or termination effect.
func (s *Server) DataIndication(pkt network.Packet) {
	s.Received++
	s.Log.WithFields(logrus.Fields{
		"src":    pkt.Src,
		"packet": pkt.ID,
	}).Debug("data indication")
}
