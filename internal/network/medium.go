package network

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"wsn-simulator/internal/engine"
)

var (
	ErrNoRoute     = errors.New("no endpoint attached at destination address")
	ErrNotAttached = errors.New("source endpoint not attached to medium")
)

// Point is a fixed position in the field, in metres.
type Point struct {
	X float64
	Y float64
}

// Endpoint is anything with an address and a fixed position on the medium.
type Endpoint interface {
	Addr() Address
	Location() Point
}

// ConfirmParams is handed to the sender once a transmission completes.
type ConfirmParams struct {
	Packet        Packet
	SentTime      float64
	ConfirmedTime float64
}

type ConfirmCallback func(ConfirmParams)

// IndicationCallback is invoked on the receiving endpoint when data arrives.
type IndicationCallback func(pkt Packet)

// TransmissionCallback is called when a transmission is recorded
type TransmissionCallback func(info TransmissionInfo)

// TransmissionInfo contains details about a packet's hop
type TransmissionInfo struct {
	PacketID     int
	Source       Address
	Destination  Address
	Bytes        int
	SentTime     float64
	ReceivedTime float64
	Distance     float64
	Delay        DelayComponents
}

type attachment struct {
	endpoint   Endpoint
	confirm    ConfirmCallback
	indication IndicationCallback
}

// Medium is the single shared channel between the server and every node.
type Medium struct {
	Model          *DelayModel
	OnTransmission TransmissionCallback
	Log            logrus.FieldLogger

	sim       *engine.Simulation
	endpoints map[Address]*attachment
	inFlight  int
}

func NewMedium(sim *engine.Simulation, model *DelayModel) *Medium {
	if model == nil {
		model = DefaultDelayModel()
	}
	return &Medium{
		Model:     model,
		Log:       logrus.StandardLogger(),
		sim:       sim,
		endpoints: make(map[Address]*attachment),
	}
}

// Attach connects an endpoint to the channel. Re-attaching an address is an error.
func (m *Medium) Attach(ep Endpoint) error {
	if _, exists := m.endpoints[ep.Addr()]; exists {
		return fmt.Errorf("attach %s: address already in use", ep.Addr())
	}
	m.endpoints[ep.Addr()] = &attachment{endpoint: ep}
	return nil
}

// SetConfirmCallback registers the data-confirm hook of an attached endpoint.
func (m *Medium) SetConfirmCallback(addr Address, cb ConfirmCallback) error {
	a, ok := m.endpoints[addr]
	if !ok {
		return fmt.Errorf("confirm callback for %s: %w", addr, ErrNotAttached)
	}
	a.confirm = cb
	return nil
}

// SetIndicationCallback registers the data-indication hook of an attached endpoint.
func (m *Medium) SetIndicationCallback(addr Address, cb IndicationCallback) error {
	a, ok := m.endpoints[addr]
	if !ok {
		return fmt.Errorf("indication callback for %s: %w", addr, ErrNotAttached)
	}
	a.indication = cb
	return nil
}

// Distance is the Euclidean distance between two placed endpoints.
func (m *Medium) Distance(a, b Endpoint) float64 {
	pa, pb := a.Location(), b.Location()
	return math.Hypot(pa.X-pb.X, pa.Y-pb.Y)
}

// Transmit submits pkt from src to dst. The receiver's indication callback fires
// once the hop delay has elapsed; the sender's confirm callback fires then, or
// after the acknowledgment frame's own hop when opts.AckRequested is set.
func (m *Medium) Transmit(src Endpoint, dst Address, pkt Packet, opts TxOptions) error {
	from, ok := m.endpoints[src.Addr()]
	if !ok {
		return fmt.Errorf("transmit from %s: %w", src.Addr(), ErrNotAttached)
	}
	to, ok := m.endpoints[dst]
	if !ok {
		return fmt.Errorf("transmit to %s: %w", dst, ErrNoRoute)
	}

	pkt.Src = src.Addr()
	pkt.Dst = dst
	sentTime := m.sim.Now
	distance := m.Distance(src, to.endpoint)
	delay := m.Model.ComputeTotalDelay(distance, pkt.Size)

	m.inFlight++
	if m.inFlight == 1 {
		m.Log.WithField("time", sentTime).Debug("channel busy")
	}

	m.sim.Schedule(delay.TotalDelay, func() {
		if m.OnTransmission != nil {
			m.OnTransmission(TransmissionInfo{
				PacketID:     pkt.ID,
				Source:       pkt.Src,
				Destination:  dst,
				Bytes:        pkt.Size,
				SentTime:     sentTime,
				ReceivedTime: m.sim.Now,
				Distance:     distance,
				Delay:        delay,
			})
		}

		if to.indication != nil {
			to.indication(pkt)
		}

		confirm := func() {
			m.inFlight--
			if m.inFlight == 0 {
				m.Log.WithField("time", m.sim.Now).Debug("channel idle")
			}
			if from.confirm != nil {
				from.confirm(ConfirmParams{
					Packet:        pkt,
					SentTime:      sentTime,
					ConfirmedTime: m.sim.Now,
				})
			}
		}

		if !opts.AckRequested {
			confirm()
			return
		}
		m.sim.Schedule(m.Model.ComputeTotalDelay(distance, AckFrameBytes).TotalDelay, confirm)
	})

	return nil
}

// InFlight is the number of transmissions submitted but not yet completed.
func (m *Medium) InFlight() int {
	return m.inFlight
}
