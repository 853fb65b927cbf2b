package network

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsn-simulator/internal/engine"
)

type stubEndpoint struct {
	addr Address
	at   Point
}

func (s stubEndpoint) Addr() Address   { return s.addr }
func (s stubEndpoint) Location() Point { return s.at }

func quietMedium(sim *engine.Simulation) *Medium {
	m := NewMedium(sim, nil)
	l := logrus.New()
	l.Out = io.Discard
	m.Log = l
	return m
}

func TestAddressFor(t *testing.T) {
	a, err := AddressFor(7)
	require.NoError(t, err)
	assert.Equal(t, Address("00:07"), a)

	a, err = AddressFor(99)
	require.NoError(t, err)
	assert.Equal(t, "00:99", a.String())

	for _, id := range []int{0, -1, 100} {
		_, err := AddressFor(id)
		assert.True(t, errors.Is(err, ErrAddressSpace), "id %d", id)
	}
}

func TestDelayModel(t *testing.T) {
	dm := DefaultDelayModel()
	d := dm.ComputeTotalDelay(SpeedOfLight, 50)
	assert.InDelta(t, 1.0, d.Propagation, 1e-12)
	assert.InDelta(t, 0.0016, d.Airtime, 1e-12)
	assert.InDelta(t, 1.0016, d.TotalDelay, 1e-12)

	custom := NewDelayModelConfig(DelayModelConfig{BitRate: 400})
	assert.Equal(t, SpeedOfLight, custom.PropagationSpeed)
	assert.InDelta(t, 1.0, custom.Airtime(50), 1e-12)
}

func TestDistance(t *testing.T) {
	m := quietMedium(engine.NewSimulation())
	a := stubEndpoint{addr: "00:01", at: Point{X: 3, Y: 0}}
	b := stubEndpoint{addr: "00:00", at: Point{X: 0, Y: 4}}
	assert.InDelta(t, 5.0, m.Distance(a, b), 1e-12)
}

func TestTransmitConfirmsAfterAck(t *testing.T) {
	sim := engine.NewSimulation()
	m := quietMedium(sim)
	server := stubEndpoint{addr: ServerAddress}
	node := stubEndpoint{addr: "00:01", at: Point{X: 30}}
	require.NoError(t, m.Attach(server))
	require.NoError(t, m.Attach(node))

	var events []string
	var confirmed ConfirmParams
	var recorded []TransmissionInfo
	require.NoError(t, m.SetIndicationCallback(ServerAddress, func(p Packet) {
		events = append(events, "indication")
	}))
	require.NoError(t, m.SetConfirmCallback(node.addr, func(p ConfirmParams) {
		events = append(events, "confirm")
		confirmed = p
	}))
	m.OnTransmission = func(info TransmissionInfo) { recorded = append(recorded, info) }

	pkt := NewPacket(1, "", "", DefaultPacketBytes, sim.Now)
	require.NoError(t, m.Transmit(node, ServerAddress, pkt, TxOptions{AckRequested: true}))
	assert.Equal(t, 1, m.InFlight())

	sim.RunAll()

	assert.Equal(t, []string{"indication", "confirm"}, events)
	assert.Equal(t, Address("00:01"), confirmed.Packet.Src)
	assert.Equal(t, ServerAddress, confirmed.Packet.Dst)
	want := m.Model.ComputeTotalDelay(30, 50).TotalDelay + m.Model.ComputeTotalDelay(30, AckFrameBytes).TotalDelay
	assert.InDelta(t, want, confirmed.ConfirmedTime, 1e-12)
	require.Len(t, recorded, 1)
	assert.InDelta(t, 30.0, recorded[0].Distance, 1e-12)
	assert.Zero(t, m.InFlight())
}

func TestTransmitWithoutAckConfirmsOnDelivery(t *testing.T) {
	sim := engine.NewSimulation()
	m := quietMedium(sim)
	node := stubEndpoint{addr: "00:02", at: Point{X: 10}}
	require.NoError(t, m.Attach(stubEndpoint{addr: ServerAddress}))
	require.NoError(t, m.Attach(node))

	var at float64
	require.NoError(t, m.SetConfirmCallback(node.addr, func(p ConfirmParams) { at = p.ConfirmedTime }))
	require.NoError(t, m.Transmit(node, ServerAddress, NewPacket(1, "", "", 50, 0), TxOptions{}))
	sim.RunAll()

	assert.InDelta(t, m.Model.ComputeTotalDelay(10, 50).TotalDelay, at, 1e-12)
}

func TestTransmitErrors(t *testing.T) {
	sim := engine.NewSimulation()
	m := quietMedium(sim)
	node := stubEndpoint{addr: "00:01"}

	err := m.Transmit(node, ServerAddress, Packet{}, TxOptions{})
	assert.True(t, errors.Is(err, ErrNotAttached))

	require.NoError(t, m.Attach(node))
	err = m.Transmit(node, ServerAddress, Packet{}, TxOptions{})
	assert.True(t, errors.Is(err, ErrNoRoute))

	assert.Error(t, m.Attach(node))
	assert.True(t, errors.Is(m.SetConfirmCallback("00:42", nil), ErrNotAttached))
	assert.Zero(t, sim.PendingEvents())
}
