package traffic

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"wsn-simulator/internal/energy"
	"wsn-simulator/internal/network"
	"wsn-simulator/internal/nodes"
)

// ErrStopped is returned for confirmations that arrive after the global stop.
var ErrStopped = errors.New("simulation already stopped")

// Termination is captured once, when the first node runs out of energy.
type Termination struct {
	NodeID   int
	Address  network.Address
	Sent     int
	Position nodes.Position // relative to the field offset
	Energy   float64
	Time     float64
}

// ConfirmRegistrar is the part of the medium that delivers confirmations.
type ConfirmRegistrar interface {
	SetConfirmCallback(addr network.Address, cb network.ConfirmCallback) error
}

// ConfirmationHandler charges each confirmed packet to its node's ledger and
// stops the whole simulation when any balance reaches zero.
type ConfirmationHandler struct {
	PacketBytes int
	Observer    Observer
	Log         logrus.FieldLogger
	OnTerminate func(Termination)

	book        *energy.Book
	offset      float64
	stop        func()
	now         func() float64
	termination *Termination
}

func NewConfirmationHandler(book *energy.Book, offset int, stop func(), now func() float64) *ConfirmationHandler {
	return &ConfirmationHandler{
		PacketBytes: network.DefaultPacketBytes,
		Observer:    nopObserver{},
		Log:         logrus.StandardLogger(),
		book:        book,
		offset:      float64(offset),
		stop:        stop,
		now:         now,
	}
}

// Register hooks OnConfirm into the medium for every node.
func (h *ConfirmationHandler) Register(reg ConfirmRegistrar, ns []*nodes.SensorNode) error {
	for _, n := range ns {
		node := n
		err := reg.SetConfirmCallback(node.Address, func(p network.ConfirmParams) {
			err := h.OnConfirm(node)
			switch {
			case err == nil:
				h.Observer.PacketConfirmed(node.ID, h.remaining(node.ID), p.ConfirmedTime-p.SentTime)
			case !errors.Is(err, ErrStopped):
				h.Log.WithField("node", node.ID).WithError(err).Error("confirmation dropped")
			}
		})
		if err != nil {
			return fmt.Errorf("register node %d: %w", node.ID, err)
		}
	}
	return nil
}

// OnConfirm applies one delivery confirmation for node: count it, charge it,
// then check for exhaustion.
func (h *ConfirmationHandler) OnConfirm(node *nodes.SensorNode) error {
	if h.termination != nil {
		return ErrStopped
	}

	ledger, err := h.book.Get(node.ID)
	if err != nil {
		return err
	}

	ledger.IncreaseSentCount()
	ledger.HarvestEnergy(h.PacketBytes)

	if ledger.Exhausted() {
		h.terminate(node, ledger)
	}
	return nil
}

func (h *ConfirmationHandler) terminate(node *nodes.SensorNode, ledger *energy.Ledger) {
	t := Termination{
		NodeID:  node.ID,
		Address: node.Address,
		Sent:    ledger.PacketsSent(),
		Position: nodes.Position{
			X: node.Position.X - h.offset,
			Y: node.Position.Y,
		},
		Energy: ledger.CurrentEnergy(),
		Time:   h.now(),
	}
	h.termination = &t

	h.stop()

	h.Log.WithFields(logrus.Fields{
		"sent": t.Sent,
		"node": t.NodeID,
		"x":    t.Position.X,
		"y":    t.Position.Y,
		"time": t.Time,
	}).Info("node out of energy, stopping")

	h.Observer.NodeExhausted(t.NodeID, t.Time)
	if h.OnTerminate != nil {
		h.OnTerminate(t)
	}
}

// Termination returns the captured report, if a node has failed.
func (h *ConfirmationHandler) Termination() (Termination, bool) {
	if h.termination == nil {
		return Termination{}, false
	}
	return *h.termination, true
}

func (h *ConfirmationHandler) remaining(id int) float64 {
	l, err := h.book.Get(id)
	if err != nil {
		return 0
	}
	return l.CurrentEnergy()
}
