// Package energy tracks the stored energy and confirmed transmissions of each
// sensor node.
package energy

import (
	"errors"
	"fmt"
	"sort"
)

const (
	// DefaultInitialEnergy is the starting balance of every node, in joules.
	DefaultInitialEnergy = 2.0
	// DefaultCostPerByte is the energy charged per confirmed payload byte.
	DefaultCostPerByte = 0.005
)

// ErrUnknownNode is returned when a ledger is looked up for an identity the
// book was never given.
var ErrUnknownNode = errors.New("unknown node")

// Ledger is the energy balance and confirmed-send counter of one node.
// It is plain bookkeeping: the balance may go negative and callers check it.
type Ledger struct {
	balance     float64
	sentCount   int
	costPerByte float64
}

func NewLedger(initial float64) *Ledger {
	return NewLedgerWithCost(initial, DefaultCostPerByte)
}

func NewLedgerWithCost(initial, costPerByte float64) *Ledger {
	return &Ledger{
		balance:     initial,
		costPerByte: costPerByte,
	}
}

// HarvestEnergy deducts the cost of transmitting bytes.
func (l *Ledger) HarvestEnergy(bytes int) {
	// The explicit conversion keeps the product rounded before subtraction.
	cost := float64(l.costPerByte * float64(bytes))
	l.balance -= cost
}

func (l *Ledger) IncreaseSentCount() {
	l.sentCount++
}

func (l *Ledger) CurrentEnergy() float64 {
	return l.balance
}

func (l *Ledger) PacketsSent() int {
	return l.sentCount
}

// Exhausted reports whether the balance has reached zero or below.
func (l *Ledger) Exhausted() bool {
	return l.balance <= 0
}

// Book maps stable node identities to their ledgers.
type Book struct {
	ledgers map[int]*Ledger
}

func NewBook() *Book {
	return &Book{ledgers: make(map[int]*Ledger)}
}

// Open creates a ledger for id. Opening the same id twice is an error.
func (b *Book) Open(id int, initial, costPerByte float64) (*Ledger, error) {
	if _, exists := b.ledgers[id]; exists {
		return nil, fmt.Errorf("ledger for node %d already open", id)
	}
	l := NewLedgerWithCost(initial, costPerByte)
	b.ledgers[id] = l
	return l, nil
}

func (b *Book) Get(id int) (*Ledger, error) {
	l, ok := b.ledgers[id]
	if !ok {
		return nil, fmt.Errorf("ledger lookup for node %d: %w", id, ErrUnknownNode)
	}
	return l, nil
}

func (b *Book) Len() int {
	return len(b.ledgers)
}

// IDs returns every identity in ascending order.
func (b *Book) IDs() []int {
	ids := make([]int, 0, len(b.ledgers))
	for id := range b.ledgers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
