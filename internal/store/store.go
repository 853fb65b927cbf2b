// Package store persists run outcomes.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"wsn-simulator/internal/field"
)

// Record is the flattened outcome of one run.
type Record struct {
	RunID      string
	Experiment string
	NodeCount  int
	Offset     int
	Width      int
	Height     int
	Compressed bool
	Terminated bool
	FailedNode int
	FailedSent int
	FailedX    float64
	FailedY    float64
	TotalSent  int
	Lifetime   float64
	CreatedAt  time.Time
}

// FromReport flattens a run report under an experiment name.
func FromReport(experiment string, r *field.Report) Record {
	rec := Record{
		RunID:      r.RunID.String(),
		Experiment: experiment,
		NodeCount:  r.NodeCount,
		Offset:     r.Offset,
		Width:      r.Width,
		Height:     r.Height,
		Compressed: r.Compressed,
		Terminated: r.Terminated,
		TotalSent:  r.TotalSent(),
		Lifetime:   r.SimTime,
		CreatedAt:  time.Now().UTC(),
	}
	if r.Terminated {
		rec.FailedNode = r.Termination.NodeID
		rec.FailedSent = r.Termination.Sent
		rec.FailedX = r.Termination.Position.X
		rec.FailedY = r.Termination.Position.Y
	}
	return rec
}

// ResultStore is where sweeps and single runs record their outcomes.
type ResultStore interface {
	Save(ctx context.Context, rec Record) error
	List(ctx context.Context, experiment string) ([]Record, error)
	Close() error
}

// MemoryStore keeps records in process.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make([]Record, 0)}
}

func (m *MemoryStore) Save(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// List returns the records of experiment, or all of them for "", oldest first.
func (m *MemoryStore) List(ctx context.Context, experiment string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		if experiment == "" || r.Experiment == experiment {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
