package engine

import (
	"cmp"
	"math"

	"golang.org/x/exp/slices"
)

type Event struct {
	Time   float64
	Action func()
	seq    uint64
}

// Manages the virtual clock and the event schedule.
// Events at the same instant run in submission order.
type Simulation struct {
	Now     float64
	events  []Event
	nextSeq uint64
	stopped bool
}

// Initialises a simulation environment
func NewSimulation() *Simulation {
	return &Simulation{
		Now:    0.0,
		events: []Event{},
	}
}

func (s *Simulation) Schedule(delay float64, action func()) {
	s.ScheduleAt(s.Now+delay, action)
}

// ScheduleAt arms a one-shot action at an absolute simulated time.
// Times in the past and anything scheduled after Stop are ignored.
func (s *Simulation) ScheduleAt(absoluteTime float64, action func()) {
	if s.stopped || absoluteTime < s.Now || math.IsNaN(absoluteTime) {
		return
	}

	newEvent := Event{
		Time:   absoluteTime,
		Action: action,
		seq:    s.nextSeq,
	}
	s.nextSeq++

	s.events = append(s.events, newEvent)

	slices.SortStableFunc(s.events, func(a, b Event) int {
		if c := cmp.Compare(a.Time, b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
}

// Stop halts event processing. The event that called Stop finishes, then every
// queued event is discarded.
func (s *Simulation) Stop() {
	s.stopped = true
}

func (s *Simulation) Stopped() bool {
	return s.stopped
}

// Run processes events up to and including time until, or until Stop.
func (s *Simulation) Run(until float64) {
	for len(s.events) > 0 && !s.stopped {
		event := s.events[0]

		if event.Time > until {
			break
		}

		s.events = s.events[1:]
		s.Now = event.Time
		event.Action()
	}

	if s.stopped {
		s.Clear()
	}
}

// RunAll processes events until the queue is empty or Stop is called.
func (s *Simulation) RunAll() {
	s.Run(math.Inf(1))
}

func (s *Simulation) RunSteps(steps int) {
	for i := 0; i < steps && len(s.events) > 0 && !s.stopped; i++ {
		event := s.events[0]
		s.events = s.events[1:]
		s.Now = event.Time
		event.Action()
	}

	if s.stopped {
		s.Clear()
	}
}

func (s *Simulation) PendingEvents() int {
	return len(s.events)
}

func (s *Simulation) NextEventTime() float64 {
	if len(s.events) == 0 {
		return -1
	}
	return s.events[0].Time
}

func (s *Simulation) Clear() {
	s.events = []Event{}
}

// Destroy releases the schedule after a run. The clock keeps its final value.
func (s *Simulation) Destroy() {
	s.Clear()
	s.stopped = true
}

func (s *Simulation) Reset() {
	s.Now = 0.0
	s.events = []Event{}
	s.nextSeq = 0
	s.stopped = false
}
