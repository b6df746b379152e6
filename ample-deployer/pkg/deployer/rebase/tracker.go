package rebase

import (
	"errors"
	"fmt"
	"sync"
)

var ErrInvalidTransition = errors.New("invalid rebase state transition")

// State is the progress of one epoch's rebase.
type State int

const (
	PendingReports State = iota
	ReportsSubmitted
	RebaseSubmitted
	Confirmed
)

func (s State) String() string {
	switch s {
	case PendingReports:
		return "PENDING_REPORTS"
	case ReportsSubmitted:
		return "REPORTS_SUBMITTED"
	case RebaseSubmitted:
		return "REBASE_SUBMITTED"
	case Confirmed:
		return "CONFIRMED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Tracker records the state of each epoch. States only move forward, one step at a
// time; re-entering the current state is allowed so a reverted rebase can be resubmitted.
type Tracker struct {
	mu     sync.Mutex
	epochs map[uint64]State
}

func NewTracker() *Tracker {
	return &Tracker{epochs: make(map[uint64]State)}
}

func (t *Tracker) State(epoch uint64) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.epochs[epoch]
}

func (t *Tracker) Advance(epoch uint64, to State) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	from := t.epochs[epoch]
	if to < PendingReports || to > Confirmed {
		return fmt.Errorf("%w: unknown state %s", ErrInvalidTransition, to)
	}
	if from == Confirmed || (to != from && to != from+1) {
		return fmt.Errorf("%w: epoch %d from %s to %s", ErrInvalidTransition, epoch, from, to)
	}
	t.epochs[epoch] = to
	return nil
}
