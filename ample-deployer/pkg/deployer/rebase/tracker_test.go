package rebase

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackerAdvance(t *testing.T) {
	tr := NewTracker()
	require.Equal(t, PendingReports, tr.State(3))

	require.NoError(t, tr.Advance(3, ReportsSubmitted))
	require.NoError(t, tr.Advance(3, RebaseSubmitted))
	// resubmitting after a revert stays in place
	require.NoError(t, tr.Advance(3, RebaseSubmitted))
	require.NoError(t, tr.Advance(3, Confirmed))
	require.Equal(t, Confirmed, tr.State(3))

	// other epochs are independent
	require.Equal(t, PendingReports, tr.State(4))
}

func TestTrackerRejectsInvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		path []State
		to   State
	}{
		{"backward", []State{ReportsSubmitted, RebaseSubmitted}, ReportsSubmitted},
		{"to start", []State{ReportsSubmitted}, PendingReports},
		{"skip", nil, RebaseSubmitted},
		{"after confirmed", []State{ReportsSubmitted, RebaseSubmitted, Confirmed}, Confirmed},
		{"unknown", nil, State(9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			for _, s := range tt.path {
				require.NoError(t, tr.Advance(0, s))
			}
			before := tr.State(0)
			require.ErrorIs(t, tr.Advance(0, tt.to), ErrInvalidTransition)
			require.Equal(t, before, tr.State(0))
		})
	}
}

func TestStateString(t *testing.T) {
	require.Equal(t, "REBASE_SUBMITTED", RebaseSubmitted.String())
	require.Equal(t, "State(7)", State(7).String())
}
