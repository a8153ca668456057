package workflow

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableApply(t *testing.T) {
	table := NewTable("document request").
		Allow("SENT", "submit", "SUBMITTED").
		Allow("SENT", "cancel", "CANCELLED")

	tests := []struct {
		name    string
		from    State
		action  Action
		want    State
		wantErr bool
	}{
		{name: "submit while sent", from: "SENT", action: "submit", want: "SUBMITTED"},
		{name: "cancel while sent", from: "SENT", action: "cancel", want: "CANCELLED"},
		{name: "cancel after submitted", from: "SUBMITTED", action: "cancel", wantErr: true},
		{name: "submit after cancelled", from: "CANCELLED", action: "submit", wantErr: true},
		{name: "unknown action", from: "SENT", action: "reopen", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Apply(tt.from, tt.action)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsTransition(err))
				// Failed transitions leave the state untouched.
				assert.Equal(t, tt.from, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTableTerminal(t *testing.T) {
	table := NewTable("interview").
		Allow("SCHEDULED", "reschedule", "RESCHEDULED").
		Allow("RESCHEDULED", "reschedule", "RESCHEDULED").
		Allow("SCHEDULED", "cancel", "CANCELLED").
		Allow("RESCHEDULED", "cancel", "CANCELLED")

	assert.False(t, table.Terminal("SCHEDULED"))
	assert.False(t, table.Terminal("RESCHEDULED"))
	assert.True(t, table.Terminal("CANCELLED"))
	assert.True(t, table.Terminal("COMPLETED"))
}

func TestTransitionErrorMessage(t *testing.T) {
	table := NewTable("document request").Allow("SENT", "cancel", "CANCELLED")

	_, err := table.Apply("SUBMITTED", "cancel")
	require.Error(t, err)
	assert.EqualError(t, err, "document request: cannot cancel while SUBMITTED")
}

func TestInFlightGuard(t *testing.T) {
	guard := NewInFlightGuard()
	docID := uuid.New()
	otherID := uuid.New()

	require.NoError(t, guard.Begin(docID, "verify", "reject"))

	t.Run("same op same entity blocked", func(t *testing.T) {
		err := guard.Begin(docID, "verify", "reject")
		assert.ErrorIs(t, err, ErrOperationInFlight)
	})

	t.Run("excluded op same entity blocked", func(t *testing.T) {
		err := guard.Begin(docID, "reject", "verify")
		assert.ErrorIs(t, err, ErrOperationInFlight)
	})

	t.Run("same op different entity allowed", func(t *testing.T) {
		require.NoError(t, guard.Begin(otherID, "verify", "reject"))
		guard.End(otherID, "verify")
	})

	t.Run("end releases the entity", func(t *testing.T) {
		guard.End(docID, "verify")
		assert.False(t, guard.InFlight(docID, "verify"))
		require.NoError(t, guard.Begin(docID, "reject", "verify"))
		guard.End(docID, "reject")
	})
}

func TestOutcome(t *testing.T) {
	patched := Patch("entity")
	assert.False(t, patched.NeedsRefetch())
	assert.Equal(t, "entity", patched.Entity())

	refetch := RequiresRefetch()
	assert.True(t, refetch.NeedsRefetch())
	assert.Nil(t, refetch.Entity())
}
