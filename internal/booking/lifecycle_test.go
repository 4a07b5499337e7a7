package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusApproved},
		{StatusPending, StatusRejected},
		{StatusPending, StatusCancelled},
		{StatusApproved, StatusCheckedIn},
		{StatusApproved, StatusCancelled},
		{StatusApproved, StatusCompleted},
		{StatusCheckedIn, StatusCompleted},
	}

	for _, tr := range allowed {
		assert.Truef(t, CanTransition(tr.from, tr.to), "%s -> %s should be allowed", tr.from, tr.to)
	}

	forbidden := []struct{ from, to Status }{
		{StatusPending, StatusCheckedIn},
		{StatusPending, StatusCompleted},
		{StatusCheckedIn, StatusCancelled},
		{StatusCheckedIn, StatusApproved},
		{StatusRejected, StatusApproved},
		{StatusCancelled, StatusPending},
		{StatusCompleted, StatusCheckedIn},
		{StatusApproved, StatusPending},
	}

	for _, tr := range forbidden {
		assert.Falsef(t, CanTransition(tr.from, tr.to), "%s -> %s should be forbidden", tr.from, tr.to)
	}
}

func TestTerminalStatusesHaveNoOutgoingEdges(t *testing.T) {
	all := []Status{
		StatusPending, StatusApproved, StatusRejected,
		StatusCheckedIn, StatusCompleted, StatusCancelled,
	}

	for _, from := range all {
		if !from.IsTerminal() {
			continue
		}
		for _, to := range all {
			assert.Falsef(t, CanTransition(from, to), "terminal status %s must not transition to %s", from, to)
		}
	}

	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusApproved.IsTerminal())
	assert.False(t, StatusCheckedIn.IsTerminal())
}

func TestStatusIsLive(t *testing.T) {
	assert.True(t, StatusPending.IsLive())
	assert.True(t, StatusApproved.IsLive())
	assert.True(t, StatusCheckedIn.IsLive())
	assert.False(t, StatusRejected.IsLive())
	assert.False(t, StatusCancelled.IsLive())
	assert.False(t, StatusCompleted.IsLive())
}

func TestStatusIsValid(t *testing.T) {
	assert.True(t, StatusPending.IsValid())
	assert.False(t, Status("confirmed").IsValid())
	assert.False(t, Status("").IsValid())
}
