package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	allowed := map[ApplicationStatus][]ApplicationStatus{
		StatusDraft:       {StatusSubmitted},
		StatusSubmitted:   {StatusUnderReview, StatusWithdrawn},
		StatusUnderReview: {StatusAccepted, StatusRejected, StatusWithdrawn},
	}

	all := []ApplicationStatus{
		StatusDraft, StatusSubmitted, StatusUnderReview,
		StatusAccepted, StatusRejected, StatusWithdrawn,
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, target := range allowed[from] {
				if target == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusDraft.Terminal())
	assert.False(t, StatusSubmitted.Terminal())
	assert.False(t, StatusUnderReview.Terminal())
	assert.True(t, StatusAccepted.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusWithdrawn.Terminal())
}

func TestTerminalStatesHaveNoOutgoingTransitions(t *testing.T) {
	all := []ApplicationStatus{
		StatusDraft, StatusSubmitted, StatusUnderReview,
		StatusAccepted, StatusRejected, StatusWithdrawn,
	}
	for _, from := range all {
		if !from.Terminal() {
			continue
		}
		for _, to := range all {
			assert.False(t, from.CanTransitionTo(to), "terminal %s must not reach %s", from, to)
		}
	}
}

func TestValidApplicationStatus(t *testing.T) {
	assert.True(t, ValidApplicationStatus(StatusDraft))
	assert.True(t, ValidApplicationStatus(StatusWithdrawn))
	assert.False(t, ValidApplicationStatus("pending"))
	assert.False(t, ValidApplicationStatus(""))
}
