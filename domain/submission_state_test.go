package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to SubmissionState
		want     bool
	}{
		{SubmissionNotStarted, SubmissionValidating, true},
		{SubmissionValidating, SubmissionRejected, true},
		{SubmissionValidating, SubmissionSubmitting, true},
		{SubmissionSubmitting, SubmissionConfirmed, true},
		{SubmissionSubmitting, SubmissionFailed, true},
		{SubmissionNotStarted, SubmissionSubmitting, false},
		{SubmissionValidating, SubmissionConfirmed, false},
		{SubmissionConfirmed, SubmissionSubmitting, false},
		{SubmissionFailed, SubmissionValidating, false},
		{SubmissionRejected, SubmissionValidating, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransitionTo(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestSubmissionState_IsTerminal(t *testing.T) {
	assert.True(t, SubmissionConfirmed.IsTerminal())
	assert.True(t, SubmissionRejected.IsTerminal())
	assert.True(t, SubmissionFailed.IsTerminal())
	assert.False(t, SubmissionNotStarted.IsTerminal())
	assert.False(t, SubmissionValidating.IsTerminal())
	assert.False(t, SubmissionSubmitting.IsTerminal())
}
