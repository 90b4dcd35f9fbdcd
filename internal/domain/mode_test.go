package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekeep/gatekeep/internal/domain"
)

func TestParseMode(t *testing.T) {
	for _, m := range domain.ValidModes {
		got, err := domain.ParseMode(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := domain.ParseMode("batch")
	assert.Error(t, err)
}

func TestProfileFor_DispatchTable(t *testing.T) {
	tests := []struct {
		mode     domain.Mode
		output   domain.OutputShape
		blocking bool
		fix      domain.FixPolicy
	}{
		{domain.ModeHook, domain.OutputMinimal, false, domain.FixAlwaysSafe},
		{domain.ModeCI, domain.OutputTestReport, true, domain.FixNever},
		{domain.ModeInteractive, domain.OutputColored, true, domain.FixReviewed},
		{domain.ModePipeline, domain.OutputDocument, true, domain.FixOnRequest},
		{domain.ModeAssistant, domain.OutputEnvelope, true, domain.FixOnRequest},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			p := domain.ProfileFor(tt.mode)
			assert.Equal(t, tt.mode, p.Mode)
			assert.Equal(t, tt.output, p.Output)
			assert.Equal(t, tt.blocking, p.Blocking)
			assert.Equal(t, tt.fix, p.Fix)
		})
	}
	assert.Equal(t, domain.ModeInteractive, domain.ProfileFor("bogus").Mode)
}

func TestFixPolicy_Decide(t *testing.T) {
	safe, usual, review := domain.ConfidenceAlwaysSafe, domain.ConfidenceUsuallySafe, domain.ConfidenceNeedsReview

	assert.Equal(t, domain.FixDecision{}, domain.FixNever.Decide(safe, true))

	assert.Equal(t, domain.FixDecision{}, domain.FixOnRequest.Decide(safe, false))
	assert.Equal(t, domain.FixDecision{Apply: true}, domain.FixOnRequest.Decide(safe, true))
	assert.Equal(t, domain.FixDecision{}, domain.FixOnRequest.Decide(usual, true))

	assert.Equal(t, domain.FixDecision{Apply: true}, domain.FixAlwaysSafe.Decide(safe, false))
	assert.Equal(t, domain.FixDecision{}, domain.FixAlwaysSafe.Decide(usual, false))

	assert.Equal(t, domain.FixDecision{Apply: true}, domain.FixReviewed.Decide(safe, false))
	assert.Equal(t, domain.FixDecision{Apply: true}, domain.FixReviewed.Decide(usual, false))
	assert.Equal(t, domain.FixDecision{Apply: true, Confirm: true}, domain.FixReviewed.Decide(review, false))
}
