package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekeep/gatekeep/internal/application"
	"github.com/gatekeep/gatekeep/internal/domain"
)

func TestFixService_Preview(t *testing.T) {
	reg := dispatcherRegistry(t)
	svc := application.NewFixService(application.NewModeDispatcher(reg, nil, nil), reg)

	previews, err := svc.Preview(domain.ModeInteractive, ".", []string{"main.go"}, false)
	require.NoError(t, err)

	byCheck := map[string]application.FixPreview{}
	for _, p := range previews {
		byCheck[p.Check] = p
	}
	assert.NotContains(t, byCheck, "eslint", "inactive for Go files")
	assert.True(t, byCheck["gofmt"].Apply)
	assert.False(t, byCheck["gofmt"].Confirm)
	assert.True(t, byCheck["rewrite"].Confirm)
	assert.Equal(t, domain.ConfidenceNeedsReview, byCheck["rewrite"].Confidence)
}

func TestFixService_PreviewNeverFixesInCI(t *testing.T) {
	reg := dispatcherRegistry(t)
	svc := application.NewFixService(application.NewModeDispatcher(reg, nil, nil), reg)

	previews, err := svc.Preview(domain.ModeCI, ".", []string{"main.go"}, true)
	require.NoError(t, err)
	require.NotEmpty(t, previews)
	for _, p := range previews {
		assert.False(t, p.Apply, p.Check)
	}
}
