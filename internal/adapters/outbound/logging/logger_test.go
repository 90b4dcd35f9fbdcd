package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekeep/gatekeep/internal/adapters/outbound/logging"
)

func TestNew_JSONCarriesRunAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, logging.FormatJSON, slog.LevelInfo, "hook")

	ctx := logging.WithRunID(context.Background(), "r-1")
	log.InfoContext(ctx, "check finished", "check", "gofmt")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "r-1", rec["run_id"])
	assert.Equal(t, "hook", rec["mode"])
	assert.Equal(t, "gatekeep", rec["service"])
	assert.Equal(t, "gofmt", rec["check"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, logging.FormatText, slog.LevelWarn, "")
	log.Info("hidden")
	assert.Empty(t, buf.String())
	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestRunHandler_GroupsKeepServiceAtTopLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, logging.FormatJSON, slog.LevelInfo, "ci").WithGroup("sched")
	log.Info("tier finished", "tier", 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "ci", rec["mode"])
	assert.Contains(t, rec, "sched")
}

func TestParseLevel(t *testing.T) {
	l, err := logging.ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	_, err = logging.ParseLevel("chatty")
	assert.Error(t, err)
}
