package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	return zap.New(core), logs
}

func TestReport_ExitAtLimit(t *testing.T) {
	r := NewReport[*testSystem](100, nil)

	assert.Equal(t, ActionNone, r.Decide(&fakeSim{moves: 99}, nil))
	assert.Equal(t, ActionExit, r.Decide(&fakeSim{moves: 100}, nil))
	assert.Equal(t, ActionExit, r.Decide(&fakeSim{moves: 250}, nil))
}

func TestReport_UnlimitedNeverExits(t *testing.T) {
	r := NewReport[*testSystem](0, nil)

	assert.Equal(t, ActionNone, r.Decide(&fakeSim{moves: 1 << 30}, nil))

	_, ok := r.RunPeriod()
	assert.False(t, ok, "no limit means no scheduling need")
}

func TestReport_PeriodIsRemainingDistance(t *testing.T) {
	r := NewReport[*testSystem](100, nil)

	r.Decide(&fakeSim{moves: 30}, nil)
	period, ok := r.RunPeriod()
	require.True(t, ok)
	assert.Equal(t, uint64(70), period)

	// At the limit the period clamps instead of going to zero.
	r.Decide(&fakeSim{moves: 100}, nil)
	period, ok = r.RunPeriod()
	require.True(t, ok)
	assert.Equal(t, uint64(1), period)
}

func TestReport_OnLogReportsProgress(t *testing.T) {
	logger, logs := newObservedLogger()
	r := NewReport[*testSystem](200, logger)

	r.OnLog(&fakeSim{moves: 50}, nil)

	entries := logs.FilterMessage("progress").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, uint64(50), fields["moves"])
	assert.Equal(t, int64(25), fields["percent"])
	assert.Contains(t, fields, "elapsed")
	assert.Contains(t, fields, "remaining")
}

func TestReport_OnSaveReportsRejectionRatio(t *testing.T) {
	logger, logs := newObservedLogger()
	r := NewReport[*testSystem](0, logger)

	r.OnSave(&fakeSim{moves: 200, rejected: 50}, nil)

	entries := logs.FilterMessage("rejection ratio").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, uint64(50), fields["rejected"])
	assert.Equal(t, uint64(200), fields["moves"])
	assert.Equal(t, 0.25, fields["ratio"])
}

func TestReport_OnSaveZeroMoves(t *testing.T) {
	logger, logs := newObservedLogger()
	r := NewReport[*testSystem](0, logger)

	r.OnSave(&fakeSim{}, nil)

	entries := logs.FilterMessage("rejection ratio").All()
	require.Len(t, entries, 1)
	assert.Equal(t, 0.0, entries[0].ContextMap()["ratio"])
}

func TestReport_StateRoundtrip(t *testing.T) {
	r := NewReport[*testSystem](500, nil)
	r.SetStartMoves(120)

	data, err := r.State()
	require.NoError(t, err)

	restored := NewReport[*testSystem](0, nil)
	require.NoError(t, restored.RestoreState(data))

	assert.Equal(t, uint64(500), restored.limit)
	assert.Equal(t, uint64(120), restored.startMoves)
	assert.Equal(t, ActionExit, restored.Decide(&fakeSim{moves: 500}, nil))
}

func TestReport_RestoreStateRejectsGarbage(t *testing.T) {
	r := NewReport[*testSystem](0, nil)
	assert.Error(t, r.RestoreState([]byte("{")))
}
