package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netdevopsbr/proxbox/internal/netbox"
)

func TestRunReachesCompleted(t *testing.T) {
	records := newFakeRecords()
	tracker := NewTracker(records)

	run := tracker.Begin(context.Background(), netbox.SyncTypeDevices, nil)
	run.Journal().Section("Devices")
	run.Journal().Itemf("pve-01: device 1")
	run.Finish(context.Background(), nil)

	require.Len(t, records.processes, 1)
	assert.Equal(t, netbox.StatusCompleted, records.completed[run.process.ID])
	assert.Contains(t, records.journals[run.process.ID], "pve-01: device 1")
}

func TestRunReachesFailed(t *testing.T) {
	records := newFakeRecords()
	tracker := NewTracker(records)

	run := tracker.Begin(context.Background(), netbox.SyncTypeAll, nil)
	run.Finish(context.Background(), errors.New("topology unreachable"))

	assert.Equal(t, netbox.StatusFailed, records.completed[run.process.ID])
}

func TestFailedRunStillWritesJournal(t *testing.T) {
	records := newFakeRecords()
	tracker := NewTracker(records)

	run := tracker.Begin(context.Background(), netbox.SyncTypeDevices, nil)
	run.Finish(context.Background(), errors.New("tag: inventory unreachable"))

	journal, ok := records.journals[run.process.ID]
	require.True(t, ok, "a failed run records what went wrong")
	assert.Contains(t, journal, "### Failure")
	assert.Contains(t, journal, "tag: inventory unreachable")
}

func TestRunFinishesExactlyOnce(t *testing.T) {
	records := newFakeRecords()
	tracker := NewTracker(records)

	run := tracker.Begin(context.Background(), netbox.SyncTypeDevices, nil)
	run.Finish(context.Background(), errors.New("boom"))
	run.Finish(context.Background(), nil)

	assert.Equal(t, netbox.StatusFailed, records.completed[run.process.ID],
		"the first terminal state must stick")
}

func TestRunToleratesRecordingFailure(t *testing.T) {
	records := newFakeRecords()
	records.failCreate = errors.New("inventory unreachable")
	tracker := NewTracker(records)

	run := tracker.Begin(context.Background(), netbox.SyncTypeDevices, nil)
	require.NotNil(t, run)
	run.Finish(context.Background(), nil)

	assert.Empty(t, records.completed, "an unrecorded run has nothing to close")
}
