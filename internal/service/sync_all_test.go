package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netdevopsbr/proxbox/internal/netbox"
)

func TestSyncAllRunsDevicesThenVMsUnderOneRun(t *testing.T) {
	topology := backupTopology()
	inventory := newFakeInventory()
	records := newFakeRecords()
	reporter := &collectReporter{}
	svc := newTestService(topology, inventory, records)

	err := svc.SyncAll(context.Background(), reporter)
	require.NoError(t, err)

	require.Len(t, records.processes, 1, "a full pass is a single tracked run")
	process := records.processes[0]
	assert.Equal(t, netbox.SyncTypeAll, process.SyncType)
	assert.Equal(t, netbox.StatusCompleted, records.completed[process.ID])

	assert.Equal(t, 1, inventory.callCount("device/pve-01"))
	assert.Equal(t, 1, inventory.callCount("vm/web-01"))
	assert.Equal(t, 2, reporter.endEvents(), "each pass closes with its own end event")

	journal := records.journals[process.ID]
	assert.Contains(t, journal, "### Devices")
	assert.Contains(t, journal, "### Virtual Machines")
}

func TestSyncAllLeavesBackupsToTheirOwnPass(t *testing.T) {
	topology := backupTopology()
	records := newFakeRecords()
	svc := newTestService(topology, newFakeInventory(), records)

	require.NoError(t, svc.SyncAll(context.Background(), NopReporter{}))
	assert.Empty(t, records.backups, "a full update syncs devices and virtual machines only")
}
