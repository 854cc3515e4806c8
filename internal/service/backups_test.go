package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netdevopsbr/proxbox/internal/netbox"
	"github.com/netdevopsbr/proxbox/internal/proxmox"
)

func backupTopology() *fakeTopology {
	topology := testTopology()
	topology.storages = map[string][]proxmox.Storage{
		"prod": {
			{Name: "local", Type: "dir", Content: "backup,iso,vztmpl", Nodes: "pve-01"},
			{Name: "ceph-vm", Type: "rbd", Content: "images"},
		},
	}
	topology.contents = map[string][]proxmox.StorageContent{
		"pve-01/local": {
			{VolID: "local:backup/vzdump-qemu-100-a.vma.zst", Content: "backup", Format: "vma.zst", SubType: "qemu", Size: 1024, CTime: 1700000000, VMID: 100},
			{VolID: "local:backup/vzdump-lxc-101-a.tar.zst", Content: "backup", Format: "tar.zst", SubType: "lxc", Size: 512, CTime: 1700000100, VMID: 101,
				Verification: &proxmox.BackupVerification{UPID: "UPID:pve-01:0001", State: "ok"}},
		},
	}
	return topology
}

func TestSyncBackupsRecordsVolumes(t *testing.T) {
	records := newFakeRecords()
	records.vmsByVMID[100] = netbox.Entity{ID: 42, Name: "web-01"}
	svc := newTestService(backupTopology(), newFakeInventory(), records)

	summary, err := svc.SyncBackups(context.Background(), NopReporter{}, BackupOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.Created)
	assert.Zero(t, summary.Failed)

	require.Len(t, records.backups, 2)
	byVolume := map[string]netbox.BackupParams{}
	for _, params := range records.backups {
		byVolume[params.VolumeID] = params
	}

	qemu := byVolume["local:backup/vzdump-qemu-100-a.vma.zst"]
	assert.Equal(t, 42, qemu.VirtualMachineID, "a known vmid links the owning record")
	assert.Equal(t, "local", qemu.Storage)

	lxc := byVolume["local:backup/vzdump-lxc-101-a.tar.zst"]
	assert.Zero(t, lxc.VirtualMachineID, "an unknown vmid leaves the record unlinked")
	assert.Equal(t, "ok", lxc.VerificationState)
	assert.Equal(t, "UPID:pve-01:0001", lxc.VerificationUPID)
}

func TestSyncBackupsCountsDuplicates(t *testing.T) {
	records := newFakeRecords()
	records.duplicateIDs["local:backup/vzdump-qemu-100-a.vma.zst"] = true
	svc := newTestService(backupTopology(), newFakeInventory(), records)

	summary, err := svc.SyncBackups(context.Background(), NopReporter{}, BackupOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Zero(t, summary.Failed, "a duplicate is not a failure")
}

func TestSyncBackupsStorageFilter(t *testing.T) {
	records := newFakeRecords()
	svc := newTestService(backupTopology(), newFakeInventory(), records)

	summary, err := svc.SyncBackups(context.Background(), NopReporter{}, BackupOptions{Storage: "missing"})
	require.NoError(t, err)
	assert.Zero(t, summary.Processed)
}

func TestSyncBackupsDeletesNonexistent(t *testing.T) {
	records := newFakeRecords()
	records.tracked = []netbox.Backup{
		{ID: 1, VolumeID: "local:backup/vzdump-qemu-100-a.vma.zst"},
		{ID: 2, VolumeID: "local:backup/vzdump-qemu-999-gone.vma.zst"},
	}
	svc := newTestService(backupTopology(), newFakeInventory(), records)

	summary, err := svc.SyncBackups(context.Background(), NopReporter{}, BackupOptions{DeleteNonexistent: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Deleted)
	assert.Equal(t, []int{2}, records.deleted, "only the vanished volume's record is removed")
}

func TestStorageNodesRestriction(t *testing.T) {
	clusterNodes := []proxmox.Node{{Name: "pve-01"}, {Name: "pve-02"}}

	assert.Equal(t, []string{"pve-01", "pve-02"}, storageNodes("", clusterNodes))
	assert.Equal(t, []string{"pve-02"}, storageNodes("pve-02", clusterNodes))
	assert.Equal(t, []string{"pve-01", "pve-03"}, storageNodes("pve-01, pve-03", clusterNodes))
}
