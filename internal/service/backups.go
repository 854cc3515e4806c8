package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/thoas/go-funk"

	"github.com/netdevopsbr/proxbox/internal/netbox"
	"github.com/netdevopsbr/proxbox/internal/proxmox"
	"github.com/netdevopsbr/proxbox/pkg/metrics"
)

// BackupOptions narrows a backup pass. Empty fields mean no filter;
// DeleteNonexistent additionally removes records whose volume is gone.
type BackupOptions struct {
	Node              string
	Storage           string
	DeleteNonexistent bool
}

// BackupSummary is the aggregate outcome of one backup pass.
type BackupSummary struct {
	Processed  int          `json:"processed"`
	Created    int          `json:"created"`
	Duplicates int          `json:"duplicates"`
	Failed     int          `json:"failed"`
	Deleted    int          `json:"deleted"`
	Results    []UnitResult `json:"results"`
}

// backupUnit is one backup volume found on one node's storage.
type backupUnit struct {
	Cluster string
	Node    string
	Storage string
	Content proxmox.StorageContent
}

// SyncBackups synchronizes backup volumes into backup records. Volumes
// the inventory already tracks count as duplicates, not failures.
func (s *SyncService) SyncBackups(ctx context.Context, rep Reporter, opts BackupOptions) (summary BackupSummary, err error) {
	run := s.tracker.Begin(ctx, netbox.SyncTypeVMBackups, nil)
	defer func() { run.Finish(ctx, err) }()
	defer s.clearCache()

	return s.syncBackups(ctx, rep, run.Journal(), opts)
}

func (s *SyncService) syncBackups(ctx context.Context, rep Reporter, journal *Recorder, opts BackupOptions) (BackupSummary, error) {
	units, err := s.collectBackupUnits(ctx, opts)
	if err != nil {
		return BackupSummary{}, err
	}

	summary := BackupSummary{Results: []UnitResult{}}
	var mu sync.Mutex

	// Batching bounds the concurrent writes against the inventory.
	batches := funk.Chunk(units, s.batchSize).([][]backupUnit)
	for _, batch := range batches {
		var wg sync.WaitGroup
		for _, unit := range batch {
			wg.Add(1)
			go func(unit backupUnit) {
				defer wg.Done()
				backup, duplicate, err := s.syncOneBackup(ctx, unit)

				mu.Lock()
				defer mu.Unlock()
				summary.Processed++
				result := UnitResult{Name: unit.Content.VolID, Err: err}
				switch {
				case duplicate:
					summary.Duplicates++
					metrics.IncreaseDuplicateBackupsTotalMetric()
				case err != nil:
					summary.Failed++
					metrics.IncreaseSyncUnitFailuresTotalMetric(netbox.SyncTypeVMBackups)
					s.log.Errorf("failed to sync backup %s: %v", unit.Content.VolID, err)
				default:
					summary.Created++
					result.Entity = netbox.Entity{ID: backup.ID, Name: backup.VolumeID}
					rep.Report(created("backup", backup))
				}
				summary.Results = append(summary.Results, result)
			}(unit)
		}
		wg.Wait()
	}

	if opts.DeleteNonexistent {
		deleted, err := s.deleteNonexistentBackups(ctx, units)
		if err != nil {
			s.log.Warnf("backup reconciliation incomplete: %v", err)
		}
		summary.Deleted = deleted
	}

	journal.Section("Backups")
	journal.Itemf("processed %d, created %d, duplicates %d, failed %d, deleted %d",
		summary.Processed, summary.Created, summary.Duplicates, summary.Failed, summary.Deleted)
	rep.Report(finished("backup"))
	return summary, nil
}

// collectBackupUnits walks every reachable cluster and lists the backup
// volumes of every backup-capable storage, applying the option filters.
func (s *SyncService) collectBackupUnits(ctx context.Context, opts BackupOptions) ([]backupUnit, error) {
	units := []backupUnit{}
	for _, cluster := range s.topology.Clusters(ctx) {
		storages, err := s.topology.Storages(ctx, cluster.Name)
		if err != nil {
			return nil, chainStep("storages", err)
		}
		for _, storage := range storages {
			if !strings.Contains(storage.Content, "backup") {
				continue
			}
			if opts.Storage != "" && storage.Name != opts.Storage {
				continue
			}
			for _, node := range storageNodes(storage.Nodes, cluster.Nodes) {
				if opts.Node != "" && node != opts.Node {
					continue
				}
				contents, err := s.topology.StorageContent(ctx, cluster.Name, node, storage.Name, "backup", 0)
				if err != nil {
					s.log.Warnf("skipping storage %s on node %s: %v", storage.Name, node, err)
					continue
				}
				for _, content := range contents {
					units = append(units, backupUnit{
						Cluster: cluster.Name,
						Node:    node,
						Storage: storage.Name,
						Content: content,
					})
				}
			}
		}
	}
	return units, nil
}

// storageNodes expands a storage's node restriction. An empty
// restriction means the storage is visible on every node of the cluster.
func storageNodes(restriction string, clusterNodes []proxmox.Node) []string {
	if restriction == "" {
		names := make([]string, 0, len(clusterNodes))
		for _, node := range clusterNodes {
			names = append(names, node.Name)
		}
		return names
	}
	nodes := []string{}
	for _, name := range strings.Split(restriction, ",") {
		if name = strings.TrimSpace(name); name != "" {
			nodes = append(nodes, name)
		}
	}
	return nodes
}

// syncOneBackup records one backup volume. The owning VM is matched by
// its hypervisor vmid when the inventory knows it.
func (s *SyncService) syncOneBackup(ctx context.Context, unit backupUnit) (netbox.Backup, bool, error) {
	vmID := 0
	if unit.Content.VMID != 0 {
		vm, err := s.records.VirtualMachineByVMID(ctx, unit.Content.VMID)
		if err != nil && !errors.Is(err, netbox.ErrNotFound) {
			return netbox.Backup{}, false, err
		}
		vmID = vm.ID
	}

	params := netbox.BackupParams{
		Storage:          unit.Storage,
		VirtualMachineID: vmID,
		SubType:          unit.Content.SubType,
		CreationTime:     unit.Content.CTime,
		Size:             unit.Content.Size,
		VolumeID:         unit.Content.VolID,
		Notes:            unit.Content.Notes,
		VMID:             unit.Content.VMID,
		Format:           unit.Content.Format,
	}
	if unit.Content.Verification != nil {
		params.VerificationState = unit.Content.Verification.State
		params.VerificationUPID = unit.Content.Verification.UPID
	}

	backup, err := s.records.CreateBackup(ctx, params)
	if err != nil {
		if netbox.IsDuplicate(err) {
			return netbox.Backup{}, true, nil
		}
		return netbox.Backup{}, false, err
	}
	return backup, false, nil
}

// deleteNonexistentBackups removes backup records whose volume no
// longer exists on any storage. Per-record failures are logged and
// skipped so one stuck record never blocks the reconciliation.
func (s *SyncService) deleteNonexistentBackups(ctx context.Context, units []backupUnit) (int, error) {
	existing := make(map[string]bool, len(units))
	for _, unit := range units {
		existing[unit.Content.VolID] = true
	}

	tracked, err := s.records.ListBackups(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, backup := range tracked {
		if existing[backup.VolumeID] {
			continue
		}
		if err := s.records.DeleteBackup(ctx, backup.ID); err != nil {
			s.log.Warnf("failed to delete stale backup record %d (%s): %v", backup.ID, backup.VolumeID, err)
			continue
		}
		deleted++
		metrics.IncreaseBackupsReconciledTotalMetric()
	}
	return deleted, nil
}
