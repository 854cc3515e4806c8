// Package service orchestrates synchronization passes: it walks the
// hypervisor topology, resolves the matching inventory records and
// tracks every pass as a run record with a journal report.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/netdevopsbr/proxbox/internal/cache"
	"github.com/netdevopsbr/proxbox/internal/netbox"
	"github.com/netdevopsbr/proxbox/internal/proxmox"
)

// Topology is the hypervisor-side read surface the sync passes walk.
type Topology interface {
	Clusters(ctx context.Context) []proxmox.Cluster
	Resources(ctx context.Context) map[string][]proxmox.Resource
	VMConfig(ctx context.Context, cluster, node, kind string, vmid int) (proxmox.VMConfig, error)
	NodeNetwork(ctx context.Context, cluster, node string) ([]proxmox.NodeInterface, error)
	Storages(ctx context.Context, cluster string) ([]proxmox.Storage, error)
	StorageContent(ctx context.Context, cluster, node, storage, content string, vmid int) ([]proxmox.StorageContent, error)
}

// Inventory is the create-or-fetch surface the sync chains resolve
// records through.
type Inventory interface {
	EnsureTag(ctx context.Context) (netbox.Entity, error)
	EnsureCustomFields(ctx context.Context) error
	EnsureClusterType(ctx context.Context, name, slug string, tags []int) (netbox.Entity, error)
	EnsureCluster(ctx context.Context, name string, typeID int, tags []int) (netbox.Entity, error)
	EnsureSite(ctx context.Context, tags []int) (netbox.Entity, error)
	EnsureManufacturer(ctx context.Context, tags []int) (netbox.Entity, error)
	EnsureDeviceType(ctx context.Context, manufacturerID int, tags []int) (netbox.Entity, error)
	EnsureDeviceRole(ctx context.Context, tags []int) (netbox.Entity, error)
	EnsureRole(ctx context.Context, profile netbox.RoleProfile, tags []int) (netbox.Entity, error)
	EnsureDevice(ctx context.Context, params netbox.DeviceParams) (netbox.Entity, error)
	EnsureInterface(ctx context.Context, params netbox.InterfaceParams) (netbox.Entity, error)
	EnsureIPAddress(ctx context.Context, address, objectType string, objectID int, tags []int) (netbox.Entity, error)
	EnsureVMInterface(ctx context.Context, params netbox.VMInterfaceParams) (netbox.Entity, error)
	EnsureVirtualMachine(ctx context.Context, params netbox.VirtualMachineParams) (netbox.Entity, error)
}

// Records is the run tracking and backup record surface.
type Records interface {
	CreateSyncProcess(ctx context.Context, syncType string, tags []int) (netbox.SyncProcess, error)
	CompleteSyncProcess(ctx context.Context, id int, status string, runtime time.Duration) error
	CreateJournalEntry(ctx context.Context, objectID int, comments string) error
	ListSyncProcesses(ctx context.Context) ([]netbox.SyncProcess, error)
	CreateBackup(ctx context.Context, params netbox.BackupParams) (netbox.Backup, error)
	ListBackups(ctx context.Context) ([]netbox.Backup, error)
	DeleteBackup(ctx context.Context, id int) error
	VirtualMachineByVMID(ctx context.Context, vmid int) (netbox.Entity, error)
}

// UnitResult is the outcome of one independent sync unit. A failed unit
// never aborts its siblings; callers inspect Err per unit.
type UnitResult struct {
	Name   string        `json:"name"`
	Entity netbox.Entity `json:"entity,omitempty"`
	Err    error         `json:"-"`
}

// Failed returns the subset of results whose unit failed.
func Failed(results []UnitResult) []UnitResult {
	failed := []UnitResult{}
	for _, result := range results {
		if result.Err != nil {
			failed = append(failed, result)
		}
	}
	return failed
}

// SyncService runs synchronization passes against one hypervisor
// topology and one inventory endpoint. A service is built per request
// from the persisted endpoint records.
type SyncService struct {
	topology  Topology
	inventory Inventory
	records   Records
	tracker   *Tracker
	cache     *cache.Cache
	batchSize int
	log       *zap.SugaredLogger
}

func NewSyncService(topology Topology, inventory Inventory, records Records, c *cache.Cache, backupBatchSize int) *SyncService {
	if backupBatchSize <= 0 {
		backupBatchSize = 10
	}
	return &SyncService{
		topology:  topology,
		inventory: inventory,
		records:   records,
		tracker:   NewTracker(records),
		cache:     c,
		batchSize: backupBatchSize,
		log:       zap.S().Named("sync"),
	}
}

// ListSyncProcesses returns the recorded runs, newest last.
func (s *SyncService) ListSyncProcesses(ctx context.Context) ([]netbox.SyncProcess, error) {
	return s.records.ListSyncProcesses(ctx)
}

// SyncAll runs the device pass then the virtual machine pass under a
// single tracked run. Backups have their own endpoints and are not part
// of a full update.
func (s *SyncService) SyncAll(ctx context.Context, rep Reporter) (err error) {
	run := s.tracker.Begin(ctx, netbox.SyncTypeAll, nil)
	defer func() { run.Finish(ctx, err) }()
	defer s.clearCache()

	if _, err = s.syncDevices(ctx, rep, run.Journal(), ""); err != nil {
		return err
	}
	_, err = s.syncVirtualMachines(ctx, rep, run.Journal())
	return err
}

// clearCache drops the response cache after an entity-creating pass.
func (s *SyncService) clearCache() {
	if s.cache == nil {
		return
	}
	if err := s.cache.Clear(); err != nil {
		s.log.Warnf("failed to clear response cache: %v", err)
	}
}
