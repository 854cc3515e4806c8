package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/netdevopsbr/proxbox/internal/netbox"
	"github.com/netdevopsbr/proxbox/internal/proxmox"
)

// fakeTopology serves a fixed topology snapshot.
type fakeTopology struct {
	clusters  []proxmox.Cluster
	resources map[string][]proxmox.Resource
	configs   map[int]proxmox.VMConfig
	networks  map[string][]proxmox.NodeInterface
	storages  map[string][]proxmox.Storage
	contents  map[string][]proxmox.StorageContent
}

func (f *fakeTopology) Clusters(context.Context) []proxmox.Cluster {
	return f.clusters
}

func (f *fakeTopology) Resources(context.Context) map[string][]proxmox.Resource {
	return f.resources
}

func (f *fakeTopology) VMConfig(_ context.Context, _, _, _ string, vmid int) (proxmox.VMConfig, error) {
	cfg, ok := f.configs[vmid]
	if !ok {
		return proxmox.VMConfig{}, nil
	}
	return cfg, nil
}

func (f *fakeTopology) NodeNetwork(_ context.Context, _, node string) ([]proxmox.NodeInterface, error) {
	return f.networks[node], nil
}

func (f *fakeTopology) Storages(_ context.Context, cluster string) ([]proxmox.Storage, error) {
	return f.storages[cluster], nil
}

func (f *fakeTopology) StorageContent(_ context.Context, _, node, storage, _ string, _ int) ([]proxmox.StorageContent, error) {
	return f.contents[node+"/"+storage], nil
}

// fakeInventory hands out sequential ids and records every resolution.
// failOn makes the named resolutions fail.
type fakeInventory struct {
	mu      sync.Mutex
	nextID  int
	ensured map[string]netbox.Entity
	calls   []string
	failOn  map[string]error
	lastVMs []netbox.VirtualMachineParams
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{
		ensured: map[string]netbox.Entity{},
		failOn:  map[string]error{},
	}
}

func (f *fakeInventory) resolve(key string) (netbox.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)
	if err, ok := f.failOn[key]; ok {
		return netbox.Entity{}, err
	}
	if entity, ok := f.ensured[key]; ok {
		return entity, nil
	}
	f.nextID++
	entity := netbox.Entity{ID: f.nextID, Name: key}
	f.ensured[key] = entity
	return entity, nil
}

func (f *fakeInventory) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.calls {
		if call == key {
			count++
		}
	}
	return count
}

func (f *fakeInventory) EnsureTag(context.Context) (netbox.Entity, error) {
	return f.resolve("tag")
}

func (f *fakeInventory) EnsureCustomFields(context.Context) error {
	_, err := f.resolve("custom-fields")
	return err
}

func (f *fakeInventory) EnsureClusterType(_ context.Context, _, slug string, _ []int) (netbox.Entity, error) {
	return f.resolve("cluster-type/" + slug)
}

func (f *fakeInventory) EnsureCluster(_ context.Context, name string, _ int, _ []int) (netbox.Entity, error) {
	return f.resolve("cluster/" + name)
}

func (f *fakeInventory) EnsureSite(context.Context, []int) (netbox.Entity, error) {
	return f.resolve("site")
}

func (f *fakeInventory) EnsureManufacturer(context.Context, []int) (netbox.Entity, error) {
	return f.resolve("manufacturer")
}

func (f *fakeInventory) EnsureDeviceType(context.Context, int, []int) (netbox.Entity, error) {
	return f.resolve("device-type")
}

func (f *fakeInventory) EnsureDeviceRole(context.Context, []int) (netbox.Entity, error) {
	return f.resolve("device-role")
}

func (f *fakeInventory) EnsureRole(_ context.Context, profile netbox.RoleProfile, _ []int) (netbox.Entity, error) {
	return f.resolve("role/" + profile.Slug)
}

func (f *fakeInventory) EnsureDevice(_ context.Context, params netbox.DeviceParams) (netbox.Entity, error) {
	return f.resolve("device/" + params.Name)
}

func (f *fakeInventory) EnsureInterface(_ context.Context, params netbox.InterfaceParams) (netbox.Entity, error) {
	return f.resolve("interface/" + params.Name)
}

func (f *fakeInventory) EnsureIPAddress(_ context.Context, address, _ string, _ int, _ []int) (netbox.Entity, error) {
	return f.resolve("ip/" + address)
}

func (f *fakeInventory) EnsureVMInterface(_ context.Context, params netbox.VMInterfaceParams) (netbox.Entity, error) {
	return f.resolve(fmt.Sprintf("vm-interface/%d/%s", params.VirtualMachineID, params.Name))
}

func (f *fakeInventory) EnsureVirtualMachine(_ context.Context, params netbox.VirtualMachineParams) (netbox.Entity, error) {
	f.mu.Lock()
	f.lastVMs = append(f.lastVMs, params)
	f.mu.Unlock()
	return f.resolve("vm/" + params.Name)
}

// fakeRecords tracks run records and backup creations in memory.
type fakeRecords struct {
	mu           sync.Mutex
	nextID       int
	processes    []netbox.SyncProcess
	completed    map[int]string
	journals     map[int]string
	backups      []netbox.BackupParams
	tracked      []netbox.Backup
	deleted      []int
	vmsByVMID    map[int]netbox.Entity
	failCreate   error
	duplicateIDs map[string]bool
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		completed:    map[int]string{},
		journals:     map[int]string{},
		vmsByVMID:    map[int]netbox.Entity{},
		duplicateIDs: map[string]bool{},
	}
}

func (f *fakeRecords) CreateSyncProcess(_ context.Context, syncType string, _ []int) (netbox.SyncProcess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return netbox.SyncProcess{}, f.failCreate
	}
	f.nextID++
	process := netbox.SyncProcess{
		ID:       f.nextID,
		Name:     fmt.Sprintf("sync-%s-%d", syncType, f.nextID),
		SyncType: syncType,
		Status:   netbox.StatusNotStarted,
	}
	f.processes = append(f.processes, process)
	return process, nil
}

func (f *fakeRecords) CompleteSyncProcess(_ context.Context, id int, status string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed[id] = status
	return nil
}

func (f *fakeRecords) CreateJournalEntry(_ context.Context, objectID int, comments string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.journals[objectID] = comments
	return nil
}

func (f *fakeRecords) ListSyncProcesses(context.Context) ([]netbox.SyncProcess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]netbox.SyncProcess{}, f.processes...), nil
}

func (f *fakeRecords) CreateBackup(_ context.Context, params netbox.BackupParams) (netbox.Backup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.duplicateIDs[params.VolumeID] {
		return netbox.Backup{}, &netbox.RequestError{
			Method:     http.MethodPost,
			Path:       "/api/plugins/proxbox/backups/",
			StatusCode: http.StatusBadRequest,
			Body:       "backup with this volume id already exists",
		}
	}
	f.backups = append(f.backups, params)
	return netbox.Backup{ID: len(f.backups), VolumeID: params.VolumeID}, nil
}

func (f *fakeRecords) ListBackups(context.Context) ([]netbox.Backup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]netbox.Backup{}, f.tracked...), nil
}

func (f *fakeRecords) DeleteBackup(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRecords) VirtualMachineByVMID(_ context.Context, vmid int) (netbox.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if vm, ok := f.vmsByVMID[vmid]; ok {
		return vm, nil
	}
	return netbox.Entity{}, netbox.ErrNotFound
}

// collectReporter gathers events behind a mutex.
type collectReporter struct {
	mu     sync.Mutex
	events []Event
}

func (r *collectReporter) Report(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *collectReporter) endEvents() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, event := range r.events {
		if event.End {
			count++
		}
	}
	return count
}
