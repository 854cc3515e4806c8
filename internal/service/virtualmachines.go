package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/netdevopsbr/proxbox/internal/netbox"
	"github.com/netdevopsbr/proxbox/internal/proxmox"
	"github.com/netdevopsbr/proxbox/pkg/metrics"
)

// bytesPerMB converts the hypervisor's byte figures to the decimal
// megabytes the inventory stores.
const bytesPerMB = 1_000_000

// vmNetwork is one parsed netN configuration entry.
type vmNetwork struct {
	Slot   int
	Name   string
	MAC    string
	Bridge string
	IP     string
}

// nicModels are the netN key prefixes whose value is the MAC address.
var nicModels = map[string]bool{
	"virtio":  true,
	"e1000":   true,
	"rtl8139": true,
	"vmxnet3": true,
}

// parseNetworks walks the netN slots from zero and stops at the first
// gap, mirroring how the hypervisor numbers interfaces.
func parseNetworks(cfg proxmox.VMConfig) []vmNetwork {
	networks := []vmNetwork{}
	for slot := 0; ; slot++ {
		raw := cfg.String(fmt.Sprintf("net%d", slot))
		if raw == "" {
			return networks
		}
		network := vmNetwork{Slot: slot, Name: fmt.Sprintf("net%d", slot)}
		for _, pair := range strings.Split(raw, ",") {
			key, value, found := strings.Cut(pair, "=")
			if !found {
				continue
			}
			switch {
			case nicModels[key], key == "hwaddr":
				network.MAC = strings.ToUpper(value)
			case key == "bridge":
				network.Bridge = value
			case key == "name":
				network.Name = value
			case key == "ip" && value != "dhcp":
				network.IP = value
			}
		}
		networks = append(networks, network)
	}
}

// roleFor maps a workload type to its fixed role profile.
func roleFor(resourceType string) netbox.RoleProfile {
	switch resourceType {
	case proxmox.ResourceQemu:
		return netbox.RoleQemu
	case proxmox.ResourceLXC:
		return netbox.RoleLXC
	default:
		return netbox.RoleUnknown
	}
}

// vmStatus maps a workload status to an inventory status.
func vmStatus(status string) string {
	if status == "running" {
		return "active"
	}
	return "offline"
}

// SyncVirtualMachines synchronizes every VM and container of every
// reachable cluster into virtual machine records.
func (s *SyncService) SyncVirtualMachines(ctx context.Context, rep Reporter) (results []UnitResult, err error) {
	run := s.tracker.Begin(ctx, netbox.SyncTypeVirtualMachines, nil)
	defer func() { run.Finish(ctx, err) }()
	defer s.clearCache()

	return s.syncVirtualMachines(ctx, rep, run.Journal())
}

func (s *SyncService) syncVirtualMachines(ctx context.Context, rep Reporter, journal *Recorder) ([]UnitResult, error) {
	base, err := s.resolveBase(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.inventory.EnsureCustomFields(ctx); err != nil {
		return nil, chainStep("custom-fields", err)
	}

	journal.Section("Virtual Machines")
	results := []UnitResult{}
	for clusterName, resources := range s.topology.Resources(ctx) {
		clusterRec, err := s.inventory.EnsureCluster(ctx, clusterName, base.ClusterType.ID, base.Tags)
		if err != nil {
			return results, chainStep("cluster", err)
		}

		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		for _, resource := range resources {
			wg.Add(1)
			go func(clusterName string, resource proxmox.Resource) {
				defer wg.Done()
				vm, err := s.syncOneVM(ctx, base, clusterName, clusterRec, resource)
				if err != nil {
					metrics.IncreaseSyncUnitFailuresTotalMetric(netbox.SyncTypeVirtualMachines)
					s.log.Errorf("failed to sync vm %d (%s): %v", resource.VMID, resource.Name, err)
				} else {
					rep.Report(created("virtual_machine", vm))
				}
				mu.Lock()
				results = append(results, UnitResult{Name: resource.Name, Entity: vm, Err: err})
				mu.Unlock()
			}(clusterName, resource)
		}
		wg.Wait()
	}

	for _, result := range results {
		if result.Err != nil {
			journal.Itemf("%s: FAILED: %v", result.Name, result.Err)
		} else {
			journal.Itemf("%s: virtual machine %d", result.Name, result.Entity.ID)
		}
	}
	failed := len(Failed(results))
	journal.Itemf("processed %d, succeeded %d, failed %d", len(results), len(results)-failed, failed)
	rep.Report(finished("virtual_machine"))
	return results, nil
}

// syncOneVM resolves one workload: its role, its record, its interfaces
// and their addresses.
func (s *SyncService) syncOneVM(ctx context.Context, base baseRefs, clusterName string, clusterRec netbox.Entity, resource proxmox.Resource) (netbox.Entity, error) {
	role, err := s.inventory.EnsureRole(ctx, roleFor(resource.Type), base.Tags)
	if err != nil {
		return netbox.Entity{}, chainStep("role", err)
	}

	cfg, err := s.topology.VMConfig(ctx, clusterName, resource.Node, resource.Type, resource.VMID)
	if err != nil {
		return netbox.Entity{}, chainStep("vm-config", err)
	}

	customFields := map[string]any{
		"proxmox_vm_id":         resource.VMID,
		"proxmox_start_at_boot": cfg.Flag("onboot"),
	}
	switch resource.Type {
	case proxmox.ResourceQemu:
		customFields["proxmox_qemu_agent"] = cfg.Flag("agent")
	case proxmox.ResourceLXC:
		customFields["proxmox_unprivileged_container"] = cfg.Flag("unprivileged")
	}
	if domain := cfg.String("searchdomain"); domain != "" {
		customFields["proxmox_search_domain"] = domain
	}

	vm, err := s.inventory.EnsureVirtualMachine(ctx, netbox.VirtualMachineParams{
		Name:         resource.Name,
		Status:       vmStatus(resource.Status),
		ClusterID:    clusterRec.ID,
		RoleID:       role.ID,
		VCPUs:        int(resource.MaxCPU),
		MemoryMB:     resource.MaxMem / bytesPerMB,
		DiskMB:       resource.MaxDisk / bytesPerMB,
		Tags:         base.Tags,
		CustomFields: customFields,
	})
	if err != nil {
		return netbox.Entity{}, chainStep("virtual-machine", err)
	}

	for _, network := range parseNetworks(cfg) {
		if err := s.syncVMNetwork(ctx, base, vm, network); err != nil {
			return vm, chainStep("vm-interface", err)
		}
	}
	return vm, nil
}

// syncVMNetwork resolves the bridge first so the interface can point at
// it, then the interface itself, then its address.
func (s *SyncService) syncVMNetwork(ctx context.Context, base baseRefs, vm netbox.Entity, network vmNetwork) error {
	bridgeID := 0
	if network.Bridge != "" {
		bridge, err := s.inventory.EnsureVMInterface(ctx, netbox.VMInterfaceParams{
			VirtualMachineID: vm.ID,
			Name:             network.Bridge,
			Type:             "bridge",
			Description:      "Bridge interface",
			Enabled:          true,
			Tags:             base.Tags,
		})
		if err != nil {
			return err
		}
		bridgeID = bridge.ID
	}

	iface, err := s.inventory.EnsureVMInterface(ctx, netbox.VMInterfaceParams{
		VirtualMachineID: vm.ID,
		Name:             network.Name,
		Type:             "virtual",
		BridgeID:         bridgeID,
		MACAddress:       network.MAC,
		Enabled:          true,
		Tags:             base.Tags,
	})
	if err != nil {
		return err
	}

	if network.IP != "" {
		if _, err := s.inventory.EnsureIPAddress(ctx, network.IP, "virtualization.vminterface", iface.ID, base.Tags); err != nil {
			return err
		}
	}
	return nil
}
