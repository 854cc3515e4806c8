package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/netdevopsbr/proxbox/internal/netbox"
	"github.com/netdevopsbr/proxbox/internal/proxmox"
	"github.com/netdevopsbr/proxbox/pkg/metrics"
)

// baseRefs are the shared inventory records every pass hangs its
// entities off. They are resolved once per pass, in dependency order.
type baseRefs struct {
	TagID        int
	Tags         []int
	ClusterType  netbox.Entity
	Site         netbox.Entity
	Manufacturer netbox.Entity
	DeviceType   netbox.Entity
	DeviceRole   netbox.Entity
}

func (s *SyncService) resolveBase(ctx context.Context) (baseRefs, error) {
	var base baseRefs

	tag, err := s.inventory.EnsureTag(ctx)
	if err != nil {
		return base, chainStep("tag", err)
	}
	base.TagID = tag.ID
	base.Tags = []int{tag.ID}

	if base.ClusterType, err = s.inventory.EnsureClusterType(ctx, "Proxmox", "proxmox", base.Tags); err != nil {
		return base, chainStep("cluster-type", err)
	}
	if base.Site, err = s.inventory.EnsureSite(ctx, base.Tags); err != nil {
		return base, chainStep("site", err)
	}
	if base.Manufacturer, err = s.inventory.EnsureManufacturer(ctx, base.Tags); err != nil {
		return base, chainStep("manufacturer", err)
	}
	if base.DeviceType, err = s.inventory.EnsureDeviceType(ctx, base.Manufacturer.ID, base.Tags); err != nil {
		return base, chainStep("device-type", err)
	}
	if base.DeviceRole, err = s.inventory.EnsureDeviceRole(ctx, base.Tags); err != nil {
		return base, chainStep("device-role", err)
	}
	return base, nil
}

// SyncDevices synchronizes hypervisor nodes into device records. An
// empty nodeFilter syncs every node of every reachable cluster.
func (s *SyncService) SyncDevices(ctx context.Context, rep Reporter, nodeFilter string) (results []UnitResult, err error) {
	run := s.tracker.Begin(ctx, netbox.SyncTypeDevices, nil)
	defer func() { run.Finish(ctx, err) }()
	defer s.clearCache()

	return s.syncDevices(ctx, rep, run.Journal(), nodeFilter)
}

func (s *SyncService) syncDevices(ctx context.Context, rep Reporter, journal *Recorder, nodeFilter string) ([]UnitResult, error) {
	base, err := s.resolveBase(ctx)
	if err != nil {
		return nil, err
	}

	journal.Section("Devices")
	results := []UnitResult{}
	for _, cluster := range s.topology.Clusters(ctx) {
		clusterRec, err := s.inventory.EnsureCluster(ctx, cluster.Name, base.ClusterType.ID, base.Tags)
		if err != nil {
			return results, chainStep("cluster", err)
		}

		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		for _, node := range cluster.Nodes {
			if nodeFilter != "" && node.Name != nodeFilter {
				continue
			}
			wg.Add(1)
			go func(cluster proxmox.Cluster, node proxmox.Node) {
				defer wg.Done()
				device, err := s.inventory.EnsureDevice(ctx, netbox.DeviceParams{
					Name:         node.Name,
					ClusterID:    clusterRec.ID,
					DeviceTypeID: base.DeviceType.ID,
					RoleID:       base.DeviceRole.ID,
					SiteID:       base.Site.ID,
					Description:  fmt.Sprintf("Proxmox node %s of cluster %s", node.Name, cluster.Name),
					Tags:         base.Tags,
				})
				if err != nil {
					metrics.IncreaseSyncUnitFailuresTotalMetric(netbox.SyncTypeDevices)
					s.log.Errorf("failed to sync node %s: %v", node.Name, err)
				} else {
					rep.Report(created("device", device))
				}
				mu.Lock()
				results = append(results, UnitResult{Name: node.Name, Entity: device, Err: err})
				mu.Unlock()
			}(cluster, node)
		}
		wg.Wait()
	}

	for _, result := range results {
		if result.Err != nil {
			journal.Itemf("%s: FAILED: %v", result.Name, result.Err)
		} else {
			journal.Itemf("%s: device %d", result.Name, result.Entity.ID)
		}
	}
	failed := len(Failed(results))
	journal.Itemf("processed %d, succeeded %d, failed %d", len(results), len(results)-failed, failed)
	rep.Report(finished("device"))
	return results, nil
}

// nodeInterfaceType maps a hypervisor interface to an inventory
// interface type.
func nodeInterfaceType(iface proxmox.NodeInterface) string {
	if iface.Name == "lo" {
		return "loopback"
	}
	switch iface.Type {
	case "bridge", "OVSBridge":
		return "bridge"
	case "bond", "OVSBond":
		return "lag"
	case "vlan":
		return "virtual"
	default:
		return "other"
	}
}

// SyncNodeInterfaces synchronizes the network interfaces of one node,
// attaching each configured address to its interface record.
func (s *SyncService) SyncNodeInterfaces(ctx context.Context, rep Reporter, nodeName string) (results []UnitResult, err error) {
	run := s.tracker.Begin(ctx, netbox.SyncTypeDevices, nil)
	defer func() { run.Finish(ctx, err) }()
	defer s.clearCache()

	base, err := s.resolveBase(ctx)
	if err != nil {
		return nil, err
	}

	cluster, node, err := s.findNode(ctx, nodeName)
	if err != nil {
		return nil, err
	}
	clusterRec, err := s.inventory.EnsureCluster(ctx, cluster.Name, base.ClusterType.ID, base.Tags)
	if err != nil {
		return nil, chainStep("cluster", err)
	}
	device, err := s.inventory.EnsureDevice(ctx, netbox.DeviceParams{
		Name:         node.Name,
		ClusterID:    clusterRec.ID,
		DeviceTypeID: base.DeviceType.ID,
		RoleID:       base.DeviceRole.ID,
		SiteID:       base.Site.ID,
		Description:  fmt.Sprintf("Proxmox node %s of cluster %s", node.Name, cluster.Name),
		Tags:         base.Tags,
	})
	if err != nil {
		return nil, chainStep("device", err)
	}

	interfaces, err := s.topology.NodeNetwork(ctx, cluster.Name, node.Name)
	if err != nil {
		return nil, chainStep("node-network", err)
	}

	run.Journal().Section("Interfaces of " + node.Name)
	results = []UnitResult{}
	for _, iface := range interfaces {
		record, err := s.inventory.EnsureInterface(ctx, netbox.InterfaceParams{
			DeviceID: device.ID,
			Name:     iface.Name,
			Type:     nodeInterfaceType(iface),
			Tags:     base.Tags,
		})
		if err == nil && iface.CIDR != "" {
			_, err = s.inventory.EnsureIPAddress(ctx, iface.CIDR, "dcim.interface", record.ID, base.Tags)
		}
		if err != nil {
			metrics.IncreaseSyncUnitFailuresTotalMetric(netbox.SyncTypeDevices)
			s.log.Errorf("failed to sync interface %s/%s: %v", node.Name, iface.Name, err)
			run.Journal().Itemf("%s: FAILED: %v", iface.Name, err)
		} else {
			rep.Report(created("interface", record))
			run.Journal().Itemf("%s: interface %d", iface.Name, record.ID)
		}
		results = append(results, UnitResult{Name: iface.Name, Entity: record, Err: err})
	}
	failed := len(Failed(results))
	run.Journal().Itemf("processed %d, succeeded %d, failed %d", len(results), len(results)-failed, failed)
	rep.Report(finished("interface"))
	return results, nil
}

// findNode locates the cluster owning the named node.
func (s *SyncService) findNode(ctx context.Context, nodeName string) (proxmox.Cluster, proxmox.Node, error) {
	for _, cluster := range s.topology.Clusters(ctx) {
		for _, node := range cluster.Nodes {
			if node.Name == nodeName {
				return cluster, node, nil
			}
		}
	}
	return proxmox.Cluster{}, proxmox.Node{}, fmt.Errorf("node %s not found in any reachable cluster", nodeName)
}
