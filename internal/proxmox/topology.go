package proxmox

import (
	"context"
	"fmt"
	"sync"

	"github.com/netdevopsbr/proxbox/internal/store/model"
	"go.uber.org/zap"
)

// Pool is the cluster topology reader. It holds one client per configured
// endpoint and answers topology and resource queries across all of them.
// Endpoint queries are independent of each other and run in parallel; an
// unreachable endpoint degrades to an empty topology instead of failing
// the whole multi-cluster scan.
type Pool struct {
	clients []*Client
}

func NewPool(endpoints model.ProxmoxEndpointList) *Pool {
	clients := make([]*Client, 0, len(endpoints))
	for _, endpoint := range endpoints {
		clients = append(clients, NewClient(endpoint))
	}
	return &Pool{clients: clients}
}

func NewPoolFromClients(clients ...*Client) *Pool {
	return &Pool{clients: clients}
}

func (p *Pool) Clients() []*Client {
	return p.clients
}

// Clusters returns the topology snapshot of every reachable endpoint.
// Callers must tolerate zero-length results.
func (p *Pool) Clusters(ctx context.Context) []Cluster {
	results := make([]Cluster, len(p.clients))
	reachable := make([]bool, len(p.clients))

	var wg sync.WaitGroup
	for i, client := range p.clients {
		wg.Add(1)
		go func(i int, client *Client) {
			defer wg.Done()
			cluster, err := client.ClusterStatus(ctx)
			if err != nil {
				zap.S().Named("proxmox").Warnf("skipping unreachable endpoint %s: %v", client.Name(), err)
				return
			}
			results[i] = cluster
			reachable[i] = true
		}(i, client)
	}
	wg.Wait()

	clusters := make([]Cluster, 0, len(p.clients))
	for i := range results {
		if reachable[i] {
			clusters = append(clusters, results[i])
		}
	}
	return clusters
}

// Resources returns the flattened VM and container inventory of every
// reachable endpoint, keyed by cluster name.
func (p *Pool) Resources(ctx context.Context) map[string][]Resource {
	var mu sync.Mutex
	resources := make(map[string][]Resource)

	var wg sync.WaitGroup
	for _, client := range p.clients {
		wg.Add(1)
		go func(client *Client) {
			defer wg.Done()
			name, err := client.clusterIdentity(ctx)
			if err != nil {
				zap.S().Named("proxmox").Warnf("skipping unreachable endpoint %s: %v", client.Name(), err)
				return
			}
			list, err := client.Resources(ctx)
			if err != nil {
				zap.S().Named("proxmox").Warnf("listing resources on %s: %v", client.Name(), err)
				return
			}
			mu.Lock()
			resources[name] = list
			mu.Unlock()
		}(client)
	}
	wg.Wait()

	return resources
}

// clusterClient finds the client serving the named cluster.
func (p *Pool) clusterClient(ctx context.Context, cluster string) (*Client, error) {
	for _, client := range p.clients {
		name, err := client.clusterIdentity(ctx)
		if err != nil {
			continue
		}
		if name == cluster {
			return client, nil
		}
	}
	return nil, fmt.Errorf("no endpoint serves cluster %q", cluster)
}

// VMConfig reads one VM configuration from whichever endpoint serves the
// named cluster.
func (p *Pool) VMConfig(ctx context.Context, cluster, node, kind string, vmid int) (VMConfig, error) {
	client, err := p.clusterClient(ctx, cluster)
	if err != nil {
		return nil, err
	}
	return client.VMConfig(ctx, node, kind, vmid)
}

// NodeNetwork reads the host interfaces of one node of the named cluster.
func (p *Pool) NodeNetwork(ctx context.Context, cluster, node string) ([]NodeInterface, error) {
	client, err := p.clusterClient(ctx, cluster)
	if err != nil {
		return nil, err
	}
	return client.NodeNetwork(ctx, node)
}

// Storages lists the storage definitions of the named cluster.
func (p *Pool) Storages(ctx context.Context, cluster string) ([]Storage, error) {
	client, err := p.clusterClient(ctx, cluster)
	if err != nil {
		return nil, err
	}
	return client.Storages(ctx)
}

// StorageContent lists the volumes of one storage of the named cluster.
func (p *Pool) StorageContent(ctx context.Context, cluster, node, storage, content string, vmid int) ([]StorageContent, error) {
	client, err := p.clusterClient(ctx, cluster)
	if err != nil {
		return nil, err
	}
	return client.StorageContent(ctx, node, storage, content, vmid)
}
