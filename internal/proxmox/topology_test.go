package proxmox_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/netdevopsbr/proxbox/internal/proxmox"
	"github.com/netdevopsbr/proxbox/internal/store/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolClustersBestEffort(t *testing.T) {
	good, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"type":"cluster","name":"prod","nodes":1},
			{"type":"node","name":"pve1","ip":"10.0.30.11","online":1}
		]}`))
	}))

	// Nothing listens on this endpoint; the scan must degrade to the
	// reachable topologies instead of failing.
	dead := proxmox.NewClient(model.ProxmoxEndpoint{
		Name:       "pve-dead",
		Domain:     "127.0.0.1",
		Port:       1,
		TokenName:  "proxbox@pve!sync",
		TokenValue: "secret",
	})

	pool := proxmox.NewPoolFromClients(good, dead)

	clusters := pool.Clusters(context.Background())
	require.Len(t, clusters, 1)
	assert.Equal(t, "prod", clusters[0].Name)
}

func TestPoolResourcesKeyedByCluster(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api2/json/cluster/status":
			_, _ = w.Write([]byte(`{"data":[
				{"type":"cluster","name":"prod","nodes":1},
				{"type":"node","name":"pve1","ip":"10.0.30.11","online":1}
			]}`))
		case "/api2/json/cluster/resources":
			_, _ = w.Write([]byte(`{"data":[
				{"type":"qemu","vmid":102,"node":"pve1","name":"db-server-01","maxcpu":4,"maxmem":8589934592,"maxdisk":107374182400,"status":"running"}
			]}`))
		default:
			http.NotFound(w, r)
		}
	}))

	pool := proxmox.NewPoolFromClients(client)

	resources := pool.Resources(context.Background())
	require.Contains(t, resources, "prod")
	require.Len(t, resources["prod"], 1)
	assert.Equal(t, "db-server-01", resources["prod"][0].Name)
}

func TestPoolVMConfigRoutesToCluster(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api2/json/cluster/status":
			_, _ = w.Write([]byte(`{"data":[
				{"type":"cluster","name":"prod","nodes":1},
				{"type":"node","name":"pve1","ip":"10.0.30.11","online":1}
			]}`))
		case "/api2/json/nodes/pve1/lxc/200/config":
			_, _ = w.Write([]byte(`{"data":{"net0":"name=eth0,bridge=vmbr0,hwaddr=BC:24:11:00:00:01,ip=dhcp,type=veth"}}`))
		default:
			http.NotFound(w, r)
		}
	}))

	pool := proxmox.NewPoolFromClients(client)

	cfg, err := pool.VMConfig(context.Background(), "prod", "pve1", "lxc", 200)
	require.NoError(t, err)
	assert.Contains(t, cfg.String("net0"), "hwaddr=BC:24:11:00:00:01")

	_, err = pool.VMConfig(context.Background(), "unknown", "pve1", "lxc", 200)
	require.Error(t, err)
}
