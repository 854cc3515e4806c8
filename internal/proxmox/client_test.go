package proxmox_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/netdevopsbr/proxbox/internal/proxmox"
	"github.com/netdevopsbr/proxbox/internal/store/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*proxmox.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	endpoint := model.ProxmoxEndpoint{
		Name:       "pve-test",
		Domain:     u.Hostname(),
		Port:       port,
		TokenName:  "proxbox@pve!sync",
		TokenValue: "secret",
		VerifySSL:  false,
	}
	return proxmox.NewClient(endpoint), server
}

func TestClusterStatusClusterMode(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PVEAPIToken=proxbox@pve!sync=secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/api2/json/cluster/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"type":"cluster","name":"prod","quorate":1,"nodes":2},
			{"type":"node","name":"pve1","ip":"10.0.30.11","online":1},
			{"type":"node","name":"pve2","ip":"10.0.30.12","online":1}
		]}`))
	}))

	cluster, err := client.ClusterStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "prod", cluster.Name)
	assert.Equal(t, proxmox.ModeCluster, cluster.Mode)
	require.Len(t, cluster.Nodes, 2)
	assert.Equal(t, "pve1", cluster.Nodes[0].Name)
	assert.Equal(t, "10.0.30.11", cluster.Nodes[0].IP)
}

func TestClusterStatusStandalone(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"type":"node","name":"pve-solo","ip":"10.0.40.1","online":1}]}`))
	}))

	cluster, err := client.ClusterStatus(context.Background())
	require.NoError(t, err)

	// No cluster entry means the endpoint is a standalone host named
	// after the endpoint record.
	assert.Equal(t, "pve-test", cluster.Name)
	assert.Equal(t, proxmox.ModeStandalone, cluster.Mode)
	require.Len(t, cluster.Nodes, 1)
}

func TestResourcesDecoding(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api2/json/cluster/resources", r.URL.Path)
		assert.Equal(t, "vm", r.URL.Query().Get("type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"type":"qemu","vmid":102,"node":"pve1","name":"db-server-01","maxcpu":8,"maxmem":4294000000,"maxdisk":107374182400,"status":"running"},
			{"type":"lxc","vmid":200,"node":"pve2","name":"proxy","maxcpu":2,"maxmem":1073741824,"maxdisk":8589934592,"status":"stopped"}
		]}`))
	}))

	resources, err := client.Resources(context.Background())
	require.NoError(t, err)
	require.Len(t, resources, 2)

	assert.Equal(t, proxmox.ResourceQemu, resources[0].Type)
	assert.Equal(t, 102, resources[0].VMID)
	assert.Equal(t, int64(4294000000), resources[0].MaxMem)
	assert.Equal(t, proxmox.ResourceLXC, resources[1].Type)
}

func TestVMConfigGetters(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api2/json/nodes/pve1/qemu/102/config", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{
			"onboot":1,
			"agent":"1",
			"searchdomain":"lab.example.com",
			"net0":"virtio=AA:BB:CC:DD:EE:FF,bridge=vmbr0,tag=10"
		}}`))
	}))

	cfg, err := client.VMConfig(context.Background(), "pve1", "qemu", 102)
	require.NoError(t, err)

	assert.True(t, cfg.Flag("onboot"))
	assert.True(t, cfg.Flag("agent"))
	assert.False(t, cfg.Flag("unprivileged"))
	assert.Equal(t, "lab.example.com", cfg.String("searchdomain"))
	assert.Equal(t, "virtio=AA:BB:CC:DD:EE:FF,bridge=vmbr0,tag=10", cfg.String("net0"))
	assert.Equal(t, "", cfg.String("net1"))
}

func TestTransportErrorOnBadStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "authentication failure", http.StatusUnauthorized)
	}))

	_, err := client.Version(context.Background())
	require.Error(t, err)

	var transportErr *proxmox.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "pve-test", transportErr.Endpoint)
}

func TestStorageContentFilters(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api2/json/nodes/pve1/storage/backup-nfs/content", r.URL.Path)
		assert.Equal(t, "backup", r.URL.Query().Get("content"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"volid":"backup-nfs:backup/vzdump-qemu-102-2025_08_01-01_00_00.vma.zst","content":"backup","format":"vma.zst","size":75840,"ctime":1754010000,"vmid":102,"verification":{"state":"ok","upid":"UPID:pve1:0001"}}
		]}`))
	}))

	contents, err := client.StorageContent(context.Background(), "pve1", "backup-nfs", "backup", 0)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, 102, contents[0].VMID)
	require.NotNil(t, contents[0].Verification)
	assert.Equal(t, "ok", contents[0].Verification.State)
}
