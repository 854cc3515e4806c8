package proxmox

import (
	"fmt"
	"strconv"
)

// Cluster modes as reported by the cluster/status endpoint.
const (
	ModeCluster    = "cluster"
	ModeStandalone = "standalone"
)

// Resource types the sync engine cares about.
const (
	ResourceQemu = "qemu"
	ResourceLXC  = "lxc"
)

// Node is one hypervisor host inside a cluster.
type Node struct {
	Name   string `json:"name"`
	IP     string `json:"ip,omitempty"`
	Online int    `json:"online,omitempty"`
}

// Cluster is a read-only topology snapshot for one endpoint. Standalone
// hosts are modeled as a single-node cluster in standalone mode.
type Cluster struct {
	Endpoint string `json:"endpoint"`
	Name     string `json:"name"`
	Mode     string `json:"mode"`
	Nodes    []Node `json:"node_list"`
}

// Resource is one VM or container as reported by cluster/resources.
type Resource struct {
	Type    string  `json:"type"`
	VMID    int     `json:"vmid"`
	Node    string  `json:"node"`
	Name    string  `json:"name"`
	MaxCPU  float64 `json:"maxcpu"`
	MaxMem  int64   `json:"maxmem"`
	MaxDisk int64   `json:"maxdisk"`
	Status  string  `json:"status"`
}

// NodeInterface is one network interface of a hypervisor host.
type NodeInterface struct {
	Name    string `json:"iface"`
	Type    string `json:"type"`
	CIDR    string `json:"cidr,omitempty"`
	Address string `json:"address,omitempty"`
	Active  int    `json:"active,omitempty"`
}

// Storage is one storage definition from the cluster storage listing.
// Nodes is a comma-separated node list, empty meaning every node.
type Storage struct {
	Name    string `json:"storage"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Nodes   string `json:"nodes,omitempty"`
	Shared  int    `json:"shared,omitempty"`
}

// BackupVerification is the verification result attached to a backup volume.
type BackupVerification struct {
	UPID  string `json:"upid"`
	State string `json:"state"`
}

// StorageContent is one volume inside a storage, typically a backup archive.
type StorageContent struct {
	VolID        string              `json:"volid"`
	Content      string              `json:"content"`
	Format       string              `json:"format,omitempty"`
	SubType      string              `json:"subtype,omitempty"`
	Size         int64               `json:"size,omitempty"`
	CTime        int64               `json:"ctime,omitempty"`
	Notes        string              `json:"notes,omitempty"`
	VMID         int                 `json:"vmid,omitempty"`
	Verification *BackupVerification `json:"verification,omitempty"`
}

// VMConfig is the flat key/value configuration of a VM or container.
// Proxmox mixes strings and numbers in the same payload, so values are
// accessed through the typed getters.
type VMConfig map[string]any

// String returns the value under key rendered as a string, or empty when
// the key is absent.
func (c VMConfig) String(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Flag reports whether the value under key is the numeric or string flag 1.
func (c VMConfig) Flag(key string) bool {
	return c.String(key) == "1"
}
