package netbox

// Entity is a resolved inventory record. Only the identity fields are
// decoded; NetBox remains the source of truth for everything else.
type Entity struct {
	ID      int    `json:"id"`
	URL     string `json:"url,omitempty"`
	Display string `json:"display,omitempty"`
	Name    string `json:"name,omitempty"`
	Slug    string `json:"slug,omitempty"`
}

// RoleProfile is the fixed role mapping applied to a VM kind.
type RoleProfile struct {
	Name        string
	Slug        string
	Color       string
	Description string
}

// DeviceParams describes one hypervisor node record. Every referenced id
// must already be resolved; the chain builder guarantees the ordering.
type DeviceParams struct {
	Name         string
	ClusterID    int
	DeviceTypeID int
	RoleID       int
	SiteID       int
	Description  string
	Tags         []int
}

// InterfaceParams describes one physical device interface.
type InterfaceParams struct {
	DeviceID int
	Name     string
	Type     string
	Tags     []int
}

// VMInterfaceParams describes one virtual machine interface. BridgeID is
// zero when the interface is not attached to a bridge.
type VMInterfaceParams struct {
	VirtualMachineID int
	Name             string
	Type             string
	BridgeID         int
	MACAddress       string
	Description      string
	Enabled          bool
	Tags             []int
}

// VirtualMachineParams describes one VM or container record. Memory and
// disk are in megabytes, already converted by the chain builder.
type VirtualMachineParams struct {
	Name         string
	Status       string
	ClusterID    int
	DeviceID     int
	RoleID       int
	VCPUs        int
	MemoryMB     int64
	DiskMB       int64
	Tags         []int
	CustomFields map[string]any
}
