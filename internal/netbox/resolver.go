package netbox

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/netdevopsbr/proxbox/internal/cache"
	"github.com/netdevopsbr/proxbox/pkg/metrics"
)

// Fixed identity of the records this service owns in the inventory.
const (
	TagName  = "Proxbox"
	TagSlug  = "proxbox"
	TagColor = "ff5722"

	placeholderSite         = "Proxbox Basic Site"
	placeholderManufacturer = "Proxbox Basic Manufacturer"
	placeholderDeviceType   = "Proxbox Basic Device Type"
	placeholderDeviceRole   = "Proxbox Basic Device Role"
)

// RoleQemu, RoleLXC and RoleUnknown are the fixed role profiles applied
// to virtual machine records by workload kind.
var (
	RoleQemu = RoleProfile{
		Name:        "Virtual Machine (QEMU)",
		Slug:        "virtual-machine-qemu",
		Color:       "00ffff",
		Description: "QEMU virtual machine managed by a Proxmox cluster",
	}
	RoleLXC = RoleProfile{
		Name:        "Container (LXC)",
		Slug:        "container-lxc",
		Color:       "7fffd4",
		Description: "LXC container managed by a Proxmox cluster",
	}
	RoleUnknown = RoleProfile{
		Name:        "Unknown",
		Slug:        "unknown",
		Color:       "000000",
		Description: "Workload of unknown type",
	}
)

// customFieldDefinitions are provisioned once per sync pass so VM records
// can carry their hypervisor identity and boot settings.
var customFieldDefinitions = []map[string]any{
	{
		"name":         "proxmox_vm_id",
		"label":        "VM ID",
		"type":         "integer",
		"object_types": []string{"virtualization.virtualmachine"},
		"description":  "Workload id on the Proxmox cluster",
	},
	{
		"name":         "proxmox_start_at_boot",
		"label":        "Start at boot",
		"type":         "boolean",
		"object_types": []string{"virtualization.virtualmachine"},
		"description":  "Whether the workload starts with its node",
	},
	{
		"name":         "proxmox_unprivileged_container",
		"label":        "Unprivileged container",
		"type":         "boolean",
		"object_types": []string{"virtualization.virtualmachine"},
		"description":  "Whether the container runs unprivileged",
	},
	{
		"name":         "proxmox_qemu_agent",
		"label":        "QEMU agent",
		"type":         "boolean",
		"object_types": []string{"virtualization.virtualmachine"},
		"description":  "Whether the QEMU guest agent is enabled",
	},
	{
		"name":         "proxmox_search_domain",
		"label":        "Search domain",
		"type":         "text",
		"object_types": []string{"virtualization.virtualmachine"},
		"description":  "DNS search domain configured on the workload",
	},
}

// Resolver provides create-or-fetch resolution for inventory entities.
// Each resolved identity is cached, and concurrent resolutions of the
// same key are collapsed so parallel sync units never race a create.
type Resolver struct {
	client *Client
	cache  *cache.Cache
	group  singleflight.Group
}

func NewResolver(client *Client, c *cache.Cache) *Resolver {
	return &Resolver{client: client, cache: c}
}

// Client exposes the underlying REST client for non-resolving calls.
func (r *Resolver) Client() *Client {
	return r.client
}

// ensure fetches the entity matching key under path, creating it from
// fields when absent. The same key is resolved at most once at a time.
func (r *Resolver) ensure(ctx context.Context, kind, path string, key url.Values, fields map[string]any) (Entity, error) {
	cacheKey := "netbox:" + path + "?" + key.Encode()

	if cached, err := r.cache.Get(cacheKey); err == nil {
		var entity Entity
		if err := json.Unmarshal(cached, &entity); err == nil && entity.ID != 0 {
			metrics.IncreaseEntitiesResolvedTotalMetric(kind, "cached")
			return entity, nil
		}
	}

	result, err, _ := r.group.Do(cacheKey, func() (any, error) {
		existing, err := r.client.List(ctx, path, key)
		if err != nil {
			return Entity{}, err
		}
		if len(existing) > 0 {
			metrics.IncreaseEntitiesResolvedTotalMetric(kind, "fetched")
			return existing[0], nil
		}

		created, err := r.client.Create(ctx, path, fields)
		if err != nil {
			return Entity{}, err
		}
		metrics.IncreaseEntitiesResolvedTotalMetric(kind, "created")
		return created, nil
	})
	if err != nil {
		return Entity{}, &ResolutionError{Kind: kind, Key: key.Encode(), Err: err}
	}

	entity := result.(Entity)
	if encoded, err := json.Marshal(entity); err == nil {
		_ = r.cache.Set(cacheKey, encoded)
	}
	return entity, nil
}

// EnsureTag resolves the tag attached to every record this service owns.
func (r *Resolver) EnsureTag(ctx context.Context) (Entity, error) {
	return r.ensure(ctx, "tag", pathTags,
		url.Values{"slug": []string{TagSlug}},
		map[string]any{
			"name":         TagName,
			"slug":        TagSlug,
			"color":       TagColor,
			"description":  "Managed by Proxbox",
		})
}

// EnsureCustomFields provisions the VM custom field definitions. A field
// the remote already has is left untouched.
func (r *Resolver) EnsureCustomFields(ctx context.Context) error {
	for _, definition := range customFieldDefinitions {
		name := definition["name"].(string)
		if _, err := r.ensure(ctx, "custom-field", pathCustomFields,
			url.Values{"name": []string{name}}, definition); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) EnsureClusterType(ctx context.Context, name, slug string, tags []int) (Entity, error) {
	return r.ensure(ctx, "cluster-type", pathClusterTypes,
		url.Values{"slug": []string{slug}},
		map[string]any{
			"name":         name,
			"slug": slug,
			"tags": tags,
		})
}

func (r *Resolver) EnsureCluster(ctx context.Context, name string, typeID int, tags []int) (Entity, error) {
	return r.ensure(ctx, "cluster", pathClusters,
		url.Values{"name": []string{name}},
		map[string]any{
			"name":         name,
			"type":         typeID,
			"tags": tags,
		})
}

func (r *Resolver) EnsureSite(ctx context.Context, tags []int) (Entity, error) {
	return r.ensure(ctx, "site", pathSites,
		url.Values{"slug": []string{slugify(placeholderSite)}},
		map[string]any{
			"name":         placeholderSite,
			"slug": slugify(placeholderSite),
			"tags": tags,
		})
}

func (r *Resolver) EnsureManufacturer(ctx context.Context, tags []int) (Entity, error) {
	return r.ensure(ctx, "manufacturer", pathManufacturers,
		url.Values{"slug": []string{slugify(placeholderManufacturer)}},
		map[string]any{
			"name":         placeholderManufacturer,
			"slug": slugify(placeholderManufacturer),
			"tags": tags,
		})
}

func (r *Resolver) EnsureDeviceType(ctx context.Context, manufacturerID int, tags []int) (Entity, error) {
	return r.ensure(ctx, "device-type", pathDeviceTypes,
		url.Values{"slug": []string{slugify(placeholderDeviceType)}},
		map[string]any{
			"model":        placeholderDeviceType,
			"slug":         slugify(placeholderDeviceType),
			"manufacturer": manufacturerID,
			"tags":         tags,
		})
}

// EnsureDeviceRole resolves the placeholder role assigned to node devices.
func (r *Resolver) EnsureDeviceRole(ctx context.Context, tags []int) (Entity, error) {
	return r.ensure(ctx, "device-role", pathDeviceRoles,
		url.Values{"slug": []string{slugify(placeholderDeviceRole)}},
		map[string]any{
			"name":         placeholderDeviceRole,
			"slug":    slugify(placeholderDeviceRole),
			"vm_role": false,
			"tags":    tags,
		})
}

// EnsureRole resolves one of the fixed VM role profiles.
func (r *Resolver) EnsureRole(ctx context.Context, profile RoleProfile, tags []int) (Entity, error) {
	return r.ensure(ctx, "device-role", pathDeviceRoles,
		url.Values{"slug": []string{profile.Slug}},
		map[string]any{
			"name":         profile.Name,
			"slug":        profile.Slug,
			"color":       profile.Color,
			"description":  profile.Description,
			"vm_role":     true,
			"tags":        tags,
		})
}

func (r *Resolver) EnsureDevice(ctx context.Context, params DeviceParams) (Entity, error) {
	return r.ensure(ctx, "device", pathDevices,
		url.Values{"name": []string{params.Name}},
		map[string]any{
			"name":         params.Name,
			"cluster":     params.ClusterID,
			"device_type": params.DeviceTypeID,
			"role":        params.RoleID,
			"site":        params.SiteID,
			"status":      "active",
			"description":  params.Description,
			"tags":        params.Tags,
		})
}

// EnsureInterface resolves one interface on a node device. The lookup is
// scoped by device so identically named interfaces on different nodes
// stay distinct.
func (r *Resolver) EnsureInterface(ctx context.Context, params InterfaceParams) (Entity, error) {
	return r.ensure(ctx, "interface", pathInterfaces,
		url.Values{
			"device_id": []string{strconv.Itoa(params.DeviceID)},
			"name":         []string{params.Name},
		},
		map[string]any{
			"device": params.DeviceID,
			"name":         params.Name,
			"type":         params.Type,
			"tags":   params.Tags,
		})
}

// EnsureIPAddress resolves an address and assigns it to the given object.
// objectType is the fully qualified assignment target, for example
// "dcim.interface" or "virtualization.vminterface".
func (r *Resolver) EnsureIPAddress(ctx context.Context, address, objectType string, objectID int, tags []int) (Entity, error) {
	return r.ensure(ctx, "ip-address", pathIPAddresses,
		url.Values{"address": []string{address}},
		map[string]any{
			"address":              address,
			"assigned_object_type": objectType,
			"assigned_object_id":   objectID,
			"tags":                 tags,
		})
}

func (r *Resolver) EnsureVMInterface(ctx context.Context, params VMInterfaceParams) (Entity, error) {
	fields := map[string]any{
		"virtual_machine": params.VirtualMachineID,
		"name":         params.Name,
		"enabled":         params.Enabled,
		"description":  params.Description,
		"tags":            params.Tags,
	}
	if params.MACAddress != "" {
		fields["mac_address"] = params.MACAddress
	}
	if params.BridgeID != 0 {
		fields["bridge"] = params.BridgeID
	}
	return r.ensure(ctx, "vm-interface", pathVMInterfaces,
		url.Values{
			"virtual_machine_id": []string{strconv.Itoa(params.VirtualMachineID)},
			"name":         []string{params.Name},
		}, fields)
}

func (r *Resolver) EnsureVirtualMachine(ctx context.Context, params VirtualMachineParams) (Entity, error) {
	fields := map[string]any{
		"name":         params.Name,
		"status":  params.Status,
		"cluster": params.ClusterID,
		"role":    params.RoleID,
		"vcpus":   params.VCPUs,
		"memory":  params.MemoryMB,
		"disk":    params.DiskMB,
		"tags":    params.Tags,
	}
	if params.DeviceID != 0 {
		fields["device"] = params.DeviceID
	}
	if len(params.CustomFields) > 0 {
		fields["custom_fields"] = params.CustomFields
	}
	return r.ensure(ctx, "virtual-machine", pathVirtualMachines,
		url.Values{
			"name":         []string{params.Name},
			"cluster_id": []string{strconv.Itoa(params.ClusterID)},
		}, fields)
}

func slugify(name string) string {
	slug := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			slug = append(slug, r)
		case r >= 'A' && r <= 'Z':
			slug = append(slug, r+('a'-'A'))
		case r == ' ', r == '_', r == '-':
			if len(slug) > 0 && slug[len(slug)-1] != '-' {
				slug = append(slug, '-')
			}
		}
	}
	return string(slug)
}

// Slugify builds an inventory slug from a display name.
func Slugify(name string) string {
	return slugify(name)
}
