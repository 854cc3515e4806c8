package netbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/netdevopsbr/proxbox/internal/store/model"
)

// API paths for the resource kinds this service resolves. One explicit
// path per known remote resource; nothing is addressed dynamically.
const (
	pathTags            = "/api/extras/tags/"
	pathCustomFields    = "/api/extras/custom-fields/"
	pathJournalEntries  = "/api/extras/journal-entries/"
	pathClusterTypes    = "/api/virtualization/cluster-types/"
	pathClusters        = "/api/virtualization/clusters/"
	pathVirtualMachines = "/api/virtualization/virtual-machines/"
	pathVMInterfaces    = "/api/virtualization/interfaces/"
	pathSites           = "/api/dcim/sites/"
	pathManufacturers   = "/api/dcim/manufacturers/"
	pathDeviceTypes     = "/api/dcim/device-types/"
	pathDeviceRoles     = "/api/dcim/device-roles/"
	pathDevices         = "/api/dcim/devices/"
	pathInterfaces      = "/api/dcim/interfaces/"
	pathIPAddresses     = "/api/ipam/ip-addresses/"
	pathSyncProcesses   = "/api/plugins/proxbox/sync-processes/"
	pathBackups         = "/api/plugins/proxbox/backups/"
	pathStatus          = "/api/status/"
)

// Client is a typed REST client for one NetBox endpoint.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(endpoint model.NetBoxEndpoint) *Client {
	transport := &http.Transport{}
	if !endpoint.VerifySSL {
		//nolint:gosec // the TLS verification flag is part of the endpoint record
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		baseURL: strings.TrimRight(endpoint.URL(), "/"),
		token:   endpoint.Token,
		http: &http.Client{
			Transport: transport,
			Timeout:   60 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u = u + "?" + query.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("netbox: encoding %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("netbox: %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("netbox: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Keep the validation message; duplicate detection depends on it.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &RequestError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(msg),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("netbox: %s %s: decoding response: %w", method, path, err)
	}
	return nil
}

type page struct {
	Count    int               `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []json.RawMessage `json:"results"`
}

// listRaw walks the paginated list endpoint and returns every result.
func (c *Client) listRaw(ctx context.Context, path string, query url.Values) ([]json.RawMessage, error) {
	results := []json.RawMessage{}

	for {
		var p page
		if err := c.do(ctx, http.MethodGet, path, query, nil, &p); err != nil {
			return nil, err
		}
		results = append(results, p.Results...)

		if p.Next == nil || *p.Next == "" {
			return results, nil
		}
		next, err := url.Parse(*p.Next)
		if err != nil {
			return nil, fmt.Errorf("netbox: GET %s: bad pagination url: %w", path, err)
		}
		path = next.Path
		query = next.Query()
	}
}

// List returns every entity matching the query, following pagination.
func (c *Client) List(ctx context.Context, path string, query url.Values) ([]Entity, error) {
	raw, err := c.listRaw(ctx, path, query)
	if err != nil {
		return nil, err
	}
	entities := make([]Entity, 0, len(raw))
	for _, message := range raw {
		var entity Entity
		if err := json.Unmarshal(message, &entity); err != nil {
			return nil, fmt.Errorf("netbox: GET %s: decoding entity: %w", path, err)
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// Create posts a new record and returns its identity fields.
func (c *Client) Create(ctx context.Context, path string, fields map[string]any) (Entity, error) {
	var entity Entity
	if err := c.do(ctx, http.MethodPost, path, nil, fields, &entity); err != nil {
		return Entity{}, err
	}
	return entity, nil
}

// Status calls the NetBox status endpoint and returns the raw payload.
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	var status map[string]any
	if err := c.do(ctx, http.MethodGet, pathStatus, nil, nil, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// VirtualMachineByVMID resolves the inventory VM carrying the given
// hypervisor vmid in its custom fields. Returns ErrNotFound on a miss.
func (c *Client) VirtualMachineByVMID(ctx context.Context, vmid int) (Entity, error) {
	query := url.Values{}
	query.Set("cf_proxmox_vm_id", fmt.Sprintf("%d", vmid))
	entities, err := c.List(ctx, pathVirtualMachines, query)
	if err != nil {
		return Entity{}, err
	}
	if len(entities) == 0 {
		return Entity{}, fmt.Errorf("virtual machine with vmid %d: %w", vmid, ErrNotFound)
	}
	return entities[0], nil
}
