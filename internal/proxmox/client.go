package proxmox

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/netdevopsbr/proxbox/internal/store/model"
)

// TransportError marks a connectivity or protocol failure against one
// Proxmox endpoint. Topology reads degrade to empty results on it.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("proxmox endpoint %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client is a typed REST client for one Proxmox VE API endpoint.
type Client struct {
	name    string
	baseURL string
	token   string
	http    *http.Client

	mu          sync.Mutex
	clusterName string
	clusterMode string
}

func NewClient(endpoint model.ProxmoxEndpoint) *Client {
	transport := &http.Transport{}
	if !endpoint.VerifySSL {
		//nolint:gosec // self-signed certificates are the norm on Proxmox hosts
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		name:    endpoint.Name,
		baseURL: endpoint.URL() + "/api2/json",
		token:   fmt.Sprintf("PVEAPIToken=%s=%s", endpoint.TokenName, endpoint.TokenValue),
		http: &http.Client{
			Transport: transport,
			Timeout:   60 * time.Second,
		},
	}
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u = u + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return &TransportError{Endpoint: c.name, Err: err}
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Endpoint: c.name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &TransportError{
			Endpoint: c.name,
			Err:      fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, string(body)),
		}
	}

	// Proxmox wraps every payload in a data envelope.
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &TransportError{Endpoint: c.name, Err: fmt.Errorf("GET %s: decoding payload: %w", path, err)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &TransportError{Endpoint: c.name, Err: fmt.Errorf("GET %s: decoding payload: %w", path, err)}
	}
	return nil
}

// Get performs a raw read-through query against a top-level API path and
// returns the undecoded data payload.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) Version(ctx context.Context) (map[string]any, error) {
	var version map[string]any
	if err := c.get(ctx, "/version", nil, &version); err != nil {
		return nil, err
	}
	return version, nil
}

// ClusterStatus reads cluster membership and returns the topology snapshot
// for this endpoint. An endpoint without a cluster entry is reported as a
// standalone host named after the endpoint record.
func (c *Client) ClusterStatus(ctx context.Context) (Cluster, error) {
	var entries []struct {
		Type   string `json:"type"`
		Name   string `json:"name"`
		IP     string `json:"ip"`
		Online int    `json:"online"`
	}
	if err := c.get(ctx, "/cluster/status", nil, &entries); err != nil {
		return Cluster{}, err
	}

	cluster := Cluster{
		Endpoint: c.name,
		Name:     c.name,
		Mode:     ModeStandalone,
	}
	for _, entry := range entries {
		switch entry.Type {
		case "cluster":
			cluster.Name = entry.Name
			cluster.Mode = ModeCluster
		case "node":
			cluster.Nodes = append(cluster.Nodes, Node{
				Name:   entry.Name,
				IP:     entry.IP,
				Online: entry.Online,
			})
		}
	}

	c.mu.Lock()
	c.clusterName = cluster.Name
	c.clusterMode = cluster.Mode
	c.mu.Unlock()

	return cluster, nil
}

// clusterIdentity returns the cached cluster name, fetching the status once
// when it has not been read yet.
func (c *Client) clusterIdentity(ctx context.Context) (string, error) {
	c.mu.Lock()
	name := c.clusterName
	c.mu.Unlock()
	if name != "" {
		return name, nil
	}
	cluster, err := c.ClusterStatus(ctx)
	if err != nil {
		return "", err
	}
	return cluster.Name, nil
}

// Resources returns the flattened VM and container inventory across all
// nodes of this endpoint.
func (c *Client) Resources(ctx context.Context) ([]Resource, error) {
	query := url.Values{}
	query.Set("type", "vm")
	var resources []Resource
	if err := c.get(ctx, "/cluster/resources", query, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

func (c *Client) NodeNetwork(ctx context.Context, node string) ([]NodeInterface, error) {
	var interfaces []NodeInterface
	if err := c.get(ctx, fmt.Sprintf("/nodes/%s/network", url.PathEscape(node)), nil, &interfaces); err != nil {
		return nil, err
	}
	return interfaces, nil
}

// VMConfig reads the flat configuration of one VM or container. kind is
// the resource type, qemu or lxc.
func (c *Client) VMConfig(ctx context.Context, node, kind string, vmid int) (VMConfig, error) {
	path := fmt.Sprintf("/nodes/%s/%s/%d/config", url.PathEscape(node), url.PathEscape(kind), vmid)
	var cfg VMConfig
	if err := c.get(ctx, path, nil, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Client) Storages(ctx context.Context) ([]Storage, error) {
	var storages []Storage
	if err := c.get(ctx, "/storage", nil, &storages); err != nil {
		return nil, err
	}
	return storages, nil
}

// StorageContent lists the volumes of one storage on one node, optionally
// filtered by content type and owning vmid.
func (c *Client) StorageContent(ctx context.Context, node, storage, content string, vmid int) ([]StorageContent, error) {
	query := url.Values{}
	if content != "" {
		query.Set("content", content)
	}
	if vmid > 0 {
		query.Set("vmid", fmt.Sprintf("%d", vmid))
	}
	path := fmt.Sprintf("/nodes/%s/storage/%s/content", url.PathEscape(node), url.PathEscape(storage))
	var contents []StorageContent
	if err := c.get(ctx, path, query, &contents); err != nil {
		return nil, err
	}
	return contents, nil
}
