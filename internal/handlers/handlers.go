// Package handlers exposes the HTTP surface: endpoint management,
// hypervisor passthrough reads and the synchronization triggers.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/netdevopsbr/proxbox/internal/cache"
	"github.com/netdevopsbr/proxbox/internal/config"
	"github.com/netdevopsbr/proxbox/internal/netbox"
	"github.com/netdevopsbr/proxbox/internal/proxmox"
	"github.com/netdevopsbr/proxbox/internal/service"
	"github.com/netdevopsbr/proxbox/internal/store"
)

var ErrNoNetBoxEndpoint = errors.New("no netbox endpoint configured")
var ErrNoProxmoxEndpoint = errors.New("no proxmox endpoint configured")

// Handler serves every API route. Sync services are built per request
// from the persisted endpoint records, so endpoint changes take effect
// without a restart.
type Handler struct {
	store store.Store
	cache *cache.Cache
	cfg   *config.Config
	log   *zap.SugaredLogger
}

func New(s store.Store, c *cache.Cache, cfg *config.Config) *Handler {
	return &Handler{
		store: s,
		cache: c,
		cfg:   cfg,
		log:   zap.S().Named("handlers"),
	}
}

// pool builds a client pool over every persisted hypervisor endpoint.
func (h *Handler) pool(ctx context.Context) (*proxmox.Pool, error) {
	endpoints, err := h.store.ProxmoxEndpoint().List(ctx)
	if err != nil {
		return nil, err
	}
	if len(endpoints) == 0 {
		return nil, ErrNoProxmoxEndpoint
	}
	return proxmox.NewPool(endpoints), nil
}

// netboxClient builds a client for the first persisted inventory endpoint.
func (h *Handler) netboxClient(ctx context.Context) (*netbox.Client, error) {
	endpoints, err := h.store.NetBoxEndpoint().List(ctx)
	if err != nil {
		return nil, err
	}
	if len(endpoints) == 0 {
		return nil, ErrNoNetBoxEndpoint
	}
	return netbox.NewClient(endpoints[0]), nil
}

// syncService wires a sync service from the persisted endpoints.
func (h *Handler) syncService(ctx context.Context) (*service.SyncService, error) {
	pool, err := h.pool(ctx)
	if err != nil {
		return nil, err
	}
	client, err := h.netboxClient(ctx)
	if err != nil {
		return nil, err
	}
	resolver := netbox.NewResolver(client, h.cache)
	return service.NewSyncService(pool, resolver, client, h.cache, h.cfg.Service.BackupBatchSize), nil
}

func respond(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.S().Named("handlers").Errorf("failed to encode response: %v", err)
	}
}

// Home reports the service identity.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"message": "Proxbox backend is running",
	})
}
