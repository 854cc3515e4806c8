package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/netdevopsbr/proxbox/internal/proxmox"
)

// topLevelWhitelist names the hypervisor API sections the raw
// passthrough exposes. Anything else is rejected.
var topLevelWhitelist = map[string]bool{
	"access":  true,
	"cluster": true,
	"nodes":   true,
	"pools":   true,
	"storage": true,
	"version": true,
}

// ProxmoxClusters reports the topology snapshot of every endpoint.
func (h *Handler) ProxmoxClusters(w http.ResponseWriter, r *http.Request) {
	pool, err := h.pool(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, pool.Clusters(r.Context()))
}

// ProxmoxSessions reports the connection state of every endpoint.
func (h *Handler) ProxmoxSessions(w http.ResponseWriter, r *http.Request) {
	pool, err := h.pool(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	type session struct {
		Endpoint  string `json:"endpoint"`
		Reachable bool   `json:"reachable"`
		Cluster   string `json:"cluster,omitempty"`
		Mode      string `json:"mode,omitempty"`
		Error     string `json:"error,omitempty"`
	}
	sessions := []session{}
	for _, client := range pool.Clients() {
		entry := session{Endpoint: client.Name()}
		cluster, err := client.ClusterStatus(r.Context())
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.Reachable = true
			entry.Cluster = cluster.Name
			entry.Mode = cluster.Mode
		}
		sessions = append(sessions, entry)
	}
	respond(w, http.StatusOK, sessions)
}

// ProxmoxVersion reports the API version of every endpoint.
func (h *Handler) ProxmoxVersion(w http.ResponseWriter, r *http.Request) {
	pool, err := h.pool(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	versions := map[string]any{}
	for _, client := range pool.Clients() {
		version, err := client.Version(r.Context())
		if err != nil {
			versions[client.Name()] = map[string]string{"error": err.Error()}
			continue
		}
		versions[client.Name()] = version
	}
	respond(w, http.StatusOK, versions)
}

// ProxmoxStorage lists the storage definitions of every cluster.
func (h *Handler) ProxmoxStorage(w http.ResponseWriter, r *http.Request) {
	pool, err := h.pool(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	storages := map[string][]proxmox.Storage{}
	for _, cluster := range pool.Clusters(r.Context()) {
		list, err := pool.Storages(r.Context(), cluster.Name)
		if err != nil {
			respondError(w, err)
			return
		}
		storages[cluster.Name] = list
	}
	respond(w, http.StatusOK, storages)
}

// ProxmoxStorageContent lists the volumes of one storage on one node.
func (h *Handler) ProxmoxStorageContent(w http.ResponseWriter, r *http.Request) {
	node := chi.URLParam(r, "node")
	storage := chi.URLParam(r, "storage")
	content := r.URL.Query().Get("content")

	pool, err := h.pool(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	for _, cluster := range pool.Clusters(r.Context()) {
		for _, clusterNode := range cluster.Nodes {
			if clusterNode.Name != node {
				continue
			}
			volumes, err := pool.StorageContent(r.Context(), cluster.Name, node, storage, content, 0)
			if err != nil {
				respondError(w, err)
				return
			}
			respond(w, http.StatusOK, volumes)
			return
		}
	}
	respond(w, http.StatusNotFound, apiError{Message: "not found", Detail: "node " + node + " not found in any reachable cluster"})
}

// ProxmoxPassthrough proxies one whitelisted top-level API section of
// every endpoint, keyed by endpoint name.
func (h *Handler) ProxmoxPassthrough(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "top_level")
	if !topLevelWhitelist[section] {
		respond(w, http.StatusForbidden, apiError{
			Message: "section not allowed",
			Detail:  "top-level section " + section + " is not exposed",
		})
		return
	}

	pool, err := h.pool(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	payload := map[string]any{}
	for _, client := range pool.Clients() {
		data, err := client.Get(r.Context(), "/"+section)
		if err != nil {
			payload[client.Name()] = map[string]string{"error": err.Error()}
			continue
		}
		payload[client.Name()] = data
	}
	respond(w, http.StatusOK, payload)
}
