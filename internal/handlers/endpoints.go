package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/netdevopsbr/proxbox/internal/store/model"
)

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// ListNetBoxEndpoints returns the persisted inventory endpoints.
func (h *Handler) ListNetBoxEndpoints(w http.ResponseWriter, r *http.Request) {
	endpoints, err := h.store.NetBoxEndpoint().List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, endpoints)
}

// CreateNetBoxEndpoint persists a new inventory endpoint.
func (h *Handler) CreateNetBoxEndpoint(w http.ResponseWriter, r *http.Request) {
	var endpoint model.NetBoxEndpoint
	if err := json.NewDecoder(r.Body).Decode(&endpoint); err != nil {
		respond(w, http.StatusBadRequest, apiError{Message: "invalid request body", Detail: err.Error()})
		return
	}
	created, err := h.store.NetBoxEndpoint().Create(r.Context(), endpoint)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, created)
}

// GetNetBoxEndpoint returns one inventory endpoint by id.
func (h *Handler) GetNetBoxEndpoint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respond(w, http.StatusBadRequest, apiError{Message: "invalid endpoint id"})
		return
	}
	endpoint, err := h.store.NetBoxEndpoint().Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, endpoint)
}

// UpdateNetBoxEndpoint replaces one inventory endpoint.
func (h *Handler) UpdateNetBoxEndpoint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respond(w, http.StatusBadRequest, apiError{Message: "invalid endpoint id"})
		return
	}
	var endpoint model.NetBoxEndpoint
	if err := json.NewDecoder(r.Body).Decode(&endpoint); err != nil {
		respond(w, http.StatusBadRequest, apiError{Message: "invalid request body", Detail: err.Error()})
		return
	}
	endpoint.ID = id
	updated, err := h.store.NetBoxEndpoint().Update(r.Context(), endpoint)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, updated)
}

// DeleteNetBoxEndpoint removes one inventory endpoint.
func (h *Handler) DeleteNetBoxEndpoint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respond(w, http.StatusBadRequest, apiError{Message: "invalid endpoint id"})
		return
	}
	if err := h.store.NetBoxEndpoint().Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

// NetBoxStatus proxies the inventory status endpoint.
func (h *Handler) NetBoxStatus(w http.ResponseWriter, r *http.Request) {
	client, err := h.netboxClient(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	status, err := client.Status(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, status)
}

// ListProxmoxEndpoints returns the persisted hypervisor endpoints.
func (h *Handler) ListProxmoxEndpoints(w http.ResponseWriter, r *http.Request) {
	endpoints, err := h.store.ProxmoxEndpoint().List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, endpoints)
}

// CreateProxmoxEndpoint persists a new hypervisor endpoint.
func (h *Handler) CreateProxmoxEndpoint(w http.ResponseWriter, r *http.Request) {
	var endpoint model.ProxmoxEndpoint
	if err := json.NewDecoder(r.Body).Decode(&endpoint); err != nil {
		respond(w, http.StatusBadRequest, apiError{Message: "invalid request body", Detail: err.Error()})
		return
	}
	created, err := h.store.ProxmoxEndpoint().Create(r.Context(), endpoint)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, created)
}

// GetProxmoxEndpoint returns one hypervisor endpoint by id.
func (h *Handler) GetProxmoxEndpoint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respond(w, http.StatusBadRequest, apiError{Message: "invalid endpoint id"})
		return
	}
	endpoint, err := h.store.ProxmoxEndpoint().Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, endpoint)
}

// UpdateProxmoxEndpoint replaces one hypervisor endpoint.
func (h *Handler) UpdateProxmoxEndpoint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respond(w, http.StatusBadRequest, apiError{Message: "invalid endpoint id"})
		return
	}
	var endpoint model.ProxmoxEndpoint
	if err := json.NewDecoder(r.Body).Decode(&endpoint); err != nil {
		respond(w, http.StatusBadRequest, apiError{Message: "invalid request body", Detail: err.Error()})
		return
	}
	endpoint.ID = id
	updated, err := h.store.ProxmoxEndpoint().Update(r.Context(), endpoint)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, updated)
}

// DeleteProxmoxEndpoint removes one hypervisor endpoint.
func (h *Handler) DeleteProxmoxEndpoint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respond(w, http.StatusBadRequest, apiError{Message: "invalid endpoint id"})
		return
	}
	if err := h.store.ProxmoxEndpoint().Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}
