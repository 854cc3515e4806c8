package handlers

import (
	"errors"
	"net/http"

	"github.com/netdevopsbr/proxbox/internal/netbox"
	"github.com/netdevopsbr/proxbox/internal/proxmox"
	"github.com/netdevopsbr/proxbox/internal/service"
	"github.com/netdevopsbr/proxbox/internal/store"
)

type apiError struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError maps internal failures onto HTTP statuses. Upstream
// failures surface as 502 so a broken hypervisor or inventory endpoint
// is distinguishable from a bad request.
func respondError(w http.ResponseWriter, err error) {
	var (
		transportErr  *proxmox.TransportError
		requestErr    *netbox.RequestError
		resolutionErr *netbox.ResolutionError
		chainErr      *service.ChainError
	)

	switch {
	case errors.Is(err, store.ErrRecordNotFound), errors.Is(err, netbox.ErrNotFound):
		respond(w, http.StatusNotFound, apiError{Message: "not found", Detail: err.Error()})
	case errors.Is(err, store.ErrDuplicateKey):
		respond(w, http.StatusConflict, apiError{Message: "already exists", Detail: err.Error()})
	case errors.Is(err, ErrNoNetBoxEndpoint), errors.Is(err, ErrNoProxmoxEndpoint):
		respond(w, http.StatusPreconditionFailed, apiError{Message: "endpoint not configured", Detail: err.Error()})
	case errors.As(err, &transportErr):
		respond(w, http.StatusBadGateway, apiError{Message: "proxmox request failed", Detail: err.Error()})
	case errors.As(err, &resolutionErr), errors.As(err, &requestErr), errors.As(err, &chainErr):
		respond(w, http.StatusBadGateway, apiError{Message: "netbox request failed", Detail: err.Error()})
	default:
		respond(w, http.StatusInternalServerError, apiError{Message: "internal error", Detail: err.Error()})
	}
}
