package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/netdevopsbr/proxbox/internal/service"
)

// SyncDevices synchronizes hypervisor nodes into device records. The
// optional node query parameter narrows the pass to one node.
func (h *Handler) SyncDevices(w http.ResponseWriter, r *http.Request) {
	svc, err := h.syncService(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	results, err := svc.SyncDevices(r.Context(), service.NopReporter{}, r.URL.Query().Get("node"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, results)
}

// SyncNodeInterfaces synchronizes the interfaces of one node.
func (h *Handler) SyncNodeInterfaces(w http.ResponseWriter, r *http.Request) {
	svc, err := h.syncService(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	results, err := svc.SyncNodeInterfaces(r.Context(), service.NopReporter{}, chi.URLParam(r, "node"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, results)
}

// SyncVirtualMachines synchronizes every VM and container.
func (h *Handler) SyncVirtualMachines(w http.ResponseWriter, r *http.Request) {
	svc, err := h.syncService(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	results, err := svc.SyncVirtualMachines(r.Context(), service.NopReporter{})
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, results)
}

// SyncBackups synchronizes the backup volumes of one node and storage.
func (h *Handler) SyncBackups(w http.ResponseWriter, r *http.Request) {
	svc, err := h.syncService(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	summary, err := svc.SyncBackups(r.Context(), service.NopReporter{}, service.BackupOptions{
		Node:    r.URL.Query().Get("node"),
		Storage: r.URL.Query().Get("storage"),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, summary)
}

// SyncAllBackups synchronizes every backup volume of every storage,
// optionally removing records whose volume no longer exists.
func (h *Handler) SyncAllBackups(w http.ResponseWriter, r *http.Request) {
	svc, err := h.syncService(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	summary, err := svc.SyncBackups(r.Context(), service.NopReporter{}, service.BackupOptions{
		DeleteNonexistent: r.URL.Query().Get("delete_nonexistent") == "true",
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, summary)
}

// FullUpdate runs the device pass then the virtual machine pass.
func (h *Handler) FullUpdate(w http.ResponseWriter, r *http.Request) {
	svc, err := h.syncService(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	if err := svc.SyncAll(r.Context(), service.NopReporter{}); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "completed"})
}

// ListSyncProcesses returns the recorded synchronization runs.
func (h *Handler) ListSyncProcesses(w http.ResponseWriter, r *http.Request) {
	svc, err := h.syncService(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	processes, err := svc.ListSyncProcesses(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, processes)
}
