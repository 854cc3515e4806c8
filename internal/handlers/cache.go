package handlers

import (
	"encoding/json"
	"net/http"
)

// DumpCache returns every cached entry, decoded where possible.
func (h *Handler) DumpCache(w http.ResponseWriter, r *http.Request) {
	entries, err := h.cache.Dump()
	if err != nil {
		respondError(w, err)
		return
	}

	decoded := make(map[string]any, len(entries))
	for key, value := range entries {
		var payload any
		if err := json.Unmarshal(value, &payload); err != nil {
			payload = string(value)
		}
		decoded[key] = payload
	}
	respond(w, http.StatusOK, decoded)
}

// ClearCache drops every cached entry.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Clear(); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "cache cleared"})
}
