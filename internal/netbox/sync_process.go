package netbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Sync types accepted by the run tracking plugin endpoint.
const (
	SyncTypeDevices         = "devices"
	SyncTypeVirtualMachines = "virtual-machines"
	SyncTypeVMBackups       = "vm-backups"
	SyncTypeAll             = "all"
)

// Terminal and intermediate run states. A run always ends completed or
// failed; not-started exists only between create and the first work.
const (
	StatusNotStarted = "not-started"
	StatusSyncing    = "syncing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// SyncProcessObjectType is the assignment target for journal entries
// written against a run record.
const SyncProcessObjectType = "netbox_proxbox.syncprocess"

// SyncProcess is one tracked synchronization run.
type SyncProcess struct {
	ID          int      `json:"id"`
	URL         string   `json:"url,omitempty"`
	Name        string   `json:"name"`
	SyncType    string   `json:"sync_type"`
	Status      string   `json:"status"`
	StartedAt   string   `json:"started_at,omitempty"`
	CompletedAt string   `json:"completed_at,omitempty"`
	Runtime     *float64 `json:"runtime,omitempty"`
	Tags        []Entity `json:"tags,omitempty"`
}

// CreateSyncProcess opens a run record for the given sync type. The name
// embeds the start timestamp so runs stay unique and sortable.
func (c *Client) CreateSyncProcess(ctx context.Context, syncType string, tags []int) (SyncProcess, error) {
	now := time.Now().UTC()
	fields := map[string]any{
		"name":       fmt.Sprintf("sync-%s-%s", syncType, now.Format("2006-01-02 15:04:05")),
		"sync_type":  syncType,
		"status":     StatusNotStarted,
		"started_at": now.Format(time.RFC3339),
		"tags":       tags,
	}
	var process SyncProcess
	if err := c.do(ctx, http.MethodPost, pathSyncProcesses, nil, fields, &process); err != nil {
		return SyncProcess{}, err
	}
	return process, nil
}

// CompleteSyncProcess closes a run record with its terminal status and
// measured runtime in seconds.
func (c *Client) CompleteSyncProcess(ctx context.Context, id int, status string, runtime time.Duration) error {
	fields := map[string]any{
		"status":       status,
		"completed_at": time.Now().UTC().Format(time.RFC3339),
		"runtime":      runtime.Seconds(),
	}
	path := fmt.Sprintf("%s%d/", pathSyncProcesses, id)
	return c.do(ctx, http.MethodPatch, path, nil, fields, nil)
}

// ListSyncProcesses returns all run records, following pagination.
func (c *Client) ListSyncProcesses(ctx context.Context) ([]SyncProcess, error) {
	raw, err := c.listRaw(ctx, pathSyncProcesses, nil)
	if err != nil {
		return nil, err
	}
	processes := make([]SyncProcess, 0, len(raw))
	for _, message := range raw {
		var process SyncProcess
		if err := json.Unmarshal(message, &process); err != nil {
			return nil, fmt.Errorf("netbox: GET %s: decoding sync process: %w", pathSyncProcesses, err)
		}
		processes = append(processes, process)
	}
	return processes, nil
}

// CreateJournalEntry attaches a free-form report to a run record.
func (c *Client) CreateJournalEntry(ctx context.Context, objectID int, comments string) error {
	fields := map[string]any{
		"assigned_object_type": SyncProcessObjectType,
		"assigned_object_id":   objectID,
		"kind":                 "info",
		"comments":             comments,
	}
	return c.do(ctx, http.MethodPost, pathJournalEntries, nil, fields, nil)
}
