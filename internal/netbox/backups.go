package netbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Backup is one tracked backup volume in the inventory plugin.
type Backup struct {
	ID                int    `json:"id"`
	URL               string `json:"url,omitempty"`
	Storage           string `json:"storage"`
	VirtualMachine    int    `json:"virtual_machine,omitempty"`
	SubType           string `json:"subtype,omitempty"`
	CreationTime      int64  `json:"creation_time"`
	Size              int64  `json:"size"`
	VerificationState string `json:"verification_state,omitempty"`
	VerificationUPID  string `json:"verification_upid,omitempty"`
	VolumeID          string `json:"volume_id"`
	Notes             string `json:"notes,omitempty"`
	VMID              int    `json:"vmid"`
	Format            string `json:"format,omitempty"`
}

// BackupParams describes one backup volume to record. VirtualMachineID
// is zero when the owning VM is not present in the inventory.
type BackupParams struct {
	Storage           string
	VirtualMachineID  int
	SubType           string
	CreationTime      int64
	Size              int64
	VerificationState string
	VerificationUPID  string
	VolumeID          string
	Notes             string
	VMID              int
	Format            string
}

// CreateBackup records one backup volume. A volume the plugin already
// tracks is rejected remotely; check the error with IsDuplicate.
func (c *Client) CreateBackup(ctx context.Context, params BackupParams) (Backup, error) {
	fields := map[string]any{
		"storage":       params.Storage,
		"creation_time": params.CreationTime,
		"size":          params.Size,
		"volume_id":     params.VolumeID,
		"vmid":          params.VMID,
	}
	if params.VirtualMachineID != 0 {
		fields["virtual_machine"] = params.VirtualMachineID
	}
	if params.SubType != "" {
		fields["subtype"] = params.SubType
	}
	if params.VerificationState != "" {
		fields["verification_state"] = params.VerificationState
	}
	if params.VerificationUPID != "" {
		fields["verification_upid"] = params.VerificationUPID
	}
	if params.Notes != "" {
		fields["notes"] = params.Notes
	}
	if params.Format != "" {
		fields["format"] = params.Format
	}
	var backup Backup
	if err := c.do(ctx, http.MethodPost, pathBackups, nil, fields, &backup); err != nil {
		return Backup{}, err
	}
	return backup, nil
}

// ListBackups returns every tracked backup volume, following pagination.
func (c *Client) ListBackups(ctx context.Context) ([]Backup, error) {
	raw, err := c.listRaw(ctx, pathBackups, nil)
	if err != nil {
		return nil, err
	}
	backups := make([]Backup, 0, len(raw))
	for _, message := range raw {
		var backup Backup
		if err := json.Unmarshal(message, &backup); err != nil {
			return nil, fmt.Errorf("netbox: GET %s: decoding backup: %w", pathBackups, err)
		}
		backups = append(backups, backup)
	}
	return backups, nil
}

// DeleteBackup removes one tracked backup record.
func (c *Client) DeleteBackup(ctx context.Context, id int) error {
	path := fmt.Sprintf("%s%d/", pathBackups, id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}
