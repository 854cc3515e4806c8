package netbox

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by lookups that legitimately miss, such as
// resolving a virtual machine by its hypervisor vmid.
var ErrNotFound = errors.New("netbox: not found")

// RequestError carries the remote response of a failed NetBox call so
// callers can inspect the original validation message.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("netbox: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// ResolutionError marks a failed create-or-fetch for one entity kind.
// The remote cause is preserved for the caller to decide abort or skip.
type ResolutionError struct {
	Kind string
	Key  string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s (%s): %v", e.Kind, e.Key, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// IsDuplicate reports whether the remote rejected a create because the
// record already exists. NetBox encodes this only in the validation
// message text, so matching the substring is the contract.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "already exists")
}
