package domain

import "strings"

// ShareStatus is the lifecycle state of a Share.
type ShareStatus string

const (
	ShareStatusPending    ShareStatus = "pending"
	ShareStatusUploaded   ShareStatus = "uploaded"
	ShareStatusProcessing ShareStatus = "processing"
	ShareStatusPosted     ShareStatus = "posted"
	ShareStatusFailed     ShareStatus = "failed"
)

var shareStatusLabels = map[ShareStatus]string{
	ShareStatusPending:    "Pending",
	ShareStatusUploaded:   "Uploaded",
	ShareStatusProcessing: "Still processing",
	ShareStatusPosted:     "Posted",
	ShareStatusFailed:     "Failed",
}

// Label returns a human-readable label for a share status.
func (s ShareStatus) Label() string {
	if label, ok := shareStatusLabels[s]; ok {
		return label
	}

	return "Unknown"
}

// Terminal reports whether no further transitions are expected.
func (s ShareStatus) Terminal() bool {
	return s == ShareStatusPosted || s == ShareStatusFailed
}

// ParseShareStatus returns the status for a given value (case-insensitive).
func ParseShareStatus(value string) (ShareStatus, bool) {
	status := ShareStatus(strings.ToLower(strings.TrimSpace(value)))
	_, ok := shareStatusLabels[status]

	return status, ok
}
