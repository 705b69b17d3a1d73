package analysis

import "strings"

// Status is the readiness of an analysis as reported by the backend.
type Status string

const (
	StatusInit       Status = "init"
	StatusProcessing Status = "processing"
	StatusPartial    Status = "partial"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further updates are expected.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// ParseStatus maps the status strings the backend has used over time onto
// the five readiness states. Unknown values count as processing.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "init", "pending", "queued", "created", "":
		return StatusInit
	case "partial", "partial_done", "graph_ready":
		return StatusPartial
	case "done", "completed", "complete", "success", "succeeded", "finished":
		return StatusDone
	case "failed", "failure", "error", "errored":
		return StatusFailed
	default:
		return StatusProcessing
	}
}
