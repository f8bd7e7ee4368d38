package constants

// RunStatus is the remote assistant run status as reported by the API.
type RunStatus string

// Stable values (these exact strings come back on the wire).
const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusExpired        RunStatus = "expired"
)

// Pending reports whether the run is still worth polling.
func (s RunStatus) Pending() bool {
	switch s {
	case RunStatusQueued, RunStatusInProgress, RunStatusCancelling:
		return true
	}
	return false
}
