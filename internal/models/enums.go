package models

// Priority orders tasks by urgency.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectPaused    ProjectStatus = "paused"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

// ApprovalStatus is the state of an approval request. Only pending is non-terminal.
type ApprovalStatus string

const (
	ApprovalPending          ApprovalStatus = "pending"
	ApprovalApproved         ApprovalStatus = "approved"
	ApprovalChangesRequested ApprovalStatus = "changes_requested"
	ApprovalRejected         ApprovalStatus = "rejected"
)

// Terminal reports whether s is a final decision.
func (s ApprovalStatus) Terminal() bool {
	switch s {
	case ApprovalApproved, ApprovalChangesRequested, ApprovalRejected:
		return true
	}
	return false
}

// DefaultColumns is the pipeline template created with every project.
var DefaultColumns = []struct {
	Name  string
	Final bool
}{
	{Name: "Briefing"},
	{Name: "In Production"},
	{Name: "Internal Review"},
	{Name: "Client Approval"},
	{Name: "Done", Final: true},
}
