package models

import (
	"time"

	"agencyhub/internal/rbac"
)

// NewClient carries the fields accepted when creating a client.
type NewClient struct {
	Name         string  `json:"name" binding:"required,notblank"`
	ContactName  *string `json:"contact_name"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,email"`
	BrandColor   *string `json:"brand_color" binding:"omitempty,hexcolor,len=7"`
	LogoURL      *string `json:"logo_url" binding:"omitempty,url"`
	ToneOfVoice  *string `json:"tone_of_voice"`
}

// ClientPatch is a partial client update. Contact fields may be cleared with null.
type ClientPatch struct {
	Name         Optional[string] `json:"name"`
	ContactName  Optional[string] `json:"contact_name"`
	ContactEmail Optional[string] `json:"contact_email"`
	BrandColor   Optional[string] `json:"brand_color"`
	LogoURL      Optional[string] `json:"logo_url"`
	ToneOfVoice  Optional[string] `json:"tone_of_voice"`
}

// NewProject carries the fields accepted when creating a project.
type NewProject struct {
	ClientID      string        `json:"client_id" binding:"required,uuid"`
	Name          string        `json:"name" binding:"required,notblank"`
	Description   *string       `json:"description"`
	Status        ProjectStatus `json:"status" binding:"omitempty,oneof=active paused completed archived"`
	StartDate     *Date         `json:"start_date"`
	DueDate       *Date         `json:"due_date"`
	CoverImageURL *string       `json:"cover_image_url" binding:"omitempty,url"`
	CreatedBy     *string       `json:"-"`
}

// ProjectPatch is a partial project update. Dates and description may be cleared with null.
type ProjectPatch struct {
	ClientID      Optional[string]        `json:"client_id"`
	Name          Optional[string]        `json:"name"`
	Description   Optional[string]        `json:"description"`
	Status        Optional[ProjectStatus] `json:"status"`
	StartDate     Optional[Date]          `json:"start_date"`
	DueDate       Optional[Date]          `json:"due_date"`
	CoverImageURL Optional[string]        `json:"cover_image_url"`
}

// NewTask carries the fields accepted when creating a task.
type NewTask struct {
	ProjectID   string   `json:"project_id" binding:"omitempty,uuid"`
	ColumnID    string   `json:"column_id" binding:"required,uuid"`
	Title       string   `json:"title" binding:"required,notblank,max=500"`
	Description *string  `json:"description,omitempty"`
	Priority    Priority `json:"priority,omitempty" binding:"omitempty,oneof=urgent high medium low"`
	DueDate     *Date    `json:"due_date,omitempty"`
	AssigneeIDs []string `json:"assignee_ids,omitempty" binding:"omitempty,dive,uuid"`
	CreatedBy   *string  `json:"-"`
}

// TaskPatch is a partial task update. Title and priority cannot be nulled;
// description and due date can.
type TaskPatch struct {
	Title       Optional[string]   `json:"title"`
	Description Optional[string]   `json:"description"`
	Priority    Optional[Priority] `json:"priority"`
	DueDate     Optional[Date]     `json:"due_date"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Priority.Set && !p.DueDate.Set
}

// SubtaskPatch is a partial subtask update.
type SubtaskPatch struct {
	Title     Optional[string] `json:"title"`
	Completed Optional[bool]   `json:"completed"`
}

// ApprovalDecision is a client's answer to a pending approval. AdvanceTask
// moves the task to the project's final column in the same transaction.
type ApprovalDecision struct {
	ApprovalID  string
	Status      ApprovalStatus
	Feedback    *string
	RespondedAt time.Time
	AdvanceTask bool
}

// NewUser carries the fields accepted when creating an internal account.
type NewUser struct {
	Name         string    `json:"name" binding:"required,min=2"`
	Email        string    `json:"email" binding:"required,email"`
	Role         rbac.Role `json:"role" binding:"required,oneof=admin manager designer writer"`
	PasswordHash string    `json:"-"`
}

// ProfilePatch is a user's update to their own profile.
type ProfilePatch struct {
	Name      Optional[string] `json:"name"`
	AvatarURL Optional[string] `json:"avatar_url"`
}

// NotificationPatch changes a user's email preferences. Absent keys are left alone.
type NotificationPatch struct {
	EmailOnApproval Optional[bool] `json:"emailOnApproval"`
	EmailOnComment  Optional[bool] `json:"emailOnComment"`
	EmailOnAssign   Optional[bool] `json:"emailOnAssign"`
	EmailOnDeadline Optional[bool] `json:"emailOnDeadline"`
}
