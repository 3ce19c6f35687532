package models

import (
	"time"

	"agencyhub/internal/rbac"
)

// User is an internal account. Clients never get one; they answer approvals by token.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Role         rbac.Role `db:"role" json:"role"`
	AvatarURL    *string   `db:"avatar_url" json:"avatar_url"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Client is an agency customer owning projects.
type Client struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	ContactName  *string   `db:"contact_name" json:"contact_name"`
	ContactEmail *string   `db:"contact_email" json:"contact_email"`
	BrandColor   *string   `db:"brand_color" json:"brand_color"`
	LogoURL      *string   `db:"logo_url" json:"logo_url"`
	ToneOfVoice  *string   `db:"tone_of_voice" json:"tone_of_voice"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Project groups a pipeline of columns for one client.
type Project struct {
	ID            string        `db:"id" json:"id"`
	ClientID      string        `db:"client_id" json:"client_id"`
	ClientName    string        `db:"client_name" json:"client_name"`
	Name          string        `db:"name" json:"name"`
	Description   *string       `db:"description" json:"description"`
	Status        ProjectStatus `db:"status" json:"status"`
	StartDate     *Date         `db:"start_date" json:"start_date"`
	DueDate       *Date         `db:"due_date" json:"due_date"`
	CoverImageURL *string       `db:"cover_image_url" json:"cover_image_url"`
	CreatedBy     *string       `db:"created_by" json:"created_by"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// Column is one stage of a project pipeline.
type Column struct {
	ID        string    `db:"id" json:"id"`
	ProjectID string    `db:"project_id" json:"project_id"`
	Name      string    `db:"name" json:"name"`
	Position  int       `db:"position" json:"position"`
	Color     *string   `db:"color" json:"color"`
	Final     bool      `db:"is_final" json:"final"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Task represents a single card in a pipeline column.
type Task struct {
	ID          string    `db:"id" json:"id"`
	ProjectID   string    `db:"project_id" json:"project_id"`
	ColumnID    string    `db:"column_id" json:"column_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	Priority    Priority  `db:"priority" json:"priority"`
	DueDate     *Date     `db:"due_date" json:"due_date"`
	Position    int       `db:"position" json:"position"`
	CreatedBy   *string   `db:"created_by" json:"created_by"`
	AssigneeIDs []string  `db:"-" json:"assignee_ids"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// BoardColumn is a column together with its tasks in display order.
type BoardColumn struct {
	Column
	Tasks []Task `json:"tasks"`
}

// Subtask is a checklist entry under a task.
type Subtask struct {
	ID         string    `db:"id" json:"id"`
	TaskID     string    `db:"task_id" json:"task_id"`
	Title      string    `db:"title" json:"title"`
	Completed  bool      `db:"completed" json:"completed"`
	AssignedTo *string   `db:"assigned_to" json:"assigned_to"`
	CreatedBy  *string   `db:"created_by" json:"created_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Attachment links an uploaded file to a task.
type Attachment struct {
	ID         string    `db:"id" json:"id"`
	TaskID     string    `db:"task_id" json:"task_id"`
	FileURL    string    `db:"file_url" json:"file_url"`
	FileName   string    `db:"file_name" json:"file_name"`
	FileType   *string   `db:"file_type" json:"file_type"`
	FileSize   *int64    `db:"file_size" json:"file_size"`
	UploadedBy *string   `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Approval is a token-addressed request for a client decision on a task.
type Approval struct {
	ID             string         `db:"id" json:"id"`
	TaskID         string         `db:"task_id" json:"task_id"`
	ProjectID      string         `db:"project_id" json:"project_id"`
	RequestedBy    *string        `db:"requested_by" json:"requested_by"`
	Status         ApprovalStatus `db:"status" json:"status"`
	ClientEmail    *string        `db:"client_email" json:"client_email"`
	ClientName     *string        `db:"client_name" json:"client_name"`
	PublicToken    string         `db:"public_token" json:"public_token"`
	Notes          *string        `db:"notes" json:"notes"`
	ClientFeedback *string        `db:"client_feedback" json:"client_feedback"`
	ExpiresAt      *time.Time     `db:"expires_at" json:"expires_at"`
	RespondedAt    *time.Time     `db:"responded_at" json:"responded_at"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// Expired reports whether the approval window closed before now.
func (a Approval) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && now.After(*a.ExpiresAt)
}

// ApprovalDetail is an approval joined with the names shown on the approval page.
type ApprovalDetail struct {
	Approval
	TaskTitle      string  `db:"task_title" json:"task_title"`
	ProjectName    string  `db:"project_name" json:"project_name"`
	RequesterName  *string `db:"requester_name" json:"requester_name"`
	RequesterEmail *string `db:"requester_email" json:"-"`
}

// TaskContext is a task with the project and client it belongs to.
type TaskContext struct {
	Task    Task
	Project Project
	Client  Client
}

// Generation is a stored result of the content generation helper.
type Generation struct {
	ID          string    `db:"id" json:"id"`
	ProjectID   *string   `db:"project_id" json:"project_id"`
	UserID      *string   `db:"user_id" json:"user_id"`
	ContentType string    `db:"content_type" json:"content_type"`
	Prompt      string    `db:"prompt" json:"prompt"`
	Result      string    `db:"result" json:"result"`
	Model       string    `db:"model" json:"model"`
	TokensUsed  *int      `db:"tokens_used" json:"tokens_used"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Session is a login session addressed by the hash of its bearer token.
type Session struct {
	TokenHash string    `db:"token_hash"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// NotificationPrefs are a user's email switches. Every flag defaults to on.
type NotificationPrefs struct {
	EmailOnApproval bool `db:"email_on_approval" json:"emailOnApproval"`
	EmailOnComment  bool `db:"email_on_comment" json:"emailOnComment"`
	EmailOnAssign   bool `db:"email_on_assign" json:"emailOnAssign"`
	EmailOnDeadline bool `db:"email_on_deadline" json:"emailOnDeadline"`
}

// DefaultNotificationPrefs returns the preferences of a user who never changed them.
func DefaultNotificationPrefs() NotificationPrefs {
	return NotificationPrefs{EmailOnApproval: true, EmailOnComment: true, EmailOnAssign: true, EmailOnDeadline: true}
}

// Dashboard summarizes agency workload.
type Dashboard struct {
	// InProduction counts tasks past the first column and short of the final
	// one that are not waiting on a client.
	InProduction     int             `json:"tasks_in_production"`
	AwaitingApproval int             `json:"pending_approvals"`
	DueThisWeek      int             `json:"deadlines_this_week"`
	ActiveProjects   int             `json:"active_projects_count"`
	Recent           []ActiveProject `json:"active_projects"`
}

// ActiveProject is a row of the dashboard project list.
type ActiveProject struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	ClientName    string    `db:"client_name" json:"client_name"`
	BrandColor    *string   `db:"brand_color" json:"client_brand_color"`
	CoverImageURL *string   `db:"cover_image_url" json:"cover_image_url"`
	DueDate       *Date     `db:"due_date" json:"due_date"`
	TaskCount     int       `db:"task_count" json:"task_count"`
	DoneCount     int       `db:"done_count" json:"done_count"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
