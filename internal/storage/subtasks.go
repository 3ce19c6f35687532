package storage

import (
	"context"
	"fmt"
	"strings"

	"agencyhub/internal/apperr"
	"agencyhub/internal/models"
)

const subtaskColumns = `id, task_id, title, completed, assigned_to, created_by, created_at, updated_at`

// ListSubtasks returns a task's checklist in creation order.
func (s *Store) ListSubtasks(ctx context.Context, taskID string) ([]models.Subtask, error) {
	items := []models.Subtask{}
	err := s.db.SelectContext(ctx, &items, s.db.Rebind(`SELECT `+subtaskColumns+` FROM subtasks WHERE task_id = ? ORDER BY created_at, id`), taskID)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	return items, nil
}

// GetSubtask fetches a subtask, scoped to its parent task.
func (s *Store) GetSubtask(ctx context.Context, taskID, id string) (models.Subtask, error) {
	var st models.Subtask
	err := s.db.GetContext(ctx, &st, s.db.Rebind(`SELECT `+subtaskColumns+` FROM subtasks WHERE id = ? AND task_id = ?`), id, taskID)
	if err != nil {
		return models.Subtask{}, notFound(err, "subtask", "get subtask")
	}
	return st, nil
}

// CreateSubtask adds an unchecked item to a task's checklist.
func (s *Store) CreateSubtask(ctx context.Context, taskID, title string, createdBy *string) (models.Subtask, error) {
	if strings.TrimSpace(title) == "" {
		return models.Subtask{}, apperr.Invalid("title is required")
	}
	if len([]rune(title)) > models.MaxTitleLength {
		return models.Subtask{}, apperr.Invalid("title must be at most %d characters", models.MaxTitleLength)
	}
	if _, err := getTask(ctx, s.db, taskID); err != nil {
		return models.Subtask{}, err
	}
	id := newID()
	now := s.now()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO subtasks(id, task_id, title, completed, created_by, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)`), id, taskID, strings.TrimSpace(title), false, createdBy, now, now)
	if err != nil {
		return models.Subtask{}, fmt.Errorf("insert subtask: %w", err)
	}
	return s.GetSubtask(ctx, taskID, id)
}

// UpdateSubtask applies a partial update to a subtask of taskID.
func (s *Store) UpdateSubtask(ctx context.Context, taskID, id string, p models.SubtaskPatch) (models.Subtask, error) {
	if err := p.Validate(); err != nil {
		return models.Subtask{}, err
	}
	if _, err := s.GetSubtask(ctx, taskID, id); err != nil {
		return models.Subtask{}, err
	}
	var u update
	if p.Title.Set {
		u.set("title", strings.TrimSpace(p.Title.Value))
	}
	if p.Completed.Set {
		u.set("completed", p.Completed.Value)
	}
	if u.empty() {
		return s.GetSubtask(ctx, taskID, id)
	}
	u.set("updated_at", s.now())
	q, args := u.query("subtasks", id)
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...); err != nil {
		return models.Subtask{}, fmt.Errorf("update subtask: %w", err)
	}
	return s.GetSubtask(ctx, taskID, id)
}

// DeleteSubtask removes a subtask of taskID.
func (s *Store) DeleteSubtask(ctx context.Context, taskID, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM subtasks WHERE id = ? AND task_id = ?`), id, taskID)
	if err != nil {
		return fmt.Errorf("delete subtask: %w", err)
	}
	return expectRow(res, "subtask")
}

const attachmentColumns = `id, task_id, file_url, file_name, file_type, file_size, uploaded_by, created_at`

// ListAttachments returns a task's files, newest first.
func (s *Store) ListAttachments(ctx context.Context, taskID string) ([]models.Attachment, error) {
	items := []models.Attachment{}
	err := s.db.SelectContext(ctx, &items, s.db.Rebind(`SELECT `+attachmentColumns+` FROM attachments WHERE task_id = ? ORDER BY created_at DESC, id`), taskID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return items, nil
}

// CreateAttachment links an uploaded file to a task.
func (s *Store) CreateAttachment(ctx context.Context, a models.Attachment) (models.Attachment, error) {
	if strings.TrimSpace(a.FileURL) == "" || strings.TrimSpace(a.FileName) == "" {
		return models.Attachment{}, apperr.Invalid("file_url and file_name are required")
	}
	if _, err := getTask(ctx, s.db, a.TaskID); err != nil {
		return models.Attachment{}, err
	}
	a.ID = newID()
	a.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO attachments(id, task_id, file_url, file_name, file_type, file_size, uploaded_by, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`), a.ID, a.TaskID, a.FileURL, a.FileName, a.FileType, a.FileSize, a.UploadedBy, a.CreatedAt)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("insert attachment: %w", err)
	}
	return s.GetAttachment(ctx, a.TaskID, a.ID)
}

// GetAttachment fetches an attachment of taskID.
func (s *Store) GetAttachment(ctx context.Context, taskID, id string) (models.Attachment, error) {
	var a models.Attachment
	err := s.db.GetContext(ctx, &a, s.db.Rebind(`SELECT `+attachmentColumns+` FROM attachments WHERE id = ? AND task_id = ?`), id, taskID)
	if err != nil {
		return models.Attachment{}, notFound(err, "attachment", "get attachment")
	}
	return a, nil
}

// DeleteAttachment removes an attachment of taskID.
func (s *Store) DeleteAttachment(ctx context.Context, taskID, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM attachments WHERE id = ? AND task_id = ?`), id, taskID)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return expectRow(res, "attachment")
}
