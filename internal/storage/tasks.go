package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"agencyhub/internal/apperr"
	"agencyhub/internal/models"
	"agencyhub/internal/pipeline"
)

const taskColumns = `id, project_id, column_id, title, description, priority, due_date, position, created_by, created_at, updated_at`

// taskOrder is the stable board order. Duplicate or sparse positions left by
// concurrent writers still produce a deterministic list.
const taskOrder = ` ORDER BY position, created_at, id`

// LoadBoard assembles a project's columns with their tasks in display order.
func (s *Store) LoadBoard(ctx context.Context, projectID string) (pipeline.Board, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return pipeline.Board{}, err
	}

	var (
		cols      []models.Column
		tasks     []models.Task
		assignees map[string][]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cols, err = s.ListColumns(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = s.ListTasks(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		assignees, err = s.projectAssignees(gctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return pipeline.Board{}, err
	}

	for i := range tasks {
		tasks[i].AssigneeIDs = nonNil(assignees[tasks[i].ID])
	}
	return pipeline.Assemble(cols, tasks), nil
}

// ListTasks returns a project's tasks in board order, without assignees.
func (s *Store) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	tasks := []models.Task{}
	err := s.db.SelectContext(ctx, &tasks, s.db.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE project_id = ?`+taskOrder), projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask retrieves a task by id with its assignees.
func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	t, err := getTask(ctx, s.db, id)
	if err != nil {
		return models.Task{}, err
	}
	ids := []string{}
	err = s.db.SelectContext(ctx, &ids, s.db.Rebind(`SELECT user_id FROM task_assignees WHERE task_id = ? ORDER BY user_id`), id)
	if err != nil {
		return models.Task{}, fmt.Errorf("list assignees: %w", err)
	}
	t.AssigneeIDs = ids
	return t, nil
}

func getTask(ctx context.Context, q sqlx.ExtContext, id string) (models.Task, error) {
	var t models.Task
	err := sqlx.GetContext(ctx, q, &t, q.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)
	if err != nil {
		return models.Task{}, notFound(err, "task", "get task")
	}
	return t, nil
}

// GetTaskContext returns a task with its project and client.
func (s *Store) GetTaskContext(ctx context.Context, taskID string) (models.TaskContext, error) {
	t, err := getTask(ctx, s.db, taskID)
	if err != nil {
		return models.TaskContext{}, err
	}
	p, err := s.GetProject(ctx, t.ProjectID)
	if err != nil {
		return models.TaskContext{}, err
	}
	c, err := s.GetClient(ctx, p.ClientID)
	if err != nil {
		return models.TaskContext{}, err
	}
	return models.TaskContext{Task: t, Project: p, Client: c}, nil
}

// CreateTask appends a new task to the end of its column.
func (s *Store) CreateTask(ctx context.Context, in models.NewTask) (models.Task, error) {
	if err := in.Validate(); err != nil {
		return models.Task{}, err
	}
	col, err := getColumn(ctx, s.db, in.ColumnID)
	if err != nil {
		return models.Task{}, err
	}
	if in.ProjectID != "" && in.ProjectID != col.ProjectID {
		return models.Task{}, apperr.Invalid("column %s does not belong to project %s", col.ID, in.ProjectID)
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	id := newID()
	now := s.now()
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		pos, err := nextPosition(ctx, tx, col.ID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO tasks(id, project_id, column_id, title, description, priority, due_date, position, created_by, created_at, updated_at)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			id, col.ProjectID, col.ID, strings.TrimSpace(in.Title), trimPtr(in.Description), priority, in.DueDate, pos, in.CreatedBy, now, now)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		return replaceAssignees(ctx, tx, id, in.AssigneeIDs)
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, id)
}

// UpdateTask applies a partial update. Column and position change only via MoveTask.
func (s *Store) UpdateTask(ctx context.Context, id string, p models.TaskPatch) (models.Task, error) {
	if err := p.Validate(); err != nil {
		return models.Task{}, err
	}
	var u update
	if p.Title.Set {
		u.set("title", strings.TrimSpace(p.Title.Value))
	}
	if p.Description.Set {
		u.set("description", trimPtr(p.Description.Ptr()))
	}
	if p.Priority.Set {
		u.set("priority", p.Priority.Value)
	}
	if p.DueDate.Set {
		u.set("due_date", p.DueDate.Ptr())
	}
	if u.empty() {
		return s.GetTask(ctx, id)
	}
	u.set("updated_at", s.now())
	q, args := u.query("tasks", id)
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	if err := expectRow(res, "task"); err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectRow(res, "task")
}

// MoveTask places a task in columnID at position and renumbers the affected
// columns densely, so a reload shows the same order the mover saw. The column
// must belong to the task's project.
func (s *Store) MoveTask(ctx context.Context, id, columnID string, position int) (models.Task, error) {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		t, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		col, err := getColumn(ctx, tx, columnID)
		if err != nil {
			return err
		}
		if col.ProjectID != t.ProjectID {
			return apperr.Invalid("column %s belongs to another project", columnID)
		}
		return s.placeTask(ctx, tx, t, col.ID, position)
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, id)
}

// placeTask inserts t into columnID at index (clamped) and re-indexes the
// source and destination columns.
func (s *Store) placeTask(ctx context.Context, tx *sqlx.Tx, t models.Task, columnID string, index int) error {
	dest, err := columnTaskIDs(ctx, tx, columnID, t.ID)
	if err != nil {
		return err
	}
	if index < 0 {
		index = 0
	}
	if index > len(dest) {
		index = len(dest)
	}
	ordered := make([]string, 0, len(dest)+1)
	ordered = append(ordered, dest[:index]...)
	ordered = append(ordered, t.ID)
	ordered = append(ordered, dest[index:]...)

	now := s.now()
	_, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE tasks SET column_id = ?, updated_at = ? WHERE id = ?`), columnID, now, t.ID)
	if err != nil {
		return fmt.Errorf("move task: %w", err)
	}
	if err := renumber(ctx, tx, ordered); err != nil {
		return err
	}
	if t.ColumnID != columnID {
		source, err := columnTaskIDs(ctx, tx, t.ColumnID, "")
		if err != nil {
			return err
		}
		return renumber(ctx, tx, source)
	}
	return nil
}

// columnTaskIDs lists a column's task ids in board order, leaving out skip.
func columnTaskIDs(ctx context.Context, tx *sqlx.Tx, columnID, skip string) ([]string, error) {
	ids := []string{}
	err := tx.SelectContext(ctx, &ids, tx.Rebind(`SELECT id FROM tasks WHERE column_id = ? AND id <> ?`+taskOrder), columnID, skip)
	if err != nil {
		return nil, fmt.Errorf("list column tasks: %w", err)
	}
	return ids, nil
}

func renumber(ctx context.Context, tx *sqlx.Tx, ids []string) error {
	stmt := tx.Rebind(`UPDATE tasks SET position = ? WHERE id = ? AND position <> ?`)
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx, stmt, i, id, i); err != nil {
			return fmt.Errorf("renumber tasks: %w", err)
		}
	}
	return nil
}

func nextPosition(ctx context.Context, q sqlx.ExtContext, columnID string) (int, error) {
	var position sql.NullInt64
	err := q.QueryRowxContext(ctx, q.Rebind(`SELECT MAX(position) FROM tasks WHERE column_id = ?`), columnID).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("select position: %w", err)
	}
	if position.Valid {
		return int(position.Int64) + 1, nil
	}
	return 0, nil
}

// SetAssignees replaces the set of users assigned to a task.
func (s *Store) SetAssignees(ctx context.Context, taskID string, userIDs []string) (models.Task, error) {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := getTask(ctx, tx, taskID); err != nil {
			return err
		}
		return replaceAssignees(ctx, tx, taskID, userIDs)
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, taskID)
}

func replaceAssignees(ctx context.Context, tx *sqlx.Tx, taskID string, userIDs []string) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM task_assignees WHERE task_id = ?`), taskID); err != nil {
		return fmt.Errorf("clear assignees: %w", err)
	}
	seen := make(map[string]bool, len(userIDs))
	for _, uid := range userIDs {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		var n int
		if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM users WHERE id = ?`), uid); err != nil {
			return fmt.Errorf("check assignee: %w", err)
		}
		if n == 0 {
			return apperr.Invalid("unknown assignee %s", uid)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO task_assignees(task_id, user_id) VALUES(?, ?)`), taskID, uid); err != nil {
			return fmt.Errorf("insert assignee: %w", err)
		}
	}
	return nil
}

func (s *Store) projectAssignees(ctx context.Context, projectID string) (map[string][]string, error) {
	var rows []struct {
		TaskID string `db:"task_id"`
		UserID string `db:"user_id"`
	}
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT ta.task_id, ta.user_id FROM task_assignees ta
		JOIN tasks t ON t.id = ta.task_id WHERE t.project_id = ? ORDER BY ta.task_id, ta.user_id`), projectID)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	out := make(map[string][]string)
	for _, r := range rows {
		out[r.TaskID] = append(out[r.TaskID], r.UserID)
	}
	return out, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
