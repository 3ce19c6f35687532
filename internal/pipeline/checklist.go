package pipeline

import (
	"context"
	"fmt"
	"math"
	"sync"

	"agencyhub/internal/apperr"
	"agencyhub/internal/models"
)

// SubtaskPersister saves checklist changes for one task.
type SubtaskPersister interface {
	CreateSubtask(ctx context.Context, taskID, title string) (models.Subtask, error)
	SetSubtaskCompleted(ctx context.Context, taskID, subtaskID string, completed bool) error
	DeleteSubtask(ctx context.Context, taskID, subtaskID string) error
}

// Checklist is the subtask list of a task with the same optimistic discipline
// as Controller.
type Checklist struct {
	taskID string
	store  SubtaskPersister

	ops sync.Mutex

	mu    sync.RWMutex
	items []models.Subtask
}

func NewChecklist(taskID string, items []models.Subtask, store SubtaskPersister) *Checklist {
	return &Checklist{taskID: taskID, store: store, items: cloneSubtasks(items)}
}

// Items returns a copy of the visible subtasks.
func (c *Checklist) Items() []models.Subtask {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneSubtasks(c.items)
}

// Progress is the rounded completion percentage of the visible subtasks.
func (c *Checklist) Progress() int {
	return CompletionPercent(c.Items())
}

func (c *Checklist) current() []models.Subtask {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items
}

func (c *Checklist) set(items []models.Subtask) {
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

// Add creates a subtask and appends the server's record.
func (c *Checklist) Add(ctx context.Context, title string) (models.Subtask, error) {
	c.ops.Lock()
	defer c.ops.Unlock()

	st, err := c.store.CreateSubtask(ctx, c.taskID, title)
	if err != nil {
		return models.Subtask{}, fmt.Errorf("create subtask: %w", err)
	}
	c.set(append(cloneSubtasks(c.current()), st))
	return st, nil
}

// Toggle flips the completed flag, reverting it if the save fails.
func (c *Checklist) Toggle(ctx context.Context, subtaskID string) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	snapshot := c.current()
	next := cloneSubtasks(snapshot)
	idx := indexSubtask(next, subtaskID)
	if idx < 0 {
		return apperr.NotFound("subtask")
	}
	next[idx].Completed = !next[idx].Completed
	c.set(next)

	if err := c.store.SetSubtaskCompleted(ctx, c.taskID, subtaskID, next[idx].Completed); err != nil {
		c.set(snapshot)
		return fmt.Errorf("%w: toggle subtask: %w", ErrRolledBack, err)
	}
	return nil
}

// Remove deletes a subtask immediately, restoring it if the delete fails.
func (c *Checklist) Remove(ctx context.Context, subtaskID string) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	snapshot := c.current()
	idx := indexSubtask(snapshot, subtaskID)
	if idx < 0 {
		return apperr.NotFound("subtask")
	}
	next := make([]models.Subtask, 0, len(snapshot)-1)
	next = append(next, snapshot[:idx]...)
	next = append(next, snapshot[idx+1:]...)
	c.set(next)

	if err := c.store.DeleteSubtask(ctx, c.taskID, subtaskID); err != nil {
		c.set(snapshot)
		return fmt.Errorf("%w: delete subtask: %w", ErrRolledBack, err)
	}
	return nil
}

// CompletionPercent returns completed/total as a whole percentage, 0 for an
// empty list. Never persisted.
func CompletionPercent(items []models.Subtask) int {
	if len(items) == 0 {
		return 0
	}
	done := 0
	for _, s := range items {
		if s.Completed {
			done++
		}
	}
	return int(math.Round(float64(done) * 100 / float64(len(items))))
}

func indexSubtask(items []models.Subtask, id string) int {
	for i, s := range items {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func cloneSubtasks(items []models.Subtask) []models.Subtask {
	if items == nil {
		return []models.Subtask{}
	}
	out := make([]models.Subtask, len(items))
	copy(out, items)
	return out
}
