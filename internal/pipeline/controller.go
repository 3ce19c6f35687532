package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"agencyhub/internal/models"
)

// ErrRolledBack marks a change that was shown optimistically, failed to
// persist, and was reverted.
var ErrRolledBack = errors.New("change was not saved and has been reverted")

// Persister saves board changes. Only the moved task's final column and
// position are sent on a move.
type Persister interface {
	MoveTask(ctx context.Context, taskID, columnID string, position int) error
	DeleteTask(ctx context.Context, taskID string) error
	CreateTask(ctx context.Context, in models.NewTask) (models.Task, error)
}

// Controller applies board changes optimistically and restores the previous
// board when persistence fails. Operations run one at a time; Board may be
// read while one is in flight and shows the optimistic state.
type Controller struct {
	store  Persister
	logger *slog.Logger

	ops sync.Mutex

	mu    sync.RWMutex
	board Board
}

// NewController wraps board with store.
func NewController(board Board, store Persister, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{store: store, logger: logger, board: board.Clone()}
}

// Board returns a copy of the visible board.
func (c *Controller) Board() Board {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.board.Clone()
}

// Reset replaces the visible board, e.g. after a full reload.
func (c *Controller) Reset(b Board) {
	c.ops.Lock()
	defer c.ops.Unlock()
	c.set(b.Clone())
}

func (c *Controller) current() Board {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.board
}

func (c *Controller) set(b Board) {
	c.mu.Lock()
	c.board = b
	c.mu.Unlock()
}

// MoveTask moves a card and persists its new column and position.
func (c *Controller) MoveTask(ctx context.Context, taskID, sourceColumnID, destColumnID string, index int) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	snapshot := c.current()
	next, moved, err := Move(snapshot, taskID, sourceColumnID, destColumnID, index)
	if err != nil {
		return err
	}
	c.set(next)

	if err := c.store.MoveTask(ctx, moved.ID, moved.ColumnID, moved.Position); err != nil {
		c.set(snapshot)
		c.logger.Warn("move rolled back", slog.String("task", taskID), slog.String("error", err.Error()))
		return fmt.Errorf("%w: move task: %w", ErrRolledBack, err)
	}
	return nil
}

// DeleteTask removes a card immediately and restores it if the delete fails.
func (c *Controller) DeleteTask(ctx context.Context, taskID string) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	snapshot := c.current()
	next, _, err := Remove(snapshot, taskID)
	if err != nil {
		return err
	}
	c.set(next)

	if err := c.store.DeleteTask(ctx, taskID); err != nil {
		c.set(snapshot)
		c.logger.Warn("delete rolled back", slog.String("task", taskID), slog.String("error", err.Error()))
		return fmt.Errorf("%w: delete task: %w", ErrRolledBack, err)
	}
	return nil
}

// CreateTask is not optimistic: the card is added once the server returns it.
func (c *Controller) CreateTask(ctx context.Context, in models.NewTask) (models.Task, error) {
	c.ops.Lock()
	defer c.ops.Unlock()

	if _, ok := c.current().ColumnIndex(in.ColumnID); !ok {
		return models.Task{}, fmt.Errorf("column %s is not on this board", in.ColumnID)
	}
	task, err := c.store.CreateTask(ctx, in)
	if err != nil {
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}
	next, err := Append(c.current(), task)
	if err != nil {
		return models.Task{}, err
	}
	c.set(next)
	return task, nil
}
