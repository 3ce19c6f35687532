// Package pipeline holds the kanban board model: assembling columns and tasks
// into display order and re-deriving positions when a card moves.
package pipeline

import (
	"fmt"
	"sort"

	"agencyhub/internal/apperr"
	"agencyhub/internal/models"
)

// Board is a project's pipeline in display order.
type Board struct {
	Columns []models.BoardColumn `json:"columns"`
}

// Assemble groups tasks under their columns. Columns are ordered by position
// and tasks by stored position; ties and gaps keep input order, so callers
// should pass tasks already ordered by (position, created_at, id).
func Assemble(columns []models.Column, tasks []models.Task) Board {
	cols := make([]models.Column, len(columns))
	copy(cols, columns)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Position < cols[j].Position })

	index := make(map[string]int, len(cols))
	board := Board{Columns: make([]models.BoardColumn, len(cols))}
	for i, c := range cols {
		index[c.ID] = i
		board.Columns[i] = models.BoardColumn{Column: c, Tasks: []models.Task{}}
	}
	for _, t := range tasks {
		i, ok := index[t.ColumnID]
		if !ok {
			continue
		}
		board.Columns[i].Tasks = append(board.Columns[i].Tasks, t)
	}
	for i := range board.Columns {
		ts := board.Columns[i].Tasks
		sort.SliceStable(ts, func(a, b int) bool { return ts[a].Position < ts[b].Position })
	}
	return board
}

// Clone returns a copy that shares no slices with b.
func (b Board) Clone() Board {
	out := Board{Columns: make([]models.BoardColumn, len(b.Columns))}
	for i, c := range b.Columns {
		tasks := make([]models.Task, len(c.Tasks))
		for j, t := range c.Tasks {
			if t.AssigneeIDs != nil {
				t.AssigneeIDs = append([]string(nil), t.AssigneeIDs...)
			}
			tasks[j] = t
		}
		out.Columns[i] = models.BoardColumn{Column: c.Column, Tasks: tasks}
	}
	return out
}

// ColumnIndex returns the index of the column with the given id.
func (b Board) ColumnIndex(columnID string) (int, bool) {
	for i, c := range b.Columns {
		if c.ID == columnID {
			return i, true
		}
	}
	return -1, false
}

// FindTask locates a task by id.
func (b Board) FindTask(taskID string) (col, idx int, ok bool) {
	for i, c := range b.Columns {
		for j, t := range c.Tasks {
			if t.ID == taskID {
				return i, j, true
			}
		}
	}
	return -1, -1, false
}

// Move returns a new board with taskID taken out of sourceColumnID and
// inserted into destColumnID at index, clamped to the destination length.
// Affected columns are re-indexed to dense 0..n-1 positions. b is not modified.
func Move(b Board, taskID, sourceColumnID, destColumnID string, index int) (Board, models.Task, error) {
	src, ok := b.ColumnIndex(sourceColumnID)
	if !ok {
		return b, models.Task{}, fmt.Errorf("source column %s: %w", sourceColumnID, apperr.ErrNotFound)
	}
	dst, ok := b.ColumnIndex(destColumnID)
	if !ok {
		return b, models.Task{}, fmt.Errorf("destination column %s: %w", destColumnID, apperr.ErrNotFound)
	}
	at := -1
	for i, t := range b.Columns[src].Tasks {
		if t.ID == taskID {
			at = i
			break
		}
	}
	if at < 0 {
		return b, models.Task{}, fmt.Errorf("task %s in column %s: %w", taskID, sourceColumnID, apperr.ErrNotFound)
	}

	next := b.Clone()
	srcTasks := next.Columns[src].Tasks
	moved := srcTasks[at]
	next.Columns[src].Tasks = append(srcTasks[:at:at], srcTasks[at+1:]...)

	moved.ColumnID = destColumnID
	destTasks := next.Columns[dst].Tasks
	index = clamp(index, 0, len(destTasks))
	inserted := make([]models.Task, 0, len(destTasks)+1)
	inserted = append(inserted, destTasks[:index]...)
	inserted = append(inserted, moved)
	inserted = append(inserted, destTasks[index:]...)
	next.Columns[dst].Tasks = inserted

	reindex(next.Columns[src].Tasks)
	if src != dst {
		reindex(next.Columns[dst].Tasks)
	}
	return next, next.Columns[dst].Tasks[index], nil
}

// Remove returns a new board without taskID.
func Remove(b Board, taskID string) (Board, models.Task, error) {
	col, idx, ok := b.FindTask(taskID)
	if !ok {
		return b, models.Task{}, apperr.NotFound("task")
	}
	next := b.Clone()
	tasks := next.Columns[col].Tasks
	removed := tasks[idx]
	next.Columns[col].Tasks = append(tasks[:idx:idx], tasks[idx+1:]...)
	return next, removed, nil
}

// Append returns a new board with task added at the end of its column.
func Append(b Board, task models.Task) (Board, error) {
	col, ok := b.ColumnIndex(task.ColumnID)
	if !ok {
		return b, fmt.Errorf("column %s: %w", task.ColumnID, apperr.ErrNotFound)
	}
	next := b.Clone()
	next.Columns[col].Tasks = append(next.Columns[col].Tasks, task)
	return next, nil
}

func reindex(tasks []models.Task) {
	for i := range tasks {
		tasks[i].Position = i
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
