package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agencyhub/internal/models"
)

type moveRequest struct {
	ColumnID string `json:"column_id" binding:"required,uuid"`
	Position *int   `json:"position" binding:"required"`
}

type assigneesRequest struct {
	UserIDs []string `json:"user_ids" binding:"omitempty,dive,uuid"`
}

// handleCreateTask appends a new task to a project column.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req models.NewTask
	if !s.bindJSON(c, &req) {
		return
	}
	creator := currentUser(c).ID
	req.CreatedBy = &creator

	task, err := s.store.CreateTask(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	task, err := s.store.GetTask(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleUpdateTask updates task fields such as title, priority or due date.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var patch models.TaskPatch
	if !s.bindJSON(c, &patch) {
		return
	}

	task, err := s.store.UpdateTask(c.Request.Context(), id, patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteTask(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleMoveTask places a task at a position in a column of its project.
func (s *Server) handleMoveTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req moveRequest
	if !s.bindJSON(c, &req) {
		return
	}
	task, err := s.store.MoveTask(c.Request.Context(), id, req.ColumnID, *req.Position)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

func (s *Server) handleSetAssignees(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req assigneesRequest
	if !s.bindJSON(c, &req) {
		return
	}
	task, err := s.store.SetAssignees(c.Request.Context(), id, req.UserIDs)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}
