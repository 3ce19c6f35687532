package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agencyhub/internal/models"
)

// handleListProjects returns projects, optionally for one client.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context(), c.Query("client_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"projects": projects})
}

func (s *Server) handleGetProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	project, err := s.store.GetProject(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleCreateProject creates a project with the default pipeline columns.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req models.NewProject
	if !s.bindJSON(c, &req) {
		return
	}
	creator := currentUser(c).ID
	req.CreatedBy = &creator

	project, err := s.store.CreateProject(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"project": project})
}

// handleUpdateProject applies a partial update; dates may be cleared with null.
func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var patch models.ProjectPatch
	if !s.bindJSON(c, &patch) {
		return
	}

	project, err := s.store.UpdateProject(c.Request.Context(), id, patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleDeleteProject removes a project and all related tasks.
func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteProject(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleGetBoard returns the project's columns with their tasks in display order.
func (s *Server) handleGetBoard(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	board, err := s.store.LoadBoard(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"board": board})
}
