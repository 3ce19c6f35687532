package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agencyhub/internal/models"
)

func (s *Server) handleListClients(c *gin.Context) {
	clients, err := s.store.ListClients(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"clients": clients})
}

func (s *Server) handleGetClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	client, err := s.store.GetClient(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"client": client})
}

func (s *Server) handleCreateClient(c *gin.Context) {
	var req models.NewClient
	if !s.bindJSON(c, &req) {
		return
	}
	client, err := s.store.CreateClient(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"client": client})
}

func (s *Server) handleUpdateClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch models.ClientPatch
	if !s.bindJSON(c, &patch) {
		return
	}
	client, err := s.store.UpdateClient(c.Request.Context(), id, patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"client": client})
}

// handleDeleteClient removes a client together with its projects.
func (s *Server) handleDeleteClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteClient(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
