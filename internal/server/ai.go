package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agencyhub/internal/apperr"
	"agencyhub/internal/generate"
)

// handleGenerate runs a brief through the language model.
func (s *Server) handleGenerate(c *gin.Context) {
	if s.generator == nil {
		s.respondError(c, apperr.ErrUpstreamUnavailable)
		return
	}
	var req generate.Request
	if !s.bindJSON(c, &req) {
		return
	}
	g, err := s.generator.Generate(c.Request.Context(), req, currentUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"result": g.Result, "generation_id": g.ID, "tokens_used": g.TokensUsed})
}

func (s *Server) handleListGenerations(c *gin.Context) {
	if s.generator == nil {
		s.respondError(c, apperr.ErrUpstreamUnavailable)
		return
	}
	items, err := s.generator.History(c.Request.Context(), c.Query("project_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"generations": items})
}
