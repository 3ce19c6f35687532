package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agencyhub/internal/apperr"
	"agencyhub/internal/auth"
	"agencyhub/internal/models"
	"agencyhub/internal/rbac"
)

type userRequest struct {
	Name     string    `json:"name" binding:"required,min=2"`
	Email    string    `json:"email" binding:"required,email"`
	Role     rbac.Role `json:"role" binding:"required,oneof=admin manager designer writer"`
	Password string    `json:"password" binding:"required"`
}

type roleRequest struct {
	Role rbac.Role `json:"role" binding:"required,oneof=admin manager designer writer"`
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"users": users})
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var req userRequest
	if !s.bindJSON(c, &req) {
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	user, err := s.store.CreateUser(c.Request.Context(), models.NewUser{
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		PasswordHash: hash,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"user": user})
}

// handleUpdateUserRole changes another user's role. Users cannot change their own.
func (s *Server) handleUpdateUserRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req roleRequest
	if !s.bindJSON(c, &req) {
		return
	}
	if id == currentUser(c).ID {
		s.respondError(c, apperr.Conflict("you cannot change your own role"))
		return
	}
	user, err := s.store.UpdateUserRole(c.Request.Context(), id, req.Role)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": user})
}

// handleDeleteUser removes another user's account. Users cannot delete themselves.
func (s *Server) handleDeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if id == currentUser(c).ID {
		s.respondError(c, apperr.Conflict("you cannot delete your own account"))
		return
	}
	if err := s.store.DeleteUser(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
