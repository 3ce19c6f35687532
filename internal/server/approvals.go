package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agencyhub/internal/approval"
	"agencyhub/internal/models"
)

type approvalRequest struct {
	TaskID      string  `json:"task_id" binding:"required,uuid"`
	ClientEmail *string `json:"client_email" binding:"omitempty,email"`
	ClientName  *string `json:"client_name"`
	Notes       *string `json:"notes"`
}

type respondRequest struct {
	Status   models.ApprovalStatus `json:"status" binding:"required,oneof=approved changes_requested rejected"`
	Feedback *string               `json:"feedback"`
}

func (s *Server) handleListApprovals(c *gin.Context) {
	items, err := s.approvals.List(c.Request.Context(), c.Query("project_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"approvals": items})
}

// handleCreateApproval issues a public link for a client decision on a task.
func (s *Server) handleCreateApproval(c *gin.Context) {
	var req approvalRequest
	if !s.bindJSON(c, &req) {
		return
	}
	created, err := s.approvals.Create(c.Request.Context(), approval.Request(req), currentUser(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"approval": created, "link": s.approvals.Link(created.PublicToken)})
}

// handlePublicApproval serves the approval page data. The token is the only credential.
func (s *Server) handlePublicApproval(c *gin.Context) {
	detail, err := s.approvals.Lookup(c.Request.Context(), c.Param("token"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"approval": detail})
}

// handlePublicRespond records the client's decision. A repeated answer is a
// conflict whose body carries the decision already on file.
func (s *Server) handlePublicRespond(c *gin.Context) {
	var req respondRequest
	if !s.bindJSON(c, &req) {
		return
	}
	updated, err := s.approvals.Respond(c.Request.Context(), c.Param("token"), req.Status, req.Feedback)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"approval": updated})
}
