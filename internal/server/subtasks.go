package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"agencyhub/internal/apperr"
	"agencyhub/internal/files"
	"agencyhub/internal/models"
)

type subtaskRequest struct {
	Title string `json:"title" binding:"required,notblank,max=500"`
}

type attachmentRequest struct {
	FileURL  string  `json:"file_url" binding:"required"`
	FileName string  `json:"file_name" binding:"required"`
	FileType *string `json:"file_type"`
	FileSize *int64  `json:"file_size"`
}

type deleteUploadRequest struct {
	URL string `json:"url" binding:"required"`
}

func (s *Server) handleListSubtasks(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	items, err := s.store.ListSubtasks(c.Request.Context(), taskID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"subtasks": items})
}

func (s *Server) handleCreateSubtask(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req subtaskRequest
	if !s.bindJSON(c, &req) {
		return
	}
	creator := currentUser(c).ID
	item, err := s.store.CreateSubtask(c.Request.Context(), taskID, req.Title, &creator)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"subtask": item})
}

// handleUpdateSubtask toggles completion or renames a subtask.
func (s *Server) handleUpdateSubtask(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	id, ok := parseID(c, "subtaskId")
	if !ok {
		return
	}
	var patch models.SubtaskPatch
	if !s.bindJSON(c, &patch) {
		return
	}
	item, err := s.store.UpdateSubtask(c.Request.Context(), taskID, id, patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"subtask": item})
}

func (s *Server) handleDeleteSubtask(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	id, ok := parseID(c, "subtaskId")
	if !ok {
		return
	}
	if err := s.store.DeleteSubtask(c.Request.Context(), taskID, id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) handleListAttachments(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	items, err := s.store.ListAttachments(c.Request.Context(), taskID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"attachments": items})
}

// handleCreateAttachment links a previously uploaded file to a task.
func (s *Server) handleCreateAttachment(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req attachmentRequest
	if !s.bindJSON(c, &req) {
		return
	}
	uploader := currentUser(c).ID
	item, err := s.store.CreateAttachment(c.Request.Context(), models.Attachment{
		TaskID:     taskID,
		FileURL:    req.FileURL,
		FileName:   req.FileName,
		FileType:   req.FileType,
		FileSize:   req.FileSize,
		UploadedBy: &uploader,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"attachment": item})
}

// handleDeleteAttachment unlinks the attachment and removes its file when it
// is stored locally.
func (s *Server) handleDeleteAttachment(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	id, ok := parseID(c, "attachmentId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	item, err := s.store.GetAttachment(ctx, taskID, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.store.DeleteAttachment(ctx, taskID, id); err != nil {
		s.respondError(c, err)
		return
	}
	if s.files != nil {
		err := s.files.Delete(item.FileURL)
		if err != nil && !errors.Is(err, apperr.ErrValidation) && !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("attachment file not removed", slog.String("url", item.FileURL), slog.String("error", err.Error()))
		}
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleUpload stores a multipart "file" field.
func (s *Server) handleUpload(c *gin.Context) {
	if s.files == nil {
		s.respondError(c, apperr.ErrUpstreamUnavailable)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, files.MaxUploadSize+1<<20)
	header, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondError(c, apperr.Invalid("file exceeds %d MiB", files.MaxUploadSize>>20))
			return
		}
		s.respondError(c, apperr.Invalid("multipart field \"file\" is required"))
		return
	}
	f, err := header.Open()
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer f.Close()

	upload, err := s.files.Save(header.Filename, f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, upload)
}

func (s *Server) handleDeleteUpload(c *gin.Context) {
	if s.files == nil {
		s.respondError(c, apperr.ErrUpstreamUnavailable)
		return
	}
	var req deleteUploadRequest
	if !s.bindJSON(c, &req) {
		return
	}
	if err := s.files.Delete(req.URL); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
