package server

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"agencyhub/internal/apperr"
	"agencyhub/internal/approval"
	"agencyhub/internal/files"
	"agencyhub/internal/generate"
	"agencyhub/internal/models"
	"agencyhub/internal/rbac"
	"agencyhub/internal/storage"
)

// Options carries the collaborators and settings of the HTTP API.
type Options struct {
	StaticDir     string
	SessionTTL    time.Duration
	SecureCookies bool
	Approvals     *approval.Service
	Generator     *generate.Service
	Files         *files.LocalStore
	Now           func() time.Time
}

// Server provides HTTP handlers for the agency back office and the public
// approval page.
type Server struct {
	engine     *gin.Engine
	store      *storage.Store
	approvals  *approval.Service
	generator  *generate.Service
	files      *files.LocalStore
	logger     *slog.Logger
	staticDir  string
	sessionTTL time.Duration
	secure     bool
	now        func() time.Time
}

var bindingSetup sync.Once

// New constructs the HTTP server with routes and middleware configured.
func New(store *storage.Store, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	bindingSetup.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			models.RegisterValidations(v)
		}
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	srv := &Server{
		engine:     router,
		store:      store,
		approvals:  opts.Approvals,
		generator:  opts.Generator,
		files:      opts.Files,
		logger:     logger,
		staticDir:  opts.StaticDir,
		sessionTTL: opts.SessionTTL,
		secure:     opts.SecureCookies,
		now:        opts.Now,
	}
	if srv.sessionTTL <= 0 {
		srv.sessionTTL = 30 * 24 * time.Hour
	}
	if srv.now == nil {
		srv.now = time.Now
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.POST("/auth/login", s.handleLogin)

		public := api.Group("/public/approvals")
		{
			public.GET(":token", s.handlePublicApproval)
			public.PATCH(":token", s.handlePublicRespond)
		}

		authed := api.Group("", s.authenticate)
		authed.POST("/auth/logout", s.handleLogout)
		authed.GET("/auth/me", s.handleMe)
		authed.PATCH("/profile", s.handleUpdateProfile)
		authed.GET("/profile/notifications", s.handleGetNotifications)
		authed.PATCH("/profile/notifications", s.handleUpdateNotifications)
		authed.GET("/dashboard", s.require(rbac.Projects, rbac.Read), s.handleDashboard)

		clients := authed.Group("/clients")
		{
			clients.GET("", s.require(rbac.Clients, rbac.Read), s.handleListClients)
			clients.POST("", s.require(rbac.Clients, rbac.Create), s.handleCreateClient)
			clients.GET(":id", s.require(rbac.Clients, rbac.Read), s.handleGetClient)
			clients.PATCH(":id", s.require(rbac.Clients, rbac.Update), s.handleUpdateClient)
			clients.DELETE(":id", s.require(rbac.Clients, rbac.Delete), s.handleDeleteClient)
		}

		projects := authed.Group("/projects")
		{
			projects.GET("", s.require(rbac.Projects, rbac.Read), s.handleListProjects)
			projects.POST("", s.require(rbac.Projects, rbac.Create), s.handleCreateProject)
			projects.GET(":id", s.require(rbac.Projects, rbac.Read), s.handleGetProject)
			projects.PATCH(":id", s.require(rbac.Projects, rbac.Update), s.handleUpdateProject)
			projects.DELETE(":id", s.require(rbac.Projects, rbac.Delete), s.handleDeleteProject)
			projects.GET(":id/board", s.require(rbac.Tasks, rbac.Read), s.handleGetBoard)
		}

		tasks := authed.Group("/tasks")
		{
			tasks.POST("", s.require(rbac.Tasks, rbac.Create), s.handleCreateTask)
			tasks.GET(":id", s.require(rbac.Tasks, rbac.Read), s.handleGetTask)
			tasks.PATCH(":id", s.require(rbac.Tasks, rbac.Update), s.handleUpdateTask)
			tasks.DELETE(":id", s.require(rbac.Tasks, rbac.Delete), s.handleDeleteTask)
			tasks.PATCH(":id/move", s.require(rbac.Tasks, rbac.Update), s.handleMoveTask)
			tasks.PUT(":id/assignees", s.require(rbac.Tasks, rbac.Assign), s.handleSetAssignees)

			tasks.GET(":id/subtasks", s.require(rbac.Tasks, rbac.Read), s.handleListSubtasks)
			tasks.POST(":id/subtasks", s.require(rbac.Tasks, rbac.Update), s.handleCreateSubtask)
			tasks.PATCH(":id/subtasks/:subtaskId", s.require(rbac.Tasks, rbac.Update), s.handleUpdateSubtask)
			tasks.DELETE(":id/subtasks/:subtaskId", s.require(rbac.Tasks, rbac.Update), s.handleDeleteSubtask)

			tasks.GET(":id/attachments", s.require(rbac.Tasks, rbac.Read), s.handleListAttachments)
			tasks.POST(":id/attachments", s.require(rbac.Tasks, rbac.Update), s.handleCreateAttachment)
			tasks.DELETE(":id/attachments/:attachmentId", s.require(rbac.Tasks, rbac.Update), s.handleDeleteAttachment)
		}

		authed.POST("/uploads", s.require(rbac.Tasks, rbac.Update), s.handleUpload)
		authed.DELETE("/uploads", s.require(rbac.Tasks, rbac.Update), s.handleDeleteUpload)

		authed.GET("/approvals", s.require(rbac.Tasks, rbac.Read), s.handleListApprovals)
		authed.POST("/approvals", s.require(rbac.Tasks, rbac.Update), s.handleCreateApproval)

		users := authed.Group("/admin/users")
		{
			users.GET("", s.require(rbac.Users, rbac.Read), s.handleListUsers)
			users.POST("", s.require(rbac.Users, rbac.Create), s.handleCreateUser)
			users.PATCH(":id", s.require(rbac.Users, rbac.Update), s.handleUpdateUserRole)
			users.DELETE(":id", s.require(rbac.Users, rbac.Delete), s.handleDeleteUser)
		}

		authed.POST("/ai/generate", s.require(rbac.Projects, rbac.Read), s.handleGenerate)
		authed.GET("/ai/generations", s.require(rbac.Projects, rbac.Read), s.handleListGenerations)
	}

	s.mountStatic()
}

// handleHealth reports whether the database answers.
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID validates a UUID path parameter.
func parseID(c *gin.Context, name string) (string, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid identifier", "code": apperr.Code(apperr.ErrValidation)})
		return "", false
	}
	return id.String(), true
}

// bindJSON decodes the request body, reporting malformed input as a validation error.
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.respondError(c, models.InvalidInput(err))
		return false
	}
	return true
}

// respondError maps err to its status. Unclassified errors are logged and
// answered with a generic message.
func (s *Server) respondError(c *gin.Context, err error) {
	status := apperr.Status(err)
	body := gin.H{"error": err.Error(), "code": apperr.Code(err)}
	if apperr.Internal(err) {
		s.logger.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()))
		body["error"] = "internal error"
	}
	var already *approval.AlreadyRespondedError
	if errors.As(err, &already) {
		body["approval"] = already.Approval
	}
	c.AbortWithStatusJSON(status, body)
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
