package server

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"agencyhub/internal/apperr"
)

// mountStatic serves uploaded files and the compiled frontend. Unknown /api
// paths answer with the JSON error envelope; any other unknown path gets the
// frontend shell so deep links such as /approve/:token reach its router.
func (s *Server) mountStatic() {
	if s.files != nil {
		uploads := s.engine.Group(s.files.PublicBase(), noSniff)
		uploads.Static("/", s.files.Dir())
	}

	index := s.frontendIndex()
	s.engine.NoRoute(func(c *gin.Context) {
		if index == "" || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			s.respondError(c, apperr.NotFound("endpoint"))
			return
		}
		serveShell(c, index)
	})
	if index == "" {
		return
	}
	s.engine.GET("/", func(c *gin.Context) { serveShell(c, index) })

	if assetsDir := filepath.Join(s.staticDir, "assets"); isDir(assetsDir) {
		assets := s.engine.Group("/assets", immutable)
		assets.StaticFS("/", gin.Dir(assetsDir, false))
	}

	favicon := filepath.Join(s.staticDir, "favicon.ico")
	if _, err := os.Stat(favicon); err == nil {
		s.engine.StaticFile("/favicon.ico", favicon)
	}
}

// frontendIndex returns the path of the frontend's index.html, or "" when the
// server runs API only.
func (s *Server) frontendIndex() string {
	if s.staticDir == "" {
		s.logger.Warn("static directory not configured; API only mode")
		return ""
	}
	if !isDir(s.staticDir) {
		s.logger.Warn("static directory missing", slog.String("path", s.staticDir))
		return ""
	}
	index := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		s.logger.Warn("index.html not found", slog.String("path", index), slog.String("error", err.Error()))
		return ""
	}
	return index
}

func serveShell(c *gin.Context, index string) {
	c.Header("Cache-Control", "no-cache")
	c.File(index)
}

// immutable marks fingerprinted build assets as cacheable for a year.
func immutable(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Next()
}

// noSniff stops browsers from reinterpreting uploaded files as another type.
func noSniff(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Next()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
