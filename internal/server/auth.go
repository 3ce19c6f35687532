package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"agencyhub/internal/apperr"
	"agencyhub/internal/auth"
	"agencyhub/internal/models"
	"agencyhub/internal/rbac"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "agencyhub_session"

const userKey = "user"

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func sessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// authenticate resolves the session and stores its user on the context.
func (s *Server) authenticate(c *gin.Context) {
	token := sessionToken(c)
	if token == "" {
		s.respondError(c, apperr.ErrUnauthorized)
		return
	}
	user, err := s.store.SessionUser(c.Request.Context(), auth.HashToken(token))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Set(userKey, user)
	c.Next()
}

func currentUser(c *gin.Context) models.User {
	u, _ := c.Get(userKey)
	user, _ := u.(models.User)
	return user
}

// require rejects the request before the handler runs unless the session
// role may perform action on resource.
func (s *Server) require(resource rbac.Resource, action rbac.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := rbac.RequirePermission(currentUser(c).Role, resource, action); err != nil {
			s.respondError(c, err)
			return
		}
		c.Next()
	}
}

// handleLogin exchanges email and password for a session token.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !s.bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		s.respondError(c, err)
		return
	}
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.respondError(c, fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthorized))
		return
	}

	token, err := auth.NewSessionToken()
	if err != nil {
		s.respondError(c, err)
		return
	}
	now := s.now().UTC()
	expires := now.Add(s.sessionTTL)
	if err := s.store.CreateSession(ctx, models.Session{
		TokenHash: auth.HashToken(token),
		UserID:    user.ID,
		ExpiresAt: expires,
		CreatedAt: now,
	}); err != nil {
		s.respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(s.sessionTTL.Seconds()), "/", "", s.secure, true)
	respondSuccess(c, http.StatusOK, gin.H{"token": token, "expires_at": expires, "user": user})
}

// handleLogout revokes the current session.
func (s *Server) handleLogout(c *gin.Context) {
	if err := s.store.DeleteSession(c.Request.Context(), auth.HashToken(sessionToken(c))); err != nil {
		s.respondError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", s.secure, true)
	respondSuccess(c, http.StatusNoContent, nil)
}

func (s *Server) handleMe(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"user": currentUser(c)})
}

// handleUpdateProfile lets any user change their own name and avatar.
func (s *Server) handleUpdateProfile(c *gin.Context) {
	var patch models.ProfilePatch
	if !s.bindJSON(c, &patch) {
		return
	}
	user, err := s.store.UpdateProfile(c.Request.Context(), currentUser(c).ID, patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": user})
}

func (s *Server) handleGetNotifications(c *gin.Context) {
	prefs, err := s.store.NotificationPrefs(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"preferences": prefs})
}

// handleUpdateNotifications changes the session user's email switches.
func (s *Server) handleUpdateNotifications(c *gin.Context) {
	var patch models.NotificationPatch
	if !s.bindJSON(c, &patch) {
		return
	}
	prefs, err := s.store.UpdateNotificationPrefs(c.Request.Context(), currentUser(c).ID, patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"preferences": prefs})
}
