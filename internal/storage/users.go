package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"agencyhub/internal/apperr"
	"agencyhub/internal/models"
	"agencyhub/internal/rbac"
)

const userColumns = `id, name, email, role, avatar_url, password_hash, created_at, updated_at`

// ListUsers returns every account ordered by creation date.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser fetches a single user by id.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return models.User{}, notFound(err, "user", "get user")
	}
	return u, nil
}

// GetUserByEmail looks an account up by its login email, case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), normalizeEmail(email))
	if err != nil {
		return models.User{}, notFound(err, "user", "get user by email")
	}
	return u, nil
}

// CreateUser inserts a new account. The email must be unused.
func (s *Store) CreateUser(ctx context.Context, in models.NewUser) (models.User, error) {
	if err := in.Validate(); err != nil {
		return models.User{}, err
	}
	email := normalizeEmail(in.Email)
	if _, err := s.GetUserByEmail(ctx, email); err == nil {
		return models.User{}, apperr.Conflict("email %s is already registered", email)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return models.User{}, err
	}

	now := s.now()
	id := newID()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO users(id, name, email, role, password_hash, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)`), id, strings.TrimSpace(in.Name), email, in.Role, in.PasswordHash, now, now)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return s.GetUser(ctx, id)
}

// UpdateUserRole changes an account's role.
func (s *Store) UpdateUserRole(ctx context.Context, id string, role rbac.Role) (models.User, error) {
	if !role.Valid() {
		return models.User{}, apperr.Invalid("unknown role %q", role)
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`), role, s.now(), id)
	if err != nil {
		return models.User{}, fmt.Errorf("update user role: %w", err)
	}
	if err := expectRow(res, "user"); err != nil {
		return models.User{}, err
	}
	return s.GetUser(ctx, id)
}

// UpdateProfile applies a user's change to their own name or avatar.
func (s *Store) UpdateProfile(ctx context.Context, id string, p models.ProfilePatch) (models.User, error) {
	if err := p.Validate(); err != nil {
		return models.User{}, err
	}
	var u update
	if p.Name.Set {
		u.set("name", strings.TrimSpace(p.Name.Value))
	}
	if p.AvatarURL.Set {
		u.set("avatar_url", trimPtr(p.AvatarURL.Ptr()))
	}
	if u.empty() {
		return s.GetUser(ctx, id)
	}
	u.set("updated_at", s.now())
	q, args := u.query("users", id)
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return models.User{}, fmt.Errorf("update profile: %w", err)
	}
	if err := expectRow(res, "user"); err != nil {
		return models.User{}, err
	}
	return s.GetUser(ctx, id)
}

// SetPassword replaces the stored password hash.
func (s *Store) SetPassword(ctx context.Context, id, hash string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`), hash, s.now(), id)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return expectRow(res, "user")
}

// DeleteUser removes an account and its sessions.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectRow(res, "user")
}

// CreateSession stores a login session keyed by the hash of its token.
func (s *Store) CreateSession(ctx context.Context, sess models.Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO sessions(token_hash, user_id, expires_at, created_at) VALUES(?, ?, ?, ?)`),
		sess.TokenHash, sess.UserID, sess.ExpiresAt.UTC(), sess.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// SessionUser resolves a session hash to its user. Unknown and expired
// sessions are unauthorized; expired ones are removed.
func (s *Store) SessionUser(ctx context.Context, tokenHash string) (models.User, error) {
	var sess models.Session
	err := s.db.GetContext(ctx, &sess, s.db.Rebind(`SELECT token_hash, user_id, expires_at, created_at FROM sessions WHERE token_hash = ?`), tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperr.ErrUnauthorized
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get session: %w", err)
	}
	if s.now().After(sess.ExpiresAt) {
		if err := s.DeleteSession(ctx, tokenHash); err != nil {
			s.logger.Warn("expired session not removed", slog.String("user_id", sess.UserID), slog.String("error", err.Error()))
		}
		return models.User{}, fmt.Errorf("session expired: %w", apperr.ErrUnauthorized)
	}
	u, err := s.GetUser(ctx, sess.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.User{}, apperr.ErrUnauthorized
	}
	return u, err
}

// DeleteSession revokes a session. Revoking an unknown session is not an error.
func (s *Store) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE token_hash = ?`), tokenHash)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const prefsColumns = `email_on_approval, email_on_comment, email_on_assign, email_on_deadline`

// NotificationPrefs returns a user's email preferences, or the defaults when
// none were saved.
func (s *Store) NotificationPrefs(ctx context.Context, userID string) (models.NotificationPrefs, error) {
	return notificationPrefs(ctx, s.db, userID)
}

func notificationPrefs(ctx context.Context, q sqlx.ExtContext, userID string) (models.NotificationPrefs, error) {
	var p models.NotificationPrefs
	err := sqlx.GetContext(ctx, q, &p, q.Rebind(`SELECT `+prefsColumns+` FROM notification_preferences WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultNotificationPrefs(), nil
	}
	if err != nil {
		return models.NotificationPrefs{}, fmt.Errorf("get notification preferences: %w", err)
	}
	return p, nil
}

// UpdateNotificationPrefs applies a partial update to a user's preferences.
func (s *Store) UpdateNotificationPrefs(ctx context.Context, userID string, patch models.NotificationPatch) (models.NotificationPrefs, error) {
	if err := patch.Validate(); err != nil {
		return models.NotificationPrefs{}, err
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return models.NotificationPrefs{}, err
	}
	var out models.NotificationPrefs
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		p, err := notificationPrefs(ctx, tx, userID)
		if err != nil {
			return err
		}
		for _, f := range []struct {
			dst *bool
			v   models.Optional[bool]
		}{
			{&p.EmailOnApproval, patch.EmailOnApproval},
			{&p.EmailOnComment, patch.EmailOnComment},
			{&p.EmailOnAssign, patch.EmailOnAssign},
			{&p.EmailOnDeadline, patch.EmailOnDeadline},
		} {
			if f.v.Set {
				*f.dst = f.v.Value
			}
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO notification_preferences(user_id, `+prefsColumns+`, updated_at)
			VALUES(?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id) DO UPDATE SET email_on_approval = excluded.email_on_approval,
				email_on_comment = excluded.email_on_comment, email_on_assign = excluded.email_on_assign,
				email_on_deadline = excluded.email_on_deadline, updated_at = excluded.updated_at`),
			userID, p.EmailOnApproval, p.EmailOnComment, p.EmailOnAssign, p.EmailOnDeadline, s.now())
		if err != nil {
			return fmt.Errorf("save notification preferences: %w", err)
		}
		out = p
		return nil
	})
	return out, err
}
