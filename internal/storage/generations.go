package storage

import (
	"context"
	"fmt"
	"time"

	"agencyhub/internal/models"
)

const generationColumns = `id, project_id, user_id, content_type, prompt, result, model, tokens_used, created_at`

// CreateGeneration stores a generated text.
func (s *Store) CreateGeneration(ctx context.Context, g models.Generation) (models.Generation, error) {
	g.ID = newID()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO ai_generations(`+generationColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		g.ID, g.ProjectID, g.UserID, g.ContentType, g.Prompt, g.Result, g.Model, g.TokensUsed, g.CreatedAt.UTC())
	if err != nil {
		return models.Generation{}, fmt.Errorf("insert generation: %w", err)
	}
	return g, nil
}

// ListGenerations returns the latest generations, optionally for one project.
func (s *Store) ListGenerations(ctx context.Context, projectID string, limit int) ([]models.Generation, error) {
	if limit <= 0 {
		limit = 50
	}
	items := []models.Generation{}
	q := `SELECT ` + generationColumns + ` FROM ai_generations`
	args := []any{}
	if projectID != "" {
		q += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	q += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	return items, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
