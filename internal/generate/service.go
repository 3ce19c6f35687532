package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"agencyhub/internal/apperr"
	"agencyhub/internal/models"
)

// Store keeps generation history and resolves the projects it is filed under.
type Store interface {
	GetProject(ctx context.Context, id string) (models.Project, error)
	CreateGeneration(ctx context.Context, g models.Generation) (models.Generation, error)
	ListGenerations(ctx context.Context, projectID string, limit int) ([]models.Generation, error)
}

// HistoryLimit is the number of generations History returns.
const HistoryLimit = 50

// Request is a brief for the model.
type Request struct {
	ContentType ContentType `json:"content_type"`
	Prompt      string      `json:"prompt"`
	ProjectID   *string     `json:"project_id" binding:"omitempty,uuid"`
	Tone        string      `json:"tone"`
	Variations  int         `json:"variations"`
}

// Service generates copy and records each result.
type Service struct {
	model  Model
	store  Store
	logger *slog.Logger
}

// NewService returns a service. A nil model makes every Generate call fail
// with apperr.ErrUpstreamUnavailable.
func NewService(model Model, store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{model: model, store: store, logger: logger}
}

// Generate runs the brief through the model and stores the verbatim answer.
func (s *Service) Generate(ctx context.Context, req Request, userID string) (models.Generation, error) {
	if !req.ContentType.Valid() {
		return models.Generation{}, apperr.Invalid("unknown content_type %q", req.ContentType)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return models.Generation{}, apperr.Invalid("prompt is required")
	}
	project, err := s.resolveProject(ctx, req.ProjectID)
	if err != nil {
		return models.Generation{}, err
	}
	if s.model == nil {
		return models.Generation{}, fmt.Errorf("content generation is not configured: %w", apperr.ErrUpstreamUnavailable)
	}

	out, err := s.model.Generate(ctx, SystemPrompt(req.ContentType, req.Tone, req.Variations), req.Prompt)
	if err != nil {
		s.logger.Error("generation failed", slog.String("model", s.model.Name()), slog.String("error", err.Error()))
		return models.Generation{}, fmt.Errorf("content generation failed: %w", apperr.ErrUpstreamUnavailable)
	}

	var user *string
	if userID != "" {
		user = &userID
	}
	return s.store.CreateGeneration(ctx, models.Generation{
		ProjectID:   project,
		UserID:      user,
		ContentType: string(req.ContentType),
		Prompt:      req.Prompt,
		Result:      out.Text,
		Model:       s.model.Name(),
		TokensUsed:  out.TokensUsed,
	})
}

// resolveProject checks the optional project before the model is paid for.
func (s *Service) resolveProject(ctx context.Context, id *string) (*string, error) {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil, nil
	}
	if err := uuid.Validate(*id); err != nil {
		return nil, apperr.Invalid("project_id must be a UUID")
	}
	p, err := s.store.GetProject(ctx, *id)
	if err != nil {
		return nil, err
	}
	return &p.ID, nil
}

// History returns the latest generations, optionally for one project.
func (s *Service) History(ctx context.Context, projectID string) ([]models.Generation, error) {
	return s.store.ListGenerations(ctx, projectID, HistoryLimit)
}
