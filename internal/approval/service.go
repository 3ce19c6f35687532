// Package approval runs client approval requests: issuing a token link,
// answering it once, and the side effects of an answer.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"agencyhub/internal/apperr"
	"agencyhub/internal/models"
	"agencyhub/internal/notify"
)

// DefaultTTL is how long a public link stays answerable.
const DefaultTTL = 7 * 24 * time.Hour

// Store is the persistence the workflow needs.
type Store interface {
	GetTaskContext(ctx context.Context, taskID string) (models.TaskContext, error)
	CreateApproval(ctx context.Context, a models.Approval) (models.Approval, error)
	GetApprovalByToken(ctx context.Context, token string) (models.ApprovalDetail, error)
	// CompleteApproval must only succeed while the approval is pending and
	// return an error wrapping apperr.ErrConflict otherwise.
	CompleteApproval(ctx context.Context, d models.ApprovalDecision) (models.Approval, error)
	ListApprovals(ctx context.Context, projectID string) ([]models.ApprovalDetail, error)
	NotificationPrefs(ctx context.Context, userID string) (models.NotificationPrefs, error)
}

// AlreadyRespondedError carries the final decision of an approval that was
// answered before.
type AlreadyRespondedError struct {
	Approval models.Approval
}

func (e *AlreadyRespondedError) Error() string {
	return fmt.Sprintf("approval already responded: %s", e.Approval.Status)
}

func (e *AlreadyRespondedError) Unwrap() error {
	return apperr.ErrConflict
}

// Options configures a Service.
type Options struct {
	TTL       time.Duration
	PublicURL string
	Now       func() time.Time
	Logger    *slog.Logger
}

// Service implements the approval workflow.
type Service struct {
	store     Store
	mail      *notify.Dispatcher
	ttl       time.Duration
	publicURL string
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(store Store, mail *notify.Dispatcher, opts Options) *Service {
	s := &Service{
		store:     store,
		mail:      mail,
		ttl:       opts.TTL,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Request is an internal user's ask for a client decision.
type Request struct {
	TaskID      string
	ClientEmail *string
	ClientName  *string
	Notes       *string
}

// Link returns the public page address for token.
func (s *Service) Link(token string) string {
	return s.publicURL + "/approve/" + token
}

// Create issues a pending approval for a task and emails the client when an
// address is known. The email is best-effort.
func (s *Service) Create(ctx context.Context, req Request, requester models.User) (models.Approval, error) {
	if strings.TrimSpace(req.TaskID) == "" {
		return models.Approval{}, apperr.Invalid("task_id is required")
	}
	tc, err := s.store.GetTaskContext(ctx, req.TaskID)
	if err != nil {
		return models.Approval{}, err
	}

	token, err := NewToken()
	if err != nil {
		return models.Approval{}, fmt.Errorf("generate token: %w", err)
	}

	email := firstNonEmpty(req.ClientEmail, tc.Client.ContactEmail)
	name := firstNonEmpty(req.ClientName, &tc.Client.Name)
	now := s.now().UTC()
	expires := now.Add(s.ttl)

	requesterID := requester.ID
	created, err := s.store.CreateApproval(ctx, models.Approval{
		TaskID:      tc.Task.ID,
		ProjectID:   tc.Task.ProjectID,
		RequestedBy: &requesterID,
		Status:      models.ApprovalPending,
		ClientEmail: email,
		ClientName:  name,
		PublicToken: token,
		Notes:       trimmed(req.Notes),
		ExpiresAt:   &expires,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return models.Approval{}, err
	}

	if email != nil {
		s.send(notify.ApprovalRequest{
			To:            *email,
			ClientName:    valueOr(name, "there"),
			RequesterName: requester.Name,
			TaskTitle:     tc.Task.Title,
			ProjectName:   tc.Project.Name,
			Notes:         valueOr(created.Notes, ""),
			Link:          s.Link(token),
		})
	}
	return created, nil
}

// Lookup returns the approval page data for token.
func (s *Service) Lookup(ctx context.Context, token string) (models.ApprovalDetail, error) {
	detail, err := s.store.GetApprovalByToken(ctx, token)
	if err != nil {
		return models.ApprovalDetail{}, err
	}
	if detail.Expired(s.now()) {
		return models.ApprovalDetail{}, fmt.Errorf("approval link: %w", apperr.ErrExpired)
	}
	return detail, nil
}

// Respond records the client's decision. Checks run in order: unknown token,
// expiry, then whether the approval is still pending.
func (s *Service) Respond(ctx context.Context, token string, status models.ApprovalStatus, feedback *string) (models.Approval, error) {
	if !status.Terminal() {
		return models.Approval{}, apperr.Invalid("status must be approved, changes_requested or rejected")
	}
	detail, err := s.store.GetApprovalByToken(ctx, token)
	if err != nil {
		return models.Approval{}, err
	}
	now := s.now()
	if detail.Expired(now) {
		return models.Approval{}, fmt.Errorf("approval link: %w", apperr.ErrExpired)
	}
	if detail.Status != models.ApprovalPending {
		return models.Approval{}, &AlreadyRespondedError{Approval: detail.Approval}
	}

	updated, err := s.store.CompleteApproval(ctx, models.ApprovalDecision{
		ApprovalID:  detail.ID,
		Status:      status,
		Feedback:    trimmed(feedback),
		RespondedAt: now.UTC(),
		AdvanceTask: status == models.ApprovalApproved,
	})
	if errors.Is(err, apperr.ErrConflict) {
		// Another responder won between the read and the conditional update.
		latest, lerr := s.store.GetApprovalByToken(ctx, token)
		if lerr != nil {
			return models.Approval{}, err
		}
		return models.Approval{}, &AlreadyRespondedError{Approval: latest.Approval}
	}
	if err != nil {
		return models.Approval{}, err
	}

	if s.notifyRequester(ctx, detail) {
		s.send(notify.ApprovalResult{
			To:            *detail.RequesterEmail,
			RequesterName: valueOr(detail.RequesterName, ""),
			ClientName:    valueOr(detail.ClientName, "The client"),
			TaskTitle:     detail.TaskTitle,
			ProjectName:   detail.ProjectName,
			Status:        string(status),
			Feedback:      valueOr(updated.ClientFeedback, ""),
		})
	}
	return updated, nil
}

// notifyRequester reports whether the requester wants the decision by email.
// A preference lookup failure falls back to sending.
func (s *Service) notifyRequester(ctx context.Context, detail models.ApprovalDetail) bool {
	if detail.RequesterEmail == nil || *detail.RequesterEmail == "" {
		return false
	}
	if detail.RequestedBy == nil {
		return true
	}
	prefs, err := s.store.NotificationPrefs(ctx, *detail.RequestedBy)
	if err != nil {
		s.logger.Warn("notification preferences unavailable",
			slog.String("user_id", *detail.RequestedBy), slog.String("error", err.Error()))
		return true
	}
	if !prefs.EmailOnApproval {
		s.logger.Debug("approval email skipped by preference", slog.String("user_id", *detail.RequestedBy))
	}
	return prefs.EmailOnApproval
}

// List returns approvals newest first, optionally for one project.
func (s *Service) List(ctx context.Context, projectID string) ([]models.ApprovalDetail, error) {
	return s.store.ListApprovals(ctx, projectID)
}

type renderer interface {
	Render() (notify.Message, error)
}

func (s *Service) send(r renderer) {
	if s.mail == nil {
		return
	}
	msg, err := r.Render()
	if err != nil {
		s.logger.Warn("email not rendered", slog.String("error", err.Error()))
		return
	}
	s.mail.Dispatch(msg)
}

func firstNonEmpty(vals ...*string) *string {
	for _, v := range vals {
		if v != nil && strings.TrimSpace(*v) != "" {
			out := strings.TrimSpace(*v)
			return &out
		}
	}
	return nil
}

func trimmed(v *string) *string {
	return firstNonEmpty(v)
}

func valueOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
