package storage

import (
	"context"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"

	"agencyhub/internal/apperr"
	"agencyhub/internal/models"
)

const approvalSelect = `SELECT a.id, a.task_id, a.project_id, a.requested_by, a.status, a.client_email, a.client_name,
	a.public_token, a.notes, a.client_feedback, a.expires_at, a.responded_at, a.created_at, a.updated_at,
	t.title AS task_title, p.name AS project_name, u.name AS requester_name, u.email AS requester_email
	FROM approvals a
	JOIN tasks t ON t.id = a.task_id
	JOIN projects p ON p.id = a.project_id
	LEFT JOIN users u ON u.id = a.requested_by`

// CreateApproval inserts a pending approval. ID and timestamps are filled in
// when empty.
func (s *Store) CreateApproval(ctx context.Context, a models.Approval) (models.Approval, error) {
	if a.ID == "" {
		a.ID = newID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	if a.Status == "" {
		a.Status = models.ApprovalPending
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO approvals(id, task_id, project_id, requested_by, status, client_email, client_name,
		public_token, notes, expires_at, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		a.ID, a.TaskID, a.ProjectID, a.RequestedBy, a.Status, a.ClientEmail, a.ClientName,
		a.PublicToken, a.Notes, utcPtr(a.ExpiresAt), a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		return models.Approval{}, fmt.Errorf("insert approval: %w", err)
	}
	d, err := s.getApproval(ctx, s.db, `a.id = ?`, a.ID)
	if err != nil {
		return models.Approval{}, err
	}
	return d.Approval, nil
}

// GetApprovalByToken resolves a public token.
func (s *Store) GetApprovalByToken(ctx context.Context, token string) (models.ApprovalDetail, error) {
	return s.getApproval(ctx, s.db, `a.public_token = ?`, token)
}

func (s *Store) getApproval(ctx context.Context, q sqlx.ExtContext, where string, arg any) (models.ApprovalDetail, error) {
	var d models.ApprovalDetail
	err := sqlx.GetContext(ctx, q, &d, q.Rebind(approvalSelect+` WHERE `+where), arg)
	if err != nil {
		return models.ApprovalDetail{}, notFound(err, "approval", "get approval")
	}
	return d, nil
}

// ListApprovals returns approvals newest first, optionally for one project.
func (s *Store) ListApprovals(ctx context.Context, projectID string) ([]models.ApprovalDetail, error) {
	items := []models.ApprovalDetail{}
	q := approvalSelect
	var args []any
	if projectID != "" {
		q += ` WHERE a.project_id = ?`
		args = append(args, projectID)
	}
	q += ` ORDER BY a.created_at DESC, a.id`
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	return items, nil
}

// CompleteApproval records a decision with a single conditional update that
// only matches a pending approval, so of two concurrent responders exactly one
// succeeds. The loser gets an error wrapping apperr.ErrConflict. When
// AdvanceTask is set the task moves to the end of the project's final column
// in the same transaction.
func (s *Store) CompleteApproval(ctx context.Context, d models.ApprovalDecision) (models.Approval, error) {
	if !d.Status.Terminal() {
		return models.Approval{}, apperr.Invalid("status %q is not a decision", d.Status)
	}
	var out models.ApprovalDetail
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE approvals
			SET status = ?, client_feedback = ?, responded_at = ?, updated_at = ?
			WHERE id = ? AND status = ?`),
			d.Status, d.Feedback, d.RespondedAt.UTC(), d.RespondedAt.UTC(), d.ApprovalID, models.ApprovalPending)
		if err != nil {
			return fmt.Errorf("complete approval: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			if _, err := s.getApproval(ctx, tx, `a.id = ?`, d.ApprovalID); err != nil {
				return err
			}
			return apperr.Conflict("approval already responded")
		}

		out, err = s.getApproval(ctx, tx, `a.id = ?`, d.ApprovalID)
		if err != nil {
			return err
		}
		if !d.AdvanceTask {
			return nil
		}
		task, err := getTask(ctx, tx, out.TaskID)
		if err != nil {
			return err
		}
		final, err := finalColumn(ctx, tx, task.ProjectID)
		if err != nil {
			return err
		}
		if task.ColumnID == final.ID {
			return nil
		}
		return s.placeTask(ctx, tx, task, final.ID, math.MaxInt)
	})
	if err != nil {
		return models.Approval{}, err
	}
	return out.Approval, nil
}
