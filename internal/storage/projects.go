package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"agencyhub/internal/models"
)

const projectSelect = `SELECT p.id, p.client_id, c.name AS client_name, p.name, p.description, p.status,
	p.start_date, p.due_date, p.cover_image_url, p.created_by, p.created_at, p.updated_at
	FROM projects p JOIN clients c ON c.id = p.client_id`

// ListProjects retrieves projects, newest first, optionally for one client.
func (s *Store) ListProjects(ctx context.Context, clientID string) ([]models.Project, error) {
	projects := []models.Project{}
	q := projectSelect
	var args []any
	if clientID != "" {
		q += ` WHERE p.client_id = ?`
		args = append(args, clientID)
	}
	q += ` ORDER BY p.created_at DESC, p.id`
	if err := s.db.SelectContext(ctx, &projects, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// GetProject fetches a single project by id.
func (s *Store) GetProject(ctx context.Context, id string) (models.Project, error) {
	var p models.Project
	err := s.db.GetContext(ctx, &p, s.db.Rebind(projectSelect+` WHERE p.id = ?`), id)
	if err != nil {
		return models.Project{}, notFound(err, "project", "get project")
	}
	return p, nil
}

// CreateProject persists a project and its template columns atomically.
func (s *Store) CreateProject(ctx context.Context, in models.NewProject) (models.Project, error) {
	if err := in.Validate(); err != nil {
		return models.Project{}, err
	}
	if _, err := s.GetClient(ctx, in.ClientID); err != nil {
		return models.Project{}, err
	}
	status := in.Status
	if status == "" {
		status = models.ProjectActive
	}

	id := newID()
	now := s.now()
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO projects(id, client_id, name, description, status, start_date, due_date, cover_image_url, created_by, created_at, updated_at)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			id, in.ClientID, strings.TrimSpace(in.Name), trimPtr(in.Description), status, in.StartDate, in.DueDate,
			trimPtr(in.CoverImageURL), in.CreatedBy, now, now)
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		for i, col := range models.DefaultColumns {
			_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO pipeline_columns(id, project_id, name, position, is_final, created_at)
				VALUES(?, ?, ?, ?, ?, ?)`), newID(), id, col.Name, i, col.Final, now)
			if err != nil {
				return fmt.Errorf("insert column %s: %w", col.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return models.Project{}, err
	}
	return s.GetProject(ctx, id)
}

// UpdateProject applies a partial update.
func (s *Store) UpdateProject(ctx context.Context, id string, p models.ProjectPatch) (models.Project, error) {
	if err := p.Validate(); err != nil {
		return models.Project{}, err
	}
	if p.ClientID.Set {
		if _, err := s.GetClient(ctx, p.ClientID.Value); err != nil {
			return models.Project{}, err
		}
	}
	var u update
	if p.ClientID.Set {
		u.set("client_id", p.ClientID.Value)
	}
	if p.Name.Set {
		u.set("name", strings.TrimSpace(p.Name.Value))
	}
	if p.Description.Set {
		u.set("description", trimPtr(p.Description.Ptr()))
	}
	if p.Status.Set {
		u.set("status", p.Status.Value)
	}
	if p.StartDate.Set {
		u.set("start_date", p.StartDate.Ptr())
	}
	if p.DueDate.Set {
		u.set("due_date", p.DueDate.Ptr())
	}
	if p.CoverImageURL.Set {
		u.set("cover_image_url", trimPtr(p.CoverImageURL.Ptr()))
	}
	if u.empty() {
		return s.GetProject(ctx, id)
	}
	u.set("updated_at", s.now())
	q, args := u.query("projects", id)
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return models.Project{}, fmt.Errorf("update project: %w", err)
	}
	if err := expectRow(res, "project"); err != nil {
		return models.Project{}, err
	}
	return s.GetProject(ctx, id)
}

// DeleteProject removes a project along with its columns and tasks.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM projects WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return expectRow(res, "project")
}

const columnColumns = `id, project_id, name, position, color, is_final, created_at`

// ListColumns returns a project's columns in board order.
func (s *Store) ListColumns(ctx context.Context, projectID string) ([]models.Column, error) {
	cols := []models.Column{}
	err := s.db.SelectContext(ctx, &cols, s.db.Rebind(`SELECT `+columnColumns+` FROM pipeline_columns WHERE project_id = ? ORDER BY position, id`), projectID)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	return cols, nil
}

func getColumn(ctx context.Context, q sqlx.ExtContext, id string) (models.Column, error) {
	var c models.Column
	err := sqlx.GetContext(ctx, q, &c, q.Rebind(`SELECT `+columnColumns+` FROM pipeline_columns WHERE id = ?`), id)
	if err != nil {
		return models.Column{}, notFound(err, "column", "get column")
	}
	return c, nil
}

// finalColumn is the column approved tasks advance to: the one flagged final,
// else the one with the highest position.
func finalColumn(ctx context.Context, q sqlx.ExtContext, projectID string) (models.Column, error) {
	var c models.Column
	err := sqlx.GetContext(ctx, q, &c, q.Rebind(`SELECT `+columnColumns+` FROM pipeline_columns WHERE project_id = ?
		ORDER BY is_final DESC, position DESC, id LIMIT 1`), projectID)
	if err != nil {
		return models.Column{}, notFound(err, "column", "get final column")
	}
	return c, nil
}
