package storage

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"agencyhub/internal/models"
)

// DashboardProjects is how many active projects the dashboard lists.
const DashboardProjects = 5

// Dashboard computes the workload summary. Stages are told apart by column
// position and the final flag, never by column name, so renamed pipelines
// still count correctly.
func (s *Store) Dashboard(ctx context.Context) (models.Dashboard, error) {
	now := s.now()
	today, weekEnd := weekBounds(now)

	var (
		d       models.Dashboard
		staged  []string
		waiting map[string]struct{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.db.SelectContext(gctx, &staged, s.db.Rebind(`SELECT t.id FROM tasks t
			JOIN pipeline_columns c ON c.id = t.column_id
			WHERE c.position > 0 AND NOT c.is_final`))
		if err != nil {
			return fmt.Errorf("list tasks in production: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		waiting, err = s.awaitingApproval(gctx, now)
		return err
	})
	g.Go(func() error {
		err := s.db.GetContext(gctx, &d.DueThisWeek, s.db.Rebind(`SELECT COUNT(*) FROM tasks t
			JOIN pipeline_columns c ON c.id = t.column_id
			WHERE t.due_date >= ? AND t.due_date <= ? AND NOT c.is_final`), today, weekEnd)
		if err != nil {
			return fmt.Errorf("count deadlines: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := s.db.GetContext(gctx, &d.ActiveProjects, s.db.Rebind(`SELECT COUNT(*) FROM projects WHERE status = ?`), models.ProjectActive)
		if err != nil {
			return fmt.Errorf("count active projects: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		d.Recent = []models.ActiveProject{}
		err := s.db.SelectContext(gctx, &d.Recent, s.db.Rebind(`SELECT p.id, p.name, c.name AS client_name, c.brand_color,
			p.cover_image_url, p.due_date, p.updated_at,
			(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id) AS task_count,
			(SELECT COUNT(*) FROM tasks t JOIN pipeline_columns pc ON pc.id = t.column_id
				WHERE t.project_id = p.id AND pc.is_final) AS done_count
			FROM projects p JOIN clients c ON c.id = p.client_id
			WHERE p.status = ?
			ORDER BY p.updated_at DESC, p.id
			LIMIT ?`), models.ProjectActive, DashboardProjects)
		if err != nil {
			return fmt.Errorf("list active projects: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.Dashboard{}, err
	}

	d.AwaitingApproval = len(waiting)
	for _, id := range staged {
		if _, ok := waiting[id]; !ok {
			d.InProduction++
		}
	}
	return d, nil
}

// awaitingApproval returns the tasks with a pending approval whose link is
// still answerable at now.
func (s *Store) awaitingApproval(ctx context.Context, now time.Time) (map[string]struct{}, error) {
	var rows []struct {
		TaskID    string     `db:"task_id"`
		ExpiresAt *time.Time `db:"expires_at"`
	}
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT task_id, expires_at FROM approvals WHERE status = ?`), models.ApprovalPending)
	if err != nil {
		return nil, fmt.Errorf("list pending approvals: %w", err)
	}
	tasks := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		a := models.Approval{ExpiresAt: r.ExpiresAt}
		if !a.Expired(now) {
			tasks[r.TaskID] = struct{}{}
		}
	}
	return tasks, nil
}

// weekBounds returns today and the coming Sunday. On a Sunday the week runs
// to the next one.
func weekBounds(now time.Time) (models.Date, models.Date) {
	today := models.NewDate(now.Year(), now.Month(), now.Day())
	end := today.AddDate(0, 0, 7-int(now.Weekday()))
	return today, models.NewDate(end.Year(), end.Month(), end.Day())
}
