package storage

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agencyhub/internal/apperr"
	"agencyhub/internal/models"
	"agencyhub/internal/pipeline"
	"agencyhub/internal/rbac"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "nested", "agencyhub.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strp(s string) *string { return &s }

// seedProject creates a client with a contact email and a project on the
// default template.
func seedProject(t *testing.T, s *Store) (models.Client, models.Project, []models.Column) {
	t.Helper()
	ctx := context.Background()
	c, err := s.CreateClient(ctx, models.NewClient{Name: "Acme", ContactEmail: strp("c@x.com")})
	require.NoError(t, err)
	p, err := s.CreateProject(ctx, models.NewProject{ClientID: c.ID, Name: "Spring campaign"})
	require.NoError(t, err)
	cols, err := s.ListColumns(ctx, p.ID)
	require.NoError(t, err)
	return c, p, cols
}

func boardIDs(b pipeline.Board) [][]string {
	out := make([][]string, len(b.Columns))
	for i, c := range b.Columns {
		out[i] = []string{}
		for _, t := range c.Tasks {
			out[i] = append(out[i], t.ID)
		}
	}
	return out
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "x", nil)
	assert.Error(t, err)
	_, err = Open(DriverSQLite, "", nil)
	assert.Error(t, err)
}

func TestCreateProjectAddsTemplateColumns(t *testing.T) {
	s := newTestStore(t)
	c, p, cols := seedProject(t, s)

	assert.Equal(t, c.ID, p.ClientID)
	assert.Equal(t, "Acme", p.ClientName)
	assert.Equal(t, models.ProjectActive, p.Status)

	require.Len(t, cols, 5)
	for i, col := range cols {
		assert.Equal(t, models.DefaultColumns[i].Name, col.Name)
		assert.Equal(t, i, col.Position)
		assert.Equal(t, models.DefaultColumns[i].Final, col.Final)
	}
}

func TestCreateProjectUnknownClient(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateProject(context.Background(), models.NewProject{ClientID: uuid.NewString(), Name: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestProjectPatchClearsDates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, p, _ := seedProject(t, s)

	due := models.NewDate(2026, time.December, 1)
	p, err := s.UpdateProject(ctx, p.ID, models.ProjectPatch{DueDate: models.Some(due), Status: models.Some(models.ProjectPaused)})
	require.NoError(t, err)
	require.NotNil(t, p.DueDate)
	assert.Equal(t, "2026-12-01", p.DueDate.String())
	assert.Equal(t, models.ProjectPaused, p.Status)

	p, err = s.UpdateProject(ctx, p.ID, models.ProjectPatch{DueDate: models.Null[models.Date]()})
	require.NoError(t, err)
	assert.Nil(t, p.DueDate)
	assert.Equal(t, models.ProjectPaused, p.Status, "absent fields untouched")

	_, err = s.UpdateProject(ctx, p.ID, models.ProjectPatch{Status: models.Some(models.ProjectStatus("gone"))})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeleteClientCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c, p, _ := seedProject(t, s)

	require.NoError(t, s.DeleteClient(ctx, c.ID))
	_, err := s.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, s.DeleteClient(ctx, c.ID), apperr.ErrNotFound)
}

func TestCreateTaskAppends(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, p, cols := seedProject(t, s)

	var ids []string
	for _, title := range []string{"Brief", "Moodboard", "Copy"} {
		task, err := s.CreateTask(ctx, models.NewTask{ProjectID: p.ID, ColumnID: cols[0].ID, Title: "  " + title + " "})
		require.NoError(t, err)
		assert.Equal(t, title, task.Title)
		assert.Equal(t, models.PriorityMedium, task.Priority)
		assert.Equal(t, len(ids), task.Position)
		ids = append(ids, task.ID)
	}

	_, err := s.CreateTask(ctx, models.NewTask{ColumnID: cols[0].ID, Title: "  "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = s.CreateTask(ctx, models.NewTask{ColumnID: cols[0].ID, Title: "x", Priority: "whenever"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = s.CreateTask(ctx, models.NewTask{ProjectID: uuid.NewString(), ColumnID: cols[0].ID, Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = s.CreateTask(ctx, models.NewTask{ColumnID: uuid.NewString(), Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	b, err := s.LoadBoard(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, ids, boardIDs(b)[0])
}

func TestTaskPatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, p, cols := seedProject(t, s)
	due := models.NewDate(2026, time.March, 4)
	task, err := s.CreateTask(ctx, models.NewTask{ProjectID: p.ID, ColumnID: cols[1].ID, Title: "Video", DueDate: &due, Description: strp("30s cut")})
	require.NoError(t, err)
	require.NotNil(t, task.DueDate)

	task, err = s.UpdateTask(ctx, task.ID, models.TaskPatch{Priority: models.Some(models.PriorityUrgent), DueDate: models.Null[models.Date]()})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityUrgent, task.Priority)
	assert.Nil(t, task.DueDate)
	require.NotNil(t, task.Description)
	assert.Equal(t, "30s cut", *task.Description)

	_, err = s.UpdateTask(ctx, task.ID, models.TaskPatch{Title: models.Null[string]()})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = s.UpdateTask(ctx, "missing", models.TaskPatch{Title: models.Some("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMoveTaskMatchesOptimisticBoard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, p, cols := seedProject(t, s)
	for i := 0; i < 4; i++ {
		_, err := s.CreateTask(ctx, models.NewTask{ColumnID: cols[0].ID, Title: "brief"})
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := s.CreateTask(ctx, models.NewTask{ColumnID: cols[1].ID, Title: "prod"})
		require.NoError(t, err)
	}

	board, err := s.LoadBoard(ctx, p.ID)
	require.NoError(t, err)

	moves := []struct{ src, dst, from, to int }{
		{0, 0, 3, 0},
		{0, 1, 1, 1},
		{1, 0, 0, 5},
		{1, 1, 1, 0},
	}
	for _, m := range moves {
		task := board.Columns[m.src].Tasks[m.from]
		next, moved, err := pipeline.Move(board, task.ID, cols[m.src].ID, cols[m.dst].ID, m.to)
		require.NoError(t, err)

		stored, err := s.MoveTask(ctx, moved.ID, moved.ColumnID, moved.Position)
		require.NoError(t, err)
		assert.Equal(t, moved.Position, stored.Position)

		reloaded, err := s.LoadBoard(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, boardIDs(next), boardIDs(reloaded))
		for _, col := range reloaded.Columns {
			for i, task := range col.Tasks {
				assert.Equal(t, i, task.Position)
			}
		}
		board = next
	}
}

func TestMoveTaskRejectsForeignColumn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, _, cols := seedProject(t, s)
	_, _, other := seedProject(t, s)
	task, err := s.CreateTask(ctx, models.NewTask{ColumnID: cols[0].ID, Title: "x"})
	require.NoError(t, err)

	_, err = s.MoveTask(ctx, task.ID, other[0].ID, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = s.MoveTask(ctx, "missing", cols[0].ID, 0)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAssignees(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, p, cols := seedProject(t, s)
	u, err := s.CreateUser(ctx, models.NewUser{Name: "Dana", Email: "dana@agency.test", Role: rbac.RoleDesigner})
	require.NoError(t, err)

	task, err := s.CreateTask(ctx, models.NewTask{ColumnID: cols[0].ID, Title: "x", AssigneeIDs: []string{u.ID, u.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{u.ID}, task.AssigneeIDs)

	task, err = s.SetAssignees(ctx, task.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, task.AssigneeIDs)

	_, err = s.SetAssignees(ctx, task.ID, []string{"ghost"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.SetAssignees(ctx, task.ID, []string{u.ID})
	require.NoError(t, err)
	b, err := s.LoadBoard(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{u.ID}, b.Columns[0].Tasks[0].AssigneeIDs)
}

func TestSubtasksAndAttachments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, _, cols := seedProject(t, s)
	task, err := s.CreateTask(ctx, models.NewTask{ColumnID: cols[0].ID, Title: "x"})
	require.NoError(t, err)

	a, err := s.CreateSubtask(ctx, task.ID, "Export", nil)
	require.NoError(t, err)
	_, err = s.CreateSubtask(ctx, task.ID, "Upload", nil)
	require.NoError(t, err)
	assert.False(t, a.Completed)

	a, err = s.UpdateSubtask(ctx, task.ID, a.ID, models.SubtaskPatch{Completed: models.Some(true)})
	require.NoError(t, err)
	assert.True(t, a.Completed)

	items, err := s.ListSubtasks(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 50, pipeline.CompletionPercent(items))

	_, err = s.UpdateSubtask(ctx, "other-task", a.ID, models.SubtaskPatch{Completed: models.Some(false)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, s.DeleteSubtask(ctx, task.ID, a.ID))
	assert.ErrorIs(t, s.DeleteSubtask(ctx, task.ID, a.ID), apperr.ErrNotFound)

	size := int64(1024)
	att, err := s.CreateAttachment(ctx, models.Attachment{TaskID: task.ID, FileURL: "/files/a.png", FileName: "a.png", FileSize: &size})
	require.NoError(t, err)
	list, err := s.ListAttachments(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, att.ID, list[0].ID)
	require.NoError(t, s.DeleteAttachment(ctx, task.ID, att.ID))
}

func TestUsersAndSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	u, err := s.CreateUser(ctx, models.NewUser{Name: "Admin", Email: " Boss@Agency.test ", Role: rbac.RoleAdmin, PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, "boss@agency.test", u.Email)

	_, err = s.CreateUser(ctx, models.NewUser{Name: "Other", Email: "boss@agency.test", Role: rbac.RoleWriter})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = s.CreateUser(ctx, models.NewUser{Name: "X", Email: "x@agency.test", Role: rbac.RoleWriter})
	assert.ErrorIs(t, err, apperr.ErrValidation, "name needs two characters")

	found, err := s.GetUserByEmail(ctx, "BOSS@agency.test")
	require.NoError(t, err)
	assert.Equal(t, "h", found.PasswordHash)

	u, err = s.UpdateUserRole(ctx, u.ID, rbac.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleManager, u.Role)

	u, err = s.UpdateProfile(ctx, u.ID, models.ProfilePatch{AvatarURL: models.Some("https://cdn.test/a.png")})
	require.NoError(t, err)
	require.NotNil(t, u.AvatarURL)

	require.NoError(t, s.CreateSession(ctx, models.Session{TokenHash: "abc", UserID: u.ID, ExpiresAt: now.Add(time.Hour)}))
	got, err := s.SessionUser(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.SessionUser(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	now = now.Add(2 * time.Hour)
	_, err = s.SessionUser(ctx, "abc")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), apperr.ErrNotFound)
}

func seedApproval(t *testing.T, s *Store) (models.Approval, models.Task, []models.Column) {
	t.Helper()
	ctx := context.Background()
	_, p, cols := seedProject(t, s)
	task, err := s.CreateTask(ctx, models.NewTask{ColumnID: cols[3].ID, Title: "Launch video"})
	require.NoError(t, err)
	exp := time.Now().Add(time.Hour)
	a, err := s.CreateApproval(ctx, models.Approval{TaskID: task.ID, ProjectID: p.ID, PublicToken: "tok-" + task.ID, ExpiresAt: &exp})
	require.NoError(t, err)
	return a, task, cols
}

func TestCompleteApprovalAdvancesTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, task, cols := seedApproval(t, s)
	assert.Equal(t, models.ApprovalPending, a.Status)
	assert.Nil(t, a.RespondedAt)

	done, err := s.CompleteApproval(ctx, models.ApprovalDecision{
		ApprovalID: a.ID, Status: models.ApprovalApproved, RespondedAt: time.Now(), AdvanceTask: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, done.Status)
	assert.NotNil(t, done.RespondedAt)

	moved, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, cols[4].ID, moved.ColumnID)
}

func TestCompleteApprovalOnlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, _, _ := seedApproval(t, s)

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.CompleteApproval(ctx, models.ApprovalDecision{
				ApprovalID: a.ID, Status: models.ApprovalRejected, Feedback: strp("no"), RespondedAt: time.Now(),
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrConflict)
	}
	assert.Equal(t, 1, wins)

	_, err := s.CompleteApproval(ctx, models.ApprovalDecision{ApprovalID: "missing", Status: models.ApprovalApproved})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestApprovalLookupAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, task, _ := seedApproval(t, s)

	d, err := s.GetApprovalByToken(ctx, a.PublicToken)
	require.NoError(t, err)
	assert.Equal(t, "Launch video", d.TaskTitle)
	assert.Equal(t, "Spring campaign", d.ProjectName)
	assert.Nil(t, d.RequesterName)

	_, err = s.GetApprovalByToken(ctx, "unknown")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	all, err := s.ListApprovals(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	byProject, err := s.ListApprovals(ctx, task.ProjectID)
	require.NoError(t, err)
	assert.Len(t, byProject, 1)
	none, err := s.ListApprovals(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGenerations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, p, _ := seedProject(t, s)
	tokens := 42
	for i := 0; i < 3; i++ {
		_, err := s.CreateGeneration(ctx, models.Generation{ProjectID: &p.ID, ContentType: "caption", Prompt: "p", Result: "r", Model: "m", TokensUsed: &tokens})
		require.NoError(t, err)
	}
	_, err := s.CreateGeneration(ctx, models.Generation{ContentType: "blog", Prompt: "p", Result: "r", Model: "m"})
	require.NoError(t, err)

	all, err := s.ListGenerations(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	limited, err := s.ListGenerations(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestExpiredSessionCleanupFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "agencyhub.db"), slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	u, err := s.CreateUser(ctx, models.NewUser{Name: "Al", Email: "al@agency.test", Role: rbac.RoleWriter})
	require.NoError(t, err)
	require.NoError(t, s.CreateSession(ctx, models.Session{TokenHash: "abc", UserID: u.ID, ExpiresAt: now.Add(-time.Minute)}))
	_, err = s.db.ExecContext(ctx, `CREATE TRIGGER keep_sessions BEFORE DELETE ON sessions BEGIN SELECT RAISE(ABORT, 'sessions are read only'); END`)
	require.NoError(t, err)

	_, err = s.SessionUser(ctx, "abc")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Contains(t, logs.String(), "expired session not removed")
	assert.Contains(t, logs.String(), "user_id="+u.ID)
}

func TestNotificationPrefs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u, err := s.CreateUser(ctx, models.NewUser{Name: "Al", Email: "al@agency.test", Role: rbac.RoleWriter})
	require.NoError(t, err)

	prefs, err := s.NotificationPrefs(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultNotificationPrefs(), prefs)

	prefs, err = s.UpdateNotificationPrefs(ctx, u.ID, models.NotificationPatch{EmailOnApproval: models.Some(false)})
	require.NoError(t, err)
	assert.False(t, prefs.EmailOnApproval)
	assert.True(t, prefs.EmailOnComment)

	prefs, err = s.UpdateNotificationPrefs(ctx, u.ID, models.NotificationPatch{EmailOnDeadline: models.Some(false)})
	require.NoError(t, err)
	assert.False(t, prefs.EmailOnApproval, "earlier change kept")
	assert.False(t, prefs.EmailOnDeadline)

	stored, err := s.NotificationPrefs(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, prefs, stored)

	_, err = s.UpdateNotificationPrefs(ctx, u.ID, models.NotificationPatch{EmailOnAssign: models.Null[bool]()})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = s.UpdateNotificationPrefs(ctx, uuid.NewString(), models.NotificationPatch{EmailOnAssign: models.Some(true)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	prefs, err = s.NotificationPrefs(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultNotificationPrefs(), prefs, "rows go with the user")
}

func TestDashboard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	// A Wednesday; the week runs to Sunday the 18th.
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })
	_, p, cols := seedProject(t, s)

	due := func(day int) *models.Date {
		d := models.NewDate(2026, time.October, day)
		return &d
	}
	add := func(col int, title string, on *models.Date) models.Task {
		task, err := s.CreateTask(ctx, models.NewTask{ColumnID: cols[col].ID, Title: title, DueDate: on})
		require.NoError(t, err)
		return task
	}
	add(0, "brief", due(15))
	add(1, "today", due(14))
	add(1, "sunday", due(18))
	add(1, "next week", due(19))
	add(2, "overdue", due(13))
	waiting := add(3, "waiting", nil)
	lapsed := add(3, "lapsed", nil)
	add(4, "done", due(15))

	open := now.Add(time.Hour)
	_, err := s.CreateApproval(ctx, models.Approval{TaskID: waiting.ID, ProjectID: p.ID, PublicToken: "open", ExpiresAt: &open})
	require.NoError(t, err)
	gone := now.Add(-time.Hour)
	_, err = s.CreateApproval(ctx, models.Approval{TaskID: lapsed.ID, ProjectID: p.ID, PublicToken: "gone", ExpiresAt: &gone})
	require.NoError(t, err)

	idle, err := s.CreateProject(ctx, models.NewProject{ClientID: p.ClientID, Name: "Archive", Status: models.ProjectArchived})
	require.NoError(t, err)

	d, err := s.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, d.InProduction, "middle columns without an open approval")
	assert.Equal(t, 1, d.AwaitingApproval)
	assert.Equal(t, 3, d.DueThisWeek, "brief, today and sunday")
	assert.Equal(t, 1, d.ActiveProjects)
	require.Len(t, d.Recent, 1)
	assert.Equal(t, p.ID, d.Recent[0].ID)
	assert.NotEqual(t, idle.ID, d.Recent[0].ID)
	assert.Equal(t, "Acme", d.Recent[0].ClientName)
	assert.Equal(t, 8, d.Recent[0].TaskCount)
	assert.Equal(t, 1, d.Recent[0].DoneCount)
}

func TestWeekBounds(t *testing.T) {
	tests := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC), "2026-10-18"},
		{time.Date(2026, 10, 17, 23, 0, 0, 0, time.UTC), "2026-10-18"},
		{time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC), "2026-10-25"},
	}
	for _, tt := range tests {
		today, end := weekBounds(tt.now)
		assert.Equal(t, tt.now.Format("2006-01-02"), today.String())
		assert.Equal(t, tt.want, end.String())
	}
}

func TestClientLogoAndProjectCover(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c, err := s.CreateClient(ctx, models.NewClient{Name: "Acme", LogoURL: strp("https://cdn.test/logo.svg")})
	require.NoError(t, err)
	require.NotNil(t, c.LogoURL)

	p, err := s.CreateProject(ctx, models.NewProject{ClientID: c.ID, Name: "Launch", CoverImageURL: strp("https://cdn.test/cover.jpg")})
	require.NoError(t, err)
	require.NotNil(t, p.CoverImageURL)
	assert.Equal(t, "https://cdn.test/cover.jpg", *p.CoverImageURL)

	c, err = s.UpdateClient(ctx, c.ID, models.ClientPatch{LogoURL: models.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, c.LogoURL)

	p, err = s.UpdateProject(ctx, p.ID, models.ProjectPatch{CoverImageURL: models.Some("https://cdn.test/v2.jpg")})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/v2.jpg", *p.CoverImageURL)
}
