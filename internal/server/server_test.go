package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agencyhub/internal/approval"
	"agencyhub/internal/auth"
	"agencyhub/internal/files"
	"agencyhub/internal/generate"
	"agencyhub/internal/models"
	"agencyhub/internal/notify"
	"agencyhub/internal/rbac"
	"agencyhub/internal/storage"
)

type mailbox struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *mailbox) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type echoModel struct{}

func (echoModel) Name() string { return "echo" }

func (echoModel) Generate(_ context.Context, _, prompt string) (generate.Completion, error) {
	n := len(prompt)
	return generate.Completion{Text: "draft: " + prompt, TokensUsed: &n}, nil
}

type harness struct {
	t      *testing.T
	srv    *Server
	store  *storage.Store
	mail   *mailbox
	disp   *notify.Dispatcher
	tokens map[rbac.Role]string
	users  map[rbac.Role]models.User
	// skew moves the approval clock forward.
	skew time.Duration
}

func newHarness(t *testing.T, model generate.Model) *harness {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.Open(storage.DriverSQLite, filepath.Join(dir, "api.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	fs, err := files.NewLocalStore(filepath.Join(dir, "uploads"), "/files", nil)
	require.NoError(t, err)

	h := &harness{t: t, store: st, mail: &mailbox{}, tokens: map[rbac.Role]string{}, users: map[rbac.Role]models.User{}}
	h.disp = notify.NewDispatcher(h.mail, nil, time.Second)
	t.Cleanup(h.disp.Wait)

	h.srv = New(st, nil, Options{
		Approvals: approval.NewService(st, h.disp, approval.Options{
			PublicURL: "https://hub.test",
			Now:       func() time.Time { return time.Now().Add(h.skew) },
		}),
		Generator: generate.NewService(model, st, nil),
		Files:     fs,
	})

	ctx := context.Background()
	for _, role := range rbac.Roles() {
		u, err := st.CreateUser(ctx, models.NewUser{Name: "User " + string(role), Email: string(role) + "@agency.test", Role: role})
		require.NoError(t, err)
		token, err := auth.NewSessionToken()
		require.NoError(t, err)
		require.NoError(t, st.CreateSession(ctx, models.Session{
			TokenHash: auth.HashToken(token),
			UserID:    u.ID,
			ExpiresAt: time.Now().Add(time.Hour),
			CreatedAt: time.Now(),
		}))
		h.tokens[role] = token
		h.users[role] = u
	}
	return h
}

func (h *harness) do(role rbac.Role, method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(h.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token, ok := h.tokens[role]; ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder, key string) T {
	t.Helper()
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(envelope[key], &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[string](t, rec, "code")
}

// seed creates a client, a project and one task in the first column through the API.
func (h *harness) seed(contactEmail string) (models.Project, boardView, models.Task) {
	h.t.Helper()
	body := map[string]any{"name": "Acme"}
	if contactEmail != "" {
		body["contact_email"] = contactEmail
	}
	rec := h.do(rbac.RoleManager, http.MethodPost, "/api/clients", body)
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	client := decode[models.Client](h.t, rec, "client")

	rec = h.do(rbac.RoleManager, http.MethodPost, "/api/projects", map[string]any{"client_id": client.ID, "name": "Launch"})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	project := decode[models.Project](h.t, rec, "project")

	board := h.board(project.ID)
	rec = h.do(rbac.RoleManager, http.MethodPost, "/api/tasks", map[string]any{
		"project_id": project.ID, "column_id": board.Columns[0].ID, "title": "Hero banner",
	})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return project, board, decode[models.Task](h.t, rec, "task")
}

type boardView struct {
	Columns []models.BoardColumn `json:"columns"`
}

func (h *harness) board(projectID string) boardView {
	h.t.Helper()
	rec := h.do(rbac.RoleWriter, http.MethodGet, "/api/projects/"+projectID+"/board", nil)
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[boardView](h.t, rec, "board")
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do("", http.MethodGet, "/api/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequiresSession(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do("", http.MethodGet, "/api/clients", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorCode(t, rec))

	h.tokens["ghost"] = "not-a-session"
	rec = h.do("ghost", http.MethodGet, "/api/clients", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPermissionsCheckedBeforeMutation(t *testing.T) {
	h := newHarness(t, nil)
	project, _, task := h.seed("")

	tests := []struct {
		role   rbac.Role
		method string
		path   string
		body   any
		want   int
	}{
		{rbac.RoleWriter, http.MethodPost, "/api/clients", map[string]any{"name": "Nope"}, http.StatusForbidden},
		{rbac.RoleDesigner, http.MethodDelete, "/api/tasks/" + task.ID, nil, http.StatusForbidden},
		{rbac.RoleManager, http.MethodDelete, "/api/projects/" + project.ID, nil, http.StatusForbidden},
		{rbac.RoleManager, http.MethodGet, "/api/admin/users", nil, http.StatusOK},
		{rbac.RoleManager, http.MethodPost, "/api/admin/users", map[string]any{"name": "X"}, http.StatusForbidden},
		{rbac.RoleWriter, http.MethodPatch, "/api/tasks/" + task.ID, map[string]any{"title": "Renamed"}, http.StatusOK},
		{rbac.RoleWriter, http.MethodPut, "/api/tasks/" + task.ID + "/assignees", map[string]any{"user_ids": []string{}}, http.StatusForbidden},
	}
	for _, tt := range tests {
		rec := h.do(tt.role, tt.method, tt.path, tt.body)
		assert.Equal(t, tt.want, rec.Code, "%s %s %s: %s", tt.role, tt.method, tt.path, rec.Body.String())
	}

	rec := h.do(rbac.RoleWriter, http.MethodGet, "/api/clients", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Client](t, rec, "clients"), 1, "forbidden create left no client behind")

	rec = h.do(rbac.RoleDesigner, http.MethodGet, "/api/tasks/"+task.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "forbidden delete left the task in place")
}

func TestErrorTaxonomy(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(rbac.RoleAdmin, http.MethodGet, "/api/clients/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", errorCode(t, rec))

	rec = h.do(rbac.RoleAdmin, http.MethodGet, "/api/clients/6f1c1a1e-4d5b-4c39-9d2e-3a9e8f9a0b11", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))

	rec = h.do(rbac.RoleAdmin, http.MethodPost, "/api/clients", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(rbac.RoleAdmin, http.MethodPost, "/api/clients", map[string]any{"name": "Acme", "brand_color": "red"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "brand_color")
}

func TestMoveTaskEndpoint(t *testing.T) {
	h := newHarness(t, nil)
	project, board, task := h.seed("")

	rec := h.do(rbac.RoleDesigner, http.MethodPatch, "/api/tasks/"+task.ID+"/move", map[string]any{"column_id": board.Columns[2].ID, "position": 7})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decode[models.Task](t, rec, "task")
	assert.Equal(t, board.Columns[2].ID, moved.ColumnID)
	assert.Equal(t, 0, moved.Position, "position is clamped to the column length")

	after := h.board(project.ID)
	assert.Empty(t, after.Columns[0].Tasks)
	require.Len(t, after.Columns[2].Tasks, 1)

	rec = h.do(rbac.RoleDesigner, http.MethodPatch, "/api/tasks/"+task.ID+"/move", map[string]any{"column_id": board.Columns[1].ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "position is required")
}

func TestTaskPatchClearsDueDate(t *testing.T) {
	h := newHarness(t, nil)
	_, _, task := h.seed("")

	rec := h.do(rbac.RoleWriter, http.MethodPatch, "/api/tasks/"+task.ID, map[string]any{"due_date": "2026-11-02", "priority": "urgent"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[models.Task](t, rec, "task")
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2026-11-02", got.DueDate.String())

	rec = h.do(rbac.RoleWriter, http.MethodPatch, "/api/tasks/"+task.ID, `{"due_date": null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got = decode[models.Task](t, rec, "task")
	assert.Nil(t, got.DueDate)
	assert.Equal(t, models.PriorityUrgent, got.Priority, "absent keys are left alone")
}

func TestSubtasks(t *testing.T) {
	h := newHarness(t, nil)
	_, _, task := h.seed("")
	base := "/api/tasks/" + task.ID + "/subtasks"

	rec := h.do(rbac.RoleWriter, http.MethodPost, base, map[string]any{"title": "Write copy"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode[models.Subtask](t, rec, "subtask")

	rec = h.do(rbac.RoleWriter, http.MethodPatch, base+"/"+item.ID, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[models.Subtask](t, rec, "subtask").Completed)

	rec = h.do(rbac.RoleWriter, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Subtask](t, rec, "subtasks"), 1)

	rec = h.do(rbac.RoleWriter, http.MethodDelete, base+"/"+item.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(rbac.RoleWriter, http.MethodDelete, base+"/"+item.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadAndAttach(t *testing.T) {
	h := newHarness(t, nil)
	_, _, task := h.seed("")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "brief.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("the brief"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+h.tokens[rbac.RoleDesigner])
	rec := httptest.NewRecorder()
	h.srv.Engine().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var up files.Upload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.Equal(t, "brief.txt", up.FileName)
	assert.Equal(t, int64(9), up.FileSize)

	served := httptest.NewRecorder()
	h.srv.Engine().ServeHTTP(served, httptest.NewRequest(http.MethodGet, up.URL, nil))
	assert.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, "the brief", served.Body.String())
	assert.Equal(t, "nosniff", served.Header().Get("X-Content-Type-Options"))

	rec = h.do(rbac.RoleDesigner, http.MethodPost, "/api/tasks/"+task.ID+"/attachments", map[string]any{
		"file_url": up.URL, "file_name": up.FileName, "file_type": up.FileType, "file_size": up.FileSize,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	att := decode[models.Attachment](t, rec, "attachment")

	rec = h.do(rbac.RoleDesigner, http.MethodDelete, "/api/tasks/"+task.ID+"/attachments/"+att.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(rbac.RoleDesigner, http.MethodDelete, "/api/uploads", map[string]any{"url": up.URL})
	assert.Equal(t, http.StatusNotFound, rec.Code, "file went with the attachment")
}

func TestApprovalFlow(t *testing.T) {
	h := newHarness(t, nil)
	_, board, task := h.seed("c@x.com")

	rec := h.do(rbac.RoleWriter, http.MethodPost, "/api/approvals", map[string]any{"task_id": task.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Approval](t, rec, "approval")
	assert.Equal(t, "https://hub.test/approve/"+created.PublicToken, decode[string](t, rec, "link"))

	public := "/api/public/approvals/" + created.PublicToken
	rec = h.do("", http.MethodGet, public, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	detail := decode[models.ApprovalDetail](t, rec, "approval")
	assert.Equal(t, "Hero banner", detail.TaskTitle)
	assert.NotContains(t, rec.Body.String(), "writer@agency.test", "requester email stays private")

	rec = h.do("", http.MethodPatch, public, map[string]any{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do("", http.MethodPatch, public, map[string]any{"status": "approved", "feedback": "Love it"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.ApprovalApproved, decode[models.Approval](t, rec, "approval").Status)

	rec = h.do("", http.MethodPatch, public, map[string]any{"status": "rejected"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errorCode(t, rec))
	final := decode[models.Approval](t, rec, "approval")
	assert.Equal(t, models.ApprovalApproved, final.Status)
	assert.Equal(t, "Love it", *final.ClientFeedback)

	after := h.board(task.ProjectID)
	last := after.Columns[len(after.Columns)-1]
	require.Len(t, last.Tasks, 1)
	assert.Equal(t, task.ID, last.Tasks[0].ID)
	assert.Empty(t, after.Columns[0].Tasks)
	assert.Equal(t, board.Columns[len(board.Columns)-1].ID, last.ID)

	rec = h.do("", http.MethodGet, "/api/public/approvals/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(rbac.RoleDesigner, http.MethodGet, "/api/approvals?project_id="+task.ProjectID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.ApprovalDetail](t, rec, "approvals"), 1)

	h.disp.Wait()
	h.mail.mu.Lock()
	defer h.mail.mu.Unlock()
	var to []string
	for _, m := range h.mail.sent {
		to = append(to, m.To)
	}
	assert.ElementsMatch(t, []string{"c@x.com", "writer@agency.test"}, to)
}

func TestAdminSelfProtection(t *testing.T) {
	h := newHarness(t, nil)
	admin := h.users[rbac.RoleAdmin]

	rec := h.do(rbac.RoleAdmin, http.MethodPatch, "/api/admin/users/"+admin.ID, map[string]any{"role": "writer"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = h.do(rbac.RoleAdmin, http.MethodDelete, "/api/admin/users/"+admin.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	writer := h.users[rbac.RoleWriter]
	rec = h.do(rbac.RoleAdmin, http.MethodPatch, "/api/admin/users/"+writer.ID, map[string]any{"role": "manager"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, rbac.RoleManager, decode[models.User](t, rec, "user").Role)

	rec = h.do(rbac.RoleAdmin, http.MethodPatch, "/api/admin/users/"+writer.ID, map[string]any{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(rbac.RoleAdmin, http.MethodDelete, "/api/admin/users/"+h.users[rbac.RoleDesigner].ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginLogout(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(rbac.RoleAdmin, http.MethodPost, "/api/admin/users", map[string]any{
		"name": "Robin", "email": "Robin@Agency.test", "role": "designer", "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	rec = h.do("", http.MethodPost, "/api/auth/login", map[string]any{"email": "robin@agency.test", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = h.do("", http.MethodPost, "/api/auth/login", map[string]any{"email": "nobody@agency.test", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do("", http.MethodPost, "/api/auth/login", map[string]any{"email": "robin@agency.test", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	h.tokens["robin"] = decode[string](t, rec, "token")
	assert.True(t, strings.Contains(rec.Header().Get("Set-Cookie"), SessionCookie+"="))

	rec = h.do("robin", http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, rbac.RoleDesigner, decode[models.User](t, rec, "user").Role)

	rec = h.do("robin", http.MethodPatch, "/api/profile", map[string]any{"name": "R"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do("robin", http.MethodPatch, "/api/profile", map[string]any{"name": "Robin B."})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do("robin", http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do("robin", http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionCookie(t *testing.T) {
	h := newHarness(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: h.tokens[rbac.RoleWriter]})
	rec := httptest.NewRecorder()
	h.srv.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerate(t *testing.T) {
	h := newHarness(t, echoModel{})
	project, _, _ := h.seed("")

	rec := h.do(rbac.RoleWriter, http.MethodPost, "/api/ai/generate", map[string]any{
		"content_type": "caption", "prompt": "autumn menu", "project_id": project.ID, "variations": 3,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "draft: autumn menu", decode[string](t, rec, "result"))
	assert.NotEmpty(t, decode[string](t, rec, "generation_id"))

	rec = h.do(rbac.RoleWriter, http.MethodGet, "/api/ai/generations?project_id="+project.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Generation](t, rec, "generations"), 1)
}

func TestGenerateUnconfigured(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(rbac.RoleWriter, http.MethodPost, "/api/ai/generate", map[string]any{"content_type": "blog", "prompt": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "upstream_unavailable", errorCode(t, rec))
}

func TestBodyIDsMustBeUUIDs(t *testing.T) {
	h := newHarness(t, nil)
	project, board, task := h.seed("")

	tests := []struct {
		name   string
		method string
		path   string
		body   map[string]any
		field  string
	}{
		{"task column", http.MethodPost, "/api/tasks", map[string]any{"column_id": "backlog", "title": "x"}, "column_id"},
		{"task project", http.MethodPost, "/api/tasks", map[string]any{"project_id": "p1", "column_id": board.Columns[0].ID, "title": "x"}, "project_id"},
		{"approval task", http.MethodPost, "/api/approvals", map[string]any{"task_id": "42"}, "task_id"},
		{"move column", http.MethodPatch, "/api/tasks/" + task.ID + "/move", map[string]any{"column_id": "done", "position": 0}, "column_id"},
		{"project client", http.MethodPost, "/api/projects", map[string]any{"client_id": "acme", "name": "x"}, "client_id"},
		{"ai project", http.MethodPost, "/api/ai/generate", map[string]any{"content_type": "blog", "prompt": "x", "project_id": "nope"}, "project_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(rbac.RoleManager, tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "validation", errorCode(t, rec))
			assert.Contains(t, decode[string](t, rec, "error"), tt.field+" must be a UUID")
		})
	}

	rec := h.do(rbac.RoleManager, http.MethodPost, "/api/tasks", map[string]any{
		"project_id": project.ID, "column_id": board.Columns[0].ID, "title": strings.Repeat("a", models.MaxTitleLength+1),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[string](t, rec, "error"), "title must be at most 500 characters")
}

func TestPublicApprovalExpiry(t *testing.T) {
	h := newHarness(t, nil)
	_, _, task := h.seed("")

	create := func() string {
		rec := h.do(rbac.RoleWriter, http.MethodPost, "/api/approvals", map[string]any{"task_id": task.ID})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return "/api/public/approvals/" + decode[models.Approval](t, rec, "approval").PublicToken
	}

	unanswered := create()
	answered := create()
	rec := h.do("", http.MethodPatch, answered, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	h.skew = approval.DefaultTTL + time.Minute

	rec = h.do("", http.MethodGet, unanswered, nil)
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "expired", errorCode(t, rec))

	rec = h.do("", http.MethodPatch, unanswered, map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "expired", errorCode(t, rec))

	rec = h.do("", http.MethodPatch, answered, map[string]any{"status": "rejected"})
	assert.Equal(t, http.StatusGone, rec.Code, "expiry is reported before the earlier answer")
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body, "approval")
}

func TestDashboard(t *testing.T) {
	h := newHarness(t, nil)
	now := time.Now().UTC()
	h.store.SetClock(func() time.Time { return now })
	project, board, _ := h.seed("")
	today := now.Format("2006-01-02")

	addTask := func(col int, title string, due string) models.Task {
		body := map[string]any{"project_id": project.ID, "column_id": board.Columns[col].ID, "title": title}
		if due != "" {
			body["due_date"] = due
		}
		rec := h.do(rbac.RoleManager, http.MethodPost, "/api/tasks", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return decode[models.Task](t, rec, "task")
	}
	addTask(1, "Storyboard", today)
	waiting := addTask(3, "Final cut", "")
	addTask(len(board.Columns)-1, "Shipped", today)

	rec := h.do(rbac.RoleWriter, http.MethodPost, "/api/approvals", map[string]any{"task_id": waiting.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(rbac.RoleDesigner, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := decode[models.Dashboard](t, rec, "dashboard")
	assert.Equal(t, 1, d.InProduction)
	assert.Equal(t, 1, d.AwaitingApproval)
	assert.Equal(t, 1, d.DueThisWeek, "tasks in the final column are not deadlines")
	assert.Equal(t, 1, d.ActiveProjects)
	require.Len(t, d.Recent, 1)
	assert.Equal(t, project.ID, d.Recent[0].ID)
	assert.Equal(t, "Acme", d.Recent[0].ClientName)
	assert.Equal(t, 4, d.Recent[0].TaskCount)
	assert.Equal(t, 1, d.Recent[0].DoneCount)

	rec = h.do("", http.MethodGet, "/api/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotificationPreferences(t *testing.T) {
	h := newHarness(t, nil)
	_, _, task := h.seed("c@x.com")

	rec := h.do(rbac.RoleWriter, http.MethodGet, "/api/profile/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.DefaultNotificationPrefs(), decode[models.NotificationPrefs](t, rec, "preferences"))

	rec = h.do(rbac.RoleWriter, http.MethodPatch, "/api/profile/notifications", map[string]any{"emailOnApproval": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	prefs := decode[models.NotificationPrefs](t, rec, "preferences")
	assert.False(t, prefs.EmailOnApproval)
	assert.True(t, prefs.EmailOnAssign, "absent keys are left alone")

	rec = h.do(rbac.RoleWriter, http.MethodPatch, "/api/profile/notifications", `{"emailOnComment": null}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(rbac.RoleDesigner, http.MethodGet, "/api/profile/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.NotificationPrefs](t, rec, "preferences").EmailOnApproval, "preferences are per user")

	rec = h.do(rbac.RoleWriter, http.MethodPost, "/api/approvals", map[string]any{"task_id": task.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	public := "/api/public/approvals/" + decode[models.Approval](t, rec, "approval").PublicToken
	rec = h.do("", http.MethodPatch, public, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Only the request to the client goes out; the decision email is skipped.
	h.disp.Wait()
	h.mail.mu.Lock()
	defer h.mail.mu.Unlock()
	require.Len(t, h.mail.sent, 1)
	assert.Equal(t, "c@x.com", h.mail.sent[0].To)
}

func TestClientLogoAndProjectCover(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(rbac.RoleManager, http.MethodPost, "/api/clients", map[string]any{"name": "Acme", "logo_url": "https://cdn.test/acme.svg"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	client := decode[models.Client](t, rec, "client")
	require.NotNil(t, client.LogoURL)
	assert.Equal(t, "https://cdn.test/acme.svg", *client.LogoURL)

	rec = h.do(rbac.RoleManager, http.MethodPost, "/api/clients", map[string]any{"name": "Acme", "logo_url": "acme.svg"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(rbac.RoleManager, http.MethodPost, "/api/projects", map[string]any{
		"client_id": client.ID, "name": "Launch", "cover_image_url": "https://cdn.test/cover.jpg",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	project := decode[models.Project](t, rec, "project")
	require.NotNil(t, project.CoverImageURL)

	rec = h.do(rbac.RoleManager, http.MethodPatch, "/api/projects/"+project.ID, `{"cover_image_url": null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, decode[models.Project](t, rec, "project").CoverImageURL)

	rec = h.do(rbac.RoleManager, http.MethodPatch, "/api/clients/"+client.ID, `{"logo_url": null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, decode[models.Client](t, rec, "client").LogoURL)
}

func TestFrontendShell(t *testing.T) {
	dir := t.TempDir()
	web := filepath.Join(dir, "web")
	require.NoError(t, os.MkdirAll(filepath.Join(web, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(web, "index.html"), []byte("<div id=app></div>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(web, "assets", "app-3f2a.js"), []byte("boot()"), 0o644))

	st, err := storage.Open(storage.DriverSQLite, filepath.Join(dir, "web.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	srv := New(st, nil, Options{StaticDir: web})

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		srv.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/approve/abc123")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "id=app")
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	rec = get("/assets/app-3f2a.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "immutable")

	rec = get("/api/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))

	apiOnly := New(st, nil, Options{})
	rec = httptest.NewRecorder()
	apiOnly.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/approve/abc123", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))
}
