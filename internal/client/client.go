// Package client talks to the agencyhub HTTP API. It is the persistence side
// of pipeline.Controller and pipeline.Checklist for remote boards.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agencyhub/internal/apperr"
	"agencyhub/internal/models"
	"agencyhub/internal/pipeline"
)

// Client is an authenticated API client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for baseURL using the session token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient replaces the transport client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// APIError is a non-2xx answer. It unwraps to the apperr kind named by Code.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Code {
	case "unauthorized":
		return apperr.ErrUnauthorized
	case "forbidden":
		return apperr.ErrForbidden
	case "not_found":
		return apperr.ErrNotFound
	case "conflict":
		return apperr.ErrConflict
	case "expired":
		return apperr.ErrExpired
	case "validation":
		return apperr.ErrValidation
	case "upstream_unavailable":
		return apperr.ErrUpstreamUnavailable
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err := json.Unmarshal(raw, &payload); err != nil || payload.Error == "" {
			payload.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{Status: resp.StatusCode, Code: payload.Code, Message: payload.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Login exchanges credentials for a session token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (models.User, error) {
	var out struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return models.User{}, err
	}
	c.token = out.Token
	return out.User, nil
}

// Token returns the current session token.
func (c *Client) Token() string { return c.token }

// Board fetches a project's board.
func (c *Client) Board(ctx context.Context, projectID string) (pipeline.Board, error) {
	var out struct {
		Board pipeline.Board `json:"board"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+projectID+"/board", nil, &out); err != nil {
		return pipeline.Board{}, err
	}
	return out.Board, nil
}

// MoveTask persists a task's column and position.
func (c *Client) MoveTask(ctx context.Context, taskID, columnID string, position int) error {
	return c.do(ctx, http.MethodPatch, "/api/tasks/"+taskID+"/move", map[string]any{"column_id": columnID, "position": position}, nil)
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+taskID, nil, nil)
}

// CreateTask creates a task and returns the server's record.
func (c *Client) CreateTask(ctx context.Context, in models.NewTask) (models.Task, error) {
	var out struct {
		Task models.Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/tasks", in, &out); err != nil {
		return models.Task{}, err
	}
	return out.Task, nil
}

// Subtasks lists a task's checklist.
func (c *Client) Subtasks(ctx context.Context, taskID string) ([]models.Subtask, error) {
	var out struct {
		Subtasks []models.Subtask `json:"subtasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+taskID+"/subtasks", nil, &out); err != nil {
		return nil, err
	}
	return out.Subtasks, nil
}

func (c *Client) CreateSubtask(ctx context.Context, taskID, title string) (models.Subtask, error) {
	var out struct {
		Subtask models.Subtask `json:"subtask"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/tasks/"+taskID+"/subtasks", map[string]string{"title": title}, &out); err != nil {
		return models.Subtask{}, err
	}
	return out.Subtask, nil
}

func (c *Client) SetSubtaskCompleted(ctx context.Context, taskID, subtaskID string, completed bool) error {
	return c.do(ctx, http.MethodPatch, "/api/tasks/"+taskID+"/subtasks/"+subtaskID, map[string]bool{"completed": completed}, nil)
}

func (c *Client) DeleteSubtask(ctx context.Context, taskID, subtaskID string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+taskID+"/subtasks/"+subtaskID, nil, nil)
}

var (
	_ pipeline.Persister        = (*Client)(nil)
	_ pipeline.SubtaskPersister = (*Client)(nil)
)
