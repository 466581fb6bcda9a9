// Package client is a Go client for the task tracker: a typed REST client,
// a reconnecting realtime socket and a synchronizer that keeps a task list
// of the mounted project fresh.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aidar/taskflow/internal/domain"
)

// APIError is a non-2xx response decoded from the error envelope
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// TaskInput holds the fields of a new task
type TaskInput struct {
	Title       string              `json:"title"`
	Description *string             `json:"description,omitempty"`
	Status      domain.TaskStatus   `json:"status,omitempty"`
	Priority    domain.TaskPriority `json:"priority,omitempty"`
	AssigneeID  *int64              `json:"assigneeId,omitempty"`
}

// TaskUpdate holds a partial task update. ClearAssignee sends "assigneeId": null.
type TaskUpdate struct {
	Title         *string
	Description   *string
	Status        *domain.TaskStatus
	Priority      *domain.TaskPriority
	AssigneeID    *int64
	ClearAssignee bool
	Version       *int64
}

// MarshalJSON implements json.Marshaler
func (u TaskUpdate) MarshalJSON() ([]byte, error) {
	body := make(map[string]any)
	if u.Title != nil {
		body["title"] = *u.Title
	}
	if u.Description != nil {
		body["description"] = *u.Description
	}
	if u.Status != nil {
		body["status"] = *u.Status
	}
	if u.Priority != nil {
		body["priority"] = *u.Priority
	}
	switch {
	case u.ClearAssignee:
		body["assigneeId"] = nil
	case u.AssigneeID != nil:
		body["assigneeId"] = *u.AssigneeID
	}
	if u.Version != nil {
		body["version"] = *u.Version
	}
	return json.Marshal(body)
}

// APIClient calls the REST API. Login and Register store the issued token
// and later calls send it as a bearer token.
type APIClient struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewAPIClient creates a client for baseURL (e.g. "http://localhost:3000").
// A nil httpClient gets a client with a 15s timeout.
func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the server base URL
func (c *APIClient) BaseURL() string {
	return c.baseURL
}

// Token returns the current bearer token
func (c *APIClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token
func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Register creates an account and stores its token
func (c *APIClient) Register(ctx context.Context, username, password string, role domain.Role) (*AuthResponse, error) {
	req := map[string]any{"username": username, "password": password}
	if role != "" {
		req["role"] = role
	}

	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

// Login authenticates and stores the token
func (c *APIClient) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	req := map[string]string{"username": username, "password": password}

	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

// Me returns the authenticated user
func (c *APIClient) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListProjects returns all projects
func (c *APIClient) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	var projects []*domain.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project owned by the current user
func (c *APIClient) CreateProject(ctx context.Context, name string, description *string) (*domain.Project, error) {
	req := map[string]any{"name": name}
	if description != nil {
		req["description"] = *description
	}

	var project domain.Project
	if err := c.do(ctx, http.MethodPost, "/api/projects", req, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProject returns a project by id
func (c *APIClient) GetProject(ctx context.Context, projectID int64) (*domain.Project, error) {
	var project domain.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+itoa(projectID), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ProjectStats returns task counters of a project
func (c *APIClient) ProjectStats(ctx context.Context, projectID int64) (*domain.ProjectStats, error) {
	var stats domain.ProjectStats
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+itoa(projectID)+"/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListTasks returns the tasks of a project
func (c *APIClient) ListTasks(ctx context.Context, projectID int64) ([]*domain.Task, error) {
	var tasks []*domain.Task
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+itoa(projectID)+"/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask creates a task in a project
func (c *APIClient) CreateTask(ctx context.Context, projectID int64, in TaskInput) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodPost, "/api/projects/"+itoa(projectID)+"/tasks", in, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask applies a partial update
func (c *APIClient) UpdateTask(ctx context.Context, taskID int64, update TaskUpdate) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+itoa(taskID), update, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task
func (c *APIClient) DeleteTask(ctx context.Context, taskID int64) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+itoa(taskID), nil, nil)
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
