package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/taskflow/internal/domain"
)

func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	assert.Equal(t, status, apiErr.StatusCode)
	assert.Equal(t, code, apiErr.Code)
}

func TestAPIClient_AuthFlow(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	api := NewAPIClient(server.URL, server.Client())

	_, err := api.Me(ctx)
	requireAPIError(t, err, http.StatusUnauthorized, "UNAUTHORIZED")

	registered, err := api.Register(ctx, "carol", "s3cret", "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, registered.User.Role)
	assert.NotEmpty(t, api.Token())

	me, err := api.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, me.ID)

	_, err = api.Register(ctx, "carol", "other", "")
	requireAPIError(t, err, http.StatusBadRequest, "CONFLICT")

	_, err = api.Login(ctx, "carol", "wrong")
	requireAPIError(t, err, http.StatusUnauthorized, "UNAUTHORIZED")

	_, err = api.Register(ctx, "dave", "pw", "superuser")
	requireAPIError(t, err, http.StatusBadRequest, "BAD_REQUEST")
}

func TestAPIClient_SeededScenario(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	api := loginAdmin(t, server)

	projects, err := api.ListProjects(ctx)
	require.NoError(t, err)

	var internal *domain.Project
	for _, p := range projects {
		if p.Name == "Internal Tool" {
			internal = p
		}
	}
	require.NotNil(t, internal)
	require.NotNil(t, internal.Owner)
	assert.Equal(t, "admin", internal.Owner.Username)

	tasks, err := api.ListTasks(ctx, internal.ID)
	require.NoError(t, err)

	var backend []*domain.Task
	for _, task := range tasks {
		if task.Title == "Setup Backend" {
			backend = append(backend, task)
		}
	}
	require.Len(t, backend, 1)
	assert.Equal(t, domain.StatusDone, backend[0].Status)
	assert.Equal(t, domain.PriorityHigh, backend[0].Priority)
}

func TestAPIClient_TaskLifecycle(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	api := loginAdmin(t, server)

	me, err := api.Me(ctx)
	require.NoError(t, err)

	description := "sandbox"
	project, err := api.CreateProject(ctx, "Sandbox", &description)
	require.NoError(t, err)
	assert.Equal(t, me.ID, project.OwnerID)

	task, err := api.CreateTask(ctx, project.ID, TaskInput{Title: "Write tests", AssigneeID: &me.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTodo, task.Status)
	require.NotNil(t, task.Assignee)

	status := domain.StatusInProgress
	updated, err := api.UpdateTask(ctx, task.ID, TaskUpdate{Status: &status, ClearAssignee: true, Version: &task.Version})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, updated.Status)
	assert.Nil(t, updated.AssigneeID)
	assert.Nil(t, updated.Assignee)

	_, err = api.UpdateTask(ctx, task.ID, TaskUpdate{Status: &status, Version: &task.Version})
	requireAPIError(t, err, http.StatusConflict, "VERSION_CONFLICT")

	empty := ""
	_, err = api.UpdateTask(ctx, task.ID, TaskUpdate{Title: &empty})
	requireAPIError(t, err, http.StatusBadRequest, "BAD_REQUEST")

	stats, err := api.ProjectStats(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalTasks)
	assert.Equal(t, 1, stats.ByStatus[domain.StatusInProgress])

	require.NoError(t, api.DeleteTask(ctx, task.ID))
	err = api.DeleteTask(ctx, task.ID)
	requireAPIError(t, err, http.StatusNotFound, "NOT_FOUND")

	tasks, err := api.ListTasks(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	_, err = api.GetProject(ctx, project.ID+1000)
	requireAPIError(t, err, http.StatusNotFound, "NOT_FOUND")
}
