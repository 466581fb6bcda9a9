package integration

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/taskflow/internal/client"
	"github.com/aidar/taskflow/internal/domain"
)

// TestE2E_CompleteWorkflow тестирует полный сценарий на реальном PostgreSQL
func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)

	ctx := context.Background()

	t.Run("Seeded admin sees Internal Tool with Setup Backend", func(t *testing.T) {
		api := env.Login(t, "admin", "admin123")

		projects, err := api.ListProjects(ctx)
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, "Internal Tool", projects[0].Name)
		require.NotNil(t, projects[0].Owner)
		assert.Equal(t, "admin", projects[0].Owner.Username)

		tasks, err := api.ListTasks(ctx, projects[0].ID)
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
		require.NotNil(t, backend[0].Assignee)
		assert.Equal(t, "admin", backend[0].Assignee.Username)
	})

	t.Run("Register, login and me", func(t *testing.T) {
		api := client.NewAPIClient(env.BaseURL, env.Server.Client())

		registered, err := api.Register(ctx, "eve", "eve-password", "")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleMember, registered.User.Role)

		loggedIn, err := api.Login(ctx, "eve", "eve-password")
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, loggedIn.User.ID)

		me, err := api.Me(ctx)
		require.NoError(t, err)
		assert.Equal(t, "eve", me.Username)

		_, err = api.Register(ctx, "eve", "again", "")
		var apiErr *client.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "CONFLICT", apiErr.Code)
	})

	t.Run("Task lifecycle with optimistic version", func(t *testing.T) {
		api := env.Login(t, "member", "member123")

		project, err := api.CreateProject(ctx, "Integration", nil)
		require.NoError(t, err)

		task, err := api.CreateTask(ctx, project.ID, client.TaskInput{Title: "Persist me", Priority: domain.PriorityLow})
		require.NoError(t, err)
		assert.Equal(t, int64(1), task.Version)

		me, err := api.Me(ctx)
		require.NoError(t, err)

		status := domain.StatusInProgress
		updated, err := api.UpdateTask(ctx, task.ID, client.TaskUpdate{Status: &status, AssigneeID: &me.ID, Version: &task.Version})
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated.Version)
		require.NotNil(t, updated.Assignee)
		assert.Equal(t, "member", updated.Assignee.Username)

		_, err = api.UpdateTask(ctx, task.ID, client.TaskUpdate{Status: &status, Version: &task.Version})
		var apiErr *client.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusConflict, apiErr.StatusCode)

		cleared, err := api.UpdateTask(ctx, task.ID, client.TaskUpdate{ClearAssignee: true})
		require.NoError(t, err)
		assert.Nil(t, cleared.AssigneeID)

		stats, err := api.ProjectStats(ctx, project.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalTasks)
		assert.Equal(t, 1, stats.ByStatus[domain.StatusInProgress])
		assert.Equal(t, 1, stats.ByPriority[domain.PriorityLow])
		assert.Equal(t, 1, stats.Unassigned)

		require.NoError(t, api.DeleteTask(ctx, task.ID))

		var count int
		err = env.DB.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE id = $1`, task.ID).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("Concurrent version updates have exactly one winner", func(t *testing.T) {
		api := env.Login(t, "admin", "admin123")

		project, err := api.CreateProject(ctx, "Race", nil)
		require.NoError(t, err)
		task, err := api.CreateTask(ctx, project.ID, client.TaskInput{Title: "Contested"})
		require.NoError(t, err)

		var wins, conflicts atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				done := domain.StatusDone
				_, err := api.UpdateTask(ctx, task.ID, client.TaskUpdate{Status: &done, Version: &task.Version})
				var apiErr *client.APIError
				switch {
				case err == nil:
					wins.Add(1)
				case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict:
					conflicts.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 1, wins.Load())
		assert.EqualValues(t, 7, conflicts.Load())
	})

	t.Run("Synchronizer follows realtime events", func(t *testing.T) {
		viewer := env.Login(t, "member", "member123")
		editor := env.Login(t, "admin", "admin123")

		project, err := editor.CreateProject(ctx, "Live board", nil)
		require.NoError(t, err)

		syncer, err := client.NewSynchronizer(viewer, nil)
		require.NoError(t, err)

		var refreshes atomic.Int32
		syncer.Cache().OnChange(func(int64, []*domain.Task) { refreshes.Add(1) })
		require.NoError(t, syncer.Mount(ctx, project.ID))
		defer syncer.Unmount()
		require.Eventually(t, func() bool { return refreshes.Load() >= 2 }, 5*time.Second, 20*time.Millisecond)

		task, err := editor.CreateTask(ctx, project.ID, client.TaskInput{Title: "Pushed"})
		require.NoError(t, err)
		require.Eventually(t, func() bool { return len(syncer.Tasks()) == 1 }, 5*time.Second, 20*time.Millisecond)

		require.NoError(t, editor.DeleteTask(ctx, task.ID))
		require.Eventually(t, func() bool { return len(syncer.Tasks()) == 0 }, 5*time.Second, 20*time.Millisecond)
	})
}
