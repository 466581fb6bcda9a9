package client

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/taskflow/internal/domain"
)

func hasTask(tasks []*domain.Task, title string, status domain.TaskStatus) bool {
	for _, task := range tasks {
		if task.Title == title && task.Status == status {
			return true
		}
	}
	return false
}

func TestSynchronizer_FollowsMountedProject(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	viewerAPI := loginAdmin(t, server)
	editor := loginAdmin(t, server)

	project, err := editor.CreateProject(ctx, "Live", nil)
	require.NoError(t, err)
	other, err := editor.CreateProject(ctx, "Elsewhere", nil)
	require.NoError(t, err)

	syncer, err := NewSynchronizer(viewerAPI, quietLogger(), WithBackOff(fastBackOff))
	require.NoError(t, err)

	var refreshes atomic.Int32
	syncer.Cache().OnChange(func(int64, []*domain.Task) { refreshes.Add(1) })

	require.NoError(t, syncer.Mount(ctx, project.ID))
	defer syncer.Unmount()

	// Второе обновление приходит после подключения сокета, join к этому моменту уже отправлен
	require.Eventually(t, func() bool { return refreshes.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)

	assert.Empty(t, syncer.Tasks())

	task, err := editor.CreateTask(ctx, project.ID, TaskInput{Title: "Realtime"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return hasTask(syncer.Tasks(), "Realtime", domain.StatusTodo)
	}, 3*time.Second, 20*time.Millisecond)

	done := domain.StatusDone
	_, err = editor.UpdateTask(ctx, task.ID, TaskUpdate{Status: &done})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return hasTask(syncer.Tasks(), "Realtime", domain.StatusDone)
	}, 3*time.Second, 20*time.Millisecond)

	_, err = editor.CreateTask(ctx, other.ID, TaskInput{Title: "Not mine"})
	require.NoError(t, err)

	require.NoError(t, editor.DeleteTask(ctx, task.ID))
	require.Eventually(t, func() bool {
		return len(syncer.Tasks()) == 0
	}, 3*time.Second, 20*time.Millisecond)
}

func TestSynchronizer_MountSwitchesProject(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	api := loginAdmin(t, server)

	first, err := api.CreateProject(ctx, "First", nil)
	require.NoError(t, err)
	second, err := api.CreateProject(ctx, "Second", nil)
	require.NoError(t, err)
	_, err = api.CreateTask(ctx, second.ID, TaskInput{Title: "In second"})
	require.NoError(t, err)

	syncer, err := NewSynchronizer(api, quietLogger(), WithBackOff(fastBackOff))
	require.NoError(t, err)

	require.NoError(t, syncer.Mount(ctx, first.ID))
	assert.Empty(t, syncer.Tasks())

	require.NoError(t, syncer.Mount(ctx, second.ID))
	require.Len(t, syncer.Tasks(), 1)
	_, cached := syncer.Cache().Get(first.ID)
	assert.False(t, cached, "unmounted project must be dropped from the cache")

	require.NoError(t, syncer.Unmount())
	assert.Nil(t, syncer.Tasks())
	require.NoError(t, syncer.Unmount())
}
