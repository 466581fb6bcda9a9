package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/aidar/taskflow/internal/domain"
)

// TaskLister fetches the current task list of a project
type TaskLister interface {
	ListTasks(ctx context.Context, projectID int64) ([]*domain.Task, error)
}

// TaskCache keeps the task list per project. Events never patch the cache:
// Invalidate refetches the whole list, so duplicated or reordered events
// converge to the server state.
type TaskCache struct {
	lister TaskLister

	mu        sync.Mutex
	tasks     map[int64][]*domain.Task
	issued    map[int64]uint64 // последний выданный номер запроса
	applied   map[int64]uint64 // номер запроса, чей результат в кэше
	listeners []func(projectID int64, tasks []*domain.Task)
}

// NewTaskCache creates an empty cache
func NewTaskCache(lister TaskLister) *TaskCache {
	return &TaskCache{
		lister:  lister,
		tasks:   make(map[int64][]*domain.Task),
		issued:  make(map[int64]uint64),
		applied: make(map[int64]uint64),
	}
}

// OnChange registers a listener called with every refetched list
func (c *TaskCache) OnChange(fn func(projectID int64, tasks []*domain.Task)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Get returns the cached list of a project
func (c *TaskCache) Get(projectID int64) ([]*domain.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tasks, ok := c.tasks[projectID]
	return tasks, ok
}

// Invalidate refetches the project's list. A response that arrives after
// a newer one was applied is discarded.
func (c *TaskCache) Invalidate(ctx context.Context, projectID int64) error {
	c.mu.Lock()
	c.issued[projectID]++
	seq := c.issued[projectID]
	c.mu.Unlock()

	tasks, err := c.lister.ListTasks(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to refetch tasks of project %d: %w", projectID, err)
	}

	c.mu.Lock()
	if seq < c.applied[projectID] {
		c.mu.Unlock()
		return nil
	}
	c.applied[projectID] = seq
	c.tasks[projectID] = tasks
	listeners := append([]func(int64, []*domain.Task){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(projectID, tasks)
	}
	return nil
}

// Forget drops the cached list of a project
func (c *TaskCache) Forget(projectID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tasks, projectID)
}
