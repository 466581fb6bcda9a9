package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aidar/taskflow/internal/domain"
)

// Synchronizer keeps the task list of one mounted project in sync:
// any task event for the project invalidates the cache, which refetches.
type Synchronizer struct {
	api        *APIClient
	cache      *TaskCache
	wsURL      string
	socketOpts []SocketOption
	logger     *slog.Logger

	mu        sync.Mutex
	projectID int64
	socket    *Socket
	cancel    context.CancelFunc
}

// NewSynchronizer creates a synchronizer on top of an authenticated APIClient
func NewSynchronizer(api *APIClient, logger *slog.Logger, socketOpts ...SocketOption) (*Synchronizer, error) {
	wsURL, err := WebSocketURL(api.BaseURL())
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		api:        api,
		cache:      NewTaskCache(api),
		wsURL:      wsURL,
		socketOpts: append([]SocketOption{WithLogger(logger)}, socketOpts...),
		logger:     logger,
	}, nil
}

// Cache returns the underlying task cache
func (s *Synchronizer) Cache() *TaskCache {
	return s.cache
}

// Tasks returns the cached tasks of the mounted project
func (s *Synchronizer) Tasks() []*domain.Task {
	s.mu.Lock()
	projectID := s.projectID
	s.mu.Unlock()

	tasks, _ := s.cache.Get(projectID)
	return tasks
}

// Mount loads the project's tasks, opens the socket and joins the room.
// A previously mounted project is unmounted first.
func (s *Synchronizer) Mount(ctx context.Context, projectID int64) error {
	if err := s.Unmount(); err != nil {
		return err
	}

	if err := s.cache.Invalidate(ctx, projectID); err != nil {
		return err
	}

	socket, err := NewSocket(s.wsURL, s.api.Token(), s.socketOpts...)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	refetch := func(eventProjectID int64) {
		if eventProjectID != projectID {
			return
		}
		if err := s.cache.Invalidate(runCtx, projectID); err != nil && runCtx.Err() == nil {
			s.logger.Warn("Task refetch failed", "project_id", projectID, "error", err)
		}
	}
	socket.OnCreated(func(t domain.Task) { refetch(t.ProjectID) })
	socket.OnUpdated(func(t domain.Task) { refetch(t.ProjectID) })
	socket.OnDeleted(func(d domain.TaskDeleted) { refetch(d.ProjectID) })

	// Events published before the join reached the server are never delivered
	socket.OnConnected(func() { refetch(projectID) })

	if err := socket.Join(ctx, projectID); err != nil {
		cancel()
		return fmt.Errorf("failed to join project %d: %w", projectID, err)
	}
	socket.Start(runCtx)

	s.mu.Lock()
	s.projectID = projectID
	s.socket = socket
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Info("Project mounted", "project_id", projectID)
	return nil
}

// Unmount closes the socket of the mounted project, if any
func (s *Synchronizer) Unmount() error {
	s.mu.Lock()
	socket, cancel, projectID := s.socket, s.cancel, s.projectID
	s.socket, s.cancel, s.projectID = nil, nil, 0
	s.mu.Unlock()

	if socket == nil {
		return nil
	}
	cancel()
	err := socket.Close()
	s.cache.Forget(projectID)
	s.logger.Info("Project unmounted", "project_id", projectID)
	return err
}
