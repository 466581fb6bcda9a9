package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/repository"
)

// EventPublisher delivers task events to viewers of a project
type EventPublisher interface {
	Publish(projectID int64, event domain.TaskEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(int64, domain.TaskEvent) {}

// CreateTaskInput holds the fields accepted when creating a task
type CreateTaskInput struct {
	Title       string
	Description *string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
	AssigneeID  *int64
}

// TaskService handles business logic for tasks.
// Every successful mutation is published to the project's room after it is stored.
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	publisher   EventPublisher
}

// NewTaskService creates a new TaskService. A nil publisher disables events.
func NewTaskService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	publisher EventPublisher,
) *TaskService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		publisher:   publisher,
	}
}

// ListByProject returns tasks of a project
func (s *TaskService) ListByProject(ctx context.Context, projectID int64) ([]*domain.Task, error) {
	return s.taskRepo.ListByProject(ctx, projectID)
}

// GetByID retrieves a task by ID
func (s *TaskService) GetByID(ctx context.Context, taskID int64) (*domain.Task, error) {
	return s.taskRepo.GetByID(ctx, taskID)
}

// Create creates a task in a project and publishes task_created
func (s *TaskService) Create(ctx context.Context, projectID int64, in CreateTaskInput) (*domain.Task, error) {
	exists, err := s.projectRepo.Exists(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		return nil, domain.ErrProjectNotFound
	}

	if err := s.checkAssignee(ctx, in.AssigneeID); err != nil {
		return nil, err
	}

	task := &domain.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		ProjectID:   projectID,
		AssigneeID:  in.AssigneeID,
	}
	if task.Status == "" {
		task.Status = domain.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.publisher.Publish(task.ProjectID, domain.NewTaskCreated(task))
	return task, nil
}

// Update applies a partial update and publishes task_updated.
// An empty patch returns the current task without publishing.
func (s *TaskService) Update(ctx context.Context, taskID int64, patch *domain.TaskPatch) (*domain.Task, error) {
	if patch.IsEmpty() {
		return s.taskRepo.GetByID(ctx, taskID)
	}

	if !patch.ClearAssignee {
		if err := s.checkAssignee(ctx, patch.AssigneeID); err != nil {
			return nil, err
		}
	}

	task, err := s.taskRepo.Update(ctx, taskID, patch)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) || errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.publisher.Publish(task.ProjectID, domain.NewTaskUpdated(task))
	return task, nil
}

// Delete removes a task and publishes task_deleted to the task's project room.
// The project is read before deletion so the event is scoped like create/update.
func (s *TaskService) Delete(ctx context.Context, taskID int64) error {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.publisher.Publish(task.ProjectID, domain.NewTaskDeleted(task.ID, task.ProjectID))
	return nil
}

// checkAssignee verifies that an assignee references an existing user
func (s *TaskService) checkAssignee(ctx context.Context, assigneeID *int64) error {
	if assigneeID == nil {
		return nil
	}

	if _, err := s.userRepo.GetByID(ctx, *assigneeID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.NewUnknownAssigneeError()
		}
		return fmt.Errorf("failed to check assignee: %w", err)
	}
	return nil
}
