package memory

import (
	"context"
	"sort"

	"github.com/aidar/taskflow/internal/domain"
)

// TaskRepository реализует repository.TaskRepository в памяти
type TaskRepository struct {
	store *Store
}

// Create создает новую задачу
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.projects[task.ProjectID]; !ok {
		return domain.ErrProjectNotFound
	}
	if task.AssigneeID != nil {
		if _, ok := r.store.users[*task.AssigneeID]; !ok {
			return domain.NewUnknownAssigneeError()
		}
	}

	r.store.nextTaskID++
	now := r.store.now()
	task.ID = r.store.nextTaskID
	task.Version = 1
	task.CreatedAt = now
	task.UpdatedAt = now

	stored := *task
	stored.Assignee = nil
	r.store.tasks[task.ID] = &stored

	task.Assignee = r.assignee(&stored)
	return nil
}

// GetByID получает задачу по ID вместе с исполнителем
func (r *TaskRepository) GetByID(ctx context.Context, taskID int64) (*domain.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	task, ok := r.store.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return r.populate(task), nil
}

// ListByProject возвращает задачи проекта в порядке создания
func (r *TaskRepository) ListByProject(ctx context.Context, projectID int64) ([]*domain.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	tasks := make([]*domain.Task, 0)
	for _, task := range r.store.tasks {
		if task.ProjectID == projectID {
			tasks = append(tasks, r.populate(task))
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// Update применяет патч к задаче
func (r *TaskRepository) Update(ctx context.Context, taskID int64, patch *domain.TaskPatch) (*domain.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	task, ok := r.store.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if patch.ExpectedVersion != nil && *patch.ExpectedVersion != task.Version {
		return nil, domain.ErrVersionConflict
	}
	if !patch.ClearAssignee && patch.AssigneeID != nil {
		if _, ok := r.store.users[*patch.AssigneeID]; !ok {
			return nil, domain.NewUnknownAssigneeError()
		}
	}

	updated := *task
	updated.Apply(patch, r.store.now())
	r.store.tasks[taskID] = &updated

	return r.populate(&updated), nil
}

// Delete удаляет задачу
func (r *TaskRepository) Delete(ctx context.Context, taskID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.tasks[taskID]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.store.tasks, taskID)
	return nil
}

// StatsByProject возвращает статистику задач проекта
func (r *TaskRepository) StatsByProject(ctx context.Context, projectID int64) (*domain.ProjectStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stats := domain.NewProjectStats(projectID)
	for _, task := range r.store.tasks {
		if task.ProjectID != projectID {
			continue
		}
		stats.TotalTasks++
		stats.ByStatus[task.Status]++
		stats.ByPriority[task.Priority]++
		if task.AssigneeID == nil {
			stats.Unassigned++
		}
	}
	return stats, nil
}

func (r *TaskRepository) populate(task *domain.Task) *domain.Task {
	out := *task
	out.Assignee = r.assignee(task)
	return &out
}

func (r *TaskRepository) assignee(task *domain.Task) *domain.UserRef {
	if task.AssigneeID == nil {
		return nil
	}
	return r.store.userRef(*task.AssigneeID)
}
