package repository

import (
	"context"

	"github.com/aidar/taskflow/internal/domain"
)

// UserRepository определяет методы для работы с данными пользователей
type UserRepository interface {
	// Create создает нового пользователя, заполняя ID и CreatedAt.
	// Возвращает domain.ErrUsernameTaken если имя занято.
	Create(ctx context.Context, user *domain.User) error

	// GetByID получает пользователя по ID
	GetByID(ctx context.Context, userID int64) (*domain.User, error)

	// GetByUsername получает пользователя по имени
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// ProjectRepository определяет методы для работы с данными проектов
type ProjectRepository interface {
	// Create создает новый проект, заполняя ID и CreatedAt
	Create(ctx context.Context, project *domain.Project) error

	// GetByID получает проект по ID вместе с владельцем
	GetByID(ctx context.Context, projectID int64) (*domain.Project, error)

	// List возвращает все проекты вместе с владельцами
	List(ctx context.Context) ([]*domain.Project, error)

	// Exists проверяет существование проекта
	Exists(ctx context.Context, projectID int64) (bool, error)
}

// TaskRepository определяет методы для работы с данными задач
type TaskRepository interface {
	// Create создает новую задачу, заполняя ID, Version и временные метки
	Create(ctx context.Context, task *domain.Task) error

	// GetByID получает задачу по ID вместе с исполнителем
	GetByID(ctx context.Context, taskID int64) (*domain.Task, error)

	// ListByProject возвращает задачи проекта в порядке создания
	ListByProject(ctx context.Context, projectID int64) ([]*domain.Task, error)

	// Update применяет патч одной операцией записи и возвращает обновленную задачу.
	// При заданном patch.ExpectedVersion несовпадение версии дает domain.ErrVersionConflict.
	Update(ctx context.Context, taskID int64, patch *domain.TaskPatch) (*domain.Task, error)

	// Delete удаляет задачу
	Delete(ctx context.Context, taskID int64) error

	// StatsByProject возвращает статистику задач проекта
	StatsByProject(ctx context.Context, projectID int64) (*domain.ProjectStats, error)
}
