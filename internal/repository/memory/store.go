// Package memory реализует репозитории в памяти процесса.
// Используется в unit-тестах и при STORAGE_DRIVER=memory.
package memory

import (
	"sync"
	"time"

	"github.com/aidar/taskflow/internal/domain"
)

// Store хранит пользователей, проекты и задачи в памяти.
// Все репозитории одного Store разделяют общий мьютекс, поэтому каждая операция атомарна.
type Store struct {
	mu sync.RWMutex

	users    map[int64]*domain.User
	projects map[int64]*domain.Project
	tasks    map[int64]*domain.Task

	nextUserID    int64
	nextProjectID int64
	nextTaskID    int64

	now func() time.Time
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		users:    make(map[int64]*domain.User),
		projects: make(map[int64]*domain.Project),
		tasks:    make(map[int64]*domain.Task),
		now:      time.Now,
	}
}

// Users возвращает репозиторий пользователей
func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

// Projects возвращает репозиторий проектов
func (s *Store) Projects() *ProjectRepository {
	return &ProjectRepository{store: s}
}

// Tasks возвращает репозиторий задач
func (s *Store) Tasks() *TaskRepository {
	return &TaskRepository{store: s}
}

// userRef возвращает краткую информацию о пользователе; вызывается под блокировкой
func (s *Store) userRef(userID int64) *domain.UserRef {
	if u, ok := s.users[userID]; ok {
		return u.Ref()
	}
	return nil
}
