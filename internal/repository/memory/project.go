package memory

import (
	"context"
	"sort"

	"github.com/aidar/taskflow/internal/domain"
)

// ProjectRepository реализует repository.ProjectRepository в памяти
type ProjectRepository struct {
	store *Store
}

// Create создает новый проект
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[project.OwnerID]; !ok {
		return domain.ErrUserNotFound
	}

	r.store.nextProjectID++
	project.ID = r.store.nextProjectID
	project.CreatedAt = r.store.now()
	project.Owner = r.store.userRef(project.OwnerID)

	stored := *project
	stored.Owner = nil
	r.store.projects[project.ID] = &stored
	return nil
}

// GetByID получает проект по ID вместе с владельцем
func (r *ProjectRepository) GetByID(ctx context.Context, projectID int64) (*domain.Project, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	project, ok := r.store.projects[projectID]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return r.populate(project), nil
}

// List возвращает все проекты в порядке создания
func (r *ProjectRepository) List(ctx context.Context) ([]*domain.Project, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	projects := make([]*domain.Project, 0, len(r.store.projects))
	for _, project := range r.store.projects {
		projects = append(projects, r.populate(project))
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

// Exists проверяет существование проекта
func (r *ProjectRepository) Exists(ctx context.Context, projectID int64) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.store.projects[projectID]
	return ok, nil
}

func (r *ProjectRepository) populate(project *domain.Project) *domain.Project {
	out := *project
	out.Owner = r.store.userRef(project.OwnerID)
	return &out
}
