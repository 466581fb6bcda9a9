package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/repository"
)

// Seeder fills an empty database with demo users, a project and tasks
type Seeder struct {
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	bcryptCost  int
	logger      *slog.Logger
}

// NewSeeder creates a new Seeder
func NewSeeder(
	userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	bcryptCost int,
	logger *slog.Logger,
) *Seeder {
	return &Seeder{
		userRepo:    userRepo,
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

// Seed creates demo data unless the "admin" user already exists
func (s *Seeder) Seed(ctx context.Context) error {
	_, err := s.userRepo.GetByUsername(ctx, "admin")
	if err == nil {
		s.logger.Info("Seed skipped, admin user exists")
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("failed to check seed state: %w", err)
	}

	s.logger.Info("Seeding database")

	admin, err := s.createUser(ctx, "admin", "admin123", domain.RoleAdmin)
	if err != nil {
		return err
	}
	member, err := s.createUser(ctx, "member", "member123", domain.RoleMember)
	if err != nil {
		return err
	}

	description := "Build the PM system"
	project := &domain.Project{
		Name:        "Internal Tool",
		Description: &description,
		OwnerID:     admin.ID,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return fmt.Errorf("failed to seed project: %w", err)
	}

	tasks := []*domain.Task{
		{Title: "Setup Backend", Status: domain.StatusDone, Priority: domain.PriorityHigh, ProjectID: project.ID, AssigneeID: &admin.ID},
		{Title: "Setup Frontend", Status: domain.StatusInProgress, Priority: domain.PriorityHigh, ProjectID: project.ID, AssigneeID: &member.ID},
	}
	for _, task := range tasks {
		if err := s.taskRepo.Create(ctx, task); err != nil {
			return fmt.Errorf("failed to seed task %q: %w", task.Title, err)
		}
	}

	s.logger.Info("Database seeded", "project_id", project.ID, "tasks", len(tasks))
	return nil
}

func (s *Seeder) createUser(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{Username: username, PasswordHash: hash, Role: role}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to seed user %q: %w", username, err)
	}
	return user, nil
}
