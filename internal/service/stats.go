package service

import (
	"context"
	"fmt"

	"github.com/aidar/taskflow/internal/domain"
)

// Stats returns task statistics for a project
func (s *ProjectService) Stats(ctx context.Context, projectID int64) (*domain.ProjectStats, error) {
	exists, err := s.projectRepo.Exists(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		return nil, domain.ErrProjectNotFound
	}

	return s.taskRepo.StatsByProject(ctx, projectID)
}
