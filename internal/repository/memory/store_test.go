package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/taskflow/internal/domain"
)

func seedProject(t *testing.T, s *Store) (*domain.User, *domain.Project) {
	t.Helper()
	ctx := context.Background()

	owner := &domain.User{Username: "alice", PasswordHash: "x", Role: domain.RoleMember}
	require.NoError(t, s.Users().Create(ctx, owner))

	project := &domain.Project{Name: "Board", OwnerID: owner.ID}
	require.NoError(t, s.Projects().Create(ctx, project))
	return owner, project
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Users().Create(ctx, &domain.User{Username: "bob"}))
	err := s.Users().Create(ctx, &domain.User{Username: "bob"})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	u, err := s.Users().GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	_, err = s.Users().GetByID(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestProjectRepository_PopulatesOwner(t *testing.T) {
	s := NewStore()
	owner, project := seedProject(t, s)

	got, err := s.Projects().GetByID(context.Background(), project.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Owner)
	assert.Equal(t, owner.Username, got.Owner.Username)

	_, err = s.Projects().GetByID(context.Background(), project.ID+1)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestTaskRepository_ListScopedToProject(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner, p1 := seedProject(t, s)

	p2 := &domain.Project{Name: "Other", OwnerID: owner.ID}
	require.NoError(t, s.Projects().Create(ctx, p2))

	task := &domain.Task{Title: "A", Status: domain.StatusTodo, Priority: domain.PriorityLow, ProjectID: p1.ID, AssigneeID: &owner.ID}
	require.NoError(t, s.Tasks().Create(ctx, task))
	assert.Equal(t, int64(1), task.Version)
	require.NotNil(t, task.Assignee)
	assert.Equal(t, "alice", task.Assignee.Username)

	inP1, err := s.Tasks().ListByProject(ctx, p1.ID)
	require.NoError(t, err)
	require.Len(t, inP1, 1)
	assert.Equal(t, task.ID, inP1[0].ID)

	inP2, err := s.Tasks().ListByProject(ctx, p2.ID)
	require.NoError(t, err)
	assert.Empty(t, inP2)
}

func TestTaskRepository_UpdateVersionCheck(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, project := seedProject(t, s)

	task := &domain.Task{Title: "A", Status: domain.StatusTodo, Priority: domain.PriorityLow, ProjectID: project.ID}
	require.NoError(t, s.Tasks().Create(ctx, task))

	status := domain.StatusInProgress
	updated, err := s.Tasks().Update(ctx, task.ID, &domain.TaskPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	stale := int64(1)
	_, err = s.Tasks().Update(ctx, task.ID, &domain.TaskPatch{Status: &status, ExpectedVersion: &stale})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	current := int64(2)
	done := domain.StatusDone
	updated, err = s.Tasks().Update(ctx, task.ID, &domain.TaskPatch{Status: &done, ExpectedVersion: &current})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, updated.Status)
}

func TestTaskRepository_DeleteAndStats(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, project := seedProject(t, s)

	for _, p := range []domain.TaskPriority{domain.PriorityHigh, domain.PriorityHigh, domain.PriorityLow} {
		require.NoError(t, s.Tasks().Create(ctx, &domain.Task{Title: "t", Status: domain.StatusTodo, Priority: p, ProjectID: project.ID}))
	}

	stats, err := s.Tasks().StatsByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalTasks)
	assert.Equal(t, 2, stats.ByPriority[domain.PriorityHigh])
	assert.Equal(t, 0, stats.ByStatus[domain.StatusDone])
	assert.Equal(t, 3, stats.Unassigned)

	require.NoError(t, s.Tasks().Delete(ctx, 1))
	assert.ErrorIs(t, s.Tasks().Delete(ctx, 1), domain.ErrTaskNotFound)

	tasks, err := s.Tasks().ListByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestTaskRepository_UnknownAssigneeIsValidationError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, project := seedProject(t, s)

	missing := int64(42)
	err := s.Tasks().Create(ctx, &domain.Task{Title: "A", Status: domain.StatusTodo, Priority: domain.PriorityLow, ProjectID: project.ID, AssigneeID: &missing})
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "assigneeId", validationErr.Field)
	assert.Equal(t, domain.CodeBadRequest, domain.MapErrorToCode(err))

	task := &domain.Task{Title: "B", Status: domain.StatusTodo, Priority: domain.PriorityLow, ProjectID: project.ID}
	require.NoError(t, s.Tasks().Create(ctx, task))

	_, err = s.Tasks().Update(ctx, task.ID, &domain.TaskPatch{AssigneeID: &missing})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "assigneeId references an unknown user", validationErr.Message)
	assert.Equal(t, domain.CodeBadRequest, domain.MapErrorToCode(err))

	got, err := s.Tasks().GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssigneeID)
	assert.Equal(t, int64(1), got.Version)
}
