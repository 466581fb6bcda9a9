package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/taskflow/internal/domain"
)

// taskColumns перечисляет колонки задачи с именем исполнителя (алиасы t и a)
const taskColumns = `
	t.id, t.title, t.description, t.status, t.priority, t.project_id,
	t.assignee_id, t.version, t.created_at, t.updated_at, a.username
`

// TaskRepository реализует repository.TaskRepository для PostgreSQL
type TaskRepository struct {
	db *pgxpool.Pool
}

// NewTaskRepository создает новый экземпляр TaskRepository
func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create создает новую задачу
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	query := `
		WITH t AS (
			INSERT INTO tasks (title, description, status, priority, project_id, assignee_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING *
		)
		SELECT ` + taskColumns + `
		FROM t
		LEFT JOIN users a ON a.id = t.assignee_id
	`

	created, err := scanTask(r.db.QueryRow(ctx, query,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.ProjectID,
		task.AssigneeID,
	))
	if err != nil {
		return mapTaskWriteError(err)
	}

	*task = *created
	return nil
}

// GetByID получает задачу по ID вместе с исполнителем
func (r *TaskRepository) GetByID(ctx context.Context, taskID int64) (*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks t
		LEFT JOIN users a ON a.id = t.assignee_id
		WHERE t.id = $1
	`

	task, err := scanTask(r.db.QueryRow(ctx, query, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	return task, nil
}

// ListByProject возвращает задачи проекта в порядке создания
func (r *TaskRepository) ListByProject(ctx context.Context, projectID int64) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks t
		LEFT JOIN users a ON a.id = t.assignee_id
		WHERE t.project_id = $1
		ORDER BY t.id
	`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// Update применяет патч одним UPDATE.
// Без ExpectedVersion действует last-write-wins.
func (r *TaskRepository) Update(ctx context.Context, taskID int64, patch *domain.TaskPatch) (*domain.Task, error) {
	query := `
		WITH t AS (
			UPDATE tasks
			SET title       = COALESCE($2, title),
			    description = COALESCE($3, description),
			    status      = COALESCE($4, status),
			    priority    = COALESCE($5, priority),
			    assignee_id = CASE WHEN $6::boolean THEN NULL ELSE COALESCE($7, assignee_id) END,
			    version     = version + 1,
			    updated_at  = NOW()
			WHERE id = $1 AND ($8::bigint IS NULL OR version = $8)
			RETURNING *
		)
		SELECT ` + taskColumns + `
		FROM t
		LEFT JOIN users a ON a.id = t.assignee_id
	`

	task, err := scanTask(r.db.QueryRow(ctx, query,
		taskID,
		patch.Title,
		patch.Description,
		optionalString(patch.Status),
		optionalString(patch.Priority),
		patch.ClearAssignee,
		patch.AssigneeID,
		patch.ExpectedVersion,
	))
	if err == nil {
		return task, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapTaskWriteError(err)
	}

	// Строка не обновлена: либо задачи нет, либо версия не совпала
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, taskID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrTaskNotFound
	}
	return nil, domain.ErrVersionConflict
}

// Delete удаляет задачу
func (r *TaskRepository) Delete(ctx context.Context, taskID int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}

// StatsByProject возвращает статистику задач проекта
func (r *TaskRepository) StatsByProject(ctx context.Context, projectID int64) (*domain.ProjectStats, error) {
	query := `
		SELECT
			status,
			priority,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE assignee_id IS NULL) AS unassigned
		FROM tasks
		WHERE project_id = $1
		GROUP BY status, priority
	`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := domain.NewProjectStats(projectID)
	for rows.Next() {
		var (
			status, priority  string
			total, unassigned int
		)
		if err := rows.Scan(&status, &priority, &total, &unassigned); err != nil {
			return nil, err
		}
		stats.TotalTasks += total
		stats.Unassigned += unassigned
		stats.ByStatus[domain.TaskStatus(status)] += total
		stats.ByPriority[domain.TaskPriority(priority)] += total
	}

	return stats, rows.Err()
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task             domain.Task
		status, priority string
		assigneeName     *string
	)
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&task.ProjectID,
		&task.AssigneeID,
		&task.Version,
		&task.CreatedAt,
		&task.UpdatedAt,
		&assigneeName,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	if task.AssigneeID != nil && assigneeName != nil {
		task.Assignee = &domain.UserRef{ID: *task.AssigneeID, Username: *assigneeName}
	}
	return &task, nil
}

// mapTaskWriteError преобразует нарушения внешних ключей в доменные ошибки
func mapTaskWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		if pgErr.ConstraintName == "tasks_project_id_fkey" {
			return domain.ErrProjectNotFound
		}
		return domain.NewUnknownAssigneeError()
	}
	return err
}

func optionalString[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
