package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/taskflow/internal/domain"
)

const pgForeignKeyViolation = "23503"

// ProjectRepository реализует repository.ProjectRepository для PostgreSQL
type ProjectRepository struct {
	db *pgxpool.Pool
}

// NewProjectRepository создает новый экземпляр ProjectRepository
func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create создает новый проект
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	query := `
		WITH inserted AS (
			INSERT INTO projects (name, description, owner_id)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, owner_id
		)
		SELECT i.id, i.created_at, u.username
		FROM inserted i
		JOIN users u ON u.id = i.owner_id
	`

	var ownerName string
	err := r.db.QueryRow(ctx, query, project.Name, project.Description, project.OwnerID).
		Scan(&project.ID, &project.CreatedAt, &ownerName)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return domain.ErrUserNotFound
		}
		return err
	}

	project.Owner = &domain.UserRef{ID: project.OwnerID, Username: ownerName}
	return nil
}

// GetByID получает проект по ID вместе с владельцем
func (r *ProjectRepository) GetByID(ctx context.Context, projectID int64) (*domain.Project, error) {
	query := `
		SELECT p.id, p.name, p.description, p.owner_id, p.created_at, u.username
		FROM projects p
		JOIN users u ON u.id = p.owner_id
		WHERE p.id = $1
	`

	project, err := scanProject(r.db.QueryRow(ctx, query, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}

	return project, nil
}

// List возвращает все проекты вместе с владельцами
func (r *ProjectRepository) List(ctx context.Context) ([]*domain.Project, error) {
	query := `
		SELECT p.id, p.name, p.description, p.owner_id, p.created_at, u.username
		FROM projects p
		JOIN users u ON u.id = p.owner_id
		ORDER BY p.id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]*domain.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}

	return projects, rows.Err()
}

// Exists проверяет существование проекта
func (r *ProjectRepository) Exists(ctx context.Context, projectID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, projectID).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		project   domain.Project
		ownerName string
	)
	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.OwnerID,
		&project.CreatedAt,
		&ownerName,
	)
	if err != nil {
		return nil, err
	}

	project.Owner = &domain.UserRef{ID: project.OwnerID, Username: ownerName}
	return &project, nil
}
