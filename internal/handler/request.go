package handler

import (
	"encoding/json"
	"strings"

	"github.com/aidar/taskflow/internal/domain"
)

// maxPasswordBytes ограничение bcrypt на длину пароля
const maxPasswordBytes = 72

// RegisterRequest представляет тело запроса на регистрацию
type RegisterRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role,omitempty"`
}

// Validate проверяет запрос; возвращается первое нарушение
func (r *RegisterRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return domain.NewValidationError("username", "username is required")
	}
	if r.Password == "" {
		return domain.NewValidationError("password", "password is required")
	}
	if len(r.Password) > maxPasswordBytes {
		return domain.NewValidationError("password", "password must be at most 72 bytes")
	}
	if r.Role != "" && !r.Role.IsValid() {
		return domain.NewValidationError("role", "role must be one of: admin, member")
	}
	return nil
}

// LoginRequest представляет тело запроса на логин
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate проверяет запрос; возвращается первое нарушение
func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return domain.NewValidationError("username", "username is required")
	}
	if r.Password == "" {
		return domain.NewValidationError("password", "password is required")
	}
	return nil
}

// CreateProjectRequest представляет тело запроса на создание проекта
type CreateProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// Validate проверяет запрос
func (r *CreateProjectRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return domain.NewValidationError("name", "name is required")
	}
	return nil
}

// CreateTaskRequest представляет тело запроса на создание задачи
type CreateTaskRequest struct {
	Title       string              `json:"title"`
	Description *string             `json:"description,omitempty"`
	Status      domain.TaskStatus   `json:"status,omitempty"`
	Priority    domain.TaskPriority `json:"priority,omitempty"`
	AssigneeID  *int64              `json:"assigneeId,omitempty"`
}

// Validate проверяет запрос; возвращается первое нарушение
func (r *CreateTaskRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return domain.NewValidationError("title", "title is required")
	}
	if r.Status != "" && !r.Status.IsValid() {
		return domain.NewValidationError("status", "status must be one of: todo, in_progress, done")
	}
	if r.Priority != "" && !r.Priority.IsValid() {
		return domain.NewValidationError("priority", "priority must be one of: low, medium, high")
	}
	return nil
}

// UpdateTaskRequest представляет тело частичного обновления задачи
type UpdateTaskRequest struct {
	Title       *string              `json:"title,omitempty"`
	Description *string              `json:"description,omitempty"`
	Status      *domain.TaskStatus   `json:"status,omitempty"`
	Priority    *domain.TaskPriority `json:"priority,omitempty"`
	AssigneeID  nullableID           `json:"assigneeId"`
	Version     *int64               `json:"version,omitempty"`
}

// Validate проверяет запрос; возвращается первое нарушение
func (r *UpdateTaskRequest) Validate() error {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return domain.NewValidationError("title", "title must not be empty")
		}
		r.Title = &title
	}
	if r.Status != nil && !r.Status.IsValid() {
		return domain.NewValidationError("status", "status must be one of: todo, in_progress, done")
	}
	if r.Priority != nil && !r.Priority.IsValid() {
		return domain.NewValidationError("priority", "priority must be one of: low, medium, high")
	}
	return nil
}

// Patch преобразует запрос в доменный патч
func (r *UpdateTaskRequest) Patch() *domain.TaskPatch {
	return &domain.TaskPatch{
		Title:           r.Title,
		Description:     r.Description,
		Status:          r.Status,
		Priority:        r.Priority,
		AssigneeID:      r.AssigneeID.Value,
		ClearAssignee:   r.AssigneeID.Set && r.AssigneeID.Value == nil,
		ExpectedVersion: r.Version,
	}
}

// nullableID различает отсутствующее поле и явный null
type nullableID struct {
	Set   bool
	Value *int64
}

// UnmarshalJSON реализует json.Unmarshaler
func (n *nullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}
