package domain

import "time"

// TaskStatus представляет статус задачи
type TaskStatus string

// Возможные статусы задачи
const (
	StatusTodo       TaskStatus = "todo"        // Задача создана (по умолчанию)
	StatusInProgress TaskStatus = "in_progress" // Задача в работе
	StatusDone       TaskStatus = "done"        // Задача выполнена
)

// TaskStatuses перечисляет все допустимые статусы в порядке жизненного цикла
var TaskStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusDone}

// IsValid проверяет, что статус входит в допустимый набор
func (s TaskStatus) IsValid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// TaskPriority представляет приоритет задачи
type TaskPriority string

// Возможные приоритеты задачи
const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium" // По умолчанию
	PriorityHigh   TaskPriority = "high"
)

// TaskPriorities перечисляет все допустимые приоритеты
var TaskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh}

// IsValid проверяет, что приоритет входит в допустимый набор
func (p TaskPriority) IsValid() bool {
	for _, v := range TaskPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// Task представляет задачу внутри проекта.
// ProjectID фиксируется при создании: задачи не переносятся между проектами.
type Task struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	ProjectID   int64        `json:"projectId"`
	AssigneeID  *int64       `json:"assigneeId"`
	Assignee    *UserRef     `json:"assignee,omitempty"`
	Version     int64        `json:"version"` // Увеличивается при каждом обновлении
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// TaskPatch описывает частичное обновление задачи.
// nil означает "поле не меняется".
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *TaskPriority
	AssigneeID  *int64
	// ClearAssignee снимает исполнителя (в JSON передается "assigneeId": null)
	ClearAssignee bool
	// ExpectedVersion включает проверку версии (compare-and-swap)
	ExpectedVersion *int64
}

// IsEmpty возвращает true если патч не меняет ни одного поля
func (p *TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.AssigneeID == nil && !p.ClearAssignee
}

// Apply применяет патч к задаче и увеличивает версию.
// Проверку ExpectedVersion выполняет хранилище.
func (t *Task) Apply(p *TaskPatch, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ClearAssignee {
		t.AssigneeID = nil
		t.Assignee = nil
	} else if p.AssigneeID != nil {
		id := *p.AssigneeID
		t.AssigneeID = &id
		t.Assignee = nil
	}
	t.Version++
	t.UpdatedAt = now
}
