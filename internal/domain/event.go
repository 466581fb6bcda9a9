package domain

// EventKind представляет тип события realtime канала
type EventKind string

// События realtime канала
const (
	// EventJoinProject отправляется клиентом для подписки на комнату проекта
	EventJoinProject EventKind = "join_project"

	// EventTaskCreated рассылается после создания задачи (payload: Task)
	EventTaskCreated EventKind = "task_created"

	// EventTaskUpdated рассылается после обновления задачи (payload: Task)
	EventTaskUpdated EventKind = "task_updated"

	// EventTaskDeleted рассылается после удаления задачи (payload: TaskDeleted)
	EventTaskDeleted EventKind = "task_deleted"
)

// TaskDeleted представляет payload события task_deleted
type TaskDeleted struct {
	ID        int64 `json:"id"`
	ProjectID int64 `json:"projectId"`
}

// TaskEvent представляет событие об изменении задачи.
// Для Created и Updated заполнено поле Task, для Deleted поле Deleted.
type TaskEvent struct {
	Kind    EventKind
	Task    *Task
	Deleted *TaskDeleted
}

// NewTaskCreated создает событие task_created
func NewTaskCreated(task *Task) TaskEvent {
	return TaskEvent{Kind: EventTaskCreated, Task: task}
}

// NewTaskUpdated создает событие task_updated
func NewTaskUpdated(task *Task) TaskEvent {
	return TaskEvent{Kind: EventTaskUpdated, Task: task}
}

// NewTaskDeleted создает событие task_deleted
func NewTaskDeleted(taskID, projectID int64) TaskEvent {
	return TaskEvent{Kind: EventTaskDeleted, Deleted: &TaskDeleted{ID: taskID, ProjectID: projectID}}
}

// Payload возвращает данные события для сериализации
func (e TaskEvent) Payload() any {
	if e.Kind == EventTaskDeleted {
		return e.Deleted
	}
	return e.Task
}
