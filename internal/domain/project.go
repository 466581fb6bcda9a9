package domain

import "time"

// Project представляет рабочее пространство с задачами.
// Владелец задается при создании и больше не меняется.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	OwnerID     int64     `json:"ownerId"`
	Owner       *UserRef  `json:"owner,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProjectStats представляет агрегированную статистику задач проекта
type ProjectStats struct {
	ProjectID  int64                `json:"projectId"`
	TotalTasks int                  `json:"totalTasks"`
	ByStatus   map[TaskStatus]int   `json:"byStatus"`
	ByPriority map[TaskPriority]int `json:"byPriority"`
	Unassigned int                  `json:"unassigned"`
}

// NewProjectStats возвращает статистику с нулевыми счетчиками по всем статусам и приоритетам
func NewProjectStats(projectID int64) *ProjectStats {
	stats := &ProjectStats{
		ProjectID:  projectID,
		ByStatus:   make(map[TaskStatus]int, len(TaskStatuses)),
		ByPriority: make(map[TaskPriority]int, len(TaskPriorities)),
	}
	for _, s := range TaskStatuses {
		stats.ByStatus[s] = 0
	}
	for _, p := range TaskPriorities {
		stats.ByPriority[p] = 0
	}
	return stats
}
