package handler

import (
	"net/http"

	"github.com/aidar/taskflow/internal/service"
)

// StatsHandler обрабатывает эндпоинты статистики
type StatsHandler struct {
	projectService *service.ProjectService
}

// NewStatsHandler создает новый StatsHandler
func NewStatsHandler(projectService *service.ProjectService) *StatsHandler {
	return &StatsHandler{
		projectService: projectService,
	}
}

// GetProjectStats обрабатывает GET /api/projects/{projectId}/stats
func (h *StatsHandler) GetProjectStats(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		HandleError(w, r, err)
		return
	}

	stats, err := h.projectService.Stats(r.Context(), projectID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, stats)
}
