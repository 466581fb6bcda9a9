package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/aidar/taskflow/internal/domain"
)

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail содержит код и описание ошибки
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithError отправляет ответ с ошибкой
func RespondWithError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	render.Status(r, statusCode)
	render.JSON(w, r, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// HandleError преобразует доменные ошибки в HTTP ответы.
// Непредвиденные ошибки логируются, клиент получает общее сообщение.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.MapErrorToCode(err)

	switch code {
	case domain.CodeBadRequest:
		var validationErr *domain.ValidationError
		message := "invalid request"
		if errors.As(err, &validationErr) {
			message = validationErr.Message
		}
		RespondWithError(w, r, http.StatusBadRequest, string(code), message)
	case domain.CodeConflict:
		RespondWithError(w, r, http.StatusBadRequest, string(code), "username already exists")
	case domain.CodeVersionConflict:
		RespondWithError(w, r, http.StatusConflict, string(code), "task was modified by another request")
	case domain.CodeNotFound:
		RespondWithError(w, r, http.StatusNotFound, string(code), notFoundMessage(err))
	case domain.CodeUnauthorized:
		message := "unauthorized"
		if errors.Is(err, domain.ErrInvalidCredentials) {
			message = "invalid credentials"
		}
		RespondWithError(w, r, http.StatusUnauthorized, string(code), message)
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		RespondWithError(w, r, http.StatusInternalServerError, string(domain.CodeInternal), "internal server error")
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrProjectNotFound):
		return "project not found"
	case errors.Is(err, domain.ErrTaskNotFound):
		return "task not found"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user not found"
	default:
		return "resource not found"
	}
}
