package domain

import "errors"

// Доменные ошибки
var (
	// ErrNotFound возвращается когда ресурс не найден
	ErrNotFound = errors.New("resource not found")

	// ErrUserNotFound возвращается когда пользователь не найден
	ErrUserNotFound = errors.New("user not found")

	// ErrProjectNotFound возвращается когда проект не найден
	ErrProjectNotFound = errors.New("project not found")

	// ErrTaskNotFound возвращается когда задача не найдена
	ErrTaskNotFound = errors.New("task not found")

	// ErrUsernameTaken возвращается при регистрации с уже занятым именем
	ErrUsernameTaken = errors.New("username already exists")

	// ErrVersionConflict возвращается когда задача изменена конкурентно
	ErrVersionConflict = errors.New("task was modified concurrently")

	// ErrUnauthorized возвращается при неудачной аутентификации
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken возвращается когда JWT токен невалиден или истек
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidCredentials возвращается при неверной паре логин/пароль
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError описывает первое нарушение правил валидации входных данных
type ValidationError struct {
	Field   string
	Message string
}

// Error реализует интерфейс error
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError создает ошибку валидации для поля
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewUnknownAssigneeError возвращается когда assigneeId ссылается на несуществующего пользователя
func NewUnknownAssigneeError() *ValidationError {
	return NewValidationError("assigneeId", "assigneeId references an unknown user")
}

// ErrorCode представляет коды ошибок API
type ErrorCode string

// Коды ошибок API
const (
	CodeBadRequest      ErrorCode = "BAD_REQUEST"      // Ошибка валидации
	CodeConflict        ErrorCode = "CONFLICT"         // Имя пользователя занято
	CodeVersionConflict ErrorCode = "VERSION_CONFLICT" // Конкурентное изменение задачи
	CodeNotFound        ErrorCode = "NOT_FOUND"        // Ресурс не найден
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"     // Нет или невалидный токен
	CodeInternal        ErrorCode = "INTERNAL_ERROR"   // Непредвиденная ошибка
)

// MapErrorToCode преобразует доменные ошибки в коды ошибок API
func MapErrorToCode(err error) ErrorCode {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return CodeBadRequest
	case errors.Is(err, ErrUsernameTaken):
		return CodeConflict
	case errors.Is(err, ErrVersionConflict):
		return CodeVersionConflict
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrProjectNotFound), errors.Is(err, ErrTaskNotFound):
		return CodeNotFound
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrInvalidCredentials):
		return CodeUnauthorized
	default:
		return CodeInternal
	}
}
