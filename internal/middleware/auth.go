package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/aidar/taskflow/internal/domain"
)

// ContextKey это кастомный тип для ключей контекста
type ContextKey string

// IdentityKey ключ контекста для идентичности пользователя
const IdentityKey ContextKey = "identity"

// TokenVerifier проверяет токен и возвращает идентичность пользователя
type TokenVerifier interface {
	ValidateToken(token string) (*domain.Identity, error)
}

// AuthMiddleware создает middleware для валидации JWT токенов
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Получаем токен из заголовка Authorization
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				RespondUnauthorized(w, r, "missing authorization header")
				return
			}

			token, ok := BearerToken(authHeader)
			if !ok {
				RespondUnauthorized(w, r, "invalid authorization header format")
				return
			}

			identity, err := verifier.ValidateToken(token)
			if err != nil {
				RespondUnauthorized(w, r, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *identity)))
		})
	}
}

// BearerToken извлекает токен из значения заголовка "Bearer <token>"
func BearerToken(authHeader string) (string, bool) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// WithIdentity добавляет идентичность пользователя в контекст
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// IdentityFromContext извлекает идентичность пользователя из контекста
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(domain.Identity)
	return identity, ok
}

// RespondUnauthorized отвечает 401 в общем формате ошибок API
func RespondUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]map[string]string{
		"error": {
			"code":    string(domain.CodeUnauthorized),
			"message": message,
		},
	})
}
