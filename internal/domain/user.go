package domain

import "time"

// Role представляет роль пользователя в системе
type Role string

// Возможные роли пользователя
const (
	RoleAdmin  Role = "admin"  // Администратор
	RoleMember Role = "member" // Обычный участник (по умолчанию)
)

// IsValid проверяет, что роль входит в допустимый набор
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleMember
}

// User представляет зарегистрированного пользователя
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Никогда не отдается клиенту
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Ref возвращает краткое представление пользователя
func (u *User) Ref() *UserRef {
	return &UserRef{ID: u.ID, Username: u.Username}
}

// UserRef представляет краткую информацию о пользователе
// (используется в Project.Owner и Task.Assignee)
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Identity представляет личность, подтвержденную токеном
type Identity struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
}
