package memory

import (
	"context"

	"github.com/aidar/taskflow/internal/domain"
)

// UserRepository реализует repository.UserRepository в памяти
type UserRepository struct {
	store *Store
}

// Create создает нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.users {
		if existing.Username == user.Username {
			return domain.ErrUsernameTaken
		}
	}

	r.store.nextUserID++
	user.ID = r.store.nextUserID
	user.CreatedAt = r.store.now()

	stored := *user
	r.store.users[user.ID] = &stored
	return nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *user
	return &out, nil
}

// GetByUsername получает пользователя по имени
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, user := range r.store.users {
		if user.Username == username {
			out := *user
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}
