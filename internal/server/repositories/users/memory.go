package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/server/models"
)

// MemoryRepository keeps users in process memory, keyed by email.
type MemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byEmail: make(map[string]models.User)}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return nil, common.ErrorAlreadyExists
	}
	user.CreatedAt = time.Now().UTC()

	stored := *user
	stored.KDFSalt = append([]byte(nil), user.KDFSalt...)
	r.byEmail[user.Email] = stored

	return user, nil
}

func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.KDFSalt = append([]byte(nil), u.KDFSalt...)
	return &u, nil
}
