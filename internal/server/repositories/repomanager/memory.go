package repomanager

import (
	"context"

	"github.com/dmitrijs2005/passvault/internal/server/repositories/records"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. Data is lost
// on restart.
type MemoryRepositoryManager struct {
	users   *users.MemoryRepository
	records *records.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:   users.NewMemoryRepository(),
		records: records.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) Records() records.Repository {
	return m.records
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close() error { return nil }
