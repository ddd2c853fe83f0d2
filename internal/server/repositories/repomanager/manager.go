// Package repomanager picks the storage backend for the server and hands
// out its repositories.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/passvault/internal/server/repositories/records"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users() users.Repository
	Records() records.Repository
	RunMigrations(ctx context.Context) error
	Close() error
}
