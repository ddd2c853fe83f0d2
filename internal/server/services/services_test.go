package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/passvault/internal/cryptox"
	"github.com/dmitrijs2005/passvault/internal/server/auth"
	"github.com/dmitrijs2005/passvault/internal/server/models"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/records"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/users"
)

func init() {
	cryptox.PasswordCost = bcrypt.MinCost
}

const testSecret = "0123456789abcdef0123456789abcdef"

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService([]byte(testSecret), time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// --- fakes for error paths ---

var errDB = errors.New("db down")

type failingUsers struct{}

func (failingUsers) Create(context.Context, *models.User) (*models.User, error) { return nil, errDB }
func (failingUsers) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, errDB
}

type failingRecords struct{}

func (failingRecords) Create(context.Context, *models.Record) (*models.Record, error) {
	return nil, errDB
}
func (failingRecords) ListByOwner(context.Context, string) ([]*models.Record, error) {
	return nil, errDB
}
func (failingRecords) Update(context.Context, string, string, string) (*models.Record, error) {
	return nil, errDB
}
func (failingRecords) Delete(context.Context, string, string) error { return errDB }

type failingManager struct{}

func (failingManager) Users() users.Repository             { return failingUsers{} }
func (failingManager) Records() records.Repository         { return failingRecords{} }
func (failingManager) RunMigrations(context.Context) error { return nil }
func (failingManager) Close() error                        { return nil }

var _ repomanager.RepositoryManager = failingManager{}
