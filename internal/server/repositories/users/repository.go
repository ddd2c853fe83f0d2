// Package users stores account records.
package users

import (
	"context"

	"github.com/dmitrijs2005/passvault/internal/server/models"
)

type Repository interface {
	// Create inserts user. A taken email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByEmail matches the email exactly (case-sensitive) and yields
	// common.ErrorNotFound when absent.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
