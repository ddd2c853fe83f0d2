// Package records stores vault records. Every method except Create takes
// the owner id and only ever touches that owner's rows.
package records

import (
	"context"

	"github.com/dmitrijs2005/passvault/internal/server/models"
)

type Repository interface {
	// Create inserts record; ID and OwnerID are set by the caller.
	Create(ctx context.Context, record *models.Record) (*models.Record, error)

	// ListByOwner returns ownerID's records, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Record, error)

	// Update replaces the ciphertext of (id, ownerID). A missing row, or one
	// owned by someone else, yields common.ErrorNotFound.
	Update(ctx context.Context, ownerID, id, ciphertext string) (*models.Record, error)

	// Delete removes (id, ownerID), with the same not-found rule as Update.
	Delete(ctx context.Context, ownerID, id string) error
}
