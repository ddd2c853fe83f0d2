// Package vault is the client-side half of owner scoping: it seals every
// credential before it leaves the process and opens every record that comes
// back. It is the only place plaintext and the vault key meet.
package vault

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/passvault/internal/client/api"
	"github.com/dmitrijs2005/passvault/internal/client/models"
	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/cryptox"
)

// Remote is the server side of the vault. *api.Client satisfies it.
type Remote interface {
	List(ctx context.Context) ([]api.Item, error)
	Create(ctx context.Context, encryptedData string) (*api.Item, error)
	Update(ctx context.Context, id, encryptedData string) (*api.Item, error)
	Delete(ctx context.Context, id string) error
}

type Keeper struct {
	remote Remote
	key    []byte
	aad    []byte
}

// NewKeeper takes its own copy of key; call Close to wipe it.
func NewKeeper(remote Remote, key []byte, userID string) *Keeper {
	k := make([]byte, len(key))
	copy(k, key)
	return &Keeper{remote: remote, key: k, aad: []byte(userID)}
}

// Close wipes the key. The Keeper is unusable afterwards.
func (k *Keeper) Close() {
	common.WipeByteArray(k.key)
	k.key = nil
}

func (k *Keeper) open(it *api.Item) (*models.Item, error) {
	var c models.Credential
	if err := cryptox.Open(it.EncryptedData, k.key, k.aad, &c); err != nil {
		return nil, fmt.Errorf("record %s: %w", it.ID, err)
	}
	return &models.Item{ID: it.ID, Credential: c, CreatedAt: it.CreatedAt, UpdatedAt: it.UpdatedAt}, nil
}

func (k *Keeper) seal(c models.Credential) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	return cryptox.Seal(c, k.key, k.aad)
}

func (k *Keeper) Add(ctx context.Context, c models.Credential) (*models.Item, error) {
	blob, err := k.seal(c)
	if err != nil {
		return nil, err
	}
	it, err := k.remote.Create(ctx, blob)
	if err != nil {
		return nil, err
	}
	return &models.Item{ID: it.ID, Credential: c, CreatedAt: it.CreatedAt, UpdatedAt: it.UpdatedAt}, nil
}

// List returns every record, opened. One record that fails to open fails
// the whole call.
func (k *Keeper) List(ctx context.Context) ([]*models.Item, error) {
	remote, err := k.remote.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]*models.Item, 0, len(remote))
	for i := range remote {
		it, err := k.open(&remote[i])
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// Get finds one record by id among the caller's records.
func (k *Keeper) Get(ctx context.Context, id string) (*models.Item, error) {
	items, err := k.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (k *Keeper) Update(ctx context.Context, id string, c models.Credential) (*models.Item, error) {
	blob, err := k.seal(c)
	if err != nil {
		return nil, err
	}
	it, err := k.remote.Update(ctx, id, blob)
	if err != nil {
		return nil, err
	}
	return &models.Item{ID: it.ID, Credential: c, CreatedAt: it.CreatedAt, UpdatedAt: it.UpdatedAt}, nil
}

func (k *Keeper) Delete(ctx context.Context, id string) error {
	return k.remote.Delete(ctx, id)
}
