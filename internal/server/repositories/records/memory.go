package records

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/server/models"
)

type memoryRecord struct {
	models.Record
	seq uint64
}

// MemoryRepository keeps records in process memory. Insertion order breaks
// ties between equal creation times.
type MemoryRepository struct {
	mu    sync.RWMutex
	seq   uint64
	items map[string]*memoryRecord
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: make(map[string]*memoryRecord),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) Create(ctx context.Context, record *models.Record) (*models.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[record.ID]; exists {
		return nil, common.ErrorAlreadyExists
	}

	now := r.now()
	record.CreatedAt, record.UpdatedAt = now, now

	r.seq++
	r.items[record.ID] = &memoryRecord{Record: *record, seq: r.seq}

	out := *record
	return &out, nil
}

func (r *MemoryRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Record, error) {
	r.mu.RLock()
	owned := make([]*memoryRecord, 0)
	for _, item := range r.items {
		if item.OwnerID == ownerID {
			c := *item
			owned = append(owned, &c)
		}
	}
	r.mu.RUnlock()

	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].seq > owned[j].seq
	})

	result := make([]*models.Record, 0, len(owned))
	for _, item := range owned {
		rec := item.Record
		result = append(result, &rec)
	}
	return result, nil
}

func (r *MemoryRepository) Update(ctx context.Context, ownerID, id, ciphertext string) (*models.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok || item.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	item.Ciphertext = ciphertext
	item.UpdatedAt = r.now()

	out := item.Record
	return &out, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok || item.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(r.items, id)
	return nil
}
