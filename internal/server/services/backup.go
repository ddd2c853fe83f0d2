package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/repomanager"
)

// ObjectStore is the slice of object storage the backup needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string) (string, error)
}

type BackupItem struct {
	ID            string    `json:"id"`
	EncryptedData string    `json:"encryptedData"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// BackupDocument is the object written to storage. It only ever carries
// ciphertext.
type BackupDocument struct {
	UserID    string       `json:"userId"`
	CreatedAt time.Time    `json:"createdAt"`
	Items     []BackupItem `json:"items"`
}

// BackupService exports a user's sealed records to object storage. A nil
// store means backups are disabled.
type BackupService struct {
	repomanager repomanager.RepositoryManager
	store       ObjectStore
	now         func() time.Time
}

func NewBackupService(m repomanager.RepositoryManager, store ObjectStore) *BackupService {
	return &BackupService{
		repomanager: m,
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *BackupService) Enabled() bool {
	return s.store != nil
}

func backupKey(userID string, at time.Time) string {
	return fmt.Sprintf("backups/%s/%s-%s.json", userID, at.Format("20060102T150405Z"), uuid.New())
}

// Backup writes the subject's records and returns the object key and a
// presigned download URL for it.
func (s *BackupService) Backup(ctx context.Context, subject string) (string, string, error) {
	if !s.Enabled() {
		return "", "", common.ErrorUnavailable
	}

	records, err := s.repomanager.Records().ListByOwner(ctx, subject)
	if err != nil {
		return "", "", fmt.Errorf("error listing records: %w", err)
	}

	now := s.now()
	doc := BackupDocument{UserID: subject, CreatedAt: now, Items: make([]BackupItem, 0, len(records))}
	for _, r := range records {
		doc.Items = append(doc.Items, BackupItem{
			ID:            r.ID,
			EncryptedData: r.Ciphertext,
			CreatedAt:     r.CreatedAt,
			UpdatedAt:     r.UpdatedAt,
		})
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", "", fmt.Errorf("error encoding backup: %w", err)
	}

	key := backupKey(subject, now)
	if err := s.store.Put(ctx, key, body, "application/json"); err != nil {
		return "", "", err
	}

	url, err := s.store.PresignGet(ctx, key)
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}
