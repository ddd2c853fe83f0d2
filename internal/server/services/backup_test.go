package services

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/repomanager"
)

type fakeStore struct {
	putKey   string
	putBody  []byte
	putType  string
	putErr   error
	presignE error
}

func (f *fakeStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	f.putKey, f.putBody, f.putType = key, body, contentType
	return f.putErr
}

func (f *fakeStore) PresignGet(ctx context.Context, key string) (string, error) {
	if f.presignE != nil {
		return "", f.presignE
	}
	return "https://s3.example/" + key + "?X-Amz-Signature=abc", nil
}

func TestBackup_Disabled(t *testing.T) {
	svc := NewBackupService(repomanager.NewMemoryRepositoryManager(), nil)
	assert.False(t, svc.Enabled())

	_, _, err := svc.Backup(context.Background(), "alice")
	assert.ErrorIs(t, err, common.ErrorUnavailable)
}

func TestBackup_WritesOnlyOwnCiphertext(t *testing.T) {
	ctx := context.Background()
	rm := repomanager.NewMemoryRepositoryManager()
	records := NewRecordService(rm)

	_, err := records.Create(ctx, "alice", "alice-blob")
	require.NoError(t, err)
	_, err = records.Create(ctx, "bob", "bob-blob")
	require.NoError(t, err)

	store := &fakeStore{}
	svc := NewBackupService(rm, store)
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC) }

	key, url, err := svc.Backup(ctx, "alice")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^backups/alice/20260504T030201Z-[0-9a-f-]{36}\.json$`), key)
	assert.Equal(t, key, store.putKey)
	assert.Equal(t, "application/json", store.putType)
	assert.Contains(t, url, "X-Amz-Signature")

	var doc BackupDocument
	require.NoError(t, json.Unmarshal(store.putBody, &doc))
	assert.Equal(t, "alice", doc.UserID)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "alice-blob", doc.Items[0].EncryptedData)
}

func TestBackup_StoreErrors(t *testing.T) {
	ctx := context.Background()
	rm := repomanager.NewMemoryRepositoryManager()

	_, _, err := NewBackupService(rm, &fakeStore{putErr: errors.New("put-fail")}).Backup(ctx, "alice")
	assert.EqualError(t, err, "put-fail")

	_, _, err = NewBackupService(rm, &fakeStore{presignE: errors.New("sign-fail")}).Backup(ctx, "alice")
	assert.EqualError(t, err, "sign-fail")

	_, _, err = NewBackupService(failingManager{}, &fakeStore{}).Backup(ctx, "alice")
	assert.ErrorIs(t, err, errDB)
}
