package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/server/models"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/repomanager"
)

// RecordService enforces owner scoping on vault records. The subject passed
// to every method is the verified token subject. The server never looks
// inside the ciphertext.
type RecordService struct {
	repomanager repomanager.RepositoryManager
}

func NewRecordService(m repomanager.RepositoryManager) *RecordService {
	return &RecordService{repomanager: m}
}

func validateCiphertext(ciphertext string) error {
	if ciphertext == "" {
		return common.NewValidationError("encryptedData", "encrypted data is required")
	}
	return nil
}

// recordID reports whether id can name a record at all. Anything that is not
// a UUID is treated as absent rather than malformed.
func recordID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

func (s *RecordService) List(ctx context.Context, subject string) ([]*models.Record, error) {
	items, err := s.repomanager.Records().ListByOwner(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("error listing records: %w", err)
	}
	return items, nil
}

func (s *RecordService) Create(ctx context.Context, subject, ciphertext string) (*models.Record, error) {
	if err := validateCiphertext(ciphertext); err != nil {
		return nil, err
	}

	record := &models.Record{
		ID:         uuid.NewString(),
		OwnerID:    subject,
		Ciphertext: ciphertext,
	}

	record, err := s.repomanager.Records().Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("error creating record: %w", err)
	}
	return record, nil
}

func (s *RecordService) Update(ctx context.Context, subject, id, ciphertext string) (*models.Record, error) {
	if err := validateCiphertext(ciphertext); err != nil {
		return nil, err
	}
	id, ok := recordID(id)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Records().Update(ctx, subject, id, ciphertext)
}

func (s *RecordService) Delete(ctx context.Context, subject, id string) error {
	id, ok := recordID(id)
	if !ok {
		return common.ErrorNotFound
	}
	return s.repomanager.Records().Delete(ctx, subject, id)
}
