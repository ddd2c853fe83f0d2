package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/dbx"
	"github.com/dmitrijs2005/passvault/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, record *models.Record) (*models.Record, error) {
	query :=
		`INSERT INTO vault_records (id, owner_id, ciphertext)
		 VALUES ($1, $2, $3)
		 RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, record.ID, record.OwnerID, record.Ciphertext).
		Scan(&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return record, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Record, error) {
	query :=
		`SELECT id, owner_id, ciphertext, created_at, updated_at FROM vault_records
		 WHERE owner_id = $1
		 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Record, 0)
	for rows.Next() {
		var item models.Record
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Ciphertext, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, ownerID, id, ciphertext string) (*models.Record, error) {
	query :=
		`UPDATE vault_records SET ciphertext = $3, updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING id, owner_id, ciphertext, created_at, updated_at`

	var item models.Record
	err := r.db.QueryRowContext(ctx, query, id, ownerID, ciphertext).
		Scan(&item.ID, &item.OwnerID, &item.Ciphertext, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &item, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	query :=
		`DELETE FROM vault_records
		 WHERE id = $1 AND owner_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
