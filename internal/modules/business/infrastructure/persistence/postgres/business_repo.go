package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/quickbiz/quickbiz-api/internal/modules/business/domain"
)

type pgBusinessRepository struct {
	db *sqlx.DB
}

func NewBusinessRepository(db *sqlx.DB) domain.BusinessRepository {
	return &pgBusinessRepository{db: db}
}

func (r *pgBusinessRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Business, error) {
	var b domain.Business
	query := `
		SELECT id, owner_id, name, slug, business_type, is_active, created_at
		FROM businesses
		WHERE id = $1`
	err := r.db.GetContext(ctx, &b, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBusinessNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return &b, nil
}

// ListActiveIDs returns every active business, oldest first
func (r *pgBusinessRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `SELECT id FROM businesses WHERE is_active = TRUE ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("failed to list active businesses: %w", err)
	}
	return ids, nil
}
