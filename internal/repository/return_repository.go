package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/segyhp/bike-rental-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

type returnRepository struct {
	db sqlx.ExtContext
}

func NewReturnRepository(db sqlx.ExtContext) ReturnRepository {
	return &returnRepository{db: db}
}

func (r *returnRepository) Create(ctx context.Context, ret *domain.Return) error {
	query := `
		INSERT INTO returns (rental_id, actual_return, condition_notes)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	return r.db.QueryRowxContext(ctx, query,
		ret.RentalID,
		ret.ActualReturn,
		ret.Condition,
	).Scan(&ret.ID, &ret.CreatedAt)
}

func (r *returnRepository) GetLatestByRentalID(ctx context.Context, rentalID int64) (*domain.Return, error) {
	query := `
		SELECT id, rental_id, actual_return, condition_notes, created_at
		FROM returns
		WHERE rental_id = $1
		ORDER BY id DESC
		LIMIT 1
	`

	var ret domain.Return
	err := sqlx.GetContext(ctx, r.db, &ret, query, rentalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &ret, nil
}
