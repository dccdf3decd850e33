package repository

import (
	"context"

	"github.com/segyhp/bike-rental-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

type bikeRepository struct {
	db sqlx.ExtContext
}

func NewBikeRepository(db sqlx.ExtContext) BikeRepository {
	return &bikeRepository{db: db}
}

const bikeColumns = `id, admin_id, model, bike_type, hourly_rate, availability_status, created_at, updated_at`

func (r *bikeRepository) Create(ctx context.Context, bike *domain.Bike) error {
	query := `
		INSERT INTO bikes (admin_id, model, bike_type, hourly_rate, availability_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRowxContext(ctx, query,
		bike.AdminID,
		bike.Model,
		bike.BikeType,
		bike.HourlyRate,
		bike.AvailabilityStatus,
	).Scan(&bike.ID, &bike.CreatedAt, &bike.UpdatedAt)
}

func (r *bikeRepository) GetByID(ctx context.Context, id int64) (*domain.Bike, error) {
	query := `SELECT ` + bikeColumns + ` FROM bikes WHERE id = $1`

	var bike domain.Bike
	if err := sqlx.GetContext(ctx, r.db, &bike, query, id); err != nil {
		return nil, err
	}

	return &bike, nil
}

func (r *bikeRepository) List(ctx context.Context, status *domain.BikeStatus) ([]*domain.Bike, error) {
	query := `SELECT ` + bikeColumns + ` FROM bikes`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE availability_status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY id`

	bikes := []*domain.Bike{}
	if err := sqlx.SelectContext(ctx, r.db, &bikes, query, args...); err != nil {
		return nil, err
	}

	return bikes, nil
}

func (r *bikeRepository) Reserve(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE bikes
		SET availability_status = $2, updated_at = NOW()
		WHERE id = $1 AND availability_status = $3
	`

	res, err := r.db.ExecContext(ctx, query, id, domain.BikeStatusRented, domain.BikeStatusAvailable)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (r *bikeRepository) Release(ctx context.Context, id int64) error {
	query := `
		UPDATE bikes
		SET availability_status = $2, updated_at = NOW()
		WHERE id = $1 AND availability_status <> $2
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.BikeStatusAvailable)
	return err
}

func (r *bikeRepository) SetStatus(ctx context.Context, id int64, status domain.BikeStatus) error {
	query := `
		UPDATE bikes
		SET availability_status = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, status)
	return err
}
