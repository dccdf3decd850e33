package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segyhp/bike-rental-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

type rentalRepository struct {
	db sqlx.ExtContext
}

func NewRentalRepository(db sqlx.ExtContext) RentalRepository {
	return &rentalRepository{db: db}
}

const rentalColumns = `id, member_id, bike_id, admin_id, rental_start, planned_return, status, created_at, updated_at`

const rentalRecordQuery = `
	SELECT r.id, r.member_id, r.bike_id, r.admin_id, r.rental_start, r.planned_return, r.status,
	       r.created_at, r.updated_at, b.hourly_rate, lr.actual_return
	FROM rentals r
	JOIN bikes b ON b.id = r.bike_id
	LEFT JOIN LATERAL (
		SELECT rt.actual_return
		FROM returns rt
		WHERE rt.rental_id = r.id
		ORDER BY rt.id DESC
		LIMIT 1
	) lr ON TRUE
`

func (r *rentalRepository) Create(ctx context.Context, rental *domain.Rental) error {
	query := `
		INSERT INTO rentals (member_id, bike_id, admin_id, rental_start, planned_return, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRowxContext(ctx, query,
		rental.MemberID,
		rental.BikeID,
		rental.AdminID,
		rental.RentalStart,
		rental.PlannedReturn,
		rental.Status,
	).Scan(&rental.ID, &rental.CreatedAt, &rental.UpdatedAt)
}

func (r *rentalRepository) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`

	var rental domain.Rental
	if err := sqlx.GetContext(ctx, r.db, &rental, query, id); err != nil {
		return nil, err
	}

	return &rental, nil
}

func (r *rentalRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1 FOR UPDATE`

	var rental domain.Rental
	if err := sqlx.GetContext(ctx, r.db, &rental, query, id); err != nil {
		return nil, err
	}

	return &rental, nil
}

func (r *rentalRepository) GetRecord(ctx context.Context, id int64) (*domain.RentalRecord, error) {
	query := rentalRecordQuery + ` WHERE r.id = $1`

	var record domain.RentalRecord
	if err := sqlx.GetContext(ctx, r.db, &record, query, id); err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *rentalRepository) ListRecords(ctx context.Context, filter domain.RentalFilter) ([]*domain.RentalRecord, error) {
	var (
		conditions []string
		args       []interface{}
	)

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.MemberID != nil {
		add("r.member_id = $%d", *filter.MemberID)
	}
	if filter.BikeID != nil {
		add("r.bike_id = $%d", *filter.BikeID)
	}
	if filter.From != nil {
		add("r.rental_start >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("r.rental_start < $%d", *filter.To)
	}

	query := rentalRecordQuery
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY r.id DESC`

	records := []*domain.RentalRecord{}
	if err := sqlx.SelectContext(ctx, r.db, &records, query, args...); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *rentalRepository) ListOpenRecords(ctx context.Context) ([]*domain.RentalRecord, error) {
	query := rentalRecordQuery + `
		WHERE r.status IN ($1, $2) AND lr.actual_return IS NULL
		ORDER BY r.planned_return
	`

	records := []*domain.RentalRecord{}
	err := sqlx.SelectContext(ctx, r.db, &records, query, domain.RentalStatusPending, domain.RentalStatusActive)
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *rentalRepository) UpdatePlannedReturn(ctx context.Context, id int64, plannedReturn time.Time) error {
	query := `
		UPDATE rentals
		SET planned_return = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, plannedReturn)
	return err
}

func (r *rentalRepository) MarkCompleted(ctx context.Context, id int64, plannedFallback time.Time) error {
	query := `
		UPDATE rentals
		SET status = $2, planned_return = COALESCE(planned_return, $3), updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.RentalStatusCompleted, plannedFallback)
	return err
}

func (r *rentalRepository) MarkCancelled(ctx context.Context, id int64) error {
	query := `
		UPDATE rentals
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.RentalStatusCancelled)
	return err
}

func (r *rentalRepository) GetLatestExtension(ctx context.Context, original *domain.Rental) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + `
		FROM rentals
		WHERE member_id = $1
		  AND bike_id = $2
		  AND id <> $3
		  AND rental_start >= $4
		  AND status <> $5
		ORDER BY planned_return DESC, id DESC
		LIMIT 1
	`

	after := original.RentalStart
	if original.PlannedReturn != nil {
		after = *original.PlannedReturn
	}

	var rental domain.Rental
	err := sqlx.GetContext(ctx, r.db, &rental, query,
		original.MemberID, original.BikeID, original.ID, after, domain.RentalStatusCancelled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &rental, nil
}

func (r *rentalRepository) CountOpenForBike(ctx context.Context, bikeID int64, excludeRentalID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM rentals r
		WHERE r.bike_id = $1
		  AND r.id <> $2
		  AND r.status IN ($3, $4)
		  AND NOT EXISTS (SELECT 1 FROM returns rt WHERE rt.rental_id = r.id)
	`

	var count int
	err := sqlx.GetContext(ctx, r.db, &count, query,
		bikeID, excludeRentalID, domain.RentalStatusPending, domain.RentalStatusActive)
	if err != nil {
		return 0, err
	}

	return count, nil
}
