package repository

import (
	"context"
	"errors"
	"time"

	"github.com/segyhp/bike-rental-engine/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const (
	uniqueViolation          = "23505"
	transactionIDConstraint  = "payments_transaction_id_key"
	oneCompletedPaymentIndex = "payments_one_completed_per_rental"
	paymentColumns           = `id, transaction_id, rental_id, amount, payment_method, payment_status, paid_at, notes, created_at`
)

type paymentRepository struct {
	db sqlx.ExtContext
}

func NewPaymentRepository(db sqlx.ExtContext) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (transaction_id, rental_id, amount, payment_method, payment_status, paid_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		payment.TransactionID,
		payment.RentalID,
		payment.Amount,
		payment.Method,
		payment.Status,
		payment.PaidAt,
		payment.Notes,
	).Scan(&payment.ID, &payment.CreatedAt)

	return translateUniqueViolation(err)
}

func (r *paymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	var payment domain.Payment
	if err := sqlx.GetContext(ctx, r.db, &payment, query, id); err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = $1`

	var payment domain.Payment
	if err := sqlx.GetContext(ctx, r.db, &payment, query, transactionID); err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepository) GetByRentalID(ctx context.Context, rentalID int64) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE rental_id = $1 ORDER BY id`

	payments := []*domain.Payment{}
	if err := sqlx.SelectContext(ctx, r.db, &payments, query, rentalID); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) HasCompletedPayment(ctx context.Context, rentalID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM payments WHERE rental_id = $1 AND payment_status = $2
		)
	`

	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, query, rentalID, domain.PaymentStatusCompleted); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *paymentRepository) MarkCompleted(ctx context.Context, id int64, paidAt time.Time) error {
	query := `
		UPDATE payments
		SET payment_status = $2, paid_at = $3
		WHERE id = $1 AND payment_status = $4
	`

	_, err := r.db.ExecContext(ctx, query, id, domain.PaymentStatusCompleted, paidAt, domain.PaymentStatusPending)
	return translateUniqueViolation(err)
}

func (r *paymentRepository) SumCompleted(ctx context.Context, rentalIDs []int64) (decimal.Decimal, error) {
	if len(rentalIDs) == 0 {
		return decimal.Zero, nil
	}

	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE payment_status = $1 AND rental_id = ANY($2)
	`

	var total decimal.Decimal
	err := sqlx.GetContext(ctx, r.db, &total, query, domain.PaymentStatusCompleted, pq.Array(rentalIDs))
	if err != nil {
		return decimal.Zero, err
	}

	return total, nil
}

func translateUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return err
	}

	switch pqErr.Constraint {
	case transactionIDConstraint:
		return ErrDuplicateTransaction
	case oneCompletedPaymentIndex:
		return ErrCompletedPaymentExists
	default:
		return err
	}
}
