package repository

import (
	"context"
	"errors"
	"time"

	"github.com/segyhp/bike-rental-engine/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateTransaction is returned when a transaction id is reused.
	ErrDuplicateTransaction = errors.New("duplicate transaction id")

	// ErrCompletedPaymentExists is returned when a second completed payment
	// would be stored for the same rental.
	ErrCompletedPaymentExists = errors.New("rental already has a completed payment")
)

// BikeRepository defines the interface for bike data operations
type BikeRepository interface {
	// Create creates a new bike and fills its ID
	Create(ctx context.Context, bike *domain.Bike) error

	// GetByID retrieves a bike, sql.ErrNoRows when absent
	GetByID(ctx context.Context, id int64) (*domain.Bike, error)

	// List retrieves bikes, optionally filtered by availability
	List(ctx context.Context, status *domain.BikeStatus) ([]*domain.Bike, error)

	// Reserve flips an Available bike to Rented. It reports false when the
	// bike was not Available.
	Reserve(ctx context.Context, id int64) (bool, error)

	// Release marks a bike Available. Releasing an available bike is a no-op.
	Release(ctx context.Context, id int64) error

	// SetStatus overwrites the availability status
	SetStatus(ctx context.Context, id int64, status domain.BikeStatus) error
}

// RentalRepository defines the interface for rental data operations
type RentalRepository interface {
	// Create inserts a rental and fills its ID and timestamps
	Create(ctx context.Context, rental *domain.Rental) error

	// GetByID retrieves a rental, sql.ErrNoRows when absent
	GetByID(ctx context.Context, id int64) (*domain.Rental, error)

	// GetByIDForUpdate retrieves and row-locks a rental inside a transaction
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Rental, error)

	// GetRecord retrieves a rental with its bike rate and latest actual return
	GetRecord(ctx context.Context, id int64) (*domain.RentalRecord, error)

	// ListRecords retrieves rentals with rate and latest return
	ListRecords(ctx context.Context, filter domain.RentalFilter) ([]*domain.RentalRecord, error)

	// ListOpenRecords retrieves rentals not yet completed or cancelled
	ListOpenRecords(ctx context.Context) ([]*domain.RentalRecord, error)

	// UpdatePlannedReturn moves the planned return of a rental
	UpdatePlannedReturn(ctx context.Context, id int64, plannedReturn time.Time) error

	// MarkCompleted sets status completed, filling an unset planned return
	MarkCompleted(ctx context.Context, id int64, plannedFallback time.Time) error

	// MarkCancelled sets status cancelled
	MarkCancelled(ctx context.Context, id int64) error

	// GetLatestExtension returns the non-cancelled rental of the same member and
	// bike that starts at or after the original's planned return and ends last,
	// nil when the original was never extended as a new rental
	GetLatestExtension(ctx context.Context, original *domain.Rental) (*domain.Rental, error)

	// CountOpenForBike counts other non-terminal rentals holding the bike
	CountOpenForBike(ctx context.Context, bikeID int64, excludeRentalID int64) (int, error)
}

// ReturnRepository defines the interface for return data operations
type ReturnRepository interface {
	// Create inserts a return row
	Create(ctx context.Context, ret *domain.Return) error

	// GetLatestByRentalID returns the highest-id return, nil when none exists
	GetLatestByRentalID(ctx context.Context, rentalID int64) (*domain.Return, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Create creates a new payment record
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment, sql.ErrNoRows when absent
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)

	// GetByTransactionID retrieves a payment, sql.ErrNoRows when absent
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)

	// GetByRentalID retrieves all payments for a rental
	GetByRentalID(ctx context.Context, rentalID int64) ([]*domain.Payment, error)

	// HasCompletedPayment reports whether the rental has a completed payment
	HasCompletedPayment(ctx context.Context, rentalID int64) (bool, error)

	// MarkCompleted moves a pending payment to completed
	MarkCompleted(ctx context.Context, id int64, paidAt time.Time) error

	// SumCompleted totals completed payments for the given rentals
	SumCompleted(ctx context.Context, rentalIDs []int64) (decimal.Decimal, error)
}

// Repositories bundles the repositories bound to one connection or transaction.
type Repositories struct {
	Bikes    BikeRepository
	Rentals  RentalRepository
	Returns  ReturnRepository
	Payments PaymentRepository
}

// TxManager runs fn inside a single database transaction. Any error returned
// by fn rolls the whole unit back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
