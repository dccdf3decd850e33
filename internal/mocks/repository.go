package mocks

import (
	"context"
	"time"

	"github.com/segyhp/bike-rental-engine/internal/domain"
	"github.com/segyhp/bike-rental-engine/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockBikeRepository struct {
	mock.Mock
}

func (m *MockBikeRepository) Create(ctx context.Context, bike *domain.Bike) error {
	args := m.Called(ctx, bike)
	return args.Error(0)
}

func (m *MockBikeRepository) GetByID(ctx context.Context, id int64) (*domain.Bike, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bike), args.Error(1)
}

func (m *MockBikeRepository) List(ctx context.Context, status *domain.BikeStatus) ([]*domain.Bike, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Bike), args.Error(1)
}

func (m *MockBikeRepository) Reserve(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockBikeRepository) Release(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBikeRepository) SetStatus(ctx context.Context, id int64, status domain.BikeStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type MockRentalRepository struct {
	mock.Mock
}

func (m *MockRentalRepository) Create(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}

func (m *MockRentalRepository) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

func (m *MockRentalRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

func (m *MockRentalRepository) GetRecord(ctx context.Context, id int64) (*domain.RentalRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalRecord), args.Error(1)
}

func (m *MockRentalRepository) ListRecords(ctx context.Context, filter domain.RentalFilter) ([]*domain.RentalRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RentalRecord), args.Error(1)
}

func (m *MockRentalRepository) ListOpenRecords(ctx context.Context) ([]*domain.RentalRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RentalRecord), args.Error(1)
}

func (m *MockRentalRepository) UpdatePlannedReturn(ctx context.Context, id int64, plannedReturn time.Time) error {
	args := m.Called(ctx, id, plannedReturn)
	return args.Error(0)
}

func (m *MockRentalRepository) MarkCompleted(ctx context.Context, id int64, plannedFallback time.Time) error {
	args := m.Called(ctx, id, plannedFallback)
	return args.Error(0)
}

func (m *MockRentalRepository) MarkCancelled(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRentalRepository) GetLatestExtension(ctx context.Context, original *domain.Rental) (*domain.Rental, error) {
	args := m.Called(ctx, original)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

func (m *MockRentalRepository) CountOpenForBike(ctx context.Context, bikeID int64, excludeRentalID int64) (int, error) {
	args := m.Called(ctx, bikeID, excludeRentalID)
	return args.Int(0), args.Error(1)
}

type MockReturnRepository struct {
	mock.Mock
}

func (m *MockReturnRepository) Create(ctx context.Context, ret *domain.Return) error {
	args := m.Called(ctx, ret)
	return args.Error(0)
}

func (m *MockReturnRepository) GetLatestByRentalID(ctx context.Context, rentalID int64) (*domain.Return, error) {
	args := m.Called(ctx, rentalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Return), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByRentalID(ctx context.Context, rentalID int64) ([]*domain.Payment, error) {
	args := m.Called(ctx, rentalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) HasCompletedPayment(ctx context.Context, rentalID int64) (bool, error) {
	args := m.Called(ctx, rentalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) MarkCompleted(ctx context.Context, id int64, paidAt time.Time) error {
	args := m.Called(ctx, id, paidAt)
	return args.Error(0)
}

func (m *MockPaymentRepository) SumCompleted(ctx context.Context, rentalIDs []int64) (decimal.Decimal, error) {
	args := m.Called(ctx, rentalIDs)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// Repos bundles one mock per repository.
type Repos struct {
	Bikes    *MockBikeRepository
	Rentals  *MockRentalRepository
	Returns  *MockReturnRepository
	Payments *MockPaymentRepository
}

func NewRepos() *Repos {
	return &Repos{
		Bikes:    &MockBikeRepository{},
		Rentals:  &MockRentalRepository{},
		Returns:  &MockReturnRepository{},
		Payments: &MockPaymentRepository{},
	}
}

func (r *Repos) Repositories() repository.Repositories {
	return repository.Repositories{
		Bikes:    r.Bikes,
		Rentals:  r.Rentals,
		Returns:  r.Returns,
		Payments: r.Payments,
	}
}

func (r *Repos) AssertExpectations(t mock.TestingT) {
	r.Bikes.AssertExpectations(t)
	r.Rentals.AssertExpectations(t)
	r.Returns.AssertExpectations(t)
	r.Payments.AssertExpectations(t)
}

// FakeTxManager runs fn directly against the mocked repositories. It counts
// units of work so tests can tell whether a transaction was opened.
type FakeTxManager struct {
	Repos repository.Repositories
	Calls int
	Err   error
}

func NewFakeTxManager(repos repository.Repositories) *FakeTxManager {
	return &FakeTxManager{Repos: repos}
}

func (f *FakeTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	f.Calls++
	if f.Err != nil {
		return f.Err
	}
	return fn(ctx, f.Repos)
}

type MockPaymentLock struct {
	mock.Mock
}

func (m *MockPaymentLock) Acquire(ctx context.Context, rentalID int64) (string, bool, error) {
	args := m.Called(ctx, rentalID)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockPaymentLock) Release(ctx context.Context, rentalID int64, token string) error {
	args := m.Called(ctx, rentalID, token)
	return args.Error(0)
}
