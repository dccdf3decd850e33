package mocks

import (
	"context"
	"time"

	"github.com/segyhp/bike-rental-engine/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockRentalService struct {
	mock.Mock
}

func (m *MockRentalService) CreateRental(ctx context.Context, memberID int64, request *domain.CreateRentalRequest) (*domain.CreateRentalResponse, error) {
	args := m.Called(ctx, memberID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreateRentalResponse), args.Error(1)
}

func (m *MockRentalService) ExtendRental(ctx context.Context, rentalID, memberID int64, additionalHours int) (*domain.ExtendRentalResult, error) {
	args := m.Called(ctx, rentalID, memberID, additionalHours)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtendRentalResult), args.Error(1)
}

func (m *MockRentalService) CompleteRental(ctx context.Context, rentalID int64, actor domain.Actor) (*domain.EndRentalResponse, error) {
	args := m.Called(ctx, rentalID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EndRentalResponse), args.Error(1)
}

func (m *MockRentalService) CancelRental(ctx context.Context, rentalID int64, actor domain.Actor) (*domain.EndRentalResponse, error) {
	args := m.Called(ctx, rentalID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EndRentalResponse), args.Error(1)
}

func (m *MockRentalService) EndRental(ctx context.Context, rentalID, memberID int64, action domain.EndAction) (*domain.EndRentalResponse, error) {
	args := m.Called(ctx, rentalID, memberID, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EndRentalResponse), args.Error(1)
}

func (m *MockRentalService) GetRental(ctx context.Context, rentalID int64, actor domain.Actor) (*domain.RentalView, error) {
	args := m.Called(ctx, rentalID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalView), args.Error(1)
}

func (m *MockRentalService) ListRentals(ctx context.Context, actor domain.Actor, filter domain.RentalFilter) ([]*domain.RentalView, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RentalView), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) ComputeExpectedAmount(ctx context.Context, rentalID int64, actor domain.Actor, asOfDate, asOfTime string) (*domain.ExpectedAmountResponse, error) {
	args := m.Called(ctx, rentalID, actor, asOfDate, asOfTime)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExpectedAmountResponse), args.Error(1)
}

func (m *MockPaymentService) RecordPayment(ctx context.Context, rentalID int64, actor domain.Actor, request *domain.RecordPaymentRequest) (*domain.RecordPaymentResponse, error) {
	args := m.Called(ctx, rentalID, actor, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecordPaymentResponse), args.Error(1)
}

func (m *MockPaymentService) CompletePayment(ctx context.Context, paymentID int64, actor domain.Actor) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) ListPayments(ctx context.Context, rentalID int64, actor domain.Actor) ([]*domain.Payment, error) {
	args := m.Called(ctx, rentalID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

type MockBikeService struct {
	mock.Mock
}

func (m *MockBikeService) CreateBike(ctx context.Context, actor domain.Actor, request *domain.CreateBikeRequest) (*domain.Bike, error) {
	args := m.Called(ctx, actor, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bike), args.Error(1)
}

func (m *MockBikeService) GetBike(ctx context.Context, bikeID int64) (*domain.Bike, error) {
	args := m.Called(ctx, bikeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bike), args.Error(1)
}

func (m *MockBikeService) ListBikes(ctx context.Context, status *domain.BikeStatus) ([]*domain.Bike, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Bike), args.Error(1)
}

func (m *MockBikeService) SetBikeStatus(ctx context.Context, actor domain.Actor, bikeID int64, status domain.BikeStatus) (*domain.Bike, error) {
	args := m.Called(ctx, actor, bikeID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bike), args.Error(1)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Summary(ctx context.Context, from, to time.Time) (*domain.RentalSummary, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalSummary), args.Error(1)
}

func (m *MockReportService) OverdueRentals(ctx context.Context) ([]*domain.OverdueRental, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OverdueRental), args.Error(1)
}
