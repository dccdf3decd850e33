package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/segyhp/bike-rental-engine/internal/domain"
	"github.com/segyhp/bike-rental-engine/internal/mocks"
	"github.com/segyhp/bike-rental-engine/internal/service"
	customError "github.com/segyhp/bike-rental-engine/pkg/errors"
	"github.com/segyhp/bike-rental-engine/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var admin = domain.Actor{ID: 2, Role: domain.RoleAdmin}

func newBikeService() (*service.BikeService, *mocks.Repos) {
	repos := mocks.NewRepos()
	return service.NewBikeService(repos.Repositories(), mocks.NewFakeTxManager(repos.Repositories()), logger.Discard()), repos
}

func TestCreateBike(t *testing.T) {
	tests := []struct {
		name         string
		actor        domain.Actor
		rate         decimal.Decimal
		setupMocks   func(*mocks.Repos)
		expectedCode string
	}{
		{
			name:  "Success - admin adds an available bike",
			actor: admin,
			rate:  decimal.NewFromInt(50),
			setupMocks: func(r *mocks.Repos) {
				r.Bikes.On("Create", mock.Anything, mock.MatchedBy(func(b *domain.Bike) bool {
					return b.AdminID == 2 &&
						b.AvailabilityStatus == domain.BikeStatusAvailable &&
						b.HourlyRate.Equal(decimal.NewFromInt(50))
				})).Return(nil)
			},
		},
		{
			name:         "Failure - member cannot add bikes",
			actor:        member,
			rate:         decimal.NewFromInt(50),
			setupMocks:   func(r *mocks.Repos) {},
			expectedCode: customError.ErrCodeForbidden,
		},
		{
			name:  "Success - zero rate bike is free to ride",
			actor: admin,
			rate:  decimal.Zero,
			setupMocks: func(r *mocks.Repos) {
				r.Bikes.On("Create", mock.Anything, mock.MatchedBy(func(b *domain.Bike) bool {
					return b.HourlyRate.IsZero()
				})).Return(nil)
			},
		},
		{
			name:         "Failure - negative rate",
			actor:        admin,
			rate:         decimal.NewFromInt(-1),
			setupMocks:   func(r *mocks.Repos) {},
			expectedCode: customError.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repos := newBikeService()
			tt.setupMocks(repos)

			bike, err := svc.CreateBike(context.Background(), tt.actor, &domain.CreateBikeRequest{
				Model:      "Trek FX",
				BikeType:   "hybrid",
				HourlyRate: tt.rate,
			})

			if tt.expectedCode != "" {
				require.Error(t, err)
				assert.Nil(t, bike)
				assert.Equal(t, tt.expectedCode, customError.CodeOf(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Trek FX", bike.Model)
			}

			repos.AssertExpectations(t)
		})
	}
}

func TestGetBike_NotFound(t *testing.T) {
	svc, repos := newBikeService()
	repos.Bikes.On("GetByID", mock.Anything, int64(3)).Return(nil, sql.ErrNoRows)

	_, err := svc.GetBike(context.Background(), 3)

	assert.Equal(t, customError.ErrCodeBikeNotFound, customError.CodeOf(err))
}

func TestListBikes(t *testing.T) {
	svc, repos := newBikeService()
	status := domain.BikeStatusAvailable
	repos.Bikes.On("List", mock.Anything, &status).Return([]*domain.Bike{availableBike()}, nil)

	bikes, err := svc.ListBikes(context.Background(), &status)

	require.NoError(t, err)
	assert.Len(t, bikes, 1)
	repos.AssertExpectations(t)
}

func TestSetBikeStatus(t *testing.T) {
	tests := []struct {
		name         string
		current      domain.BikeStatus
		target       domain.BikeStatus
		expectUpdate bool
		expectedCode string
	}{
		{
			name:         "available to maintenance",
			current:      domain.BikeStatusAvailable,
			target:       domain.BikeStatusMaintenance,
			expectUpdate: true,
		},
		{
			name:         "maintenance back to available",
			current:      domain.BikeStatusMaintenance,
			target:       domain.BikeStatusAvailable,
			expectUpdate: true,
		},
		{
			name:         "rented bike is locked",
			current:      domain.BikeStatusRented,
			target:       domain.BikeStatusMaintenance,
			expectedCode: customError.ErrCodeInvalidState,
		},
		{
			name:         "rented cannot be set by hand",
			current:      domain.BikeStatusAvailable,
			target:       domain.BikeStatusRented,
			expectedCode: customError.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repos := newBikeService()
			bike := availableBike()
			bike.AvailabilityStatus = tt.current
			repos.Bikes.On("GetByID", mock.Anything, int64(9)).Return(bike, nil).Maybe()
			if tt.expectUpdate {
				repos.Bikes.On("SetStatus", mock.Anything, int64(9), tt.target).Return(nil)
			}

			updated, err := svc.SetBikeStatus(context.Background(), admin, 9, tt.target)

			if tt.expectedCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedCode, customError.CodeOf(err))
				repos.Bikes.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.target, updated.AvailabilityStatus)
			}

			repos.AssertExpectations(t)
		})
	}
}
