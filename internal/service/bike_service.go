package service

import (
	"context"
	"fmt"

	"github.com/segyhp/bike-rental-engine/internal/domain"
	"github.com/segyhp/bike-rental-engine/internal/repository"
	customError "github.com/segyhp/bike-rental-engine/pkg/errors"

	"github.com/sirupsen/logrus"
)

// BikeService is the admin side of the inventory. Rented is never set here;
// only the rental lifecycle moves a bike in and out of Rented.
type BikeService struct {
	Repos repository.Repositories
	Tx    repository.TxManager
	log   *logrus.Logger
}

func NewBikeService(repos repository.Repositories, tx repository.TxManager, log *logrus.Logger) *BikeService {
	return &BikeService{
		Repos: repos,
		Tx:    tx,
		log:   loggerOrDefault(log),
	}
}

func (s *BikeService) CreateBike(ctx context.Context, actor domain.Actor, request *domain.CreateBikeRequest) (*domain.Bike, error) {
	if !actor.IsAdmin() {
		return nil, customError.WrapForbidden("only admins can manage bikes")
	}
	if request.HourlyRate.IsNegative() {
		return nil, customError.WrapInvalidInput("hourly_rate must not be negative")
	}

	bike := &domain.Bike{
		AdminID:            actor.ID,
		Model:              request.Model,
		BikeType:           request.BikeType,
		HourlyRate:         request.HourlyRate.Round(2),
		AvailabilityStatus: domain.BikeStatusAvailable,
	}
	if err := s.Repos.Bikes.Create(ctx, bike); err != nil {
		return nil, fail(s.log, err, "create_bike", logrus.Fields{"admin_id": actor.ID})
	}

	s.log.WithFields(logrus.Fields{
		"bike_id":  bike.ID,
		"admin_id": actor.ID,
		"rate":     bike.HourlyRate.StringFixed(2),
	}).Info("bike created")

	return bike, nil
}

func (s *BikeService) GetBike(ctx context.Context, bikeID int64) (*domain.Bike, error) {
	bike, err := s.Repos.Bikes.GetByID(ctx, bikeID)
	if isNotFound(err) {
		return nil, customError.WrapBikeNotFound(bikeID)
	}
	if err != nil {
		return nil, fail(s.log, err, "get_bike", logrus.Fields{"bike_id": bikeID})
	}

	return bike, nil
}

func (s *BikeService) ListBikes(ctx context.Context, status *domain.BikeStatus) ([]*domain.Bike, error) {
	bikes, err := s.Repos.Bikes.List(ctx, status)
	if err != nil {
		return nil, fail(s.log, err, "list_bikes", nil)
	}

	return bikes, nil
}

// SetBikeStatus toggles a bike between Available and Maintenance. A bike
// that is out on rental cannot be touched.
func (s *BikeService) SetBikeStatus(ctx context.Context, actor domain.Actor, bikeID int64, status domain.BikeStatus) (*domain.Bike, error) {
	if !actor.IsAdmin() {
		return nil, customError.WrapForbidden("only admins can manage bikes")
	}
	if status != domain.BikeStatusAvailable && status != domain.BikeStatusMaintenance {
		return nil, customError.WrapInvalidInput(fmt.Sprintf("status %q cannot be set manually", status))
	}

	var bike *domain.Bike
	err := s.Tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Bikes.GetByID(ctx, bikeID)
		if isNotFound(err) {
			return customError.WrapBikeNotFound(bikeID)
		}
		if err != nil {
			return err
		}
		if current.AvailabilityStatus == domain.BikeStatusRented {
			return customError.WrapInvalidState(fmt.Sprintf("bike %d is rented", bikeID))
		}

		if err := repos.Bikes.SetStatus(ctx, bikeID, status); err != nil {
			return err
		}
		current.AvailabilityStatus = status
		bike = current
		return nil
	})
	if err != nil {
		return nil, fail(s.log, err, "set_bike_status", logrus.Fields{"bike_id": bikeID})
	}

	s.log.WithFields(logrus.Fields{
		"bike_id": bikeID,
		"status":  status,
	}).Info("bike status changed")

	return bike, nil
}
