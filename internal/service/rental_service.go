package service

import (
	"context"
	"fmt"
	"time"

	"github.com/segyhp/bike-rental-engine/internal/billing"
	"github.com/segyhp/bike-rental-engine/internal/config"
	"github.com/segyhp/bike-rental-engine/internal/domain"
	"github.com/segyhp/bike-rental-engine/internal/repository"
	customError "github.com/segyhp/bike-rental-engine/pkg/errors"
	"github.com/segyhp/bike-rental-engine/pkg/utils"

	"github.com/sirupsen/logrus"
)

// RentalService owns rental lifecycle transitions and keeps bike
// availability in step with them.
type RentalService struct {
	Repos    repository.Repositories
	Tx       repository.TxManager
	Clock    Clock
	log      *logrus.Logger
	settings settings
}

func NewRentalService(
	repos repository.Repositories,
	tx repository.TxManager,
	config *config.Config,
	log *logrus.Logger,
) *RentalService {
	return &RentalService{
		Repos:    repos,
		Tx:       tx,
		Clock:    time.Now,
		log:      loggerOrDefault(log),
		settings: settingsFrom(config),
	}
}

func (s *RentalService) now() time.Time {
	return s.Clock().In(s.settings.location)
}

// CreateRental reserves the bike and books the rental in one transaction.
func (s *RentalService) CreateRental(ctx context.Context, memberID int64, request *domain.CreateRentalRequest) (*domain.CreateRentalResponse, error) {
	if request.DurationHours < 1 {
		return nil, customError.WrapInvalidInput("duration_hours must be at least 1")
	}

	start, err := utils.ParseDateTime(request.PickupDate, request.PickupTime, s.settings.location)
	if err != nil {
		return nil, customError.WrapInvalidInput(err.Error())
	}
	plannedReturn := utils.AddHours(start, request.DurationHours)
	status := domain.InitialStatus(start, s.now())

	var response *domain.CreateRentalResponse
	err = s.Tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		bike, err := repos.Bikes.GetByID(ctx, request.BikeID)
		if isNotFound(err) {
			return customError.WrapBikeNotFound(request.BikeID)
		}
		if err != nil {
			return err
		}
		if !bike.IsAvailable() {
			return customError.WrapBikeUnavailable(bike.ID)
		}

		reserved, err := repos.Bikes.Reserve(ctx, bike.ID)
		if err != nil {
			return err
		}
		if !reserved {
			return customError.WrapBikeUnavailable(bike.ID)
		}

		rental := &domain.Rental{
			MemberID:      memberID,
			BikeID:        bike.ID,
			AdminID:       bike.AdminID,
			RentalStart:   start,
			PlannedReturn: &plannedReturn,
			Status:        status,
		}
		if err := repos.Rentals.Create(ctx, rental); err != nil {
			return err
		}

		quote := billing.Preview(bike.HourlyRate, start, plannedReturn)
		response = &domain.CreateRentalResponse{
			RentalID:      rental.ID,
			Status:        rental.Status,
			Cost:          quote.Amount,
			RentalStart:   start,
			PlannedReturn: plannedReturn,
		}
		return nil
	})
	if err != nil {
		return nil, fail(s.log, err, "create_rental", logrus.Fields{"member_id": memberID, "bike_id": request.BikeID})
	}

	s.log.WithFields(logrus.Fields{
		"rental_id": response.RentalID,
		"member_id": memberID,
		"bike_id":   request.BikeID,
		"status":    response.Status,
	}).Info("rental created")

	return response, nil
}

// ExtendRental pushes the planned return of a member's rental. A rental that
// already carries a completed payment is left untouched and the extra time
// is booked as a sibling rental starting where the last sibling ends.
func (s *RentalService) ExtendRental(ctx context.Context, rentalID, memberID int64, additionalHours int) (*domain.ExtendRentalResult, error) {
	if additionalHours < 1 {
		return nil, customError.WrapInvalidInput("additional_hours must be at least 1")
	}

	now := s.now()

	var result *domain.ExtendRentalResult
	err := s.Tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		rental, err := repos.Rentals.GetByIDForUpdate(ctx, rentalID)
		if isNotFound(err) {
			return customError.WrapRentalNotFound(rentalID)
		}
		if err != nil {
			return err
		}
		if rental.MemberID != memberID {
			return customError.WrapForbidden("rental belongs to another member")
		}

		ended, err := s.hasEnded(ctx, repos, rental)
		if err != nil {
			return err
		}
		if ended {
			return customError.WrapInvalidState(fmt.Sprintf("rental %d has already ended", rental.ID))
		}

		paid, err := repos.Payments.HasCompletedPayment(ctx, rental.ID)
		if err != nil {
			return err
		}

		currentEnd := utils.AddHours(rental.RentalStart, 1)
		if rental.PlannedReturn != nil {
			currentEnd = *rental.PlannedReturn
		}

		// A paid rental keeps its window; further extensions chain after the
		// last sibling already booked.
		if paid {
			latest, err := repos.Rentals.GetLatestExtension(ctx, rental)
			if err != nil {
				return err
			}
			if latest != nil && latest.PlannedReturn != nil && latest.PlannedReturn.After(currentEnd) {
				currentEnd = *latest.PlannedReturn
			}
		}
		newEnd := utils.AddHours(currentEnd, additionalHours)

		oldDuration := billing.DurationHours(rental.RentalStart, currentEnd)
		newDuration := billing.DurationHours(rental.RentalStart, newEnd)
		extraHours := newDuration - oldDuration
		if extraHours < 0 {
			extraHours = 0
		}

		result = &domain.ExtendRentalResult{
			RentalID:         rental.ID,
			NewPlannedReturn: newEnd,
			NewDurationHours: newDuration,
			ExtraHours:       extraHours,
		}

		if paid && extraHours > 0 {
			sibling := &domain.Rental{
				MemberID:      rental.MemberID,
				BikeID:        rental.BikeID,
				AdminID:       rental.AdminID,
				RentalStart:   currentEnd,
				PlannedReturn: &newEnd,
				Status:        domain.InitialStatus(currentEnd, now),
			}
			if err := repos.Rentals.Create(ctx, sibling); err != nil {
				return err
			}
			result.Outcome = domain.ExtendedAsNewRental{RentalID: sibling.ID}
			return nil
		}

		if err := repos.Rentals.UpdatePlannedReturn(ctx, rental.ID, newEnd); err != nil {
			return err
		}
		result.Outcome = domain.ExtendedInPlace{}
		return nil
	})
	if err != nil {
		return nil, fail(s.log, err, "extend_rental", logrus.Fields{"rental_id": rentalID, "member_id": memberID})
	}

	entry := s.log.WithFields(logrus.Fields{
		"rental_id":      rentalID,
		"planned_return": result.NewPlannedReturn,
		"extra_hours":    result.ExtraHours,
	})
	if id := result.ExtensionRentalID(); id != nil {
		entry.WithField("extension_rental_id", *id).Info("rental extended as new rental")
	} else {
		entry.Info("rental extended in place")
	}

	return result, nil
}

// CompleteRental ends a rental with a return row dated now and frees the
// bike. Completing an ended rental is a no-op.
func (s *RentalService) CompleteRental(ctx context.Context, rentalID int64, actor domain.Actor) (*domain.EndRentalResponse, error) {
	now := s.now()

	var response *domain.EndRentalResponse
	err := s.Tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		rental, ended, err := s.loadForEnding(ctx, repos, rentalID, actor)
		if err != nil {
			return err
		}
		if ended != nil {
			response = ended
			return nil
		}

		if err := repos.Rentals.MarkCompleted(ctx, rental.ID, utils.MaxTime(now, rental.RentalStart)); err != nil {
			return err
		}

		ret := &domain.Return{
			RentalID:     rental.ID,
			ActualReturn: now,
			Condition:    s.settings.returnCondition,
		}
		if err := repos.Returns.Create(ctx, ret); err != nil {
			return err
		}

		if err := s.releaseBike(ctx, repos, rental); err != nil {
			return err
		}

		response = &domain.EndRentalResponse{
			RentalID: rental.ID,
			Status:   domain.RentalStatusCompleted,
			Message:  "Rental completed",
		}
		return nil
	})
	if err != nil {
		return nil, fail(s.log, err, "complete_rental", logrus.Fields{"rental_id": rentalID, "actor_id": actor.ID})
	}

	s.logEnded(response, actor)
	return response, nil
}

// CancelRental cancels a rental and frees the bike. No return row is
// written. Cancelling an ended rental is a no-op.
func (s *RentalService) CancelRental(ctx context.Context, rentalID int64, actor domain.Actor) (*domain.EndRentalResponse, error) {
	var response *domain.EndRentalResponse
	err := s.Tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		rental, ended, err := s.loadForEnding(ctx, repos, rentalID, actor)
		if err != nil {
			return err
		}
		if ended != nil {
			response = ended
			return nil
		}

		if err := repos.Rentals.MarkCancelled(ctx, rental.ID); err != nil {
			return err
		}

		if err := s.releaseBike(ctx, repos, rental); err != nil {
			return err
		}

		response = &domain.EndRentalResponse{
			RentalID: rental.ID,
			Status:   domain.RentalStatusCancelled,
			Message:  "Rental cancelled",
		}
		return nil
	})
	if err != nil {
		return nil, fail(s.log, err, "cancel_rental", logrus.Fields{"rental_id": rentalID, "actor_id": actor.ID})
	}

	s.logEnded(response, actor)
	return response, nil
}

// EndRental is the member-facing end action. An explicit action wins; with
// none, a rental that has not started yet is cancelled and one that has is
// completed.
func (s *RentalService) EndRental(ctx context.Context, rentalID, memberID int64, action domain.EndAction) (*domain.EndRentalResponse, error) {
	actor := domain.Actor{ID: memberID, Role: domain.RoleMember}

	switch action {
	case domain.EndActionComplete:
		return s.CompleteRental(ctx, rentalID, actor)
	case domain.EndActionCancel:
		return s.CancelRental(ctx, rentalID, actor)
	case domain.EndActionNone:
	default:
		return nil, customError.WrapInvalidInput(fmt.Sprintf("unknown action %q", action))
	}

	rental, err := s.Repos.Rentals.GetByID(ctx, rentalID)
	if isNotFound(err) {
		return nil, customError.WrapRentalNotFound(rentalID)
	}
	if err != nil {
		return nil, fail(s.log, err, "end_rental", logrus.Fields{"rental_id": rentalID})
	}
	if !actor.CanAccess(rental) {
		return nil, customError.WrapForbidden("rental belongs to another member")
	}

	if s.now().Before(rental.RentalStart) {
		return s.CancelRental(ctx, rentalID, actor)
	}
	return s.CompleteRental(ctx, rentalID, actor)
}

// GetRental returns the rental with its derived status and live quote.
func (s *RentalService) GetRental(ctx context.Context, rentalID int64, actor domain.Actor) (*domain.RentalView, error) {
	rec, err := s.Repos.Rentals.GetRecord(ctx, rentalID)
	if isNotFound(err) {
		return nil, customError.WrapRentalNotFound(rentalID)
	}
	if err != nil {
		return nil, fail(s.log, err, "get_rental", logrus.Fields{"rental_id": rentalID})
	}
	if !actor.CanAccess(&rec.Rental) {
		return nil, customError.WrapForbidden("rental belongs to another member")
	}

	return rentalView(rec, s.now()), nil
}

// ListRentals lists rentals visible to the actor. Members only ever see
// their own.
func (s *RentalService) ListRentals(ctx context.Context, actor domain.Actor, filter domain.RentalFilter) ([]*domain.RentalView, error) {
	if !actor.IsAdmin() {
		memberID := actor.ID
		filter.MemberID = &memberID
	}

	records, err := s.Repos.Rentals.ListRecords(ctx, filter)
	if err != nil {
		return nil, fail(s.log, err, "list_rentals", logrus.Fields{"actor_id": actor.ID})
	}

	now := s.now()
	views := make([]*domain.RentalView, 0, len(records))
	for _, rec := range records {
		views = append(views, rentalView(rec, now))
	}

	return views, nil
}

// loadForEnding locks the rental and checks ownership. When the rental has
// already ended it returns the idempotent response instead of the rental.
func (s *RentalService) loadForEnding(ctx context.Context, repos repository.Repositories, rentalID int64, actor domain.Actor) (*domain.Rental, *domain.EndRentalResponse, error) {
	rental, err := repos.Rentals.GetByIDForUpdate(ctx, rentalID)
	if isNotFound(err) {
		return nil, nil, customError.WrapRentalNotFound(rentalID)
	}
	if err != nil {
		return nil, nil, err
	}
	if !actor.CanAccess(rental) {
		return nil, nil, customError.WrapForbidden("rental belongs to another member")
	}

	ended, err := s.hasEnded(ctx, repos, rental)
	if err != nil {
		return nil, nil, err
	}
	if ended {
		status := domain.RentalStatusCompleted
		if rental.Status == domain.RentalStatusCancelled {
			status = domain.RentalStatusCancelled
		}
		return nil, &domain.EndRentalResponse{
			RentalID:     rental.ID,
			Status:       status,
			AlreadyEnded: true,
			Message:      "Rental has already ended",
		}, nil
	}

	return rental, nil, nil
}

// hasEnded reports whether the rental is terminal, either by stored status
// or by an existing return row.
func (s *RentalService) hasEnded(ctx context.Context, repos repository.Repositories, rental *domain.Rental) (bool, error) {
	if rental.IsTerminal() {
		return true, nil
	}

	ret, err := repos.Returns.GetLatestByRentalID(ctx, rental.ID)
	if err != nil {
		return false, err
	}
	return ret != nil, nil
}

// releaseBike frees the bike unless a sibling rental still holds it.
func (s *RentalService) releaseBike(ctx context.Context, repos repository.Repositories, rental *domain.Rental) error {
	open, err := repos.Rentals.CountOpenForBike(ctx, rental.BikeID, rental.ID)
	if err != nil {
		return err
	}
	if open > 0 {
		s.log.WithFields(logrus.Fields{
			"rental_id": rental.ID,
			"bike_id":   rental.BikeID,
			"open":      open,
		}).Info("bike kept rented for open sibling rental")
		return nil
	}

	return repos.Bikes.Release(ctx, rental.BikeID)
}

func (s *RentalService) logEnded(response *domain.EndRentalResponse, actor domain.Actor) {
	s.log.WithFields(logrus.Fields{
		"rental_id":     response.RentalID,
		"status":        response.Status,
		"already_ended": response.AlreadyEnded,
		"actor_id":      actor.ID,
		"actor_role":    actor.Role,
	}).Info("rental ended")
}
