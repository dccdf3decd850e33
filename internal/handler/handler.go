package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/segyhp/bike-rental-engine/internal/domain"
	"github.com/segyhp/bike-rental-engine/internal/middleware"
	customError "github.com/segyhp/bike-rental-engine/pkg/errors"
	"github.com/segyhp/bike-rental-engine/pkg/response"
	"github.com/segyhp/bike-rental-engine/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type RentalService interface {
	CreateRental(ctx context.Context, memberID int64, request *domain.CreateRentalRequest) (*domain.CreateRentalResponse, error)
	ExtendRental(ctx context.Context, rentalID, memberID int64, additionalHours int) (*domain.ExtendRentalResult, error)
	CompleteRental(ctx context.Context, rentalID int64, actor domain.Actor) (*domain.EndRentalResponse, error)
	CancelRental(ctx context.Context, rentalID int64, actor domain.Actor) (*domain.EndRentalResponse, error)
	EndRental(ctx context.Context, rentalID, memberID int64, action domain.EndAction) (*domain.EndRentalResponse, error)
	GetRental(ctx context.Context, rentalID int64, actor domain.Actor) (*domain.RentalView, error)
	ListRentals(ctx context.Context, actor domain.Actor, filter domain.RentalFilter) ([]*domain.RentalView, error)
}

type PaymentService interface {
	ComputeExpectedAmount(ctx context.Context, rentalID int64, actor domain.Actor, asOfDate, asOfTime string) (*domain.ExpectedAmountResponse, error)
	RecordPayment(ctx context.Context, rentalID int64, actor domain.Actor, request *domain.RecordPaymentRequest) (*domain.RecordPaymentResponse, error)
	CompletePayment(ctx context.Context, paymentID int64, actor domain.Actor) (*domain.Payment, error)
	ListPayments(ctx context.Context, rentalID int64, actor domain.Actor) ([]*domain.Payment, error)
}

type BikeService interface {
	CreateBike(ctx context.Context, actor domain.Actor, request *domain.CreateBikeRequest) (*domain.Bike, error)
	GetBike(ctx context.Context, bikeID int64) (*domain.Bike, error)
	ListBikes(ctx context.Context, status *domain.BikeStatus) ([]*domain.Bike, error)
	SetBikeStatus(ctx context.Context, actor domain.Actor, bikeID int64, status domain.BikeStatus) (*domain.Bike, error)
}

type ReportService interface {
	Summary(ctx context.Context, from, to time.Time) (*domain.RentalSummary, error)
	OverdueRentals(ctx context.Context) ([]*domain.OverdueRental, error)
}

// decode reads and validates a JSON body into dst.
func decode(r *http.Request, v *validator.Validate, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return customError.WrapInvalidInput("Invalid request body")
	}
	if err := v.Struct(dst); err != nil {
		return customError.WrapInvalidInput(err.Error())
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, customError.WrapInvalidInput(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return id, nil
}

func queryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, customError.WrapInvalidInput(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return &id, nil
}

func queryDate(r *http.Request, name string, loc *time.Location) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := utils.ParseDateTime(raw, "00:00", loc)
	if err != nil {
		return nil, customError.WrapInvalidInput(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return &t, nil
}

// actor returns the authenticated caller. Routes are mounted behind
// middleware.Authenticate so a missing actor is a wiring bug.
func actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	a, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing bearer token")
	}
	return a, ok
}

// member is actor restricted to the member role.
func member(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	a, ok := actor(w, r)
	if !ok {
		return a, false
	}
	if a.Role != domain.RoleMember {
		response.FromError(w, customError.WrapForbidden("only members can do this"))
		return a, false
	}
	return a, true
}
