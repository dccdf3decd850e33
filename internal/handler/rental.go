package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/segyhp/bike-rental-engine/internal/domain"
	"github.com/segyhp/bike-rental-engine/pkg/response"

	"github.com/go-playground/validator/v10"
)

type RentalHandler struct {
	service   RentalService
	validator *validator.Validate
	location  *time.Location
}

func NewRentalHandler(service RentalService, location *time.Location) *RentalHandler {
	if location == nil {
		location = time.UTC
	}
	return &RentalHandler{
		service:   service,
		validator: validator.New(),
		location:  location,
	}
}

// CreateRental handles POST /rentals
func (h *RentalHandler) CreateRental(w http.ResponseWriter, r *http.Request) {
	caller, ok := member(w, r)
	if !ok {
		return
	}

	var request domain.CreateRentalRequest
	if err := decode(r, h.validator, &request); err != nil {
		response.FromError(w, err)
		return
	}

	result, err := h.service.CreateRental(r.Context(), caller.ID, &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, result)
}

// ExtendRental handles POST /rentals/{rentalId}/extend
func (h *RentalHandler) ExtendRental(w http.ResponseWriter, r *http.Request) {
	caller, ok := member(w, r)
	if !ok {
		return
	}

	rentalID, err := pathID(r, "rentalId")
	if err != nil {
		response.FromError(w, err)
		return
	}

	var request domain.ExtendRentalRequest
	if err := decode(r, h.validator, &request); err != nil {
		response.FromError(w, err)
		return
	}

	result, err := h.service.ExtendRental(r.Context(), rentalID, caller.ID, request.AdditionalHours)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, domain.NewExtendRentalResponse(result))
}

// CompleteRental handles POST /rentals/{rentalId}/complete
func (h *RentalHandler) CompleteRental(w http.ResponseWriter, r *http.Request) {
	h.end(w, r, h.service.CompleteRental)
}

// CancelRental handles POST /rentals/{rentalId}/cancel
func (h *RentalHandler) CancelRental(w http.ResponseWriter, r *http.Request) {
	h.end(w, r, h.service.CancelRental)
}

type endFunc func(ctx context.Context, rentalID int64, actor domain.Actor) (*domain.EndRentalResponse, error)

func (h *RentalHandler) end(w http.ResponseWriter, r *http.Request, op endFunc) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	rentalID, err := pathID(r, "rentalId")
	if err != nil {
		response.FromError(w, err)
		return
	}

	result, err := op(r.Context(), rentalID, caller)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, result)
}

// EndRental handles POST /rentals/{rentalId}/end. The body is optional; an
// empty action lets the service infer complete or cancel.
func (h *RentalHandler) EndRental(w http.ResponseWriter, r *http.Request) {
	caller, ok := member(w, r)
	if !ok {
		return
	}

	rentalID, err := pathID(r, "rentalId")
	if err != nil {
		response.FromError(w, err)
		return
	}

	var request domain.EndRentalRequest
	if r.ContentLength != 0 {
		if err := decode(r, h.validator, &request); err != nil {
			response.FromError(w, err)
			return
		}
	}

	result, err := h.service.EndRental(r.Context(), rentalID, caller.ID, request.Action)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, result)
}

// GetRental handles GET /rentals/{rentalId}
func (h *RentalHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	rentalID, err := pathID(r, "rentalId")
	if err != nil {
		response.FromError(w, err)
		return
	}

	view, err := h.service.GetRental(r.Context(), rentalID, caller)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, view)
}

// ListRentals handles GET /rentals?member_id=&bike_id=&from=&to=
func (h *RentalHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	var (
		filter domain.RentalFilter
		err    error
	)
	if filter.MemberID, err = queryID(r, "member_id"); err != nil {
		response.FromError(w, err)
		return
	}
	if filter.BikeID, err = queryID(r, "bike_id"); err != nil {
		response.FromError(w, err)
		return
	}
	if filter.From, err = queryDate(r, "from", h.location); err != nil {
		response.FromError(w, err)
		return
	}
	if filter.To, err = queryDate(r, "to", h.location); err != nil {
		response.FromError(w, err)
		return
	}

	views, err := h.service.ListRentals(r.Context(), caller, filter)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, views)
}
