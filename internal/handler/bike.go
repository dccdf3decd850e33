package handler

import (
	"net/http"

	"github.com/segyhp/bike-rental-engine/internal/domain"
	"github.com/segyhp/bike-rental-engine/pkg/response"

	"github.com/go-playground/validator/v10"
)

type BikeHandler struct {
	service   BikeService
	validator *validator.Validate
}

func NewBikeHandler(service BikeService) *BikeHandler {
	return &BikeHandler{
		service:   service,
		validator: validator.New(),
	}
}

// CreateBike handles POST /bikes
func (h *BikeHandler) CreateBike(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	var request domain.CreateBikeRequest
	if err := decode(r, h.validator, &request); err != nil {
		response.FromError(w, err)
		return
	}

	bike, err := h.service.CreateBike(r.Context(), caller, &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, bike)
}

// ListBikes handles GET /bikes?status=
func (h *BikeHandler) ListBikes(w http.ResponseWriter, r *http.Request) {
	var status *domain.BikeStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.BikeStatus(raw)
		status = &s
	}

	bikes, err := h.service.ListBikes(r.Context(), status)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, bikes)
}

// GetBike handles GET /bikes/{bikeId}
func (h *BikeHandler) GetBike(w http.ResponseWriter, r *http.Request) {
	bikeID, err := pathID(r, "bikeId")
	if err != nil {
		response.FromError(w, err)
		return
	}

	bike, err := h.service.GetBike(r.Context(), bikeID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, bike)
}

// SetBikeStatus handles PUT /bikes/{bikeId}/status
func (h *BikeHandler) SetBikeStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	bikeID, err := pathID(r, "bikeId")
	if err != nil {
		response.FromError(w, err)
		return
	}

	var request domain.UpdateBikeStatusRequest
	if err := decode(r, h.validator, &request); err != nil {
		response.FromError(w, err)
		return
	}

	bike, err := h.service.SetBikeStatus(r.Context(), caller, bikeID, request.Status)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, bike)
}
