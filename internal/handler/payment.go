package handler

import (
	"net/http"

	"github.com/segyhp/bike-rental-engine/internal/domain"
	"github.com/segyhp/bike-rental-engine/pkg/response"

	"github.com/go-playground/validator/v10"
)

type PaymentHandler struct {
	service   PaymentService
	validator *validator.Validate
}

func NewPaymentHandler(service PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service:   service,
		validator: validator.New(),
	}
}

// GetExpectedAmount handles GET /rentals/{rentalId}/expected-amount?as_of_date=&as_of_time=
func (h *PaymentHandler) GetExpectedAmount(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	rentalID, err := pathID(r, "rentalId")
	if err != nil {
		response.FromError(w, err)
		return
	}

	query := r.URL.Query()
	quote, err := h.service.ComputeExpectedAmount(r.Context(), rentalID, caller, query.Get("as_of_date"), query.Get("as_of_time"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, quote)
}

// RecordPayment handles POST /rentals/{rentalId}/payments
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	rentalID, err := pathID(r, "rentalId")
	if err != nil {
		response.FromError(w, err)
		return
	}

	var request domain.RecordPaymentRequest
	if err := decode(r, h.validator, &request); err != nil {
		response.FromError(w, err)
		return
	}

	result, err := h.service.RecordPayment(r.Context(), rentalID, caller, &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, result)
}

// ListPayments handles GET /rentals/{rentalId}/payments
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	rentalID, err := pathID(r, "rentalId")
	if err != nil {
		response.FromError(w, err)
		return
	}

	payments, err := h.service.ListPayments(r.Context(), rentalID, caller)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, payments)
}

// CompletePayment handles POST /payments/{paymentId}/complete
func (h *PaymentHandler) CompletePayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}

	paymentID, err := pathID(r, "paymentId")
	if err != nil {
		response.FromError(w, err)
		return
	}

	payment, err := h.service.CompletePayment(r.Context(), paymentID, caller)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, payment)
}
