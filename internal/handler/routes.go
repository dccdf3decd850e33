package handler

import (
	"net/http"

	"github.com/segyhp/bike-rental-engine/internal/domain"
	"github.com/segyhp/bike-rental-engine/internal/middleware"
	"github.com/segyhp/bike-rental-engine/pkg/response"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Rentals  *RentalHandler
	Payments *PaymentHandler
	Bikes    *BikeHandler
	Reports  *ReportHandler
	Health   *HealthHandler
}

// NewRouter mounts every endpoint. Everything under /api/v1 goes through
// authenticate; bike writes and reports also require the admin role.
func NewRouter(h Handlers, authenticate func(http.Handler) http.Handler) *mux.Router {
	router := mux.NewRouter()

	router.Use(response.LoggingMiddleware)
	router.Use(response.CORSMiddleware)

	if h.Health != nil {
		router.HandleFunc("/health", h.Health.Health).Methods("GET")
		router.HandleFunc("/health/ready", h.Health.Ready).Methods("GET")
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authenticate)

	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	admin := func(fn http.HandlerFunc) http.Handler {
		return adminOnly(fn)
	}

	api.HandleFunc("/rentals", h.Rentals.CreateRental).Methods("POST")
	api.HandleFunc("/rentals", h.Rentals.ListRentals).Methods("GET")
	api.HandleFunc("/rentals/{rentalId}", h.Rentals.GetRental).Methods("GET")
	api.HandleFunc("/rentals/{rentalId}/extend", h.Rentals.ExtendRental).Methods("POST")
	api.HandleFunc("/rentals/{rentalId}/complete", h.Rentals.CompleteRental).Methods("POST")
	api.HandleFunc("/rentals/{rentalId}/cancel", h.Rentals.CancelRental).Methods("POST")
	api.HandleFunc("/rentals/{rentalId}/end", h.Rentals.EndRental).Methods("POST")

	api.HandleFunc("/rentals/{rentalId}/expected-amount", h.Payments.GetExpectedAmount).Methods("GET")
	api.HandleFunc("/rentals/{rentalId}/payments", h.Payments.RecordPayment).Methods("POST")
	api.HandleFunc("/rentals/{rentalId}/payments", h.Payments.ListPayments).Methods("GET")
	api.HandleFunc("/payments/{paymentId}/complete", h.Payments.CompletePayment).Methods("POST")

	api.HandleFunc("/bikes", h.Bikes.ListBikes).Methods("GET")
	api.Handle("/bikes", admin(h.Bikes.CreateBike)).Methods("POST")
	api.HandleFunc("/bikes/{bikeId}", h.Bikes.GetBike).Methods("GET")
	api.Handle("/bikes/{bikeId}/status", admin(h.Bikes.SetBikeStatus)).Methods("PUT")

	api.Handle("/reports/summary", admin(h.Reports.Summary)).Methods("GET")
	api.Handle("/reports/overdue", admin(h.Reports.Overdue)).Methods("GET")

	return router
}
