package handler

import (
	"net/http"
	"time"

	customError "github.com/segyhp/bike-rental-engine/pkg/errors"
	"github.com/segyhp/bike-rental-engine/pkg/response"
)

type ReportHandler struct {
	service  ReportService
	location *time.Location
}

func NewReportHandler(service ReportService, location *time.Location) *ReportHandler {
	if location == nil {
		location = time.UTC
	}
	return &ReportHandler{service: service, location: location}
}

// Summary handles GET /reports/summary?from=YYYY-MM-DD&to=YYYY-MM-DD. Both
// dates are inclusive.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from", h.location)
	if err != nil {
		response.FromError(w, err)
		return
	}
	to, err := queryDate(r, "to", h.location)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if from == nil || to == nil {
		response.FromError(w, customError.WrapInvalidInput("from and to are required"))
		return
	}

	summary, err := h.service.Summary(r.Context(), *from, to.AddDate(0, 0, 1))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, summary)
}

// Overdue handles GET /reports/overdue
func (h *ReportHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	overdue, err := h.service.OverdueRentals(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, overdue)
}
