package handler

import (
	"encoding/json"
	"net/http"

	"carhub/internal/bookings/service"
	apperrors "carhub/pkg/errors"
	httputil "carhub/pkg/http"
	"carhub/pkg/logger"
	"carhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) writeInvalidBody(w http.ResponseWriter, handler string) {
	if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: "Invalid request body",
	}); writeErr != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", writeErr)
	}
}

func (h *BookingHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

// Availability lists rentable vehicles free for the whole window given by
// start_date and end_date.
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start, end, err := httputil.ExtractDateRange(r)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	vehicles, err := h.service.Availability(r.Context(), start, end)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	h.writeSuccess(w, "Availability", vehicles)
}

func (h *BookingHandler) VehicleAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	start, end, err := httputil.ExtractDateRange(r)
	if err != nil {
		h.writeError(w, "VehicleAvailability", err)
		return
	}

	result, err := h.service.VehicleAvailability(r.Context(), ps.ByName("id"), start, end)
	if err != nil {
		h.writeError(w, "VehicleAvailability", err)
		return
	}

	h.writeSuccess(w, "VehicleAvailability", result)
}

func (h *BookingHandler) QuotePublic(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.PublicBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeInvalidBody(w, "QuotePublic")
		return
	}
	h.quote(w, r, "QuotePublic", &req)
}

func (h *BookingHandler) QuoteReseller(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ResellerBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeInvalidBody(w, "QuoteReseller")
		return
	}
	h.quote(w, r, "QuoteReseller", &req)
}

func (h *BookingHandler) quote(w http.ResponseWriter, r *http.Request, handler string, req model.BookingRequest) {
	quote, err := h.service.Quote(r.Context(), req)
	if err != nil {
		h.writeError(w, handler, err)
		return
	}

	h.writeSuccess(w, handler, quote)
}

func (h *BookingHandler) CreatePublic(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.PublicBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeInvalidBody(w, "CreatePublic")
		return
	}
	h.create(w, r, "CreatePublic", &req)
}

func (h *BookingHandler) CreateReseller(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ResellerBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeInvalidBody(w, "CreateReseller")
		return
	}
	h.create(w, r, "CreateReseller", &req)
}

func (h *BookingHandler) create(w http.ResponseWriter, r *http.Request, handler string, req model.BookingRequest) {
	booking, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, handler, err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", handler, "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	h.writeSuccess(w, "GetByID", booking)
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	bookings, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

// Search lists the bookings of one vehicle. Query parameters: vehicle_id
// (required), start_date and end_date (optional), limit and offset.
func (h *BookingHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	vehicleID := r.URL.Query().Get("vehicle_id")
	if vehicleID == "" {
		h.writeError(w, "Search", apperrors.InvalidInput("Query parameter 'vehicle_id' is required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	startDate, err := httputil.ExtractOptionalDate(r, "start_date")
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}
	endDate, err := httputil.ExtractOptionalDate(r, "end_date")
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	search := model.BookingSearch{
		VehicleID: vehicleID,
		StartDate: startDate,
		EndDate:   endDate,
	}

	bookings, total, err := h.service.SearchByVehicle(r.Context(), search, limit, offset)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Search", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) ListByReseller(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListByReseller", err)
		return
	}

	bookings, total, err := h.service.ListByReseller(r.Context(), ps.ByName("reseller_id"), limit, offset)
	if err != nil {
		h.writeError(w, "ListByReseller", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListByReseller", "operation", "WritePaginated", "error", err)
	}
}

// UpdateStatus applies an operator transition. A confirmed booking is
// completed or cancelled; "active" marks the car as picked up and can only
// be followed by "completed".
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.BookingStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeInvalidBody(w, "UpdateStatus")
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), update.Status)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	h.writeSuccess(w, "UpdateStatus", booking)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.Cancel(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	h.writeSuccess(w, "Cancel", booking)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/availability", h.Availability)
	router.GET("/api/v1/availability/vehicles/:id", h.VehicleAvailability)

	router.POST("/api/v1/quotes/public", h.QuotePublic)
	router.POST("/api/v1/quotes/reseller", h.QuoteReseller)

	router.POST("/api/v1/bookings/public", h.CreatePublic)
	router.POST("/api/v1/bookings/reseller", h.CreateReseller)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/search", h.Search)
	router.GET("/api/v1/bookings/reseller/:reseller_id", h.ListByReseller)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/id/:id/status", h.UpdateStatus)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
}
