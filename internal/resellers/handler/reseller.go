package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"carhub/internal/resellers/service"
	apperrors "carhub/pkg/errors"
	httputil "carhub/pkg/http"
	"carhub/pkg/logger"
	"carhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ResellerHandler struct {
	service service.ResellerService
	log     *logger.Logger
}

func NewResellerHandler(service service.ResellerService, log *logger.Logger) *ResellerHandler {
	return &ResellerHandler{
		service: service,
		log:     log,
	}
}

func (h *ResellerHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var reseller model.Reseller
	if err := json.NewDecoder(r.Body).Decode(&reseller); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &reseller); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, reseller); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ResellerHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reseller, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, reseller); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ResellerHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	activeOnly, err := parseActiveOnly(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	resellers, total, err := h.service.GetAll(r.Context(), activeOnly, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, resellers, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ResellerHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.ResellerUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	reseller, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, reseller); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ResellerHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ResellerHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/resellers", h.Create)
	router.GET("/api/v1/resellers", h.GetAll)
	router.GET("/api/v1/resellers/id/:id", h.GetByID)
	router.PATCH("/api/v1/resellers/id/:id", h.Update)
	router.DELETE("/api/v1/resellers/id/:id", h.Delete)
}

func parseActiveOnly(r *http.Request) (bool, error) {
	value := r.URL.Query().Get("active")
	if value == "" {
		return false, nil
	}
	active, err := strconv.ParseBool(value)
	if err != nil {
		return false, apperrors.InvalidInput("invalid active parameter: " + value)
	}
	return active, nil
}
