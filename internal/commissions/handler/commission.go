package handler

import (
	"net/http"

	"carhub/internal/commissions/service"
	httputil "carhub/pkg/http"
	"carhub/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type CommissionHandler struct {
	service service.CommissionService
	log     *logger.Logger
}

func NewCommissionHandler(service service.CommissionService, log *logger.Logger) *CommissionHandler {
	return &CommissionHandler{
		service: service,
		log:     log,
	}
}

// List pages the ledger of one reseller. Optional query parameters: status,
// limit and offset.
func (h *CommissionHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	entries, total, err := h.service.List(r.Context(), ps.ByName("id"), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, entries, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *CommissionHandler) Summary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	summary, err := h.service.Summary(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Summary", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, summary); err != nil {
		h.log.Error("failed to write success response", "handler", "Summary", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CommissionHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/commissions/resellers/:id", h.List)
	router.GET("/api/v1/commissions/resellers/:id/summary", h.Summary)
}
