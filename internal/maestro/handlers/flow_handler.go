package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	apperrors "carhub/pkg/errors"
	httputil "carhub/pkg/http"
	"carhub/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type FlowService interface {
	ExecuteFlow(ctx context.Context, flowName string, input map[string]any) (map[string]any, error)
	GetAvailableFlows() []string
}

type FlowHandler struct {
	service FlowService
	log     *logger.Logger
}

func NewFlowHandler(service FlowService, log *logger.Logger) *FlowHandler {
	return &FlowHandler{
		service: service,
		log:     log,
	}
}

type ExecuteFlowRequest struct {
	Flow  string         `json:"flow"`
	Input map[string]any `json:"input"`
}

type ExecuteFlowResponse struct {
	Success bool           `json:"success"`
	Output  map[string]any `json:"output,omitempty"`
	Error   string         `json:"error,omitempty"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type ListFlowsResponse struct {
	Flows []string `json:"flows"`
}

func (h *FlowHandler) ExecuteFlow(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req ExecuteFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode request", "error", err)
		h.writeError(w, apperrors.InvalidInput("invalid request payload"))
		return
	}

	if req.Flow == "" {
		h.writeError(w, apperrors.InvalidInput("flow name is required"))
		return
	}

	if req.Input == nil {
		req.Input = make(map[string]any)
	}

	h.log.Info("executing flow", "flow", req.Flow)

	output, err := h.service.ExecuteFlow(r.Context(), req.Flow, req.Input)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, ExecuteFlowResponse{
		Success: true,
		Output:  output,
	})
}

func (h *FlowHandler) ListFlows(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.writeJSON(w, http.StatusOK, ListFlowsResponse{
		Flows: h.service.GetAvailableFlows(),
	})
}

func (h *FlowHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/maestro/execute", h.ExecuteFlow)
	router.GET("/api/v1/maestro/flows", h.ListFlows)
}

func (h *FlowHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	if err := httputil.WriteJSON(w, status, data); err != nil {
		h.log.Error("failed to encode response", "error", err)
	}
}

func (h *FlowHandler) writeError(w http.ResponseWriter, err error) {
	appErr := apperrors.AsAppError(err)
	h.writeJSON(w, appErr.StatusCode(), ExecuteFlowResponse{
		Success: false,
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	})
}
