package diagnosis

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wisbric/kubeowl/internal/httpserver"
)

// Handler provides HTTP handlers for the diagnosis API.
type Handler struct {
	engine *Engine
	logger *slog.Logger
}

// NewHandler creates a diagnosis Handler.
func NewHandler(engine *Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// Routes returns a chi.Router with the diagnosis routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleDiagnose)
	return r
}

func (h *Handler) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	if req.Fault.ResourceName == "" || req.Fault.Type == "" {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "fault is incomplete")
		return
	}

	result := h.engine.Diagnose(r.Context(), req.ClusterID, req.Fault, req.AllFaults)
	httpserver.Respond(w, http.StatusOK, result)
}
