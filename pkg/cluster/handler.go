package cluster

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wisbric/kubeowl/internal/httpserver"
)

// Handler provides HTTP handlers for the cluster registry API.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates a cluster Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes returns a chi.Router with all cluster routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleRegister)
	r.Get("/", h.handleList)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Delete("/", h.handleDelete)
		r.Post("/test", h.handleTestConnection)
		r.Post("/refresh", h.handleRefresh)
	})
	return r
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	info, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.logger.Error("registering cluster", "error", err, "name", req.Name)
		httpserver.RespondAppError(w, err)
		return
	}

	httpserver.Respond(w, http.StatusCreated, info)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	infos, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("listing clusters", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list clusters")
		return
	}
	if infos == nil {
		infos = []Info{}
	}
	httpserver.Respond(w, http.StatusOK, infos)
}

// clusterID parses the {id} URL parameter.
func clusterID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid cluster ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := clusterID(w, r)
	if !ok {
		return
	}

	info, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpserver.RespondAppError(w, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, info)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := clusterID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("deleting cluster", "error", err, "cluster_id", id)
		httpserver.RespondAppError(w, err)
		return
	}
	httpserver.Respond(w, http.StatusNoContent, nil)
}

func (h *Handler) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	id, ok := clusterID(w, r)
	if !ok {
		return
	}

	info, err := h.service.TestConnection(r.Context(), id)
	if err != nil {
		h.logger.Warn("connection test failed", "cluster_id", id, "error", err)
		httpserver.RespondAppError(w, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, info)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	id, ok := clusterID(w, r)
	if !ok {
		return
	}

	h.service.RefreshIfNeeded(r.Context(), id)
	httpserver.Respond(w, http.StatusAccepted, map[string]string{"status": "refresh scheduled"})
}
