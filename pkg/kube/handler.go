package kube

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wisbric/kubeowl/internal/httpserver"
)

// Handler provides HTTP handlers for browsing cluster resources.
type Handler struct {
	accessor *Accessor
	logger   *slog.Logger
}

// NewHandler creates a resource Handler.
func NewHandler(accessor *Accessor, logger *slog.Logger) *Handler {
	return &Handler{accessor: accessor, logger: logger}
}

// Routes returns a chi.Router with the resource browse routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{clusterID}/{kind}", h.handleList)
	r.Get("/{clusterID}/{kind}/{name}", h.handleGet)
	return r
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	clusterID := chi.URLParam(r, "clusterID")
	kind := chi.URLParam(r, "kind")
	namespace := r.URL.Query().Get("namespace")

	items, err := h.accessor.ListByKind(r.Context(), clusterID, kind, namespace)
	if err != nil {
		h.logger.Error("listing resources",
			"cluster_id", clusterID, "kind", kind, "namespace", namespace, "error", err)
		httpserver.RespondAppError(w, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, items)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	clusterID := chi.URLParam(r, "clusterID")
	kind := chi.URLParam(r, "kind")
	name := chi.URLParam(r, "name")
	namespace := r.URL.Query().Get("namespace")

	item, err := h.accessor.GetByKind(r.Context(), clusterID, kind, namespace, name)
	if err != nil {
		httpserver.RespondAppError(w, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, item)
}
