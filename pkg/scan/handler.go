package scan

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wisbric/kubeowl/internal/httpserver"
	"github.com/wisbric/kubeowl/pkg/fault"
	"github.com/wisbric/kubeowl/pkg/notify"
)

// Handler provides HTTP handlers for the scan API.
type Handler struct {
	scanner  *Scanner
	notifier *notify.Notifier
	logger   *slog.Logger
}

// NewHandler creates a scan Handler. notifier may be nil.
func NewHandler(scanner *Scanner, notifier *notify.Notifier, logger *slog.Logger) *Handler {
	return &Handler{scanner: scanner, notifier: notifier, logger: logger}
}

// Routes returns a chi.Router with all scan routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/{clusterID}", h.handleScanCluster)
	r.Post("/{clusterID}/namespaces/{namespace}", h.handleScanNamespace)
	return r
}

// Response carries the deduplicated findings and their statistics.
type Response struct {
	Faults []fault.Info `json:"faults"`
	Stats  fault.Stats  `json:"stats"`
}

func (h *Handler) handleScanCluster(w http.ResponseWriter, r *http.Request) {
	clusterID := chi.URLParam(r, "clusterID")

	faults, err := h.scanner.ScanCluster(r.Context(), clusterID)
	if err != nil {
		h.logger.Error("cluster scan failed", "cluster_id", clusterID, "error", err)
		httpserver.RespondAppError(w, err)
		return
	}

	h.respond(w, r, clusterID, faults)
}

func (h *Handler) handleScanNamespace(w http.ResponseWriter, r *http.Request) {
	clusterID := chi.URLParam(r, "clusterID")
	namespace := chi.URLParam(r, "namespace")

	faults, err := h.scanner.ScanNamespace(r.Context(), clusterID, namespace)
	if err != nil {
		h.logger.Error("namespace scan failed",
			"cluster_id", clusterID, "namespace", namespace, "error", err)
		httpserver.RespondAppError(w, err)
		return
	}

	h.respond(w, r, clusterID, faults)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, clusterID string, faults []fault.Info) {
	deduped := Dedupe(faults)
	if deduped == nil {
		deduped = []fault.Info{}
	}
	stats := fault.Statistics(deduped)

	if stats.Critical > 0 && h.notifier != nil {
		critical := fault.FilterBySeverity(deduped, fault.SeverityCritical)
		h.notifier.PostScanSummary(r.Context(), clusterID, stats, critical)
	}

	httpserver.Respond(w, http.StatusOK, Response{Faults: deduped, Stats: stats})
}
