package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/wisbric/kubeowl/internal/apperror"
	"github.com/wisbric/kubeowl/internal/telemetry"
)

// refreshAfter is how stale a snapshot may get before RefreshIfNeeded probes.
const refreshAfter = time.Minute

// storage is the registry persistence surface the service needs. *Store
// implements it; tests substitute an in-memory version.
type storage interface {
	CreateCluster(ctx context.Context, cfg Config, info Info) error
	ListInfos(ctx context.Context) ([]Info, error)
	GetInfo(ctx context.Context, id uuid.UUID) (Info, error)
	GetConfig(ctx context.Context, id uuid.UUID) (Config, error)
	ListConfigs(ctx context.Context) ([]Config, error)
	UpdateInfo(ctx context.Context, info Info) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, lastChecked time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service implements the cluster registry operations.
type Service struct {
	store   storage
	factory *Factory
	logger  *slog.Logger
}

// NewService creates a cluster Service.
func NewService(store storage, factory *Factory, logger *slog.Logger) *Service {
	return &Service{store: store, factory: factory, logger: logger}
}

// inventory is one successful probe's result.
type inventory struct {
	version    string
	nodes      int
	namespaces int
	pods       int
}

// collectInventory probes the cluster and counts nodes, namespaces, and pods.
func (s *Service) collectInventory(ctx context.Context, cs kubernetes.Interface) (inventory, error) {
	var inv inventory

	version, err := s.factory.Probe(ctx, cs)
	if err != nil {
		return inv, err
	}
	inv.version = version

	nodes, err := cs.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return inv, fmt.Errorf("counting nodes: %w", err)
	}
	inv.nodes = len(nodes.Items)

	namespaces, err := cs.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return inv, fmt.Errorf("counting namespaces: %w", err)
	}
	inv.namespaces = len(namespaces.Items)

	pods, err := cs.CoreV1().Pods("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return inv, fmt.Errorf("counting pods: %w", err)
	}
	inv.pods = len(pods.Items)

	return inv, nil
}

// Register validates the request, probes the cluster, and persists both
// registry rows. Nothing is persisted when the probe fails.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Info, error) {
	if req.APIServerURL == "" || req.BearerToken == "" {
		return Info{}, apperror.Errorf(apperror.KindValidationFailed,
			"api server URL and bearer token are required")
	}

	cfg := Config{
		ID:           uuid.New(),
		Name:         req.Name,
		Description:  req.Description,
		APIServerURL: req.APIServerURL,
		BearerToken:  req.BearerToken,
		CACertData:   req.CACertData,
	}

	cs, err := s.factory.Build(cfg)
	if err != nil {
		return Info{}, apperror.E(apperror.KindConnectionFailed,
			"could not build a client for the cluster", err)
	}

	inv, err := s.collectInventory(ctx, cs)
	if err != nil {
		return Info{}, apperror.E(apperror.KindConnectionFailed,
			"cluster probe failed", err)
	}

	now := time.Now().UTC()
	info := Info{
		ID:             cfg.ID,
		Name:           cfg.Name,
		Description:    cfg.Description,
		APIServerURL:   cfg.APIServerURL,
		Version:        inv.version,
		Status:         StatusConnected,
		CreatedAt:      now,
		LastChecked:    now,
		NodeCount:      inv.nodes,
		NamespaceCount: inv.namespaces,
		PodCount:       inv.pods,
	}

	if err := s.store.CreateCluster(ctx, cfg, info); err != nil {
		return Info{}, fmt.Errorf("persisting cluster: %w", err)
	}

	s.factory.Set(cfg.ID, cs)
	s.logger.Info("cluster registered",
		"cluster_id", cfg.ID, "name", cfg.Name, "version", inv.version)
	return info, nil
}

// List returns every cluster snapshot.
func (s *Service) List(ctx context.Context) ([]Info, error) {
	return s.store.ListInfos(ctx)
}

// Get returns one cluster snapshot.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Info, error) {
	info, err := s.store.GetInfo(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Info{}, apperror.Errorf(apperror.KindNotFound, "cluster %s not found", id)
		}
		return Info{}, fmt.Errorf("getting cluster %s: %w", id, err)
	}
	return info, nil
}

// GetConfig returns one cluster's registered credentials.
func (s *Service) GetConfig(ctx context.Context, id uuid.UUID) (Config, error) {
	cfg, err := s.store.GetConfig(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Config{}, apperror.Errorf(apperror.KindNotFound, "cluster %s not found", id)
		}
		return Config{}, fmt.Errorf("getting cluster config %s: %w", id, err)
	}
	return cfg, nil
}

// ClientFor resolves the client handle for a cluster id, rebuilding it from
// persisted credentials when absent. Implements kube.ClientSource.
func (s *Service) ClientFor(clusterID string) (kubernetes.Interface, error) {
	id, err := uuid.Parse(clusterID)
	if err != nil {
		return nil, fmt.Errorf("invalid cluster id %q: %w", clusterID, err)
	}

	if cs, ok := s.factory.Get(id); ok {
		return cs, nil
	}

	cfg, err := s.GetConfig(context.Background(), id)
	if err != nil {
		return nil, err
	}
	cs, err := s.factory.Build(cfg)
	if err != nil {
		return nil, err
	}
	s.factory.Set(id, cs)
	return cs, nil
}

// TestConnection reprobes a cluster. On success the snapshot gets a full
// refresh; on failure only status and last_checked change and the probe
// error is surfaced.
func (s *Service) TestConnection(ctx context.Context, id uuid.UUID) (Info, error) {
	cfg, err := s.GetConfig(ctx, id)
	if err != nil {
		return Info{}, err
	}

	now := time.Now().UTC()

	cs, buildErr := s.factory.Build(cfg)
	var inv inventory
	probeErr := buildErr
	if probeErr == nil {
		inv, probeErr = s.collectInventory(ctx, cs)
	}

	if probeErr != nil {
		if err := s.store.UpdateStatus(ctx, id, StatusError, now); err != nil {
			s.logger.Error("persisting error status failed", "cluster_id", id, "error", err)
		}
		return Info{}, apperror.E(apperror.KindConnectionFailed, "cluster probe failed", probeErr)
	}

	info, err := s.Get(ctx, id)
	if err != nil {
		return Info{}, err
	}
	info.Version = inv.version
	info.Status = StatusConnected
	info.LastChecked = now
	info.NodeCount = inv.nodes
	info.NamespaceCount = inv.namespaces
	info.PodCount = inv.pods

	if err := s.store.UpdateInfo(ctx, info); err != nil {
		return Info{}, fmt.Errorf("persisting refreshed snapshot: %w", err)
	}

	s.factory.Set(id, cs)
	return info, nil
}

// Delete removes the registry rows and drops the client handle.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting cluster %s: %w", id, err)
	}
	s.factory.Remove(id)
	s.logger.Info("cluster deleted", "cluster_id", id)
	return nil
}

// RefreshIfNeeded reprobes a cluster whose snapshot is at least a minute old.
// Failures are logged, counted, and swallowed — refresh is best-effort.
func (s *Service) RefreshIfNeeded(ctx context.Context, id uuid.UUID) {
	info, err := s.Get(ctx, id)
	if err != nil {
		s.logger.Warn("refresh skipped", "cluster_id", id, "error", err)
		return
	}
	if time.Since(info.LastChecked) < refreshAfter {
		return
	}
	if _, err := s.TestConnection(ctx, id); err != nil {
		telemetry.ClusterRefreshFailuresTotal.Inc()
		s.logger.Warn("background refresh failed", "cluster_id", id, "error", err)
	}
}

// ReconcileAtStartup rebuilds client handles for every persisted cluster.
// Per-cluster failures are logged and do not block peers.
func (s *Service) ReconcileAtStartup(ctx context.Context) error {
	configs, err := s.store.ListConfigs(ctx)
	if err != nil {
		return fmt.Errorf("loading persisted clusters: %w", err)
	}
	for _, cfg := range configs {
		cs, err := s.factory.Build(cfg)
		if err != nil {
			s.logger.Error("startup reconciliation: client build failed",
				"cluster_id", cfg.ID, "name", cfg.Name, "error", err)
			continue
		}
		s.factory.Set(cfg.ID, cs)
		s.logger.Info("cluster client rebuilt", "cluster_id", cfg.ID, "name", cfg.Name)
	}
	return nil
}

// RunRefreshLoop periodically sweeps RefreshIfNeeded over all clusters until
// the context ends. Used by worker mode.
func (s *Service) RunRefreshLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("refresh loop stopped")
			return nil
		case <-ticker.C:
			infos, err := s.List(ctx)
			if err != nil {
				s.logger.Warn("refresh sweep: listing clusters failed", "error", err)
				continue
			}
			for _, info := range infos {
				s.RefreshIfNeeded(ctx, info.ID)
			}
		}
	}
}
