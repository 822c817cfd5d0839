package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

const (
	requestTimeout = 30 * time.Second
	connectTimeout = 10 * time.Second
)

// Factory builds and owns one Kubernetes client per registered cluster.
// Handles are created lazily or at startup, replaced atomically on
// reconnect, and removed on delete.
type Factory struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]kubernetes.Interface
	logger  *slog.Logger

	// newClient is overridable for tests; defaults to kubernetes.NewForConfig.
	newClient func(*rest.Config) (kubernetes.Interface, error)
}

// NewFactory creates an empty client factory.
func NewFactory(logger *slog.Logger) *Factory {
	return &Factory{
		clients: make(map[uuid.UUID]kubernetes.Interface),
		logger:  logger,
		newClient: func(cfg *rest.Config) (kubernetes.Interface, error) {
			return kubernetes.NewForConfig(cfg)
		},
	}
}

// Build constructs a client strictly from the registered credentials. Ambient
// kubeconfig and in-cluster discovery are never consulted. Certificates are
// verified only when CA data was supplied.
func (f *Factory) Build(cfg Config) (kubernetes.Interface, error) {
	if cfg.APIServerURL == "" || cfg.BearerToken == "" {
		return nil, fmt.Errorf("cluster %s: api server URL and bearer token are required", cfg.ID)
	}

	restCfg := &rest.Config{
		Host:        cfg.APIServerURL,
		BearerToken: cfg.BearerToken,
		Timeout:     requestTimeout,
		Dial: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,
	}
	if cfg.CACertData != "" {
		restCfg.TLSClientConfig = rest.TLSClientConfig{CAData: []byte(cfg.CACertData)}
	} else {
		restCfg.TLSClientConfig = rest.TLSClientConfig{Insecure: true}
	}

	cs, err := f.newClient(restCfg)
	if err != nil {
		return nil, fmt.Errorf("building client for cluster %s: %w", cfg.ID, err)
	}
	return cs, nil
}

// Probe verifies connectivity and returns the server version.
func (f *Factory) Probe(ctx context.Context, cs kubernetes.Interface) (string, error) {
	version, err := cs.Discovery().ServerVersion()
	if err != nil {
		return "", fmt.Errorf("probing server version: %w", err)
	}
	return version.GitVersion, nil
}

// Set stores (or replaces) the handle for a cluster.
func (f *Factory) Set(id uuid.UUID, cs kubernetes.Interface) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[id] = cs
}

// Get returns the cached handle for a cluster, if any.
func (f *Factory) Get(id uuid.UUID) (kubernetes.Interface, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	cs, ok := f.clients[id]
	return cs, ok
}

// Remove drops the handle for a deleted cluster.
func (f *Factory) Remove(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clients, id)
}
