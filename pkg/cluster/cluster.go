// Package cluster is the persistent registry of Kubernetes clusters and the
// factory for their API clients.
package cluster

import (
	"time"

	"github.com/google/uuid"
)

// Status is the last observed connectivity state of a cluster.
type Status string

const (
	StatusConnected Status = "CONNECTED"
	StatusError     Status = "ERROR"
	StatusUnknown   Status = "UNKNOWN"
)

// Config holds the credentials a cluster was registered with. Immutable
// after registration.
type Config struct {
	ID           uuid.UUID
	Name         string
	Description  string
	APIServerURL string
	BearerToken  string
	CACertData   string
}

// Info is the mutable runtime snapshot of a registered cluster.
type Info struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	APIServerURL   string    `json:"api_server_url"`
	Version        string    `json:"version"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	LastChecked    time.Time `json:"last_checked"`
	NodeCount      int       `json:"node_count"`
	NamespaceCount int       `json:"namespace_count"`
	PodCount       int       `json:"pod_count"`
}

// RegisterRequest is the JSON body for POST /api/v1/clusters.
type RegisterRequest struct {
	Name         string `json:"name" validate:"required,min=1"`
	Description  string `json:"description"`
	APIServerURL string `json:"api_server_url" validate:"required,url"`
	BearerToken  string `json:"bearer_token" validate:"required"`
	CACertData   string `json:"ca_cert_data"`
}
