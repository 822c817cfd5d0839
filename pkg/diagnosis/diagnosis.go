// Package diagnosis enriches detected faults with LLM-generated root-cause
// analysis, falling back to rule-based templates whenever the model is
// unavailable, gated out, or returns an unusable reply.
package diagnosis

import (
	"time"

	"github.com/wisbric/kubeowl/pkg/fault"
)

// Result is one diagnosis for a primary fault. Every caller path receives a
// well-formed Result; LLM failure is normal control flow, not an error.
type Result struct {
	Fault         fault.Info   `json:"fault"`
	RelatedFaults []fault.Info `json:"related_faults,omitempty"`
	RootCause     string       `json:"root_cause"`
	Diagnosis     string       `json:"diagnosis,omitempty"`
	Solutions     []string     `json:"solutions"`
	Preventions   []string     `json:"preventions,omitempty"`
	FromFallback  bool         `json:"from_fallback"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Options configures the diagnosis engine. Built once from the application
// config and passed at construction; the engine never reads the environment.
type Options struct {
	Enabled      bool
	MinSeverity  fault.Severity
	CacheEnabled bool
	CacheTTL     time.Duration
}

// Request is the JSON body for POST /api/v1/diagnoses.
type Request struct {
	ClusterID string       `json:"cluster_id" validate:"required"`
	Fault     fault.Info   `json:"fault" validate:"required"`
	AllFaults []fault.Info `json:"all_faults"`
}

// RelatedFaults selects entries sharing the primary's resource identity,
// excluding the primary itself.
func RelatedFaults(primary fault.Info, all []fault.Info) []fault.Info {
	var related []fault.Info
	for _, f := range all {
		if f.ResourceKind != primary.ResourceKind ||
			f.ResourceName != primary.ResourceName ||
			f.Namespace != primary.Namespace {
			continue
		}
		if f.Type == primary.Type && f.DetectedAt.Equal(primary.DetectedAt) {
			continue
		}
		related = append(related, f)
	}
	return related
}
