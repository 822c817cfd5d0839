package fault

import (
	"log/slog"
)

// Detector inspects one resource kind for a single fault family.
//
// Implementations must not panic on unexpected shapes; malformed input yields
// an empty result. Detectors receive the already-parsed resource as an opaque
// value and type-assert the kinds they declare via CanDetect.
type Detector interface {
	// CanDetect reports whether the detector applies to the given kind.
	CanDetect(kind string) bool

	// Detect inspects the resource and returns zero or more faults.
	Detect(clusterID, namespace string, obj any) []Info

	// Type identifies the fault family the detector emits.
	Type() Type
}

// DefaultDetectors returns the full detector set in declaration order. The
// order is significant: it is the tie-break for per-resource deduplication.
func DefaultDetectors() []Detector {
	return []Detector{
		&CrashLoopBackOffDetector{},
		&ImagePullBackOffDetector{},
		&OOMKilledDetector{},
		&PendingDetector{},
		&LivenessProbeDetector{},
		&ReadinessProbeDetector{},
		&StartupProbeDetector{},
		&CreateContainerConfigErrorDetector{},
		&CreateContainerErrorDetector{},
		&VolumeMountErrorDetector{},
		&NetworkErrorDetector{},
		&EvictedDetector{},
		&TerminatingStuckDetector{},
		&DeploymentUnavailableDetector{},
		&StatefulSetUnavailableDetector{},
		&DaemonSetUnavailableDetector{},
		&ReplicaSetUnavailableDetector{},
		&JobFailedDetector{},
		&CronJobFailedDetector{},
		&NodeConditionDetector{},
	}
}

// Classifier fans detection across the registered detector set.
type Classifier struct {
	detectors []Detector
	logger    *slog.Logger
}

// NewClassifier creates a Classifier over the given detectors. Pass
// DefaultDetectors() for the standard set; adding a detector is a
// registration step, not a code change here.
func NewClassifier(logger *slog.Logger, detectors ...Detector) *Classifier {
	return &Classifier{detectors: detectors, logger: logger}
}

// DetectFaults runs every applicable detector against the resource and
// concatenates their findings in registration order. A panicking detector is
// logged and skipped; it never takes down the scan.
func (c *Classifier) DetectFaults(clusterID, namespace, kind string, obj any) []Info {
	var faults []Info
	for _, d := range c.detectors {
		if !d.CanDetect(kind) {
			continue
		}
		faults = append(faults, c.runDetector(d, clusterID, namespace, obj)...)
	}
	for i := range faults {
		if faults[i].Context == nil {
			faults[i].Context = map[string]string{}
		}
		faults[i].Context[CtxClusterID] = clusterID
	}
	return faults
}

func (c *Classifier) runDetector(d Detector, clusterID, namespace string, obj any) (out []Info) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("detector panicked",
				"fault_type", string(d.Type()),
				"panic", r,
			)
			out = nil
		}
	}()
	return d.Detect(clusterID, namespace, obj)
}

// GroupBySeverity buckets faults by severity.
func GroupBySeverity(faults []Info) map[Severity][]Info {
	out := make(map[Severity][]Info)
	for _, f := range faults {
		out[f.Severity] = append(out[f.Severity], f)
	}
	return out
}

// FilterBySeverity keeps faults at least as severe as min (ordinal ≤ min).
func FilterBySeverity(faults []Info, min Severity) []Info {
	var out []Info
	for _, f := range faults {
		if f.Severity <= min {
			out = append(out, f)
		}
	}
	return out
}

// Stats summarizes a fault list by severity.
type Stats struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Statistics counts faults per severity level.
func Statistics(faults []Info) Stats {
	s := Stats{Total: len(faults)}
	for _, f := range faults {
		switch f.Severity {
		case SeverityCritical:
			s.Critical++
		case SeverityHigh:
			s.High++
		case SeverityMedium:
			s.Medium++
		case SeverityLow:
			s.Low++
		}
	}
	return s
}
