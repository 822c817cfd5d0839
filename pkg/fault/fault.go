// Package fault defines the fault model and the rule-based detectors that map
// raw Kubernetes resource state into structured fault records.
package fault

import (
	"encoding/json"
	"fmt"
	"time"
)

// Severity orders faults by impact. Lower ordinal means worse.
type Severity int

const (
	SeverityCritical Severity = iota
	SeverityHigh
	SeverityMedium
	SeverityLow
)

var severityNames = map[Severity]string{
	SeverityCritical: "CRITICAL",
	SeverityHigh:     "HIGH",
	SeverityMedium:   "MEDIUM",
	SeverityLow:      "LOW",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ParseSeverity parses a severity name. Unknown names map to SeverityLow.
func ParseSeverity(name string) Severity {
	for sev, n := range severityNames {
		if n == name {
			return sev
		}
	}
	return SeverityLow
}

// MarshalJSON encodes the severity as its name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*s = ParseSeverity(name)
	return nil
}

// Type identifies a fault family with a stable string code.
type Type string

const (
	TypeCrashLoopBackOff           Type = "CRASH_LOOP_BACK_OFF"
	TypeImagePullBackOff           Type = "IMAGE_PULL_BACK_OFF"
	TypeOOMKilled                  Type = "OOM_KILLED"
	TypePending                    Type = "PENDING"
	TypeLivenessProbeFailed        Type = "LIVENESS_PROBE_FAILED"
	TypeReadinessProbeFailed       Type = "READINESS_PROBE_FAILED"
	TypeStartupProbeFailed         Type = "STARTUP_PROBE_FAILED"
	TypeConfigError                Type = "CONFIG_ERROR"
	TypeCreateContainerConfigError Type = "CREATE_CONTAINER_CONFIG_ERROR"
	TypeCreateContainerError       Type = "CREATE_CONTAINER_ERROR"
	TypePVCError                   Type = "PVC_ERROR"
	TypeVolumeMountError           Type = "VOLUME_MOUNT_ERROR"
	TypeNetworkError               Type = "NETWORK_ERROR"
	TypeResourceQuotaExceeded      Type = "RESOURCE_QUOTA_EXCEEDED"
	TypeInsufficientResources      Type = "INSUFFICIENT_RESOURCES"
	TypeNodeNotReady               Type = "NODE_NOT_READY"
	TypeNodePressure               Type = "NODE_PRESSURE"
	TypeDeploymentUnavailable      Type = "DEPLOYMENT_UNAVAILABLE"
	TypeEvicted                    Type = "EVICTED"
	TypeTerminatingStuck           Type = "TERMINATING_STUCK"
	TypeJobFailed                  Type = "JOB_FAILED"
	TypeCronJobFailed              Type = "CRONJOB_FAILED"
	TypeUnknown                    Type = "UNKNOWN"
)

type typeMeta struct {
	description     string
	defaultSeverity Severity
}

var typeInfo = map[Type]typeMeta{
	TypeCrashLoopBackOff:           {"Container repeatedly crashes and restarts", SeverityCritical},
	TypeImagePullBackOff:           {"Container image cannot be pulled from the registry", SeverityCritical},
	TypeOOMKilled:                  {"Container was killed after exceeding its memory limit", SeverityCritical},
	TypePending:                    {"Pod cannot be scheduled onto a node", SeverityHigh},
	TypeLivenessProbeFailed:        {"Liveness probe failures are restarting the container", SeverityHigh},
	TypeReadinessProbeFailed:       {"Readiness probe failures keep the pod out of service endpoints", SeverityMedium},
	TypeStartupProbeFailed:         {"Startup probe failures prevent the container from starting", SeverityHigh},
	TypeConfigError:                {"Workload configuration is invalid", SeverityHigh},
	TypeCreateContainerConfigError: {"Container configuration references a missing ConfigMap or Secret", SeverityCritical},
	TypeCreateContainerError:       {"Container runtime failed to create the container", SeverityCritical},
	TypePVCError:                   {"PersistentVolumeClaim cannot be bound or attached", SeverityHigh},
	TypeVolumeMountError:           {"Volume cannot be mounted into the pod", SeverityHigh},
	TypeNetworkError:               {"Pod networking failed to come up", SeverityHigh},
	TypeResourceQuotaExceeded:      {"Namespace resource quota is exhausted", SeverityHigh},
	TypeInsufficientResources:      {"Cluster lacks free resources to place the pod", SeverityHigh},
	TypeNodeNotReady:               {"Node is not in Ready condition", SeverityCritical},
	TypeNodePressure:               {"Node reports resource pressure", SeverityHigh},
	TypeDeploymentUnavailable:      {"Workload has fewer available replicas than desired", SeverityHigh},
	TypeEvicted:                    {"Pod was evicted from its node", SeverityHigh},
	TypeTerminatingStuck:           {"Pod is stuck terminating", SeverityHigh},
	TypeJobFailed:                  {"Job failed to complete", SeverityHigh},
	TypeCronJobFailed:              {"CronJob is not running as scheduled", SeverityMedium},
	TypeUnknown:                    {"Unclassified fault", SeverityLow},
}

// Description returns the human description of the fault family.
func (t Type) Description() string {
	if m, ok := typeInfo[t]; ok {
		return m.description
	}
	return typeInfo[TypeUnknown].description
}

// DefaultSeverity returns the family's fallback severity. Detector-declared
// severity is authoritative; this is used only when no detector override
// applies.
func (t Type) DefaultSeverity() Severity {
	if m, ok := typeInfo[t]; ok {
		return m.defaultSeverity
	}
	return SeverityLow
}

// Types lists all known fault types.
func Types() []Type {
	out := make([]Type, 0, len(typeInfo))
	for t := range typeInfo {
		out = append(out, t)
	}
	return out
}

// Workload kinds detectors and scans operate on.
const (
	KindPod         = "Pod"
	KindDeployment  = "Deployment"
	KindStatefulSet = "StatefulSet"
	KindDaemonSet   = "DaemonSet"
	KindReplicaSet  = "ReplicaSet"
	KindJob         = "Job"
	KindCronJob     = "CronJob"
	KindNode        = "Node"
)

// Recognized Info.Context keys.
const (
	CtxOwnerKind             = "ownerKind"
	CtxOwnerName             = "ownerName"
	CtxContainerName         = "containerName"
	CtxImage                 = "image"
	CtxRestartCount          = "restartCount"
	CtxExitCode              = "exitCode"
	CtxTerminationReason     = "terminationReason"
	CtxTerminationMessage    = "terminationMessage"
	CtxIssueCategory         = "issueCategory"
	CtxErrorMessage          = "errorMessage"
	CtxSchedulingMessage     = "schedulingMessage"
	CtxHasLivenessProbe      = "hasLivenessProbe"
	CtxHasStartupProbe       = "hasStartupProbe"
	CtxFailureThreshold      = "failureThreshold"
	CtxPeriodSeconds         = "periodSeconds"
	CtxTimeoutSeconds        = "timeoutSeconds"
	CtxInitialDelaySeconds   = "initialDelaySeconds"
	CtxClusterID             = "clusterId"
	CtxNodeName              = "nodeName"
	CtxFinalizers            = "finalizers"
	CtxGracePeriodSeconds    = "gracePeriodSeconds"
	CtxStuckMinutes          = "stuckMinutes"
	CtxActiveCount           = "activeCount"
	CtxConcurrencyPolicy     = "concurrencyPolicy"
	CtxSchedule              = "schedule"
	CtxLastScheduleTime      = "lastScheduleTime"
	CtxLastSuccessfulTime    = "lastSuccessfulTime"
	CtxBackoffLimit          = "backoffLimit"
	CtxCompletions           = "completions"
	CtxParallelism           = "parallelism"
	CtxFailedCount           = "failedCount"
	CtxSucceededCount        = "succeededCount"
	CtxActiveDeadlineSeconds = "activeDeadlineSeconds"
	CtxRestartPolicy         = "restartPolicy"
)

// Info is one structured fault record emitted by a detector.
type Info struct {
	Type         Type              `json:"fault_type"`
	Severity     Severity          `json:"severity"`
	ResourceKind string            `json:"resource_kind"`
	Namespace    string            `json:"namespace,omitempty"`
	ResourceName string            `json:"resource_name"`
	Summary      string            `json:"summary"`
	Description  string            `json:"description"`
	Symptoms     []string          `json:"symptoms,omitempty"`
	Context      map[string]string `json:"context,omitempty"`
	DetectedAt   time.Time         `json:"detected_at"`
}

// newInfo builds a fault record with an initialized context map.
func newInfo(t Type, sev Severity, kind, namespace, name, summary, description string) Info {
	return Info{
		Type:         t,
		Severity:     sev,
		ResourceKind: kind,
		Namespace:    namespace,
		ResourceName: name,
		Summary:      summary,
		Description:  description,
		Context:      map[string]string{},
		DetectedAt:   time.Now().UTC(),
	}
}

// IssueCategory returns the detector-assigned sub-label, if any.
func (f *Info) IssueCategory() string {
	return f.Context[CtxIssueCategory]
}
