package fault

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
)

// CrashLoopBackOffDetector fires when a container is waiting in
// CrashLoopBackOff. The issue category pins down why the container keeps
// dying: OOM, probe kills, or application exit codes.
type CrashLoopBackOffDetector struct{}

func (d *CrashLoopBackOffDetector) Type() Type { return TypeCrashLoopBackOff }

func (d *CrashLoopBackOffDetector) CanDetect(kind string) bool { return kind == KindPod }

func (d *CrashLoopBackOffDetector) Detect(clusterID, namespace string, obj any) []Info {
	pod := asPod(obj)
	if pod == nil {
		return nil
	}

	var faults []Info
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.State.Waiting == nil || cs.State.Waiting.Reason != "CrashLoopBackOff" {
			continue
		}

		info := newInfo(TypeCrashLoopBackOff, SeverityCritical, KindPod, namespace, pod.Name,
			fmt.Sprintf("Container %s is in CrashLoopBackOff", cs.Name),
			fmt.Sprintf("Container %s in pod %s/%s keeps crashing shortly after start and kubelet is backing off restarts (restart count %d).",
				cs.Name, namespace, pod.Name, cs.RestartCount))

		spec := containerSpec(pod, cs.Name)
		liveness := hasLivenessProbe(spec)
		startup := hasStartupProbe(spec)

		info.Context[CtxContainerName] = cs.Name
		info.Context[CtxImage] = cs.Image
		info.Context[CtxRestartCount] = itoa(cs.RestartCount)
		info.Context[CtxHasLivenessProbe] = boolStr(liveness)
		info.Context[CtxHasStartupProbe] = boolStr(startup)

		term := cs.LastTerminationState.Terminated
		if term != nil {
			info.Context[CtxExitCode] = itoa(term.ExitCode)
			info.Context[CtxTerminationReason] = term.Reason
			if term.Message != "" {
				info.Context[CtxTerminationMessage] = term.Message
			}
		}
		info.Context[CtxIssueCategory] = crashLoopCategory(term, liveness, startup)

		info.Symptoms = append(info.Symptoms,
			fmt.Sprintf("waiting reason CrashLoopBackOff: %s", cs.State.Waiting.Message),
			fmt.Sprintf("container restarted %d times", cs.RestartCount),
		)
		if term != nil {
			info.Symptoms = append(info.Symptoms,
				fmt.Sprintf("last termination: exit code %d, reason %q", term.ExitCode, term.Reason))
		}

		applyOwner(&info, pod)
		faults = append(faults, info)
	}
	return faults
}

// crashLoopCategory classifies the crash cause. Precedence: OOM first, then
// probe evidence from the termination message, then the 137 heuristic against
// the configured probes, then the exit-code table.
func crashLoopCategory(term *corev1.ContainerStateTerminated, liveness, startup bool) string {
	if term == nil {
		return "APPLICATION_ERROR"
	}
	if term.Reason == "OOMKilled" {
		return "OOM_KILLED"
	}

	msg := term.Message
	switch {
	case containsAny(msg, "liveness"):
		return "LIVENESS_PROBE_KILLED"
	case containsAny(msg, "startup") && containsAny(msg, "probe"):
		return "STARTUP_PROBE_KILLED"
	case containsAny(msg, "probe"):
		return "LIVENESS_PROBE_KILLED"
	}

	if term.ExitCode == 137 {
		switch {
		case startup:
			return "STARTUP_PROBE_KILLED"
		case liveness:
			return "LIVENESS_PROBE_KILLED"
		default:
			return "SIGKILL_NOT_OOM"
		}
	}

	switch {
	case term.ExitCode == 127:
		return "COMMAND_NOT_FOUND"
	case term.ExitCode == 126:
		return "PERMISSION_DENIED"
	case term.ExitCode == 1:
		return "APPLICATION_ERROR"
	case term.ExitCode == 143:
		return "SIGTERM_RECEIVED"
	case term.ExitCode > 128:
		return "SIGNAL_KILLED"
	default:
		return "APPLICATION_ERROR"
	}
}
