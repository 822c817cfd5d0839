package fault

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
)

// LivenessProbeDetector fires for containers being restarted by liveness
// probe failures: currently running, restarted at least once, with the last
// termination looking like a probe kill (SIGKILL/SIGTERM, not OOM).
// Containers already in CrashLoopBackOff are skipped — that detector wins.
type LivenessProbeDetector struct{}

func (d *LivenessProbeDetector) Type() Type { return TypeLivenessProbeFailed }

func (d *LivenessProbeDetector) CanDetect(kind string) bool { return kind == KindPod }

func (d *LivenessProbeDetector) Detect(clusterID, namespace string, obj any) []Info {
	pod := asPod(obj)
	if pod == nil {
		return nil
	}

	var faults []Info
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.State.Waiting != nil && cs.State.Waiting.Reason == "CrashLoopBackOff" {
			continue
		}
		if cs.State.Running == nil || cs.RestartCount < 1 {
			continue
		}
		spec := containerSpec(pod, cs.Name)
		if !hasLivenessProbe(spec) {
			continue
		}
		term := cs.LastTerminationState.Terminated
		if term == nil || term.Reason == "OOMKilled" {
			continue
		}
		if term.ExitCode != 137 && term.ExitCode != 143 {
			continue
		}

		info := newInfo(TypeLivenessProbeFailed, SeverityHigh, KindPod, namespace, pod.Name,
			fmt.Sprintf("Container %s is being restarted by its liveness probe", cs.Name),
			fmt.Sprintf("Container %s in pod %s/%s runs but keeps getting killed and restarted; the last termination (exit %d) matches a liveness probe kill.",
				cs.Name, namespace, pod.Name, term.ExitCode))

		info.Context[CtxContainerName] = cs.Name
		info.Context[CtxRestartCount] = itoa(cs.RestartCount)
		info.Context[CtxExitCode] = itoa(term.ExitCode)
		info.Context[CtxHasLivenessProbe] = "true"
		probeContext(info.Context, spec.LivenessProbe)

		info.Symptoms = append(info.Symptoms,
			fmt.Sprintf("restart count %d with running state", cs.RestartCount),
			fmt.Sprintf("last termination exit code %d (not OOM)", term.ExitCode),
		)

		applyOwner(&info, pod)
		faults = append(faults, info)
	}
	return faults
}

// ReadinessProbeDetector fires for running containers that a readiness probe
// keeps out of service endpoints.
type ReadinessProbeDetector struct{}

func (d *ReadinessProbeDetector) Type() Type { return TypeReadinessProbeFailed }

func (d *ReadinessProbeDetector) CanDetect(kind string) bool { return kind == KindPod }

func (d *ReadinessProbeDetector) Detect(clusterID, namespace string, obj any) []Info {
	pod := asPod(obj)
	if pod == nil || pod.Status.Phase != corev1.PodRunning {
		return nil
	}

	var faults []Info
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.State.Running == nil || cs.Ready {
			continue
		}
		spec := containerSpec(pod, cs.Name)
		if !hasReadinessProbe(spec) {
			continue
		}

		info := newInfo(TypeReadinessProbeFailed, SeverityMedium, KindPod, namespace, pod.Name,
			fmt.Sprintf("Container %s is running but not ready", cs.Name),
			fmt.Sprintf("Container %s in pod %s/%s is running but its readiness probe is failing, so the pod receives no traffic.",
				cs.Name, namespace, pod.Name))

		info.Context[CtxContainerName] = cs.Name
		probeContext(info.Context, spec.ReadinessProbe)

		info.Symptoms = append(info.Symptoms, "container running with ready=false")

		applyOwner(&info, pod)
		faults = append(faults, info)
	}
	return faults
}

// StartupProbeDetector fires when a startup probe never lets the container
// start: started=false with restarts, or CrashLoopBackOff before start.
type StartupProbeDetector struct{}

func (d *StartupProbeDetector) Type() Type { return TypeStartupProbeFailed }

func (d *StartupProbeDetector) CanDetect(kind string) bool { return kind == KindPod }

func (d *StartupProbeDetector) Detect(clusterID, namespace string, obj any) []Info {
	pod := asPod(obj)
	if pod == nil {
		return nil
	}

	var faults []Info
	for _, cs := range pod.Status.ContainerStatuses {
		spec := containerSpec(pod, cs.Name)
		if !hasStartupProbe(spec) {
			continue
		}
		notStarted := cs.Started != nil && !*cs.Started
		crashLooping := cs.State.Waiting != nil && cs.State.Waiting.Reason == "CrashLoopBackOff"
		if !(notStarted && cs.RestartCount > 0) && !(crashLooping && notStarted) {
			continue
		}

		info := newInfo(TypeStartupProbeFailed, SeverityHigh, KindPod, namespace, pod.Name,
			fmt.Sprintf("Container %s never passes its startup probe", cs.Name),
			fmt.Sprintf("Container %s in pod %s/%s has restarted %d times without its startup probe succeeding.",
				cs.Name, namespace, pod.Name, cs.RestartCount))

		info.Context[CtxContainerName] = cs.Name
		info.Context[CtxRestartCount] = itoa(cs.RestartCount)
		info.Context[CtxHasStartupProbe] = "true"
		probeContext(info.Context, spec.StartupProbe)

		info.Symptoms = append(info.Symptoms,
			fmt.Sprintf("started=false with restart count %d", cs.RestartCount))

		applyOwner(&info, pod)
		faults = append(faults, info)
	}
	return faults
}
