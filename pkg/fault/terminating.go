package fault

import (
	"fmt"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
)

// terminatingStuckAfter is how long a pod may sit with a deletion timestamp
// before it counts as stuck.
const terminatingStuckAfter = 5 * time.Minute

// TerminatingStuckDetector fires for pods that have been deleting for too
// long, classifying the blocking finalizer.
type TerminatingStuckDetector struct {
	// now is overridable for tests; defaults to time.Now.
	now func() time.Time
}

func (d *TerminatingStuckDetector) Type() Type { return TypeTerminatingStuck }

func (d *TerminatingStuckDetector) CanDetect(kind string) bool { return kind == KindPod }

func (d *TerminatingStuckDetector) Detect(clusterID, namespace string, obj any) []Info {
	pod := asPod(obj)
	if pod == nil || pod.DeletionTimestamp == nil {
		return nil
	}

	nowFn := d.now
	if nowFn == nil {
		nowFn = time.Now
	}
	stuckFor := nowFn().Sub(pod.DeletionTimestamp.Time)
	if stuckFor < terminatingStuckAfter {
		return nil
	}

	info := newInfo(TypeTerminatingStuck, SeverityHigh, KindPod, namespace, pod.Name,
		fmt.Sprintf("Pod %s has been terminating for %d minutes", pod.Name, int(stuckFor.Minutes())),
		fmt.Sprintf("Pod %s/%s was marked for deletion %d minutes ago and has not gone away.",
			namespace, pod.Name, int(stuckFor.Minutes())))

	info.Context[CtxStuckMinutes] = fmt.Sprintf("%d", int(stuckFor.Minutes()))
	if len(pod.Finalizers) > 0 {
		info.Context[CtxFinalizers] = strings.Join(pod.Finalizers, ",")
	}
	if pod.Spec.TerminationGracePeriodSeconds != nil {
		info.Context[CtxGracePeriodSeconds] = fmt.Sprintf("%d", *pod.Spec.TerminationGracePeriodSeconds)
	}
	info.Context[CtxIssueCategory] = terminatingCategory(pod)

	info.Symptoms = append(info.Symptoms,
		fmt.Sprintf("deletionTimestamp set %d minutes ago", int(stuckFor.Minutes())))
	if len(pod.Finalizers) > 0 {
		info.Symptoms = append(info.Symptoms,
			fmt.Sprintf("finalizers still present: %s", strings.Join(pod.Finalizers, ", ")))
	}

	applyOwner(&info, pod)
	return []Info{info}
}

// terminatingCategory classifies what keeps the pod from finishing deletion.
func terminatingCategory(pod *corev1.Pod) string {
	if len(pod.Finalizers) == 0 {
		if pod.Status.Phase == corev1.PodRunning {
			return "GRACEFUL_SHUTDOWN_STUCK"
		}
		return "TERMINATING_UNKNOWN"
	}

	joined := strings.ToLower(strings.Join(pod.Finalizers, ","))
	switch {
	case containsAny(joined, "volume", "csi"):
		return "VOLUME_DETACH_STUCK"
	case containsAny(joined, "cni", "calico", "flannel", "weave"):
		return "CNI_CLEANUP_STUCK"
	case containsAny(joined, "kubernetes", "foreground"):
		return "KUBERNETES_FINALIZER_STUCK"
	default:
		return "CUSTOM_FINALIZER_STUCK"
	}
}
