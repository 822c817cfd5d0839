package fault

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
)

// EvictedDetector fires for pods the kubelet evicted under node pressure.
type EvictedDetector struct{}

func (d *EvictedDetector) Type() Type { return TypeEvicted }

func (d *EvictedDetector) CanDetect(kind string) bool { return kind == KindPod }

func (d *EvictedDetector) Detect(clusterID, namespace string, obj any) []Info {
	pod := asPod(obj)
	if pod == nil {
		return nil
	}
	if pod.Status.Phase != corev1.PodFailed || pod.Status.Reason != "Evicted" {
		return nil
	}

	msg := pod.Status.Message
	info := newInfo(TypeEvicted, SeverityHigh, KindPod, namespace, pod.Name,
		fmt.Sprintf("Pod %s was evicted", pod.Name),
		fmt.Sprintf("Pod %s/%s was evicted by the kubelet: %s", namespace, pod.Name, msg))

	info.Context[CtxErrorMessage] = msg
	info.Context[CtxIssueCategory] = evictionCategory(msg)
	if pod.Spec.NodeName != "" {
		info.Context[CtxNodeName] = pod.Spec.NodeName
	}
	if msg != "" {
		info.Symptoms = append(info.Symptoms, msg)
	}
	info.Symptoms = append(info.Symptoms, "pod phase Failed with reason Evicted")

	applyOwner(&info, pod)
	return []Info{info}
}

func evictionCategory(msg string) string {
	switch {
	case containsAny(msg, "ephemeral-storage", "ephemeral storage", "ephemeral local storage"):
		return "EPHEMERAL_STORAGE_EXCEEDED"
	case containsAny(msg, "diskpressure", "disk pressure"):
		return "DISK_PRESSURE"
	case containsAny(msg, "memory"):
		return "MEMORY_PRESSURE"
	case containsAny(msg, "pid"):
		return "PID_PRESSURE"
	default:
		return "NODE_RESOURCE_PRESSURE"
	}
}
