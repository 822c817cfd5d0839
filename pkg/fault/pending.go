package fault

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
)

// PendingDetector fires when a pod cannot be scheduled. The scheduler's
// condition message is parsed into an issue category and preserved verbatim
// for the diagnosis prompt.
type PendingDetector struct{}

func (d *PendingDetector) Type() Type { return TypePending }

func (d *PendingDetector) CanDetect(kind string) bool { return kind == KindPod }

func (d *PendingDetector) Detect(clusterID, namespace string, obj any) []Info {
	pod := asPod(obj)
	if pod == nil || pod.Status.Phase != corev1.PodPending {
		return nil
	}

	info := newInfo(TypePending, SeverityHigh, KindPod, namespace, pod.Name,
		fmt.Sprintf("Pod %s is stuck in Pending", pod.Name),
		fmt.Sprintf("Pod %s/%s has not been scheduled onto a node.", namespace, pod.Name))

	for _, cond := range pod.Status.Conditions {
		if cond.Type != corev1.PodScheduled || cond.Status != corev1.ConditionFalse {
			continue
		}
		info.Context[CtxSchedulingMessage] = cond.Message
		info.Context[CtxIssueCategory] = schedulingCategory(cond.Message)
		if cond.Message != "" {
			info.Symptoms = append(info.Symptoms, cond.Message)
		}
		break
	}

	info.Symptoms = append(info.Symptoms, "pod phase Pending")
	applyOwner(&info, pod)
	return []Info{info}
}

// schedulingCategory maps a PodScheduled=False message onto the scheduling
// failure families.
func schedulingCategory(msg string) string {
	switch {
	case containsAny(msg, "unbound", "persistentvolumeclaim", "storageclass"):
		return "PVC_BINDING"
	case containsAny(msg, "insufficient cpu"):
		return "RESOURCE_SHORTAGE_CPU"
	case containsAny(msg, "insufficient memory"):
		return "RESOURCE_SHORTAGE_MEMORY"
	case containsAny(msg, "insufficient"):
		return "RESOURCE_SHORTAGE"
	case containsAny(msg, "didn't match", "matchnodeselector"):
		return "NODE_SELECTION"
	case containsAny(msg, "taint", "toleration"):
		return "TAINT_TOLERATION"
	case containsAny(msg, "affinity"):
		return "NODE_SELECTION"
	default:
		return "SCHEDULING_UNKNOWN"
	}
}
