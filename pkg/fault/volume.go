package fault

import (
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
)

// VolumeMountErrorDetector fires when pod conditions or container waiting
// messages indicate a volume could not be mounted.
type VolumeMountErrorDetector struct{}

func (d *VolumeMountErrorDetector) Type() Type { return TypeVolumeMountError }

func (d *VolumeMountErrorDetector) CanDetect(kind string) bool { return kind == KindPod }

func (d *VolumeMountErrorDetector) Detect(clusterID, namespace string, obj any) []Info {
	pod := asPod(obj)
	if pod == nil {
		return nil
	}

	var message string
	for _, cond := range pod.Status.Conditions {
		if cond.Status == corev1.ConditionFalse && isVolumeMountMessage(cond.Message) {
			message = cond.Message
			break
		}
	}
	if message == "" {
		for _, cs := range pod.Status.ContainerStatuses {
			if cs.State.Waiting != nil && isVolumeMountMessage(cs.State.Waiting.Message) {
				message = cs.State.Waiting.Message
				break
			}
		}
	}
	if message == "" {
		return nil
	}

	info := newInfo(TypeVolumeMountError, SeverityHigh, KindPod, namespace, pod.Name,
		fmt.Sprintf("Pod %s cannot mount one of its volumes", pod.Name),
		fmt.Sprintf("Pod %s/%s reports a volume mount failure: %s", namespace, pod.Name, message))

	info.Context[CtxErrorMessage] = message
	info.Context[CtxIssueCategory] = volumeMountCategory(message)
	info.Symptoms = append(info.Symptoms, message)

	applyOwner(&info, pod)
	return []Info{info}
}

// isVolumeMountMessage matches the volume-mount keyword set.
func isVolumeMountMessage(msg string) bool {
	if msg == "" {
		return false
	}
	lower := strings.ToLower(msg)
	if containsAny(lower, "mountvolume", "failed to mount", "read-only", "fsgroup", "chown") {
		return true
	}
	if strings.Contains(lower, "csi") && strings.Contains(lower, "mount") {
		return true
	}
	if strings.Contains(lower, "permission") && containsAny(lower, "volume", "mount") {
		return true
	}
	return false
}

// volumeMountCategory orders sub-categories by specificity.
func volumeMountCategory(msg string) string {
	switch {
	case containsAny(msg, "read-only"):
		return "READONLY_FS"
	case containsAny(msg, "fsgroup", "chown"):
		return "FSGROUP_ERROR"
	case containsAny(msg, "permission"):
		return "PERMISSION_DENIED"
	case containsAny(msg, "subpath"):
		return "SUBPATH_ERROR"
	case containsAny(msg, "csi"):
		return "CSI_MOUNT_ERROR"
	case containsAny(msg, "mountvolume.setup", "failed to mount"):
		return "MOUNT_SETUP_FAILED"
	default:
		return "VOLUME_MOUNT_UNKNOWN"
	}
}
