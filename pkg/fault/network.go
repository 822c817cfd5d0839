package fault

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
)

// NetworkErrorDetector fires when pod sandbox or CNI setup failed.
type NetworkErrorDetector struct{}

func (d *NetworkErrorDetector) Type() Type { return TypeNetworkError }

func (d *NetworkErrorDetector) CanDetect(kind string) bool { return kind == KindPod }

func (d *NetworkErrorDetector) Detect(clusterID, namespace string, obj any) []Info {
	pod := asPod(obj)
	if pod == nil {
		return nil
	}

	var message string
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.ContainersReady && cond.Status == corev1.ConditionFalse && isNetworkMessage(cond.Message) {
			message = cond.Message
			break
		}
		if cond.Status == corev1.ConditionFalse && containsAny(cond.Reason, "networknotready", "cni", "sandboxcreate") {
			message = cond.Message
			if message == "" {
				message = cond.Reason
			}
			break
		}
	}
	if message == "" {
		for _, cs := range pod.Status.ContainerStatuses {
			w := cs.State.Waiting
			if w == nil {
				continue
			}
			if isNetworkMessage(w.Reason) || isNetworkMessage(w.Message) {
				message = w.Message
				if message == "" {
					message = w.Reason
				}
				break
			}
		}
	}
	if message == "" {
		return nil
	}

	info := newInfo(TypeNetworkError, SeverityHigh, KindPod, namespace, pod.Name,
		fmt.Sprintf("Pod %s has a networking failure", pod.Name),
		fmt.Sprintf("Pod %s/%s cannot set up networking: %s", namespace, pod.Name, message))

	info.Context[CtxErrorMessage] = message
	info.Context[CtxIssueCategory] = networkCategory(message)
	info.Symptoms = append(info.Symptoms, message)

	applyOwner(&info, pod)
	return []Info{info}
}

func isNetworkMessage(msg string) bool {
	if msg == "" {
		return false
	}
	return containsAny(msg, "network", "cni", "sandbox", "failed to create pod sandbox")
}

func networkCategory(msg string) string {
	switch {
	case containsAny(msg, "networkpolicy", "network policy"):
		return "NETWORK_POLICY_BLOCKED"
	case containsAny(msg, "kube-proxy"):
		return "KUBE_PROXY_ERROR"
	case containsAny(msg, "dns"):
		return "DNS_ERROR"
	case containsAny(msg, "cni"):
		return "CNI_ERROR"
	case containsAny(msg, "sandbox"):
		return "SANDBOX_ERROR"
	default:
		return "NETWORK_UNKNOWN"
	}
}
