package fault

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
)

// ImagePullBackOffDetector fires when a container image cannot be pulled.
// Covers both main and init containers.
type ImagePullBackOffDetector struct{}

func (d *ImagePullBackOffDetector) Type() Type { return TypeImagePullBackOff }

func (d *ImagePullBackOffDetector) CanDetect(kind string) bool { return kind == KindPod }

func (d *ImagePullBackOffDetector) Detect(clusterID, namespace string, obj any) []Info {
	pod := asPod(obj)
	if pod == nil {
		return nil
	}

	var faults []Info
	statuses := append([]corev1.ContainerStatus{}, pod.Status.ContainerStatuses...)
	statuses = append(statuses, pod.Status.InitContainerStatuses...)

	for _, cs := range statuses {
		w := cs.State.Waiting
		if w == nil {
			continue
		}
		if w.Reason != "ImagePullBackOff" && w.Reason != "ErrImagePull" {
			continue
		}

		info := newInfo(TypeImagePullBackOff, SeverityCritical, KindPod, namespace, pod.Name,
			fmt.Sprintf("Image %s cannot be pulled for container %s", cs.Image, cs.Name),
			fmt.Sprintf("Container %s in pod %s/%s is stuck waiting because its image cannot be pulled: %s",
				cs.Name, namespace, pod.Name, w.Message))

		info.Context[CtxContainerName] = cs.Name
		info.Context[CtxImage] = cs.Image
		info.Context[CtxErrorMessage] = w.Message
		info.Context[CtxIssueCategory] = imagePullCategory(w.Message)

		info.Symptoms = append(info.Symptoms,
			fmt.Sprintf("waiting reason %s", w.Reason),
			fmt.Sprintf("image %s", cs.Image),
		)
		if w.Message != "" {
			info.Symptoms = append(info.Symptoms, w.Message)
		}

		applyOwner(&info, pod)
		faults = append(faults, info)
	}
	return faults
}

// imagePullCategory classifies a pull failure from the registry error text.
func imagePullCategory(msg string) string {
	switch {
	case containsAny(msg, "401", "unauthorized", "authentication required"):
		return "AUTHENTICATION_FAILED"
	case containsAny(msg, "403", "forbidden", "denied"):
		return "ACCESS_DENIED"
	case containsAny(msg, "404", "not found", "no such image"):
		return "IMAGE_NOT_FOUND"
	case containsAny(msg, "timeout", "i/o timeout", "deadline exceeded"):
		return "REGISTRY_TIMEOUT"
	case containsAny(msg, "rate limit", "toomanyrequests", "429"):
		return "RATE_LIMITED"
	case containsAny(msg, "manifest"):
		return "MANIFEST_ERROR"
	default:
		return "IMAGE_PULL_ERROR"
	}
}
