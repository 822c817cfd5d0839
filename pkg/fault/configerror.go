package fault

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
)

// CreateContainerConfigErrorDetector fires when a container cannot be created
// because its configuration references a missing ConfigMap or Secret. Both
// main and init containers are checked.
type CreateContainerConfigErrorDetector struct{}

func (d *CreateContainerConfigErrorDetector) Type() Type { return TypeCreateContainerConfigError }

func (d *CreateContainerConfigErrorDetector) CanDetect(kind string) bool { return kind == KindPod }

func (d *CreateContainerConfigErrorDetector) Detect(clusterID, namespace string, obj any) []Info {
	pod := asPod(obj)
	if pod == nil {
		return nil
	}

	var faults []Info
	statuses := append([]corev1.ContainerStatus{}, pod.Status.ContainerStatuses...)
	statuses = append(statuses, pod.Status.InitContainerStatuses...)

	for _, cs := range statuses {
		w := cs.State.Waiting
		if w == nil || w.Reason != "CreateContainerConfigError" {
			continue
		}

		info := newInfo(TypeCreateContainerConfigError, SeverityCritical, KindPod, namespace, pod.Name,
			fmt.Sprintf("Container %s has a configuration reference error", cs.Name),
			fmt.Sprintf("Container %s in pod %s/%s cannot be created: %s", cs.Name, namespace, pod.Name, w.Message))

		info.Context[CtxContainerName] = cs.Name
		info.Context[CtxErrorMessage] = w.Message
		info.Context[CtxIssueCategory] = configErrorCategory(w.Message)

		info.Symptoms = append(info.Symptoms, "waiting reason CreateContainerConfigError")
		if w.Message != "" {
			info.Symptoms = append(info.Symptoms, w.Message)
		}

		applyOwner(&info, pod)
		faults = append(faults, info)
	}
	return faults
}

// configErrorCategory classifies a CreateContainerConfigError message.
func configErrorCategory(msg string) string {
	switch {
	case containsAny(msg, "configmap") && containsAny(msg, "key"):
		return "CONFIGMAP_KEY_NOT_FOUND"
	case containsAny(msg, "secret") && containsAny(msg, "key"):
		return "SECRET_KEY_NOT_FOUND"
	case containsAny(msg, "configmap"):
		return "CONFIGMAP_NOT_FOUND"
	case containsAny(msg, "secret"):
		return "SECRET_NOT_FOUND"
	case containsAny(msg, "envfrom"):
		return "ENVFROM_REFERENCE_ERROR"
	case containsAny(msg, "volume", "mount"):
		return "VOLUME_MOUNT_CONFIG_ERROR"
	default:
		return "CONFIG_REFERENCE_ERROR"
	}
}

// CreateContainerErrorDetector fires when the container runtime itself fails
// to create the container.
type CreateContainerErrorDetector struct{}

func (d *CreateContainerErrorDetector) Type() Type { return TypeCreateContainerError }

func (d *CreateContainerErrorDetector) CanDetect(kind string) bool { return kind == KindPod }

func (d *CreateContainerErrorDetector) Detect(clusterID, namespace string, obj any) []Info {
	pod := asPod(obj)
	if pod == nil {
		return nil
	}

	var faults []Info
	for _, cs := range pod.Status.ContainerStatuses {
		w := cs.State.Waiting
		if w == nil || w.Reason != "CreateContainerError" {
			continue
		}

		info := newInfo(TypeCreateContainerError, SeverityCritical, KindPod, namespace, pod.Name,
			fmt.Sprintf("Container %s failed to be created by the runtime", cs.Name),
			fmt.Sprintf("The container runtime could not create container %s in pod %s/%s: %s",
				cs.Name, namespace, pod.Name, w.Message))

		info.Context[CtxContainerName] = cs.Name
		info.Context[CtxImage] = cs.Image
		info.Context[CtxErrorMessage] = w.Message
		info.Context[CtxIssueCategory] = createContainerCategory(w.Message)

		info.Symptoms = append(info.Symptoms, "waiting reason CreateContainerError")
		if w.Message != "" {
			info.Symptoms = append(info.Symptoms, w.Message)
		}

		applyOwner(&info, pod)
		faults = append(faults, info)
	}
	return faults
}

// createContainerCategory classifies a CreateContainerError message.
func createContainerCategory(msg string) string {
	switch {
	case containsAny(msg, "executable file not found", "command not found", "no such file"):
		return "COMMAND_NOT_FOUND"
	case containsAny(msg, "permission denied"):
		return "PERMISSION_DENIED"
	case containsAny(msg, "entrypoint"):
		return "ENTRYPOINT_ERROR"
	case containsAny(msg, "volume", "mount"):
		return "VOLUME_MOUNT_ERROR"
	case containsAny(msg, "oci runtime"):
		return "OCI_RUNTIME_ERROR"
	case containsAny(msg, "security context", "seccomp", "apparmor"):
		return "SECURITY_CONTEXT_ERROR"
	default:
		return "CONTAINER_CREATE_ERROR"
	}
}
